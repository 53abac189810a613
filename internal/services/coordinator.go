package services

import (
	"bytes"
	"context"
	"net/url"
	"time"

	"github.com/File-Sharing-BondBridg/Image-Service/internal/apperrors"
	"github.com/File-Sharing-BondBridg/Image-Service/internal/models"
	"github.com/File-Sharing-BondBridg/Image-Service/internal/previews"
	"github.com/File-Sharing-BondBridg/Image-Service/internal/storage"
	"github.com/rs/zerolog"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
)

const (
	defaultContentType  = "application/octet-stream"
	defaultDownloadPath = "/api/download/"
)

// Download is an object ready to be streamed to a client. The caller must
// Close Body.
type Download struct {
	Body        *Body
	ContentType string
	Filename    string
	Size        int64 // -1 when unknown
}

// Thumbnail is either a redirect target or inline content.
type Thumbnail struct {
	RedirectURL string
	Inline      *Download
}

// Coordinator places uploads on a backend, records where they went and
// routes reads and deletes back to that backend.
type Coordinator struct {
	store        storage.MetadataStore
	local        Backend
	remote       Backend
	scanner      Scanner
	events       EventPublisher
	downloadPath string
	now          func() time.Time
	log          zerolog.Logger
}

// Option customizes a Coordinator.
type Option func(*Coordinator)

// WithScanner scans every upload before it is stored.
func WithScanner(s Scanner) Option {
	return func(c *Coordinator) { c.scanner = s }
}

// WithEvents publishes upload and delete events.
func WithEvents(p EventPublisher) Option {
	return func(c *Coordinator) { c.events = p }
}

// WithDownloadPath sets the path prefix thumbnails redirect to when a
// remote record has no public URL.
func WithDownloadPath(prefix string) Option {
	return func(c *Coordinator) { c.downloadPath = prefix }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// NewCoordinator wires a coordinator. remote may be UnconfiguredRemote.
func NewCoordinator(store storage.MetadataStore, local, remote Backend, log zerolog.Logger, opts ...Option) *Coordinator {
	if remote == nil {
		remote = UnconfiguredRemote{}
	}
	c := &Coordinator{
		store:        store,
		local:        local,
		remote:       remote,
		downloadPath: defaultDownloadPath,
		now:          time.Now,
		log:          log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RemoteAvailable reports whether uploads will try the remote backend.
func (c *Coordinator) RemoteAvailable() bool { return c.remote.Available() }

// List returns every record, newest first.
func (c *Coordinator) List(ctx context.Context) ([]models.ImageRecord, error) {
	return c.store.List(ctx)
}

// Upload stores the bytes on the remote backend when possible and on disk
// otherwise, then records the placement. Remote failures never reach the
// caller.
func (c *Coordinator) Upload(ctx context.Context, upload Upload) (rec models.ImageRecord, err error) {
	span, ctx := tracer.StartSpanFromContext(ctx, "imagevault.upload", tracer.ResourceName("upload"))
	defer func() { span.Finish(tracer.WithError(err)) }()

	if upload.Data == nil {
		return models.ImageRecord{}, apperrors.ClientInput("no file")
	}
	if upload.Size <= 0 {
		upload.Size = int64(len(upload.Data))
	}

	if err := c.scan(ctx, upload); err != nil {
		return models.ImageRecord{}, err
	}

	placement, kind, err := c.place(ctx, upload)
	if err != nil {
		return models.ImageRecord{}, err
	}
	span.SetTag("backend", string(kind))

	size := upload.Size
	created := c.now().UTC()
	rec = models.ImageRecord{
		ID:          placement.ID,
		Name:        upload.Name,
		MimeType:    upload.MimeType,
		Size:        &size,
		CreatedTime: &created,
		Backend:     kind,
		RemoteKey:   placement.RemoteKey,
		PublicURL:   placement.PublicURL,
		LocalPath:   placement.LocalPath,
	}

	if err := c.store.Insert(ctx, rec); err != nil {
		c.log.Error().Err(err).Str("id", rec.ID).Msg("failed to save image metadata")
		return models.ImageRecord{}, err
	}

	c.log.Info().Str("id", rec.ID).Str("backend", string(kind)).Int64("size", size).Msg("image uploaded")
	c.publish(ctx, SubjectImageUploaded, "uploaded", rec)
	return rec, nil
}

// place tries the remote backend and falls back to disk.
func (c *Coordinator) place(ctx context.Context, upload Upload) (Placement, models.Backend, error) {
	if c.remote.Available() {
		placement, err := c.remote.Put(ctx, upload)
		if err == nil {
			return placement, models.BackendRemote, nil
		}
		c.log.Error().Err(err).Str("name", upload.Name).Msg("remote upload failed, falling back to local storage")
	}

	placement, err := c.local.Put(ctx, upload)
	if err != nil {
		return Placement{}, "", err
	}
	return placement, models.BackendLocal, nil
}

// scan rejects infected uploads. Scanner outages are logged and ignored.
func (c *Coordinator) scan(ctx context.Context, upload Upload) error {
	if c.scanner == nil {
		return nil
	}
	verdict, err := c.scanner.Scan(ctx, upload.Data)
	if err != nil {
		c.log.Warn().Err(err).Str("name", upload.Name).Msg("virus scan unavailable, accepting upload unscanned")
		return nil
	}
	if verdict.Infected {
		return apperrors.Rejected("upload rejected: malware detected (%s)", verdict.Signature)
	}
	return nil
}

// Download opens the bytes behind id.
func (c *Coordinator) Download(ctx context.Context, id string) (dl *Download, err error) {
	span, ctx := tracer.StartSpanFromContext(ctx, "imagevault.download", tracer.ResourceName("download"))
	defer func() { span.Finish(tracer.WithError(err)) }()

	rec, err := c.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	return c.open(ctx, rec)
}

func (c *Coordinator) open(ctx context.Context, rec models.ImageRecord) (*Download, error) {
	backend, err := c.backendFor(rec)
	if err != nil {
		return nil, err
	}

	body, err := backend.Get(ctx, rec)
	if err != nil {
		c.log.Error().Err(err).Str("id", rec.ID).Str("backend", string(rec.Backend)).Msg("failed to open image")
		return nil, err
	}

	dl := &Download{
		Body:        body,
		ContentType: rec.MimeType,
		Filename:    rec.Name,
		Size:        -1,
	}
	if dl.ContentType == "" {
		dl.ContentType = defaultContentType
	}
	if rec.Size != nil {
		dl.Size = *rec.Size
	}
	return dl, nil
}

// Thumbnail serves local images inline, optionally resized to width, and
// redirects remote images to their public URL or to the download route.
func (c *Coordinator) Thumbnail(ctx context.Context, id string, width int) (thumb *Thumbnail, err error) {
	span, ctx := tracer.StartSpanFromContext(ctx, "imagevault.thumbnail", tracer.ResourceName("thumbnail"))
	defer func() { span.Finish(tracer.WithError(err)) }()

	rec, err := c.lookup(ctx, id)
	if err != nil {
		return nil, err
	}

	switch rec.Backend {
	case models.BackendLocal:
		dl, err := c.open(ctx, rec)
		if err != nil {
			return nil, err
		}
		if width > 0 {
			if dl, err = c.resize(dl, width); err != nil {
				return nil, err
			}
		}
		return &Thumbnail{Inline: dl}, nil
	case models.BackendRemote:
		if rec.PublicURL != "" {
			return &Thumbnail{RedirectURL: rec.PublicURL}, nil
		}
		return &Thumbnail{RedirectURL: c.downloadPath + url.PathEscape(rec.ID)}, nil
	}
	return nil, apperrors.UnsupportedSource("unsupported source")
}

// resize replaces dl with a scaled copy. Content that cannot be decoded as
// an image is served unchanged.
func (c *Coordinator) resize(dl *Download, width int) (*Download, error) {
	var buf bytes.Buffer
	_, err := dl.Body.WriteTo(&buf)
	_ = dl.Body.Close()
	if err != nil {
		return nil, apperrors.LocalIO("failed to read local file").WithCause(err)
	}

	out := &Download{Filename: dl.Filename, ContentType: dl.ContentType}
	data := buf.Bytes()
	resized, contentType, err := previews.Resize(data, dl.Filename, width)
	if err != nil {
		c.log.Debug().Err(err).Str("name", dl.Filename).Msg("thumbnail resize skipped")
		resized = data
	} else {
		out.ContentType = contentType
	}
	out.Body = ReaderBody(bytes.NewReader(resized))
	out.Size = int64(len(resized))
	return out, nil
}

// Delete removes the bytes (best effort) and then the record.
func (c *Coordinator) Delete(ctx context.Context, id string) (err error) {
	span, ctx := tracer.StartSpanFromContext(ctx, "imagevault.delete", tracer.ResourceName("delete"))
	defer func() { span.Finish(tracer.WithError(err)) }()

	rec, err := c.lookup(ctx, id)
	if err != nil {
		return err
	}

	c.deleteBytes(ctx, rec)

	if _, _, err := c.store.Remove(ctx, id); err != nil {
		c.log.Error().Err(err).Str("id", id).Msg("failed to remove image metadata")
		return err
	}

	c.log.Info().Str("id", id).Str("backend", string(rec.Backend)).Msg("image deleted")
	c.publish(ctx, SubjectImageDeleted, "deleted", rec)
	return nil
}

func (c *Coordinator) deleteBytes(ctx context.Context, rec models.ImageRecord) {
	switch rec.Backend {
	case models.BackendRemote:
		if !c.remote.Available() {
			c.log.Warn().Str("id", rec.ID).Str("key", rec.RemoteKey).
				Msg("remote storage not configured, removing metadata only")
			return
		}
		if err := c.remote.Delete(ctx, rec); err != nil {
			if apperrors.Is(err, apperrors.CodeNotFound) {
				c.log.Warn().Str("key", rec.RemoteKey).Msg("remote object not found during delete, removing metadata anyway")
			} else {
				c.log.Warn().Err(err).Str("key", rec.RemoteKey).Msg("failed to delete remote object")
			}
		}
	case models.BackendLocal:
		if err := c.local.Delete(ctx, rec); err != nil {
			c.log.Debug().Err(err).Str("path", rec.LocalPath).Msg("ignoring local delete failure")
		}
	}
}

func (c *Coordinator) lookup(ctx context.Context, id string) (models.ImageRecord, error) {
	rec, ok, err := c.store.Find(ctx, id)
	if err != nil {
		return models.ImageRecord{}, err
	}
	if !ok {
		return models.ImageRecord{}, apperrors.NotFound("not found")
	}
	return rec, nil
}

// backendFor picks the backend named by the record, if it is usable.
func (c *Coordinator) backendFor(rec models.ImageRecord) (Backend, error) {
	switch {
	case rec.Backend == models.BackendLocal && rec.LocalPath != "":
		return c.local, nil
	case rec.Backend == models.BackendRemote && rec.RemoteKey != "" && c.remote.Available():
		return c.remote, nil
	}
	return nil, apperrors.UnsupportedSource("unsupported source")
}

func (c *Coordinator) publish(ctx context.Context, subject, action string, rec models.ImageRecord) {
	if c.events == nil {
		return
	}
	event := ImageEvent{
		Action:     action,
		ID:         rec.ID,
		Name:       rec.Name,
		Backend:    string(rec.Backend),
		Size:       rec.Size,
		OccurredAt: c.now().UTC(),
	}
	if err := c.events.Publish(ctx, subject, event); err != nil {
		c.log.Warn().Err(err).Str("subject", subject).Str("id", rec.ID).Msg("failed to publish event")
	}
}
