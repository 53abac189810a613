package services

import (
	"bytes"
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/File-Sharing-BondBridg/Image-Service/internal/apperrors"
	"github.com/File-Sharing-BondBridg/Image-Service/internal/configuration"
	"github.com/File-Sharing-BondBridg/Image-Service/internal/models"
	"github.com/rs/zerolog"
)

// RemoteBackend stores image bytes in an S3-compatible bucket.
type RemoteBackend struct {
	client        ObjectClient
	publicBaseURL string
	now           func() time.Time
	log           zerolog.Logger
}

// NewRemoteBackendWithClient wraps an already-built client. publicBaseURL
// may be empty.
func NewRemoteBackendWithClient(client ObjectClient, publicBaseURL string, log zerolog.Logger) *RemoteBackend {
	return &RemoteBackend{
		client:        client,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		now:           time.Now,
		log:           log,
	}
}

// NewRemoteBackend builds the remote backend from configuration. A remote
// that is disabled, has no bucket or has no credentials yields
// UnconfiguredRemote; none of these fail startup.
func NewRemoteBackend(cfg configuration.RemoteConfig, log zerolog.Logger) Backend {
	if !cfg.Requested() {
		log.Info().Msg("remote storage disabled (no R2_BUCKET_NAME)")
		return UnconfiguredRemote{}
	}
	if !cfg.HasCredentials() {
		log.Warn().Str("bucket", cfg.Bucket).
			Msg("remote storage is enabled but R2_ACCESS_KEY_ID or R2_SECRET_ACCESS_KEY is missing; running local-only")
		return UnconfiguredRemote{}
	}

	client, err := NewMinioService(cfg)
	if err != nil {
		log.Warn().Err(err).Str("bucket", cfg.Bucket).Msg("failed to build remote client; running local-only")
		return UnconfiguredRemote{}
	}

	log.Info().Str("bucket", cfg.Bucket).Str("endpoint", cfg.Endpoint).Msg("remote storage enabled")
	return NewRemoteBackendWithClient(client, cfg.PublicURL, log)
}

func (r *RemoteBackend) Kind() models.Backend { return models.BackendRemote }

func (r *RemoteBackend) Available() bool { return r.client != nil }

// Client returns the underlying object client.
func (r *RemoteBackend) Client() ObjectClient { return r.client }

func (r *RemoteBackend) Put(ctx context.Context, upload Upload) (Placement, error) {
	key := newRemoteKey(r.now(), upload.Name)
	if err := r.client.PutObject(ctx, key, bytes.NewReader(upload.Data), int64(len(upload.Data)), upload.MimeType); err != nil {
		return Placement{}, apperrors.Upstream("failed to upload to remote storage").WithCause(err)
	}

	p := Placement{ID: key, RemoteKey: key}
	if r.publicBaseURL != "" {
		p.PublicURL = r.publicBaseURL + "/" + url.PathEscape(key)
	}
	return p, nil
}

func (r *RemoteBackend) Get(ctx context.Context, record models.ImageRecord) (*Body, error) {
	if record.RemoteKey == "" {
		return nil, apperrors.UnsupportedSource("unsupported source")
	}
	body, err := r.client.GetObject(ctx, record.RemoteKey)
	if err != nil {
		if isRemoteNotFound(err) {
			return nil, apperrors.NotFound("file not found on remote storage").WithCause(err)
		}
		return nil, apperrors.Upstream("failed to download from remote storage").WithCause(err)
	}
	return body, nil
}

func (r *RemoteBackend) Delete(ctx context.Context, record models.ImageRecord) error {
	if record.RemoteKey == "" {
		return nil
	}
	if err := r.client.RemoveObject(ctx, record.RemoteKey); err != nil {
		if isRemoteNotFound(err) {
			return apperrors.NotFound("remote object not found").WithCause(err)
		}
		return apperrors.Upstream("failed to delete remote object").WithCause(err)
	}
	return nil
}

// UnconfiguredRemote stands in for the remote backend when none is set up.
type UnconfiguredRemote struct{}

func (UnconfiguredRemote) Kind() models.Backend { return models.BackendRemote }

func (UnconfiguredRemote) Available() bool { return false }

func (UnconfiguredRemote) Put(context.Context, Upload) (Placement, error) {
	return Placement{}, apperrors.UnsupportedSource("remote storage is not configured")
}

func (UnconfiguredRemote) Get(context.Context, models.ImageRecord) (*Body, error) {
	return nil, apperrors.UnsupportedSource("unsupported source")
}

func (UnconfiguredRemote) Delete(context.Context, models.ImageRecord) error {
	return apperrors.UnsupportedSource("remote storage is not configured")
}

var (
	_ Backend = (*RemoteBackend)(nil)
	_ Backend = UnconfiguredRemote{}
)
