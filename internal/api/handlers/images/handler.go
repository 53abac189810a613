package images

import (
	"context"
	"net/http"

	"github.com/File-Sharing-BondBridg/Image-Service/internal/apperrors"
	"github.com/File-Sharing-BondBridg/Image-Service/internal/models"
	"github.com/File-Sharing-BondBridg/Image-Service/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Images is what the HTTP layer needs from the storage coordinator.
type Images interface {
	List(ctx context.Context) ([]models.ImageRecord, error)
	Upload(ctx context.Context, upload services.Upload) (models.ImageRecord, error)
	Download(ctx context.Context, id string) (*services.Download, error)
	Thumbnail(ctx context.Context, id string, width int) (*services.Thumbnail, error)
	Delete(ctx context.Context, id string) error
	RemoteAvailable() bool
}

// Handler serves the image endpoints.
type Handler struct {
	images         Images
	maxUploadBytes int64
	hideLocalPaths bool
	log            zerolog.Logger
}

type Options struct {
	MaxUploadBytes int64
	HideLocalPaths bool
}

func NewHandler(images Images, opts Options, log zerolog.Logger) *Handler {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 200 << 20
	}
	return &Handler{
		images:         images,
		maxUploadBytes: opts.MaxUploadBytes,
		hideLocalPaths: opts.HideLocalPaths,
		log:            log,
	}
}

func (h *Handler) present(rec models.ImageRecord) models.ImageRecord {
	if h.hideLocalPaths {
		return rec.Redacted()
	}
	return rec
}

// respondError renders err as {"error": message} with its mapped status.
func (h *Handler) respondError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	}
	c.JSON(status, gin.H{"error": apperrors.Message(err)})
}

// Health reports liveness and whether the remote backend is in use.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "remote": h.images.RemoteAvailable()})
}

// Root answers the bare service banner.
func (h *Handler) Root(c *gin.Context) {
	c.String(http.StatusOK, "ImageVaultApp backend")
}
