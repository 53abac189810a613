package images

import (
	"net/http"

	"github.com/File-Sharing-BondBridg/Image-Service/internal/models"
	"github.com/gin-gonic/gin"
)

// ListImages returns every record, newest first.
func (h *Handler) ListImages(c *gin.Context) {
	records, err := h.images.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	out := make([]models.ImageRecord, 0, len(records))
	for _, rec := range records {
		out = append(out, h.present(rec))
	}
	c.JSON(http.StatusOK, out)
}
