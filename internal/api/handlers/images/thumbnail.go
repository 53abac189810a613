package images

import (
	"net/http"
	"strconv"

	"github.com/File-Sharing-BondBridg/Image-Service/internal/previews"
	"github.com/gin-gonic/gin"
)

// GetThumbnail redirects remote images and serves local ones inline. An
// optional ?w= resizes local images.
func (h *Handler) GetThumbnail(c *gin.Context) {
	width := 0
	if raw := c.Query("w"); raw != "" {
		w, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid width"})
			return
		}
		width = previews.ClampWidth(w)
	}

	thumb, err := h.images.Thumbnail(c.Request.Context(), c.Param("id"), width)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if thumb.RedirectURL != "" {
		c.Redirect(http.StatusFound, thumb.RedirectURL)
		return
	}
	defer thumb.Inline.Body.Close()
	h.stream(c, thumb.Inline)
}
