package images

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// DeleteImage removes the bytes (best effort) and the record.
func (h *Handler) DeleteImage(c *gin.Context) {
	if err := h.images.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
