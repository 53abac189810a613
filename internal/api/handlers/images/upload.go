package images

import (
	"io"
	"net/http"

	"github.com/File-Sharing-BondBridg/Image-Service/internal/services"
	"github.com/gin-gonic/gin"
)

// UploadImage accepts a single multipart field named "file".
func (h *Handler) UploadImage(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil || fh == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file"})
		return
	}
	if fh.Size > h.maxUploadBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file too large: " + fh.Filename})
		return
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read upload"})
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxUploadBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read upload"})
		return
	}
	if int64(len(data)) > h.maxUploadBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file too large: " + fh.Filename})
		return
	}

	rec, err := h.images.Upload(c.Request.Context(), services.Upload{
		Data:     data,
		Name:     fh.Filename,
		MimeType: fh.Header.Get("Content-Type"),
		Size:     int64(len(data)),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.present(rec))
}
