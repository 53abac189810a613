package images

import (
	"mime"
	"net/http"
	"strconv"

	"github.com/File-Sharing-BondBridg/Image-Service/internal/services"
	"github.com/gin-gonic/gin"
)

// DownloadImage streams the stored bytes as an attachment.
func (h *Handler) DownloadImage(c *gin.Context) {
	dl, err := h.images.Download(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	defer dl.Body.Close()

	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": dl.Filename})
	if disposition == "" {
		disposition = "attachment"
	}
	c.Header("Content-Disposition", disposition)
	h.stream(c, dl)
}

// stream writes dl with a 200. Errors after the header is sent can only be
// logged.
func (h *Handler) stream(c *gin.Context, dl *services.Download) {
	c.Header("Content-Type", dl.ContentType)
	if dl.Size >= 0 {
		c.Header("Content-Length", strconv.FormatInt(dl.Size, 10))
	}
	c.Status(http.StatusOK)
	if _, err := dl.Body.WriteTo(c.Writer); err != nil {
		h.log.Warn().Err(err).Str("id", c.Param("id")).Msg("stream interrupted")
	}
}
