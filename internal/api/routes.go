package api

import (
	"time"

	"github.com/File-Sharing-BondBridg/Image-Service/internal/api/handlers/images"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	gintrace "gopkg.in/DataDog/dd-trace-go.v1/contrib/gin-gonic/gin"
)

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS,DELETE")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(200)
			return
		}
		c.Next()
	}
}

// requestLogger writes one access line per request.
func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		level := zerolog.InfoLevel
		switch {
		case status >= 500:
			level = zerolog.ErrorLevel
		case status >= 400:
			level = zerolog.WarnLevel
		}
		log.WithLevel(level).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}

// Options configures RegisterRoutes.
type Options struct {
	// TraceService enables Datadog request spans under this service name.
	TraceService string
	// Auth, when set, guards every /api route except health.
	Auth gin.HandlerFunc
}

func RegisterRoutes(r *gin.Engine, h *images.Handler, log zerolog.Logger, opts Options) {
	if opts.TraceService != "" {
		r.Use(gintrace.Middleware(opts.TraceService))
	}
	r.Use(requestLogger(log))
	// Enable CORS for preflight requests
	r.Use(corsMiddleware())

	r.GET("/", h.Root)

	api := r.Group("/api")
	api.GET("/health", h.Health)

	guarded := api.Group("")
	if opts.Auth != nil {
		guarded.Use(opts.Auth)
	}
	{
		guarded.GET("/images", h.ListImages)
		guarded.POST("/upload", h.UploadImage)
		guarded.GET("/download/:id", h.DownloadImage)
		guarded.GET("/thumbnail/:id", h.GetThumbnail)
		guarded.DELETE("/images/:id", h.DeleteImage)
	}
}
