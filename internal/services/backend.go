package services

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/File-Sharing-BondBridg/Image-Service/internal/models"
)

// Upload is one file as received from a client.
type Upload struct {
	Data     []byte
	Name     string
	MimeType string
	Size     int64
}

// Placement is where a backend put an upload's bytes.
type Placement struct {
	ID        string
	RemoteKey string
	PublicURL string
	LocalPath string
}

// Backend is one physical store for image bytes. The coordinator picks a
// backend per upload and, afterwards, by the record's backend tag.
type Backend interface {
	Kind() models.Backend
	// Available reports whether the backend can serve requests at all.
	Available() bool
	Put(ctx context.Context, upload Upload) (Placement, error)
	Get(ctx context.Context, record models.ImageRecord) (*Body, error)
	Delete(ctx context.Context, record models.ImageRecord) error
}

// sanitizeName keeps the base name of a client-supplied filename so it
// can be embedded in object keys and file names.
func sanitizeName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == "/" || name == ".." {
		return "upload"
	}
	return name
}
