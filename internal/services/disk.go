package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/File-Sharing-BondBridg/Image-Service/internal/apperrors"
	"github.com/File-Sharing-BondBridg/Image-Service/internal/models"
	"github.com/rs/zerolog"
)

// DiskBackend stores image bytes as individual files under one directory.
type DiskBackend struct {
	dir string
	log zerolog.Logger
}

// NewDiskBackend resolves dir to an absolute path. The directory itself is
// created lazily on each write.
func NewDiskBackend(dir string, log zerolog.Logger) (*DiskBackend, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve uploads directory: %w", err)
	}
	return &DiskBackend{dir: abs, log: log}, nil
}

// Dir returns the absolute uploads directory.
func (d *DiskBackend) Dir() string { return d.dir }

func (d *DiskBackend) Kind() models.Backend { return models.BackendLocal }

func (d *DiskBackend) Available() bool { return true }

func (d *DiskBackend) Put(_ context.Context, upload Upload) (Placement, error) {
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return Placement{}, apperrors.LocalIO("failed to create uploads directory").WithCause(err)
	}

	id := newLocalID()
	path := filepath.Join(d.dir, id+"-"+sanitizeName(upload.Name))
	if err := os.WriteFile(path, upload.Data, 0o644); err != nil {
		return Placement{}, apperrors.LocalIO("failed to write upload").WithCause(err)
	}

	d.log.Debug().Str("id", id).Str("path", path).Int("bytes", len(upload.Data)).Msg("stored upload on disk")
	return Placement{ID: id, LocalPath: path}, nil
}

// Get opens the record's file. A missing file is an I/O failure rather than
// a not-found: the metadata says the bytes exist.
func (d *DiskBackend) Get(_ context.Context, record models.ImageRecord) (*Body, error) {
	if record.LocalPath == "" {
		return nil, apperrors.UnsupportedSource("unsupported source")
	}
	f, err := os.Open(record.LocalPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			d.log.Error().Str("id", record.ID).Str("path", record.LocalPath).Msg("local file missing for existing record")
		}
		return nil, apperrors.LocalIO("failed to read local file").WithCause(err)
	}
	return ReaderBody(f), nil
}

func (d *DiskBackend) Delete(_ context.Context, record models.ImageRecord) error {
	if record.LocalPath == "" {
		return nil
	}
	if err := os.Remove(record.LocalPath); err != nil {
		return apperrors.LocalIO("failed to delete local file").WithCause(err)
	}
	return nil
}

var _ Backend = (*DiskBackend)(nil)
