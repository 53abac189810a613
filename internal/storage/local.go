package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/File-Sharing-BondBridg/Image-Service/internal/apperrors"
	"github.com/File-Sharing-BondBridg/Image-Service/internal/models"
	"github.com/rs/zerolog"
)

const metadataFile = "images.json"

// FileStore keeps every record in one JSON array on disk.
//
// Each call reads the whole file and each mutation rewrites it. mu
// serializes the read-modify-write cycle so concurrent mutations cannot
// lose each other's updates.
type FileStore struct {
	dir  string
	path string
	mu   sync.Mutex
	log  zerolog.Logger
}

// NewFileStore returns a store rooted at dataDir. Nothing touches the
// disk until the first call.
func NewFileStore(dataDir string, log zerolog.Logger) *FileStore {
	return &FileStore{
		dir:  dataDir,
		path: filepath.Join(dataDir, metadataFile),
		log:  log,
	}
}

// Path returns the metadata file location.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) List(_ context.Context) ([]models.ImageRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *FileStore) Insert(_ context.Context, record models.ImageRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return err
	}
	records = append([]models.ImageRecord{record}, records...)
	if err := s.save(records); err != nil {
		return err
	}
	s.log.Debug().Str("id", record.ID).Int("total", len(records)).Msg("record inserted")
	return nil
}

func (s *FileStore) Remove(_ context.Context, id string) (models.ImageRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return models.ImageRecord{}, false, err
	}
	idx := indexOf(records, id)
	if idx == -1 {
		return models.ImageRecord{}, false, nil
	}
	removed := records[idx]
	records = append(records[:idx], records[idx+1:]...)
	if err := s.save(records); err != nil {
		return models.ImageRecord{}, false, err
	}
	s.log.Debug().Str("id", id).Int("total", len(records)).Msg("record removed")
	return removed, true, nil
}

func (s *FileStore) Find(_ context.Context, id string) (models.ImageRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return models.ImageRecord{}, false, err
	}
	idx := indexOf(records, id)
	if idx == -1 {
		return models.ImageRecord{}, false, nil
	}
	return records[idx], true, nil
}

// load reads the collection, creating an empty one on first use.
// Callers must hold mu.
func (s *FileStore) load() ([]models.ImageRecord, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		records := []models.ImageRecord{}
		if err := s.save(records); err != nil {
			return nil, err
		}
		s.log.Info().Str("path", s.path).Msg("initialized empty metadata file")
		return records, nil
	}
	if err != nil {
		return nil, apperrors.LocalIO("failed to read metadata file").WithCause(err)
	}

	var records []models.ImageRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, apperrors.LocalIO("failed to parse metadata file").WithCause(err)
	}
	if records == nil {
		records = []models.ImageRecord{}
	}
	return records, nil
}

// save writes the collection to a temp file and renames it over the
// metadata file. Callers must hold mu.
func (s *FileStore) save(records []models.ImageRecord) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return apperrors.LocalIO("failed to create data directory").WithCause(err)
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return apperrors.LocalIO("failed to marshal metadata").WithCause(err)
	}

	tempFile := s.path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0o644); err != nil {
		return apperrors.LocalIO("failed to write metadata file").WithCause(err)
	}
	if err := os.Rename(tempFile, s.path); err != nil {
		return apperrors.LocalIO("failed to rename metadata file").WithCause(err)
	}
	return nil
}

var _ MetadataStore = (*FileStore)(nil)
