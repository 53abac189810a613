package storage

import (
	"context"

	"github.com/File-Sharing-BondBridg/Image-Service/internal/models"
)

// MetadataStore is the durable index of image records.
//
// Records are kept in insertion order, newest first. Lookups return the
// first record with a matching id; the store does not enforce uniqueness.
type MetadataStore interface {
	List(ctx context.Context) ([]models.ImageRecord, error)
	Insert(ctx context.Context, record models.ImageRecord) error
	Remove(ctx context.Context, id string) (models.ImageRecord, bool, error)
	Find(ctx context.Context, id string) (models.ImageRecord, bool, error)
}

// indexOf returns the position of the first record with id, or -1.
func indexOf(records []models.ImageRecord, id string) int {
	for i := range records {
		if records[i].ID == id {
			return i
		}
	}
	return -1
}
