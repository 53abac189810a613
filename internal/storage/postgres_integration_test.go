package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/File-Sharing-BondBridg/Image-Service/internal/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs only when IMAGEVAULT_TEST_POSTGRES_DSN points at a disposable database.
func TestPostgresStoreIntegration(t *testing.T) {
	dsn := os.Getenv("IMAGEVAULT_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("IMAGEVAULT_TEST_POSTGRES_DSN not set")
	}

	ctx := context.Background()
	store, err := NewPostgresStore(ctx, dsn, zerolog.Nop())
	require.NoError(t, err)
	defer store.Close()

	prefix := uuid.NewString()
	size := int64(10)
	now := time.Now().UTC().Truncate(time.Millisecond)

	remote := models.ImageRecord{
		ID:          prefix + "-remote",
		Name:        "a.png",
		MimeType:    "image/png",
		Size:        &size,
		CreatedTime: &now,
		Backend:     models.BackendRemote,
		RemoteKey:   prefix + "-remote",
		PublicURL:   "https://cdn.example/a",
	}
	local := models.ImageRecord{
		ID:        prefix + "-local",
		Name:      "b.png",
		Backend:   models.BackendLocal,
		LocalPath: "/uploads/b.png",
	}
	require.NoError(t, store.Insert(ctx, remote))
	require.NoError(t, store.Insert(ctx, local))

	got, ok, err := store.Find(ctx, remote.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, remote.RemoteKey, got.RemoteKey)
	require.NotNil(t, got.Size)
	assert.Equal(t, size, *got.Size)
	require.NotNil(t, got.CreatedTime)
	assert.True(t, now.Equal(*got.CreatedTime))

	records, err := store.List(ctx)
	require.NoError(t, err)
	var order []string
	for _, rec := range records {
		if rec.ID == remote.ID || rec.ID == local.ID {
			order = append(order, rec.ID)
		}
	}
	assert.Equal(t, []string{local.ID, remote.ID}, order)

	removed, ok, err := store.Remove(ctx, local.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "/uploads/b.png", removed.LocalPath)
	assert.Nil(t, removed.Size)

	_, ok, err = store.Remove(ctx, local.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = store.Remove(ctx, remote.ID)
	require.NoError(t, err)
}
