package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/File-Sharing-BondBridg/Image-Service/internal/apperrors"
	"github.com/File-Sharing-BondBridg/Image-Service/internal/models"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
)

// PostgresStore implements MetadataStore on a single table. seq records
// insertion order; the newest row for an id is the one lookups see.
type PostgresStore struct {
	db  *sql.DB
	log zerolog.Logger
}

const recordColumns = `id, name, mime_type, size, created_time, backend, remote_key, public_url, local_path`

// NewPostgresStore connects, pings and creates the schema.
func NewPostgresStore(ctx context.Context, connectionString string, log zerolog.Logger) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	p := &PostgresStore{db: db, log: log}
	if err := p.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Info().Msg("connected to PostgreSQL")
	return p, nil
}

func (p *PostgresStore) createTables(ctx context.Context) error {
	query := `
    CREATE TABLE IF NOT EXISTS images (
        seq BIGSERIAL PRIMARY KEY,
        id TEXT NOT NULL,
        name TEXT NOT NULL,
        mime_type TEXT,
        size BIGINT,
        created_time TIMESTAMPTZ,
        backend VARCHAR(16) NOT NULL,
        remote_key TEXT,
        public_url TEXT,
        local_path TEXT
    );

    CREATE INDEX IF NOT EXISTS idx_images_id ON images(id);
    `
	_, err := p.db.ExecContext(ctx, query)
	return err
}

// Close releases the connection pool.
func (p *PostgresStore) Close() error {
	return p.db.Close()
}

func (p *PostgresStore) List(ctx context.Context) ([]models.ImageRecord, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT `+recordColumns+` FROM images ORDER BY seq DESC`)
	if err != nil {
		return nil, apperrors.LocalIO("failed to query images").WithCause(err)
	}
	defer rows.Close()

	records := []models.ImageRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, apperrors.LocalIO("failed to scan image row").WithCause(err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.LocalIO("failed to iterate images").WithCause(err)
	}
	return records, nil
}

func (p *PostgresStore) Insert(ctx context.Context, record models.ImageRecord) error {
	query := `
    INSERT INTO images (` + recordColumns + `)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `
	_, err := p.db.ExecContext(ctx, query,
		record.ID,
		record.Name,
		nullString(record.MimeType),
		nullInt64(record.Size),
		nullTime(record.CreatedTime),
		string(record.Backend),
		nullString(record.RemoteKey),
		nullString(record.PublicURL),
		nullString(record.LocalPath),
	)
	if err != nil {
		return apperrors.LocalIO("failed to insert image").WithCause(err)
	}
	return nil
}

func (p *PostgresStore) Remove(ctx context.Context, id string) (models.ImageRecord, bool, error) {
	query := `
    DELETE FROM images
    WHERE seq = (SELECT seq FROM images WHERE id = $1 ORDER BY seq DESC LIMIT 1)
    RETURNING ` + recordColumns

	rec, err := scanRecord(p.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.ImageRecord{}, false, nil
	}
	if err != nil {
		return models.ImageRecord{}, false, apperrors.LocalIO("failed to delete image").WithCause(err)
	}
	return rec, true, nil
}

func (p *PostgresStore) Find(ctx context.Context, id string) (models.ImageRecord, bool, error) {
	query := `SELECT ` + recordColumns + ` FROM images WHERE id = $1 ORDER BY seq DESC LIMIT 1`

	rec, err := scanRecord(p.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.ImageRecord{}, false, nil
	}
	if err != nil {
		return models.ImageRecord{}, false, apperrors.LocalIO("failed to query image").WithCause(err)
	}
	return rec, true, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (models.ImageRecord, error) {
	var (
		rec       models.ImageRecord
		mimeType  sql.NullString
		size      sql.NullInt64
		created   sql.NullTime
		backend   string
		remoteKey sql.NullString
		publicURL sql.NullString
		localPath sql.NullString
	)
	if err := row.Scan(&rec.ID, &rec.Name, &mimeType, &size, &created, &backend, &remoteKey, &publicURL, &localPath); err != nil {
		return models.ImageRecord{}, err
	}

	rec.MimeType = mimeType.String
	if size.Valid {
		v := size.Int64
		rec.Size = &v
	}
	if created.Valid {
		t := created.Time
		rec.CreatedTime = &t
	}
	rec.Backend = models.Backend(backend)
	rec.RemoteKey = remoteKey.String
	rec.PublicURL = publicURL.String
	rec.LocalPath = localPath.String
	return rec, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

var _ MetadataStore = (*PostgresStore)(nil)
