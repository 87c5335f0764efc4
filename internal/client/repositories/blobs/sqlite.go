package blobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/wheelvault/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

var _ Repository = (*SQLiteRepository)(nil)

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Get(ctx context.Context, key string) (*Blob, error) {
	var (
		b        = Blob{Key: key}
		cachedAt int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT data, checksum, cached_at FROM image_blobs WHERE key = ?`, key).Scan(&b.Data, &b.Checksum, &cachedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read blob %s: %w", key, err)
	}
	b.CachedAt = dbx.FromMillis(cachedAt)
	return &b, nil
}

func (r *SQLiteRepository) Put(ctx context.Context, b Blob) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO image_blobs (key, data, checksum, cached_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET data = excluded.data, checksum = excluded.checksum, cached_at = excluded.cached_at`,
		b.Key, b.Data, b.Checksum, dbx.Millis(b.CachedAt))
	if err != nil {
		return fmt.Errorf("failed to store blob %s: %w", b.Key, err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM image_blobs WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete blob %s: %w", key, err)
	}
	return nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM image_blobs`); err != nil {
		return fmt.Errorf("failed to clear blobs: %w", err)
	}
	return nil
}
