package news

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/wheelvault/internal/client/models"
	"github.com/dmitrijs2005/wheelvault/internal/common"
	"github.com/dmitrijs2005/wheelvault/internal/dbx"
)

const newsColumns = `local_id, id_remote, title, summary, video_url, thumbnail_url, published_at,
	updated_at, sync_status, last_synced_at, is_deleted`

const newsOrder = ` ORDER BY published_at DESC, local_id DESC`

type SQLiteRepository struct {
	db *sql.DB
}

var _ Repository = (*SQLiteRepository)(nil)

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func scanNews(s interface{ Scan(...any) error }) (models.News, error) {
	var (
		n            models.News
		publishedAt  int64
		updatedAt    int64
		lastSyncedAt sql.NullInt64
		status       string
	)
	err := s.Scan(&n.LocalID, &n.IDRemote, &n.Title, &n.Summary, &n.VideoURL, &n.ThumbnailURL, &publishedAt,
		&updatedAt, &status, &lastSyncedAt, &n.IsDeleted)
	if err != nil {
		return n, err
	}
	n.PublishedAt = dbx.FromMillis(publishedAt)
	n.UpdatedAt = dbx.FromMillis(updatedAt)
	n.SyncStatus = models.SyncStatus(status)
	n.LastSyncedAt = dbx.FromNullMillis(lastSyncedAt)
	return n, nil
}

func (r *SQLiteRepository) query(ctx context.Context, query string, args ...any) ([]models.News, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select news: %w", err)
	}
	defer rows.Close()

	var result []models.News
	for rows.Next() {
		n, err := scanNews(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.News, error) {
	return r.query(ctx, `SELECT `+newsColumns+` FROM news WHERE is_deleted = 0`+newsOrder)
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.News, error) {
	n, err := scanNews(r.db.QueryRowContext(ctx,
		`SELECT `+newsColumns+` FROM news WHERE is_deleted = 0 AND id_remote = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query row scan failed: %w", err)
	}
	return &n, nil
}

func (r *SQLiteRepository) Page(ctx context.Context, offset, limit int) ([]models.News, error) {
	return r.query(ctx, `SELECT `+newsColumns+` FROM news WHERE is_deleted = 0`+newsOrder+` LIMIT ? OFFSET ?`,
		limit, offset)
}

func (r *SQLiteRepository) UpsertAll(ctx context.Context, items []models.News) error {
	const query = `INSERT INTO news (id_remote, title, summary, video_url, thumbnail_url, published_at,
			updated_at, sync_status, last_synced_at, is_deleted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0)
		ON CONFLICT(id_remote) DO UPDATE SET
			title = excluded.title,
			summary = excluded.summary,
			video_url = excluded.video_url,
			thumbnail_url = excluded.thumbnail_url,
			published_at = excluded.published_at,
			updated_at = excluded.updated_at,
			sync_status = excluded.sync_status,
			last_synced_at = excluded.last_synced_at,
			is_deleted = 0`

	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, n := range items {
			status := n.SyncStatus
			if status == "" {
				status = models.SyncStatusSynced
			}
			_, err := tx.ExecContext(ctx, query, n.IDRemote, n.Title, n.Summary, n.VideoURL, n.ThumbnailURL,
				dbx.Millis(n.PublishedAt), dbx.Millis(n.UpdatedAt), string(status), dbx.NullMillis(n.LastSyncedAt))
			if err != nil {
				return fmt.Errorf("failed to upsert news %s: %w", n.IDRemote, err)
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM news`); err != nil {
		return fmt.Errorf("failed to clear news: %w", err)
	}
	return nil
}
