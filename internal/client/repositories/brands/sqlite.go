package brands

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/wheelvault/internal/client/models"
	"github.com/dmitrijs2005/wheelvault/internal/common"
	"github.com/dmitrijs2005/wheelvault/internal/dbx"
)

const brandColumns = `local_id, id_remote, name, country, logo_url, founded_year,
	updated_at, sync_status, last_synced_at, is_deleted`

type SQLiteRepository struct {
	db *sql.DB
}

var _ Repository = (*SQLiteRepository)(nil)

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func scanBrand(s interface{ Scan(...any) error }) (models.Brand, error) {
	var (
		b            models.Brand
		updatedAt    int64
		lastSyncedAt sql.NullInt64
		status       string
	)
	err := s.Scan(&b.LocalID, &b.IDRemote, &b.Name, &b.Country, &b.LogoURL, &b.FoundedYear,
		&updatedAt, &status, &lastSyncedAt, &b.IsDeleted)
	if err != nil {
		return b, err
	}
	b.UpdatedAt = dbx.FromMillis(updatedAt)
	b.SyncStatus = models.SyncStatus(status)
	b.LastSyncedAt = dbx.FromNullMillis(lastSyncedAt)
	return b, nil
}

func (r *SQLiteRepository) query(ctx context.Context, query string, args ...any) ([]models.Brand, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select brands: %w", err)
	}
	defer rows.Close()

	var result []models.Brand
	for rows.Next() {
		b, err := scanBrand(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.Brand, error) {
	return r.query(ctx, `SELECT `+brandColumns+` FROM brands WHERE is_deleted = 0 ORDER BY name`)
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.Brand, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+brandColumns+` FROM brands WHERE is_deleted = 0 AND id_remote = ?`, id)
	b, err := scanBrand(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query row scan failed: %w", err)
	}
	return &b, nil
}

func (r *SQLiteRepository) Search(ctx context.Context, query string) ([]models.Brand, error) {
	pattern := "%" + query + "%"
	return r.query(ctx, `SELECT `+brandColumns+` FROM brands
		WHERE is_deleted = 0 AND (name LIKE ? OR country LIKE ?) ORDER BY name`, pattern, pattern)
}

func (r *SQLiteRepository) UpsertAll(ctx context.Context, brands []models.Brand) error {
	const query = `INSERT INTO brands (id_remote, name, country, logo_url, founded_year,
			updated_at, sync_status, last_synced_at, is_deleted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0)
		ON CONFLICT(id_remote) DO UPDATE SET
			name = excluded.name,
			country = excluded.country,
			logo_url = excluded.logo_url,
			founded_year = excluded.founded_year,
			updated_at = excluded.updated_at,
			sync_status = excluded.sync_status,
			last_synced_at = excluded.last_synced_at,
			is_deleted = 0`

	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, b := range brands {
			status := b.SyncStatus
			if status == "" {
				status = models.SyncStatusSynced
			}
			_, err := tx.ExecContext(ctx, query, b.IDRemote, b.Name, b.Country, b.LogoURL, b.FoundedYear,
				dbx.Millis(b.UpdatedAt), string(status), dbx.NullMillis(b.LastSyncedAt))
			if err != nil {
				return fmt.Errorf("failed to upsert brand %s: %w", b.IDRemote, err)
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM brands WHERE is_deleted = 0`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count brands: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) Purge(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM brands WHERE id_remote = ?`, id); err != nil {
		return fmt.Errorf("failed to purge brand: %w", err)
	}
	return nil
}
