package cars

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/wheelvault/internal/client/models"
	"github.com/dmitrijs2005/wheelvault/internal/common"
	"github.com/dmitrijs2005/wheelvault/internal/dbx"
)

const carColumns = `local_id, id_remote, owner_id, brand_id, model, year, manufacturer, category,
	description, quantity, is_favorite, available_for_trade, primary_image_key,
	updated_at, sync_status, last_synced_at, is_deleted`

// SQLiteRepository implements Repository on the local cache database.
type SQLiteRepository struct {
	db *sql.DB
}

var _ Repository = (*SQLiteRepository)(nil)

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func scanCar(s interface{ Scan(...any) error }) (models.Car, error) {
	var (
		c            models.Car
		updatedAt    int64
		lastSyncedAt sql.NullInt64
		status       string
	)
	err := s.Scan(&c.LocalID, &c.IDRemote, &c.OwnerID, &c.BrandID, &c.Model, &c.Year, &c.Manufacturer,
		&c.Category, &c.Description, &c.Quantity, &c.IsFavorite, &c.AvailableForTrade, &c.PrimaryImageKey,
		&updatedAt, &status, &lastSyncedAt, &c.IsDeleted)
	if err != nil {
		return c, err
	}
	c.UpdatedAt = dbx.FromMillis(updatedAt)
	c.SyncStatus = models.SyncStatus(status)
	c.LastSyncedAt = dbx.FromNullMillis(lastSyncedAt)
	return c, nil
}

func (r *SQLiteRepository) query(ctx context.Context, query string, args ...any) ([]models.Car, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select cars: %w", err)
	}
	defer rows.Close()

	var result []models.Car
	for rows.Next() {
		c, err := scanCar(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

const visible = `SELECT ` + carColumns + ` FROM cars WHERE is_deleted = 0`

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.Car, error) {
	return r.query(ctx, visible+` ORDER BY updated_at DESC, local_id DESC`)
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.Car, error) {
	c, err := scanCar(r.db.QueryRowContext(ctx, visible+` AND id_remote = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query row scan failed: %w", err)
	}
	return &c, nil
}

func (r *SQLiteRepository) GetByBrand(ctx context.Context, brandID string) ([]models.Car, error) {
	return r.query(ctx, visible+` AND brand_id = ? ORDER BY model`, brandID)
}

func (r *SQLiteRepository) GetFavorites(ctx context.Context) ([]models.Car, error) {
	return r.query(ctx, visible+` AND is_favorite = 1 ORDER BY model`)
}

func (r *SQLiteRepository) Search(ctx context.Context, query string) ([]models.Car, error) {
	p := "%" + query + "%"
	return r.query(ctx, visible+` AND (model LIKE ? OR manufacturer LIKE ? OR category LIKE ? OR description LIKE ?)
		ORDER BY model`, p, p, p, p)
}

func (r *SQLiteRepository) Page(ctx context.Context, offset, limit int) ([]models.Car, error) {
	return r.query(ctx, visible+` ORDER BY updated_at DESC, local_id DESC LIMIT ? OFFSET ?`, limit, offset)
}

func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cars WHERE is_deleted = 0`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count cars: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) CountByBrand(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT brand_id, COUNT(*) FROM cars WHERE is_deleted = 0 GROUP BY brand_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to count cars by brand: %w", err)
	}
	defer rows.Close()

	result := make(map[string]int)
	for rows.Next() {
		var brandID string
		var n int
		if err := rows.Scan(&brandID, &n); err != nil {
			return nil, err
		}
		result[brandID] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) CountByID(ctx context.Context, id string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cars WHERE id_remote = ?`, id).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count car %s: %w", id, err)
	}
	return n, nil
}

const upsertCar = `INSERT INTO cars (id_remote, owner_id, brand_id, model, year, manufacturer, category,
		description, quantity, is_favorite, available_for_trade, primary_image_key,
		updated_at, sync_status, last_synced_at, is_deleted)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id_remote) DO UPDATE SET
		owner_id = excluded.owner_id,
		brand_id = excluded.brand_id,
		model = excluded.model,
		year = excluded.year,
		manufacturer = excluded.manufacturer,
		category = excluded.category,
		description = excluded.description,
		quantity = excluded.quantity,
		is_favorite = excluded.is_favorite,
		available_for_trade = excluded.available_for_trade,
		primary_image_key = excluded.primary_image_key,
		updated_at = excluded.updated_at,
		sync_status = excluded.sync_status,
		last_synced_at = excluded.last_synced_at,
		is_deleted = excluded.is_deleted`

func carArgs(c *models.Car, status models.SyncStatus) []any {
	return []any{c.IDRemote, c.OwnerID, c.BrandID, c.Model, c.Year, c.Manufacturer, c.Category,
		c.Description, c.Quantity, c.IsFavorite, c.AvailableForTrade, c.PrimaryImageKey,
		dbx.Millis(c.UpdatedAt), string(status), dbx.NullMillis(c.LastSyncedAt), c.IsDeleted}
}

// UpsertSynced writes remote cars as SYNCED. Rows with unpushed local
// changes are left untouched; the push loop reconciles them.
func (r *SQLiteRepository) UpsertSynced(ctx context.Context, cars []models.Car) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return upsertSynced(ctx, tx, cars)
	})
}

func upsertSynced(ctx context.Context, tx dbx.DBTX, cars []models.Car) error {
	query := upsertCar + ` WHERE cars.sync_status = 'SYNCED'`
	for i := range cars {
		if _, err := tx.ExecContext(ctx, query, carArgs(&cars[i], models.SyncStatusSynced)...); err != nil {
			return fmt.Errorf("failed to upsert car %s: %w", cars[i].IDRemote, err)
		}
	}
	return nil
}

func (r *SQLiteRepository) Save(ctx context.Context, c *models.Car) error {
	status := c.SyncStatus
	if status == "" {
		status = models.SyncStatusPending
	}
	err := r.db.QueryRowContext(ctx, upsertCar+` RETURNING local_id`, carArgs(c, status)...).Scan(&c.LocalID)
	if err != nil {
		return fmt.Errorf("failed to save car: %w", err)
	}
	c.SyncStatus = status
	return nil
}

func (r *SQLiteRepository) SoftDelete(ctx context.Context, id string, now time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE cars SET is_deleted = 1, sync_status = 'DELETED', updated_at = ? WHERE id_remote = ? AND is_deleted = 0`,
		dbx.Millis(now), id)
	if err != nil {
		return fmt.Errorf("failed to delete car: %w", err)
	}
	if err := dbx.ExpectRows(res, 1); err != nil {
		return fmt.Errorf("delete car %s: %w", id, common.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) Purge(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM cars WHERE id_remote = ?`, id); err != nil {
		return fmt.Errorf("failed to purge car: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ReplaceSynced(ctx context.Context, cars []models.Car) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM cars WHERE sync_status = 'SYNCED'`); err != nil {
			return fmt.Errorf("failed to clear synced cars: %w", err)
		}
		return upsertSynced(ctx, tx, cars)
	})
}

func (r *SQLiteRepository) GetAllPending(ctx context.Context) ([]models.Car, error) {
	return r.query(ctx, `SELECT `+carColumns+` FROM cars
		WHERE sync_status IN ('PENDING', 'CONFLICT', 'DELETED') ORDER BY updated_at`)
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, id string, version, at time.Time) error {
	if err := r.markSynced(ctx, "cars", id, version, at); err != nil {
		return fmt.Errorf("mark car %s synced: %w", id, err)
	}
	return nil
}

// markSynced flags a row SYNCED only while its updated_at still equals
// version, so an edit saved during a push stays queued.
func (r *SQLiteRepository) markSynced(ctx context.Context, table, id string, version, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE `+table+` SET sync_status = 'SYNCED', last_synced_at = MAX(?, updated_at)
		WHERE id_remote = ? AND updated_at = ?`,
		dbx.Millis(at), id, dbx.Millis(version))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 1 {
		return nil
	}

	var one int
	err = r.db.QueryRowContext(ctx, `SELECT 1 FROM `+table+` WHERE id_remote = ?`, id).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return common.ErrNotFound
	case err != nil:
		return err
	}
	return common.ErrStale
}

func (r *SQLiteRepository) MarkConflict(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE cars SET sync_status = 'CONFLICT' WHERE id_remote = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to mark car conflict: %w", err)
	}
	return dbx.ExpectRows(res, 1)
}
