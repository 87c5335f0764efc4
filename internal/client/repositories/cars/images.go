package cars

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/wheelvault/internal/client/models"
	"github.com/dmitrijs2005/wheelvault/internal/common"
	"github.com/dmitrijs2005/wheelvault/internal/dbx"
)

const imageColumns = `local_id, id_remote, car_id, storage_key, is_primary,
	updated_at, sync_status, last_synced_at, is_deleted`

func (r *SQLiteRepository) GetImages(ctx context.Context, carID string) ([]models.CarImage, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+imageColumns+` FROM car_images
		WHERE car_id = ? AND is_deleted = 0 ORDER BY is_primary DESC, local_id`, carID)
	if err != nil {
		return nil, fmt.Errorf("failed to select car images: %w", err)
	}
	defer rows.Close()

	var result []models.CarImage
	for rows.Next() {
		var (
			img          models.CarImage
			updatedAt    int64
			lastSyncedAt sql.NullInt64
			status       string
		)
		if err := rows.Scan(&img.LocalID, &img.IDRemote, &img.CarID, &img.StorageKey, &img.IsPrimary,
			&updatedAt, &status, &lastSyncedAt, &img.IsDeleted); err != nil {
			return nil, err
		}
		img.UpdatedAt = dbx.FromMillis(updatedAt)
		img.SyncStatus = models.SyncStatus(status)
		img.LastSyncedAt = dbx.FromNullMillis(lastSyncedAt)
		result = append(result, img)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// UpsertImages stores image rows. The parent car must already be cached.
func (r *SQLiteRepository) UpsertImages(ctx context.Context, images []models.CarImage) error {
	const query = `INSERT INTO car_images (id_remote, car_id, storage_key, is_primary,
			updated_at, sync_status, last_synced_at, is_deleted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id_remote) DO UPDATE SET
			storage_key = excluded.storage_key,
			is_primary = excluded.is_primary,
			updated_at = excluded.updated_at,
			sync_status = excluded.sync_status,
			last_synced_at = excluded.last_synced_at,
			is_deleted = excluded.is_deleted
		WHERE car_images.sync_status = 'SYNCED' OR excluded.sync_status <> 'SYNCED'`

	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, img := range images {
			status := img.SyncStatus
			if status == "" {
				status = models.SyncStatusSynced
			}
			if _, err := tx.ExecContext(ctx, query, img.IDRemote, img.CarID, img.StorageKey, img.IsPrimary,
				dbx.Millis(img.UpdatedAt), string(status), dbx.NullMillis(img.LastSyncedAt), img.IsDeleted); err != nil {
				return fmt.Errorf("failed to upsert car image %s: %w", img.IDRemote, err)
			}
		}
		return nil
	})
}

// SetPrimaryImage makes imageID the only primary image of carID and copies
// its storage key onto the car row.
func (r *SQLiteRepository) SetPrimaryImage(ctx context.Context, carID, imageID string) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx,
			`UPDATE car_images SET is_primary = 0 WHERE car_id = ?`, carID); err != nil {
			return fmt.Errorf("failed to clear primary image: %w", err)
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE car_images SET is_primary = 1 WHERE car_id = ? AND id_remote = ? AND is_deleted = 0`,
			carID, imageID)
		if err != nil {
			return fmt.Errorf("failed to set primary image: %w", err)
		}
		if err := dbx.ExpectRows(res, 1); err != nil {
			return fmt.Errorf("image %s of car %s: %w", imageID, carID, common.ErrNotFound)
		}

		_, err = tx.ExecContext(ctx, `UPDATE cars SET primary_image_key =
				(SELECT storage_key FROM car_images WHERE id_remote = ?)
			WHERE id_remote = ?`, imageID, carID)
		if err != nil {
			return fmt.Errorf("failed to update car primary key: %w", err)
		}
		return nil
	})
}

func (r *SQLiteRepository) MarkImageSynced(ctx context.Context, id string, version, at time.Time) error {
	if err := r.markSynced(ctx, "car_images", id, version, at); err != nil {
		return fmt.Errorf("mark car image %s synced: %w", id, err)
	}
	return nil
}
