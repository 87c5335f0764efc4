package remote

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/wheelvault/internal/client/models"
	"github.com/dmitrijs2005/wheelvault/internal/dbx"
)

// ImageSource reads and writes car image rows. The bytes live in object
// storage under StorageKey.
type ImageSource struct {
	db *sql.DB
}

func NewImageSource(db *sql.DB) *ImageSource {
	return &ImageSource{db: db}
}

func (s *ImageSource) FetchByCar(ctx context.Context, carID string) ([]models.CarImage, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, car_id, storage_key, is_primary, updated_at
		FROM car_images WHERE car_id = $1 ORDER BY is_primary DESC, updated_at`, carID)
	if err != nil {
		return nil, fmt.Errorf("failed to select car images: %w", mapError(err))
	}
	defer rows.Close()

	var result []models.CarImage
	for rows.Next() {
		var img models.CarImage
		if err := rows.Scan(&img.IDRemote, &img.CarID, &img.StorageKey, &img.IsPrimary, &img.UpdatedAt); err != nil {
			return nil, mapError(err)
		}
		result = append(result, img)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return result, nil
}

func (s *ImageSource) Insert(ctx context.Context, img models.CarImage) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO car_images (id, car_id, storage_key, is_primary, updated_at)
		VALUES ($1, $2, $3, $4, $5)`, img.IDRemote, img.CarID, img.StorageKey, img.IsPrimary, img.UpdatedAt)
	return mapError(err)
}

// SetPrimary clears and sets the primary flag in one transaction.
func (s *ImageSource) SetPrimary(ctx context.Context, carID, imageID string) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `UPDATE car_images SET is_primary = false WHERE car_id = $1`, carID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			`UPDATE car_images SET is_primary = true, updated_at = now() WHERE car_id = $1 AND id = $2`, carID, imageID)
		if err != nil {
			return err
		}
		return expectOne(res)
	})
	return mapError(err)
}
