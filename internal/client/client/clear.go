package client

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/wheelvault/internal/dbx"
)

// ClearLocalData wipes the cache tables in one transaction. The schema
// stays.
func ClearLocalData(ctx context.Context, r *Repositories) error {
	return dbx.WithTx(ctx, r.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, table := range []string{"car_images", "cars", "brands", "news", "image_blobs", "metadata"} {
			if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		return nil
	})
}
