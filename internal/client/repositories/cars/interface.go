package cars

import (
	"context"
	"time"

	"github.com/dmitrijs2005/wheelvault/internal/client/models"
)

type Repository interface {
	GetAll(ctx context.Context) ([]models.Car, error)

	// GetByID returns common.ErrNotFound when the car is missing or soft-deleted.
	GetByID(ctx context.Context, id string) (*models.Car, error)
	GetByBrand(ctx context.Context, brandID string) ([]models.Car, error)
	GetFavorites(ctx context.Context) ([]models.Car, error)
	Search(ctx context.Context, query string) ([]models.Car, error)

	// Page returns visible cars ordered by updated_at descending.
	Page(ctx context.Context, offset, limit int) ([]models.Car, error)

	Count(ctx context.Context) (int, error)
	CountByBrand(ctx context.Context) (map[string]int, error)

	// CountByID counts rows with the given id, including soft-deleted ones.
	CountByID(ctx context.Context, id string) (int, error)

	UpsertSynced(ctx context.Context, cars []models.Car) error
	Save(ctx context.Context, car *models.Car) error
	SoftDelete(ctx context.Context, id string, now time.Time) error
	Purge(ctx context.Context, id string) error

	// ReplaceSynced swaps every SYNCED row for cars in one transaction;
	// rows with local changes stay.
	ReplaceSynced(ctx context.Context, cars []models.Car) error

	// GetAllPending returns PENDING, CONFLICT and DELETED rows.
	GetAllPending(ctx context.Context) ([]models.Car, error)
	// MarkSynced flags the row SYNCED if it still carries the pushed
	// version. A row edited since returns common.ErrStale.
	MarkSynced(ctx context.Context, id string, version, at time.Time) error
	MarkConflict(ctx context.Context, id string) error

	GetImages(ctx context.Context, carID string) ([]models.CarImage, error)
	UpsertImages(ctx context.Context, images []models.CarImage) error
	SetPrimaryImage(ctx context.Context, carID, imageID string) error
	MarkImageSynced(ctx context.Context, id string, version, at time.Time) error
}
