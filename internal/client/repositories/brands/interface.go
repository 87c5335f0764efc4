// Package brands is the local cache of the brand catalog.
//
// Brands are read-only on the client: rows only enter the cache as SYNCED
// write-backs of remote fetches. Soft-deleted rows are never returned.
package brands

import (
	"context"

	"github.com/dmitrijs2005/wheelvault/internal/client/models"
)

type Repository interface {
	GetAll(ctx context.Context) ([]models.Brand, error)

	// GetByID returns common.ErrNotFound when the brand is not cached.
	GetByID(ctx context.Context, id string) (*models.Brand, error)

	// Search matches name or country, case-insensitively.
	Search(ctx context.Context, query string) ([]models.Brand, error)

	// UpsertAll stores remote brands keyed by id_remote in one transaction.
	UpsertAll(ctx context.Context, brands []models.Brand) error

	Count(ctx context.Context) (int, error)
	Purge(ctx context.Context, id string) error
}
