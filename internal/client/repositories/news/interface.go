// Package news is the local cache of the curated video feed.
package news

import (
	"context"

	"github.com/dmitrijs2005/wheelvault/internal/client/models"
)

type Repository interface {
	// GetAll returns cached news, newest publication first.
	GetAll(ctx context.Context) ([]models.News, error)
	GetByID(ctx context.Context, id string) (*models.News, error)
	Page(ctx context.Context, offset, limit int) ([]models.News, error)
	UpsertAll(ctx context.Context, items []models.News) error
	Clear(ctx context.Context) error
}
