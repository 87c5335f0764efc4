package services

import (
	"context"

	"github.com/dmitrijs2005/wheelvault/internal/client/models"
)

// BrandRemote is the backend side of the brand catalog.
type BrandRemote interface {
	FetchAll(ctx context.Context) ([]models.Brand, error)
	Fetch(ctx context.Context, id string) (*models.Brand, error)
	Search(ctx context.Context, query string) ([]models.Brand, error)
}

// CarRemote is the backend side of the user's collection.
type CarRemote interface {
	FetchAll(ctx context.Context) ([]models.Car, error)
	Fetch(ctx context.Context, id string) (*models.Car, error)
	FetchPage(ctx context.Context, page, size int) ([]models.Car, error)
	FetchByBrand(ctx context.Context, brandID string) ([]models.Car, error)
	FetchByManufacturer(ctx context.Context, manufacturer string) ([]models.Car, error)
	FetchByCategory(ctx context.Context, category string) ([]models.Car, error)
	FetchFavorites(ctx context.Context) ([]models.Car, error)
	FetchTradeable(ctx context.Context) ([]models.Car, error)
	Search(ctx context.Context, query string) ([]models.Car, error)
	CountByBrand(ctx context.Context) (map[string]int, error)
	Insert(ctx context.Context, c *models.Car) error
	Update(ctx context.Context, c *models.Car) error
	Delete(ctx context.Context, id string) error
}

type ImageRemote interface {
	FetchByCar(ctx context.Context, carID string) ([]models.CarImage, error)
	Insert(ctx context.Context, img models.CarImage) error
	SetPrimary(ctx context.Context, carID, imageID string) error
}

type NewsRemote interface {
	FetchAll(ctx context.Context) ([]models.News, error)
	FetchPage(ctx context.Context, page, size int) ([]models.News, error)
	Fetch(ctx context.Context, id string) (*models.News, error)
}

type TradeRemote interface {
	Propose(ctx context.Context, offeredCarID, requestedCarID, message string) (string, error)
	Respond(ctx context.Context, tradeID string, accept bool) error
	List(ctx context.Context) ([]models.Trade, error)
}

// PhotoStore uploads photos and keeps downloaded ones in the local cache.
// Implemented by *images.Helper.
type PhotoStore interface {
	FetchAndCache(ctx context.Context, refs map[string]string) []string
	UploadAll(ctx context.Context, carID string, photos [][]byte) []string
	Load(ctx context.Context, key string) ([]byte, error)
}
