package remote

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/wheelvault/internal/client/models"
	"github.com/dmitrijs2005/wheelvault/internal/dbx"
)

const brandSelect = `SELECT id, name, country, logo_url, founded_year, updated_at FROM brands`

// BrandSource reads the brand catalog.
type BrandSource struct {
	db dbx.DBTX
}

func NewBrandSource(db dbx.DBTX) *BrandSource {
	return &BrandSource{db: db}
}

func scanBrand(s interface{ Scan(...any) error }) (models.Brand, error) {
	var b models.Brand
	err := s.Scan(&b.IDRemote, &b.Name, &b.Country, &b.LogoURL, &b.FoundedYear, &b.UpdatedAt)
	return b, err
}

func (s *BrandSource) list(ctx context.Context, query string, args ...any) ([]models.Brand, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select brands: %w", mapError(err))
	}
	defer rows.Close()

	var result []models.Brand
	for rows.Next() {
		b, err := scanBrand(rows)
		if err != nil {
			return nil, mapError(err)
		}
		result = append(result, b)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return result, nil
}

func (s *BrandSource) FetchAll(ctx context.Context) ([]models.Brand, error) {
	return s.list(ctx, brandSelect+` ORDER BY name`)
}

// Fetch returns common.ErrNotFound for an unknown id.
func (s *BrandSource) Fetch(ctx context.Context, id string) (*models.Brand, error) {
	b, err := scanBrand(s.db.QueryRowContext(ctx, brandSelect+` WHERE id = $1`, id))
	if err != nil {
		return nil, mapError(err)
	}
	return &b, nil
}

func (s *BrandSource) Search(ctx context.Context, query string) ([]models.Brand, error) {
	return s.list(ctx, brandSelect+` WHERE name ILIKE $1 OR country ILIKE $1 ORDER BY name`, "%"+query+"%")
}
