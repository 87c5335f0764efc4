package remote

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/wheelvault/internal/client/models"
	"github.com/dmitrijs2005/wheelvault/internal/dbx"
)

const carSelect = `SELECT id, owner_id, brand_id, model, year, manufacturer, category, description,
	quantity, is_favorite, available_for_trade, primary_image_key, updated_at FROM cars`

// CarSource reads and writes cars. Collection queries are scoped to the
// signed-in user.
type CarSource struct {
	db   dbx.DBTX
	auth *Auth
}

func NewCarSource(db dbx.DBTX, auth *Auth) *CarSource {
	return &CarSource{db: db, auth: auth}
}

func scanCar(s interface{ Scan(...any) error }) (models.Car, error) {
	var c models.Car
	err := s.Scan(&c.IDRemote, &c.OwnerID, &c.BrandID, &c.Model, &c.Year, &c.Manufacturer, &c.Category,
		&c.Description, &c.Quantity, &c.IsFavorite, &c.AvailableForTrade, &c.PrimaryImageKey, &c.UpdatedAt)
	return c, err
}

func (s *CarSource) list(ctx context.Context, query string, args ...any) ([]models.Car, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select cars: %w", mapError(err))
	}
	defer rows.Close()

	var result []models.Car
	for rows.Next() {
		c, err := scanCar(rows)
		if err != nil {
			return nil, mapError(err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return result, nil
}

// owned runs a list query whose first placeholder is the owner id.
func (s *CarSource) owned(ctx context.Context, where string, args ...any) ([]models.Car, error) {
	uid, err := s.auth.UserID()
	if err != nil {
		return nil, err
	}
	return s.list(ctx, carSelect+` WHERE owner_id = $1`+where, append([]any{uid}, args...)...)
}

func (s *CarSource) FetchAll(ctx context.Context) ([]models.Car, error) {
	return s.owned(ctx, ` ORDER BY updated_at DESC, id`)
}

// Fetch returns common.ErrNotFound when the car does not exist or belongs
// to another user.
func (s *CarSource) Fetch(ctx context.Context, id string) (*models.Car, error) {
	uid, err := s.auth.UserID()
	if err != nil {
		return nil, err
	}
	c, err := scanCar(s.db.QueryRowContext(ctx, carSelect+` WHERE owner_id = $1 AND id = $2`, uid, id))
	if err != nil {
		return nil, mapError(err)
	}
	return &c, nil
}

// FetchPage returns a zero-based page ordered by updated_at descending.
func (s *CarSource) FetchPage(ctx context.Context, page, size int) ([]models.Car, error) {
	return s.owned(ctx, ` ORDER BY updated_at DESC, id LIMIT $2 OFFSET $3`, size, page*size)
}

func (s *CarSource) FetchByBrand(ctx context.Context, brandID string) ([]models.Car, error) {
	return s.owned(ctx, ` AND brand_id = $2 ORDER BY model`, brandID)
}

func (s *CarSource) FetchByManufacturer(ctx context.Context, manufacturer string) ([]models.Car, error) {
	return s.owned(ctx, ` AND manufacturer = $2 ORDER BY model`, manufacturer)
}

func (s *CarSource) FetchByCategory(ctx context.Context, category string) ([]models.Car, error) {
	return s.owned(ctx, ` AND category = $2 ORDER BY model`, category)
}

func (s *CarSource) FetchFavorites(ctx context.Context) ([]models.Car, error) {
	return s.owned(ctx, ` AND is_favorite ORDER BY model`)
}

// Search runs a full-text query over model, manufacturer, category and
// description.
func (s *CarSource) Search(ctx context.Context, query string) ([]models.Car, error) {
	return s.owned(ctx, ` AND search @@ plainto_tsquery('simple', $2) ORDER BY model`, query)
}

// FetchTradeable lists cars of other owners that are offered for trade.
func (s *CarSource) FetchTradeable(ctx context.Context) ([]models.Car, error) {
	uid, err := s.auth.UserID()
	if err != nil {
		return nil, err
	}
	return s.list(ctx, carSelect+` WHERE owner_id <> $1 AND available_for_trade ORDER BY updated_at DESC`, uid)
}

func (s *CarSource) CountByBrand(ctx context.Context) (map[string]int, error) {
	uid, err := s.auth.UserID()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT brand_id, COUNT(*) FROM cars WHERE owner_id = $1 GROUP BY brand_id`, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to count cars: %w", mapError(err))
	}
	defer rows.Close()

	result := make(map[string]int)
	for rows.Next() {
		var brandID string
		var n int
		if err := rows.Scan(&brandID, &n); err != nil {
			return nil, mapError(err)
		}
		result[brandID] = n
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return result, nil
}

// Insert creates the car under the signed-in user with the client-side
// id and updated_at.
func (s *CarSource) Insert(ctx context.Context, c *models.Car) error {
	uid, err := s.auth.UserID()
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO cars (id, owner_id, brand_id, model, year, manufacturer,
			category, description, quantity, is_favorite, available_for_trade, primary_image_key, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		c.IDRemote, uid, c.BrandID, c.Model, c.Year, c.Manufacturer, c.Category, c.Description,
		c.Quantity, c.IsFavorite, c.AvailableForTrade, c.PrimaryImageKey, c.UpdatedAt)
	if err != nil {
		return mapError(err)
	}
	c.OwnerID = uid
	return nil
}

// Update overwrites the car. It returns common.ErrNotFound when the user
// owns no car with that id.
func (s *CarSource) Update(ctx context.Context, c *models.Car) error {
	uid, err := s.auth.UserID()
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE cars SET brand_id = $3, model = $4, year = $5, manufacturer = $6,
			category = $7, description = $8, quantity = $9, is_favorite = $10, available_for_trade = $11,
			primary_image_key = $12, updated_at = $13
		WHERE id = $1 AND owner_id = $2`,
		c.IDRemote, uid, c.BrandID, c.Model, c.Year, c.Manufacturer, c.Category, c.Description,
		c.Quantity, c.IsFavorite, c.AvailableForTrade, c.PrimaryImageKey, c.UpdatedAt)
	if err != nil {
		return mapError(err)
	}
	return expectOne(res)
}

// Delete removes the car and, by cascade, its images and trades.
func (s *CarSource) Delete(ctx context.Context, id string) error {
	uid, err := s.auth.UserID()
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM cars WHERE id = $1 AND owner_id = $2`, id, uid)
	if err != nil {
		return mapError(err)
	}
	return expectOne(res)
}
