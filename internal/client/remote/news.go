package remote

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/wheelvault/internal/client/models"
	"github.com/dmitrijs2005/wheelvault/internal/dbx"
)

const newsSelect = `SELECT id, title, summary, video_url, thumbnail_url, published_at, updated_at FROM news`

type NewsSource struct {
	db dbx.DBTX
}

func NewNewsSource(db dbx.DBTX) *NewsSource {
	return &NewsSource{db: db}
}

func scanNews(s interface{ Scan(...any) error }) (models.News, error) {
	var n models.News
	err := s.Scan(&n.IDRemote, &n.Title, &n.Summary, &n.VideoURL, &n.ThumbnailURL, &n.PublishedAt, &n.UpdatedAt)
	return n, err
}

func (s *NewsSource) list(ctx context.Context, query string, args ...any) ([]models.News, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select news: %w", mapError(err))
	}
	defer rows.Close()

	var result []models.News
	for rows.Next() {
		n, err := scanNews(rows)
		if err != nil {
			return nil, mapError(err)
		}
		result = append(result, n)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return result, nil
}

func (s *NewsSource) FetchAll(ctx context.Context) ([]models.News, error) {
	return s.list(ctx, newsSelect+` ORDER BY published_at DESC`)
}

func (s *NewsSource) FetchPage(ctx context.Context, page, size int) ([]models.News, error) {
	return s.list(ctx, newsSelect+` ORDER BY published_at DESC LIMIT $1 OFFSET $2`, size, page*size)
}

func (s *NewsSource) Fetch(ctx context.Context, id string) (*models.News, error) {
	n, err := scanNews(s.db.QueryRowContext(ctx, newsSelect+` WHERE id = $1`, id))
	if err != nil {
		return nil, mapError(err)
	}
	return &n, nil
}
