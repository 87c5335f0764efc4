package client

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	"github.com/dmitrijs2005/wheelvault/internal/client/migrations"
	"github.com/dmitrijs2005/wheelvault/internal/client/repositories/blobs"
	"github.com/dmitrijs2005/wheelvault/internal/client/repositories/brands"
	"github.com/dmitrijs2005/wheelvault/internal/client/repositories/cars"
	"github.com/dmitrijs2005/wheelvault/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/wheelvault/internal/client/repositories/news"

	_ "modernc.org/sqlite"
)

// Repositories are the local cache tables over one SQLite connection.
type Repositories struct {
	DB       *sql.DB
	Metadata metadata.Repository
	Brands   brands.Repository
	Cars     cars.Repository
	News     news.Repository
	Blobs    blobs.Repository
}

// DSN builds the SQLite DSN for path with foreign keys and WAL switched on.
func DSN(path string) string {
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "busy_timeout(5000)")
	return "file:" + path + "?" + q.Encode()
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	return migrations.Up(ctx, db)
}

// InitDatabase opens the cache at path, applies migrations and wires the
// repositories. The cache uses a single connection.
func InitDatabase(ctx context.Context, path string) (*Repositories, error) {
	db, err := sql.Open("sqlite", DSN(path))
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate cache: %w", err)
	}

	return &Repositories{
		DB:       db,
		Metadata: metadata.NewSQLiteRepository(db),
		Brands:   brands.NewSQLiteRepository(db),
		Cars:     cars.NewSQLiteRepository(db),
		News:     news.NewSQLiteRepository(db),
		Blobs:    blobs.NewSQLiteRepository(db),
	}, nil
}

func (r *Repositories) Close() error {
	return r.DB.Close()
}
