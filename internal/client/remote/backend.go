package remote

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Backend bundles the data sources over one backend connection.
type Backend struct {
	db     *sql.DB
	auth   *Auth
	Brands *BrandSource
	Cars   *CarSource
	Images *ImageSource
	News   *NewsSource
	Trades *TradeSource
}

// Open connects to the backend database with the pgx driver. The
// connection is established lazily; use Ping to probe it.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	return db, nil
}

func NewBackend(db *sql.DB, auth *Auth) *Backend {
	return &Backend{
		db:     db,
		auth:   auth,
		Brands: NewBrandSource(db),
		Cars:   NewCarSource(db, auth),
		Images: NewImageSource(db),
		News:   NewNewsSource(db),
		Trades: NewTradeSource(db, auth),
	}
}

func (b *Backend) Auth() *Auth {
	return b.auth
}

func (b *Backend) Ping(ctx context.Context) error {
	return mapError(b.db.PingContext(ctx))
}

func (b *Backend) Close() error {
	return b.db.Close()
}

// Migrate applies the backend schema. Intended for development backends.
func Migrate(ctx context.Context, db *sql.DB) error {
	fsys, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return err
	}
	provider, err := goose.NewProvider(goose.DialectPostgres, db, fsys)
	if err != nil {
		return fmt.Errorf("goose provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("apply migrations: %w", mapError(err))
	}
	return nil
}
