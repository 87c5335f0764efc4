package client

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/wheelvault/internal/client/config"
	"github.com/dmitrijs2005/wheelvault/internal/client/images"
	"github.com/dmitrijs2005/wheelvault/internal/client/remote"
	"github.com/dmitrijs2005/wheelvault/internal/client/services"
	"github.com/dmitrijs2005/wheelvault/internal/client/storage"
	"github.com/dmitrijs2005/wheelvault/internal/client/syncmed"
	"github.com/dmitrijs2005/wheelvault/internal/common"
	"github.com/dmitrijs2005/wheelvault/internal/logging"
)

// ErrNoBackend is returned by New when no backend DSN is configured.
var ErrNoBackend = errors.New("no backend configured")

const downloadTimeout = 30 * time.Second

// Client is the wired application: local cache, backend, object storage
// and the services on top of them.
type Client struct {
	Repos    *Repositories
	Auth     *remote.Auth
	Mediator *syncmed.Mediator

	Brands services.BrandService
	Cars   services.CarService
	News   services.NewsService
	Trades services.TradeService

	remoteDB *sql.DB
	backend  *remote.Backend
	logger   logging.Logger
}

// New opens the cache, connects the backend lazily and wires the services.
func New(ctx context.Context, cfg *config.Config, logger logging.Logger) (*Client, error) {
	if cfg.Offline() {
		return nil, fmt.Errorf("%w: set WHEELVAULT_REMOTE_DSN or -r", ErrNoBackend)
	}

	repos, err := InitDatabase(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	remoteDB, err := remote.Open(cfg.RemoteDSN)
	if err != nil {
		_ = repos.Close()
		return nil, err
	}

	s3Client, err := storage.NewS3Client(ctx, storage.Config{
		Endpoint:  cfg.S3Endpoint,
		Region:    cfg.S3Region,
		Bucket:    cfg.S3Bucket,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
	})
	if err != nil {
		_ = remoteDB.Close()
		_ = repos.Close()
		return nil, err
	}
	bucket := storage.NewS3Store(s3Client, cfg.S3Bucket)

	var secret []byte
	if cfg.JWTSecret != "" {
		secret = []byte(cfg.JWTSecret)
	}
	auth := remote.NewAuth(secret)
	backend := remote.NewBackend(remoteDB, auth)

	photos := images.NewHelper(
		images.NewFetcher(bucket, &http.Client{Timeout: downloadTimeout}, cfg.DownloadRPS, logger),
		images.NewCache(repos.Blobs, logger),
		bucket,
		storage.ObjectKey,
		cfg.DownloadConcurrency,
		logger,
	)

	med := syncmed.New(logger)

	c := &Client{
		Repos:    repos,
		Auth:     auth,
		Mediator: med,
		Brands:   services.NewBrandService(med, repos.Brands, backend.Brands, photos, cfg.BrandTTL),
		Cars: services.NewCarService(med, repos.Cars, repos.Metadata, backend.Cars, backend.Images, photos,
			services.CarConfig{PageSize: cfg.PageSize, TTL: cfg.CarTTL}, logger),
		News:     services.NewNewsService(med, repos.News, backend.News, photos, cfg.PageSize, cfg.NewsTTL, logger),
		Trades:   services.NewTradeService(backend.Trades, backend.Cars),
		remoteDB: remoteDB,
		backend:  backend,
		logger:   logger,
	}

	c.restoreSession(ctx, cfg.AccessToken)
	return c, nil
}

// restoreSession signs in with the configured token, or the one saved by
// the last login. A bad token is logged and ignored.
func (c *Client) restoreSession(ctx context.Context, token string) {
	if token == "" {
		saved, err := c.Repos.Metadata.Get(ctx, common.MetadataAccessToken)
		if err != nil {
			c.logger.Warn(ctx, "failed to read saved session", "error", err)
			return
		}
		token = string(saved)
	}
	if token == "" {
		return
	}
	if _, err := c.Auth.SignIn(token); err != nil {
		c.logger.Warn(ctx, "saved session rejected", "error", err)
	}
}

// SignIn validates token, makes it the current session and saves it for
// the next start.
func (c *Client) SignIn(ctx context.Context, token string) (*remote.Session, error) {
	s, err := c.Auth.SignIn(token)
	if err != nil {
		return nil, err
	}
	if err := c.Repos.Metadata.Set(ctx, common.MetadataAccessToken, []byte(token)); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return s, nil
}

// SignOut forgets the session and every cached row. Rows with unpushed
// changes are lost.
func (c *Client) SignOut(ctx context.Context) error {
	c.Auth.SignOut()
	c.Mediator.Wait()
	return ClearLocalData(ctx, c.Repos)
}

func (c *Client) Ping(ctx context.Context) error {
	return c.backend.Ping(ctx)
}

// Migrate applies the backend schema.
func (c *Client) Migrate(ctx context.Context) error {
	return remote.Migrate(ctx, c.remoteDB)
}

// Close stops background cache writes and releases both databases.
func (c *Client) Close() error {
	c.Mediator.Close()
	return errors.Join(c.backend.Close(), c.Repos.Close())
}
