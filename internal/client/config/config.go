package config

import (
	"time"

	"github.com/dmitrijs2005/wheelvault/internal/common"
)

// Config holds runtime settings for the Wheel Vault CLI.
//
// Fields:
//   - DatabasePath: SQLite file of the local cache.
//   - RemoteDSN: Postgres DSN of the backend. Empty means offline only.
//   - AccessToken / JWTSecret: backend session token and, optionally, the
//     HS256 secret used to verify it.
//   - S3*: object storage holding car photos.
//   - PageSize, *TTL: paging and cache freshness.
//   - DownloadConcurrency / DownloadRPS: image download limits.
//   - OnlineCheckInterval: how often the client probes the backend.
type Config struct {
	DatabasePath string `env:"DATABASE_PATH"`
	RemoteDSN    string `env:"REMOTE_DSN"`
	AccessToken  string `env:"ACCESS_TOKEN"`
	JWTSecret    string `env:"JWT_SECRET"`

	S3Endpoint  string `env:"S3_ENDPOINT"`
	S3Region    string `env:"S3_REGION"`
	S3Bucket    string `env:"S3_BUCKET"`
	S3AccessKey string `env:"S3_ACCESS_KEY"`
	S3SecretKey string `env:"S3_SECRET_KEY"`

	PageSize int           `env:"PAGE_SIZE"`
	CarTTL   time.Duration `env:"CAR_TTL"`
	BrandTTL time.Duration `env:"BRAND_TTL"`
	NewsTTL  time.Duration `env:"NEWS_TTL"`

	DownloadConcurrency int     `env:"DOWNLOAD_CONCURRENCY"`
	DownloadRPS         float64 `env:"DOWNLOAD_RPS"`

	OnlineCheckInterval time.Duration `env:"ONLINE_CHECK_INTERVAL"`
	LogLevel            string        `env:"LOG_LEVEL"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DatabasePath = "wheelvault.db"
	c.S3Region = "us-east-1"
	c.S3Bucket = "wheelvault"
	c.PageSize = 20
	c.CarTTL = common.DefaultCarTTL
	c.BrandTTL = common.DefaultBrandTTL
	c.NewsTTL = common.DefaultNewsTTL
	c.DownloadConcurrency = 4
	c.DownloadRPS = 10
	c.OnlineCheckInterval = 3 * time.Second
	c.LogLevel = "info"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// the environment (optionally seeded from a .env file), JSON (if present) and
// command-line flags (if present). Later sources take precedence over earlier
// ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}

// Offline reports whether no backend is configured.
func (c *Config) Offline() bool {
	return c.RemoteDSN == ""
}
