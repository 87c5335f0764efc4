package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "wheelvault.db", c.DatabasePath)
	assert.Equal(t, 20, c.PageSize)
	assert.Equal(t, 30*time.Minute, c.CarTTL)
	assert.Equal(t, 24*time.Hour, c.BrandTTL)
	assert.Equal(t, time.Hour, c.NewsTTL)
	assert.Equal(t, 3*time.Second, c.OnlineCheckInterval)
	assert.True(t, c.Offline())
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"testbin"}
	t.Chdir(t.TempDir())

	cfg := LoadConfig()

	require.NotNil(t, cfg, "LoadConfig must not return nil")
	assert.Equal(t, "wheelvault.db", cfg.DatabasePath)
	assert.Equal(t, 3*time.Second, cfg.OnlineCheckInterval)
}

func TestLoadConfig_Precedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	dir := t.TempDir()
	t.Chdir(dir)

	t.Cleanup(func() {
		_ = os.Unsetenv("WHEELVAULT_DATABASE_PATH")
		_ = os.Unsetenv("WHEELVAULT_NEWS_TTL")
	})
	require.NoError(t, os.WriteFile(".env",
		[]byte("WHEELVAULT_DATABASE_PATH=from-dotenv.db\nWHEELVAULT_S3_BUCKET=dotenv-bucket\nWHEELVAULT_NEWS_TTL=2h\n"), 0o600))
	t.Setenv("WHEELVAULT_S3_BUCKET", "env-bucket")
	t.Setenv("WHEELVAULT_REMOTE_DSN", "postgres://env")
	t.Setenv("WHEELVAULT_PAGE_SIZE", "50")

	jsonPath := writeTempJSON(t, dir, "cfg.json", map[string]any{
		"remote_dsn": "postgres://json",
		"car_ttl":    "5m",
	})
	os.Args = []string{"testbin", "-config", jsonPath, "-p", "7"}

	cfg := LoadConfig()

	assert.Equal(t, "from-dotenv.db", cfg.DatabasePath, "dotenv fills unset variables")
	assert.Equal(t, "env-bucket", cfg.S3Bucket, "process env wins over dotenv")
	assert.Equal(t, 2*time.Hour, cfg.NewsTTL)
	assert.Equal(t, "postgres://json", cfg.RemoteDSN, "json wins over env")
	assert.Equal(t, 5*time.Minute, cfg.CarTTL)
	assert.Equal(t, 7, cfg.PageSize, "flags win over everything")
	assert.False(t, cfg.Offline())
}
