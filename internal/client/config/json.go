package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/wheelvault/internal/flagx"
	"github.com/dmitrijs2005/wheelvault/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify intervals either as
// strings like "3s" or as integer nanoseconds. After parsing, values
// are copied into the runtime Config (which uses time.Duration).
type JsonConfig struct {
	DatabasePath string `json:"database_path"`
	RemoteDSN    string `json:"remote_dsn"`
	AccessToken  string `json:"access_token"`
	JWTSecret    string `json:"jwt_secret"`

	S3Endpoint  string `json:"s3_endpoint"`
	S3Region    string `json:"s3_region"`
	S3Bucket    string `json:"s3_bucket"`
	S3AccessKey string `json:"s3_access_key"`
	S3SecretKey string `json:"s3_secret_key"`

	PageSize int            `json:"page_size"`
	CarTTL   timex.Duration `json:"car_ttl"`
	BrandTTL timex.Duration `json:"brand_ttl"`
	NewsTTL  timex.Duration `json:"news_ttl"`

	DownloadConcurrency int     `json:"download_concurrency"`
	DownloadRPS         float64 `json:"download_rps"`

	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
	LogLevel            string         `json:"log_level"`
}

// parseJson overlays Config with values loaded from a JSON file given via
// -c or -config. Keys missing from the file leave the field unchanged.
// Panics on read or unmarshal errors.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setString(&cfg.DatabasePath, jc.DatabasePath)
	setString(&cfg.RemoteDSN, jc.RemoteDSN)
	setString(&cfg.AccessToken, jc.AccessToken)
	setString(&cfg.JWTSecret, jc.JWTSecret)
	setString(&cfg.S3Endpoint, jc.S3Endpoint)
	setString(&cfg.S3Region, jc.S3Region)
	setString(&cfg.S3Bucket, jc.S3Bucket)
	setString(&cfg.S3AccessKey, jc.S3AccessKey)
	setString(&cfg.S3SecretKey, jc.S3SecretKey)
	setString(&cfg.LogLevel, jc.LogLevel)

	if jc.PageSize > 0 {
		cfg.PageSize = jc.PageSize
	}
	if jc.DownloadConcurrency > 0 {
		cfg.DownloadConcurrency = jc.DownloadConcurrency
	}
	if jc.DownloadRPS > 0 {
		cfg.DownloadRPS = jc.DownloadRPS
	}

	setDuration(&cfg.CarTTL, jc.CarTTL)
	setDuration(&cfg.BrandTTL, jc.BrandTTL)
	setDuration(&cfg.NewsTTL, jc.NewsTTL)
	setDuration(&cfg.OnlineCheckInterval, jc.OnlineCheckInterval)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration > 0 {
		*dst = v.Duration
	}
}
