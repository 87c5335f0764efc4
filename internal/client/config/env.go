package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/dmitrijs2005/wheelvault/internal/flagx"
	"github.com/joho/godotenv"
)

const (
	envPrefix      = "WHEELVAULT_"
	defaultEnvFile = ".env"
)

// parseEnv overlays Config with WHEELVAULT_* environment variables. A dotenv
// file given via -e/-env, or ./.env when present, is loaded first; variables
// already set in the process win over the file. Unset variables leave the
// field unchanged.
func parseEnv(cfg *Config) {
	if err := loadDotEnv(flagx.EnvFileFlags()); err != nil {
		panic(err)
	}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: envPrefix}); err != nil {
		panic(fmt.Errorf("parse env: %w", err))
	}
}

func loadDotEnv(path string) error {
	explicit := path != ""
	if !explicit {
		path = defaultEnvFile
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return nil
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}

	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}
