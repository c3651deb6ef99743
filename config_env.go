package goIdentity

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every variable read by ConfigFromEnv.
const EnvPrefix = "IDENTITY_"

// ConfigFromEnv overlays IDENTITY_* environment variables onto
// DefaultConfig. Variables already set in the process win over dotenv files.
//
// With no arguments an optional ./.env is loaded; named files must exist.
// Key material variables are unset after they are read. The result is not
// validated; Build does that.
func ConfigFromEnv(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil {
		if len(files) > 0 || !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load dotenv: %w", err)
		}
	}

	cfg := defaultConfig()
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}
