// Package env loads .env files into the process environment.
package env

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads the first existing file of ENV_PATH or defaultPaths.
// Variables already set in the environment win. A missing file is an error
// only for local runs (env "local" or empty).
func LoadDotEnv(env string, defaultPaths ...string) error {
	paths := defaultPaths
	if p := os.Getenv("ENV_PATH"); p != "" {
		paths = []string{p}
	} else {
		slog.Debug("ENV_PATH is not set, using default paths", "paths", defaultPaths)
	}

	for _, p := range paths {
		err := godotenv.Load(p)
		if err == nil {
			slog.Info("Loaded environment file", "path", p)
			return nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}

	if env == "local" || env == "" {
		return fmt.Errorf("no environment file found in %v: %w", paths, fs.ErrNotExist)
	}
	slog.Debug("Skipping .env ...", "env", env)
	return nil
}
