package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// DefaultEnvFile is read when no env file is named.
const DefaultEnvFile = ".env"

// LoadDotEnv copies KEY=VALUE pairs from path into the process environment.
// Variables already set in the environment keep their values. An empty path
// reads DefaultEnvFile when it exists; a named file must exist.
func LoadDotEnv(path string) error {
	if path == "" {
		if _, err := os.Stat(DefaultEnvFile); errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		path = DefaultEnvFile
	}

	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// LoadConfig reads the optional env file, then the environment, into an
// AppConfig. The result is not validated; call AppConfig.Validate before
// serving.
func LoadConfig(envPath string) (AppConfig, error) {
	if err := LoadDotEnv(envPath); err != nil {
		return AppConfig{}, err
	}

	envCfg, err := LoadFromEnv()
	if err != nil {
		return AppConfig{}, err
	}

	return envCfg.ToAppConfig(), nil
}
