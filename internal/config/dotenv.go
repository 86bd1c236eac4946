package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

const (
	// ConfigDir is the name of the adapter's configuration directory.
	ConfigDir = ".scm-bitbucket"
	// EnvFileName is the name of the environment variables file.
	EnvFileName = ".env"
)

// LoadDotEnv loads environment variables from .scm-bitbucket/.env if it
// exists. godotenv.Load does not override variables already set in the
// environment, so system env vars keep priority over .env values.
// Returns nil if the file doesn't exist; an error only when the file exists
// but cannot be parsed.
func LoadDotEnv(baseDir string) error {
	envPath := filepath.Join(baseDir, ConfigDir, EnvFileName)

	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		return nil
	}

	return godotenv.Load(envPath)
}

// LoadDotEnvFromCwd loads .env from the current working directory's
// .scm-bitbucket/.env.
func LoadDotEnvFromCwd() error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	return LoadDotEnv(cwd)
}
