package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"git.home.luguber.info/inful/pluginbuild/internal/logfields"
)

// EnvFileName is the optional environment file read from the project directory.
const EnvFileName = ".env"

// LoadEnvFile loads dir/.env into the process environment without overriding
// variables that are already set. A missing file is not an error.
func LoadEnvFile(dir string) error {
	path := filepath.Join(dir, EnvFileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	slog.Debug("Loaded environment file", logfields.Path(path))
	return nil
}
