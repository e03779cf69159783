package app

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"

	"github.com/promptreel/server/internal/shared/config"
)

// LoadConfig loads a .env file from the working directory when one exists,
// then the application configuration. An empty path uses the default search.
func LoadConfig(path string) (*config.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}
