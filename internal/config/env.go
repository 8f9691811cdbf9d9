package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables read after the .env file has been loaded.
const (
	EnvSiteURL = "SITE_URL"
	EnvPort    = "STYLESITE_PORT"
)

// LoadEnv loads <root>/.env into the process environment. Variables already
// set are left alone. A missing file is not an error.
func LoadEnv(root string) error {
	path := filepath.Join(root, ".env")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(path)
}

// SiteURL returns the base URL from the environment, falling back to the
// value from the configuration file.
func SiteURL(f *File) string {
	if v := os.Getenv(EnvSiteURL); v != "" {
		return v
	}
	if f == nil {
		return ""
	}
	return f.BaseURL
}

// Port returns the dev server port from the environment, or fallback when
// unset or malformed.
func Port(fallback int) int {
	v := os.Getenv(EnvPort)
	if v == "" {
		return fallback
	}
	port, err := strconv.Atoi(v)
	if err != nil || port <= 0 || port > 65535 {
		return fallback
	}
	return port
}
