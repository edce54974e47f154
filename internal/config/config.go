// Package config holds the settings of one bannergen run. A Config is built
// once at startup from flags and environment and passed down by value.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables backing the command line flags.
const (
	EnvCacheDir   = "BANNER_CACHE_DIR"
	EnvOutputDir  = "BANNER_OUT"
	EnvTemplates  = "BANNER_TEMPLATES"
	EnvFallback   = "BANNER_FALLBACK"
	EnvProfileURL = "BANNER_PROFILE_URL"
	EnvTimeout    = "BANNER_TIMEOUT"
	EnvWatch      = "BANNER_WATCH"
	EnvPort       = "PORT"
)

type Config struct {
	CacheDir       string
	OutputDir      string
	TemplatesDir   string
	FallbackAvatar string
	ProfileURL     string
	Timeout        time.Duration
}

func Default() Config {
	return Config{
		CacheDir:       ".cache",
		OutputDir:      "imagens",
		TemplatesDir:   "templates",
		FallbackAvatar: "desconhecido.png",
		ProfileURL:     "https://github.com",
		Timeout:        12 * time.Second,
	}
}

func (c Config) Validate() error {
	switch {
	case c.CacheDir == "":
		return errors.New("cache directory must not be empty")
	case c.OutputDir == "":
		return errors.New("output directory must not be empty")
	case c.TemplatesDir == "":
		return errors.New("templates directory must not be empty")
	case c.Timeout < 0:
		return fmt.Errorf("negative timeout %v", c.Timeout)
	}
	return nil
}

// LoadDotenv loads .env style files into the process environment. Variables
// already set win. Missing files are not an error.
func LoadDotenv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}
