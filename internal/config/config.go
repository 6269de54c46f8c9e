/*
Package config loads movie-picker configuration.

Values are layered with koanf, later layers winning:

 1. built-in defaults (Default)
 2. an optional YAML file: --config, $MOVIEPICKER_CONFIG, ./moviepicker.yaml
    or ~/.moviepicker/config.yaml, first found
 3. environment variables: MOVIEPICKER_SERVE_ADDR -> serve.addr,
    MOVIEPICKER_DATA_MAX_RATINGS -> data.max_ratings, and so on

PORT is honored as a fallback for serve.addr on hosted platforms.

Example file:

	data:
	  ratings: ml-latest-small/ratings.csv
	  movies: ml-latest-small/movies.csv
	build:
	  threshold: 100
	serve:
	  addr: ":5000"
*/
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/khanglvm/movie-picker/internal/logging"
)

// Config represents the root configuration structure.
type Config struct {
	Data      DataConfig      `koanf:"data"`
	Build     BuildConfig     `koanf:"build"`
	Storage   StorageConfig   `koanf:"storage"`
	Recommend RecommendConfig `koanf:"recommend"`
	Serve     ServeConfig     `koanf:"serve"`
	Logging   logging.Config  `koanf:"logging"`

	// source is the file the config was read from, empty for defaults only.
	source string
}

// DataConfig locates the input tables.
type DataConfig struct {
	// Ratings is the userId,movieId,rating,timestamp CSV.
	Ratings string `koanf:"ratings" validate:"required"`

	// Movies is the movieId,title,genres CSV.
	Movies string `koanf:"movies" validate:"required"`

	// MaxRatings caps the rows read from Ratings; 0 reads all.
	MaxRatings int `koanf:"max_ratings" validate:"gte=0"`
}

// DefaultMaxItems caps content builds by default.
const DefaultMaxItems = 5000

// BuildConfig tunes index construction.
type BuildConfig struct {
	// Mode is cosine (rating co-occurrence) or content (genres).
	Mode string `koanf:"mode" validate:"oneof=cosine content"`

	// Threshold keeps titles with strictly more ratings than this.
	Threshold int `koanf:"threshold" validate:"gte=0"`

	// MaxItems caps content builds to the first N catalog entries; 0 keeps
	// all, which only works for catalogs within the content size limit.
	MaxItems int `koanf:"max_items" validate:"gte=0"`

	// Workers bounds parallel row computation; 0 means GOMAXPROCS.
	Workers int `koanf:"workers" validate:"gte=0"`
}

// StorageConfig locates the index database.
type StorageConfig struct {
	Path  string `koanf:"path" validate:"required"`
	Index string `koanf:"index" validate:"required"`
}

// RecommendConfig tunes scoring and title resolution.
type RecommendConfig struct {
	TopK     int     `koanf:"top_k" validate:"gte=1"`
	Cutoff   float64 `koanf:"cutoff" validate:"gte=0,lt=1"`
	Midpoint float64 `koanf:"midpoint"`

	// MinRating and MaxRating bound accepted profile ratings.
	MinRating float64 `koanf:"min_rating"`
	MaxRating float64 `koanf:"max_rating"`
}

// ServeConfig configures the HTTP API.
type ServeConfig struct {
	Addr string `koanf:"addr" validate:"hostname_port"`

	// RateLimit is requests per RateWindow per client IP; 0 disables.
	RateLimit  int           `koanf:"rate_limit" validate:"gte=0"`
	RateWindow time.Duration `koanf:"rate_window"`

	CORSOrigins []string `koanf:"cors_origins"`

	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Data: DataConfig{
			Ratings:    "ratings.csv",
			Movies:     "movies.csv",
			MaxRatings: 1_000_000,
		},
		Build: BuildConfig{
			Mode:      "cosine",
			Threshold: 100,
			MaxItems:  DefaultMaxItems,
		},
		Storage: StorageConfig{
			Path:  "~/.moviepicker/index.db",
			Index: "movies",
		},
		Recommend: RecommendConfig{
			TopK:      10,
			Cutoff:    0.6,
			Midpoint:  2.5,
			MinRating: 0.5,
			MaxRating: 5,
		},
		Serve: ServeConfig{
			Addr:            ":5000",
			RateLimit:       100,
			RateWindow:      time.Minute,
			CORSOrigins:     []string{"*"},
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Logging: logging.Config{
			Level:  "info",
			Format: "json",
		},
	}
}

// Source returns the config file that was loaded, or "" when none was.
func (c *Config) Source() string { return c.source }

// DefaultDir returns ~/.moviepicker.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".moviepicker"), nil
}

// DefaultConfigPath returns ~/.moviepicker/config.yaml.
func DefaultConfigPath() (string, error) {
	dir, err := DefaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// ExpandPath replaces a leading "~/" with the home directory.
func ExpandPath(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
