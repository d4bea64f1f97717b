// Package config loads the CLI configuration: a YAML file with
// environment variable overrides. Library components take functional
// options instead; this package only serves cmd/pixmatch.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// RedisConfig holds the Redis exchange settings.
type RedisConfig struct {
	Addr        string `yaml:"addr"`
	Password    string `yaml:"password,omitempty"`
	DB          int    `yaml:"db,omitempty"`
	ChatID      string `yaml:"chat_id"`
	ImageColumn string `yaml:"image_column"`
}

// StorageConfig selects where the cache artifact lives.
type StorageConfig struct {
	// Backend is one of "local", "memory", "s3", "minio".
	Backend string `yaml:"backend"`
	// Path is the local directory (local backend).
	Path string `yaml:"path,omitempty"`
	// Bucket and Prefix address the object store (s3/minio backends).
	Bucket string `yaml:"bucket,omitempty"`
	Prefix string `yaml:"prefix,omitempty"`
	// Endpoint is the server address (minio backend).
	Endpoint string `yaml:"endpoint,omitempty"`
}

// Config is the in-memory representation of pixmatch.yaml.
type Config struct {
	CachePath       string `yaml:"cache_path"`
	CanonicalWidth  int    `yaml:"canonical_width"`
	CanonicalHeight int    `yaml:"canonical_height"`
	MaxFeatures     int    `yaml:"max_features"`
	MinInliers      int    `yaml:"min_inliers"`
	KeepUnmatched   bool   `yaml:"keep_unmatched"`
	MaxWorkers      int64  `yaml:"max_workers,omitempty"`
	LogLevel        string `yaml:"log_level,omitempty"`

	ReferenceDir string `yaml:"reference_dir,omitempty"`
	QueryDir     string `yaml:"query_dir,omitempty"`

	Redis   RedisConfig   `yaml:"redis,omitempty"`
	Storage StorageConfig `yaml:"storage,omitempty"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		CachePath:       "descriptor-cache.bin",
		CanonicalWidth:  800,
		CanonicalHeight: 800,
		MaxFeatures:     2000,
		MinInliers:      15,
		KeepUnmatched:   false,
		LogLevel:        "info",
		Redis: RedisConfig{
			Addr:        "localhost:6379",
			ImageColumn: "images",
		},
		Storage: StorageConfig{
			Backend: "local",
			Path:    ".",
		},
	}
}

// Load reads the YAML file at path (skipped when path is empty),
// applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("cannot read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides file values from PIXMATCH_* environment variables.
func (c *Config) applyEnv() {
	setString := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	setInt := func(dst *int, key string) {
		if v, ok := os.LookupEnv(key); ok {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	setBool := func(dst *bool, key string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = strings.EqualFold(strings.TrimSpace(v), "true")
		}
	}

	setString(&c.CachePath, "PIXMATCH_CACHE_PATH")
	setInt(&c.MinInliers, "PIXMATCH_MIN_INLIERS")
	setInt(&c.MaxFeatures, "PIXMATCH_MAX_FEATURES")
	setBool(&c.KeepUnmatched, "PIXMATCH_KEEP_UNMATCHED")
	setString(&c.LogLevel, "PIXMATCH_LOG_LEVEL")
	setString(&c.ReferenceDir, "PIXMATCH_REFERENCE_DIR")
	setString(&c.QueryDir, "PIXMATCH_QUERY_DIR")
	setString(&c.Redis.Addr, "PIXMATCH_REDIS_ADDR")
	setString(&c.Redis.Password, "PIXMATCH_REDIS_PASSWORD")
	setString(&c.Redis.ChatID, "PIXMATCH_CHAT_ID")
	setString(&c.Redis.ImageColumn, "PIXMATCH_IMAGE_COLUMN")
	setString(&c.Storage.Backend, "PIXMATCH_STORAGE_BACKEND")
	setString(&c.Storage.Bucket, "PIXMATCH_STORAGE_BUCKET")
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	if c.CanonicalWidth <= 0 || c.CanonicalHeight <= 0 {
		return fmt.Errorf("canonical size must be positive, got %dx%d", c.CanonicalWidth, c.CanonicalHeight)
	}
	if c.MaxFeatures <= 0 {
		return fmt.Errorf("max_features must be positive, got %d", c.MaxFeatures)
	}
	if c.MinInliers < 1 {
		return fmt.Errorf("min_inliers must be at least 1, got %d", c.MinInliers)
	}
	switch c.Storage.Backend {
	case "local", "memory", "s3", "minio":
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	return nil
}
