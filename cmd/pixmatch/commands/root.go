package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/pixmatch/pixmatch"
	"github.com/pixmatch/pixmatch/blobstore"
	miniostore "github.com/pixmatch/pixmatch/blobstore/minio"
	s3store "github.com/pixmatch/pixmatch/blobstore/s3"
	"github.com/pixmatch/pixmatch/config"
	"github.com/pixmatch/pixmatch/resource"
)

var (
	// Global flags
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "pixmatch",
	Short: "Feature-based reference image matching",
	Long: `pixmatch - match query images against a reference set.

pixmatch extracts local features from every reference image once,
stores them as a descriptor cache, and answers queries by descriptor
matching with geometric verification. It tolerates resizing,
compression artifacts and moderate perspective change.

Examples:
  # Build a cache from a directory of reference images
  pixmatch build --refs ./references

  # Match one image against the cache
  pixmatch search ./query.jpg

  # Run the full pipeline over two directories
  pixmatch run --refs ./references --queries ./queries --keep-unmatched

  # Run against a Redis chat exchange
  pixmatch run --redis --chat-id chat42`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to pixmatch.yaml (optional)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig loads the YAML/env configuration for a command run.
func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}

// newLogger builds the CLI logger from the configured level; --verbose
// forces debug.
func newLogger(cfg *config.Config) *pixmatch.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}
	return pixmatch.NewTextLogger(level)
}

// newStore builds the artifact store for the configured backend.
func newStore(ctx context.Context, cfg *config.Config) (blobstore.BlobStore, error) {
	switch cfg.Storage.Backend {
	case "local":
		return blobstore.NewLocalStore(cfg.Storage.Path), nil
	case "memory":
		return blobstore.NewMemoryStore(), nil
	case "s3":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load AWS config: %w", err)
		}
		return s3store.NewStore(s3.NewFromConfig(awsCfg), cfg.Storage.Bucket, cfg.Storage.Prefix), nil
	case "minio":
		client, err := minio.New(cfg.Storage.Endpoint, &minio.Options{
			Creds:  credentials.NewEnvMinio(),
			Secure: true,
		})
		if err != nil {
			return nil, fmt.Errorf("connect to MinIO: %w", err)
		}
		return miniostore.NewStore(client, cfg.Storage.Bucket, cfg.Storage.Prefix), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// engineOptions maps the file configuration onto engine options.
func engineOptions(cfg *config.Config, logger *pixmatch.Logger) []pixmatch.Option {
	opts := []pixmatch.Option{
		pixmatch.WithCanonicalSize(cfg.CanonicalWidth, cfg.CanonicalHeight),
		pixmatch.WithMaxFeatures(cfg.MaxFeatures),
		pixmatch.WithMinInliers(cfg.MinInliers),
		pixmatch.WithLogger(logger),
	}
	if cfg.MaxWorkers > 0 {
		opts = append(opts, pixmatch.WithController(resource.NewController(resource.Config{
			MaxWorkers: cfg.MaxWorkers,
		})))
	}
	return opts
}

// newRedisClient builds the exchange client from configuration.
func newRedisClient(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}
