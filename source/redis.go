package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pixmatch/pixmatch/model"
)

// Key suffixes of the chat exchange, joined to the chat ID with ':'.
const (
	csvKeySuffix           = "csv:raw"
	referencesKeySuffix    = "group2_images"
	keepUnmatchedKeySuffix = "KEEP_UNMATCHED"
)

// RedisClient is the slice of go-redis this source needs. Satisfied by
// *redis.Client; injected, never a package-level singleton.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	LRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd
}

// RedisSource reads one chat's exchange state from Redis: the
// reference list under `<chatID>:group2_images`, the query links from
// the image column of the CSV blob under `<chatID>:csv:raw`, and the
// keep-unmatched policy override under `<chatID>:KEEP_UNMATCHED`.
// Reporting rewrites the CSV's first data row and sets it back.
type RedisSource struct {
	client      RedisClient
	chatID      string
	imageColumn string
	fetch       Fetcher
	logger      *slog.Logger

	table *Table
}

// RedisSourceOptions contains configuration options for RedisSource.
type RedisSourceOptions struct {
	// Fetcher resolves reference and query identifiers to image bytes.
	// Defaults to FileFetcher.
	Fetcher Fetcher
	// Logger receives skip warnings. Defaults to slog.Default().
	Logger *slog.Logger
}

// NewRedisSource creates a source over one chat's exchange keys.
func NewRedisSource(client RedisClient, chatID, imageColumn string, optFns ...func(o *RedisSourceOptions)) *RedisSource {
	opts := RedisSourceOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Fetcher == nil {
		opts.Fetcher = FileFetcher
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &RedisSource{
		client:      client,
		chatID:      chatID,
		imageColumn: imageColumn,
		fetch:       opts.Fetcher,
		logger:      opts.Logger,
	}
}

func (r *RedisSource) key(suffix string) string {
	return r.chatID + ":" + suffix
}

// References implements Source.
func (r *RedisSource) References(ctx context.Context) ([]model.Image, error) {
	ids, err := r.client.LRange(ctx, r.key(referencesKeySuffix), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read reference list: %w", err)
	}
	return r.resolve(ctx, ids)
}

// Queries implements Source. The query set is the image-column link
// list of the CSV's first data row.
func (r *RedisSource) Queries(ctx context.Context) ([]model.Image, error) {
	if err := r.loadTable(ctx); err != nil {
		return nil, err
	}
	return r.resolve(ctx, r.table.Links(0))
}

// KeepUnmatched implements PolicyProvider. An absent key means no
// override.
func (r *RedisSource) KeepUnmatched(ctx context.Context) (bool, bool, error) {
	v, err := r.client.Get(ctx, r.key(keepUnmatchedKeySuffix)).Result()
	if errors.Is(err, redis.Nil) {
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("read keep-unmatched override: %w", err)
	}
	return strings.EqualFold(strings.TrimSpace(v), "true"), true, nil
}

// Report implements Sink: the result list replaces the first data
// row's image links and the rewritten CSV is set back under the same
// key.
func (r *RedisSource) Report(ctx context.Context, results []string) error {
	if err := r.loadTable(ctx); err != nil {
		return err
	}
	if err := r.table.SetLinks(0, results); err != nil {
		return err
	}
	data, err := r.table.Encode()
	if err != nil {
		return fmt.Errorf("encode link table: %w", err)
	}
	if err := r.client.Set(ctx, r.key(csvKeySuffix), data, 0).Err(); err != nil {
		return fmt.Errorf("write link table: %w", err)
	}
	return nil
}

func (r *RedisSource) loadTable(ctx context.Context) error {
	if r.table != nil {
		return nil
	}
	raw, err := r.client.Get(ctx, r.key(csvKeySuffix)).Result()
	if err != nil {
		return fmt.Errorf("read link table: %w", err)
	}
	table, err := ParseTable([]byte(raw), r.imageColumn)
	if err != nil {
		return err
	}
	r.table = table
	return nil
}

// resolve fetches bytes for every identifier, skipping failures with a
// warning so one dead link cannot sink the run.
func (r *RedisSource) resolve(ctx context.Context, ids []string) ([]model.Image, error) {
	images := make([]model.Image, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := r.fetch(ctx, id)
		if err != nil {
			r.logger.Warn("skipping unfetchable image", "id", id, "error", err)
			continue
		}
		images = append(images, model.Image{ID: id, Data: data})
	}
	return images, nil
}
