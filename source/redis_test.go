package source

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRedis implements RedisClient over in-memory maps.
type fakeRedis struct {
	strings map[string]string
	lists   map[string][]string
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{
		strings: make(map[string]string),
		lists:   make(map[string][]string),
	}
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx)
	if v, ok := f.strings[key]; ok {
		cmd.SetVal(v)
	} else {
		cmd.SetErr(redis.Nil)
	}
	return cmd
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx)
	switch v := value.(type) {
	case string:
		f.strings[key] = v
	case []byte:
		f.strings[key] = string(v)
	default:
		f.strings[key] = fmt.Sprint(v)
	}
	cmd.SetVal("OK")
	return cmd
}

func (f *fakeRedis) LRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd {
	cmd := redis.NewStringSliceCmd(ctx)
	cmd.SetVal(f.lists[key])
	return cmd
}

// byteFetcher resolves identifiers from a map; missing entries fail.
func byteFetcher(files map[string][]byte) Fetcher {
	return func(_ context.Context, id string) ([]byte, error) {
		data, ok := files[id]
		if !ok {
			return nil, fmt.Errorf("no such image: %s", id)
		}
		return data, nil
	}
}

func newTestRedisSource(f *fakeRedis, files map[string][]byte) *RedisSource {
	return NewRedisSource(f, "chat42", "images", func(o *RedisSourceOptions) {
		o.Fetcher = byteFetcher(files)
	})
}

func TestRedisSource_References(t *testing.T) {
	f := newFakeRedis()
	f.lists["chat42:group2_images"] = []string{"ref1.jpg", "dead.jpg", "ref2.jpg"}

	src := newTestRedisSource(f, map[string][]byte{
		"ref1.jpg": []byte("one"),
		"ref2.jpg": []byte("two"),
	})

	refs, err := src.References(context.Background())
	require.NoError(t, err)
	require.Len(t, refs, 2, "dead link must be skipped, not fatal")
	assert.Equal(t, "ref1.jpg", refs[0].ID)
	assert.Equal(t, "ref2.jpg", refs[1].ID)
}

func TestRedisSource_Queries(t *testing.T) {
	f := newFakeRedis()
	f.strings["chat42:csv:raw"] = "name|images\nrow0|q1.jpg;q2.jpg\n"

	src := newTestRedisSource(f, map[string][]byte{
		"q1.jpg": []byte("one"),
		"q2.jpg": []byte("two"),
	})

	queries, err := src.Queries(context.Background())
	require.NoError(t, err)
	require.Len(t, queries, 2)
	assert.Equal(t, "q1.jpg", queries[0].ID)
	assert.Equal(t, "q2.jpg", queries[1].ID)
}

func TestRedisSource_QueriesMissingCSV(t *testing.T) {
	src := newTestRedisSource(newFakeRedis(), nil)
	_, err := src.Queries(context.Background())
	assert.Error(t, err)
}

func TestRedisSource_KeepUnmatched(t *testing.T) {
	tests := []struct {
		name      string
		stored    string
		present   bool
		wantValue bool
		wantOK    bool
	}{
		{name: "absent key means no override", present: false},
		{name: "true", stored: "true", present: true, wantValue: true, wantOK: true},
		{name: "mixed case true", stored: "True", present: true, wantValue: true, wantOK: true},
		{name: "false", stored: "false", present: true, wantValue: false, wantOK: true},
		{name: "junk reads as false", stored: "yes please", present: true, wantValue: false, wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeRedis()
			if tt.present {
				f.strings["chat42:KEEP_UNMATCHED"] = tt.stored
			}
			src := newTestRedisSource(f, nil)

			value, ok, err := src.KeepUnmatched(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantValue, value)
		})
	}
}

func TestRedisSource_Report(t *testing.T) {
	f := newFakeRedis()
	f.strings["chat42:csv:raw"] = "name|images|note\nrow0|q1.jpg;q2.jpg|hello\n"

	src := newTestRedisSource(f, nil)
	require.NoError(t, src.Report(context.Background(), []string{"ref1.jpg", "q2.jpg"}))

	table, err := ParseTable([]byte(f.strings["chat42:csv:raw"]), "images")
	require.NoError(t, err)
	assert.Equal(t, []string{"ref1.jpg", "q2.jpg"}, table.Links(0))
	assert.Contains(t, f.strings["chat42:csv:raw"], "name|images|note")
}
