package pixmatch

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixmatch/pixmatch/blobstore"
	"github.com/pixmatch/pixmatch/model"
	"github.com/pixmatch/pixmatch/resource"
)

func texturePNG(t *testing.T, seed uint64) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 200, 200))
	state := seed
	for i := range img.Pix {
		state = state*6364136223846793005 + 1442695040888963407
		img.Pix[i] = uint8(state >> 56)
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestLifecycle(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	metrics := &BasicMetricsCollector{}

	refA := texturePNG(t, 1)
	refB := texturePNG(t, 2)

	opts := []Option{
		WithCanonicalSize(200, 200),
		WithMetricsCollector(metrics),
		WithController(resource.NewController(resource.Config{MaxWorkers: 2})),
	}

	err := Build(ctx, store, "cache.bin", []model.Image{
		{ID: "a.png", Data: refA},
		{ID: "b.png", Data: refB},
		{ID: "broken.png", Data: []byte("nope")},
	}, opts...)
	require.NoError(t, err)

	eng, err := Open(ctx, store, "cache.bin", opts...)
	require.NoError(t, err)
	require.Equal(t, 2, eng.Cache().Len())

	m, found, err := eng.FindMatch(ctx, refA)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "a.png", m.Ref)
	assert.GreaterOrEqual(t, m.Inliers, eng.MinInliers())

	_, found, err = eng.FindMatch(ctx, texturePNG(t, 99))
	require.NoError(t, err)
	assert.False(t, found)

	stats := metrics.GetStats()
	assert.Equal(t, int64(1), stats.BuildCount)
	assert.Equal(t, int64(2), stats.BuildEntries)
	assert.Equal(t, int64(1), stats.BuildSkipped)
	assert.Equal(t, int64(2), stats.SearchCount)
	assert.Equal(t, int64(1), stats.SearchMatched)
}

func TestBuild_EmptyInput(t *testing.T) {
	err := Build(context.Background(), blobstore.NewMemoryStore(), "cache.bin", nil)
	assert.ErrorIs(t, err, ErrEmptyReferenceSet)
}

func TestBuild_AllInputsSkipped(t *testing.T) {
	store := blobstore.NewMemoryStore()
	err := Build(context.Background(), store, "cache.bin", []model.Image{
		{ID: "x", Data: []byte("not an image")},
	})
	assert.ErrorIs(t, err, ErrEmptyReferenceSet)

	_, err = blobstore.ReadAll(context.Background(), store, "cache.bin")
	assert.ErrorIs(t, err, ErrNotFound, "failed build must not write an artifact")
}

func TestOpen_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("missing", func(t *testing.T) {
		_, err := Open(ctx, blobstore.NewMemoryStore(), "missing.bin")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("corrupt", func(t *testing.T) {
		store := blobstore.NewMemoryStore()
		require.NoError(t, store.Put(ctx, "cache.bin", []byte("garbage bytes, not an artifact")))

		_, err := Open(ctx, store, "cache.bin")
		var invalid *ErrInvalidArtifact
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, "cache.bin", invalid.Name)
	})
}
