package cache

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixmatch/pixmatch/distance"
	"github.com/pixmatch/pixmatch/model"
	"github.com/pixmatch/pixmatch/resource"
)

// stubExtractor derives a single descriptor from the top-left pixel, so
// tests can tell entries apart by the input image they came from.
type stubExtractor struct {
	emptyAbove uint8 // pixels brighter than this yield no descriptors
	panicOn    uint8
}

func (s *stubExtractor) DetectAndDescribe(img *image.Gray, maxFeatures int) ([]model.Keypoint, []model.Descriptor, error) {
	v := img.GrayAt(img.Bounds().Min.X, img.Bounds().Min.Y).Y
	if s.panicOn != 0 && v == s.panicOn {
		panic("stub extractor blew up")
	}
	if s.emptyAbove != 0 && v > s.emptyAbove {
		return nil, nil, nil
	}
	kp := model.Keypoint{X: float64(v), Y: float64(v)}
	desc := model.Descriptor(bytes.Repeat([]byte{v}, 32))
	return []model.Keypoint{kp}, []model.Descriptor{desc}, nil
}

func (s *stubExtractor) Metric() distance.Metric { return distance.MetricHamming }

func uniformPNG(t *testing.T, v uint8) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 64, 64))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestBuilder_Build(t *testing.T) {
	t.Run("preserves input order", func(t *testing.T) {
		b := NewBuilder(&stubExtractor{}, func(o *BuilderOptions) {
			o.Width, o.Height = 64, 64
		})

		images := []model.Image{
			{ID: "a.png", Data: uniformPNG(t, 10)},
			{ID: "b.png", Data: uniformPNG(t, 20)},
			{ID: "c.png", Data: uniformPNG(t, 30)},
		}

		c, err := b.Build(context.Background(), images)
		require.NoError(t, err)
		assert.Equal(t, []string{"a.png", "b.png", "c.png"}, c.IDs())

		entry, ok := c.Get("b.png")
		require.True(t, ok)
		assert.Equal(t, byte(20), entry.Descriptors[0][0])
	})

	t.Run("empty input", func(t *testing.T) {
		b := NewBuilder(&stubExtractor{})
		_, err := b.Build(context.Background(), nil)
		assert.ErrorIs(t, err, ErrEmptyReferenceSet)
	})

	t.Run("skips undecodable image", func(t *testing.T) {
		b := NewBuilder(&stubExtractor{}, func(o *BuilderOptions) {
			o.Width, o.Height = 64, 64
		})

		images := []model.Image{
			{ID: "good.png", Data: uniformPNG(t, 10)},
			{ID: "bad.png", Data: []byte("not an image")},
		}

		c, err := b.Build(context.Background(), images)
		require.NoError(t, err)
		assert.Equal(t, []string{"good.png"}, c.IDs())
	})

	t.Run("skips image with no descriptors", func(t *testing.T) {
		b := NewBuilder(&stubExtractor{emptyAbove: 100}, func(o *BuilderOptions) {
			o.Width, o.Height = 64, 64
		})

		images := []model.Image{
			{ID: "featureless.png", Data: uniformPNG(t, 200)},
			{ID: "textured.png", Data: uniformPNG(t, 50)},
		}

		c, err := b.Build(context.Background(), images)
		require.NoError(t, err)
		assert.Equal(t, []string{"textured.png"}, c.IDs())
	})

	t.Run("recovers from extractor panic", func(t *testing.T) {
		b := NewBuilder(&stubExtractor{panicOn: 77}, func(o *BuilderOptions) {
			o.Width, o.Height = 64, 64
		})

		images := []model.Image{
			{ID: "cursed.png", Data: uniformPNG(t, 77)},
			{ID: "fine.png", Data: uniformPNG(t, 10)},
		}

		c, err := b.Build(context.Background(), images)
		require.NoError(t, err)
		assert.Equal(t, []string{"fine.png"}, c.IDs())
	})

	t.Run("with resource controller", func(t *testing.T) {
		ctrl := resource.NewController(resource.Config{MaxWorkers: 2})
		b := NewBuilder(&stubExtractor{}, func(o *BuilderOptions) {
			o.Width, o.Height = 64, 64
			o.Controller = ctrl
		})

		images := make([]model.Image, 8)
		for i := range images {
			images[i] = model.Image{ID: string(rune('a' + i)), Data: uniformPNG(t, uint8(i+1))}
		}

		c, err := b.Build(context.Background(), images)
		require.NoError(t, err)
		assert.Equal(t, 8, c.Len())
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		ctrl := resource.NewController(resource.Config{MaxWorkers: 1, InputBytesPerSec: 1})
		b := NewBuilder(&stubExtractor{}, func(o *BuilderOptions) {
			o.Width, o.Height = 64, 64
			o.Controller = ctrl
		})

		// Pacing makes AcquireInput observe the dead context, which is a
		// skip for the image; the build itself still completes.
		c, err := b.Build(ctx, []model.Image{{ID: "x.png", Data: uniformPNG(t, 10)}})
		require.NoError(t, err)
		assert.Equal(t, 0, c.Len())
	})
}
