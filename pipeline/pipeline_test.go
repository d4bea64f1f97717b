package pipeline

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixmatch/pixmatch"
	"github.com/pixmatch/pixmatch/model"
)

// fakeSource serves fixed slices and records what was reported.
type fakeSource struct {
	refs    []model.Image
	queries []model.Image

	policy    bool
	policySet bool

	reported []string
}

func (f *fakeSource) References(context.Context) ([]model.Image, error) { return f.refs, nil }
func (f *fakeSource) Queries(context.Context) ([]model.Image, error)    { return f.queries, nil }

func (f *fakeSource) KeepUnmatched(context.Context) (bool, bool, error) {
	return f.policy, f.policySet, nil
}

func (f *fakeSource) Report(_ context.Context, results []string) error {
	f.reported = results
	return nil
}

func texturePNG(t *testing.T, seed uint64) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 160, 160))
	state := seed
	for i := range img.Pix {
		state = state*6364136223846793005 + 1442695040888963407
		img.Pix[i] = uint8(state >> 56)
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func engineOpts() func(o *Options) {
	return func(o *Options) {
		o.Engine = []pixmatch.Option{pixmatch.WithCanonicalSize(160, 160)}
	}
}

func TestPipeline_Run(t *testing.T) {
	refA := texturePNG(t, 1)
	refB := texturePNG(t, 2)
	unknown := texturePNG(t, 50)

	src := &fakeSource{
		refs: []model.Image{
			{ID: "refA.png", Data: refA},
			{ID: "refB.png", Data: refB},
		},
		queries: []model.Image{
			{ID: "q1.png", Data: refB},
			{ID: "q2.png", Data: unknown},
			{ID: "q3.png", Data: refA},
		},
	}

	t.Run("drop unmatched", func(t *testing.T) {
		p := New(src, src, engineOpts())
		results, err := p.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"refB.png", "refA.png"}, results)
		assert.Equal(t, results, src.reported)
	})

	t.Run("keep unmatched", func(t *testing.T) {
		p := New(src, src, engineOpts(), func(o *Options) {
			o.KeepUnmatched = true
		})
		results, err := p.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"refB.png", "q2.png", "refA.png"}, results)
	})

	t.Run("source policy overrides default", func(t *testing.T) {
		src.policy = true
		src.policySet = true
		defer func() { src.policy, src.policySet = false, false }()

		p := New(src, src, engineOpts())
		results, err := p.Run(context.Background())
		require.NoError(t, err)
		assert.Contains(t, results, "q2.png")
	})
}

func TestPipeline_QueryErrorIsUnmatched(t *testing.T) {
	src := &fakeSource{
		refs: []model.Image{
			{ID: "refA.png", Data: texturePNG(t, 1)},
			{ID: "refB.png", Data: texturePNG(t, 2)},
		},
		queries: []model.Image{
			{ID: "broken.png", Data: []byte("not an image")},
		},
	}

	p := New(src, src, engineOpts(), func(o *Options) {
		o.KeepUnmatched = true
	})
	results, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"broken.png"}, results)
}

func TestPipeline_EmptyReferences(t *testing.T) {
	src := &fakeSource{}
	p := New(src, src, engineOpts())
	_, err := p.Run(context.Background())
	assert.ErrorIs(t, err, pixmatch.ErrEmptyReferenceSet)
}
