package geom

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixmatch/pixmatch/model"
)

// identityPairs builds n correspondences related by the identity
// transform, scattered over a grid so samples are never collinear.
func identityPairs(n int) ([]model.Point, []model.Point) {
	rng := rand.New(rand.NewSource(7))
	src := make([]model.Point, n)
	dst := make([]model.Point, n)
	for i := range src {
		p := model.Point{X: rng.Float64() * 800, Y: rng.Float64() * 800}
		src[i] = p
		dst[i] = p
	}
	return src, dst
}

func translate(pts []model.Point, dx, dy float64) []model.Point {
	out := make([]model.Point, len(pts))
	for i, p := range pts {
		out[i] = model.Point{X: p.X + dx, Y: p.Y + dy}
	}
	return out
}

func TestSolveHomographyIdentity(t *testing.T) {
	src := []model.Point{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 0, Y: 100}, {X: 100, Y: 100}}

	h, err := solveHomography(src, src)
	require.NoError(t, err)

	for _, p := range src {
		m := h.Apply(p)
		assert.InDelta(t, p.X, m.X, 1e-6)
		assert.InDelta(t, p.Y, m.Y, 1e-6)
	}
}

func TestSolveHomographyTranslation(t *testing.T) {
	src := []model.Point{{X: 10, Y: 10}, {X: 200, Y: 30}, {X: 40, Y: 300}, {X: 250, Y: 280}}
	dst := translate(src, 15, -7)

	h, err := solveHomography(src, dst)
	require.NoError(t, err)

	probe := model.Point{X: 123, Y: 77}
	m := h.Apply(probe)
	assert.InDelta(t, probe.X+15, m.X, 1e-6)
	assert.InDelta(t, probe.Y-7, m.Y, 1e-6)
}

func TestSolveHomographyCollinear(t *testing.T) {
	// All points on one line cannot constrain a homography.
	src := []model.Point{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 2}, {X: 3, Y: 3}}
	_, err := solveHomography(src, src)
	assert.ErrorIs(t, err, ErrDegenerate)
}

func TestEstimateAllInliers(t *testing.T) {
	src, _ := identityPairs(40)
	dst := translate(src, 5, 3)

	mask, err := NewEstimator().Estimate(src, dst, 5.0)
	require.NoError(t, err)
	assert.Equal(t, 40, CountInliers(mask))
}

func TestEstimateRejectsOutliers(t *testing.T) {
	src, _ := identityPairs(40)
	dst := translate(src, 5, 3)

	// Corrupt ten correspondences well past the tolerance.
	for i := 0; i < 10; i++ {
		dst[i].X += 400
		dst[i].Y -= 250
	}

	mask, err := NewEstimator().Estimate(src, dst, 5.0)
	require.NoError(t, err)
	assert.Equal(t, 30, CountInliers(mask))
	for i := 0; i < 10; i++ {
		assert.False(t, mask[i], "corrupted pair %d counted as inlier", i)
	}
}

func TestEstimateTooFewPairs(t *testing.T) {
	src := []model.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}}
	_, err := NewEstimator().Estimate(src, src, 5.0)
	assert.ErrorIs(t, err, ErrDegenerate)
}

func TestEstimateDegenerateInput(t *testing.T) {
	// Every point identical: no consensus of four distinct positions.
	src := make([]model.Point, 20)
	for i := range src {
		src[i] = model.Point{X: 5, Y: 5}
	}
	_, err := NewEstimator().Estimate(src, src, 5.0)
	assert.ErrorIs(t, err, ErrDegenerate)
}

func TestEstimateDeterministic(t *testing.T) {
	src, _ := identityPairs(60)
	dst := translate(src, -12, 9)
	for i := 0; i < 15; i++ {
		dst[i].X -= 300
	}

	e := NewEstimator()
	m1, err := e.Estimate(src, dst, 5.0)
	require.NoError(t, err)
	m2, err := e.Estimate(src, dst, 5.0)
	require.NoError(t, err)
	assert.Equal(t, m1, m2)
}
