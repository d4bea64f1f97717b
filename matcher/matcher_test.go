package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixmatch/pixmatch/distance"
	"github.com/pixmatch/pixmatch/model"
)

func desc(b ...byte) model.Descriptor { return model.Descriptor(b) }

func TestGoodMatchesAcceptsUnambiguous(t *testing.T) {
	dist := ForMetric(distance.MetricHamming)

	query := []model.Descriptor{desc(0x00)}
	train := []model.Descriptor{
		desc(0x01), // 1 bit away
		desc(0xFF), // 8 bits away
	}

	good := GoodMatches(query, train, dist)
	require.Len(t, good, 1)
	assert.Equal(t, 0, good[0].QueryIdx)
	assert.Equal(t, 0, good[0].TrainIdx)
	assert.Equal(t, float32(1), good[0].Distance)
}

func TestGoodMatchesRejectsAmbiguous(t *testing.T) {
	dist := ForMetric(distance.MetricHamming)

	// Best and second-best are equidistant: best >= 0.75*second must
	// never be counted as a good match.
	query := []model.Descriptor{desc(0x00)}
	train := []model.Descriptor{desc(0x03), desc(0x05)}

	assert.Empty(t, GoodMatches(query, train, dist))
}

func TestGoodMatchesRatioBoundary(t *testing.T) {
	dist := ForMetric(distance.MetricHamming)

	// best=3, second=4: 3 >= 0.75*4, rejected (strict inequality).
	query := []model.Descriptor{desc(0x00)}
	train := []model.Descriptor{desc(0x07), desc(0x0F)}
	assert.Empty(t, GoodMatches(query, train, dist))

	// best=2, second=4: 2 < 3, accepted.
	train = []model.Descriptor{desc(0x03), desc(0x0F)}
	good := GoodMatches(query, train, dist)
	require.Len(t, good, 1)
	assert.Equal(t, float32(2), good[0].Distance)
}

func TestGoodMatchesNeedsTwoNeighbors(t *testing.T) {
	dist := ForMetric(distance.MetricHamming)

	query := []model.Descriptor{desc(0x00)}
	train := []model.Descriptor{desc(0x00)}

	assert.Empty(t, GoodMatches(query, train, dist))
}

func TestGoodMatchesQueryOrder(t *testing.T) {
	dist := ForMetric(distance.MetricHamming)

	query := []model.Descriptor{desc(0xF0), desc(0x0F), desc(0xAA)}
	train := []model.Descriptor{desc(0xF0), desc(0x0F), desc(0xAA), desc(0x55)}

	good := GoodMatches(query, train, dist)
	require.Len(t, good, 3)
	for i, m := range good {
		assert.Equal(t, i, m.QueryIdx)
		assert.Equal(t, i, m.TrainIdx)
	}
}

func TestForMetricL2(t *testing.T) {
	dist := ForMetric(distance.MetricL2)

	// 1.0f and 0.0f little-endian.
	one := desc(0x00, 0x00, 0x80, 0x3F)
	zero := desc(0x00, 0x00, 0x00, 0x00)

	assert.InDelta(t, 1.0, dist(one, zero), 1e-6)
	assert.InDelta(t, 0.0, dist(one, one), 1e-6)
}
