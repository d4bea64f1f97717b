// Package matcher provides brute-force descriptor matching with
// Lowe's ratio-test filtering.
//
// For every query descriptor the two nearest reference descriptors are
// located by exhaustive scan. The best neighbor survives only when it
// is substantially closer than the runner-up; near-equidistant top-2
// candidates are ambiguous (repetitive texture) and rejected.
package matcher

import (
	"encoding/binary"
	"math"

	"github.com/pixmatch/pixmatch/distance"
	"github.com/pixmatch/pixmatch/model"
)

// LoweRatio is the ratio-test threshold: a best neighbor is accepted
// only if bestDist < LoweRatio * secondBestDist. Fixed by design, not
// exposed as configuration.
const LoweRatio = 0.75

// Match is one accepted query->reference descriptor correspondence.
type Match struct {
	// QueryIdx indexes the query keypoint/descriptor sequence.
	QueryIdx int
	// TrainIdx indexes the reference keypoint/descriptor sequence.
	TrainIdx int
	// Distance is the descriptor distance of the accepted neighbor.
	Distance float32
}

// DistanceFunc computes the distance between two raw descriptors.
type DistanceFunc func(a, b []byte) float32

// ForMetric returns the DistanceFunc for a metric. MetricL2 interprets
// descriptor bytes as a little-endian float32 vector.
func ForMetric(m distance.Metric) DistanceFunc {
	switch m {
	case distance.MetricL2:
		return func(a, b []byte) float32 {
			return distance.SquaredL2(float32sOf(a), float32sOf(b))
		}
	default:
		return distance.Hamming
	}
}

func float32sOf(b []byte) []float32 {
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}

// GoodMatches scans train exhaustively for each query descriptor
// (k=2 nearest neighbors) and returns the ratio-test survivors in
// query index order.
//
// Reference sets with fewer than two descriptors yield no matches:
// without a second neighbor the ratio test cannot rule out ambiguity.
func GoodMatches(query, train []model.Descriptor, dist DistanceFunc) []Match {
	if len(train) < 2 {
		return nil
	}

	good := make([]Match, 0, len(query)/4)
	for qi, qd := range query {
		best := float32(math.MaxFloat32)
		second := float32(math.MaxFloat32)
		bestIdx := -1

		for ti, td := range train {
			d := dist(qd, td)
			switch {
			case d < best:
				second = best
				best = d
				bestIdx = ti
			case d < second:
				second = d
			}
		}

		if best < LoweRatio*second {
			good = append(good, Match{QueryIdx: qi, TrainIdx: bestIdx, Distance: best})
		}
	}

	return good
}
