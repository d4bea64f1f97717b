// Package distance provides descriptor distance calculations.
//
// Binary descriptors (BRIEF/ORB-style bit strings) use Hamming
// distance; numeric descriptors use Euclidean distance. The ratio test
// and RANSAC tolerance layered on top are metric-agnostic.
package distance

import (
	"fmt"
	"math"
	"math/bits"
)

// Hamming calculates the Hamming distance between two byte slices.
// Assumes slices are the same length (caller's responsibility).
// Returns the count of differing bits as a float32.
func Hamming(a, b []byte) float32 {
	var n int
	i := 0
	for ; i+8 <= len(a); i += 8 {
		x := uint64(a[i]) | uint64(a[i+1])<<8 | uint64(a[i+2])<<16 | uint64(a[i+3])<<24 |
			uint64(a[i+4])<<32 | uint64(a[i+5])<<40 | uint64(a[i+6])<<48 | uint64(a[i+7])<<56
		y := uint64(b[i]) | uint64(b[i+1])<<8 | uint64(b[i+2])<<16 | uint64(b[i+3])<<24 |
			uint64(b[i+4])<<32 | uint64(b[i+5])<<40 | uint64(b[i+6])<<48 | uint64(b[i+7])<<56
		n += bits.OnesCount64(x ^ y)
	}
	for ; i < len(a); i++ {
		n += bits.OnesCount8(a[i] ^ b[i])
	}
	return float32(n)
}

// SquaredL2 calculates the squared L2 (Euclidean) distance between two
// float32 vectors. Assumes vectors are the same length.
func SquaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// L2 calculates the L2 (Euclidean) distance between two float32 vectors.
func L2(a, b []float32) float32 {
	return float32(math.Sqrt(float64(SquaredL2(a, b))))
}

// Metric represents the distance metric used for descriptor comparison.
type Metric int

const (
	// MetricHamming compares binary descriptors bit-wise.
	MetricHamming Metric = iota
	// MetricL2 compares numeric descriptors by Euclidean distance.
	MetricL2
)

func (m Metric) String() string {
	switch m {
	case MetricHamming:
		return "Hamming"
	case MetricL2:
		return "L2"
	default:
		return fmt.Sprintf("Unknown(%d)", m)
	}
}
