package model

import (
	"fmt"
)

// Keypoint is a detected interest point with position, scale and
// orientation metadata. Immutable once created.
type Keypoint struct {
	// X, Y is the position in canonical-resolution pixel units.
	X float64
	Y float64
	// Size is the diameter of the meaningful keypoint neighborhood.
	Size float32
	// Angle is the computed orientation in degrees [0, 360), or -1 if
	// the detector does not compute orientation.
	Angle float32
	// Response is the detector response strength. Stronger keypoints
	// survive feature-budget truncation.
	Response float32
	// Octave is the pyramid octave the keypoint was detected at.
	Octave int32
	// ClassID is an optional object class/group tag, -1 if unused.
	ClassID int32
}

// Point is a 2D position used for geometric verification.
type Point struct {
	X float64
	Y float64
}

// Pt returns the keypoint position as a Point.
func (k Keypoint) Pt() Point { return Point{X: k.X, Y: k.Y} }

// Descriptor is a fixed-length vector summarizing local appearance
// around one keypoint. Binary descriptors are compared by Hamming
// distance, float descriptors by Euclidean distance.
type Descriptor []byte

// Entry holds one reference image's extracted features.
//
// Invariant: Keypoints[i] corresponds to Descriptors[i]. The alignment
// must survive serialization and deserialization.
type Entry struct {
	// ID is the image identifier (its path or source key).
	ID string
	// Keypoints is the detected keypoint sequence.
	Keypoints []Keypoint
	// Descriptors is the descriptor sequence, index-aligned with
	// Keypoints.
	Descriptors []Descriptor
}

// Validate checks the keypoint/descriptor alignment invariant.
func (e *Entry) Validate() error {
	if len(e.Keypoints) != len(e.Descriptors) {
		return fmt.Errorf("entry %q: %d keypoints vs %d descriptors", e.ID, len(e.Keypoints), len(e.Descriptors))
	}
	return nil
}

// Image is one raw input image: an identifier paired with undecoded
// bytes. Sources hand the engine ordered sequences of these.
type Image struct {
	// ID is the image identifier (path or source key).
	ID string
	// Data is the raw encoded image bytes.
	Data []byte
}

// Candidate is the transient per-query-per-reference result of scoring
// one cache entry against a query. It exists only during a single
// search call.
type Candidate struct {
	// Ordinal is the entry's position in build-time insertion order.
	// It is the tie-break key: on equal inlier counts the lower
	// ordinal wins.
	Ordinal int
	// ID is the reference image identifier.
	ID string
	// GoodMatches is the count of ratio-test survivors.
	GoodMatches int
	// Inliers is the count of correspondences consistent with the
	// estimated homography.
	Inliers int
}

// Match is the searcher's final answer for one query image.
type Match struct {
	// Ref is the best reference image identifier.
	Ref string
	// Inliers is the supporting inlier count, kept for observability.
	Inliers int
}

// String returns a string representation of the Match.
func (m Match) String() string {
	return fmt.Sprintf("Match(%s:%d)", m.Ref, m.Inliers)
}
