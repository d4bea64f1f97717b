// Package vision defines the vision-primitives boundary of the
// matching engine: feature extraction and geometric model estimation.
//
// The engine treats these as opaque capabilities. Any implementation
// satisfies the contract as long as it returns index-aligned
// keypoint/descriptor pairs and a metric-comparable descriptor type.
// The default extractor is the pure-Go FAST+BRIEF detector in the
// fastbrief subpackage.
package vision

import (
	"image"

	"github.com/pixmatch/pixmatch/distance"
	"github.com/pixmatch/pixmatch/model"
)

// Extractor detects keypoints and computes their descriptors in a
// single pass over a grayscale image.
//
// Implementations must return sequences aligned by index: keypoint i
// corresponds to descriptor i. When the image yields no features both
// slices are empty; that is not an error.
type Extractor interface {
	// DetectAndDescribe extracts at most maxFeatures keypoints with
	// descriptors from img.
	DetectAndDescribe(img *image.Gray, maxFeatures int) ([]model.Keypoint, []model.Descriptor, error)

	// Metric reports the distance metric matching the descriptor type.
	Metric() distance.Metric
}

// HomographyEstimator robustly fits a planar homography to matched
// point pairs and reports which pairs are consistent with it.
type HomographyEstimator interface {
	// Estimate returns an inlier mask aligned with the input pairs.
	// A degenerate configuration is an estimation failure, reported
	// as an error; callers treat it as zero support.
	Estimate(src, dst []model.Point, reprojTol float64) ([]bool, error)
}
