package geom

import (
	"math"

	"github.com/pixmatch/pixmatch/model"
	"github.com/pixmatch/pixmatch/util"
)

const (
	// ransacSeed makes estimation deterministic: the same
	// correspondences always yield the same consensus set.
	ransacSeed = 0x5EED

	// defaultConfidence is the target probability that at least one
	// sampled hypothesis is outlier-free.
	defaultConfidence = 0.995
)

// Options configures the RANSAC estimator.
type Options struct {
	// MaxIterations caps the number of sampled hypotheses.
	MaxIterations int
	// Confidence in (0,1) drives adaptive early termination.
	Confidence float64
}

// DefaultOptions contains the default configuration options for RANSAC.
var DefaultOptions = Options{
	MaxIterations: 2000,
	Confidence:    defaultConfidence,
}

// Estimator estimates homographies via random-sample consensus.
// Safe for concurrent use: each Estimate call owns its state.
type Estimator struct {
	opts Options
}

// NewEstimator creates a new RANSAC homography estimator.
func NewEstimator(optFns ...func(o *Options)) *Estimator {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultOptions.MaxIterations
	}
	if opts.Confidence <= 0 || opts.Confidence >= 1 {
		opts.Confidence = DefaultOptions.Confidence
	}
	return &Estimator{opts: opts}
}

// Estimate fits a homography mapping src onto dst and returns the
// inlier mask (reprojection error < tol) aligned with the input pairs.
//
// Returns ErrDegenerate when fewer than four pairs are given or when
// no valid hypothesis can be formed; callers treat that as zero
// support, not a fatal error.
func (e *Estimator) Estimate(src, dst []model.Point, tol float64) ([]bool, error) {
	n := len(src)
	if n < 4 || len(dst) != n {
		return nil, ErrDegenerate
	}

	rng := util.NewRNG(ransacSeed)

	var (
		bestMask    []bool
		bestInliers int
	)

	maxIters := e.opts.MaxIterations
	sample := make([]int, 4)
	mask := make([]bool, n)

	for iter := 0; iter < maxIters; iter++ {
		if !rng.SampleDistinct(sample, n) {
			break
		}

		var sPts, dPts [4]model.Point
		for i, idx := range sample {
			sPts[i] = src[idx]
			dPts[i] = dst[idx]
		}
		if collinear(sPts) {
			continue
		}

		h, err := solveHomography(sPts[:], dPts[:])
		if err != nil {
			continue
		}

		inliers := 0
		for i := 0; i < n; i++ {
			in := h.reprojError(src[i], dst[i]) < tol
			mask[i] = in
			if in {
				inliers++
			}
		}

		if inliers > bestInliers {
			bestInliers = inliers
			if bestMask == nil {
				bestMask = make([]bool, n)
			}
			copy(bestMask, mask)

			// Adaptive termination: shrink the iteration budget as
			// the inlier ratio estimate improves.
			w := float64(inliers) / float64(n)
			if denom := math.Log(1 - math.Pow(w, 4)); denom < 0 {
				if est := int(math.Ceil(math.Log(1-e.opts.Confidence) / denom)); est < maxIters {
					maxIters = est
				}
			}
		}
	}

	if bestInliers < 4 {
		return nil, ErrDegenerate
	}

	// Refit on the consensus set and recount. A least-squares fit over
	// all inliers is stabler than the minimal 4-point hypothesis.
	if refined, err := refit(src, dst, bestMask); err == nil {
		inliers := 0
		for i := 0; i < n; i++ {
			in := refined.reprojError(src[i], dst[i]) < tol
			mask[i] = in
			if in {
				inliers++
			}
		}
		if inliers >= bestInliers {
			copy(bestMask, mask)
		}
	}

	return bestMask, nil
}

func refit(src, dst []model.Point, mask []bool) (Homography, error) {
	var s, d []model.Point
	for i, in := range mask {
		if in {
			s = append(s, src[i])
			d = append(d, dst[i])
		}
	}
	return solveHomography(s, d)
}

// CountInliers returns the number of true values in an inlier mask.
func CountInliers(mask []bool) int {
	n := 0
	for _, in := range mask {
		if in {
			n++
		}
	}
	return n
}
