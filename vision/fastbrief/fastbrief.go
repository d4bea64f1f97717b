// Package fastbrief implements a pure-Go feature extractor: FAST
// corner detection paired with 256-bit BRIEF binary descriptors.
//
// The extractor runs on a single octave at the engine's canonical
// resolution. Descriptors are upright (the sampling pattern is not
// steered by orientation); keypoint orientation is still computed via
// the intensity-centroid method and carried as metadata.
package fastbrief

import (
	"image"
	"math"
	"sort"

	"github.com/pixmatch/pixmatch/distance"
	"github.com/pixmatch/pixmatch/model"
	"github.com/pixmatch/pixmatch/util"
	"github.com/pixmatch/pixmatch/vision"
)

const (
	// DescriptorSize is the descriptor length in bytes (256 bits).
	DescriptorSize = 32

	// DefaultThreshold is the FAST intensity threshold.
	DefaultThreshold = 20

	// patchRadius bounds the BRIEF sampling pattern.
	patchRadius = 15

	// border is the minimum keypoint distance from the image edge:
	// sampling offset (13) + box-smoothing radius (2).
	border = patchRadius

	// fastArc is the minimum contiguous circle arc for a FAST-9 corner.
	fastArc = 9

	// patternSeed fixes the BRIEF sampling pattern. Changing it is a
	// cache format break: descriptors from different patterns do not
	// compare.
	patternSeed = 0xB1EF
)

// circle is the 16-pixel Bresenham circle of radius 3 used by FAST.
var circle = [16][2]int{
	{0, -3}, {1, -3}, {2, -2}, {3, -1},
	{3, 0}, {3, 1}, {2, 2}, {1, 3},
	{0, 3}, {-1, 3}, {-2, 2}, {-3, 1},
	{-3, 0}, {-3, -1}, {-2, -2}, {-1, -3},
}

// pattern holds the 256 point pairs compared to produce descriptor
// bits. Generated once, deterministically.
var pattern [256][4]int

func init() {
	rng := util.NewRNG(patternSeed)
	for i := range pattern {
		for j := 0; j < 4; j++ {
			// Offsets in [-13, 13]: leaves room for the smoothing
			// window inside the patch.
			pattern[i][j] = rng.Intn(27) - 13
		}
	}
}

// Options contains configuration options for the extractor.
type Options struct {
	// Threshold is the FAST intensity threshold. Lower values detect
	// more (weaker) corners.
	Threshold int
}

// DefaultOptions contains the default configuration options.
var DefaultOptions = Options{
	Threshold: DefaultThreshold,
}

// Extractor is a FAST+BRIEF feature extractor.
// Safe for concurrent use; all per-call state is local.
type Extractor struct {
	threshold int
}

var _ vision.Extractor = (*Extractor)(nil)

// New creates a new FAST+BRIEF extractor.
func New(optFns ...func(o *Options)) *Extractor {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	return &Extractor{threshold: opts.Threshold}
}

// Metric reports the descriptor distance metric (Hamming).
func (e *Extractor) Metric() distance.Metric { return distance.MetricHamming }

// DetectAndDescribe extracts at most maxFeatures keypoints with
// descriptors from img. maxFeatures <= 0 means unbounded.
func (e *Extractor) DetectAndDescribe(img *image.Gray, maxFeatures int) ([]model.Keypoint, []model.Descriptor, error) {
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()
	if w <= 2*border || h <= 2*border {
		return nil, nil, nil
	}

	scores := e.cornerScores(img)
	kps := e.selectKeypoints(img, scores, w, h, maxFeatures)
	if len(kps) == 0 {
		return nil, nil, nil
	}

	integral := integralImage(img)
	descs := make([]model.Descriptor, len(kps))
	for i, kp := range kps {
		descs[i] = describe(integral, w, int(kp.X), int(kp.Y))
	}

	return kps, descs, nil
}

// cornerScores computes the FAST-9 corner score for every interior
// pixel. Zero means "not a corner".
func (e *Extractor) cornerScores(img *image.Gray) []int {
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()
	pix := img.Pix
	stride := img.Stride
	t := e.threshold

	scores := make([]int, w*h)
	for y := border; y < h-border; y++ {
		for x := border; x < w-border; x++ {
			p := int(pix[y*stride+x])

			var bright, dark [32]bool
			var diffs [16]int
			for i, off := range circle {
				v := int(pix[(y+off[1])*stride+x+off[0]])
				d := v - p
				diffs[i] = d
				if d > t {
					bright[i], bright[i+16] = true, true
				} else if d < -t {
					dark[i], dark[i+16] = true, true
				}
			}

			if s := arcScore(bright[:], diffs[:]); s > 0 {
				scores[y*w+x] = s
				continue
			}
			if s := arcScore(dark[:], diffs[:]); s > 0 {
				scores[y*w+x] = s
			}
		}
	}
	return scores
}

// arcScore finds the longest contiguous run of qualifying circle
// pixels (the flags slice is doubled for wrap-around) and, if it spans
// at least fastArc pixels, returns the summed absolute intensity
// difference over that run.
func arcScore(flags []bool, diffs []int) int {
	bestLen, bestSum := 0, 0
	runLen, runSum := 0, 0
	for i := 0; i < 32; i++ {
		if !flags[i] {
			runLen, runSum = 0, 0
			continue
		}
		runLen++
		runSum += abs(diffs[i%16])
		if runLen > 16 {
			// Full circle; cap at 16 pixels of score.
			break
		}
		if runLen > bestLen || (runLen == bestLen && runSum > bestSum) {
			bestLen, bestSum = runLen, runSum
		}
	}
	if bestLen < fastArc {
		return 0
	}
	return bestSum
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// selectKeypoints applies 3x3 non-maximum suppression, computes
// orientation, sorts by response and truncates to the feature budget.
func (e *Extractor) selectKeypoints(img *image.Gray, scores []int, w, h, maxFeatures int) []model.Keypoint {
	var kps []model.Keypoint
	for y := border; y < h-border; y++ {
		for x := border; x < w-border; x++ {
			s := scores[y*w+x]
			if s == 0 || !isLocalMax(scores, w, x, y, s) {
				continue
			}
			kps = append(kps, model.Keypoint{
				X:        float64(x),
				Y:        float64(y),
				Size:     2*patchRadius + 1,
				Angle:    orientation(img, x, y),
				Response: float32(s),
				Octave:   0,
				ClassID:  -1,
			})
		}
	}

	// Strongest first; position breaks ties so the order is total and
	// the feature-budget cut is deterministic.
	sort.Slice(kps, func(i, j int) bool {
		if kps[i].Response != kps[j].Response {
			return kps[i].Response > kps[j].Response
		}
		if kps[i].Y != kps[j].Y {
			return kps[i].Y < kps[j].Y
		}
		return kps[i].X < kps[j].X
	})

	if maxFeatures > 0 && len(kps) > maxFeatures {
		kps = kps[:maxFeatures]
	}
	return kps
}

func isLocalMax(scores []int, w, x, y, s int) bool {
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			n := scores[(y+dy)*w+x+dx]
			if n > s {
				return false
			}
			// Equal neighbors: keep the lexicographically first.
			if n == s && (dy < 0 || (dy == 0 && dx < 0)) {
				return false
			}
		}
	}
	return true
}

// orientation computes the intensity-centroid angle in degrees
// [0, 360) over a radius-7 disc.
func orientation(img *image.Gray, x, y int) float32 {
	const r = 7
	pix := img.Pix
	stride := img.Stride

	var m10, m01 float64
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dy*dy > r*r {
				continue
			}
			v := float64(pix[(y+dy)*stride+x+dx])
			m10 += float64(dx) * v
			m01 += float64(dy) * v
		}
	}

	deg := math.Atan2(m01, m10) * 180 / math.Pi
	if deg < 0 {
		deg += 360
	}
	return float32(deg)
}

// integralImage builds an (w+1)x(h+1) summed-area table.
func integralImage(img *image.Gray) []uint64 {
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()
	pix := img.Pix
	stride := img.Stride

	sat := make([]uint64, (w+1)*(h+1))
	for y := 0; y < h; y++ {
		var rowSum uint64
		for x := 0; x < w; x++ {
			rowSum += uint64(pix[y*stride+x])
			sat[(y+1)*(w+1)+x+1] = sat[y*(w+1)+x+1] + rowSum
		}
	}
	return sat
}

// smoothed returns the 5x5 box-filtered intensity at (x, y).
func smoothed(sat []uint64, w, x, y int) uint64 {
	x0, y0 := x-2, y-2
	x1, y1 := x+3, y+3
	return sat[y1*(w+1)+x1] - sat[y0*(w+1)+x1] - sat[y1*(w+1)+x0] + sat[y0*(w+1)+x0]
}

// describe computes the 256-bit BRIEF descriptor for the keypoint at
// (x, y) from smoothed intensity comparisons.
func describe(sat []uint64, w, x, y int) model.Descriptor {
	d := make(model.Descriptor, DescriptorSize)
	for i, p := range pattern {
		a := smoothed(sat, w, x+p[0], y+p[1])
		b := smoothed(sat, w, x+p[2], y+p[3])
		if a < b {
			d[i/8] |= 1 << (i % 8)
		}
	}
	return d
}
