// Package searcher answers "which reference image, if any, does this
// query depict?" against a built descriptor cache.
//
// The decision per reference entry is the classic three-step filter:
// ratio-tested nearest-neighbor matches, an early cutoff when too few
// survive, and RANSAC homography verification of the survivors. Only
// geometrically consistent support counts; the entry with the most
// inliers wins, earlier entries winning ties.
package searcher

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/pixmatch/pixmatch/blobstore"
	"github.com/pixmatch/pixmatch/cache"
	"github.com/pixmatch/pixmatch/geom"
	"github.com/pixmatch/pixmatch/matcher"
	"github.com/pixmatch/pixmatch/model"
	"github.com/pixmatch/pixmatch/resource"
	"github.com/pixmatch/pixmatch/vision"
)

const (
	// ReprojTol is the RANSAC reprojection error bound in pixels at the
	// canonical resolution. Fixed by design, not configuration.
	ReprojTol = 5.0

	// DefaultMinInliers is the default acceptance threshold. It doubles
	// as the early cutoff: an entry with fewer ratio-test survivors
	// than this cannot reach the threshold and skips verification.
	DefaultMinInliers = 15
)

// Options contains configuration options for the searcher.
type Options struct {
	// Width, Height is the canonical resolution. Must match the values
	// the cache was built with.
	Width  int
	Height int

	// MaxFeatures bounds the query's keypoint budget.
	MaxFeatures int

	// MinInliers is the minimum geometrically verified support for a
	// match. Values below 1 fall back to DefaultMinInliers.
	MinInliers int

	// Estimator verifies candidate matches geometrically. Defaults to
	// the RANSAC estimator from the geom package.
	Estimator vision.HomographyEstimator

	// Logger receives query-level events. Defaults to slog.Default().
	Logger *slog.Logger

	// Controller bounds scan concurrency and input throughput.
	// Nil means one worker per CPU, unpaced.
	Controller *resource.Controller
}

// DefaultOptions contains the default searcher configuration.
var DefaultOptions = Options{
	Width:       800,
	Height:      800,
	MaxFeatures: 2000,
	MinInliers:  DefaultMinInliers,
}

// Searcher matches query images against a descriptor cache.
// Read-only and safe for concurrent use.
type Searcher struct {
	cache     *cache.Cache
	extractor vision.Extractor
	dist      matcher.DistanceFunc
	opts      Options
}

// New creates a Searcher over an already loaded cache.
func New(c *cache.Cache, extractor vision.Extractor, optFns ...func(o *Options)) (*Searcher, error) {
	if c == nil || c.Len() == 0 {
		return nil, cache.ErrEmptyReferenceSet
	}

	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Width <= 0 {
		opts.Width = DefaultOptions.Width
	}
	if opts.Height <= 0 {
		opts.Height = DefaultOptions.Height
	}
	if opts.MaxFeatures <= 0 {
		opts.MaxFeatures = DefaultOptions.MaxFeatures
	}
	if opts.MinInliers < 1 {
		opts.MinInliers = DefaultMinInliers
	}
	if opts.Estimator == nil {
		opts.Estimator = geom.NewEstimator()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Searcher{
		cache:     c,
		extractor: extractor,
		dist:      matcher.ForMetric(extractor.Metric()),
		opts:      opts,
	}, nil
}

// Open loads a cache artifact from the blob store and constructs a
// Searcher over it. A missing or corrupt artifact fails construction.
func Open(ctx context.Context, store blobstore.BlobStore, name string, extractor vision.Extractor, optFns ...func(o *Options)) (*Searcher, error) {
	c, err := cache.Load(ctx, store, name)
	if err != nil {
		return nil, fmt.Errorf("open searcher: %w", err)
	}
	return New(c, extractor, optFns...)
}

// Cache returns the underlying descriptor cache.
func (s *Searcher) Cache() *cache.Cache { return s.cache }

// MinInliers returns the acceptance threshold in effect.
func (s *Searcher) MinInliers() int { return s.opts.MinInliers }

// FindMatch matches the query image bytes against every cache entry
// and returns the winning reference, if any.
//
// The returned error covers query-level failures only (undecodable
// bytes, extraction failure, cancellation). A query that decodes but
// yields no descriptors is a no-match, not an error. Per-entry
// failures degrade that entry to zero support and never escape.
func (s *Searcher) FindMatch(ctx context.Context, data []byte) (model.Match, bool, error) {
	if err := s.opts.Controller.AcquireInput(ctx, len(data)); err != nil {
		return model.Match{}, false, err
	}

	gray, err := vision.DecodeCanonical(data, s.opts.Width, s.opts.Height)
	if err != nil {
		return model.Match{}, false, fmt.Errorf("decode query: %w", err)
	}

	kps, descs, err := s.extractor.DetectAndDescribe(gray, s.opts.MaxFeatures)
	if err != nil {
		return model.Match{}, false, fmt.Errorf("extract query features: %w", err)
	}
	if len(descs) == 0 {
		s.opts.Logger.Warn("query yielded no descriptors, treating as no match")
		return model.Match{}, false, nil
	}

	queryPts := make([]model.Point, len(kps))
	for i, kp := range kps {
		queryPts[i] = kp.Pt()
	}

	candidates := s.scan(ctx, descs, queryPts)
	if err := ctx.Err(); err != nil {
		return model.Match{}, false, err
	}

	// Sequential reduce over scan results: strict improvement only, so
	// equal support keeps the entry that was inserted first at build
	// time.
	best := model.Candidate{Ordinal: -1}
	for _, c := range candidates {
		if c.Inliers >= s.opts.MinInliers && c.Inliers > best.Inliers {
			best = c
		}
	}

	if best.Ordinal < 0 {
		return model.Match{}, false, nil
	}
	return model.Match{Ref: best.ID, Inliers: best.Inliers}, true, nil
}

// scan evaluates every cache entry against the query, in parallel,
// and returns candidates indexed by entry ordinal.
func (s *Searcher) scan(ctx context.Context, descs []model.Descriptor, queryPts []model.Point) []model.Candidate {
	n := s.cache.Len()
	candidates := make([]model.Candidate, n)

	workers := runtime.GOMAXPROCS(0)
	if s.opts.Controller != nil {
		workers = s.opts.Controller.MaxWorkers()
	}

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			candidates[i] = s.evaluate(i, descs, queryPts)
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	return candidates
}

// evaluate scores one cache entry. Any failure, including a panic in
// the estimator, yields zero support for that entry only.
func (s *Searcher) evaluate(ordinal int, descs []model.Descriptor, queryPts []model.Point) (c model.Candidate) {
	entry := s.cache.At(ordinal)
	c = model.Candidate{Ordinal: ordinal, ID: entry.ID}

	defer func() {
		if r := recover(); r != nil {
			s.opts.Logger.Warn("candidate evaluation panic",
				"id", entry.ID,
				"panic", r,
			)
			c.GoodMatches, c.Inliers = 0, 0
		}
	}()

	good := matcher.GoodMatches(descs, entry.Descriptors, s.dist)
	c.GoodMatches = len(good)
	if len(good) < s.opts.MinInliers {
		return c
	}

	src := make([]model.Point, len(good))
	dst := make([]model.Point, len(good))
	for i, m := range good {
		src[i] = queryPts[m.QueryIdx]
		dst[i] = entry.Keypoints[m.TrainIdx].Pt()
	}

	mask, err := s.opts.Estimator.Estimate(src, dst, ReprojTol)
	if err != nil {
		// Degenerate geometry. The entry simply scores zero.
		return c
	}
	c.Inliers = geom.CountInliers(mask)
	return c
}
