package cache

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/pixmatch/pixmatch/model"
	"github.com/pixmatch/pixmatch/resource"
	"github.com/pixmatch/pixmatch/vision"
)

// BuilderOptions contains configuration options for the cache builder.
type BuilderOptions struct {
	// Width, Height is the canonical resolution every reference image
	// is resized to before extraction. Must match the searcher's.
	Width  int
	Height int

	// MaxFeatures bounds the keypoint budget per image.
	MaxFeatures int

	// Logger receives skip and progress events. Defaults to
	// slog.Default().
	Logger *slog.Logger

	// Controller bounds extraction concurrency and input throughput.
	// Nil means one worker per CPU, unpaced.
	Controller *resource.Controller
}

// DefaultBuilderOptions contains the default builder configuration.
var DefaultBuilderOptions = BuilderOptions{
	Width:       800,
	Height:      800,
	MaxFeatures: 2000,
}

// Builder extracts features from a reference image set and assembles
// the descriptor cache.
//
// Per-image failures (undecodable bytes, zero descriptors, extractor
// panics) are skip events, never batch aborts. Only an empty input set
// or context cancellation fails a build.
type Builder struct {
	extractor vision.Extractor
	opts      BuilderOptions
}

// NewBuilder creates a new Builder around the given extractor.
func NewBuilder(extractor vision.Extractor, optFns ...func(o *BuilderOptions)) *Builder {
	opts := DefaultBuilderOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Width <= 0 {
		opts.Width = DefaultBuilderOptions.Width
	}
	if opts.Height <= 0 {
		opts.Height = DefaultBuilderOptions.Height
	}
	if opts.MaxFeatures <= 0 {
		opts.MaxFeatures = DefaultBuilderOptions.MaxFeatures
	}
	return &Builder{extractor: extractor, opts: opts}
}

// Build extracts features for every image and returns the cache,
// preserving input order for the entries that survive.
func (b *Builder) Build(ctx context.Context, images []model.Image) (*Cache, error) {
	if len(images) == 0 {
		return nil, ErrEmptyReferenceSet
	}

	workers := runtime.GOMAXPROCS(0)
	if b.opts.Controller != nil {
		workers = b.opts.Controller.MaxWorkers()
	}

	results := make([]*model.Entry, len(images))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range images {
		g.Go(func() error {
			entry, err := b.processImage(gctx, images[i])
			if err != nil {
				// Partial-failure policy: one bad input never aborts
				// the batch.
				b.opts.Logger.Warn("skipping reference image",
					"id", images[i].ID,
					"error", err,
				)
				return nil
			}
			results[i] = entry
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := New()
	skipped := 0
	for _, entry := range results {
		if entry == nil {
			skipped++
			continue
		}
		if err := out.Add(entry); err != nil {
			return nil, err
		}
	}

	b.opts.Logger.Info("descriptor cache built",
		"entries", out.Len(),
		"skipped", skipped,
	)
	return out, nil
}

// processImage runs the per-image extraction unit of work. A panic in
// the extractor is converted into a skip error.
func (b *Builder) processImage(ctx context.Context, img model.Image) (entry *model.Entry, err error) {
	defer func() {
		if r := recover(); r != nil {
			entry, err = nil, fmt.Errorf("extractor panic: %v", r)
		}
	}()

	if err := b.opts.Controller.AcquireInput(ctx, len(img.Data)); err != nil {
		return nil, err
	}

	gray, err := vision.DecodeCanonical(img.Data, b.opts.Width, b.opts.Height)
	if err != nil {
		return nil, err
	}

	kps, descs, err := b.extractor.DetectAndDescribe(gray, b.opts.MaxFeatures)
	if err != nil {
		return nil, err
	}
	if len(descs) == 0 {
		return nil, fmt.Errorf("no descriptors extracted")
	}

	return &model.Entry{ID: img.ID, Keypoints: kps, Descriptors: descs}, nil
}
