package pixmatch

import (
	"log/slog"

	"github.com/pixmatch/pixmatch/cache"
	"github.com/pixmatch/pixmatch/codec"
	"github.com/pixmatch/pixmatch/resource"
	"github.com/pixmatch/pixmatch/vision"
	"github.com/pixmatch/pixmatch/vision/fastbrief"
)

type options struct {
	width            int
	height           int
	maxFeatures      int
	minInliers       int
	codec            codec.Codec
	compression      cache.Compression
	extractor        vision.Extractor
	controller       *resource.Controller
	metricsCollector MetricsCollector
	logger           *Logger
}

// Option configures Build/Open behavior.
//
// Build-time and search-time geometry options (canonical size, feature
// budget) must agree: a cache built at one resolution is only valid
// for searches at the same resolution.
type Option func(*options)

// WithCanonicalSize sets the resolution every image is resized to
// before feature extraction. Defaults to 800x800.
func WithCanonicalSize(width, height int) Option {
	return func(o *options) {
		o.width = width
		o.height = height
	}
}

// WithMaxFeatures bounds the keypoint budget per image. Defaults to 2000.
func WithMaxFeatures(n int) Option {
	return func(o *options) {
		o.maxFeatures = n
	}
}

// WithMinInliers sets the minimum geometrically verified support
// required to accept a match. Defaults to searcher.DefaultMinInliers.
func WithMinInliers(n int) Option {
	return func(o *options) {
		o.minInliers = n
	}
}

// WithCodec configures the codec used for the cache artifact payload.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithCompression configures the cache artifact compression.
func WithCompression(c cache.Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithExtractor swaps the feature extractor. The same extractor must
// be used at build and search time; descriptors from different
// extractors are not comparable.
func WithExtractor(e vision.Extractor) Option {
	return func(o *options) {
		if e != nil {
			o.extractor = e
		}
	}
}

// WithController bounds extraction concurrency and decode throughput.
func WithController(c *resource.Controller) Option {
	return func(o *options) {
		o.controller = c
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		compression:      cache.DefaultSaveOptions.Compression,
		extractor:        fastbrief.New(),
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
