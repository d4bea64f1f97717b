package pixmatch

import (
	"context"
	"time"

	"github.com/pixmatch/pixmatch/blobstore"
	"github.com/pixmatch/pixmatch/cache"
	"github.com/pixmatch/pixmatch/model"
	"github.com/pixmatch/pixmatch/searcher"
)

// Build extracts features from the reference images and writes the
// descriptor cache artifact to the store, replacing any prior artifact
// under the same name.
//
// Undecodable or featureless reference images are skipped with a
// warning; an entirely empty (or entirely skipped) reference set is an
// error and nothing is written.
func Build(ctx context.Context, store blobstore.BlobStore, name string, images []model.Image, optFns ...Option) error {
	o := applyOptions(optFns)
	start := time.Now()

	b := cache.NewBuilder(o.extractor, func(bo *cache.BuilderOptions) {
		bo.Width = o.width
		bo.Height = o.height
		bo.MaxFeatures = o.maxFeatures
		bo.Logger = o.logger.Logger
		bo.Controller = o.controller
	})

	c, err := b.Build(ctx, images)
	if err == nil && c.Len() == 0 {
		err = ErrEmptyReferenceSet
	}
	if err != nil {
		o.metricsCollector.RecordBuild(0, len(images), time.Since(start), err)
		o.logger.LogBuild(ctx, 0, len(images), err)
		return err
	}

	err = cache.Save(ctx, store, name, c, func(so *cache.SaveOptions) {
		if o.codec != nil {
			so.Codec = o.codec
		}
		so.Compression = o.compression
	})
	skipped := len(images) - c.Len()
	o.metricsCollector.RecordBuild(c.Len(), skipped, time.Since(start), err)
	o.logger.LogBuild(ctx, c.Len(), skipped, err)
	o.logger.LogArtifact(ctx, "save", name, err)
	return err
}

// Engine matches query images against one loaded cache artifact.
// Read-only and safe for concurrent use.
type Engine struct {
	searcher *searcher.Searcher
	opts     options
}

// Open loads the cache artifact and returns an Engine ready to answer
// queries. A missing or corrupt artifact fails here, not at query time.
func Open(ctx context.Context, store blobstore.BlobStore, name string, optFns ...Option) (*Engine, error) {
	o := applyOptions(optFns)

	s, err := searcher.Open(ctx, store, name, o.extractor, func(so *searcher.Options) {
		so.Width = o.width
		so.Height = o.height
		so.MaxFeatures = o.maxFeatures
		so.MinInliers = o.minInliers
		so.Logger = o.logger.Logger
		so.Controller = o.controller
	})
	if err != nil {
		err = translateArtifactError(name, err)
		o.logger.LogArtifact(ctx, "load", name, err)
		return nil, err
	}
	o.logger.LogArtifact(ctx, "load", name, nil)

	return &Engine{searcher: s, opts: o}, nil
}

// FindMatch matches the query image bytes against every cached
// reference and returns the winner, if any.
func (e *Engine) FindMatch(ctx context.Context, data []byte) (model.Match, bool, error) {
	start := time.Now()
	m, found, err := e.searcher.FindMatch(ctx, data)
	e.opts.metricsCollector.RecordSearch(found, time.Since(start), err)
	e.opts.logger.LogMatch(ctx, m, found, err)
	return m, found, err
}

// Cache returns the loaded descriptor cache.
func (e *Engine) Cache() *cache.Cache { return e.searcher.Cache() }

// MinInliers returns the acceptance threshold in effect.
func (e *Engine) MinInliers() int { return e.searcher.MinInliers() }
