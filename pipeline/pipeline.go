// Package pipeline runs the full matching exchange in three stages:
// build the descriptor cache from the reference set, match every query
// against it in order, and report the resulting identifier list back
// to the sink.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pixmatch/pixmatch"
	"github.com/pixmatch/pixmatch/blobstore"
	"github.com/pixmatch/pixmatch/source"
)

// DefaultArtifactName is the blob name the pipeline stores the
// descriptor cache under.
const DefaultArtifactName = "descriptor-cache.bin"

// Options contains configuration options for a pipeline run.
type Options struct {
	// KeepUnmatched controls whether a query with no accepted match
	// survives into the result list under its own identifier. A source
	// implementing PolicyProvider overrides this per run.
	KeepUnmatched bool

	// Store holds the cache artifact between the build and match
	// stages. Defaults to an in-memory store (artifact discarded after
	// the run).
	Store blobstore.BlobStore

	// ArtifactName is the cache blob name. Defaults to
	// DefaultArtifactName.
	ArtifactName string

	// Logger receives per-stage events. Defaults to slog.Default().
	Logger *slog.Logger

	// Engine is passed through to pixmatch.Build and pixmatch.Open
	// (canonical size, thresholds, extractor, metrics).
	Engine []pixmatch.Option
}

// Pipeline wires a source and a sink to the matching engine.
type Pipeline struct {
	src  source.Source
	sink source.Sink
	opts Options
}

// New creates a Pipeline. Source and sink are frequently the same
// object (DirSource, RedisSource).
func New(src source.Source, sink source.Sink, optFns ...func(o *Options)) *Pipeline {
	opts := Options{ArtifactName: DefaultArtifactName}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Store == nil {
		opts.Store = blobstore.NewMemoryStore()
	}
	if opts.ArtifactName == "" {
		opts.ArtifactName = DefaultArtifactName
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Pipeline{src: src, sink: sink, opts: opts}
}

// Run executes the three stages and returns the reported result list.
//
// An empty reference set fails the run before any query is touched.
// A query that errors (undecodable bytes, dead link) is treated as
// unmatched, not fatal.
func (p *Pipeline) Run(ctx context.Context) ([]string, error) {
	refs, err := p.src.References(ctx)
	if err != nil {
		return nil, fmt.Errorf("load references: %w", err)
	}

	if err := pixmatch.Build(ctx, p.opts.Store, p.opts.ArtifactName, refs, p.opts.Engine...); err != nil {
		return nil, fmt.Errorf("build cache: %w", err)
	}

	eng, err := pixmatch.Open(ctx, p.opts.Store, p.opts.ArtifactName, p.opts.Engine...)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}

	keep := p.keepUnmatched(ctx)

	queries, err := p.src.Queries(ctx)
	if err != nil {
		return nil, fmt.Errorf("load queries: %w", err)
	}

	results := make([]string, 0, len(queries))
	matched := 0
	for _, q := range queries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		m, found, err := eng.FindMatch(ctx, q.Data)
		if err != nil {
			p.opts.Logger.Warn("query failed, treating as unmatched",
				"query", q.ID,
				"error", err,
			)
			found = false
		}

		switch {
		case found:
			results = append(results, m.Ref)
			matched++
		case keep:
			results = append(results, q.ID)
		}
	}

	if err := p.sink.Report(ctx, results); err != nil {
		return nil, fmt.Errorf("report results: %w", err)
	}

	p.opts.Logger.Info("pipeline run completed",
		"references", len(refs),
		"queries", len(queries),
		"matched", matched,
		"reported", len(results),
	)
	return results, nil
}

// keepUnmatched resolves the effective policy: the source override
// wins when present, otherwise the configured default applies.
func (p *Pipeline) keepUnmatched(ctx context.Context) bool {
	pp, ok := p.src.(source.PolicyProvider)
	if !ok {
		return p.opts.KeepUnmatched
	}
	value, present, err := pp.KeepUnmatched(ctx)
	if err != nil {
		p.opts.Logger.Warn("keep-unmatched override unreadable, using default",
			"default", p.opts.KeepUnmatched,
			"error", err,
		)
		return p.opts.KeepUnmatched
	}
	if !present {
		return p.opts.KeepUnmatched
	}
	return value
}
