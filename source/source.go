// Package source supplies the matching pipeline with ordered image
// sets and receives its results.
//
// Two implementations exist: a directory source for local batch runs
// and a Redis source mirroring the chat-bot exchange format (reference
// list under one key, queries inside a CSV blob under another).
package source

import (
	"context"
	"os"

	"github.com/pixmatch/pixmatch/model"
)

// Source provides the pipeline's inputs. Order is meaningful: the
// reference order fixes the tie-break at build time and the query
// order fixes the output order.
type Source interface {
	// References returns the reference image set, in order.
	References(ctx context.Context) ([]model.Image, error)

	// Queries returns the query image set, in order.
	Queries(ctx context.Context) ([]model.Image, error)
}

// Sink receives the pipeline's output: one identifier per surviving
// query, in query order (the matched reference ID, or the query's own
// ID when unmatched queries are kept).
type Sink interface {
	Report(ctx context.Context, results []string) error
}

// PolicyProvider optionally overrides the keep-unmatched policy.
// Sources that do not carry a policy return ok=false.
type PolicyProvider interface {
	KeepUnmatched(ctx context.Context) (value, ok bool, err error)
}

// Fetcher resolves an image identifier to raw bytes. The default reads
// the identifier as a filesystem path.
type Fetcher func(ctx context.Context, id string) ([]byte, error)

// FileFetcher reads image bytes from the local filesystem.
func FileFetcher(_ context.Context, id string) ([]byte, error) {
	return os.ReadFile(id)
}
