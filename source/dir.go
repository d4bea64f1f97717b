package source

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pixmatch/pixmatch/model"
)

// imageExtensions is the directory scan whitelist.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
}

// DirSource reads references and queries from two directories.
// Filenames are sorted lexicographically, so the reference order (and
// with it the tie-break) is stable across runs.
type DirSource struct {
	refDir   string
	queryDir string
	logger   *slog.Logger
	results  []string
}

// DirSourceOptions contains configuration options for DirSource.
type DirSourceOptions struct {
	// Logger receives skip warnings. Defaults to slog.Default().
	Logger *slog.Logger
}

// NewDirSource creates a source over a reference and a query directory.
func NewDirSource(refDir, queryDir string, optFns ...func(o *DirSourceOptions)) *DirSource {
	opts := DirSourceOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &DirSource{refDir: refDir, queryDir: queryDir, logger: opts.Logger}
}

// References implements Source.
func (d *DirSource) References(ctx context.Context) ([]model.Image, error) {
	return d.scan(ctx, d.refDir)
}

// Queries implements Source.
func (d *DirSource) Queries(ctx context.Context) ([]model.Image, error) {
	return d.scan(ctx, d.queryDir)
}

// Report implements Sink. Results are retained for the caller; a
// directory has no natural output channel.
func (d *DirSource) Report(_ context.Context, results []string) error {
	d.results = results
	return nil
}

// Results returns the last reported result list.
func (d *DirSource) Results() []string { return d.results }

// scan lists a directory, keeps validly decodable image files and
// returns them sorted by filename. Invalid files are skipped with a
// warning, never an error.
func (d *DirSource) scan(ctx context.Context, dir string) ([]model.Image, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !imageExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	images := make([]model.Image, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			d.logger.Warn("skipping unreadable file", "path", path, "error", err)
			continue
		}
		// Decode probe: a whitelisted extension on a non-image file is
		// caught here instead of during the build.
		if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
			d.logger.Warn("skipping undecodable file", "path", path, "error", err)
			continue
		}
		images = append(images, model.Image{ID: path, Data: data})
	}
	return images, nil
}
