package source

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, dir, name string) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 8, 8))))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), buf.Bytes(), 0o644))
}

func TestDirSource_Scan(t *testing.T) {
	refDir := t.TempDir()
	queryDir := t.TempDir()

	writePNG(t, refDir, "b.png")
	writePNG(t, refDir, "a.png")
	// Whitelisted extension but not an image.
	require.NoError(t, os.WriteFile(filepath.Join(refDir, "fake.png"), []byte("not an image"), 0o644))
	// Not whitelisted.
	require.NoError(t, os.WriteFile(filepath.Join(refDir, "notes.txt"), []byte("hello"), 0o644))

	writePNG(t, queryDir, "q.png")

	src := NewDirSource(refDir, queryDir)

	refs, err := src.References(context.Background())
	require.NoError(t, err)
	require.Len(t, refs, 2)
	// Sorted by filename, so ordering is stable across runs.
	assert.Equal(t, filepath.Join(refDir, "a.png"), refs[0].ID)
	assert.Equal(t, filepath.Join(refDir, "b.png"), refs[1].ID)

	queries, err := src.Queries(context.Background())
	require.NoError(t, err)
	require.Len(t, queries, 1)
	assert.NotEmpty(t, queries[0].Data)
}

func TestDirSource_MissingDir(t *testing.T) {
	src := NewDirSource("/does/not/exist", "/neither/does/this")
	_, err := src.References(context.Background())
	assert.Error(t, err)
}

func TestDirSource_Report(t *testing.T) {
	src := NewDirSource(t.TempDir(), t.TempDir())
	require.NoError(t, src.Report(context.Background(), []string{"a", "b"}))
	assert.Equal(t, []string{"a", "b"}, src.Results())
}
