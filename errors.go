package pixmatch

import (
	"errors"
	"fmt"

	"github.com/pixmatch/pixmatch/blobstore"
	"github.com/pixmatch/pixmatch/cache"
)

var (
	// ErrNotFound is returned when the cache artifact does not exist.
	ErrNotFound = blobstore.ErrNotFound

	// ErrEmptyReferenceSet is returned when a build is attempted with
	// no usable reference images.
	ErrEmptyReferenceSet = cache.ErrEmptyReferenceSet
)

// ErrInvalidArtifact indicates a cache artifact that exists but cannot
// be used: wrong magic, unsupported version, failed checksum or a
// truncated blob.
//
// The original underlying error can be accessed via errors.Unwrap.
type ErrInvalidArtifact struct {
	Name  string
	cause error
}

func (e *ErrInvalidArtifact) Error() string {
	return fmt.Sprintf("invalid cache artifact %q: %v", e.Name, e.cause)
}

func (e *ErrInvalidArtifact) Unwrap() error { return e.cause }

// translateArtifactError unifies format-level load failures under
// ErrInvalidArtifact; other errors pass through unchanged.
func translateArtifactError(name string, err error) error {
	if err == nil {
		return nil
	}

	for _, formatErr := range []error{
		cache.ErrInvalidMagic,
		cache.ErrInvalidVersion,
		cache.ErrUnknownCodec,
		cache.ErrUnknownCompression,
		cache.ErrChecksumMismatch,
		cache.ErrTruncated,
	} {
		if errors.Is(err, formatErr) {
			return &ErrInvalidArtifact{Name: name, cause: err}
		}
	}

	return err
}
