// Package cache builds and persists the descriptor cache: one entry of
// keypoints and descriptors per reference image, keyed by image
// identifier.
//
// The cache is built once per run, written as a single atomic blob,
// and read-only afterward. Entry order is build-time insertion order;
// the searcher's tie-break depends on it, so the order survives
// serialization.
package cache

import (
	"errors"
	"fmt"

	"github.com/pixmatch/pixmatch/model"
)

var (
	// ErrEmptyReferenceSet is returned when a build is attempted with
	// no input images. No cache is written in that case.
	ErrEmptyReferenceSet = errors.New("empty reference image set")

	// ErrDuplicateID is returned when two entries share an identifier.
	ErrDuplicateID = errors.New("duplicate entry id")
)

// Cache is the descriptor cache: an insertion-ordered mapping from
// image identifier to feature entry. Read-only after build.
type Cache struct {
	ids     []string
	entries map[string]*model.Entry
}

// New creates an empty Cache.
func New() *Cache {
	return &Cache{
		entries: make(map[string]*model.Entry),
	}
}

// Add appends an entry, preserving insertion order.
//
// Entries with no descriptors are rejected: images yielding zero
// descriptors are excluded at build time, never stored as empty rows.
func (c *Cache) Add(e *model.Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if len(e.Descriptors) == 0 {
		return fmt.Errorf("entry %q has no descriptors", e.ID)
	}
	if _, ok := c.entries[e.ID]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateID, e.ID)
	}
	c.ids = append(c.ids, e.ID)
	c.entries[e.ID] = e
	return nil
}

// Len returns the number of entries.
func (c *Cache) Len() int { return len(c.ids) }

// IDs returns the entry identifiers in insertion order.
// The returned slice must not be mutated.
func (c *Cache) IDs() []string { return c.ids }

// Get returns the entry for an identifier.
func (c *Cache) Get(id string) (*model.Entry, bool) {
	e, ok := c.entries[id]
	return e, ok
}

// At returns the entry at insertion-order position i.
func (c *Cache) At(i int) *model.Entry {
	return c.entries[c.ids[i]]
}
