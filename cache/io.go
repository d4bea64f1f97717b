package cache

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/pixmatch/pixmatch/blobstore"
	"github.com/pixmatch/pixmatch/codec"
	"github.com/pixmatch/pixmatch/model"
)

// snapshot is the codec-encoded payload: entries in insertion order.
type snapshot struct {
	Entries []model.Entry
}

// SaveOptions configures artifact encoding.
type SaveOptions struct {
	// Codec encodes the entry payload. Defaults to codec.Default.
	Codec codec.Codec
	// Compression selects the payload compression.
	Compression Compression
}

// DefaultSaveOptions contains the default artifact encoding options.
var DefaultSaveOptions = SaveOptions{
	Codec:       codec.Default,
	Compression: CompressionZSTD,
}

// Save writes the cache as a single self-describing blob. The write is
// atomic (delegated to the blob store) and replaces any prior artifact
// under the same name; a crash mid-build leaves no stale cache.
func Save(ctx context.Context, store blobstore.BlobStore, name string, c *Cache, optFns ...func(o *SaveOptions)) error {
	opts := DefaultSaveOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Codec == nil {
		opts.Codec = codec.Default
	}
	if !opts.Compression.valid() {
		return fmt.Errorf("%w: %d", ErrUnknownCompression, opts.Compression)
	}

	snap := snapshot{Entries: make([]model.Entry, 0, c.Len())}
	for i := 0; i < c.Len(); i++ {
		snap.Entries = append(snap.Entries, *c.At(i))
	}

	raw, err := opts.Codec.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}
	payload, err := compress(raw, opts.Compression)
	if err != nil {
		return fmt.Errorf("compress cache: %w", err)
	}

	header := fileHeader{
		Magic:       MagicNumber,
		Version:     FormatVersion,
		Compression: uint8(opts.Compression),
		EntryCount:  uint32(c.Len()),
		PayloadLen:  uint64(len(payload)),
		Checksum:    crc32.ChecksumIEEE(payload),
	}

	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, header); err != nil {
		return err
	}
	codecName := opts.Codec.Name()
	if err := buf.WriteByte(byte(len(codecName))); err != nil {
		return err
	}
	if _, err := buf.WriteString(codecName); err != nil {
		return err
	}
	if _, err := buf.Write(payload); err != nil {
		return err
	}

	if err := store.Put(ctx, name, buf.Bytes()); err != nil {
		return fmt.Errorf("write cache artifact: %w", err)
	}
	return nil
}

// Load reads a cache artifact written by Save, verifying magic,
// version, codec, checksum and the entry alignment invariant.
func Load(ctx context.Context, store blobstore.BlobStore, name string) (*Cache, error) {
	data, err := blobstore.ReadAll(ctx, store, name)
	if err != nil {
		return nil, fmt.Errorf("read cache artifact: %w", err)
	}
	return Decode(data)
}

// Decode parses a cache artifact from memory.
func Decode(data []byte) (*Cache, error) {
	r := bytes.NewReader(data)

	var header fileHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	if header.Magic != MagicNumber {
		return nil, ErrInvalidMagic
	}
	if header.Version != FormatVersion {
		return nil, fmt.Errorf("%w: %d (expected %d)", ErrInvalidVersion, header.Version, FormatVersion)
	}
	comp := Compression(header.Compression)
	if !comp.valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCompression, header.Compression)
	}

	nameLen, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	codecName := make([]byte, nameLen)
	if _, err := io.ReadFull(r, codecName); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	c, ok := codec.ByName(string(codecName))
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, codecName)
	}

	payload := make([]byte, header.PayloadLen)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	if sum := crc32.ChecksumIEEE(payload); sum != header.Checksum {
		return nil, fmt.Errorf("%w: expected 0x%08x, got 0x%08x", ErrChecksumMismatch, header.Checksum, sum)
	}

	raw, err := decompress(payload, comp)
	if err != nil {
		return nil, fmt.Errorf("decompress cache: %w", err)
	}

	var snap snapshot
	if err := c.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode cache: %w", err)
	}
	if len(snap.Entries) != int(header.EntryCount) {
		return nil, fmt.Errorf("entry count mismatch: header %d, payload %d", header.EntryCount, len(snap.Entries))
	}

	out := New()
	for i := range snap.Entries {
		e := snap.Entries[i]
		if err := out.Add(&e); err != nil {
			return nil, fmt.Errorf("invalid entry: %w", err)
		}
	}
	return out, nil
}
