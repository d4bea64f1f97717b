package cache

import "errors"

const (
	// MagicNumber identifies pixmatch descriptor cache files
	// (ASCII: "PXDC").
	MagicNumber = 0x50584443

	// FormatVersion is the current artifact format version. The source
	// of this design carried no version tag at all; one is included
	// here so a future descriptor-type change is detectable at load
	// time instead of producing garbage matches.
	FormatVersion = 1
)

// Compression identifies the payload compression algorithm.
type Compression uint8

const (
	// CompressionNone stores the payload uncompressed.
	CompressionNone Compression = 0
	// CompressionLZ4 is fast with a modest ratio.
	CompressionLZ4 Compression = 1
	// CompressionZSTD trades speed for a better ratio.
	CompressionZSTD Compression = 2
)

func (c Compression) valid() bool {
	return c == CompressionNone || c == CompressionLZ4 || c == CompressionZSTD
}

var (
	// ErrInvalidMagic means the blob is not a descriptor cache.
	ErrInvalidMagic = errors.New("invalid magic number")
	// ErrInvalidVersion means the format version is unsupported.
	ErrInvalidVersion = errors.New("unsupported format version")
	// ErrUnknownCodec means the header names a codec this build lacks.
	ErrUnknownCodec = errors.New("unknown codec")
	// ErrUnknownCompression means the compression tag is unrecognized.
	ErrUnknownCompression = errors.New("unknown compression")
	// ErrChecksumMismatch means the payload is corrupt.
	ErrChecksumMismatch = errors.New("checksum mismatch")
	// ErrTruncated means the blob ends before the payload does.
	ErrTruncated = errors.New("truncated artifact")
)

// fileHeader is the fixed-layout header at the start of every cache
// artifact. The codec name follows as a length-prefixed string, then
// the (possibly compressed) payload.
type fileHeader struct {
	Magic       uint32
	Version     uint32
	Compression uint8
	_           [3]byte
	EntryCount  uint32
	PayloadLen  uint64
	Checksum    uint32 // CRC32 (IEEE) of the stored payload bytes
}
