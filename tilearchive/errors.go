package tilearchive

import "errors"

// Sentinel errors returned by this package. Callers should compare with
// errors.Is, since I/O failures from a RangeProvider or Sink are wrapped
// around these with additional context.
var (
	// ErrInvalidCoordinate is returned when a (face, z, x, y) tuple is out
	// of range: z > 26, or x or y >= 2^z.
	ErrInvalidCoordinate = errors.New("tilearchive: invalid tile coordinate")

	// ErrVarintOverflow is returned when a varint would require more than
	// 10 bytes to decode, or a 32-bit varint decode would overflow.
	ErrVarintOverflow = errors.New("tilearchive: varint overflow")

	// ErrEmptyDirectory is returned when a leaf (non-root) directory
	// decodes to zero entries. Root directories may be empty.
	ErrEmptyDirectory = errors.New("tilearchive: empty directory")

	// ErrDepthExceeded is returned when a reader's directory walk exceeds
	// the maximum allowed depth without reaching a tile entry.
	ErrDepthExceeded = errors.New("tilearchive: directory depth exceeded")

	// ErrUnsupportedCompression is returned when a compression tag has no
	// registered codec.
	ErrUnsupportedCompression = errors.New("tilearchive: unsupported compression")

	// ErrMalformedHeader is returned when a header's magic number or
	// spec version does not match what this package expects.
	ErrMalformedHeader = errors.New("tilearchive: malformed header")
)
