package tilearchive

import (
	"bytes"
	"compress/gzip"
	"io"

	"github.com/klauspost/compress/zstd"
)

// Compression is the algorithm tag stored in a header and used to select
// a codec out of the registry below.
type Compression uint8

const (
	CompressionUnknown Compression = 0
	CompressionNone    Compression = 1
	CompressionGzip    Compression = 2
	CompressionBrotli  Compression = 3
	CompressionZstd    Compression = 4
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionGzip:
		return "gzip"
	case CompressionBrotli:
		return "brotli"
	case CompressionZstd:
		return "zstd"
	default:
		return "unknown"
	}
}

// TileType is stored in the header and never interpreted by this package.
type TileType uint8

const (
	TileTypeUnknown TileType = 0
	TileTypePbf     TileType = 1
	TileTypePng     TileType = 2
	TileTypeJpeg    TileType = 3
	TileTypeWebp    TileType = 4
	TileTypeAvif    TileType = 5
)

type codec struct {
	compress   func([]byte) ([]byte, error)
	decompress func([]byte) ([]byte, error)
}

// codecs is the compression registry keyed by tag. Brotli has no entry:
// nothing in this repository's dependency surface ships a Brotli codec
// (see DESIGN.md), so CompressionBrotli always surfaces
// ErrUnsupportedCompression, exactly like an unregistered tag would.
var codecs = map[Compression]codec{
	CompressionNone: {
		compress:   func(b []byte) ([]byte, error) { return b, nil },
		decompress: func(b []byte) ([]byte, error) { return b, nil },
	},
	CompressionGzip: {
		compress:   gzipCompress,
		decompress: gzipDecompress,
	},
	CompressionZstd: {
		compress:   zstdCompress,
		decompress: zstdDecompress,
	},
}

func compressBytes(b []byte, tag Compression) ([]byte, error) {
	c, ok := codecs[tag]
	if !ok {
		return nil, ErrUnsupportedCompression
	}
	return c.compress(b)
}

func decompressBytes(b []byte, tag Compression) ([]byte, error) {
	c, ok := codecs[tag]
	if !ok {
		return nil, ErrUnsupportedCompression
	}
	return c.decompress(b)
}

func gzipCompress(b []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(b); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func gzipDecompress(b []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func zstdCompress(b []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(b, nil), nil
}

func zstdDecompress(b []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return dec.DecodeAll(b, nil)
}
