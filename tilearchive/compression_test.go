package tilearchive

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompressionRoundTrip(t *testing.T) {
	payload := []byte("the quick brown fox jumps over the lazy dog, repeatedly, for compressibility")
	for _, tag := range []Compression{CompressionNone, CompressionGzip, CompressionZstd} {
		compressed, err := compressBytes(payload, tag)
		assert.NoError(t, err)
		decompressed, err := decompressBytes(compressed, tag)
		assert.NoError(t, err)
		assert.Equal(t, payload, decompressed)
	}
}

func TestCompressionUnsupported(t *testing.T) {
	_, err := compressBytes([]byte("x"), CompressionBrotli)
	assert.ErrorIs(t, err, ErrUnsupportedCompression)

	_, err = decompressBytes([]byte("x"), CompressionUnknown)
	assert.ErrorIs(t, err, ErrUnsupportedCompression)
}

func TestCompressionString(t *testing.T) {
	assert.Equal(t, "gzip", CompressionGzip.String())
	assert.Equal(t, "zstd", CompressionZstd.String())
	assert.Equal(t, "unknown", CompressionUnknown.String())
}
