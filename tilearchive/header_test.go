package tilearchive

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func samplePlanarHeader() Header {
	return Header{
		RootOffset:          127,
		RootLength:          30,
		MetadataOffset:      157,
		MetadataLength:      5,
		LeafDirectoryOffset: 0,
		LeafDirectoryLength: 0,
		TileDataOffset:      PreludeSize,
		TileDataLength:      1000,
		AddressedTilesCount: 1,
		TileEntriesCount:    1,
		TileContentsCount:   1,
		Clustered:           true,
		InternalCompression: CompressionGzip,
		TileCompression:     CompressionGzip,
		TileType:            TileTypePbf,
		MinZoom:             3,
		MaxZoom:             3,
	}
}

func TestHeaderRoundTripPlanar(t *testing.T) {
	h := samplePlanarHeader()
	buf := serializeHeader(h)
	assert.Len(t, buf, HeaderSizePlanar)
	assert.Equal(t, "PM", string(buf[0:2]))
	assert.Equal(t, byte(3), buf[7])

	got, err := deserializeHeader(buf)
	assert.NoError(t, err)
	assert.Equal(t, h, got)
}

func TestHeaderRoundTripCubic(t *testing.T) {
	h := samplePlanarHeader()
	h.Cubic = true
	for i := range h.Faces {
		h.Faces[i] = facePointer{
			RootOffset: uint64(1000 + i*10),
			RootLength: uint64(20 + i),
			LeafOffset: uint64(2000 + i*10),
			LeafLength: uint64(40 + i),
		}
	}
	buf := serializeHeader(h)
	assert.Len(t, buf, HeaderSizeCubic)
	assert.Equal(t, "S2", string(buf[0:2]))
	assert.Equal(t, byte(1), buf[7])

	got, err := deserializeHeader(buf)
	assert.NoError(t, err)
	assert.Equal(t, h, got)
}

func TestHeaderRejectsBadMagic(t *testing.T) {
	buf := serializeHeader(samplePlanarHeader())
	buf[0] = 'X'
	_, err := deserializeHeader(buf)
	assert.ErrorIs(t, err, ErrMalformedHeader)
}

func TestHeaderRejectsUnknownSpecVersion(t *testing.T) {
	buf := serializeHeader(samplePlanarHeader())
	buf[7] = specVersionPlanar + 1
	_, err := deserializeHeader(buf)
	assert.ErrorIs(t, err, ErrMalformedHeader)

	h := samplePlanarHeader()
	h.Cubic = true
	for i := range h.Faces {
		h.Faces[i] = facePointer{RootOffset: 1, RootLength: 1, LeafOffset: 1, LeafLength: 1}
	}
	cubicBuf := serializeHeader(h)
	cubicBuf[7] = specVersionCubic + 1
	_, err = deserializeHeader(cubicBuf)
	assert.ErrorIs(t, err, ErrMalformedHeader)
}

func TestHeaderFacePointers(t *testing.T) {
	var h Header
	h.Cubic = true
	h.setRootPointer(Face3, 500, 60)
	h.setLeafPointer(Face3, 900, 12)

	off, length := h.rootPointer(Face3)
	assert.Equal(t, uint64(500), off)
	assert.Equal(t, uint64(60), length)

	off, length = h.leafPointer(Face3)
	assert.Equal(t, uint64(900), off)
	assert.Equal(t, uint64(12), length)

	h.setRootPointer(Face0, 127, 30)
	off, length = h.rootPointer(Face0)
	assert.Equal(t, uint64(127), off)
	assert.Equal(t, uint64(30), length)
}
