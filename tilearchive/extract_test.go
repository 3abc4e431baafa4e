package tilearchive

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoordMatchesAcrossZoomLevels(t *testing.T) {
	// box is z2 tile (1,1) i.e. the single-tile box [1,1]-[1,1] at z=2
	assert.True(t, coordMatches(2, 1, 1, 1, 1, 2, 1, 1))
	assert.False(t, coordMatches(2, 1, 1, 1, 1, 2, 0, 0))

	// a z1 ancestor of that box overlaps it
	assert.True(t, coordMatches(2, 1, 1, 1, 1, 1, 0, 0))

	// a z3 descendant of that box overlaps it
	assert.True(t, coordMatches(2, 1, 1, 1, 1, 3, 2, 2))
	assert.False(t, coordMatches(2, 1, 1, 1, 1, 3, 0, 0))
}

func TestExtractBoxCopiesOnlyOverlappingTiles(t *testing.T) {
	srcSink := &MemorySink{}
	w, err := NewWriter(srcSink, false, CompressionNone, CompressionNone, TileTypePbf)
	assert.NoError(t, err)
	for z := uint8(0); z <= 2; z++ {
		for x := uint32(0); x < (uint32(1) << z); x++ {
			for y := uint32(0); y < (uint32(1) << z); y++ {
				assert.NoError(t, w.WriteTile(Face0, z, x, y, []byte("payload")))
			}
		}
	}
	_, err = w.Commit(map[string]bool{})
	assert.NoError(t, err)

	ctx := context.Background()
	src := NewReader(MemoryRangeProvider{Data: srcSink.Bytes()}, DefaultCacheCapacity)
	assert.NoError(t, src.Open(ctx))

	dstSink := &MemorySink{}
	dst, err := NewWriter(dstSink, false, CompressionNone, CompressionNone, TileTypePbf)
	assert.NoError(t, err)

	copied, err := ExtractBox(ctx, src, dst, Face0, 2, 1, 1, 1, 1, false)
	assert.NoError(t, err)
	assert.Equal(t, 3, copied) // the z2 tile itself, its z1 ancestor, and z0 root

	header, err := dst.Commit(map[string]bool{})
	assert.NoError(t, err)
	assert.Equal(t, uint64(3), header.AddressedTilesCount)

	out := NewReader(MemoryRangeProvider{Data: dstSink.Bytes()}, DefaultCacheCapacity)
	data, found, err := out.GetTile(ctx, Face0, 2, 1, 1)
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("payload"), data)

	_, found, err = out.GetTile(ctx, Face0, 2, 0, 0)
	assert.NoError(t, err)
	assert.False(t, found)
}
