package tilearchive

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDirectoryRoundTrip(t *testing.T) {
	entries := []Entry{
		{TileID: 0, Offset: 0, Length: 100, RunLength: 1},
		{TileID: 1, Offset: 100, Length: 200, RunLength: 1},
		{TileID: 5, Offset: 300, Length: 50, RunLength: 3},
		{TileID: 20, Offset: 9000, Length: 10, RunLength: 0},
	}
	buf := serializeEntries(entries)
	got, err := deserializeEntries(buf)
	assert.NoError(t, err)
	assert.Equal(t, entries, got)
}

func TestDirectoryAdjacentOffsetSentinel(t *testing.T) {
	// entries[1].Offset is exactly where entries[0] ends, so the encoder
	// should emit the 0 sentinel rather than offset+1.
	entries := []Entry{
		{TileID: 0, Offset: 0, Length: 10, RunLength: 1},
		{TileID: 1, Offset: 10, Length: 20, RunLength: 1},
	}
	got, err := deserializeEntries(serializeEntries(entries))
	assert.NoError(t, err)
	assert.Equal(t, entries, got)
}

func TestFindTileExactAndRunHit(t *testing.T) {
	entries := []Entry{
		{TileID: 0, Offset: 0, Length: 10, RunLength: 1},
		{TileID: 5, Offset: 10, Length: 10, RunLength: 3}, // covers 5,6,7
		{TileID: 20, Offset: 20, Length: 10, RunLength: 1},
	}
	e, ok := findTile(entries, 0)
	assert.True(t, ok)
	assert.Equal(t, uint64(0), e.TileID)

	e, ok = findTile(entries, 6)
	assert.True(t, ok)
	assert.Equal(t, uint64(5), e.TileID)

	_, ok = findTile(entries, 8)
	assert.False(t, ok)

	_, ok = findTile(entries, 1000)
	assert.False(t, ok)
}

func TestFindTileLeafFallthrough(t *testing.T) {
	entries := []Entry{
		{TileID: 0, Offset: 0, Length: 10, RunLength: 0}, // leaf pointer
		{TileID: 100, Offset: 10, Length: 10, RunLength: 1},
	}
	e, ok := findTile(entries, 42)
	assert.True(t, ok)
	assert.True(t, e.isLeaf())
	assert.Equal(t, uint64(0), e.TileID)
}
