package tilearchive

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDirectoryCacheBasic(t *testing.T) {
	c := newDirectoryCache(2)
	c.set(1, []Entry{{TileID: 1}})
	c.set(2, []Entry{{TileID: 2}})

	entries, ok := c.get(1)
	assert.True(t, ok)
	assert.Equal(t, uint64(1), entries[0].TileID)

	_, ok = c.get(99)
	assert.False(t, ok)
	assert.Equal(t, 2, c.len())
}

func TestDirectoryCacheEvictsLRU(t *testing.T) {
	c := newDirectoryCache(2)
	c.set(1, []Entry{{TileID: 1}})
	c.set(2, []Entry{{TileID: 2}})
	// touch 1 so 2 becomes the least recently used
	c.get(1)
	c.set(3, []Entry{{TileID: 3}})

	_, ok := c.get(2)
	assert.False(t, ok, "entry 2 should have been evicted as LRU")

	_, ok = c.get(1)
	assert.True(t, ok)
	_, ok = c.get(3)
	assert.True(t, ok)
	assert.Equal(t, 2, c.len())
}

func TestDirectoryCacheDelete(t *testing.T) {
	c := newDirectoryCache(4)
	c.set(1, []Entry{{TileID: 1}})
	c.delete(1)
	_, ok := c.get(1)
	assert.False(t, ok)
	assert.Equal(t, 0, c.len())
}

func TestDirectoryCacheDefaultCapacity(t *testing.T) {
	c := newDirectoryCache(0)
	assert.Equal(t, DefaultCacheCapacity, c.capacity)
}
