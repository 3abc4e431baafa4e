package tilearchive

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func mustID(t *testing.T, z uint8, x, y uint32) uint64 {
	t.Helper()
	id, err := ZxyToID(z, x, y)
	assert.NoError(t, err)
	return id
}

func TestZxyToID(t *testing.T) {
	assert.Equal(t, uint64(0), mustID(t, 0, 0, 0))
	assert.Equal(t, uint64(1), mustID(t, 1, 0, 0))
	assert.Equal(t, uint64(2), mustID(t, 1, 0, 1))
	assert.Equal(t, uint64(3), mustID(t, 1, 1, 1))
	assert.Equal(t, uint64(4), mustID(t, 1, 1, 0))
	assert.Equal(t, uint64(5), mustID(t, 2, 0, 0))
	assert.Equal(t, uint64(6), mustID(t, 2, 1, 0))
	assert.Equal(t, uint64(7), mustID(t, 2, 1, 1))
	assert.Equal(t, uint64(8), mustID(t, 2, 0, 1))
}

func TestZoomAccum(t *testing.T) {
	assert.Equal(t, uint64(0), zoomAccum(0))
	assert.Equal(t, uint64(1), zoomAccum(1))
	assert.Equal(t, uint64(5), zoomAccum(2))
	assert.Equal(t, uint64(21), zoomAccum(3))
}

func TestIDToZxy(t *testing.T) {
	z, x, y := IDToZxy(0)
	assert.Equal(t, uint8(0), z)
	assert.Equal(t, uint32(0), x)
	assert.Equal(t, uint32(0), y)

	z, x, y = IDToZxy(1)
	assert.Equal(t, uint8(1), z)
	assert.Equal(t, uint32(0), x)
	assert.Equal(t, uint32(0), y)
}

func TestManyTileIDsRoundTrip(t *testing.T) {
	for z := uint8(0); z < 10; z++ {
		for x := uint32(0); x < (uint32(1) << z); x++ {
			for y := uint32(0); y < (uint32(1) << z); y++ {
				id := mustID(t, z, x, y)
				rz, rx, ry := IDToZxy(id)
				assert.Equal(t, z, rz)
				assert.Equal(t, x, rx)
				assert.Equal(t, y, ry)
			}
		}
	}
}

func TestZxyToIDRejectsOutOfRangeCoordinates(t *testing.T) {
	_, err := ZxyToID(1, 2, 0)
	assert.ErrorIs(t, err, ErrInvalidCoordinate)

	_, err = ZxyToID(MaxZoom+1, 0, 0)
	assert.ErrorIs(t, err, ErrInvalidCoordinate)
}

func TestParentID(t *testing.T) {
	id := mustID(t, 3, 2, 2)
	parent := ParentID(id)
	pz, px, py := IDToZxy(parent)
	assert.Equal(t, uint8(2), pz)
	assert.Equal(t, uint32(1), px)
	assert.Equal(t, uint32(1), py)
}
