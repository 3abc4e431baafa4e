package tilearchive

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVarintRoundTrip(t *testing.T) {
	values := []uint64{0, 1, 127, 128, 300, 16384, 0x0FFFFFFF, 0xFFFFFFFF, 1 << 40, ^uint64(0)}
	for _, v := range values {
		buf := appendVarint(nil, v)
		assert.LessOrEqual(t, len(buf), maxVarintBytes)
		got, n, err := readVarint(buf)
		assert.NoError(t, err)
		assert.Equal(t, len(buf), n)
		assert.Equal(t, v, got)
	}
}

func TestVarintKnownEncoding(t *testing.T) {
	assert.Equal(t, []byte{0x00}, appendVarint(nil, 0))
	assert.Equal(t, []byte{0x01}, appendVarint(nil, 1))
	assert.Equal(t, []byte{0x7f}, appendVarint(nil, 127))
	assert.Equal(t, []byte{0x80, 0x01}, appendVarint(nil, 128))
	assert.Equal(t, []byte{0xac, 0x02}, appendVarint(nil, 300))
}

func TestVarintOverflow(t *testing.T) {
	// 11 continuation bytes in a row never terminate.
	buf := make([]byte, 11)
	for i := range buf {
		buf[i] = 0x80
	}
	_, _, err := readVarint(buf)
	assert.ErrorIs(t, err, ErrVarintOverflow)
}

func TestVarint32RejectsOversizedValue(t *testing.T) {
	buf := appendVarint(nil, uint64(1)<<40)
	_, _, err := readVarint32(buf)
	assert.ErrorIs(t, err, ErrVarintOverflow)
}

func TestVarintStreamEncoding(t *testing.T) {
	values := []uint64{0, 1, 127, 128, 16383, 16384, 839483929049384}
	want := []byte{0, 1, 127, 128, 1, 255, 127, 128, 128, 1, 168, 242, 138, 171, 153, 240, 190, 1}

	var buf []byte
	for _, v := range values {
		buf = appendVarint(buf, v)
	}
	assert.Equal(t, want, buf)

	var got []uint64
	for len(buf) > 0 {
		v, n, err := readVarint(buf)
		assert.NoError(t, err)
		got = append(got, v)
		buf = buf[n:]
	}
	assert.Equal(t, values, got)
}
