package tilearchive

// LEB128-style variable-length integer codec used by the directory codec.
// readVarint reports both a value longer than maxVarintBytes and a buffer
// that ends before the terminating byte as ErrVarintOverflow, so callers
// see one sentinel error for any malformed varint.

const maxVarintBytes = 10

func appendVarint(buf []byte, v uint64) []byte {
	for v >= 0x80 {
		buf = append(buf, byte(v)|0x80)
		v >>= 7
	}
	return append(buf, byte(v))
}

// readVarint decodes a varint from the front of buf, returning the value,
// the number of bytes consumed, and an error. It returns ErrVarintOverflow
// if more than maxVarintBytes groups are present before the terminating
// byte, or if buf ends before a terminating byte.
func readVarint(buf []byte) (uint64, int, error) {
	var v uint64
	var shift uint
	for i := 0; i < len(buf); i++ {
		if i >= maxVarintBytes {
			return 0, 0, ErrVarintOverflow
		}
		b := buf[i]
		v |= uint64(b&0x7f) << shift
		if b < 0x80 {
			return v, i + 1, nil
		}
		shift += 7
	}
	return 0, 0, ErrVarintOverflow
}

// readVarint32 is the 32-bit fast path used when a value is statically
// known to fit (run lengths, lengths): it decodes exactly as readVarint
// but rejects a value that would not fit in a uint32.
func readVarint32(buf []byte) (uint32, int, error) {
	v, n, err := readVarint(buf)
	if err != nil {
		return 0, 0, err
	}
	if v > 0xffffffff {
		return 0, 0, ErrVarintOverflow
	}
	return uint32(v), n, nil
}
