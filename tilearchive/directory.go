package tilearchive

// Entry is one record of a directory: either a tile payload pointer
// (RunLength >= 1) or a leaf-directory pointer (RunLength == 0).
type Entry struct {
	TileID    uint64
	Offset    uint64
	Length    uint32
	RunLength uint32
}

// isLeaf reports whether e points at a leaf directory rather than a tile.
func (e Entry) isLeaf() bool {
	return e.RunLength == 0
}

// serializeEntries encodes a sorted entry list into the columnar
// delta+varint layout: count, Δ(tileID), runLength[], length[], offset+1[].
// Callers are responsible for passing the result through the internal
// compression codec.
func serializeEntries(entries []Entry) []byte {
	buf := make([]byte, 0, len(entries)*4)
	buf = appendVarint(buf, uint64(len(entries)))

	var lastID uint64
	for _, e := range entries {
		buf = appendVarint(buf, e.TileID-lastID)
		lastID = e.TileID
	}
	for _, e := range entries {
		buf = appendVarint(buf, uint64(e.RunLength))
	}
	for _, e := range entries {
		buf = appendVarint(buf, uint64(e.Length))
	}
	for i, e := range entries {
		if i > 0 && e.Offset == entries[i-1].Offset+uint64(entries[i-1].Length) {
			buf = appendVarint(buf, 0)
		} else {
			buf = appendVarint(buf, e.Offset+1)
		}
	}
	return buf
}

// deserializeEntries reverses serializeEntries. buf must already have been
// through internal decompression.
func deserializeEntries(buf []byte) ([]Entry, error) {
	count, n, err := readVarint(buf)
	if err != nil {
		return nil, err
	}
	buf = buf[n:]

	entries := make([]Entry, count)

	var lastID uint64
	for i := range entries {
		delta, n, err := readVarint(buf)
		if err != nil {
			return nil, err
		}
		buf = buf[n:]
		lastID += delta
		entries[i].TileID = lastID
	}
	for i := range entries {
		v, n, err := readVarint32(buf)
		if err != nil {
			return nil, err
		}
		buf = buf[n:]
		entries[i].RunLength = v
	}
	for i := range entries {
		v, n, err := readVarint32(buf)
		if err != nil {
			return nil, err
		}
		buf = buf[n:]
		entries[i].Length = v
	}
	for i := range entries {
		v, n, err := readVarint(buf)
		if err != nil {
			return nil, err
		}
		buf = buf[n:]
		if v == 0 && i > 0 {
			entries[i].Offset = entries[i-1].Offset + uint64(entries[i-1].Length)
		} else {
			entries[i].Offset = v - 1
		}
	}
	return entries, nil
}

// findTile binary-searches a directory for tileID. The returned bool is
// false when the ID falls outside any entry's coverage (NotFound, not an
// error). A true result with a leaf entry (RunLength == 0) means the
// caller must recurse into that leaf.
func findTile(entries []Entry, tileID uint64) (Entry, bool) {
	m, n := 0, len(entries)-1
	for m <= n {
		mid := (m + n) / 2
		switch {
		case entries[mid].TileID < tileID:
			m = mid + 1
		case entries[mid].TileID > tileID:
			n = mid - 1
		default:
			return entries[mid], true
		}
	}
	// m > n: no exact match. n is the index of the last entry whose
	// tileID is <= the target, or -1 if none.
	if n < 0 {
		return Entry{}, false
	}
	last := entries[n]
	if last.isLeaf() {
		return last, true
	}
	if tileID-last.TileID < uint64(last.RunLength) {
		return last, true
	}
	return Entry{}, false
}
