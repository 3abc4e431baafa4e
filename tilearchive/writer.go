package tilearchive

import (
	"fmt"
	"sort"

	"github.com/cespare/xxhash/v2"
)

type offsetLen struct {
	Offset uint64
	Length uint32
}

type faceState struct {
	entries          []Entry
	minZoom, maxZoom uint8
	haveZoom         bool
}

// Writer implements C10: accept tiles, deduplicate by content hash,
// detect clustering, and at Commit plan and emit the directory tree,
// patching the header and roots into the reserved prelude.
//
// Exactly one Writer may be active against a given Sink at a time; see
// the concurrency notes in SPEC_FULL.md.
type Writer struct {
	sink   Sink
	cubic  bool

	internalCompression Compression
	tileCompression     Compression
	tileType            TileType

	offset  uint64 // next write position in the tile data region
	faces   [6]*faceState
	dedup   map[uint64]offsetLen

	committed bool
}

// NewWriter constructs a Writer over sink, reserving the 98304-byte
// prelude by zero-filling it synchronously. cubic selects whether writes
// are expected across all six faces or only Face0.
func NewWriter(sink Sink, cubic bool, internalCompression, tileCompression Compression, tileType TileType) (*Writer, error) {
	if err := sink.AppendSync(make([]byte, PreludeSize)); err != nil {
		return nil, fmt.Errorf("tilearchive: reserve prelude: %w", err)
	}
	w := &Writer{
		sink:                sink,
		cubic:               cubic,
		internalCompression: internalCompression,
		tileCompression:     tileCompression,
		tileType:            tileType,
		dedup:               make(map[uint64]offsetLen),
	}
	for i := range w.faces {
		w.faces[i] = &faceState{}
	}
	return w, nil
}

// WriteTile accepts one tile payload for (face, z, x, y). Must be called
// with payload already in its final, uncompressed form; WriteTile applies
// tileCompression itself. Tiles may arrive in any tileID order; out-of-
// order arrival only costs the clustered optimization hint, not
// correctness.
func (w *Writer) WriteTile(face Face, z uint8, x, y uint32, payload []byte) error {
	if w.committed {
		return fmt.Errorf("tilearchive: write after commit")
	}
	if !w.cubic && face != Face0 {
		return fmt.Errorf("tilearchive: face %d invalid for a planar writer", face)
	}
	if !face.valid() {
		return ErrInvalidCoordinate
	}
	tileID, err := ZxyToID(z, x, y)
	if err != nil {
		return err
	}

	compressed, err := compressBytes(payload, w.tileCompression)
	if err != nil {
		return err
	}

	hash := xxhash.Sum64(compressed)
	fs := w.faces[face]

	if hit, ok := w.dedup[hash]; ok {
		last := len(fs.entries) - 1
		if last >= 0 && fs.entries[last].TileID+uint64(fs.entries[last].RunLength) == tileID && fs.entries[last].Offset == hit.Offset {
			fs.entries[last].RunLength++
		} else {
			fs.entries = append(fs.entries, Entry{TileID: tileID, Offset: hit.Offset, Length: hit.Length, RunLength: 1})
		}
	} else {
		if err := w.sink.Append(compressed); err != nil {
			return err
		}
		hit = offsetLen{Offset: w.offset, Length: uint32(len(compressed))}
		w.dedup[hash] = hit
		fs.entries = append(fs.entries, Entry{TileID: tileID, Offset: hit.Offset, Length: hit.Length, RunLength: 1})
		w.offset += uint64(len(compressed))
	}

	if !fs.haveZoom {
		fs.minZoom, fs.maxZoom = z, z
		fs.haveZoom = true
	} else {
		if z < fs.minZoom {
			fs.minZoom = z
		}
		if z > fs.maxZoom {
			fs.maxZoom = z
		}
	}

	return nil
}

const initialLeafSize = 4096

// optimizeFaceDirectory finds a directory partition for entries (already
// sorted) whose serialized+compressed root fits within targetRootLen,
// growing the leaf chunk size by doubling per the committing algorithm in
// §4.7 (the source's 1.2x/3500-heuristic growth is not used here; the
// spec calls for a plain doubling from 4096).
func optimizeFaceDirectory(entries []Entry, targetRootLen int, compression Compression) (rootBytes, leavesBytes []byte, numLeaves int, err error) {
	// An empty entry list (a cubic face with no tiles) still gets a root:
	// a serialized zero-count directory.
	single, err := compressBytes(serializeEntries(entries), compression)
	if err != nil {
		return nil, nil, 0, err
	}
	if len(single) <= targetRootLen {
		return single, nil, 0, nil
	}

	leafSize := initialLeafSize
	for {
		rootBytes, leavesBytes, numLeaves, err = buildRootsAndLeaves(entries, leafSize, compression)
		if err != nil {
			return nil, nil, 0, err
		}
		if len(rootBytes) <= targetRootLen {
			return rootBytes, leavesBytes, numLeaves, nil
		}
		leafSize *= 2
	}
}

func buildRootsAndLeaves(entries []Entry, leafSize int, compression Compression) ([]byte, []byte, int, error) {
	var rootEntries []Entry
	var leaves []byte
	numLeaves := 0

	for idx := 0; idx < len(entries); idx += leafSize {
		end := idx + leafSize
		if end > len(entries) {
			end = len(entries)
		}
		serialized, err := compressBytes(serializeEntries(entries[idx:end]), compression)
		if err != nil {
			return nil, nil, 0, err
		}
		rootEntries = append(rootEntries, Entry{
			TileID:    entries[idx].TileID,
			Offset:    uint64(len(leaves)),
			Length:    uint32(len(serialized)),
			RunLength: 0,
		})
		leaves = append(leaves, serialized...)
		numLeaves++
	}

	rootBytes, err := compressBytes(serializeEntries(rootEntries), compression)
	if err != nil {
		return nil, nil, 0, err
	}
	return rootBytes, leaves, numLeaves, nil
}

// Commit sorts every face's entries, plans and serializes the directory
// tree, and patches the header, root(s), and metadata into the prelude.
// metadata is marshaled to JSON and compressed with internalCompression;
// its shape is entirely up to the caller.
func (w *Writer) Commit(metadata any) (Header, error) {
	if w.committed {
		return Header{}, fmt.Errorf("tilearchive: already committed")
	}

	numActiveFaces := 1
	if w.cubic {
		numActiveFaces = NumFaces
	}

	allClustered := true
	var addressedTiles, tileEntries uint64
	var minZoom, maxZoom uint8
	haveZoom := false

	for i := 0; i < numActiveFaces; i++ {
		fs := w.faces[i]
		original := fs.entries
		sorted := make([]Entry, len(original))
		copy(sorted, original)
		sort.Slice(sorted, func(a, b int) bool { return sorted[a].TileID < sorted[b].TileID })

		sortedMatchesOriginal := len(sorted) == len(original)
		for j := range sorted {
			if sorted[j].TileID != original[j].TileID {
				sortedMatchesOriginal = false
				break
			}
		}
		if !sortedMatchesOriginal {
			allClustered = false
		}
		fs.entries = sorted

		if i == 0 {
			tileEntries = uint64(len(fs.entries))
		}
		for _, e := range fs.entries {
			addressedTiles += uint64(e.RunLength)
		}
		if fs.haveZoom {
			if !haveZoom {
				minZoom, maxZoom = fs.minZoom, fs.maxZoom
				haveZoom = true
			} else {
				if fs.minZoom < minZoom {
					minZoom = fs.minZoom
				}
				if fs.maxZoom > maxZoom {
					maxZoom = fs.maxZoom
				}
			}
		}
	}

	metadataBytes, err := serializeMetadata(metadata, w.internalCompression)
	if err != nil {
		return Header{}, err
	}
	m := len(metadataBytes)

	h := Header{
		Cubic:               w.cubic,
		Clustered:           allClustered,
		InternalCompression: w.internalCompression,
		TileCompression:     w.tileCompression,
		TileType:            w.tileType,
		MinZoom:             minZoom,
		MaxZoom:             maxZoom,
		AddressedTilesCount: addressedTiles,
		TileEntriesCount:    tileEntries,
		TileContentsCount:   uint64(len(w.dedup)),
	}

	headerSize := h.headerSize()

	type faceDir struct {
		root, leaves []byte
	}
	dirs := make([]faceDir, numActiveFaces)

	budget := PreludeSize - headerSize - m
	for i := 0; i < numActiveFaces; i++ {
		root, leaves, _, err := optimizeFaceDirectory(w.faces[i].entries, budget, w.internalCompression)
		if err != nil {
			return Header{}, err
		}
		dirs[i] = faceDir{root: root, leaves: leaves}
	}

	// Assign prelude offsets: header, then roots in face order, then metadata.
	cursor := uint64(headerSize)
	for i := 0; i < numActiveFaces; i++ {
		h.setRootPointer(Face(i), cursor, uint64(len(dirs[i].root)))
		cursor += uint64(len(dirs[i].root))
	}
	h.MetadataOffset = cursor
	h.MetadataLength = uint64(m)
	cursor += uint64(m)

	if cursor > PreludeSize {
		return Header{}, fmt.Errorf("tilearchive: prelude overflow: header+roots+metadata is %d bytes, budget is %d", cursor, PreludeSize)
	}

	// Append each face's leaf block after the tile data region, in face
	// order, recording each block's absolute file offset as that face's
	// leaf pointer; the leaf entries in a face's root are offsets relative
	// to the start of that face's block.
	h.TileDataOffset = PreludeSize
	h.TileDataLength = w.offset

	leafRegionStart := h.TileDataOffset + h.TileDataLength
	leafCursor := leafRegionStart
	for i := 0; i < numActiveFaces; i++ {
		leaves := dirs[i].leaves
		h.setLeafPointer(Face(i), leafCursor, uint64(len(leaves)))
		if len(leaves) > 0 {
			if err := w.sink.Append(leaves); err != nil {
				return Header{}, err
			}
		}
		leafCursor += uint64(len(leaves))
	}

	headerBytes := serializeHeader(h)
	if err := w.sink.WriteAt(headerBytes, 0); err != nil {
		return Header{}, err
	}
	rootCursor := uint64(headerSize)
	for i := 0; i < numActiveFaces; i++ {
		if err := w.sink.WriteAt(dirs[i].root, rootCursor); err != nil {
			return Header{}, err
		}
		rootCursor += uint64(len(dirs[i].root))
	}
	if err := w.sink.WriteAt(metadataBytes, h.MetadataOffset); err != nil {
		return Header{}, err
	}

	w.committed = true
	return h, nil
}
