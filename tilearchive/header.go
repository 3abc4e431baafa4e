package tilearchive

import "encoding/binary"

const (
	// PreludeSize is the fixed span at the start of every archive holding
	// the header, root directory/directories, and metadata blob.
	PreludeSize = 98304

	// HeaderSizePlanar is the byte length of a planar header.
	HeaderSizePlanar = 127

	// HeaderSizeCubic is the byte length of a cubic header: the first 102
	// bytes of the planar layout, then five (offset,length) root pairs and
	// five (offset,length) leaf pairs for faces 1..5 (102 + 80 + 80).
	HeaderSizeCubic = 262
)

var magicPlanar = [2]byte{'P', 'M'}
var magicCubic = [2]byte{'S', '2'}

const (
	specVersionPlanar = 3
	specVersionCubic  = 1
)

// facePointer is a (rootOffset, rootLength, leafOffset, leafLength) group
// for one face of a cubic archive.
type facePointer struct {
	RootOffset uint64
	RootLength uint64
	LeafOffset uint64
	LeafLength uint64
}

// Header holds the fields common to both flavors, plus the five extra
// face pointers a cubic header carries. Planar archives leave Faces empty
// and address everything through the face-0 fields below.
type Header struct {
	Cubic bool

	RootOffset           uint64
	RootLength           uint64
	MetadataOffset       uint64
	MetadataLength       uint64
	LeafDirectoryOffset  uint64
	LeafDirectoryLength  uint64
	TileDataOffset       uint64
	TileDataLength       uint64
	AddressedTilesCount  uint64
	TileEntriesCount     uint64
	TileContentsCount    uint64

	Clustered            bool
	InternalCompression  Compression
	TileCompression      Compression
	TileType             TileType
	MinZoom              uint8
	MaxZoom              uint8

	// Faces[0] is face 1, Faces[4] is face 5 — face 0 always uses the
	// fields above. Only populated when Cubic is true.
	Faces [5]facePointer
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// serializeHeader encodes h into either a 127-byte planar buffer or a
// 262-byte cubic buffer, per the bit-exact field offsets in §4.4.
func serializeHeader(h Header) []byte {
	size := HeaderSizePlanar
	if h.Cubic {
		size = HeaderSizeCubic
	}
	b := make([]byte, size)

	if h.Cubic {
		b[0], b[1] = magicCubic[0], magicCubic[1]
		b[7] = specVersionCubic
	} else {
		b[0], b[1] = magicPlanar[0], magicPlanar[1]
		b[7] = specVersionPlanar
	}

	binary.LittleEndian.PutUint64(b[8:16], h.RootOffset)
	binary.LittleEndian.PutUint64(b[16:24], h.RootLength)
	binary.LittleEndian.PutUint64(b[24:32], h.MetadataOffset)
	binary.LittleEndian.PutUint64(b[32:40], h.MetadataLength)
	binary.LittleEndian.PutUint64(b[40:48], h.LeafDirectoryOffset)
	binary.LittleEndian.PutUint64(b[48:56], h.LeafDirectoryLength)
	binary.LittleEndian.PutUint64(b[56:64], h.TileDataOffset)
	binary.LittleEndian.PutUint64(b[64:72], h.TileDataLength)
	binary.LittleEndian.PutUint64(b[72:80], h.AddressedTilesCount)
	binary.LittleEndian.PutUint64(b[80:88], h.TileEntriesCount)
	binary.LittleEndian.PutUint64(b[88:96], h.TileContentsCount)
	b[96] = boolByte(h.Clustered)
	b[97] = byte(h.InternalCompression)
	b[98] = byte(h.TileCompression)
	b[99] = byte(h.TileType)
	b[100] = h.MinZoom
	b[101] = h.MaxZoom

	if h.Cubic {
		off := 102
		for _, f := range h.Faces {
			binary.LittleEndian.PutUint64(b[off:off+8], f.RootOffset)
			binary.LittleEndian.PutUint64(b[off+8:off+16], f.RootLength)
			off += 16
		}
		off = 182
		for _, f := range h.Faces {
			binary.LittleEndian.PutUint64(b[off:off+8], f.LeafOffset)
			binary.LittleEndian.PutUint64(b[off+8:off+16], f.LeafLength)
			off += 16
		}
	}

	return b
}

// deserializeHeader decodes a header from the front of b. b must be at
// least HeaderSizePlanar long; cubic headers additionally require
// HeaderSizeCubic bytes. Magic bytes are validated: anything other than
// "PM" or "S2" fails with ErrMalformedHeader. The spec-version byte is
// validated too: anything newer than this package understands for that
// flavor also fails with ErrMalformedHeader.
func deserializeHeader(b []byte) (Header, error) {
	if len(b) < HeaderSizePlanar {
		return Header{}, ErrMalformedHeader
	}

	var h Header
	switch {
	case b[0] == magicCubic[0] && b[1] == magicCubic[1]:
		h.Cubic = true
	case b[0] == magicPlanar[0] && b[1] == magicPlanar[1]:
		h.Cubic = false
	default:
		return Header{}, ErrMalformedHeader
	}

	if h.Cubic && len(b) < HeaderSizeCubic {
		return Header{}, ErrMalformedHeader
	}

	if h.Cubic {
		if b[7] > specVersionCubic {
			return Header{}, ErrMalformedHeader
		}
	} else if b[7] > specVersionPlanar {
		return Header{}, ErrMalformedHeader
	}

	h.RootOffset = binary.LittleEndian.Uint64(b[8:16])
	h.RootLength = binary.LittleEndian.Uint64(b[16:24])
	h.MetadataOffset = binary.LittleEndian.Uint64(b[24:32])
	h.MetadataLength = binary.LittleEndian.Uint64(b[32:40])
	h.LeafDirectoryOffset = binary.LittleEndian.Uint64(b[40:48])
	h.LeafDirectoryLength = binary.LittleEndian.Uint64(b[48:56])
	h.TileDataOffset = binary.LittleEndian.Uint64(b[56:64])
	h.TileDataLength = binary.LittleEndian.Uint64(b[64:72])
	h.AddressedTilesCount = binary.LittleEndian.Uint64(b[72:80])
	h.TileEntriesCount = binary.LittleEndian.Uint64(b[80:88])
	h.TileContentsCount = binary.LittleEndian.Uint64(b[88:96])
	h.Clustered = b[96] != 0
	h.InternalCompression = Compression(b[97])
	h.TileCompression = Compression(b[98])
	h.TileType = TileType(b[99])
	h.MinZoom = b[100]
	h.MaxZoom = b[101]

	if h.Cubic {
		off := 102
		for i := range h.Faces {
			h.Faces[i].RootOffset = binary.LittleEndian.Uint64(b[off : off+8])
			h.Faces[i].RootLength = binary.LittleEndian.Uint64(b[off+8 : off+16])
			off += 16
		}
		off = 182
		for i := range h.Faces {
			h.Faces[i].LeafOffset = binary.LittleEndian.Uint64(b[off : off+8])
			h.Faces[i].LeafLength = binary.LittleEndian.Uint64(b[off+8 : off+16])
			off += 16
		}
	}

	return h, nil
}

// headerSize returns the on-disk size of h's flavor.
func (h Header) headerSize() int {
	if h.Cubic {
		return HeaderSizeCubic
	}
	return HeaderSizePlanar
}

// rootPointer returns the (offset, length) of the root directory for the
// given face. Face 0 always uses the shared fields; faces 1-5 only exist
// on a cubic header.
func (h Header) rootPointer(face Face) (uint64, uint64) {
	if face == Face0 {
		return h.RootOffset, h.RootLength
	}
	fp := h.Faces[int(face)-1]
	return fp.RootOffset, fp.RootLength
}

func (h *Header) setRootPointer(face Face, offset, length uint64) {
	if face == Face0 {
		h.RootOffset, h.RootLength = offset, length
		return
	}
	h.Faces[int(face)-1].RootOffset = offset
	h.Faces[int(face)-1].RootLength = length
}

func (h *Header) setLeafPointer(face Face, offset, length uint64) {
	if face == Face0 {
		h.LeafDirectoryOffset, h.LeafDirectoryLength = offset, length
		return
	}
	h.Faces[int(face)-1].LeafOffset = offset
	h.Faces[int(face)-1].LeafLength = length
}

func (h Header) leafPointer(face Face) (uint64, uint64) {
	if face == Face0 {
		return h.LeafDirectoryOffset, h.LeafDirectoryLength
	}
	fp := h.Faces[int(face)-1]
	return fp.LeafOffset, fp.LeafLength
}
