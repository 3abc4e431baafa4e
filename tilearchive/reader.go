package tilearchive

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

const maxDirectoryDepth = 4

// Reader implements C9: load the prelude once, then walk root/leaf
// directories per lookup, with a bounded-capacity LRU cache for leaf
// directories (the root is always resident and bypasses the cache, as
// required by §4.6).
type Reader struct {
	provider RangeProvider
	cache    *directoryCache
	cacheMu  sync.Mutex // guards cache, which GetTiles reaches concurrently

	header Header
	roots  [6][]Entry // roots[0] always populated; roots[1:] only for cubic
	ready  bool

	// CacheObserver, if set, is called once per leaf-directory lookup
	// with whether the lookup hit the cache. The root directory always
	// bypasses the cache (see Open) and is never reported here.
	CacheObserver func(hit bool)
}

// NewReader constructs a Reader with the given cache capacity (0 selects
// DefaultCacheCapacity). The prelude is not fetched until the first
// lookup or an explicit call to Open.
func NewReader(provider RangeProvider, cacheCapacity int) *Reader {
	return &Reader{
		provider: provider,
		cache:    newDirectoryCache(cacheCapacity),
	}
}

// Open performs the one-shot prelude fetch and decodes the header,
// metadata-adjacent root(s). It is idempotent; GetTile calls it lazily.
func (r *Reader) Open(ctx context.Context) error {
	if r.ready {
		return nil
	}
	prelude, err := r.provider.GetRange(ctx, 0, PreludeSize)
	if err != nil {
		return fmt.Errorf("tilearchive: fetch prelude: %w", err)
	}

	header, err := deserializeHeader(prelude)
	if err != nil {
		return err
	}
	r.header = header

	numFaces := 1
	if header.Cubic {
		numFaces = NumFaces
	}
	for i := 0; i < numFaces; i++ {
		off, length := header.rootPointer(Face(i))
		if off+length > uint64(len(prelude)) {
			return ErrMalformedHeader
		}
		raw, err := decompressBytes(prelude[off:off+length], header.InternalCompression)
		if err != nil {
			return err
		}
		entries, err := deserializeEntries(raw)
		if err != nil {
			return err
		}
		r.roots[i] = entries
	}

	r.ready = true
	return nil
}

// Metadata fetches and decodes the user metadata blob.
func (r *Reader) Metadata(ctx context.Context) ([]byte, error) {
	if err := r.Open(ctx); err != nil {
		return nil, err
	}
	raw, err := r.provider.GetRange(ctx, r.header.MetadataOffset, r.header.MetadataLength)
	if err != nil {
		return nil, fmt.Errorf("tilearchive: fetch metadata: %w", err)
	}
	return deserializeMetadataBytes(raw, r.header.InternalCompression)
}

// Header returns the decoded header, opening the archive first if
// necessary.
func (r *Reader) Header(ctx context.Context) (Header, error) {
	if err := r.Open(ctx); err != nil {
		return Header{}, err
	}
	return r.header, nil
}

// GetTile resolves one tile. A false return with a nil error means
// NotFound, which is not an error.
func (r *Reader) GetTile(ctx context.Context, face Face, z uint8, x, y uint32) ([]byte, bool, error) {
	if err := r.Open(ctx); err != nil {
		return nil, false, err
	}
	if r.header.Cubic {
		if !face.valid() {
			return nil, false, ErrInvalidCoordinate
		}
	} else if face != Face0 {
		return nil, false, ErrInvalidCoordinate
	}

	if z < r.header.MinZoom || z > r.header.MaxZoom {
		return nil, false, nil
	}

	tileID, err := ZxyToID(z, x, y)
	if err != nil {
		return nil, false, err
	}

	leafOff, _ := r.header.leafPointer(face)
	rootOff, _ := r.header.rootPointer(face)

	entries := r.roots[face]
	depth := 0
	dirOffset := rootOff

	for {
		entry, ok := findTile(entries, tileID)
		if !ok {
			return nil, false, nil
		}
		if entry.RunLength > 0 {
			data, err := r.provider.GetRange(ctx, r.header.TileDataOffset+entry.Offset, uint64(entry.Length))
			if err != nil {
				return nil, false, fmt.Errorf("tilearchive: fetch tile: %w", err)
			}
			decompressed, err := decompressBytes(data, r.header.TileCompression)
			if err != nil {
				return nil, false, err
			}
			return decompressed, true, nil
		}

		depth++
		if depth > maxDirectoryDepth {
			return nil, false, ErrDepthExceeded
		}

		dirOffset = leafOff + entry.Offset
		r.cacheMu.Lock()
		cached, ok := r.cache.get(dirOffset)
		r.cacheMu.Unlock()
		if ok {
			if r.CacheObserver != nil {
				r.CacheObserver(true)
			}
			entries = cached
			continue
		}
		if r.CacheObserver != nil {
			r.CacheObserver(false)
		}

		raw, err := r.provider.GetRange(ctx, dirOffset, uint64(entry.Length))
		if err != nil {
			return nil, false, fmt.Errorf("tilearchive: fetch leaf directory: %w", err)
		}
		decompressed, err := decompressBytes(raw, r.header.InternalCompression)
		if err != nil {
			return nil, false, err
		}
		leafEntries, err := deserializeEntries(decompressed)
		if err != nil {
			return nil, false, err
		}
		if len(leafEntries) == 0 {
			return nil, false, ErrEmptyDirectory
		}
		r.cacheMu.Lock()
		r.cache.set(dirOffset, leafEntries)
		r.cacheMu.Unlock()
		entries = leafEntries
	}
}

// TileCoord addresses one tile for a batch GetTiles call.
type TileCoord struct {
	Face Face
	Z    uint8
	X, Y uint32
}

// TileResult is one GetTiles outcome, index-aligned with its input coord.
type TileResult struct {
	Data  []byte
	Found bool
}

// GetTiles fetches many coordinates concurrently, bounded by
// maxConcurrency, and returns results in input order. Grounded on the
// teacher's worker-pool batch downloader, modernized onto
// golang.org/x/sync/errgroup instead of a hand-rolled channel pool.
func (r *Reader) GetTiles(ctx context.Context, coords []TileCoord, maxConcurrency int) ([]TileResult, error) {
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}
	results := make([]TileResult, len(coords))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrency)

	for i, c := range coords {
		i, c := i, c
		g.Go(func() error {
			data, found, err := r.GetTile(ctx, c.Face, c.Z, c.X, c.Y)
			if err != nil {
				return err
			}
			results[i] = TileResult{Data: data, Found: found}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Close releases the underlying range provider.
func (r *Reader) Close() error {
	return r.provider.Close()
}
