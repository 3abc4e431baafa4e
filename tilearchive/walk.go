package tilearchive

import (
	"context"
	"fmt"
)

// walkFace recursively visits every tile entry reachable from face's root
// directory, decompressing leaf directories along the way. visit is
// called once per tile entry (RunLength > 0), in directory order.
func walkFace(ctx context.Context, provider RangeProvider, header Header, face Face, visit func(Entry) error) error {
	rootOff, rootLen := header.rootPointer(face)
	leafOff, _ := header.leafPointer(face)

	var recurse func(dirOffset, dirLength uint64) error
	recurse = func(dirOffset, dirLength uint64) error {
		raw, err := provider.GetRange(ctx, dirOffset, dirLength)
		if err != nil {
			return fmt.Errorf("tilearchive: walk: fetch directory: %w", err)
		}
		decompressed, err := decompressBytes(raw, header.InternalCompression)
		if err != nil {
			return err
		}
		entries, err := deserializeEntries(decompressed)
		if err != nil {
			return err
		}
		// A root may be empty (a cubic face with no tiles); a leaf may not.
		if len(entries) == 0 && dirOffset != rootOff {
			return ErrEmptyDirectory
		}
		for _, e := range entries {
			if e.RunLength > 0 {
				if err := visit(e); err != nil {
					return err
				}
			} else if err := recurse(leafOff+e.Offset, uint64(e.Length)); err != nil {
				return err
			}
		}
		return nil
	}

	return recurse(rootOff, rootLen)
}
