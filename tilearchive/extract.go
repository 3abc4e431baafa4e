package tilearchive

import (
	"context"
	"fmt"
)

// coordMatches reports whether a tile at (candidateZ, candidateX,
// candidateY) overlaps the box [minX,minY]-[maxX,maxY] given at
// reference zoom z. Ported from the source's tile-coordinate bbox
// predicate — no geographic projection is involved, only bit-shifts
// between zoom levels.
func coordMatches(z uint8, minX, minY, maxX, maxY uint32, candidateZ uint8, candidateX, candidateY uint32) bool {
	switch {
	case candidateZ < z:
		levels := z - candidateZ
		minXOnLevel := candidateX << levels
		minYOnLevel := candidateY << levels
		maxXOnLevel := ((candidateX + 1) << levels) - 1
		maxYOnLevel := ((candidateY + 1) << levels) - 1
		if maxXOnLevel < minX || maxYOnLevel < minY || minXOnLevel > maxX || minYOnLevel > maxY {
			return false
		}
		return true
	case candidateZ == z:
		return candidateX >= minX && candidateY >= minY && candidateX <= maxX && candidateY <= maxY
	default:
		levels := candidateZ - z
		xOnLevel := candidateX >> levels
		yOnLevel := candidateY >> levels
		return xOnLevel >= minX && yOnLevel >= minY && xOnLevel <= maxX && yOnLevel <= maxY
	}
}

// ExtractBox copies every tile from src's face whose (z, x, y) overlaps
// the given box at reference zoom z into dst, re-encoding through dst's
// own writer pipeline (dedup, clustering, directory planning all apply
// fresh to the subset).
func ExtractBox(ctx context.Context, src *Reader, dst *Writer, face Face, z uint8, minX, minY, maxX, maxY uint32, showProgress bool) (int, error) {
	header, err := src.Header(ctx)
	if err != nil {
		return 0, err
	}

	var bar ProgressBar
	if showProgress {
		bar = currentProgressReporter().NewCountProgress(int64(header.AddressedTilesCount), "extracting")
		defer bar.Close()
	}

	copied := 0
	err = walkFace(ctx, src.provider, header, face, func(e Entry) error {
		data, err := src.provider.GetRange(ctx, header.TileDataOffset+e.Offset, uint64(e.Length))
		if err != nil {
			return fmt.Errorf("tilearchive: extract: fetch tile: %w", err)
		}
		decompressed, err := decompressBytes(data, header.TileCompression)
		if err != nil {
			return err
		}
		// runLength entries cover consecutive tile-IDs sharing this
		// payload; re-derive each covered (z,x,y) and re-write it so
		// the destination archive gets its own correctly-clustered run.
		for r := uint32(0); r < e.RunLength; r++ {
			rz, rx, ry := IDToZxy(e.TileID + uint64(r))
			if !coordMatches(z, minX, minY, maxX, maxY, rz, rx, ry) {
				continue
			}
			if err := dst.WriteTile(face, rz, rx, ry, decompressed); err != nil {
				return err
			}
			copied++
			if bar != nil {
				bar.Add(1)
			}
		}
		return nil
	})
	if err != nil {
		return copied, err
	}
	return copied, nil
}
