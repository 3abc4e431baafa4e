package tilearchive

import (
	"fmt"

	"zombiezen.com/go/sqlite"
)

// ImportMBTiles streams every (zoom_level, tile_column, tile_row,
// tile_data) row out of an MBTiles sqlite database into dst. MBTiles
// stores y in TMS (bottom-left origin) order; this flips it to the
// top-left origin this format's Hilbert mapping assumes.
func ImportMBTiles(dst *Writer, mbtilesPath string, showProgress bool) (int, error) {
	conn, err := sqlite.OpenConn(mbtilesPath, sqlite.OpenReadOnly)
	if err != nil {
		return 0, fmt.Errorf("tilearchive: open mbtiles database: %w", err)
	}
	defer conn.Close()

	var totalTiles int64
	{
		stmt, _, err := conn.PrepareTransient("SELECT count(*) FROM tiles")
		if err != nil {
			return 0, fmt.Errorf("tilearchive: prepare count statement: %w", err)
		}
		defer stmt.Finalize()
		row, err := stmt.Step()
		if err != nil || !row {
			return 0, fmt.Errorf("tilearchive: count tiles: %w", err)
		}
		totalTiles = stmt.ColumnInt64(0)
	}

	var bar ProgressBar
	if showProgress {
		bar = currentProgressReporter().NewCountProgress(totalTiles, "importing")
		defer bar.Close()
	}

	stmt, _, err := conn.PrepareTransient(
		"SELECT zoom_level, tile_column, tile_row, tile_data FROM tiles ORDER BY zoom_level, tile_column, tile_row")
	if err != nil {
		return 0, fmt.Errorf("tilearchive: prepare tile scan: %w", err)
	}
	defer stmt.Finalize()

	imported := 0
	for {
		row, err := stmt.Step()
		if err != nil {
			return imported, fmt.Errorf("tilearchive: step tile scan: %w", err)
		}
		if !row {
			break
		}

		z := uint8(stmt.ColumnInt64(0))
		x := uint32(stmt.ColumnInt64(1))
		tmsY := uint32(stmt.ColumnInt64(2))
		y := (uint32(1) << z) - 1 - tmsY

		data := make([]byte, stmt.ColumnLen(3))
		stmt.ColumnBytes(3, data)

		if len(data) > 0 {
			if err := dst.WriteTile(Face0, z, x, y, data); err != nil {
				return imported, err
			}
			imported++
		}
		if bar != nil {
			bar.Add(1)
		}
	}

	return imported, nil
}
