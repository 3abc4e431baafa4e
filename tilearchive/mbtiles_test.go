package tilearchive

import "testing"

// TestMBTilesYFlip checks the TMS (bottom-left origin) to XYZ
// (top-left origin) row flip ImportMBTiles applies to every row it
// streams out of an MBTiles database. Exercising ImportMBTiles itself
// needs a real sqlite fixture file and is left to integration testing.
func TestMBTilesYFlip(t *testing.T) {
	cases := []struct {
		z    uint8
		tmsY uint32
		want uint32
	}{
		{0, 0, 0},
		{1, 0, 1},
		{1, 1, 0},
		{3, 0, 7},
		{3, 7, 0},
		{3, 3, 4},
	}
	for _, c := range cases {
		got := (uint32(1) << c.z) - 1 - c.tmsY
		if got != c.want {
			t.Errorf("z=%d tmsY=%d: got %d, want %d", c.z, c.tmsY, got, c.want)
		}
	}
}
