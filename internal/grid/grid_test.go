package grid

import "testing"

func TestQuantizeDequantizeRoundTrip(t *testing.T) {
	const cellSizeKm = 10.0
	lat, lon := 36.234, 124.789

	c := Quantize(lat, lon, cellSizeKm)
	dLat, dLon := Dequantize(c, cellSizeKm)

	c2 := Quantize(dLat, dLon, cellSizeKm)
	if c2 != c {
		t.Fatalf("dequantized center did not re-quantize to same cell: %+v vs %+v", c, c2)
	}
}

func TestNeighborsOrderAndCount(t *testing.T) {
	c := Cell{Lat: 5, Lon: 5}

	cardinal := Neighbors(c, false)
	if len(cardinal) != 4 {
		t.Fatalf("expected 4 cardinal neighbors, got %d", len(cardinal))
	}
	want4 := []Cell{{6, 5}, {4, 5}, {5, 6}, {5, 4}}
	for i, w := range want4 {
		if cardinal[i] != w {
			t.Fatalf("cardinal neighbor %d: want %+v got %+v", i, w, cardinal[i])
		}
	}

	all := Neighbors(c, true)
	if len(all) != 8 {
		t.Fatalf("expected 8 neighbors, got %d", len(all))
	}
	want8 := []Cell{{6, 5}, {4, 5}, {5, 6}, {5, 4}, {6, 6}, {6, 4}, {4, 6}, {4, 4}}
	for i, w := range want8 {
		if all[i] != w {
			t.Fatalf("neighbor %d: want %+v got %+v", i, w, all[i])
		}
	}
}

func TestQuantizeDistinctCells(t *testing.T) {
	a := Quantize(36.0, 124.0, 10.0)
	b := Quantize(36.5, 124.0, 10.0)
	if a == b {
		t.Fatalf("expected distinct cells for points 0.5 degrees apart")
	}
}
