package geodesy

import (
	"math"
	"testing"
)

func TestHaversineZeroDistance(t *testing.T) {
	d := Haversine(36.5, 123.0, 36.5, 123.0)
	if d > 1e-9 {
		t.Fatalf("expected ~0 distance, got %f", d)
	}
}

func TestHaversineSymmetric(t *testing.T) {
	d1 := Haversine(35.0, 120.0, 37.0, 125.0)
	d2 := Haversine(37.0, 125.0, 35.0, 120.0)
	if math.Abs(d1-d2) > 1e-9 {
		t.Fatalf("haversine not symmetric: %f vs %f", d1, d2)
	}
	if d1 <= 0 {
		t.Fatalf("expected positive distance, got %f", d1)
	}
}

func TestMoveAndBearingRoundTrip(t *testing.T) {
	lat, lon := 36.0, 124.0
	bearing := 45.0
	dist := 50.0

	lat2, lon2 := Move(lat, lon, bearing, dist)

	back := Haversine(lat, lon, lat2, lon2)
	if math.Abs(back-dist) > 0.5 {
		t.Fatalf("moved distance mismatch: want ~%f got %f", dist, back)
	}

	b := Bearing(lat, lon, lat2, lon2)
	if math.Abs(b-bearing) > 1.0 {
		t.Fatalf("bearing mismatch: want ~%f got %f", bearing, b)
	}
}

func TestBearingRange(t *testing.T) {
	b := Bearing(10, 10, 5, 5)
	if b < 0 || b >= 360 {
		t.Fatalf("bearing out of [0,360): %f", b)
	}
}
