package maritime

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/seawayrouter/maritime/internal/coastline"
)

// islandSource returns a SourceFactory producing a single 1x1 degree
// island centered on (0, 0).
func islandSource() SourceFactory {
	return func() (coastline.PolygonSource, error) {
		return coastline.NewStaticPolygonSource([]coastline.PolygonRecord{
			{
				ShapeType: 5,
				Bounds:    [4]float64{-0.5, -0.5, 0.5, 0.5},
				Rings: [][][2]float64{
					{{-0.5, -0.5}, {0.5, -0.5}, {0.5, 0.5}, {-0.5, 0.5}, {-0.5, -0.5}},
				},
			},
		}), nil
	}
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	engine, err := NewEngine(EngineOptions{
		Source:    islandSource(),
		CachePath: filepath.Join(t.TempDir(), "cache.db"),
	})
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	t.Cleanup(func() { engine.Close() })
	return engine
}

func TestFindSeaRouteSucceedsAroundIsland(t *testing.T) {
	engine := newTestEngine(t)

	start := Coordinate{Lat: 0, Lon: -2}
	end := Coordinate{Lat: 0, Lon: 2}

	result, err := engine.FindSeaRoute(start, end, 20.0, 5.0, DefaultMaxIterations)
	if err != nil {
		t.Fatalf("expected route, got error: %v", err)
	}
	if len(result.Waypoints) < 2 {
		t.Fatalf("expected multi-waypoint route, got %d", len(result.Waypoints))
	}
	if result.Waypoints[0] != start || result.Waypoints[len(result.Waypoints)-1] != end {
		t.Fatal("expected route to be anchored on exact start/end coordinates")
	}
}

func TestFindSeaRouteRejectsLandEndpoint(t *testing.T) {
	engine := newTestEngine(t)

	start := Coordinate{Lat: 0, Lon: 0} // inside the island
	end := Coordinate{Lat: 0, Lon: 2}

	_, err := engine.FindSeaRoute(start, end, 20.0, 5.0, DefaultMaxIterations)
	if err == nil {
		t.Fatal("expected error for land start point")
	}
	landErr, ok := err.(*EndpointOnLandError)
	if !ok {
		t.Fatalf("expected *EndpointOnLandError, got %T: %v", err, err)
	}
	if landErr.Which != "Start" {
		t.Fatalf("expected Start endpoint flagged, got %q", landErr.Which)
	}
}

func TestFindSeaRouteDeterministic(t *testing.T) {
	engine := newTestEngine(t)

	start := Coordinate{Lat: 0, Lon: -2}
	end := Coordinate{Lat: 0, Lon: 2}

	r1, err := engine.FindSeaRoute(start, end, 20.0, 5.0, DefaultMaxIterations)
	if err != nil {
		t.Fatalf("first call failed: %v", err)
	}
	r2, err := engine.FindSeaRoute(start, end, 20.0, 5.0, DefaultMaxIterations)
	if err != nil {
		t.Fatalf("second call failed: %v", err)
	}

	if len(r1.Waypoints) != len(r2.Waypoints) {
		t.Fatalf("expected deterministic waypoint count, got %d vs %d", len(r1.Waypoints), len(r2.Waypoints))
	}
	for i := range r1.Waypoints {
		if r1.Waypoints[i] != r2.Waypoints[i] {
			t.Fatalf("waypoint %d differs between identical calls: %+v vs %+v", i, r1.Waypoints[i], r2.Waypoints[i])
		}
	}
}

func TestRegionForPicksYellowSea(t *testing.T) {
	start := Coordinate{Lat: 35.0, Lon: 122.0}
	end := Coordinate{Lat: 37.0, Lon: 124.0}

	region, isYellowSea := regionFor(start, end, DefaultMinClearanceKm)
	if !isYellowSea {
		t.Fatal("expected Yellow Sea region for endpoints within its bounds")
	}
	if region != YellowSeaBounds {
		t.Fatalf("expected region to equal YellowSeaBounds, got %+v", region)
	}
}

func TestEngineIsLandAndIsSafeWater(t *testing.T) {
	engine := newTestEngine(t)

	land, err := engine.IsLand(0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !land {
		t.Fatal("expected island center to be land")
	}

	safe, err := engine.IsSafeWater(0, 2, 5.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !safe {
		t.Fatal("expected point far from the island to be safe water")
	}
}

func TestEngineIsLandDegradesToNotReadyOnMissingSource(t *testing.T) {
	engine, err := NewEngine(EngineOptions{
		Source: func() (coastline.PolygonSource, error) {
			return nil, fmt.Errorf("polygon source unreachable")
		},
		CachePath: filepath.Join(t.TempDir(), "cache.db"),
	})
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	defer engine.Close()

	_, err = engine.IsLand(0, 0)
	if err == nil {
		t.Fatal("expected ErrStoreNotReady when the polygon source is unavailable")
	}
	if _, ok := err.(*ErrStoreNotReady); !ok {
		t.Fatalf("expected *ErrStoreNotReady, got %T: %v", err, err)
	}
}

func TestRegionForCustomBboxMargin(t *testing.T) {
	start := Coordinate{Lat: 0, Lon: 0}
	end := Coordinate{Lat: 1, Lon: 1}

	region, isYellowSea := regionFor(start, end, 100.0)
	if isYellowSea {
		t.Fatal("expected custom region outside Yellow Sea bounds")
	}
	if region.MinLat >= start.Lat || region.MinLon >= start.Lon {
		t.Fatalf("expected region to be expanded beyond the endpoints: %+v", region)
	}
}
