// Package coastline builds and queries the land/water geometry that backs
// the route planner: ingesting polygon sources into an R-tree-indexed
// store, classifying points as land or water, and measuring clearance
// from the nearest coastline.
package coastline

import (
	"fmt"
	"math"

	"github.com/dhconnelly/rtreego"
	"github.com/peterstace/simplefeatures/geom"
	"github.com/sirupsen/logrus"
)

// SearchRadiusDeg is the fixed 1-degree cutoff applied to DistanceToLand
// queries. Points farther than this from every accepted polygon are
// reported as being effectively infinitely far from land.
const SearchRadiusDeg = 1.0

// Bounds is a geographic bounding box in decimal degrees, (lon, lat) order
// to match the rtree and shapefile convention used throughout this package.
type Bounds struct {
	MinLon, MinLat, MaxLon, MaxLat float64
}

// Contains reports whether (lon, lat) falls within b.
func (b Bounds) Contains(lon, lat float64) bool {
	return lon >= b.MinLon && lon <= b.MaxLon && lat >= b.MinLat && lat <= b.MaxLat
}

// Expand returns b grown by margin degrees in every direction.
func (b Bounds) Expand(margin float64) Bounds {
	return Bounds{
		MinLon: b.MinLon - margin,
		MinLat: b.MinLat - margin,
		MaxLon: b.MaxLon + margin,
		MaxLat: b.MaxLat + margin,
	}
}

func (b Bounds) rect() rtreego.Rect {
	lengths := []float64{b.MaxLon - b.MinLon, b.MaxLat - b.MinLat}
	if lengths[0] <= 0 {
		lengths[0] = 1e-9
	}
	if lengths[1] <= 0 {
		lengths[1] = 1e-9
	}
	rect, _ := rtreego.NewRect(rtreego.Point{b.MinLon, b.MinLat}, lengths)
	return rect
}

// polygonSpatial adapts *Polygon to rtreego.Spatial without colliding with
// Polygon's own Bounds field.
type polygonSpatial struct{ *Polygon }

func (p polygonSpatial) Bounds() rtreego.Rect { return p.Polygon.BoundsRect() }

// Store is the coastline geometry backing a region: a validated polygon
// set, an R-tree for fast candidate lookup, and the simplefeatures
// MultiPolygon built from them.
//
// A point lies in the Store's land area iff it lies in at least one
// accepted Polygon; since MultiPolygon containment is the logical union
// of its member polygons, building the MultiPolygon directly from the
// accepted set is equivalent to a boundary-merged union for the purposes
// of containment testing, without requiring a topological union algorithm.
type Store struct {
	Region   Bounds
	Polygons []*Polygon
	Union    geom.MultiPolygon

	rtree *rtreego.Rtree
}

// BuildOptions controls store construction.
type BuildOptions struct {
	// LogProgress, when non-nil, is called every 5000 shapes scanned.
	LogProgress func(scanned, accepted, rejected int)
}

// Build ingests every record from src whose bounding box intersects region,
// validates each polygon's rings, and constructs the store's spatial index
// and unified geometry.
func Build(src PolygonSource, region Bounds, opts BuildOptions) (*Store, error) {
	rtree := rtreego.NewTree(2, 25, 50)

	var polygons []*Polygon
	var geomPolys []geom.Polygon

	var scanned, accepted, rejected int
	var nextID int32

	for {
		rec, ok, err := src.Next()
		if err != nil {
			return nil, fmt.Errorf("read polygon source: %w", err)
		}
		if !ok {
			break
		}
		scanned++

		if opts.LogProgress != nil && scanned%5000 == 0 {
			opts.LogProgress(scanned, accepted, rejected)
		}

		if rec.ShapeType != 5 {
			rejected++
			continue
		}
		if !bboxIntersects(rec.Bounds, region) {
			continue
		}

		poly, err := buildPolygon(nextID, rec.Rings)
		if err != nil {
			rejected++
			logrus.WithError(err).Debug("coastline: rejected polygon")
			continue
		}
		nextID++

		rtree.Insert(polygonSpatial{poly})
		polygons = append(polygons, poly)
		geomPolys = append(geomPolys, poly.Geometry())
		accepted++
	}

	if err := src.Close(); err != nil {
		logrus.WithError(err).Warn("coastline: error closing polygon source")
	}

	logrus.WithFields(logrus.Fields{
		"scanned":  scanned,
		"accepted": accepted,
		"rejected": rejected,
	}).Info("coastline: store built")

	return &Store{
		Region:   region,
		Polygons: polygons,
		Union:    geom.NewMultiPolygon(geomPolys),
		rtree:    rtree,
	}, nil
}

func bboxIntersects(rec [4]float64, region Bounds) bool {
	minLon, minLat, maxLon, maxLat := rec[0], rec[1], rec[2], rec[3]
	return !(maxLon < region.MinLon || minLon > region.MaxLon ||
		maxLat < region.MinLat || minLat > region.MaxLat)
}

// candidates returns accepted polygons whose bbox intersects the rect
// around (lon, lat) expanded by radiusDeg in every direction.
func (s *Store) candidates(lon, lat, radiusDeg float64) []*Polygon {
	box := Bounds{MinLon: lon - radiusDeg, MinLat: lat - radiusDeg, MaxLon: lon + radiusDeg, MaxLat: lat + radiusDeg}
	found := s.rtree.SearchIntersect(box.rect())
	out := make([]*Polygon, 0, len(found))
	for _, f := range found {
		out = append(out, f.(polygonSpatial).Polygon)
	}
	return out
}

// ErrStoreNotReady indicates a query was made against a Store holding no
// accepted polygons — for example, one built after a SourceMissing
// failure per spec.md §7, where a degraded empty store is constructed
// rather than failing the build outright.
type ErrStoreNotReady struct{}

func (e *ErrStoreNotReady) Error() string {
	return "coastline store has no accepted geometry"
}

// Ready reports whether s holds at least one accepted polygon.
func (s *Store) Ready() bool {
	return len(s.Polygons) > 0
}

// IsLand reports whether (lon, lat) lies inside any accepted land polygon.
// It returns ErrStoreNotReady if the store holds no geometry.
func (s *Store) IsLand(lon, lat float64) (bool, error) {
	if !s.Ready() {
		return false, &ErrStoreNotReady{}
	}

	// Unbounded radius for containment: a coastline polygon can be
	// arbitrarily large, so restricting to SearchRadiusDeg here would
	// miss genuine containment in a large landmass polygon. We instead
	// query the polygon whose own bbox covers the point, which the
	// rtree answers directly regardless of polygon extent.
	point := Bounds{MinLon: lon, MinLat: lat, MaxLon: lon, MaxLat: lat}
	found := s.rtree.SearchIntersect(point.rect())
	for _, f := range found {
		if f.(polygonSpatial).Polygon.Contains(lon, lat) {
			return true, nil
		}
	}
	return false, nil
}

// DistanceToLand returns the minimum distance, in degrees, from (lon, lat)
// to the nearest accepted polygon's boundary within SearchRadiusDeg. If no
// polygon lies within that radius, it returns +Inf.
func (s *Store) DistanceToLand(lon, lat float64) float64 {
	candidates := s.candidates(lon, lat, SearchRadiusDeg)
	best := math.Inf(1)
	for _, c := range candidates {
		d := distanceToRing(c.Rings[0], lon, lat)
		if d < best {
			best = d
		}
		for _, hole := range c.Rings[1:] {
			d := distanceToRing(hole, lon, lat)
			if d < best {
				best = d
			}
		}
	}
	return best
}

// IsSafeWater reports whether (lon, lat) is not land and is at least
// minClearanceDeg away from the nearest coastline. It returns
// ErrStoreNotReady if the store holds no geometry.
func (s *Store) IsSafeWater(lon, lat, minClearanceDeg float64) (bool, error) {
	land, err := s.IsLand(lon, lat)
	if err != nil {
		return false, err
	}
	if land {
		return false, nil
	}
	return s.DistanceToLand(lon, lat) >= minClearanceDeg, nil
}
