package coastline

import (
	"fmt"
	"io"

	"github.com/jonas-p/go-shp"
)

// PolygonRecord is a single unprocessed candidate read from a polygon
// source, before ring validation.
type PolygonRecord struct {
	ShapeType int // 5 = polygon, matching the ESRI shapefile type code
	Bounds    [4]float64
	Rings     [][][2]float64
}

// PolygonSource yields PolygonRecord values one at a time. Next returns
// (record, false, nil) once exhausted.
type PolygonSource interface {
	Next() (PolygonRecord, bool, error)
	Close() error
}

// ShapefilePolygonSource reads polygon records from an ESRI shapefile,
// the distribution format of OSM's land-polygons-split-4326 dataset.
type ShapefilePolygonSource struct {
	reader *shp.Reader
}

// OpenShapefile opens path for reading as a PolygonSource.
func OpenShapefile(path string) (*ShapefilePolygonSource, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open shapefile %s: %w", path, err)
	}
	return &ShapefilePolygonSource{reader: reader}, nil
}

// Next returns the next polygon-shaped record, skipping non-polygon shapes.
func (s *ShapefilePolygonSource) Next() (PolygonRecord, bool, error) {
	for s.reader.Next() {
		_, shape := s.reader.Shape()

		poly, ok := shape.(*shp.Polygon)
		if !ok {
			continue
		}

		rings := splitParts(poly.Points, poly.Parts)
		return PolygonRecord{
			ShapeType: 5, // POLYGON, per the shapefile spec
			Bounds:    [4]float64{poly.Box.MinX, poly.Box.MinY, poly.Box.MaxX, poly.Box.MaxY},
			Rings:     rings,
		}, true, nil
	}
	return PolygonRecord{}, false, nil
}

// Close releases the underlying shapefile handle.
func (s *ShapefilePolygonSource) Close() error {
	s.reader.Close()
	return nil
}

// splitParts converts a shapefile's flat point array plus part-start
// index array into a slice of rings.
func splitParts(points []shp.Point, parts []int32) [][][2]float64 {
	if len(parts) == 0 {
		parts = []int32{0}
	}
	rings := make([][][2]float64, 0, len(parts))
	for i, start := range parts {
		end := int32(len(points))
		if i+1 < len(parts) {
			end = parts[i+1]
		}
		ring := make([][2]float64, 0, end-start)
		for _, p := range points[start:end] {
			ring = append(ring, [2]float64{p.X, p.Y})
		}
		rings = append(rings, ring)
	}
	return rings
}

// StaticPolygonSource serves records from an in-memory slice. Used by
// tests and by callers that already have parsed records.
type StaticPolygonSource struct {
	records []PolygonRecord
	pos     int
}

// NewStaticPolygonSource wraps records as a PolygonSource.
func NewStaticPolygonSource(records []PolygonRecord) *StaticPolygonSource {
	return &StaticPolygonSource{records: records}
}

func (s *StaticPolygonSource) Next() (PolygonRecord, bool, error) {
	if s.pos >= len(s.records) {
		return PolygonRecord{}, false, nil
	}
	r := s.records[s.pos]
	s.pos++
	return r, true, nil
}

func (s *StaticPolygonSource) Close() error { return nil }

var _ io.Closer = (*ShapefilePolygonSource)(nil)
var _ io.Closer = (*StaticPolygonSource)(nil)
