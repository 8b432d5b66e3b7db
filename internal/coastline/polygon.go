package coastline

import (
	"fmt"
	"math"

	"github.com/dhconnelly/rtreego"
	"github.com/peterstace/simplefeatures/geom"
)

// ErrInvalidGeometry indicates a ring failed the validity checks applied
// before a polygon is accepted into a Store.
type ErrInvalidGeometry struct {
	Reason string
}

func (e *ErrInvalidGeometry) Error() string {
	return fmt.Sprintf("invalid coastline geometry: %s", e.Reason)
}

// Polygon is a single accepted land polygon: its validated ring set, the
// simplefeatures geometry built from them, and a sequential id assigned
// in acceptance order during Build.
type Polygon struct {
	ID     int32
	Rings  [][][2]float64 // exterior ring first, holes follow
	Bounds [4]float64     // minLon, minLat, maxLon, maxLat
	geom   geom.Polygon
}

// BoundsRect returns p's bounding box as an rtreego.Rect; polygonSpatial
// exposes it as Bounds() so a Polygon can be inserted into an R-tree.
func (p *Polygon) BoundsRect() rtreego.Rect {
	minLon, minLat, maxLon, maxLat := p.Bounds[0], p.Bounds[1], p.Bounds[2], p.Bounds[3]
	lengths := []float64{maxLon - minLon, maxLat - minLat}
	if lengths[0] <= 0 {
		lengths[0] = 1e-9
	}
	if lengths[1] <= 0 {
		lengths[1] = 1e-9
	}
	rect, err := rtreego.NewRect(rtreego.Point{minLon, minLat}, lengths)
	if err != nil {
		// Degenerate rect (zero-area polygon slipping past validation).
		// Fall back to an epsilon box so it still participates in queries.
		rect, _ = rtreego.NewRect(rtreego.Point{minLon, minLat}, []float64{1e-9, 1e-9})
	}
	return rect
}

// Geometry returns the simplefeatures polygon built from the validated rings.
func (p *Polygon) Geometry() geom.Polygon { return p.geom }

// buildPolygon validates a ring set and constructs the geom.Polygon and
// its bounding box. The exterior ring must have at least 3 distinct
// points (after closing) and non-zero extent.
func buildPolygon(id int32, rings [][][2]float64) (*Polygon, error) {
	if len(rings) == 0 {
		return nil, &ErrInvalidGeometry{Reason: "no rings"}
	}

	exterior := closeRing(rings[0])
	if len(exterior) < 4 { // closed ring: first == last, so >=3 distinct points
		return nil, &ErrInvalidGeometry{Reason: "exterior ring has fewer than 3 distinct points"}
	}

	minLon, minLat, maxLon, maxLat := ringBounds(exterior)
	if maxLon-minLon <= 0 && maxLat-minLat <= 0 {
		return nil, &ErrInvalidGeometry{Reason: "degenerate (zero-area) ring"}
	}

	lineStrings := make([]geom.LineString, 0, len(rings))
	lineStrings = append(lineStrings, ringToLineString(exterior))
	closedHoles := make([][][2]float64, 0, len(rings)-1)
	for _, hole := range rings[1:] {
		closed := closeRing(hole)
		if len(closed) < 4 {
			continue
		}
		lineStrings = append(lineStrings, ringToLineString(closed))
		closedHoles = append(closedHoles, closed)
	}

	poly := geom.NewPolygon(lineStrings)

	allRings := make([][][2]float64, 0, 1+len(closedHoles))
	allRings = append(allRings, exterior)
	allRings = append(allRings, closedHoles...)

	return &Polygon{
		ID:     id,
		Rings:  allRings,
		Bounds: [4]float64{minLon, minLat, maxLon, maxLat},
		geom:   poly,
	}, nil
}

func closeRing(ring [][2]float64) [][2]float64 {
	if len(ring) == 0 {
		return ring
	}
	first, last := ring[0], ring[len(ring)-1]
	if first[0] == last[0] && first[1] == last[1] {
		return ring
	}
	out := make([][2]float64, len(ring)+1)
	copy(out, ring)
	out[len(ring)] = first
	return out
}

func ringBounds(ring [][2]float64) (minLon, minLat, maxLon, maxLat float64) {
	minLon, minLat = ring[0][0], ring[0][1]
	maxLon, maxLat = ring[0][0], ring[0][1]
	for _, pt := range ring[1:] {
		if pt[0] < minLon {
			minLon = pt[0]
		}
		if pt[0] > maxLon {
			maxLon = pt[0]
		}
		if pt[1] < minLat {
			minLat = pt[1]
		}
		if pt[1] > maxLat {
			maxLat = pt[1]
		}
	}
	return
}

func ringToLineString(ring [][2]float64) geom.LineString {
	coords := make([]float64, 0, len(ring)*2)
	for _, pt := range ring {
		coords = append(coords, pt[0], pt[1])
	}
	seq := geom.NewSequence(coords, geom.DimXY)
	return geom.NewLineString(seq)
}

// pointInRing reports whether (lon, lat) lies inside the polygon ring
// using the standard even-odd ray-casting test.
func pointInRing(ring [][2]float64, lon, lat float64) bool {
	inside := false
	n := len(ring)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := ring[i][0], ring[i][1]
		xj, yj := ring[j][0], ring[j][1]
		if (yi > lat) != (yj > lat) {
			xIntersect := (xj-xi)*(lat-yi)/(yj-yi) + xi
			if lon < xIntersect {
				inside = !inside
			}
		}
	}
	return inside
}

// Contains reports whether (lon, lat) is inside p, honoring holes: a point
// inside the exterior ring but inside any hole is not contained.
func (p *Polygon) Contains(lon, lat float64) bool {
	if lon < p.Bounds[0] || lon > p.Bounds[2] || lat < p.Bounds[1] || lat > p.Bounds[3] {
		return false
	}
	if !pointInRing(p.Rings[0], lon, lat) {
		return false
	}
	for _, hole := range p.Rings[1:] {
		if pointInRing(hole, lon, lat) {
			return false
		}
	}
	return true
}

// distanceToRing returns the minimum Cartesian distance in degrees from
// (lon, lat) to any segment of ring. This mirrors the Python original's
// planar point-to-polygon distance: it treats degrees as Cartesian units,
// which is consistent with the rest of the grid's flat approximation.
func distanceToRing(ring [][2]float64, lon, lat float64) float64 {
	best := -1.0
	n := len(ring)
	for i := 0; i < n-1; i++ {
		d := distancePointToSegment(lon, lat, ring[i][0], ring[i][1], ring[i+1][0], ring[i+1][1])
		if best < 0 || d < best {
			best = d
		}
	}
	return best
}

func distancePointToSegment(px, py, ax, ay, bx, by float64) float64 {
	dx, dy := bx-ax, by-ay
	if dx == 0 && dy == 0 {
		return math.Hypot(px-ax, py-ay)
	}
	t := ((px-ax)*dx + (py-ay)*dy) / (dx*dx + dy*dy)
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	cx, cy := ax+t*dx, ay+t*dy
	return math.Hypot(px-cx, py-cy)
}
