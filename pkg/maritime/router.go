package maritime

import (
	"container/list"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/seawayrouter/maritime/internal/geodesy"
	"github.com/seawayrouter/maritime/internal/grid"
)

// MaxSearchIterations bounds the wave-propagation search regardless of
// the caller-supplied iteration hint, so a pathological grid can never
// run unbounded.
const MaxSearchIterations = 1_000_000

// SafeWaterFunc reports whether a lat/lon coordinate is navigable water
// with sufficient coastline clearance.
type SafeWaterFunc func(lat, lon float64) bool

// searchRoute performs an 8-connected BFS rooted at end, expanding only
// into cells that isSafeWater reports as navigable, until it reaches the
// cell containing start or exhausts the frontier.
//
// Rooting the search at the destination rather than the origin means a
// single search answers "how do I get to end" from every cell it visits,
// which is irrelevant here since only one path is requested, but keeps
// the parent-pointer chain oriented start-to-end without a final reversal.
func searchRoute(start, end Coordinate, stepKm float64, isSafeWater SafeWaterFunc) ([]grid.Cell, int, int, error) {
	searchID := uuid.New().String()
	log := logrus.WithField("search_id", searchID)

	startCell := grid.Quantize(start.Lat, start.Lon, stepKm)
	endCell := grid.Quantize(end.Lat, end.Lon, stepKm)

	if startCell == endCell {
		return []grid.Cell{startCell}, 1, 1, nil
	}

	visited := map[grid.Cell]bool{endCell: true}
	parent := map[grid.Cell]grid.Cell{}

	queue := list.New()
	queue.PushBack(endCell)

	iterations := 0
	found := false

	for queue.Len() > 0 && iterations < MaxSearchIterations {
		front := queue.Front()
		queue.Remove(front)
		cell := front.Value.(grid.Cell)
		iterations++

		if cell == startCell {
			found = true
			break
		}

		for _, n := range grid.Neighbors(cell, true) {
			if visited[n] {
				continue
			}
			lat, lon := grid.Dequantize(n, stepKm)
			if !isSafeWater(lat, lon) {
				continue
			}
			visited[n] = true
			parent[n] = cell
			queue.PushBack(n)
		}
	}

	log.WithFields(logrus.Fields{
		"iterations": iterations,
		"visited":    len(visited),
		"found":      found,
	}).Debug("maritime: wave propagation search complete")

	if !found {
		return nil, iterations, len(visited), &ErrUnreachable{Iterations: iterations}
	}

	path := []grid.Cell{startCell}
	cell := startCell
	for cell != endCell {
		next, ok := parent[cell]
		if !ok {
			// Every cell enqueued after endCell has a parent, so a break
			// in the chain means the search state is inconsistent, which
			// does not happen for a cell marked found.
			break
		}
		path = append(path, next)
		cell = next
	}

	return path, iterations, len(visited), nil
}

// buildRouteResult converts a cell path into waypoints anchored on the
// caller's exact start/end coordinates, and computes the summary metrics
// spec'd for a successful route.
func buildRouteResult(start, end Coordinate, path []grid.Cell, stepKm float64, iterations, visited int) RouteResult {
	waypoints := make([]Coordinate, len(path))
	for i, cell := range path {
		lat, lon := grid.Dequantize(cell, stepKm)
		waypoints[i] = Coordinate{Lat: lat, Lon: lon}
	}
	waypoints[0] = start
	waypoints[len(waypoints)-1] = end

	total := 0.0
	for i := 1; i < len(waypoints); i++ {
		total += geodesy.Haversine(waypoints[i-1].Lat, waypoints[i-1].Lon, waypoints[i].Lat, waypoints[i].Lon)
	}

	direct := geodesy.Haversine(start.Lat, start.Lon, end.Lat, end.Lon)

	efficiency := 0.0
	if total > 0 {
		efficiency = direct / total * 100
	}

	return RouteResult{
		Waypoints:      waypoints,
		TotalDistance:  total,
		DirectDistance: direct,
		Efficiency:     efficiency,
		GridCells:      len(path),
		Iterations:     iterations,
		VisitedCells:   visited,
	}
}
