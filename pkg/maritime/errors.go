package maritime

import "fmt"

// ErrStoreNotReady indicates a query was made against an Engine whose
// coastline store for the requested region holds no accepted geometry —
// for example, after a polygon source failure left it built but empty.
type ErrStoreNotReady struct{}

func (e *ErrStoreNotReady) Error() string {
	return "coastline store is not ready"
}

// ErrUnreachable indicates the router exhausted its search frontier, or
// hit the iteration cap, without connecting start and end.
type ErrUnreachable struct {
	Iterations int
}

func (e *ErrUnreachable) Error() string {
	return fmt.Sprintf("no sea route found after %d iterations", e.Iterations)
}

// EndpointOnLandError indicates a requested start or end point is not in
// safe water.
type EndpointOnLandError struct {
	Point Coordinate
	Which string // "Start" or "End"
}

func (e *EndpointOnLandError) Error() string {
	return fmt.Sprintf("%s point is not in safe water", e.Which)
}
