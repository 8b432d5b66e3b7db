package maritime

import (
	"fmt"
	"sync"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/seawayrouter/maritime/internal/cachestore"
	"github.com/seawayrouter/maritime/internal/coastline"
	"github.com/seawayrouter/maritime/internal/grid"
)

// DefaultStepKm, DefaultMinClearanceKm, and DefaultMaxIterations are the
// planner's published defaults, matching its external interface.
const (
	DefaultStepKm         = 10.0
	DefaultMinClearanceKm = 10.0
	DefaultMaxIterations  = 1000
)

// SourceFactory builds a fresh PolygonSource on demand. It is called at
// most once per distinct region bbox the Engine is asked to serve, and
// only when the persistent cache holds no valid record for it, since a
// PolygonSource is single-use (its Next/Close pair consumes an
// underlying reader).
type SourceFactory func() (coastline.PolygonSource, error)

// EngineOptions configures a new Engine.
type EngineOptions struct {
	// Source builds the polygon source used to populate the coastline
	// store on a cache miss. Required.
	Source SourceFactory

	// CachePath is the bbolt database file backing the persistent
	// coastline cache. If empty, cachestore.DefaultCachePath() is used.
	CachePath string
}

// Engine is the planner façade: it owns the persistent cache and lazily
// builds (or loads) coastline stores for whatever regions FindSeaRoute is
// asked to cover.
type Engine struct {
	sourceFactory SourceFactory
	cache         *cachestore.Store

	mu     sync.RWMutex
	stores map[string]*coastline.Store
}

// NewEngine constructs an Engine. It loads a .env file if present (a
// missing file is not an error) so GOOGLE_MAPS_API_KEY can be supplied
// for the optional corroborator without exporting it into the shell.
func NewEngine(opts EngineOptions) (*Engine, error) {
	if opts.Source == nil {
		return nil, fmt.Errorf("maritime: EngineOptions.Source is required")
	}

	_ = godotenv.Load()

	path := opts.CachePath
	if path == "" {
		p, err := cachestore.DefaultCachePath()
		if err != nil {
			return nil, fmt.Errorf("resolve cache path: %w", err)
		}
		path = p
	}

	cache, err := cachestore.Open(path)
	if err != nil {
		return nil, err
	}

	return &Engine{
		sourceFactory: opts.Source,
		cache:         cache,
		stores:        make(map[string]*coastline.Store),
	}, nil
}

// Close releases the Engine's persistent cache handle.
func (e *Engine) Close() error {
	return e.cache.Close()
}

func toCoastlineBounds(b Bounds) coastline.Bounds {
	return coastline.Bounds{MinLon: b.MinLon, MinLat: b.MinLat, MaxLon: b.MaxLon, MaxLat: b.MaxLat}
}

// storeFor returns the coastline store for region, building it from the
// cache or the polygon source if it is not already loaded in memory.
func (e *Engine) storeFor(region Bounds, isYellowSea bool) (*coastline.Store, error) {
	bbox := [4]float64{region.MinLon, region.MinLat, region.MaxLon, region.MaxLat}
	key := cachestore.KeyFor(bbox, isYellowSea)
	regionTag := "custom"
	if isYellowSea {
		regionTag = "yellow_sea"
	}

	e.mu.RLock()
	if store, ok := e.stores[key]; ok {
		e.mu.RUnlock()
		return store, nil
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	if store, ok := e.stores[key]; ok {
		return store, nil
	}

	cb := toCoastlineBounds(region)

	if rec, ok := e.cache.Load(key, bbox, regionTag); ok {
		records := make([]coastline.PolygonRecord, len(rec.Rings))
		for i, rings := range rec.Rings {
			// Cached polygons were already filtered to this region when
			// saved, so the region bbox stands in for each record's bounds.
			records[i] = coastline.PolygonRecord{ShapeType: 5, Bounds: bbox, Rings: rings}
		}
		store, err := coastline.Build(coastline.NewStaticPolygonSource(records), cb, coastline.BuildOptions{})
		if err != nil {
			return nil, fmt.Errorf("rebuild store from cache: %w", err)
		}
		e.stores[key] = store
		return store, nil
	}

	// A missing or unreachable polygon source (SourceMissing, spec.md §7)
	// is non-fatal: it is logged and a degraded, empty coastline store is
	// built instead, rather than failing the route outright. Callers see
	// ErrStoreNotReady from IsLand/IsSafeWater/FindSeaRoute for this
	// region until a working source is configured.
	src, err := e.sourceFactory()
	if err != nil {
		logrus.WithError(err).Warn("maritime: polygon source unavailable, serving an empty coastline store")
		store, buildErr := coastline.Build(coastline.NewStaticPolygonSource(nil), cb, coastline.BuildOptions{})
		if buildErr != nil {
			return nil, fmt.Errorf("build empty coastline store: %w", buildErr)
		}
		e.stores[key] = store
		return store, nil
	}

	store, err := coastline.Build(src, cb, coastline.BuildOptions{
		LogProgress: func(scanned, accepted, rejected int) {
			logrus.WithFields(logrus.Fields{
				"scanned": scanned, "accepted": accepted, "rejected": rejected,
			}).Info("maritime: ingesting coastline")
		},
	})
	if err != nil {
		return nil, fmt.Errorf("build coastline store: %w", err)
	}

	rings := make([][][][2]float64, len(store.Polygons))
	for i, p := range store.Polygons {
		rings[i] = p.Rings
	}
	if err := e.cache.Save(key, bbox, regionTag, rings); err != nil {
		logrus.WithError(err).Warn("maritime: failed to persist coastline cache")
	}

	e.stores[key] = store
	return store, nil
}

// FindSeaRoute searches for a sequence of waypoints connecting start and
// end without crossing land, maintaining minClearanceKm of coastline
// clearance throughout.
//
// Both endpoints are validated as safe water before the search runs. If
// both fall within YellowSeaBounds, the shared Yellow Sea coastline store
// is used; otherwise a custom store is built (or loaded from cache) for a
// bbox covering both endpoints expanded by max(200, minClearanceKm*5) km.
//
// maxIterations is accepted for external interface compatibility but is
// not forwarded to the search, which enforces its own fixed
// MaxSearchIterations cap; see the design notes for why a caller-supplied
// cap was not wired through the router.
func (e *Engine) FindSeaRoute(start, end Coordinate, stepKm, minClearanceKm float64, maxIterations int) (*RouteResult, error) {
	if stepKm <= 0 {
		stepKm = DefaultStepKm
	}
	if minClearanceKm <= 0 {
		minClearanceKm = DefaultMinClearanceKm
	}

	region, isYellowSea := regionFor(start, end, minClearanceKm)

	store, err := e.storeFor(region, isYellowSea)
	if err != nil {
		return nil, err
	}

	minClearanceDeg := minClearanceKm / grid.KmPerDegree

	startSafe, err := store.IsSafeWater(start.Lon, start.Lat, minClearanceDeg)
	if err != nil {
		return nil, storeErr(err)
	}
	if !startSafe {
		return nil, &EndpointOnLandError{Point: start, Which: "Start"}
	}
	endSafe, err := store.IsSafeWater(end.Lon, end.Lat, minClearanceDeg)
	if err != nil {
		return nil, storeErr(err)
	}
	if !endSafe {
		return nil, &EndpointOnLandError{Point: end, Which: "End"}
	}

	isSafeWater := func(lat, lon float64) bool {
		safe, err := store.IsSafeWater(lon, lat, minClearanceDeg)
		if err != nil {
			return false
		}
		return safe
	}

	path, iterations, visited, err := searchRoute(start, end, stepKm, isSafeWater)
	if err != nil {
		return nil, err
	}

	result := buildRouteResult(start, end, path, stepKm, iterations, visited)
	return &result, nil
}

// storeErr translates a *coastline.ErrStoreNotReady into the package's own
// ErrStoreNotReady so callers never need to import internal/coastline to
// type-switch on it. Other errors pass through unchanged.
func storeErr(err error) error {
	if _, ok := err.(*coastline.ErrStoreNotReady); ok {
		return &ErrStoreNotReady{}
	}
	return err
}

// IsLand reports whether (lat, lon) lies inside a known landmass, loading
// or building the coastline store for the surrounding region as needed. It
// returns ErrStoreNotReady if that region's store holds no geometry, e.g.
// because its polygon source was unavailable.
func (e *Engine) IsLand(lat, lon float64) (bool, error) {
	region, isYellowSea := regionFor(Coordinate{Lat: lat, Lon: lon}, Coordinate{Lat: lat, Lon: lon}, DefaultMinClearanceKm)

	store, err := e.storeFor(region, isYellowSea)
	if err != nil {
		return false, err
	}

	land, err := store.IsLand(lon, lat)
	if err != nil {
		return false, storeErr(err)
	}
	return land, nil
}

// IsSafeWater reports whether (lat, lon) is not land and holds at least
// minClearanceKm of clearance from the nearest coastline. It returns
// ErrStoreNotReady under the same conditions as IsLand.
func (e *Engine) IsSafeWater(lat, lon, minClearanceKm float64) (bool, error) {
	if minClearanceKm <= 0 {
		minClearanceKm = DefaultMinClearanceKm
	}
	region, isYellowSea := regionFor(Coordinate{Lat: lat, Lon: lon}, Coordinate{Lat: lat, Lon: lon}, minClearanceKm)

	store, err := e.storeFor(region, isYellowSea)
	if err != nil {
		return false, err
	}

	safe, err := store.IsSafeWater(lon, lat, minClearanceKm/grid.KmPerDegree)
	if err != nil {
		return false, storeErr(err)
	}
	return safe, nil
}

// regionFor picks the store region for a route request: the shared
// Yellow Sea bbox if both endpoints fall inside it, otherwise a bbox
// covering both endpoints with a clearance-proportional margin.
func regionFor(start, end Coordinate, minClearanceKm float64) (Bounds, bool) {
	if YellowSeaBounds.Contains(start) && YellowSeaBounds.Contains(end) {
		return YellowSeaBounds, true
	}

	marginKm := 200.0
	if scaled := minClearanceKm * 5; scaled > marginKm {
		marginKm = scaled
	}
	marginDeg := marginKm / grid.KmPerDegree

	minLat, maxLat := start.Lat, end.Lat
	if minLat > maxLat {
		minLat, maxLat = maxLat, minLat
	}
	minLon, maxLon := start.Lon, end.Lon
	if minLon > maxLon {
		minLon, maxLon = maxLon, minLon
	}

	region := Bounds{MinLat: minLat, MinLon: minLon, MaxLat: maxLat, MaxLon: maxLon}
	return region.Expand(marginDeg), false
}

var (
	defaultEngineOnce sync.Once
	defaultEngine     *Engine
	defaultEngineErr  error
)

// SetDefaultSourceFactory installs the SourceFactory used by the
// package-level FindSeaRoute convenience function. It must be called
// before the first call to FindSeaRoute; later calls have no effect once
// the default Engine has been built.
func SetDefaultSourceFactory(f SourceFactory) {
	defaultSourceFactory = f
}

var defaultSourceFactory SourceFactory

func defaultEngineInstance() (*Engine, error) {
	defaultEngineOnce.Do(func() {
		if defaultSourceFactory == nil {
			defaultEngineErr = fmt.Errorf("maritime: no default polygon source configured, call SetDefaultSourceFactory")
			return
		}
		defaultEngine, defaultEngineErr = NewEngine(EngineOptions{Source: defaultSourceFactory})
	})
	return defaultEngine, defaultEngineErr
}

// FindSeaRoute is a package-level convenience wrapping a lazily
// initialized, mutex-guarded default Engine. Most callers should prefer
// constructing their own *Engine via NewEngine so they control the
// polygon source and cache path explicitly.
func FindSeaRoute(start, end Coordinate, stepKm, minClearanceKm float64, maxIterations int) (*RouteResult, error) {
	engine, err := defaultEngineInstance()
	if err != nil {
		return nil, err
	}
	return engine.FindSeaRoute(start, end, stepKm, minClearanceKm, maxIterations)
}

// IsLand is a package-level convenience wrapping the same lazily
// initialized default Engine as FindSeaRoute.
func IsLand(lat, lon float64) (bool, error) {
	engine, err := defaultEngineInstance()
	if err != nil {
		return false, err
	}
	return engine.IsLand(lat, lon)
}

// IsSafeWater is a package-level convenience wrapping the same lazily
// initialized default Engine as FindSeaRoute.
func IsSafeWater(lat, lon, minClearanceKm float64) (bool, error) {
	engine, err := defaultEngineInstance()
	if err != nil {
		return false, err
	}
	return engine.IsSafeWater(lat, lon, minClearanceKm)
}
