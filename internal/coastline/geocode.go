package coastline

import (
	"context"
	"fmt"
	"os"

	"googlemaps.github.io/maps"
)

// ErrConfigMissing indicates a required external credential was not
// configured.
type ErrConfigMissing struct {
	Variable string
}

func (e *ErrConfigMissing) Error() string {
	return fmt.Sprintf("missing required configuration: %s", e.Variable)
}

// landIndicatorTypes are reverse-geocode result types that, per the
// heuristic this corroborates against, indicate the coordinate resolves
// to a street-level address rather than open water.
var landIndicatorTypes = map[string]bool{
	"route":          true,
	"street_address": true,
	"premise":        true,
	"intersection":   true,
}

// Corroborator is an optional, independent land/water signal backed by
// the Google Maps reverse-geocoding API. It never participates in the
// planner's own routing decisions; it exists for callers who want a
// second opinion on a coordinate's classification.
type Corroborator struct {
	client *maps.Client
}

// NewCorroborator builds a Corroborator from the GOOGLE_MAPS_API_KEY
// environment variable. It returns ErrConfigMissing if the variable is
// unset.
func NewCorroborator() (*Corroborator, error) {
	key := os.Getenv("GOOGLE_MAPS_API_KEY")
	if key == "" {
		return nil, &ErrConfigMissing{Variable: "GOOGLE_MAPS_API_KEY"}
	}

	client, err := maps.NewClient(maps.WithAPIKey(key))
	if err != nil {
		return nil, fmt.Errorf("build maps client: %w", err)
	}
	return &Corroborator{client: client}, nil
}

// IsLikelyLand reverse-geocodes (lat, lon) and reports whether any result
// carries a land-indicating type.
func (c *Corroborator) IsLikelyLand(ctx context.Context, lat, lon float64) (bool, error) {
	results, err := c.client.ReverseGeocode(ctx, &maps.GeocodingRequest{
		LatLng: &maps.LatLng{Lat: lat, Lng: lon},
	})
	if err != nil {
		return false, fmt.Errorf("reverse geocode: %w", err)
	}

	for _, result := range results {
		for _, t := range result.Types {
			if landIndicatorTypes[t] {
				return true, nil
			}
		}
	}
	return false, nil
}
