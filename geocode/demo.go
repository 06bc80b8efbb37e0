package geocode

import (
	"context"
	"strings"

	"github.com/wxbot/wxbot/core"
)

// demoCities is a tiny static map for offline and development usage.
var demoCities = map[string]core.Coordinates{
	"Austin, TX":      {Lat: 30.2672, Lon: -97.7431},
	"San Marcos, TX":  {Lat: 29.8833, Lon: -97.9414},
	"San Antonio, TX": {Lat: 29.4241, Lon: -98.4936},
	"Dallas, TX":      {Lat: 32.7767, Lon: -96.7970},
}

// demoZips maps a few ZIP codes onto the closest demo city.
var demoZips = map[string]string{
	"78701": "Austin, TX",
	"78705": "Austin, TX",
	"78666": "San Marcos, TX",
	"78205": "San Antonio, TX",
	"75201": "Dallas, TX",
}

// DemoGeocoder resolves against the built-in city table. It never performs
// I/O, which makes it the default provider for demos and tests.
type DemoGeocoder struct{}

var _ core.Geocoder = DemoGeocoder{}

// NewDemoGeocoder returns the static demo provider.
func NewDemoGeocoder() DemoGeocoder { return DemoGeocoder{} }

// Name identifies the provider for health reporting.
func (DemoGeocoder) Name() string { return "demo" }

// Resolve matches the location case-insensitively against the demo table,
// accepting known ZIP codes as aliases for their city.
func (DemoGeocoder) Resolve(_ context.Context, location string) (core.Coordinates, error) {
	key := strings.TrimSpace(location)
	if key == "" {
		return core.Coordinates{}, core.ErrLocationNotFound
	}
	for name, coords := range demoCities {
		if strings.EqualFold(name, key) {
			return coords, nil
		}
	}
	if city, ok := demoZips[key]; ok {
		return demoCities[city], nil
	}
	return core.Coordinates{}, core.ErrLocationNotFound
}
