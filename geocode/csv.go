package geocode

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/wxbot/wxbot/core"
)

// LocalCSVGeocoder resolves against a CSV table loaded once at construction.
// The file carries one "name,lat,lon" row per location; a header row is
// skipped when the lat column does not parse. Useful for air-gapped
// deployments with a curated location list.
type LocalCSVGeocoder struct {
	path      string
	locations map[string]core.Coordinates
}

var _ core.Geocoder = (*LocalCSVGeocoder)(nil)

// NewLocalCSVGeocoder loads the table from path.
func NewLocalCSVGeocoder(path string) (*LocalCSVGeocoder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open geocode table: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = 3
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read geocode table: %w", err)
	}

	locations := make(map[string]core.Coordinates, len(rows))
	for i, row := range rows {
		lat, latErr := strconv.ParseFloat(strings.TrimSpace(row[1]), 64)
		lon, lonErr := strconv.ParseFloat(strings.TrimSpace(row[2]), 64)
		if latErr != nil || lonErr != nil {
			if i == 0 {
				continue // header row
			}
			return nil, fmt.Errorf("geocode table row %d: bad coordinates", i+1)
		}
		locations[strings.ToLower(strings.TrimSpace(row[0]))] = core.Coordinates{Lat: lat, Lon: lon}
	}
	return &LocalCSVGeocoder{path: path, locations: locations}, nil
}

// Name identifies the provider for health reporting.
func (g *LocalCSVGeocoder) Name() string { return "csv" }

// Resolve matches the location case-insensitively against the loaded table.
func (g *LocalCSVGeocoder) Resolve(_ context.Context, location string) (core.Coordinates, error) {
	coords, ok := g.locations[strings.ToLower(strings.TrimSpace(location))]
	if !ok {
		return core.Coordinates{}, core.ErrLocationNotFound
	}
	return coords, nil
}
