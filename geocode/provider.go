package geocode

import (
	"fmt"
	"strings"
	"time"

	"github.com/wxbot/wxbot/core"
)

// ProviderOptions carry the wiring parameters shared by the providers.
type ProviderOptions struct {
	// CensusURL overrides the Census service base URL.
	CensusURL string
	// CSVPath locates the table for the csv provider.
	CSVPath string
	// UserAgent is stamped on outbound requests.
	UserAgent string
	// Timeout bounds remote lookups.
	Timeout time.Duration
}

// NewProvider selects a geocoder by name: "census", "csv" or "demo"
// (the default for empty or unknown names, matching the original
// deployment's behavior of falling back to the offline map).
func NewProvider(name string, optFns ...func(o *ProviderOptions)) (core.Geocoder, error) {
	opts := ProviderOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}

	switch strings.ToLower(strings.TrimSpace(name)) {
	case "census":
		return NewCensusGeocoder(func(o *CensusOptions) {
			if opts.CensusURL != "" {
				o.BaseURL = opts.CensusURL
			}
			if opts.UserAgent != "" {
				o.UserAgent = opts.UserAgent
			}
			if opts.Timeout > 0 {
				o.Timeout = opts.Timeout
			}
		}), nil
	case "csv", "local":
		if opts.CSVPath == "" {
			return nil, fmt.Errorf("csv geocoder requires a table path")
		}
		return NewLocalCSVGeocoder(opts.CSVPath)
	default:
		return NewDemoGeocoder(), nil
	}
}
