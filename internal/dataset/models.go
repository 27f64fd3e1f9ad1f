package dataset

import (
	"math"
	"time"
)

// EmissionObservation is one row of the emissions time series
type EmissionObservation struct {
	SiteName      string
	State         string
	District      string
	Date          *time.Time
	EmissionIndex float64

	// Optional readings, NaN when the source has no such column
	CO2       float64
	CH4       float64
	SO2       float64
	NOx       float64
	PM25      float64
	PM10      float64
	Latitude  float64
	Longitude float64
}

// EcologicalSample is one labelled training row for a region
type EcologicalSample struct {
	Region          string
	MaxHeight       float64
	VegetationIndex float64
	AgeYears        float64
	CarbonStock     float64
}

// Features returns the regressor inputs in training order
func (s EcologicalSample) Features() []float64 {
	return []float64{s.MaxHeight, s.VegetationIndex, s.AgeYears}
}

// Complete reports whether every feature and the target are finite
func (s EcologicalSample) Complete() bool {
	for _, v := range [...]float64{s.MaxHeight, s.VegetationIndex, s.AgeYears, s.CarbonStock} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// OperationalProfile holds the land and cost constraints of a site
type OperationalProfile struct {
	SiteName        string
	AvailableLandHa float64
	CostTeak        float64
	CostAcacia      float64
	CostPioneer     float64
	MaxTeakFraction float64
}

// DefaultProfile is used for sites absent from the registry
func DefaultProfile() OperationalProfile {
	return OperationalProfile{
		AvailableLandHa: 500,
		CostTeak:        8,
		CostAcacia:      5,
		CostPioneer:     4,
		MaxTeakFraction: 0.50,
	}
}

// Valid reports whether the numeric fields needed for planning are usable
func (p OperationalProfile) Valid() bool {
	for _, v := range [...]float64{p.AvailableLandHa, p.CostTeak, p.CostAcacia, p.CostPioneer} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// EmissionsTable is the normalised emissions dataset
type EmissionsTable struct {
	Rows []EmissionObservation

	HasDate          bool
	HasEmissionIndex bool
	HasPollutants    bool
	HasCoordinates   bool
}

// Registry indexes operational profiles by normalised site name
type Registry struct {
	profiles map[string]OperationalProfile
	order    []string
}

// NewRegistry builds a registry; the first profile for a name wins
func NewRegistry(profiles []OperationalProfile) *Registry {
	r := &Registry{profiles: make(map[string]OperationalProfile, len(profiles))}
	for _, p := range profiles {
		if _, seen := r.profiles[p.SiteName]; seen {
			continue
		}
		r.profiles[p.SiteName] = p
		r.order = append(r.order, p.SiteName)
	}
	return r
}

// Lookup finds a profile by exact site name
func (r *Registry) Lookup(site string) (OperationalProfile, bool) {
	if r == nil {
		return OperationalProfile{}, false
	}
	p, ok := r.profiles[site]
	return p, ok
}

// Len returns the number of distinct sites
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.order)
}

// Tables bundles the three datasets loaded at startup
type Tables struct {
	Emissions  EmissionsTable
	Ecological []EcologicalSample
	Registry   *Registry
}

// Sites returns distinct site names in order of first appearance
func (t *Tables) Sites() []string {
	seen := make(map[string]struct{})
	var sites []string
	for _, row := range t.Emissions.Rows {
		if _, ok := seen[row.SiteName]; ok {
			continue
		}
		seen[row.SiteName] = struct{}{}
		sites = append(sites, row.SiteName)
	}
	return sites
}
