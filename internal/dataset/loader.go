package dataset

import (
	"context"
	"fmt"
	"strings"
)

// Sources names the three dataset URIs
type Sources struct {
	Emissions string
	Training  string
	Registry  string
}

// Load reads and normalises all three datasets.
// An absent source yields *MissingDataSourceError.
func Load(ctx context.Context, src Sources, opener Opener) (*Tables, error) {
	emissions, err := readSource(ctx, opener, "emissions", src.Emissions)
	if err != nil {
		return nil, err
	}
	training, err := readSource(ctx, opener, "training", src.Training)
	if err != nil {
		return nil, err
	}
	registry, err := readSource(ctx, opener, "registry", src.Registry)
	if err != nil {
		return nil, err
	}

	return &Tables{
		Emissions:  buildEmissions(emissions),
		Ecological: buildEcological(training),
		Registry:   buildRegistry(registry),
	}, nil
}

func readSource(ctx context.Context, opener Opener, name, uri string) (*table, error) {
	if strings.TrimSpace(uri) == "" {
		return nil, &MissingDataSourceError{Source: name, URI: uri, Err: fmt.Errorf("no location configured")}
	}

	rc, err := opener.Open(ctx, uri)
	if err != nil {
		if isMissing(err) {
			return nil, &MissingDataSourceError{Source: name, URI: uri, Err: err}
		}
		return nil, fmt.Errorf("failed to open %s dataset: %w", name, err)
	}
	defer rc.Close()

	records, err := readRecords(uri, rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s dataset: %w", name, err)
	}
	return newTable(records), nil
}

func buildEmissions(t *table) EmissionsTable {
	out := EmissionsTable{
		Rows:             make([]EmissionObservation, 0, len(t.rows)),
		HasDate:          t.has("date"),
		HasEmissionIndex: t.has("emission_index"),
		HasPollutants:    t.has("co2_ppm") && t.has("ch4_ppm") && t.has("pm2_5") && t.has("pm10"),
		HasCoordinates:   t.has("latitude") && t.has("longitude"),
	}
	hasSite := t.has("mine_name")

	for _, row := range t.rows {
		obs := EmissionObservation{
			State:         NormalizeName(t.get(row, "state")),
			District:      NormalizeName(t.get(row, "district")),
			Date:          ParseDate(t.get(row, "date")),
			EmissionIndex: t.number(row, "emission_index"),
			CO2:           t.number(row, "co2_ppm"),
			CH4:           t.number(row, "ch4_ppm"),
			SO2:           t.number(row, "so2_ppm"),
			NOx:           t.number(row, "nox_ppm"),
			PM25:          t.number(row, "pm2_5"),
			PM10:          t.number(row, "pm10"),
			Latitude:      t.number(row, "latitude"),
			Longitude:     t.number(row, "longitude"),
		}

		site := ""
		if hasSite {
			site = t.get(row, "mine_name")
		}
		if strings.TrimSpace(site) == "" {
			site = SiteNameFor(obs.District)
		}
		obs.SiteName = NormalizeName(site)

		out.Rows = append(out.Rows, obs)
	}
	return out
}

func buildEcological(t *table) []EcologicalSample {
	samples := make([]EcologicalSample, 0, len(t.rows))
	for _, row := range t.rows {
		samples = append(samples, EcologicalSample{
			Region:          NormalizeName(t.get(row, "state")),
			MaxHeight:       t.number(row, "max_height"),
			VegetationIndex: t.number(row, "vegetation_index"),
			AgeYears:        t.number(row, "age_years"),
			CarbonStock:     t.number(row, "carbon_stock_per_ha"),
		})
	}
	return samples
}

func buildRegistry(t *table) *Registry {
	profiles := make([]OperationalProfile, 0, len(t.rows))
	for _, row := range t.rows {
		name := NormalizeName(t.get(row, "mine_name"))
		if name == "" {
			continue
		}
		profiles = append(profiles, OperationalProfile{
			SiteName:        name,
			AvailableLandHa: t.number(row, "available_land_ha"),
			CostTeak:        t.number(row, "cost_teak"),
			CostAcacia:      t.number(row, "cost_acacia"),
			CostPioneer:     t.number(row, "cost_pioneer"),
			MaxTeakFraction: t.number(row, "max_teak_pct"),
		})
	}
	return NewRegistry(profiles)
}
