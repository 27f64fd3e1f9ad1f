package dataset

import (
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// UnknownSite names rows that carry neither a site nor a district
const UnknownSite = "Unknown Mine"

// dateLayouts are tried in order. Ambiguous numeric dates read month first
// whatever the separator.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006/01/02",
	"01/02/2006",
	"01-02-2006",
	"2006-01",
	"Jan 2006",
}

// NormalizeName trims and title-cases a region, district or site name
func NormalizeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	// Casers keep state, so one per call.
	return cases.Title(language.Und).String(s)
}

// SiteNameFor synthesises a site name from its district
func SiteNameFor(district string) string {
	if district == "" {
		return UnknownSite
	}
	return district + " Mine"
}

// ParseDate returns nil for anything it cannot read
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// ParseNumber returns NaN for empty or malformed cells
func ParseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

var headerAliases = map[string]string{
	"ndvi":                "vegetation_index",
	"co2e_stock_t_ha":     "carbon_stock_per_ha",
	"carbon_stock":        "carbon_stock_per_ha",
	"mine":                "mine_name",
	"site_name":           "mine_name",
	"region":              "state",
	"co2":                 "co2_ppm",
	"ch4":                 "ch4_ppm",
	"so2":                 "so2_ppm",
	"nox":                 "nox_ppm",
	"pm2.5":               "pm2_5",
	"pm25":                "pm2_5",
	"lat":                 "latitude",
	"lon":                 "longitude",
	"lng":                 "longitude",
	"available_land":      "available_land_ha",
	"max_teak_percentage": "max_teak_pct",
}

// byteOrderMark prefixes the first header of spreadsheet-exported CSVs
const byteOrderMark = "\ufeff"

// CanonicalHeader maps a raw column header to the name used internally
func CanonicalHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, byteOrderMark)))
	h = strings.Join(strings.Fields(h), "_")
	if alias, ok := headerAliases[h]; ok {
		return alias
	}
	return h
}
