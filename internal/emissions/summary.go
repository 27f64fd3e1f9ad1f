package emissions

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"carbon-offset/offset-portal/offset-portal-backend/internal/dataset"
)

// Column keys of the overall average document
const (
	KeyCO2  = "CO2_ppm"
	KeyCH4  = "CH4_ppm"
	KeySO2  = "SO2_ppm"
	KeyNOx  = "NOx_ppm"
	KeyPM25 = "PM2_5"
	KeyPM10 = "PM10"
)

var monthAbbrev = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

func gases(o dataset.EmissionObservation) [6]float64 {
	return [6]float64{o.CO2, o.CH4, o.SO2, o.NOx, o.PM25, o.PM10}
}

var gasKeys = [6]string{KeyCO2, KeyCH4, KeySO2, KeyNOx, KeyPM25, KeyPM10}

// BuildSummaries averages the gas columns overall and per calendar month.
// Rows without a date or missing any gas reading are left out. Every
// value is rounded to two decimals.
func BuildSummaries(rows []dataset.EmissionObservation, now time.Time) *Summaries {
	var (
		columns [6][]float64
		monthly [12][4][]float64
		used    int
	)
	for _, o := range rows {
		g := gases(o)
		if o.Date == nil || !allFinite(g[:]) {
			continue
		}
		used++
		for i, v := range g {
			columns[i] = append(columns[i], v)
		}
		m := o.Date.Month() - 1
		for i, v := range [4]float64{o.CO2, o.CH4, o.PM25, o.PM10} {
			monthly[m][i] = append(monthly[m][i], v)
		}
	}

	out := &Summaries{
		Monthly: make([]MonthlySummary, 12),
		Used:    used,
		Dropped: len(rows) - used,
	}
	if used > 0 {
		out.Overall = &OverallSummary{Averages: make(map[string]float64, len(gasKeys)), IngestedAt: now}
		for i, key := range gasKeys {
			out.Overall.Averages[key] = round2(stat.Mean(columns[i], nil))
		}
	}
	for m := range monthly {
		out.Monthly[m] = MonthlySummary{
			Position:   m,
			Month:      monthAbbrev[m],
			CO2:        meanOf(monthly[m][0]),
			CH4:        meanOf(monthly[m][1]),
			PM25:       meanOf(monthly[m][2]),
			PM10:       meanOf(monthly[m][3]),
			IngestedAt: now,
		}
	}
	return out
}

func meanOf(xs []float64) *float64 {
	if len(xs) == 0 {
		return nil
	}
	v := round2(stat.Mean(xs, nil))
	return &v
}

func allFinite(xs []float64) bool {
	for _, v := range xs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func round2(x float64) float64 {
	return math.RoundToEven(x*100) / 100
}
