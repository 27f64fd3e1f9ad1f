package hotspots

import (
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"carbon-offset/offset-portal/offset-portal-backend/internal/dataset"
)

// Score weights per pollutant
const (
	weightCO2  = 0.4
	weightCH4  = 0.3
	weightPM25 = 0.15
	weightPM10 = 0.15

	// Thresholds sit this many standard deviations either side of the mean.
	thresholdSpread = 0.5
)

// ErrNoCompleteRows means no observation carried all four pollutants
var ErrNoCompleteRows = errors.New("no observations with complete pollutant readings")

// Score is the weighted emission score of one observation
func Score(o dataset.EmissionObservation) float64 {
	return weightCO2*o.CO2 + weightCH4*o.CH4 + weightPM25*o.PM25 + weightPM10*o.PM10
}

func complete(o dataset.EmissionObservation) bool {
	for _, v := range [...]float64{o.CO2, o.CH4, o.PM25, o.PM10} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Classify scores every complete observation and assigns a level relative
// to the batch: above mean+0.5sd is Red, above mean-0.5sd is Orange, and the
// rest Yellow. The standard deviation is the sample estimate; with a single
// row it is taken as zero.
func Classify(rows []dataset.EmissionObservation, now time.Time) (*Classification, error) {
	kept := make([]dataset.EmissionObservation, 0, len(rows))
	for _, o := range rows {
		if complete(o) {
			kept = append(kept, o)
		}
	}
	if len(kept) == 0 {
		return nil, ErrNoCompleteRows
	}

	scores := make([]float64, len(kept))
	for i, o := range kept {
		scores[i] = Score(o)
	}

	mean, std := stat.MeanStdDev(scores, nil)
	if len(scores) < 2 || math.IsNaN(std) {
		std = 0
	}
	th := Thresholds{
		Mean:   mean,
		StdDev: std,
		Low:    mean - thresholdSpread*std,
		High:   mean + thresholdSpread*std,
	}

	result := &Classification{
		Hotspots:   make([]Hotspot, len(kept)),
		Thresholds: th,
		Counts:     map[Level]int{LevelRed: 0, LevelOrange: 0, LevelYellow: 0},
		Dropped:    len(rows) - len(kept),
	}
	for i, o := range kept {
		level := th.levelOf(scores[i])
		result.Counts[level]++
		result.Hotspots[i] = Hotspot{
			ID:           uuid.New().String(),
			MineName:     o.SiteName,
			State:        o.State,
			District:     o.District,
			Latitude:     coordinate(o.Latitude),
			Longitude:    coordinate(o.Longitude),
			CO2:          o.CO2,
			CH4:          o.CH4,
			PM25:         o.PM25,
			PM10:         o.PM10,
			Score:        scores[i],
			Level:        level,
			ObservedAt:   o.Date,
			ClassifiedAt: now,
		}
	}
	return result, nil
}

func (t Thresholds) levelOf(score float64) Level {
	switch {
	case score > t.High:
		return LevelRed
	case score > t.Low:
		return LevelOrange
	default:
		return LevelYellow
	}
}

func coordinate(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
