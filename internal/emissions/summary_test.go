package emissions

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carbon-offset/offset-portal/offset-portal-backend/internal/dataset"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func reading(month time.Month, co2, ch4, pm25, pm10 float64) dataset.EmissionObservation {
	d := time.Date(2023, month, 15, 0, 0, 0, 0, time.UTC)
	return dataset.EmissionObservation{
		SiteName: "Angul Mine",
		Date:     &d,
		CO2:      co2,
		CH4:      ch4,
		SO2:      1,
		NOx:      2,
		PM25:     pm25,
		PM10:     pm10,
	}
}

func TestBuildSummaries(t *testing.T) {
	undated := reading(time.May, 999, 999, 999, 999)
	undated.Date = nil
	partial := reading(time.May, 999, 999, 999, 999)
	partial.SO2 = math.NaN()

	rows := []dataset.EmissionObservation{
		reading(time.January, 400, 2, 50, 100),
		reading(time.January, 410, 3, 60, 110),
		reading(time.March, 420.556, 4, 70, 120),
		undated,
		partial,
	}

	s := BuildSummaries(rows, fixedNow)
	assert.Equal(t, 3, s.Used)
	assert.Equal(t, 2, s.Dropped)

	require.Len(t, s.Monthly, 12)
	jan := s.Monthly[0]
	assert.Equal(t, "Jan", jan.Month)
	require.NotNil(t, jan.CO2)
	assert.Equal(t, 405.0, *jan.CO2)
	assert.Equal(t, 2.5, *jan.CH4)
	assert.Equal(t, 55.0, *jan.PM25)
	assert.Equal(t, 105.0, *jan.PM10)

	assert.Equal(t, "Feb", s.Monthly[1].Month)
	assert.Nil(t, s.Monthly[1].CO2)

	mar := s.Monthly[2]
	assert.InDelta(t, 420.56, *mar.CO2, 1e-9)
	assert.Equal(t, "Dec", s.Monthly[11].Month)
	assert.Equal(t, 11, s.Monthly[11].Position)

	require.NotNil(t, s.Overall)
	assert.Equal(t, fixedNow, s.Overall.IngestedAt)
	assert.InDelta(t, 410.19, s.Overall.Averages[KeyCO2], 1e-9)
	assert.Equal(t, 3.0, s.Overall.Averages[KeyCH4])
	assert.Equal(t, 1.0, s.Overall.Averages[KeySO2])
	assert.Equal(t, 2.0, s.Overall.Averages[KeyNOx])
	assert.Len(t, s.Overall.Averages, 6)
}

func TestBuildSummaries_NoUsableRows(t *testing.T) {
	s := BuildSummaries(nil, fixedNow)
	assert.Nil(t, s.Overall)
	assert.Len(t, s.Monthly, 12)
}
