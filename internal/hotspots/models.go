package hotspots

import (
	"time"
)

// Level is the hotspot severity class
type Level string

const (
	LevelRed    Level = "Red"
	LevelOrange Level = "Orange"
	LevelYellow Level = "Yellow"
)

// Levels lists every class from most to least severe
var Levels = []Level{LevelRed, LevelOrange, LevelYellow}

// Valid reports whether l is a known level
func (l Level) Valid() bool {
	return l == LevelRed || l == LevelOrange || l == LevelYellow
}

// Hotspot is one classified observation
type Hotspot struct {
	ID           string     `db:"id" json:"id"`
	MineName     string     `db:"mine_name" json:"mine_name"`
	State        string     `db:"state" json:"state"`
	District     string     `db:"district" json:"district"`
	Latitude     *float64   `db:"latitude" json:"latitude"`
	Longitude    *float64   `db:"longitude" json:"longitude"`
	CO2          float64    `db:"co2" json:"co2_ppm"`
	CH4          float64    `db:"ch4" json:"ch4_ppm"`
	PM25         float64    `db:"pm25" json:"pm2_5"`
	PM10         float64    `db:"pm10" json:"pm10"`
	Score        float64    `db:"score" json:"emission_score"`
	Level        Level      `db:"category" json:"hotspot_level"`
	ObservedAt   *time.Time `db:"observed_at" json:"observed_at,omitempty"`
	ClassifiedAt time.Time  `db:"classified_at" json:"classified_at"`
}

// HasLocation reports whether both coordinates are present
func (h Hotspot) HasLocation() bool {
	return h.Latitude != nil && h.Longitude != nil
}

// Thresholds are the score cut points of one classification run
type Thresholds struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Low    float64 `json:"low"`
	High   float64 `json:"high"`
}

// Classification is the output of a classifier run
type Classification struct {
	Hotspots   []Hotspot     `json:"-"`
	Thresholds Thresholds    `json:"thresholds"`
	Counts     map[Level]int `json:"counts"`
	Dropped    int           `json:"dropped"`
}

// LevelStats summarises the scores of one level
type LevelStats struct {
	Count    int     `db:"count" json:"count"`
	AvgScore float64 `db:"avg_score" json:"avg_score"`
	MaxScore float64 `db:"max_score" json:"max_score"`
	MinScore float64 `db:"min_score" json:"min_score"`
}

// Stats is the per-level breakdown of the stored hotspots
type Stats struct {
	Levels map[Level]LevelStats `json:"levels"`
	Total  int                  `json:"total"`
}

// LevelCount is the number of hotspots of one level
type LevelCount struct {
	Level Level `json:"level"`
	Count int   `json:"count"`
}

// StateBreakdown counts hotspots per level within a state
type StateBreakdown struct {
	State  string       `json:"state"`
	Levels []LevelCount `json:"levels"`
	Total  int          `json:"total"`
}

// ListFilter narrows and pages a hotspot listing
type ListFilter struct {
	Level    Level
	State    string
	District string
	Page     int
	Limit    int
}

// Page is one page of a filtered listing
type Page struct {
	Page       int       `json:"page"`
	Limit      int       `json:"limit"`
	Total      int       `json:"total"`
	TotalPages int       `json:"total_pages"`
	Count      int       `json:"count"`
	Data       []Hotspot `json:"data"`
}
