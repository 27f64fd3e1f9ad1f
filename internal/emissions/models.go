package emissions

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Collection names in the document store
const (
	CollectionRecords  = "emission_records"
	CollectionMonthly  = "monthly_emissions"
	CollectionAverages = "overall_averages"
)

// Record is one model-generated emission estimate for a mine, in tonnes
type Record struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	MineID        string             `bson:"mine_id" json:"mine_id"`
	MineName      string             `bson:"mine_name" json:"mine_name"`
	Date          time.Time          `bson:"date" json:"date"`
	CO2Tons       float64            `bson:"co2_tons" json:"co2_tons"`
	CH4Tons       float64            `bson:"ch4_tons" json:"ch4_tons"`
	TotalCarbonEq float64            `bson:"total_carbon_eq" json:"total_carbon_eq"`
	ModelVersion  string             `bson:"model_version,omitempty" json:"model_version,omitempty"`
}

// RecordInput is the payload accepted by the data upload endpoint
type RecordInput struct {
	MineID        string     `json:"mine_id" binding:"required"`
	MineName      string     `json:"mine_name" binding:"required"`
	Date          *time.Time `json:"date,omitempty"`
	CO2Tons       *float64   `json:"co2_tons" binding:"required"`
	CH4Tons       *float64   `json:"ch4_tons" binding:"required"`
	TotalCarbonEq *float64   `json:"total_carbon_eq" binding:"required"`
	ModelVersion  string     `json:"model_version,omitempty"`
}

// MonthlySummary is the mean gas concentration for one calendar month.
// A month without observations keeps nil readings.
type MonthlySummary struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Position   int                `bson:"position" json:"-"`
	Month      string             `bson:"Month" json:"Month"`
	CO2        *float64           `bson:"CO2_ppm" json:"CO2_ppm"`
	CH4        *float64           `bson:"CH4_ppm" json:"CH4_ppm"`
	PM25       *float64           `bson:"PM2_5" json:"PM2_5"`
	PM10       *float64           `bson:"PM10" json:"PM10"`
	IngestedAt time.Time          `bson:"ingested_at" json:"ingested_at"`
}

// OverallSummary holds the all-time mean of every gas column
type OverallSummary struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Averages   map[string]float64 `bson:"average_emissions_ppm" json:"average_emissions_ppm"`
	IngestedAt time.Time          `bson:"ingested_at" json:"ingested_at"`
}

// UploadResult reports a monthly summary replacement
type UploadResult struct {
	Status        string    `json:"status"`
	InsertedCount int       `json:"inserted_count"`
	Collection    string    `json:"collection"`
	Timestamp     time.Time `json:"timestamp"`
}

// Summaries is the output of a summary rebuild
type Summaries struct {
	Monthly []MonthlySummary
	Overall *OverallSummary
	Used    int
	Dropped int
}
