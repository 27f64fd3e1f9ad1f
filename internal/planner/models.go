package planner

import (
	"fmt"
	"time"
)

// Status markers carried in Metadata.Status
const (
	StatusSuccess    = "success"
	StatusSimulation = "Simulation Mode"
)

// Land status values
const (
	LandCritical  = "CRITICAL"
	LandAvailable = "AVAILABLE"
)

// OffsetPlan is the full planning result for one site
type OffsetPlan struct {
	Metadata          Metadata          `json:"mine_metadata"`
	KPIs              KPIs              `json:"kpis"`
	TreePlan          TreePlan          `json:"tree_plan"`
	WasteToWealth     WasteToWealth     `json:"waste_to_wealth"`
	CarbonCredits     CarbonCredits     `json:"carbon_credits"`
	WaterConservation WaterConservation `json:"water_conservation"`
	Scenarios         Scenarios         `json:"what_if_scenarios"`
	Graphs            Graphs            `json:"graphs"`
}

type Metadata struct {
	MineName string   `json:"mine_name"`
	District string   `json:"district"`
	State    string   `json:"state"`
	Status   string   `json:"status"`
	Warnings []string `json:"warnings,omitempty"`
}

type KPIs struct {
	AnnualOffsetTargetTonnes float64 `json:"annual_offset_target_tonnes"`
	TotalTreesRequired       int64   `json:"total_trees_required"`
	EstimatedBudgetINR       float64 `json:"estimated_budget_inr"`
	LandRequiredHa           float64 `json:"land_required_ha"`
	LandAvailableHa          float64 `json:"land_available_ha"`
	LandStatus               string  `json:"land_status"`
	TotalOffsetAchieved      float64 `json:"total_offset_achieved"`
}

// SpeciesAllocation is one species' share of the planting plan.
// ASRPerTreeKg is kilograms of CO2 per tree per year.
type SpeciesAllocation struct {
	Count                    int64   `json:"count"`
	TotalCost                float64 `json:"total_cost"`
	ASRPerTreeKg             float64 `json:"asr_per_tree"`
	OffsetContributionTonnes float64 `json:"offset_contribution_tonnes"`
}

type TreePlan struct {
	Teak    SpeciesAllocation `json:"teak"`
	Acacia  SpeciesAllocation `json:"acacia"`
	Pioneer SpeciesAllocation `json:"pioneer"`
}

// TotalCount sums the species counts
func (t TreePlan) TotalCount() int64 {
	return t.Teak.Count + t.Acacia.Count + t.Pioneer.Count
}

type WasteToWealth struct {
	AnnualMethaneCapturedKg float64 `json:"annual_methane_captured_kg"`
	EthanolProductionLitres float64 `json:"ethanol_production_litres"`
	WaterRequiredLitres     float64 `json:"water_required_litres"`
	EstimatedRevenueINR     float64 `json:"estimated_revenue_inr"`
}

type CarbonCredits struct {
	TotalOffsetCreditsTonnes float64 `json:"total_offset_credits_tonnes"`
	MarketPricePerCreditINR  float64 `json:"market_price_per_credit_inr"`
	TotalRevenuePotentialINR float64 `json:"total_revenue_potential_inr"`
}

type WaterConservation struct {
	TotalWaterConservedKilolitres float64 `json:"total_water_conserved_kilolitres"`
	Status                        string  `json:"status"`
}

type Scenario struct {
	TotalTrees   int64   `json:"total_trees"`
	TotalCost    float64 `json:"total_cost"`
	OffsetTonnes float64 `json:"offset_tonnes"`
}

type Scenarios struct {
	LowBudget      Scenario `json:"low_budget"`
	HighEfficiency Scenario `json:"high_efficiency"`
}

type Graphs struct {
	MonthlyEmissions []EmissionPoint `json:"monthly_emissions"`
}

// EmissionPoint is the mean emission index of one calendar month
type EmissionPoint struct {
	MonthYear     Month   `json:"month_year"`
	EmissionIndex float64 `json:"emission_index"`
}

// Month is a calendar month period, rendered as YYYY-MM
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf truncates t to its calendar month
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

func (m Month) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Month) UnmarshalText(text []byte) error {
	t, err := time.Parse("2006-01", string(text))
	if err != nil {
		return fmt.Errorf("invalid month %q: %w", text, err)
	}
	*m = MonthOf(t)
	return nil
}

// Before orders months chronologically
func (m Month) Before(o Month) bool {
	if m.Year != o.Year {
		return m.Year < o.Year
	}
	return m.Month < o.Month
}
