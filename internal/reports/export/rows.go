package export

import (
	"carbon-offset/offset-portal/offset-portal-backend/internal/planner"
)

// Column names shared by the tabular exporters
var (
	MetricColumns   = []string{"section", "metric", "value"}
	SpeciesColumns  = []string{"species", "count", "total_cost", "asr_per_tree", "offset_contribution_tonnes"}
	EmissionColumns = []string{"month_year", "emission_index"}
)

// metricRows flattens the scalar sections of a plan into section/metric/value rows
func metricRows(plan *planner.OffsetPlan) []map[string]interface{} {
	row := func(section, metric string, value interface{}) map[string]interface{} {
		return map[string]interface{}{"section": section, "metric": metric, "value": value}
	}
	k := plan.KPIs
	rows := []map[string]interface{}{
		row("mine_metadata", "mine_name", plan.Metadata.MineName),
		row("mine_metadata", "district", plan.Metadata.District),
		row("mine_metadata", "state", plan.Metadata.State),
		row("mine_metadata", "status", plan.Metadata.Status),
		row("kpis", "annual_offset_target_tonnes", k.AnnualOffsetTargetTonnes),
		row("kpis", "total_trees_required", k.TotalTreesRequired),
		row("kpis", "estimated_budget_inr", k.EstimatedBudgetINR),
		row("kpis", "land_required_ha", k.LandRequiredHa),
		row("kpis", "land_available_ha", k.LandAvailableHa),
		row("kpis", "land_status", k.LandStatus),
		row("kpis", "total_offset_achieved", k.TotalOffsetAchieved),
		row("waste_to_wealth", "annual_methane_captured_kg", plan.WasteToWealth.AnnualMethaneCapturedKg),
		row("waste_to_wealth", "ethanol_production_litres", plan.WasteToWealth.EthanolProductionLitres),
		row("waste_to_wealth", "water_required_litres", plan.WasteToWealth.WaterRequiredLitres),
		row("waste_to_wealth", "estimated_revenue_inr", plan.WasteToWealth.EstimatedRevenueINR),
		row("carbon_credits", "total_offset_credits_tonnes", plan.CarbonCredits.TotalOffsetCreditsTonnes),
		row("carbon_credits", "market_price_per_credit_inr", plan.CarbonCredits.MarketPricePerCreditINR),
		row("carbon_credits", "total_revenue_potential_inr", plan.CarbonCredits.TotalRevenuePotentialINR),
		row("water_conservation", "total_water_conserved_kilolitres", plan.WaterConservation.TotalWaterConservedKilolitres),
		row("water_conservation", "status", plan.WaterConservation.Status),
		row("what_if_scenarios.low_budget", "total_trees", plan.Scenarios.LowBudget.TotalTrees),
		row("what_if_scenarios.low_budget", "total_cost", plan.Scenarios.LowBudget.TotalCost),
		row("what_if_scenarios.low_budget", "offset_tonnes", plan.Scenarios.LowBudget.OffsetTonnes),
		row("what_if_scenarios.high_efficiency", "total_trees", plan.Scenarios.HighEfficiency.TotalTrees),
		row("what_if_scenarios.high_efficiency", "total_cost", plan.Scenarios.HighEfficiency.TotalCost),
		row("what_if_scenarios.high_efficiency", "offset_tonnes", plan.Scenarios.HighEfficiency.OffsetTonnes),
	}
	for _, w := range plan.Metadata.Warnings {
		rows = append(rows, row("mine_metadata", "warning", w))
	}
	return rows
}

func speciesRows(plan *planner.OffsetPlan) []map[string]interface{} {
	species := []struct {
		name  string
		alloc planner.SpeciesAllocation
	}{
		{"teak", plan.TreePlan.Teak},
		{"acacia", plan.TreePlan.Acacia},
		{"pioneer", plan.TreePlan.Pioneer},
	}
	rows := make([]map[string]interface{}, 0, len(species))
	for _, s := range species {
		rows = append(rows, map[string]interface{}{
			"species":                    s.name,
			"count":                      s.alloc.Count,
			"total_cost":                 s.alloc.TotalCost,
			"asr_per_tree":               s.alloc.ASRPerTreeKg,
			"offset_contribution_tonnes": s.alloc.OffsetContributionTonnes,
		})
	}
	return rows
}

func emissionRows(plan *planner.OffsetPlan) []map[string]interface{} {
	rows := make([]map[string]interface{}, 0, len(plan.Graphs.MonthlyEmissions))
	for _, p := range plan.Graphs.MonthlyEmissions {
		rows = append(rows, map[string]interface{}{
			"month_year":     p.MonthYear.String(),
			"emission_index": p.EmissionIndex,
		})
	}
	return rows
}
