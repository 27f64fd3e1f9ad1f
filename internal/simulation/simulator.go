// Package simulation produces deterministic synthetic offset plans for when
// the model-backed planner cannot serve a request.
package simulation

import (
	"math"
	"time"
	"unicode/utf8"

	"carbon-offset/offset-portal/offset-portal-backend/internal/planner"
)

const (
	baseTarget     = 150000.0
	targetPerRune  = 1000.0
	emptyQuerySeed = 5

	treesPerTonne = 1.2
	costPerTree   = 150.0
	treesPerHa    = 1000.0
	landHeadroom  = 1.2
	achievedShare = 0.9

	defaultDistrict = "Angul"
	defaultState    = "Odisha"
	unknownSite     = "Unknown"
)

// Pioneer takes whatever teak and acacia leave, so counts sum to the total.
const (
	teakShare   = 0.40
	acaciaShare = 0.30
)

// Simulate never fails. The plan depends only on the length of query.
func Simulate(query string) *planner.OffsetPlan {
	seed := utf8.RuneCountInString(query)
	if seed == 0 {
		seed = emptyQuerySeed
	}
	target := baseTarget + targetPerRune*float64(seed)
	trees := int64(math.Round(target * treesPerTonne))
	budget := float64(trees) * costPerTree
	landRequired := float64(trees) / treesPerHa

	name := query
	if name == "" {
		name = unknownSite
	}

	teak := int64(math.Round(float64(trees) * teakShare))
	acacia := int64(math.Round(float64(trees) * acaciaShare))
	pioneer := trees - teak - acacia

	return &planner.OffsetPlan{
		Metadata: planner.Metadata{
			MineName: name,
			District: defaultDistrict,
			State:    defaultState,
			Status:   planner.StatusSimulation,
		},
		KPIs: planner.KPIs{
			AnnualOffsetTargetTonnes: target,
			TotalTreesRequired:       trees,
			EstimatedBudgetINR:       budget,
			LandRequiredHa:           landRequired,
			LandAvailableHa:          landRequired * landHeadroom,
			LandStatus:               planner.LandAvailable,
			TotalOffsetAchieved:      target * achievedShare,
		},
		TreePlan: planner.TreePlan{
			Teak:    species(teak, budget*0.5, 15, target*0.40),
			Acacia:  species(acacia, budget*0.3, 8, target*0.35),
			Pioneer: species(pioneer, budget*0.2, 10, target*0.25),
		},
		WasteToWealth: planner.WasteToWealth{
			AnnualMethaneCapturedKg: 45000,
			EthanolProductionLitres: 12000,
			WaterRequiredLitres:     5000,
			EstimatedRevenueINR:     800000,
		},
		CarbonCredits: planner.CarbonCredits{
			TotalOffsetCreditsTonnes: target * 0.5,
			MarketPricePerCreditINR:  1200,
			TotalRevenuePotentialINR: target * 0.5 * 1200,
		},
		WaterConservation: planner.WaterConservation{
			TotalWaterConservedKilolitres: float64(trees) * 0.5,
			Status:                        "High Efficiency",
		},
		Scenarios: planner.Scenarios{
			LowBudget: planner.Scenario{
				TotalTrees:   int64(float64(trees) * 0.8),
				TotalCost:    budget * 0.6,
				OffsetTonnes: target * 0.7,
			},
			HighEfficiency: planner.Scenario{
				TotalTrees:   int64(float64(trees) * 1.1),
				TotalCost:    budget * 1.3,
				OffsetTonnes: target * 1.2,
			},
		},
		Graphs: planner.Graphs{
			MonthlyEmissions: []planner.EmissionPoint{
				{MonthYear: planner.Month{Year: 2024, Month: time.January}, EmissionIndex: 100},
				{MonthYear: planner.Month{Year: 2024, Month: time.February}, EmissionIndex: 102},
			},
		},
	}
}

func species(count int64, cost, asrKg, offset float64) planner.SpeciesAllocation {
	return planner.SpeciesAllocation{
		Count:                    count,
		TotalCost:                cost,
		ASRPerTreeKg:             asrKg,
		OffsetContributionTonnes: offset,
	}
}
