package planner

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"carbon-offset/offset-portal/offset-portal-backend/internal/dataset"
	"carbon-offset/offset-portal/offset-portal-backend/internal/regression"
)

// Planner turns a site query into an OffsetPlan. It holds the datasets and
// trained models loaded at startup and never mutates them, so one Planner
// serves concurrent requests.
type Planner struct {
	tables *dataset.Tables
	models *regression.Registry
	sites  []string
}

// Result is a computed plan plus the model lookup that produced it.
// Site is the resolved site name; the plan itself is labelled with the
// normalised query.
type Result struct {
	Site  string
	Plan  *OffsetPlan
	Model regression.Selection
}

// New creates a planner over loaded tables and a trained registry
func New(tables *dataset.Tables, models *regression.Registry) *Planner {
	return &Planner{
		tables: tables,
		models: models,
		sites:  tables.Sites(),
	}
}

// Sites returns the known site names in dataset order
func (p *Planner) Sites() []string {
	return append([]string(nil), p.sites...)
}

// Plan resolves query against the emissions table and computes the plan.
// Observations are matched by substring, while the operational profile is
// looked up by the exact normalised query and the plan carries that query
// as its mine name. It returns *SiteNotFoundError when nothing matches and
// *ComputationError for any later failure.
func (p *Planner) Plan(query string) (*Result, error) {
	site, rows, err := p.Resolve(query)
	if err != nil {
		return nil, err
	}
	return p.compute(site, dataset.NormalizeName(query), rows)
}

// Resolve matches the normalised query as a case-insensitive substring of
// site names. Every matching row is returned, across all matching sites.
// The canonical name is the single matched site, or the normalised query
// when several sites match.
func (p *Planner) Resolve(query string) (string, []dataset.EmissionObservation, error) {
	normalized := dataset.NormalizeName(query)
	needle := strings.ToLower(normalized)

	var rows []dataset.EmissionObservation
	matched := make(map[string]struct{})
	for _, row := range p.tables.Emissions.Rows {
		if strings.Contains(strings.ToLower(row.SiteName), needle) {
			rows = append(rows, row)
			matched[row.SiteName] = struct{}{}
		}
	}

	if len(rows) == 0 {
		known := p.sites
		if len(known) > MaxSuggestions {
			known = known[:MaxSuggestions]
		}
		return "", nil, &SiteNotFoundError{Query: normalized, KnownSites: append([]string(nil), known...)}
	}

	if len(matched) == 1 {
		return rows[0].SiteName, rows, nil
	}
	return normalized, rows, nil
}

func (p *Planner) compute(site, name string, rows []dataset.EmissionObservation) (*Result, error) {
	fail := func(reason string, err error) (*Result, error) {
		return nil, &ComputationError{Site: site, Reason: reason, Err: err}
	}

	if !p.tables.Emissions.HasEmissionIndex {
		return fail("emission index column missing", nil)
	}

	trend := MonthlyTrend(rows)
	if len(trend) == 0 {
		return fail("no dated observations", nil)
	}

	dailyMean, ok := meanEmission(rows)
	if !ok {
		return fail("no valid emission index values", nil)
	}
	annualTarget := dailyMean * daysPerYear

	state, district := rows[0].State, rows[0].District

	profile, found := p.tables.Registry.Lookup(name)
	if !found {
		profile = dataset.DefaultProfile()
	}
	if !profile.Valid() {
		return fail("operational profile has non-numeric fields", nil)
	}

	model, selection := p.models.Select(state)
	stock := model.Predict([]float64{referenceHeight, referenceNDVI, referenceAge})
	if math.IsNaN(stock) || math.IsInf(stock, 0) {
		return fail("model produced a non-finite estimate", fmt.Errorf("region %s", selection.Region))
	}

	asrTeak := stock * teakMultiplier / growthYears / kgPerTonne
	asrAcacia := stock * acaciaMultiplier / growthYears / kgPerTonne
	asrPioneer := stock * pioneerMultiplier / growthYears / kgPerTonne

	blended := teakShare*asrTeak + acaciaShare*asrAcacia + pioneerShare*asrPioneer
	if blended == 0 {
		blended = minBlendedASR
	}

	totalTrees := annualTarget / blended
	nTeak := totalTrees * teakShare
	nAcacia := totalTrees * acaciaShare
	nPioneer := totalTrees * pioneerShare

	costTeak := nTeak * profile.CostTeak
	costAcacia := nAcacia * profile.CostAcacia
	costPioneer := nPioneer * profile.CostPioneer
	totalCost := costTeak + costAcacia + costPioneer

	landRequired := round(totalTrees/treesPerHa, 1)
	landStatus := LandAvailable
	if landRequired > profile.AvailableLandHa {
		landStatus = LandCritical
	}

	methaneTonnes := annualTarget / methaneGWP
	ethanolLitres := methaneTonnes * kgPerTonne * ethanolLitresPerKgCH4
	processWater := ethanolLitres * processWaterPerLitre
	fuelRevenue := ethanolLitres * ethanolPriceINR

	waterConservedLitres := totalTrees * waterRechargePerTreeL

	lowBudgetTrees := annualTarget / positiveOr(asrPioneer, 1)
	highEffTrees := annualTarget / positiveOr(asrTeak, 1)

	for _, v := range [...]float64{totalTrees, totalCost, landRequired, lowBudgetTrees, highEffTrees} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fail("derived quantity is not finite", nil)
		}
	}

	target := round(annualTarget, 0)
	plan := &OffsetPlan{
		Metadata: Metadata{
			MineName: name,
			District: district,
			State:    state,
			Status:   StatusSuccess,
			Warnings: teakWarnings(profile),
		},
		KPIs: KPIs{
			AnnualOffsetTargetTonnes: target,
			TotalTreesRequired:       roundInt(totalTrees),
			EstimatedBudgetINR:       round(totalCost, 2),
			LandRequiredHa:           landRequired,
			LandAvailableHa:          profile.AvailableLandHa,
			LandStatus:               landStatus,
			TotalOffsetAchieved:      target,
		},
		TreePlan: TreePlan{
			Teak:    allocation(nTeak, costTeak, asrTeak),
			Acacia:  allocation(nAcacia, costAcacia, asrAcacia),
			Pioneer: allocation(nPioneer, costPioneer, asrPioneer),
		},
		WasteToWealth: WasteToWealth{
			AnnualMethaneCapturedKg: round(methaneTonnes*kgPerTonne, 2),
			EthanolProductionLitres: round(ethanolLitres, 2),
			WaterRequiredLitres:     round(processWater, 2),
			EstimatedRevenueINR:     round(fuelRevenue, 2),
		},
		CarbonCredits: CarbonCredits{
			TotalOffsetCreditsTonnes: target,
			MarketPricePerCreditINR:  CreditPriceINR,
			TotalRevenuePotentialINR: round(annualTarget*CreditPriceINR, 2),
		},
		WaterConservation: WaterConservation{
			TotalWaterConservedKilolitres: round(waterConservedLitres/1000, 0),
			Status:                        waterConservationLabel,
		},
		Scenarios: Scenarios{
			LowBudget: Scenario{
				TotalTrees:   roundInt(lowBudgetTrees),
				TotalCost:    round(lowBudgetTrees*profile.CostPioneer, 2),
				OffsetTonnes: round(annualTarget, 2),
			},
			HighEfficiency: Scenario{
				TotalTrees:   roundInt(highEffTrees),
				TotalCost:    round(highEffTrees*profile.CostTeak, 2),
				OffsetTonnes: round(annualTarget, 2),
			},
		},
		Graphs: Graphs{MonthlyEmissions: trend},
	}

	return &Result{Site: site, Plan: plan, Model: selection}, nil
}

func allocation(count, cost, asr float64) SpeciesAllocation {
	return SpeciesAllocation{
		Count:                    roundInt(count),
		TotalCost:                round(cost, 2),
		ASRPerTreeKg:             round(asr*kgPerTonne, 2),
		OffsetContributionTonnes: round(count*asr, 2),
	}
}

func positiveOr(v, fallback float64) float64 {
	if v > 0 {
		return v
	}
	return fallback
}

func teakWarnings(profile dataset.OperationalProfile) []string {
	limit := profile.MaxTeakFraction
	if math.IsNaN(limit) || limit >= teakShare {
		return nil
	}
	return []string{fmt.Sprintf("teak share %.0f%% exceeds site limit of %.0f%%", teakShare*100, limit*100)}
}

// meanEmission averages every finite emission index, dated or not
func meanEmission(rows []dataset.EmissionObservation) (float64, bool) {
	sum, n := 0.0, 0
	for _, r := range rows {
		if math.IsNaN(r.EmissionIndex) || math.IsInf(r.EmissionIndex, 0) {
			continue
		}
		sum += r.EmissionIndex
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// MonthlyTrend averages the emission index per calendar month in
// chronological order. Undated rows are left out; a month whose rows all
// lack an index reports NaN.
func MonthlyTrend(rows []dataset.EmissionObservation) []EmissionPoint {
	type acc struct {
		sum float64
		n   int
	}
	months := make(map[Month]*acc)
	for _, r := range rows {
		if r.Date == nil {
			continue
		}
		m := MonthOf(*r.Date)
		a, ok := months[m]
		if !ok {
			a = &acc{}
			months[m] = a
		}
		if math.IsNaN(r.EmissionIndex) || math.IsInf(r.EmissionIndex, 0) {
			continue
		}
		a.sum += r.EmissionIndex
		a.n++
	}

	points := make([]EmissionPoint, 0, len(months))
	for m, a := range months {
		value := math.NaN()
		if a.n > 0 {
			value = a.sum / float64(a.n)
		}
		points = append(points, EmissionPoint{MonthYear: m, EmissionIndex: value})
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].MonthYear.Before(points[j].MonthYear)
	})
	return points
}
