package planner

// Reference tree used to query the regional model
const (
	referenceHeight = 15.0
	referenceNDVI   = 0.85
	referenceAge    = 10.0
)

// Species growth multipliers applied to the model's carbon stock estimate.
// asr = stock * multiplier / growthYears / kgPerTonne
const (
	teakMultiplier    = 1.2
	acaciaMultiplier  = 1.0
	pioneerMultiplier = 0.8

	growthYears = 10.0
	kgPerTonne  = 1000.0
)

// Fixed planting mix
const (
	teakShare    = 0.40
	acaciaShare  = 0.30
	pioneerShare = 0.30

	minBlendedASR = 0.001
	treesPerHa    = 2000.0
	daysPerYear   = 365.0
)

// Byproduct and finance factors
const (
	methaneGWP             = 28.0
	ethanolLitresPerKgCH4  = 1.4
	processWaterPerLitre   = 4.0
	ethanolPriceINR        = 65.0
	CreditPriceINR         = 830.0
	waterRechargePerTreeL  = 1500.0
	waterConservationLabel = "High Efficiency"
)
