package planner

import "math"

// round uses half-to-even so values match the published plans
func round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.RoundToEven(x*p) / p
}

func roundInt(x float64) int64 {
	return int64(math.RoundToEven(x))
}
