package regression

import (
	"sort"
)

// BasePrediction is used when no regional model could be trained
const BasePrediction = 150.0

// Model predicts carbon stock per hectare from [height, ndvi, age]
type Model interface {
	Predict(features []float64) float64
}

// Constant is a model that ignores its input
type Constant float64

func (c Constant) Predict([]float64) float64 { return float64(c) }

// Source describes how a model was chosen for a region
type Source string

const (
	SourceExact    Source = "exact"
	SourceFallback Source = "fallback"
	SourceConstant Source = "constant"
)

// Selection records the outcome of a model lookup
type Selection struct {
	Requested string `json:"requested_region"`
	Region    string `json:"model_region,omitempty"`
	Source    Source `json:"source"`
}

// FallbackPolicy orders the regions tried when the requested one has no model.
// Preferred regions are tried first, then every trained region in lexical order.
type FallbackPolicy struct {
	Preferred []string
}

// Registry maps regions to trained models. It is immutable once built.
type Registry struct {
	models map[string]Model
	order  []string
}

// NewRegistry fixes the fallback order at construction time
func NewRegistry(models map[string]Model, policy FallbackPolicy) *Registry {
	r := &Registry{models: make(map[string]Model, len(models))}
	for region, m := range models {
		r.models[region] = m
	}

	trained := r.Regions()
	seen := make(map[string]struct{}, len(trained))
	for _, region := range policy.Preferred {
		if _, ok := r.models[region]; !ok {
			continue
		}
		if _, dup := seen[region]; dup {
			continue
		}
		seen[region] = struct{}{}
		r.order = append(r.order, region)
	}
	for _, region := range trained {
		if _, ok := seen[region]; !ok {
			r.order = append(r.order, region)
		}
	}
	return r
}

// Select returns the model for region, falling back per the policy and
// finally to a constant BasePrediction model.
func (r *Registry) Select(region string) (Model, Selection) {
	sel := Selection{Requested: region}
	if r != nil {
		if m, ok := r.models[region]; ok {
			sel.Region, sel.Source = region, SourceExact
			return m, sel
		}
		if len(r.order) > 0 {
			first := r.order[0]
			sel.Region, sel.Source = first, SourceFallback
			return r.models[first], sel
		}
	}
	sel.Source = SourceConstant
	return Constant(BasePrediction), sel
}

// Regions returns the trained regions in lexical order
func (r *Registry) Regions() []string {
	if r == nil {
		return nil
	}
	regions := make([]string, 0, len(r.models))
	for region := range r.models {
		regions = append(regions, region)
	}
	sort.Strings(regions)
	return regions
}

// FallbackOrder returns the order used when a region has no model
func (r *Registry) FallbackOrder() []string {
	if r == nil {
		return nil
	}
	return append([]string(nil), r.order...)
}

// Len returns the number of trained models
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.models)
}
