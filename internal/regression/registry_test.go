package regression

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistry_SelectExact(t *testing.T) {
	r := NewRegistry(map[string]Model{"Odisha": Constant(10), "Jharkhand": Constant(20)}, FallbackPolicy{})

	m, sel := r.Select("Jharkhand")
	assert.Equal(t, 20.0, m.Predict(nil))
	assert.Equal(t, Selection{Requested: "Jharkhand", Region: "Jharkhand", Source: SourceExact}, sel)
}

// Which model stands in for an untrained region is a policy choice, not a
// property of the data. These cases pin the default and the override.
func TestRegistry_FallbackOrderIsPolicy(t *testing.T) {
	models := map[string]Model{"Odisha": Constant(10), "Chhattisgarh": Constant(30), "Jharkhand": Constant(20)}

	t.Run("default is lexical", func(t *testing.T) {
		r := NewRegistry(models, FallbackPolicy{})
		m, sel := r.Select("Telangana")
		assert.Equal(t, SourceFallback, sel.Source)
		assert.Equal(t, "Chhattisgarh", sel.Region)
		assert.Equal(t, 30.0, m.Predict(nil))
		assert.Equal(t, []string{"Chhattisgarh", "Jharkhand", "Odisha"}, r.FallbackOrder())
	})

	t.Run("preferred regions first", func(t *testing.T) {
		r := NewRegistry(models, FallbackPolicy{Preferred: []string{"Bihar", "Odisha", "Odisha"}})
		_, sel := r.Select("Telangana")
		assert.Equal(t, "Odisha", sel.Region)
		assert.Equal(t, []string{"Odisha", "Chhattisgarh", "Jharkhand"}, r.FallbackOrder())
	})
}

func TestRegistry_Empty(t *testing.T) {
	var r *Registry
	m, sel := r.Select("Odisha")
	assert.Equal(t, SourceConstant, sel.Source)
	assert.Equal(t, BasePrediction, m.Predict(nil))
	assert.Equal(t, 0, r.Len())
}
