package response

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carbon-offset/offset-portal/offset-portal-backend/internal/planner"
	"carbon-offset/offset-portal/offset-portal-backend/internal/simulation"
)

type sample struct {
	Name     string                    `json:"name"`
	Count    int32                     `json:"count"`
	Ratio    float32                   `json:"ratio"`
	Missing  float64                   `json:"missing"`
	Inf      float64                   `json:"inf"`
	When     time.Time                 `json:"when"`
	WhenPtr  *time.Time                `json:"when_ptr"`
	Period   planner.Month             `json:"period"`
	Tags     []string                  `json:"tags,omitempty"`
	Extra    map[string]uint8          `json:"extra"`
	Nested   *sample                   `json:"nested"`
	Hidden   string                    `json:"-"`
	Untagged bool
	private  int
	Any      any                       `json:"any"`
	Keyed    map[planner.Month]float64 `json:"keyed"`
}

func TestNormalize_Primitives(t *testing.T) {
	when := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	in := sample{
		Name:     "Angul Mine",
		Count:    7,
		Ratio:    0.5,
		Missing:  math.NaN(),
		Inf:      math.Inf(1),
		When:     when,
		Period:   planner.Month{Year: 2024, Month: time.March},
		Extra:    map[string]uint8{"a": 3},
		Untagged: true,
		private:  1,
		Any:      []int{1, 2},
		Keyed:    map[planner.Month]float64{{Year: 2023, Month: time.May}: math.NaN()},
	}

	out := NormalizeMap(in)
	require.NotNil(t, out)

	assert.Equal(t, "Angul Mine", out["name"])
	assert.Equal(t, int64(7), out["count"])
	assert.Equal(t, float64(0.5), out["ratio"])
	assert.Nil(t, out["missing"])
	assert.Contains(t, out, "missing")
	assert.Nil(t, out["inf"])
	assert.Equal(t, "2024-03-01T12:00:00Z", out["when"])
	assert.Nil(t, out["when_ptr"])
	assert.Equal(t, "2024-03", out["period"])
	assert.NotContains(t, out, "tags")
	assert.Equal(t, map[string]any{"a": uint64(3)}, out["extra"])
	assert.Nil(t, out["nested"])
	assert.NotContains(t, out, "Hidden")
	assert.Equal(t, true, out["Untagged"])
	assert.NotContains(t, out, "private")
	assert.Equal(t, []any{int64(1), int64(2)}, out["any"])
	assert.Equal(t, map[string]any{"2023-05": nil}, out["keyed"])
}

func TestNormalize_Plan(t *testing.T) {
	plan := simulation.Simulate("Angul Mine")
	plan.Graphs.MonthlyEmissions[1].EmissionIndex = math.NaN()

	out := NormalizeMap(plan)

	kpis := out["kpis"].(map[string]any)
	assert.Equal(t, planner.LandAvailable, kpis["land_status"])
	assert.IsType(t, int64(0), kpis["total_trees_required"])

	graph := out["graphs"].(map[string]any)["monthly_emissions"].([]any)
	require.Len(t, graph, 2)
	assert.Equal(t, "2024-01", graph[0].(map[string]any)["month_year"])
	assert.Nil(t, graph[1].(map[string]any)["emission_index"])

	// NaN would make encoding/json fail; the normalised tree must encode.
	_, err := json.Marshal(out)
	assert.NoError(t, err)

	meta := out["mine_metadata"].(map[string]any)
	assert.NotContains(t, meta, "warnings")
}

func TestNormalize_Nil(t *testing.T) {
	assert.Nil(t, Normalize(nil))
	var p *planner.OffsetPlan
	assert.Nil(t, Normalize(p))
	assert.Nil(t, NormalizeMap([]int{1}))
}
