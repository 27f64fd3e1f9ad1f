package regression

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"carbon-offset/offset-portal/offset-portal-backend/internal/dataset"
)

func linearSamples(region string, n int, slope float64) []dataset.EcologicalSample {
	out := make([]dataset.EcologicalSample, n)
	for i := range out {
		h := float64(5 + i)
		out[i] = dataset.EcologicalSample{
			Region:          region,
			MaxHeight:       h,
			VegetationIndex: 0.5 + float64(i%5)/10,
			AgeYears:        float64(2 + i%12),
			CarbonStock:     slope * h,
		}
	}
	return out
}

func TestFit_Reproducible(t *testing.T) {
	x, y := design(linearSamples("Odisha", 40, 10))

	a, err := Fit(x, y, DefaultOptions())
	require.NoError(t, err)
	b, err := Fit(x, y, DefaultOptions())
	require.NoError(t, err)

	probe := []float64{15, 0.85, 10}
	assert.Equal(t, a.Predict(probe), b.Predict(probe))
	assert.Equal(t, 100, a.Size())
}

func TestFit_LearnsMonotoneSignal(t *testing.T) {
	x, y := design(linearSamples("Odisha", 60, 10))

	f, err := Fit(x, y, DefaultOptions())
	require.NoError(t, err)

	low := f.Predict([]float64{8, 0.7, 5})
	high := f.Predict([]float64{50, 0.7, 5})
	assert.Less(t, low, high)
	assert.Greater(t, f.Score(x, y), 0.9)
}

func TestFit_ConstantTarget(t *testing.T) {
	samples := linearSamples("Odisha", 10, 0)
	x, y := design(samples)

	f, err := Fit(x, y, Options{Trees: 5, Seed: 1})
	require.NoError(t, err)
	assert.Equal(t, 0.0, f.Predict([]float64{1, 1, 1}))
}

func TestFit_Errors(t *testing.T) {
	x := mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6})
	_, err := Fit(x, []float64{1}, DefaultOptions())
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestForest_PredictWrongArity(t *testing.T) {
	x, y := design(linearSamples("Odisha", 5, 1))
	f, err := Fit(x, y, Options{Trees: 3})
	require.NoError(t, err)
	assert.True(t, math.IsNaN(f.Predict([]float64{1, 2})))
}

func TestTrain_SkipsRegionsWithoutCompleteRows(t *testing.T) {
	samples := append(linearSamples("Odisha", 20, 10), dataset.EcologicalSample{
		Region: "Jharkhand", MaxHeight: 10, VegetationIndex: math.NaN(), AgeYears: 3, CarbonStock: 100,
	})

	registry, err := Train(context.Background(), samples, TrainOptions{Forest: Options{Trees: 10, Seed: 42}})
	require.NoError(t, err)

	assert.Equal(t, []string{"Odisha"}, registry.Regions())
}

func TestTrain_DeterministicAcrossRuns(t *testing.T) {
	samples := append(linearSamples("Odisha", 30, 10), linearSamples("Chhattisgarh", 30, 4)...)
	opts := TrainOptions{Forest: DefaultOptions()}

	a, err := Train(context.Background(), samples, opts)
	require.NoError(t, err)
	b, err := Train(context.Background(), samples, opts)
	require.NoError(t, err)

	for _, region := range []string{"Odisha", "Chhattisgarh"} {
		ma, _ := a.Select(region)
		mb, _ := b.Select(region)
		assert.Equal(t, ma.Predict([]float64{15, 0.85, 10}), mb.Predict([]float64{15, 0.85, 10}), region)
	}
}

func TestTrain_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Train(ctx, linearSamples("Odisha", 10, 1), TrainOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTrain_NoSamples(t *testing.T) {
	registry, err := Train(context.Background(), nil, TrainOptions{})
	require.NoError(t, err)

	m, sel := registry.Select("Odisha")
	assert.Equal(t, SourceConstant, sel.Source)
	assert.Equal(t, BasePrediction, m.Predict([]float64{15, 0.85, 10}))
}
