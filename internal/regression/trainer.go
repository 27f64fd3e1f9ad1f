package regression

import (
	"context"
	"fmt"
	"runtime"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"carbon-offset/offset-portal/offset-portal-backend/internal/dataset"
)

// TrainOptions configures Train
type TrainOptions struct {
	Forest   Options
	Fallback FallbackPolicy
	Logger   *zap.Logger
}

type regionResult struct {
	region  string
	model   *Forest
	samples int
	r2      float64
}

// Train fits one forest per region that has at least one complete sample.
// Regions are fitted concurrently; each forest owns its seeded streams so
// the result does not depend on scheduling.
func Train(ctx context.Context, samples []dataset.EcologicalSample, opts TrainOptions) (*Registry, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	groups := make(map[string][]dataset.EcologicalSample)
	for _, s := range samples {
		if s.Region == "" || !s.Complete() {
			continue
		}
		groups[s.Region] = append(groups[s.Region], s)
	}

	regions := make([]string, 0, len(groups))
	for region := range groups {
		regions = append(regions, region)
	}
	sort.Strings(regions)

	results := make([]regionResult, len(regions))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, region := range regions {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			x, y := design(groups[region])
			forest, err := Fit(x, y, opts.Forest)
			if err != nil {
				return fmt.Errorf("failed to train model for %s: %w", region, err)
			}
			results[i] = regionResult{
				region:  region,
				model:   forest,
				samples: len(y),
				r2:      forest.Score(x, y),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	models := make(map[string]Model, len(results))
	for _, res := range results {
		models[res.region] = res.model
		logger.Info("Trained regional model",
			zap.String("region", res.region),
			zap.Int("samples", res.samples),
			zap.Float64("r2", res.r2),
		)
	}

	registry := NewRegistry(models, opts.Fallback)
	if registry.Len() == 0 {
		logger.Warn("No regional models trained, using base prediction", zap.Float64("base", BasePrediction))
	}
	return registry, nil
}

func design(samples []dataset.EcologicalSample) (*mat.Dense, []float64) {
	x := mat.NewDense(len(samples), 3, nil)
	y := make([]float64, len(samples))
	for i, s := range samples {
		x.SetRow(i, s.Features())
		y[i] = s.CarbonStock
	}
	return x, y
}
