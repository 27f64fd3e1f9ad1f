// Package bootstrap loads the planning datasets and trains the planner
// shared by the API server, the workers and the CLI.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"carbon-offset/offset-portal/offset-portal-backend/internal/config"
	"carbon-offset/offset-portal/offset-portal-backend/internal/dataset"
	"carbon-offset/offset-portal/offset-portal-backend/internal/planner"
	"carbon-offset/offset-portal/offset-portal-backend/internal/regression"
	"carbon-offset/offset-portal/offset-portal-backend/pkg/storage"
)

// Sources maps the datasets section of the config to loader sources
func Sources(cfg config.DatasetsConfig) dataset.Sources {
	return dataset.Sources{
		Emissions: cfg.EmissionsPath,
		Training:  cfg.TrainingPath,
		Registry:  cfg.RegistryPath,
	}
}

// NeedsS3 reports whether any dataset lives in S3
func NeedsS3(cfg config.DatasetsConfig) bool {
	for _, uri := range []string{cfg.EmissionsPath, cfg.TrainingPath, cfg.RegistryPath} {
		if _, _, ok := storage.ParseS3URI(uri); ok {
			return true
		}
	}
	return false
}

// LoadTables reads the three datasets. s3 may be nil when every path is local.
func LoadTables(ctx context.Context, cfg config.DatasetsConfig, s3 storage.S3Client, logger *zap.Logger) (*dataset.Tables, error) {
	start := time.Now()
	tables, err := dataset.Load(ctx, Sources(cfg), &dataset.SourceOpener{S3: s3})
	if err != nil {
		return nil, err
	}
	logger.Info("Datasets loaded",
		zap.Int("emission_rows", len(tables.Emissions.Rows)),
		zap.Int("training_rows", len(tables.Ecological)),
		zap.Int("registry_sites", tables.Registry.Len()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return tables, nil
}

// TrainOptions maps the planner section of the config to training options
func TrainOptions(cfg config.PlannerConfig, logger *zap.Logger) regression.TrainOptions {
	forest := regression.DefaultOptions()
	if cfg.Trees > 0 {
		forest.Trees = cfg.Trees
	}
	if cfg.Seed != 0 {
		forest.Seed = cfg.Seed
	}
	return regression.TrainOptions{
		Forest:   forest,
		Fallback: regression.FallbackPolicy{Preferred: cfg.FallbackRegions},
		Logger:   logger,
	}
}

// Planner trains the regional models over tables and returns the planner
func Planner(ctx context.Context, cfg config.PlannerConfig, tables *dataset.Tables, logger *zap.Logger) (*planner.Planner, error) {
	start := time.Now()
	models, err := regression.Train(ctx, tables.Ecological, TrainOptions(cfg, logger))
	if err != nil {
		return nil, fmt.Errorf("failed to train regional models: %w", err)
	}
	logger.Info("Planner ready",
		zap.Int("regions", models.Len()),
		zap.Int("sites", len(tables.Sites())),
		zap.Duration("elapsed", time.Since(start)),
	)
	return planner.New(tables, models), nil
}

// Load runs LoadTables and Planner. A missing dataset is returned as is so
// callers can decide whether to continue in simulation mode.
func Load(ctx context.Context, cfg *config.Config, s3 storage.S3Client, logger *zap.Logger) (*dataset.Tables, *planner.Planner, error) {
	tables, err := LoadTables(ctx, cfg.Datasets, s3, logger)
	if err != nil {
		return nil, nil, err
	}
	p, err := Planner(ctx, cfg.Planner, tables, logger)
	if err != nil {
		return nil, nil, err
	}
	return tables, p, nil
}

// IsMissingData reports whether err is a missing dataset error
func IsMissingData(err error) bool {
	var missing *dataset.MissingDataSourceError
	return errors.As(err, &missing)
}
