package jobs

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"carbon-offset/offset-portal/offset-portal-backend/internal/bootstrap"
	"carbon-offset/offset-portal/offset-portal-backend/internal/config"
	"carbon-offset/offset-portal/offset-portal-backend/internal/dataset"
	"carbon-offset/offset-portal/offset-portal-backend/internal/emissions"
	"carbon-offset/offset-portal/offset-portal-backend/internal/hotspots"
	"carbon-offset/offset-portal/offset-portal-backend/pkg/storage"
)

// Job names
const (
	HotspotRefresh = "hotspot-refresh"
	SummaryRebuild = "summary-rebuild"
)

// RowSource returns the current emission observations
type RowSource func(ctx context.Context) ([]dataset.EmissionObservation, error)

// DatasetRows rereads the configured datasets on every call so jobs pick
// up files replaced since the last run
func DatasetRows(cfg config.DatasetsConfig, s3 storage.S3Client, logger *zap.Logger) RowSource {
	return func(ctx context.Context) ([]dataset.EmissionObservation, error) {
		tables, err := bootstrap.LoadTables(ctx, cfg, s3, logger)
		if err != nil {
			return nil, err
		}
		return tables.Emissions.Rows, nil
	}
}

// StaticRows always returns rows
func StaticRows(rows []dataset.EmissionObservation) RowSource {
	return func(context.Context) ([]dataset.EmissionObservation, error) {
		return rows, nil
	}
}

// HotspotRefresher reclassifies and stores hotspots
type HotspotRefresher interface {
	Refresh(ctx context.Context, rows []dataset.EmissionObservation) (*hotspots.Classification, error)
}

// SummaryRebuilder recomputes the stored emission summaries
type SummaryRebuilder interface {
	RebuildSummaries(ctx context.Context, rows []dataset.EmissionObservation) (*emissions.Summaries, error)
}

// RefreshHotspots builds the hotspot reclassification job
func RefreshHotspots(src RowSource, svc HotspotRefresher) Func {
	return func(ctx context.Context) error {
		rows, err := src(ctx)
		if err != nil {
			return fmt.Errorf("failed to load emission rows: %w", err)
		}
		if _, err := svc.Refresh(ctx, rows); err != nil {
			return fmt.Errorf("failed to refresh hotspots: %w", err)
		}
		return nil
	}
}

// RebuildSummaries builds the monthly and overall summary job
func RebuildSummaries(src RowSource, svc SummaryRebuilder) Func {
	return func(ctx context.Context) error {
		rows, err := src(ctx)
		if err != nil {
			return fmt.Errorf("failed to load emission rows: %w", err)
		}
		if _, err := svc.RebuildSummaries(ctx, rows); err != nil {
			return fmt.Errorf("failed to rebuild summaries: %w", err)
		}
		return nil
	}
}
