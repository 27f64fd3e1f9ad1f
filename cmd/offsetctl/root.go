package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"carbon-offset/offset-portal/offset-portal-backend/internal/bootstrap"
	"carbon-offset/offset-portal/offset-portal-backend/internal/config"
	"carbon-offset/offset-portal/offset-portal-backend/internal/dataset"
	"carbon-offset/offset-portal/offset-portal-backend/internal/logging"
	"carbon-offset/offset-portal/offset-portal-backend/internal/planner"
	"carbon-offset/offset-portal/offset-portal-backend/pkg/storage"
)

// app carries state shared by every subcommand
type app struct {
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "offsetctl",
		Short:         "Plan carbon offsets and inspect emission data from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "config.yaml", "path to the config file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log progress to stderr")

	root.AddCommand(
		newPlanCmd(a),
		newSitesCmd(a),
		newHotspotsCmd(a),
		newSummariesCmd(a),
	)
	return root
}

func (a *app) init() error {
	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	if !a.verbose {
		a.logger = zap.NewNop()
		return nil
	}
	logCfg := cfg.Logging
	logCfg.Development = true
	if a.logger, err = logging.New(logCfg); err != nil {
		return err
	}
	return nil
}

func (a *app) s3(ctx context.Context) (storage.S3Client, error) {
	if !bootstrap.NeedsS3(a.cfg.Datasets) {
		return nil, nil
	}
	client, err := storage.NewS3Client(ctx, a.cfg.Datasets.S3Region)
	if err != nil {
		return nil, fmt.Errorf("failed to create s3 client: %w", err)
	}
	return client, nil
}

func (a *app) tables(ctx context.Context) (*dataset.Tables, error) {
	s3, err := a.s3(ctx)
	if err != nil {
		return nil, err
	}
	return bootstrap.LoadTables(ctx, a.cfg.Datasets, s3, a.logger)
}

func (a *app) planner(ctx context.Context) (*planner.Planner, error) {
	tables, err := a.tables(ctx)
	if err != nil {
		return nil, err
	}
	return bootstrap.Planner(ctx, a.cfg.Planner, tables, a.logger)
}
