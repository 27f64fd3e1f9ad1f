package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"carbon-offset/offset-portal/offset-portal-backend/internal/bootstrap"
	"carbon-offset/offset-portal/offset-portal-backend/internal/config"
	"carbon-offset/offset-portal/offset-portal-backend/internal/db"
	"carbon-offset/offset-portal/offset-portal-backend/internal/emissions"
	"carbon-offset/offset-portal/offset-portal-backend/internal/hotspots"
	"carbon-offset/offset-portal/offset-portal-backend/internal/jobs"
	"carbon-offset/offset-portal/offset-portal-backend/internal/logging"
	"carbon-offset/offset-portal/offset-portal-backend/pkg/storage"
)

const jobTimeout = 30 * time.Minute

func main() {
	configPath := flag.String("config", "config.yaml", "path to the config file")
	once := flag.Bool("once", false, "run every job once and exit")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx := context.Background()

	var s3 storage.S3Client
	if bootstrap.NeedsS3(cfg.Datasets) {
		if s3, err = storage.NewS3Client(ctx, cfg.Datasets.S3Region); err != nil {
			logger.Fatal("Failed to create S3 client", zap.Error(err))
		}
	}
	rows := jobs.DatasetRows(cfg.Datasets, s3, logger)

	// Connect to database
	database, err := db.Open(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close()
	if err := database.MigrateUp(logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	logger.Info("Connected to database", zap.String("driver", database.Driver))

	scheduler := jobs.NewScheduler(logger, jobTimeout)
	defer scheduler.Stop()

	hotspotService := hotspots.NewService(hotspots.NewRepository(database.DB), logger, hotspots.ServiceOptions{
		MaxPageSize: cfg.Hotspots.MaxPageSize,
	})
	if err := scheduler.Add(jobs.HotspotRefresh, cfg.Hotspots.Schedule, jobs.RefreshHotspots(rows, hotspotService)); err != nil {
		logger.Fatal("Failed to schedule hotspot refresh", zap.Error(err))
	}

	// Summaries need the document store
	mongoClient, mongoDB, err := db.OpenMongo(ctx, cfg.DocumentStore)
	switch {
	case err == nil:
		defer mongoClient.Disconnect(context.Background())
		summaryService := emissions.NewService(emissions.NewMongoRepository(mongoDB), nil, logger)
		if err := scheduler.Add(jobs.SummaryRebuild, cfg.Hotspots.SummarySchedule, jobs.RebuildSummaries(rows, summaryService)); err != nil {
			logger.Fatal("Failed to schedule summary rebuild", zap.Error(err))
		}
	case errors.Is(err, db.ErrDocumentStoreDisabled):
		logger.Info("Document store not configured, summary rebuild disabled")
	default:
		logger.Fatal("Failed to connect to document store", zap.Error(err))
	}

	if *once {
		failed := false
		for _, name := range scheduler.Names() {
			if err := scheduler.RunNow(ctx, name); err != nil {
				logger.Error("Job failed", zap.String("job", name), zap.Error(err))
				failed = true
			}
		}
		if failed {
			os.Exit(1)
		}
		return
	}

	if err := scheduler.Start(); err != nil {
		logger.Fatal("Failed to start scheduler", zap.Error(err))
	}

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
}
