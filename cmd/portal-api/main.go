package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	v1 "carbon-offset/offset-portal/offset-portal-backend/api/v1"
	"carbon-offset/offset-portal/offset-portal-backend/internal/bootstrap"
	"carbon-offset/offset-portal/offset-portal-backend/internal/config"
	"carbon-offset/offset-portal/offset-portal-backend/internal/db"
	"carbon-offset/offset-portal/offset-portal-backend/internal/emissions"
	"carbon-offset/offset-portal/offset-portal-backend/internal/logging"
	"carbon-offset/offset-portal/offset-portal-backend/internal/middleware"
	"carbon-offset/offset-portal/offset-portal-backend/internal/offsets"
	"carbon-offset/offset-portal/offset-portal-backend/internal/notifications/websocket"
	"carbon-offset/offset-portal/offset-portal-backend/internal/reports/export"
	"carbon-offset/offset-portal/offset-portal-backend/pkg/storage"
)

func configPath() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "config.yaml"
}

func main() {
	// Load configuration
	cfg, err := config.LoadConfig(configPath())
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

	// S3 client for dataset URIs and the report archive
	var s3 storage.S3Client
	if bootstrap.NeedsS3(cfg.Datasets) || cfg.Reports.S3Bucket != "" {
		s3, err = storage.NewS3Client(ctx, cfg.Datasets.S3Region)
		if err != nil {
			logger.Fatal("Failed to create S3 client", zap.Error(err))
		}
	}

	// Load datasets and train the planner
	var engine offsets.Engine
	tables, plan, err := bootstrap.Load(ctx, cfg, s3, logger)
	switch {
	case err == nil:
		engine = plan
	case bootstrap.IsMissingData(err) && cfg.Planner.AllowDegradedStart:
		logger.Warn("Dataset missing, serving simulated plans only", zap.Error(err))
	default:
		logger.Fatal("Failed to initialize planner", zap.Error(err))
	}

	// Connect to database
	logger.Info("Connecting to database", zap.String("driver", cfg.Database.Driver))
	database, err := db.Open(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	if err := database.MigrateUp(logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Plan history lives in postgres only
	var history offsets.Repository
	if gormDB, err := database.Gorm(); err == nil {
		if err := offsets.AutoMigrate(gormDB); err != nil {
			logger.Fatal("Failed to migrate plan history", zap.Error(err))
		}
		history = offsets.NewGormRepository(gormDB)
	} else if errors.Is(err, db.ErrGormUnsupported) {
		logger.Info("Plan history disabled for driver", zap.String("driver", database.Driver))
	} else {
		logger.Fatal("Failed to open gorm session", zap.Error(err))
	}

	// Event hub
	wsManager := websocket.NewManager(logger)
	defer wsManager.Close()

	// Exports
	exports := export.NewService(nil, "")
	if cfg.Reports.S3Bucket != "" {
		exports = export.NewService(s3, cfg.Reports.S3Bucket)
	}

	offsetsAPI := v1.SetupOffsetsAPI(engine, history, exports, wsManager, cfg.Planner, logger)
	defer offsetsAPI.Service.Close()
	hotspotsAPI := v1.SetupHotspotsAPI(database.DB, wsManager, cfg.Hotspots, logger)

	// Document store is optional
	var emissionsAPI *v1.EmissionsAPI
	mongoClient, mongoDB, err := db.OpenMongo(ctx, cfg.DocumentStore)
	switch {
	case err == nil:
		defer mongoClient.Disconnect(context.Background())
		if err := emissions.EnsureIndexes(ctx, mongoDB); err != nil {
			logger.Warn("Failed to ensure emission indexes", zap.Error(err))
		}
		emissionsAPI = v1.SetupEmissionsAPI(mongoDB, wsManager, logger)
	case errors.Is(err, db.ErrDocumentStoreDisabled):
		logger.Info("Document store not configured, emission record routes disabled")
	default:
		logger.Fatal("Failed to connect to document store", zap.Error(err))
	}

	// Seed hotspots on an empty store
	if tables != nil {
		if n, err := hotspotsAPI.Repository.Count(ctx); err == nil && n == 0 {
			if _, err := hotspotsAPI.Service.Refresh(ctx, tables.Emissions.Rows); err != nil {
				logger.Warn("Initial hotspot classification skipped", zap.Error(err))
			}
		}
	}

	offsetsAPI.Service.MarkReady()

	// Setup Router
	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))
	router.Use(middleware.CORS(cfg.Server.AllowedOrigins))

	limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	stopSweep := sweepLimiter(limiter)
	defer stopSweep()

	// Register Routes
	api := router.Group("/api/v1")
	if cfg.RateLimit.RequestsPerSecond > 0 {
		api.Use(limiter.Middleware(logger))
	}
	v1.RegisterRoutes(api, offsetsAPI, hotspotsAPI, emissionsAPI)

	// Health Check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
		})
	})
	router.GET("/ready", func(c *gin.Context) {
		status := http.StatusOK
		if !offsetsAPI.Service.Ready() {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{
			"ready":         offsetsAPI.Service.Ready(),
			"degraded":      offsetsAPI.Service.Degraded(),
			"sites":         len(offsetsAPI.Service.KnownSites()),
			"plan_history":  history != nil,
			"emission_docs": emissionsAPI != nil,
			"ws_clients":    wsManager.GetConnectionCount(),
		})
	})
	router.GET("/ws", func(c *gin.Context) {
		if _, err := wsManager.HandleConnection(c.Writer, c.Request); err != nil {
			logger.Warn("WebSocket upgrade failed", zap.Error(err))
		}
	})

	// Start Server
	read, write, idle := cfg.Server.Timeouts()
	srv := &http.Server{
		Addr:         cfg.Server.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  read,
		WriteTimeout: write,
		IdleTimeout:  idle,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.String("addr", srv.Addr))

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exiting")
}

// requestLogger logs one line per request
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("Request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

func sweepLimiter(limiter *middleware.RateLimiter) func() {
	ticker := time.NewTicker(time.Minute)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				limiter.Sweep()
			case <-done:
				return
			}
		}
	}()
	return func() {
		ticker.Stop()
		close(done)
	}
}

