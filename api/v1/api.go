package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"carbon-offset/offset-portal/offset-portal-backend/internal/config"
	"carbon-offset/offset-portal/offset-portal-backend/internal/emissions"
	"carbon-offset/offset-portal/offset-portal-backend/internal/hotspots"
	"carbon-offset/offset-portal/offset-portal-backend/internal/notifications"
	"carbon-offset/offset-portal/offset-portal-backend/internal/offsets"
	"carbon-offset/offset-portal/offset-portal-backend/internal/reports/export"
)

// OffsetsAPI holds the offset planning API dependencies
type OffsetsAPI struct {
	Handler    *offsets.Handler
	Service    *offsets.Service
	Repository offsets.Repository
}

// SetupOffsetsAPI sets up the offsets API. engine and repo may be nil.
func SetupOffsetsAPI(engine offsets.Engine, repo offsets.Repository, exports *export.Service, events notifications.Publisher, cfg config.PlannerConfig, logger *zap.Logger) *OffsetsAPI {
	service := offsets.NewService(engine, repo, logger, offsets.ServiceOptions{
		CacheTTL: cfg.CacheTTL(),
		Events:   events,
	})

	return &OffsetsAPI{
		Handler:    offsets.NewHandler(service, exports, logger),
		Service:    service,
		Repository: repo,
	}
}

// HotspotsAPI holds the hotspot API dependencies
type HotspotsAPI struct {
	Handler    *hotspots.Handler
	Service    *hotspots.Service
	Repository hotspots.Repository
}

// SetupHotspotsAPI sets up the hotspot API over the SQL store
func SetupHotspotsAPI(db *sqlx.DB, events notifications.Publisher, cfg config.HotspotsConfig, logger *zap.Logger) *HotspotsAPI {
	repository := hotspots.NewRepository(db)
	service := hotspots.NewService(repository, logger, hotspots.ServiceOptions{
		Events:      events,
		MaxPageSize: cfg.MaxPageSize,
	})

	return &HotspotsAPI{
		Handler:    hotspots.NewHandler(service, logger),
		Service:    service,
		Repository: repository,
	}
}

// EmissionsAPI holds the emission record API dependencies
type EmissionsAPI struct {
	Handler    *emissions.Handler
	Service    *emissions.Service
	Repository emissions.Repository
}

// SetupEmissionsAPI sets up the emission record API over the document store
func SetupEmissionsAPI(db *mongo.Database, events notifications.Publisher, logger *zap.Logger) *EmissionsAPI {
	repository := emissions.NewMongoRepository(db)
	service := emissions.NewService(repository, events, logger)

	return &EmissionsAPI{
		Handler:    emissions.NewHandler(service, logger),
		Service:    service,
		Repository: repository,
	}
}

// RegisterRoutes registers every configured API on the router group.
// hotspots and emissions are skipped when nil.
func RegisterRoutes(router *gin.RouterGroup, offsetsAPI *OffsetsAPI, hotspotsAPI *HotspotsAPI, emissionsAPI *EmissionsAPI) {
	offsetsAPI.Handler.RegisterRoutes(router)
	if hotspotsAPI != nil {
		hotspotsAPI.Handler.RegisterRoutes(router)
	}
	if emissionsAPI != nil {
		emissionsAPI.Handler.RegisterRoutes(router)
	}
}
