package hotspots

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"

	"carbon-offset/offset-portal/offset-portal-backend/pkg/geospatial"
)

// Handler handles HTTP requests for emission hotspots
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new hotspots handler
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers hotspot routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	hotspots := router.Group("/hotspots")
	{
		hotspots.GET("", h.listHotspots)
		hotspots.GET("/top", h.getTop)
		hotspots.GET("/stats", h.getStats)
		hotspots.GET("/by-state", h.getByState)
		hotspots.GET("/geo", h.getGeo)
	}
}

// listHotspots handles GET /api/v1/hotspots
func (h *Handler) listHotspots(c *gin.Context) {
	page, err := h.service.List(c.Request.Context(), ListFilter{
		Level:    Level(c.Query("level")),
		State:    c.Query("state"),
		District: c.Query("district"),
		Page:     h.getIntParam(c, "page", 1),
		Limit:    h.getIntParam(c, "limit", 0),
	})
	if err != nil {
		if errors.Is(err, ErrInvalidLevel) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Failed to list hotspots", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, page)
}

// getTop handles GET /api/v1/hotspots/top
func (h *Handler) getTop(c *gin.Context) {
	data, err := h.service.Top(c.Request.Context(), h.getIntParam(c, "limit", 0))
	if err != nil {
		h.logger.Error("Failed to get top hotspots", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(data), "data": data})
}

// getStats handles GET /api/v1/hotspots/stats
func (h *Handler) getStats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to get hotspot stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// getByState handles GET /api/v1/hotspots/by-state
func (h *Handler) getByState(c *gin.Context) {
	data, err := h.service.ByState(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to group hotspots by state", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(data), "data": data})
}

// getGeo handles GET /api/v1/hotspots/geo. The box applies only when all
// four of min_lat, max_lat, min_lng and max_lng are given.
func (h *Handler) getGeo(c *gin.Context) {
	bound, err := parseBound(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	data, err := h.service.InBounds(c.Request.Context(), bound, h.getIntParam(c, "limit", 0))
	if err != nil {
		h.logger.Error("Failed to get hotspots in bounds", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if c.Query("format") == "geojson" {
		c.JSON(http.StatusOK, FeatureCollection(data))
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(data), "data": data})
}

func parseBound(c *gin.Context) (*orb.Bound, error) {
	keys := [...]string{"min_lat", "max_lat", "min_lng", "max_lng"}
	var values [4]float64
	for i, key := range keys {
		raw := c.Query(key)
		if raw == "" {
			return nil, nil
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, errors.New("invalid " + key)
		}
		values[i] = v
	}
	b, err := geospatial.NewBound(values[0], values[1], values[2], values[3])
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// FeatureCollection renders located hotspots as GeoJSON points
func FeatureCollection(hotspots []Hotspot) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, hs := range hotspots {
		if !hs.HasLocation() {
			continue
		}
		fc.Append(geospatial.PointFeature(*hs.Latitude, *hs.Longitude, map[string]interface{}{
			"id":             hs.ID,
			"mine_name":      hs.MineName,
			"state":          hs.State,
			"district":       hs.District,
			"emission_score": hs.Score,
			"hotspot_level":  string(hs.Level),
		}))
	}
	return fc
}

func (h *Handler) getIntParam(c *gin.Context, key string, defaultVal int) int {
	if val := c.Query(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}
