package offsets

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"carbon-offset/offset-portal/offset-portal-backend/internal/planner"
	"carbon-offset/offset-portal/offset-portal-backend/internal/reports/dashboard"
	"carbon-offset/offset-portal/offset-portal-backend/internal/reports/export"
	"carbon-offset/offset-portal/offset-portal-backend/internal/response"
)

// Response headers describing how a plan was produced
const (
	HeaderPlanKind    = "X-Plan-Kind"
	HeaderModelRegion = "X-Model-Region"
	HeaderModelSource = "X-Model-Source"
)

// Handler handles HTTP requests for offset plans
type Handler struct {
	service *Service
	exports *export.Service
	logger  *zap.Logger
}

// NewHandler creates a new offsets handler. exports may be nil, in which
// case archiving is unavailable but rendering still works.
func NewHandler(service *Service, exports *export.Service, logger *zap.Logger) *Handler {
	if exports == nil {
		exports = export.NewService(nil, "")
	}
	return &Handler{
		service: service,
		exports: exports,
		logger:  logger,
	}
}

// RegisterRoutes registers offset plan routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	offsets := router.Group("/offsets")
	{
		offsets.GET("/sites", h.listSites)
		offsets.GET("/history", h.listHistory)
		offsets.GET("/:site", h.getPlan)
		offsets.GET("/:site/export", h.exportPlan)
		offsets.GET("/:site/dashboard", h.getDashboard)
	}
}

// getPlan handles GET /api/v1/offsets/:site
func (h *Handler) getPlan(c *gin.Context) {
	outcome, ok := h.outcome(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, response.Normalize(outcome.Plan))
}

// exportPlan handles GET /api/v1/offsets/:site/export
func (h *Handler) exportPlan(c *gin.Context) {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	outcome, ok := h.outcome(c)
	if !ok {
		return
	}

	doc, err := h.exports.Render(outcome.Plan, format, export.RenderOptions{
		Language:    export.ParseLanguage(c.Query("lang")),
		GeneratedAt: outcome.GeneratedAt,
	})
	if err != nil {
		h.logger.Error("Failed to render export", zap.String("format", string(format)), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render export"})
		return
	}

	if c.Query("archive") == "true" {
		if !h.exports.ArchiveEnabled() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "report archive is not configured"})
			return
		}
		key, url, err := h.exports.Archive(c.Request.Context(), doc)
		if err != nil {
			h.logger.Error("Failed to archive export", zap.String("filename", doc.Filename), zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": "failed to archive export"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"key": key, "url": url, "filename": doc.Filename})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+doc.Filename+`"`)
	c.Data(http.StatusOK, doc.ContentType, doc.Body)
}

// getDashboard handles GET /api/v1/offsets/:site/dashboard
func (h *Handler) getDashboard(c *gin.Context) {
	outcome, ok := h.outcome(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := dashboard.RenderPlan(&buf, outcome.Plan); err != nil {
		h.logger.Error("Failed to render dashboard", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render dashboard"})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// listSites handles GET /api/v1/offsets/sites
func (h *Handler) listSites(c *gin.Context) {
	sites := h.service.KnownSites()
	if sites == nil {
		sites = []string{}
	}
	c.JSON(http.StatusOK, gin.H{
		"sites":    sites,
		"count":    len(sites),
		"degraded": h.service.Degraded(),
	})
}

// listHistory handles GET /api/v1/offsets/history
func (h *Handler) listHistory(c *gin.Context) {
	filter := HistoryFilter{
		Site:  c.Query("site"),
		Kind:  Kind(c.Query("kind")),
		Limit: h.getIntParam(c, "limit", 50),
	}
	if filter.Kind != "" && filter.Kind != KindReal && filter.Kind != KindSimulated {
		c.JSON(http.StatusBadRequest, gin.H{"error": "kind must be real or simulated"})
		return
	}

	runs, err := h.service.History(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list plan history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs, "count": len(runs)})
}

// outcome resolves the :site parameter, writing the error response itself
// when no plan can be served.
func (h *Handler) outcome(c *gin.Context) (*Outcome, bool) {
	site := strings.TrimSpace(c.Param("site"))
	if site == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "site is required"})
		return nil, false
	}

	outcome, err := h.service.GetOffsetPlan(c.Request.Context(), site)
	if err != nil {
		var notFound *planner.SiteNotFoundError
		switch {
		case errors.Is(err, ErrNotReady):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		case errors.As(err, &notFound):
			known := notFound.KnownSites
			if known == nil {
				known = []string{}
			}
			c.JSON(http.StatusNotFound, gin.H{
				"error":           err.Error(),
				"available_mines": known,
			})
		default:
			h.logger.Error("Failed to get offset plan", zap.String("site", site), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return nil, false
	}

	c.Header(HeaderPlanKind, string(outcome.Kind))
	if outcome.Model != nil {
		c.Header(HeaderModelRegion, outcome.Model.Region)
		c.Header(HeaderModelSource, string(outcome.Model.Source))
	}
	return outcome, true
}

func (h *Handler) getIntParam(c *gin.Context, key string, defaultVal int) int {
	if val := c.Query(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}
