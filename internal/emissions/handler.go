package emissions

import (
	"errors"
	"mime"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for emission records and summaries
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new emissions handler
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers emission routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	emissions := router.Group("/emissions")
	{
		emissions.POST("/data-upload", h.CreateRecord)
		emissions.GET("/latest", h.Latest)
		emissions.GET("/historical/:mine_id", h.Historical)
		emissions.GET("/monthly", h.Monthly)
		emissions.GET("/average", h.Average)
		emissions.POST("/upload", h.UploadCSV)
	}
}

// CreateRecord handles POST /api/v1/emissions/data-upload
func (h *Handler) CreateRecord(c *gin.Context) {
	var input RecordInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record, err := h.service.CreateRecord(c.Request.Context(), input)
	if err != nil {
		if errors.Is(err, ErrMineIDRequired) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Failed to save emission record", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save data: " + err.Error()})
		return
	}
	c.JSON(http.StatusCreated, record)
}

// Latest handles GET /api/v1/emissions/latest
func (h *Handler) Latest(c *gin.Context) {
	records, err := h.service.Latest(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to get latest emissions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, records)
}

// Historical handles GET /api/v1/emissions/historical/:mine_id
func (h *Handler) Historical(c *gin.Context) {
	days := DefaultHistoryDays
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be an integer"})
			return
		}
		days = n
	}

	records, err := h.service.Historical(c.Request.Context(), c.Param("mine_id"), days)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

// Monthly handles GET /api/v1/emissions/monthly
func (h *Handler) Monthly(c *gin.Context) {
	docs, err := h.service.Monthly(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, docs)
}

// Average handles GET /api/v1/emissions/average
func (h *Handler) Average(c *gin.Context) {
	doc, err := h.service.Overall(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// UploadCSV handles POST /api/v1/emissions/upload
func (h *Handler) UploadCSV(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if mediaType, _, _ := mime.ParseMediaType(file.Header.Get("Content-Type")); mediaType != "text/csv" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file type, only CSV is supported"})
		return
	}

	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer f.Close()

	result, err := h.service.UploadMonthlyCSV(c.Request.Context(), f)
	if err != nil {
		var invalid *ValidationError
		if errors.As(err, &invalid) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Failed to process emissions CSV", zap.String("filename", file.Filename), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process CSV file: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "CSV uploaded and processed successfully.",
		"data":    result,
	})
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrMineIDRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ErrNoHistory), errors.Is(err, ErrNoSummary):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		h.logger.Error("Emissions request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
