package hotspots

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"carbon-offset/offset-portal/offset-portal-backend/internal/dataset"
	"carbon-offset/offset-portal/offset-portal-backend/internal/notifications"
)

// ErrInvalidLevel is returned when a filter names an unknown level
var ErrInvalidLevel = errors.New("unknown hotspot level")

// DefaultMaxPageSize caps listing limits when no maximum is configured
const DefaultMaxPageSize = 1000

// ServiceOptions configures optional collaborators
type ServiceOptions struct {
	Events      notifications.Publisher
	MaxPageSize int
	Now         func() time.Time
}

// Service classifies emission observations and serves the stored hotspots
type Service struct {
	repo        Repository
	events      notifications.Publisher
	logger      *zap.Logger
	maxPageSize int
	now         func() time.Time
}

// NewService creates a hotspot service
func NewService(repo Repository, logger *zap.Logger, opts ServiceOptions) *Service {
	s := &Service{
		repo:        repo,
		events:      opts.Events,
		logger:      logger,
		maxPageSize: opts.MaxPageSize,
		now:         opts.Now,
	}
	if s.events == nil {
		s.events = notifications.NopPublisher{}
	}
	if s.maxPageSize <= 0 {
		s.maxPageSize = DefaultMaxPageSize
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Refresh reclassifies rows and replaces the stored hotspots
func (s *Service) Refresh(ctx context.Context, rows []dataset.EmissionObservation) (*Classification, error) {
	result, err := Classify(rows, s.now().UTC())
	if err != nil {
		return nil, err
	}
	if err := s.repo.ReplaceAll(ctx, result.Hotspots); err != nil {
		return nil, err
	}

	s.logger.Info("Hotspots reclassified",
		zap.Int("stored", len(result.Hotspots)),
		zap.Int("dropped", result.Dropped),
		zap.Int("red", result.Counts[LevelRed]),
		zap.Int("orange", result.Counts[LevelOrange]),
		zap.Int("yellow", result.Counts[LevelYellow]),
		zap.Float64("low_threshold", result.Thresholds.Low),
		zap.Float64("high_threshold", result.Thresholds.High),
	)
	s.events.Publish(notifications.Message{
		Type:      notifications.EventHotspotsRefreshed,
		Timestamp: s.now(),
		Data: map[string]any{
			"total":  len(result.Hotspots),
			"red":    result.Counts[LevelRed],
			"orange": result.Counts[LevelOrange],
			"yellow": result.Counts[LevelYellow],
		},
	})
	return result, nil
}

// limit clamps a requested page size into [1, maxPageSize]
func (s *Service) limit(n int) int {
	if n <= 0 || n > s.maxPageSize {
		return s.maxPageSize
	}
	return n
}

// Top returns the highest scoring hotspots
func (s *Service) Top(ctx context.Context, limit int) ([]Hotspot, error) {
	return s.repo.Top(ctx, s.limit(limit))
}

// List returns one page of hotspots matching filter
func (s *Service) List(ctx context.Context, filter ListFilter) (*Page, error) {
	if filter.Level != "" && !filter.Level.Valid() {
		return nil, fmt.Errorf("%w %q", ErrInvalidLevel, filter.Level)
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	filter.Limit = s.limit(filter.Limit)

	data, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &Page{
		Page:       filter.Page,
		Limit:      filter.Limit,
		Total:      total,
		TotalPages: (total + filter.Limit - 1) / filter.Limit,
		Count:      len(data),
		Data:       data,
	}, nil
}

// Stats returns the per-level breakdown
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	return s.repo.Stats(ctx)
}

// ByState returns per-state level counts
func (s *Service) ByState(ctx context.Context) ([]StateBreakdown, error) {
	return s.repo.ByState(ctx)
}

// InBounds returns located hotspots inside bound; nil means anywhere
func (s *Service) InBounds(ctx context.Context, bound *orb.Bound, limit int) ([]Hotspot, error) {
	return s.repo.InBounds(ctx, bound, s.limit(limit))
}
