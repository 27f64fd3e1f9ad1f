package offsets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"carbon-offset/offset-portal/offset-portal-backend/internal/cache"
	"carbon-offset/offset-portal/offset-portal-backend/internal/dataset"
	"carbon-offset/offset-portal/offset-portal-backend/internal/notifications"
	"carbon-offset/offset-portal/offset-portal-backend/internal/planner"
	"carbon-offset/offset-portal/offset-portal-backend/internal/response"
	"carbon-offset/offset-portal/offset-portal-backend/internal/simulation"
)

// Engine computes real plans; *planner.Planner satisfies it
type Engine interface {
	Plan(query string) (*planner.Result, error)
	Sites() []string
}

// ServiceOptions configures optional collaborators
type ServiceOptions struct {
	CacheTTL time.Duration
	Events   notifications.Publisher
	Now      func() time.Time
}

// Service serves offset plans, degrading to simulated plans on failure
type Service struct {
	engine Engine
	repo   Repository
	cache  *cache.TTLCache[*Outcome]
	events notifications.Publisher
	logger *zap.Logger
	now    func() time.Time
	ready  atomic.Bool
}

// NewService creates the offset plan service. engine may be nil, in which
// case every plan is simulated. repo may be nil to disable history.
func NewService(engine Engine, repo Repository, logger *zap.Logger, opts ServiceOptions) *Service {
	s := &Service{
		engine: engine,
		repo:   repo,
		events: opts.Events,
		logger: logger,
		now:    opts.Now,
	}
	if s.events == nil {
		s.events = notifications.NopPublisher{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	if opts.CacheTTL > 0 {
		s.cache = cache.New[*Outcome](opts.CacheTTL)
	}
	return s
}

// MarkReady opens the service for requests
func (s *Service) MarkReady() {
	s.ready.Store(true)
}

// Ready reports whether requests are being served
func (s *Service) Ready() bool {
	return s.ready.Load()
}

// Degraded reports whether the service runs without a model-backed planner
func (s *Service) Degraded() bool {
	return s.engine == nil
}

// Close releases background resources
func (s *Service) Close() {
	if s.cache != nil {
		s.cache.Stop()
	}
}

// KnownSites lists the site names the planner can resolve
func (s *Service) KnownSites() []string {
	if s.engine == nil {
		return nil
	}
	return s.engine.Sites()
}

// CacheStats reports plan cache effectiveness; ok is false when disabled
func (s *Service) CacheStats() (cache.Stats, bool) {
	if s.cache == nil {
		return cache.Stats{}, false
	}
	return s.cache.Stats(), true
}

// GetOffsetPlan returns the plan for site. The only errors are ErrNotReady
// and *planner.SiteNotFoundError; every other failure yields a simulated
// outcome whose Cause explains the degradation.
func (s *Service) GetOffsetPlan(ctx context.Context, site string) (*Outcome, error) {
	if !s.Ready() {
		return nil, ErrNotReady
	}

	key := dataset.NormalizeName(site)
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			return cached, nil
		}
	}

	var outcome *Outcome
	if s.engine == nil {
		outcome = s.simulated(site, ErrPlannerUnavailable)
	} else {
		res, err := s.compute(site)
		var notFound *planner.SiteNotFoundError
		switch {
		case errors.As(err, &notFound):
			s.logger.Info("Site not found", zap.String("query", notFound.Query))
			return nil, err
		case err != nil:
			outcome = s.simulated(site, err)
		default:
			model := res.Model
			outcome = &Outcome{
				Kind:        KindReal,
				Query:       site,
				Site:        res.Site,
				Plan:        res.Plan,
				Model:       &model,
				GeneratedAt: s.now(),
			}
			if s.cache != nil {
				s.cache.Set(key, outcome)
			}
		}
	}

	s.record(ctx, outcome)
	s.publish(outcome)
	return outcome, nil
}

// compute runs the planner, turning a panic into a ComputationError
func (s *Service) compute(site string) (res *planner.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &planner.ComputationError{Site: dataset.NormalizeName(site), Reason: "unexpected failure", Err: fmt.Errorf("%v", r)}
		}
	}()
	return s.engine.Plan(site)
}

func (s *Service) simulated(site string, cause error) *Outcome {
	s.logger.Warn("Serving simulated plan", zap.String("query", site), zap.Error(cause))
	resolved := dataset.NormalizeName(site)
	var compErr *planner.ComputationError
	if errors.As(cause, &compErr) && compErr.Site != "" {
		resolved = compErr.Site
	}
	return &Outcome{
		Kind:        KindSimulated,
		Query:       site,
		Site:        resolved,
		Plan:        simulation.Simulate(site),
		Cause:       cause,
		GeneratedAt: s.now(),
	}
}

// record persists the outcome; history failures never fail the request
func (s *Service) record(ctx context.Context, o *Outcome) {
	if s.repo == nil {
		return
	}
	run, err := newPlanRun(o)
	if err != nil {
		s.logger.Error("Failed to encode plan run", zap.Error(err))
		return
	}
	if err := s.repo.Save(ctx, run); err != nil {
		s.logger.Error("Failed to record plan run", zap.String("site", run.SiteName), zap.Error(err))
	}
}

func (s *Service) publish(o *Outcome) {
	msgType := notifications.EventPlanGenerated
	if o.Simulated() {
		msgType = notifications.EventPlanSimulated
	}
	s.events.Publish(notifications.Message{
		Type:      msgType,
		Target:    o.Site,
		Timestamp: o.GeneratedAt,
		Data: map[string]any{
			"query":                       o.Query,
		"mine_name":                   o.Plan.Metadata.MineName,
			"annual_offset_target_tonnes": o.Plan.KPIs.AnnualOffsetTargetTonnes,
			"total_trees_required":        o.Plan.KPIs.TotalTreesRequired,
			"land_status":                 o.Plan.KPIs.LandStatus,
		},
	})
}

func newPlanRun(o *Outcome) (*PlanRun, error) {
	body, err := json.Marshal(response.Normalize(o.Plan))
	if err != nil {
		return nil, err
	}
	run := &PlanRun{
		ID:                 uuid.New(),
		Query:              o.Query,
		SiteName:           o.Site,
		Kind:               o.Kind,
		AnnualTargetTonnes: o.Plan.KPIs.AnnualOffsetTargetTonnes,
		TotalTrees:         o.Plan.KPIs.TotalTreesRequired,
		EstimatedBudgetINR: o.Plan.KPIs.EstimatedBudgetINR,
		LandStatus:         o.Plan.KPIs.LandStatus,
		Plan:               body,
		CreatedAt:          o.GeneratedAt,
	}
	if o.Cause != nil {
		run.Cause = o.Cause.Error()
	}
	if o.Model != nil {
		run.ModelRegion = o.Model.Region
		run.ModelSource = string(o.Model.Source)
	}
	return run, nil
}

// History lists recorded plan runs, newest first
func (s *Service) History(ctx context.Context, filter HistoryFilter) ([]PlanRun, error) {
	if s.repo == nil {
		return []PlanRun{}, nil
	}
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	filter.Site = dataset.NormalizeName(filter.Site)
	return s.repo.List(ctx, filter)
}
