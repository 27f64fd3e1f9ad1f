// Package jobs runs named background jobs on cron schedules.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ErrUnknownJob is returned by RunNow for unregistered names
var ErrUnknownJob = errors.New("unknown job")

// Func is the body of a job
type Func func(ctx context.Context) error

// Run records the last execution of a job
type Run struct {
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Err       string        `json:"error,omitempty"`
}

type job struct {
	name    string
	spec    string
	fn      Func
	entry   cron.EntryID
	mu      sync.Mutex
	lastRun *Run
}

// Scheduler runs registered jobs on six-field (seconds first) cron specs.
// A job never overlaps with itself.
type Scheduler struct {
	cron    *cron.Cron
	jobs    map[string]*job
	timeout time.Duration
	logger  *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	mu      sync.RWMutex
	running bool
}

// NewScheduler creates a scheduler. Each run is bounded by timeout when positive.
func NewScheduler(logger *zap.Logger, timeout time.Duration) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds(), cron.WithChain(cron.Recover(cronLogger{logger}))),
		jobs:    make(map[string]*job),
		timeout: timeout,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Add registers fn under name on spec
func (s *Scheduler) Add(name, spec string, fn Func) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already registered", name)
	}
	j := &job{name: name, spec: spec, fn: fn}
	id, err := s.cron.AddFunc(spec, func() {
		if err := s.execute(s.ctx, j); err != nil {
			s.logger.Error("Scheduled job failed", zap.String("job", name), zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q for job %s: %w", spec, name, err)
	}
	j.entry = id
	s.jobs[name] = j
	return nil
}

// Start begins scheduling
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("scheduler already running")
	}
	s.running = true
	s.cron.Start()

	for _, name := range s.namesLocked() {
		j := s.jobs[name]
		s.logger.Info("Job scheduled",
			zap.String("job", name),
			zap.String("spec", j.spec),
			zap.Time("next", s.cron.Entry(j.entry).Next),
		)
	}
	return nil
}

// Stop cancels running jobs and waits for them to return
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancel()
	if !s.running {
		return
	}
	<-s.cron.Stop().Done()
	s.running = false
}

// RunNow executes name immediately, waiting for any in-flight run first
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.RLock()
	j, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	return s.execute(ctx, j)
}

// LastRun returns the most recent execution of name, if any
func (s *Scheduler) LastRun(name string) (Run, bool) {
	s.mu.RLock()
	j, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return Run{}, false
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.lastRun == nil {
		return Run{}, false
	}
	return *j.lastRun, true
}

// Names lists registered jobs in lexical order
func (s *Scheduler) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.namesLocked()
}

func (s *Scheduler) namesLocked() []string {
	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Scheduler) execute(ctx context.Context, j *job) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	s.logger.Debug("Job started", zap.String("job", j.name))
	err := j.fn(ctx)

	run := &Run{StartedAt: start, Duration: time.Since(start)}
	if err != nil {
		run.Err = err.Error()
	} else {
		s.logger.Info("Job finished", zap.String("job", j.name), zap.Duration("duration", run.Duration))
	}
	j.lastRun = run
	return err
}

// cronLogger adapts zap to cron.Logger
type cronLogger struct {
	logger *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
