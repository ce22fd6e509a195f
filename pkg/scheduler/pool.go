package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ollamafleet/router/ent"
	"github.com/ollamafleet/router/pkg/config"
)

// IntervalReader reads the current probe interval, falling back to a
// caller-supplied default. Satisfied by services.SettingService; a
// local interface here avoids importing pkg/services for the sole
// purpose of one method.
type IntervalReader interface {
	IntervalHours(ctx context.Context, fallback int) int
}

// Scheduler maintains EndpointTestTask rows and dispatches probe work
// against a process-wide concurrency cap. Same claim-then-execute shape
// as a session worker pool, generalized from a fixed worker-goroutine
// pool to a semaphore-gated claim loop, since the unit of work here
// (version+tags+N generates) is variable-length rather than uniform.
type Scheduler struct {
	client   *ent.Client
	cfg      *config.SchedulerConfig
	applier  ModelApplier
	runner   ProbeRunner
	settings IntervalReader

	sem      chan struct{}
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	taskWG   sync.WaitGroup
	started  bool

	mu         sync.Mutex
	lastTick   time.Time
	dispatched int
}

// New creates a Scheduler. runner is how one probe is actually executed
// against a backend URL (production wiring closes over pkg/ollama and
// pkg/probe; tests can substitute a stub).
func New(client *ent.Client, cfg *config.SchedulerConfig, applier ModelApplier, settings IntervalReader, runner ProbeRunner) *Scheduler {
	return &Scheduler{
		client:   client,
		cfg:      cfg,
		applier:  applier,
		settings: settings,
		runner:   runner,
		sem:      make(chan struct{}, cfg.ConcurrencyCap),
		stopCh:   make(chan struct{}),
	}
}

// Start resets stale tasks from a prior run, then launches the claim
// loop and the periodic scheduling tick. Safe to call once; a second
// call is a no-op.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.started {
		return nil
	}
	s.started = true

	if err := resetStaleTasks(ctx, s.client); err != nil {
		return err
	}

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		s.claimLoop(ctx)
	}()
	go func() {
		defer s.wg.Done()
		s.tickLoop(ctx)
	}()

	slog.Info("scheduler started", "concurrency_cap", s.cfg.ConcurrencyCap)
	return nil
}

// Stop signals both background loops to exit and waits for in-flight
// probes to finish.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.wg.Wait()
	slog.Info("scheduler stopped")
}

// Health reports the scheduler's current dispatch state.
func (s *Scheduler) Health() Health {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Health{
		ActiveWorkers:   len(s.sem),
		ConcurrencyCap:  cap(s.sem),
		LastTickAt:      s.lastTick,
		TasksDispatched: s.dispatched,
	}
}

func (s *Scheduler) recordTick() {
	s.mu.Lock()
	s.lastTick = time.Now()
	s.mu.Unlock()
}

func (s *Scheduler) recordDispatch() {
	s.mu.Lock()
	s.dispatched++
	s.mu.Unlock()
}

// sleep waits for d or until Stop is called.
func (s *Scheduler) sleep(d time.Duration) {
	select {
	case <-s.stopCh:
	case <-time.After(d):
	}
}
