// Package scheduler maintains EndpointTestTask rows and dispatches probe
// work with three guarantees: at most one running task per endpoint,
// a process-wide concurrency cap, and crash-safe recovery.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/ollamafleet/router/pkg/probe"
)

// Sentinel errors for task claiming.
var (
	// ErrNoTasksAvailable indicates no pending task is due yet.
	ErrNoTasksAvailable = errors.New("no tasks available")
)

// ModelApplier is the subset of services.ModelService the scheduler
// needs — a local interface to avoid an import cycle (ModelService
// lives in pkg/services, which this package must not import directly
// since EndpointService, also in pkg/services, depends on the
// Scheduler interface this package implements).
type ModelApplier interface {
	ApplyProbeResult(ctx context.Context, endpointID string, result probe.EndpointResult) error
}

// ProbeRunner executes one probe against a backend URL. Implemented in
// production by a closure over pkg/probe.Run and pkg/ollama.NewClient;
// swappable in tests.
type ProbeRunner func(ctx context.Context, endpointURL string) probe.EndpointResult

// Health summarizes the scheduler's current state.
type Health struct {
	ActiveWorkers   int       `json:"active_workers"`
	ConcurrencyCap  int       `json:"concurrency_cap"`
	LastTickAt      time.Time `json:"last_tick_at"`
	TasksDispatched int       `json:"tasks_dispatched"`
}
