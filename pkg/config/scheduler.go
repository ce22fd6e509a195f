package config

import "time"

// SchedulerConfig controls how the endpoint-test Scheduler polls, claims,
// and dispatches probe tasks. Same shape as a session-worker-pool's
// QueueConfig, generalized from "session worker pool" to "endpoint probe
// dispatcher".
type SchedulerConfig struct {
	// ConcurrencyCap is the process-wide limit on simultaneously running
	// probe tasks (default 50).
	ConcurrencyCap int

	// DefaultIntervalHours is the fallback periodic-tick interval used
	// before the update_endpoint_task_interval_hours SystemSetting is
	// first read (auto-seeded to 24).
	DefaultIntervalHours int

	// WarmupDelay is how long the Scheduler waits after Start before
	// firing the first periodic tick (~10s).
	WarmupDelay time.Duration

	// OnDemandLeadTime is how far in the future a newly created task's
	// scheduled_at is set (~30s).
	OnDemandLeadTime time.Duration

	// RunningTaskGraceWindow bounds on-demand scheduling's dedup check:
	// skip creating a new task if a RUNNING one exists that started more
	// recently than this window (~10 min).
	RunningTaskGraceWindow time.Duration

	// EndpointBatchSize bounds how many endpoint IDs the periodic tick
	// loads per page (up to 500).
	EndpointBatchSize int

	// BatchYield is the pause between endpoint batches during a periodic
	// tick, so the request path is never starved of DB connections.
	BatchYield time.Duration

	// ProbeVersionTimeout bounds the version() call in Probe (~10s).
	ProbeVersionTimeout time.Duration

	// ProbeGenerateTimeout bounds one model's generation benchmark
	// (default 60s).
	ProbeGenerateTimeout time.Duration

	// ConfigPollInterval is how often the Scheduler re-reads the interval
	// setting to decide whether to reinstall its periodic ticker.
	ConfigPollInterval time.Duration
}

// DefaultSchedulerConfig returns the built-in scheduler defaults.
func DefaultSchedulerConfig() *SchedulerConfig {
	return &SchedulerConfig{
		ConcurrencyCap:         50,
		DefaultIntervalHours:   24,
		WarmupDelay:            10 * time.Second,
		OnDemandLeadTime:       30 * time.Second,
		RunningTaskGraceWindow: 10 * time.Minute,
		EndpointBatchSize:      500,
		BatchYield:             50 * time.Millisecond,
		ProbeVersionTimeout:    10 * time.Second,
		ProbeGenerateTimeout:   60 * time.Second,
		ConfigPollInterval:     1 * time.Minute,
	}
}

// MinIntervalHours and MaxIntervalHours bound the
// update_endpoint_task_interval_hours SystemSetting ("1..1440").
const (
	MinIntervalHours = 1
	MaxIntervalHours = 1440
)
