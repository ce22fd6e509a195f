package scheduler

import (
	"context"

	"github.com/ollamafleet/router/pkg/config"
	"github.com/ollamafleet/router/pkg/ollama"
	"github.com/ollamafleet/router/pkg/probe"
)

// NewOllamaProbeRunner builds the production ProbeRunner: one throwaway
// ollama.Client per call, scoped to the backend URL being tested, then
// probe.Run against it. A fresh client per probe (rather than a cached,
// process-wide one) matches the "no in-process caches" rule for
// anything that could go stale between runs.
func NewOllamaProbeRunner(cfg *config.SchedulerConfig) ProbeRunner {
	probeCfg := probe.Config{
		VersionTimeout:  cfg.ProbeVersionTimeout,
		GenerateTimeout: cfg.ProbeGenerateTimeout,
	}
	return func(ctx context.Context, endpointURL string) probe.EndpointResult {
		client := ollama.NewClient(endpointURL, ollama.Config{})
		return probe.Run(ctx, client, probeCfg)
	}
}
