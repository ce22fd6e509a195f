package probe

import (
	"context"
	"strings"
	"time"

	"github.com/ollamafleet/router/pkg/ollama"
)

// DefaultPrompt is the fixed, deterministic benchmark prompt sent to
// every model on every probe run, so throughput measurements are
// comparable across backends and over time.
const DefaultPrompt = "Write one sentence describing the weather today."

// Config bounds one probe run's timeouts and fake-marker vocabulary.
type Config struct {
	VersionTimeout  time.Duration
	GenerateTimeout time.Duration
	FakeMarkers     []string
	Prompt          string
}

// Run executes the full probe algorithm against one backend: version,
// tag discovery, then one generation benchmark per discovered model.
// Probes are idempotent — running twice against an unchanged backend
// produces the same classification (modulo timing noise).
func Run(ctx context.Context, client *ollama.Client, cfg Config) EndpointResult {
	prompt := cfg.Prompt
	if prompt == "" {
		prompt = DefaultPrompt
	}
	markers := cfg.FakeMarkers
	if markers == nil {
		markers = DefaultFakeMarkers
	}

	versionCtx, cancel := context.WithTimeout(ctx, cfg.VersionTimeout)
	version, err := client.Version(versionCtx)
	cancel()
	if err != nil {
		return EndpointResult{Status: StatusUnavailable}
	}

	tagsCtx, cancel := context.WithTimeout(ctx, cfg.VersionTimeout)
	tags, err := client.Tags(tagsCtx)
	cancel()
	if err != nil {
		return EndpointResult{Status: StatusUnavailable, OllamaVersion: &version.Version}
	}

	result := EndpointResult{
		Status:        StatusAvailable,
		OllamaVersion: &version.Version,
	}

	for _, tag := range tags.Models {
		name, modelTag := splitNameTag(tag.Model)

		if result.Status == StatusFake {
			result.Models = append(result.Models, ModelResult{Name: name, Tag: modelTag, Status: StatusFake})
			continue
		}

		mr := runOneModel(ctx, client, name, modelTag, prompt, cfg.GenerateTimeout, markers)
		if mr.Status == StatusFake {
			result.Status = StatusFake
		}
		result.Models = append(result.Models, mr)
	}

	return result
}

func runOneModel(ctx context.Context, client *ollama.Client, name, tag, prompt string, deadline time.Duration, markers []string) ModelResult {
	genCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	start := time.Now()
	var connectionTime time.Duration
	var firstChunkSeen bool
	var output strings.Builder
	var evalCount *int
	var sawAnyChunk bool
	var becameFake bool

	err := client.Generate(genCtx, ollama.GenerateRequest{
		Model:  name + ":" + tag,
		Prompt: prompt,
		Stream: true,
	}, func(chunk ollama.GenerateChunk) error {
		sawAnyChunk = true
		if !firstChunkSeen {
			firstChunkSeen = true
			connectionTime = time.Since(start)
		}
		output.WriteString(chunk.Response)
		if containsAnyMarker(output.String(), markers) {
			becameFake = true
		}
		if chunk.EvalCount != nil {
			evalCount = chunk.EvalCount
		}
		return nil
	})

	totalTime := time.Since(start)

	if becameFake {
		return ModelResult{Name: name, Tag: tag, Status: StatusFake, Output: truncateOutput(output.String())}
	}
	if err != nil || !sawAnyChunk {
		return ModelResult{Name: name, Tag: tag, Status: StatusUnavailable}
	}

	outputTokens := 0
	if evalCount != nil {
		outputTokens = *evalCount
	} else {
		outputTokens = EstimateTokens(output.String())
	}

	totalMs := totalTime.Milliseconds()
	connMs := connectionTime.Milliseconds()
	tps := tokensPerSecond(outputTokens, totalTime)

	return ModelResult{
		Name:             name,
		Tag:              tag,
		Status:           StatusAvailable,
		TokenPerSecond:   tps,
		ConnectionTimeMs: &connMs,
		TotalTimeMs:      &totalMs,
		Output:           truncateOutput(output.String()),
		OutputTokens:     &outputTokens,
	}
}

// tokensPerSecond divides by total wall-clock time including cold start;
// the total_time−connection_time alternative is deliberately not used.
func tokensPerSecond(tokens int, totalTime time.Duration) *float64 {
	seconds := totalTime.Seconds()
	if seconds <= 0 {
		return nil
	}
	tps := float64(tokens) / seconds
	return &tps
}

// splitNameTag parses an Ollama "name:tag" model identifier, defaulting
// the tag to "latest" when absent.
func splitNameTag(model string) (name, tag string) {
	if idx := strings.LastIndex(model, ":"); idx >= 0 {
		return model[:idx], model[idx+1:]
	}
	return model, "latest"
}
