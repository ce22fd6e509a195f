// Package probe runs end-to-end liveness/throughput tests against one
// backend and classifies the result.
package probe

// Status mirrors the AIModel/Endpoint status vocabulary used across the
// schema and the API — kept as plain strings here (rather than importing
// the generated ent enum types) so pkg/probe has no dependency on ent,
// keeping its transport/classification logic free of any
// persistence-layer import.
type Status string

const (
	StatusAvailable   Status = "available"
	StatusUnavailable Status = "unavailable"
	StatusFake        Status = "fake"
)

// ModelResult is one model's measurement within a single probe run.
type ModelResult struct {
	Name             string
	Tag              string
	Status           Status
	TokenPerSecond   *float64
	ConnectionTimeMs *int64
	TotalTimeMs      *int64
	Output           string
	OutputTokens     *int
}

// EndpointResult is the full outcome of probing one backend: its own
// liveness snapshot plus one ModelResult per model discovered in `tags`.
type EndpointResult struct {
	Status        Status
	OllamaVersion *string
	Models        []ModelResult
}
