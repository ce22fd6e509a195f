// Package forwarder implements the request-forwarding data plane:
// authenticate, rate-limit, resolve a model to a ranked backend list,
// and relay the request to the first backend that accepts it — with
// streaming failover cut off the instant the first response byte has
// reached the client. Echo-independent (plain net/http), so pkg/api
// can mount it behind whatever routing it likes.
package forwarder

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ollamafleet/router/ent"
	"github.com/ollamafleet/router/pkg/ratelimit"
)

// ErrUnauthorized covers a missing, unknown, or revoked API key.
var ErrUnauthorized = errors.New("unauthorized")

// ErrNoBackendAvailable is returned when the model is unknown or no
// endpoint currently reports it AVAILABLE.
var ErrNoBackendAvailable = errors.New("no backend available for model")

// ErrBadModel is returned when the request names no model, or names one
// that doesn't parse as "name:tag".
var ErrBadModel = errors.New("model must be specified as name:tag")

// RateLimitedError reports which plan bucket rejected the request.
type RateLimitedError struct {
	Bucket string
	Limit  int
}

func (e *RateLimitedError) Error() string {
	return "rate limited: " + e.Bucket
}

// Authenticator resolves a raw API key to its owning row, touching
// last_used_at. Satisfied by services.ApiKeyService.
type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (*ent.ApiKey, error)
}

// RateLimiter enforces a plan's RPM/RPD budget. Satisfied by
// *ratelimit.Limiter.
type RateLimiter interface {
	Check(ctx context.Context, apiKeyID string, plan ratelimit.Plan) (ratelimit.Decision, error)
}

// BackendRouter resolves a model to its ranked, currently-available
// endpoints. Satisfied by *router.Router.
type BackendRouter interface {
	BestEndpointsForModel(ctx context.Context, name, tag string) ([]*ent.Endpoint, error)
}

// UsageLogger records one forwarded request for usage stats and rate
// limiting. Satisfied by services.ApiKeyService.
type UsageLogger interface {
	LogUsage(ctx context.Context, apiKeyID, path, method string, model *string, statusCode int) error
}

// Config controls forwarding timeouts.
type Config struct {
	// FirstByteTimeout bounds how long the forwarder waits for a
	// candidate backend's first response byte before failing over to
	// the next candidate (~10s).
	FirstByteTimeout time.Duration
	// BackendTimeout bounds the overall request to one backend once
	// it's been selected (0 disables, relying on the caller's context).
	BackendTimeout time.Duration
	// InsecureSkipVerify is passed through to the per-backend ollama.Client.
	InsecureSkipVerify bool
}

// DefaultConfig returns the built-in forwarding defaults.
func DefaultConfig() Config {
	return Config{
		FirstByteTimeout: 10 * time.Second,
	}
}

// hopByHopHeaders are stripped from the inbound request before it is
// relayed to a backend.
var hopByHopHeaders = []string{"Host", "Content-Length", "Authorization"}

func scrubHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		if len(v) == 0 {
			continue
		}
		out[k] = v[0]
	}
	for _, k := range hopByHopHeaders {
		delete(out, k)
	}
	return out
}
