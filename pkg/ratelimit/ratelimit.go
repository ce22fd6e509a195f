// Package ratelimit enforces per-plan RPM/RPD budgets against an API
// key's usage log.
package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// UsageCounter is the persistence primitive the limiter is built on.
// Satisfied by services.ApiKeyService; declared locally to avoid
// importing pkg/services.
type UsageCounter interface {
	CountSince(ctx context.Context, apiKeyID string, since time.Time) (int, error)
}

// Plan names the RPM/RPD budget an API key is checked against. A
// subset of ent.Plan's fields, so callers don't need to import ent
// just to call Check.
type Plan struct {
	RPM int
	RPD int
}

// Decision reports whether a request is admitted and, if not, which
// bucket tripped.
type Decision struct {
	Allowed bool
	Bucket  string // "rpm" or "rpd", set only when Allowed is false
	Limit   int
}

// Limiter checks API key usage against RPM/RPD budgets. Counting is
// best-effort: no row locking, accepting a small amount of
// over-admission under contention in exchange for never serializing the
// request path on the limiter.
type Limiter struct {
	usage UsageCounter
}

// New builds a Limiter over the given usage counter.
func New(usage UsageCounter) *Limiter {
	return &Limiter{usage: usage}
}

// Check counts the key's usage in the trailing 60-second window and
// since UTC midnight, rejecting if either meets or exceeds the plan's
// budget. RPM is checked first, since it is the tighter, more commonly
// tripped bucket.
func (l *Limiter) Check(ctx context.Context, apiKeyID string, plan Plan) (Decision, error) {
	now := time.Now()

	rpmCount, err := l.usage.CountSince(ctx, apiKeyID, now.Add(-60*time.Second))
	if err != nil {
		return Decision{}, fmt.Errorf("failed to count rpm window: %w", err)
	}
	if rpmCount >= plan.RPM {
		return Decision{Allowed: false, Bucket: "rpm", Limit: plan.RPM}, nil
	}

	nowUTC := now.UTC()
	midnight := time.Date(nowUTC.Year(), nowUTC.Month(), nowUTC.Day(), 0, 0, 0, 0, time.UTC)
	rpdCount, err := l.usage.CountSince(ctx, apiKeyID, midnight)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to count rpd window: %w", err)
	}
	if rpdCount >= plan.RPD {
		return Decision{Allowed: false, Bucket: "rpd", Limit: plan.RPD}, nil
	}

	return Decision{Allowed: true}, nil
}
