package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ollamafleet/router/ent"
	"github.com/ollamafleet/router/ent/endpoint"
	"github.com/ollamafleet/router/ent/endpointtesttask"
)

// tickLoop fires the first periodic scheduling pass after the configured
// warm-up delay, then re-fires using whatever interval the
// update_endpoint_task_interval_hours setting currently holds — re-read
// on every pass so a mid-flight change takes effect on the next tick
// without a restart.
func (s *Scheduler) tickLoop(ctx context.Context) {
	select {
	case <-s.stopCh:
		return
	case <-ctx.Done():
		return
	case <-time.After(s.cfg.WarmupDelay):
	}

	for {
		if err := s.runTick(ctx); err != nil {
			slog.Error("scheduler: periodic tick failed", "error", err)
		}
		s.recordTick()

		hours := s.settings.IntervalHours(ctx, s.cfg.DefaultIntervalHours)
		select {
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		case <-time.After(time.Duration(hours) * time.Hour):
		}
	}
}

// runTick enumerates every endpoint in batches, scheduling a probe task
// for each one that doesn't already have a recent-enough DONE/RUNNING
// task or a pending future one.
func (s *Scheduler) runTick(ctx context.Context) error {
	interval := time.Duration(s.settings.IntervalHours(ctx, s.cfg.DefaultIntervalHours)) * time.Hour
	offset := 0

	for {
		ids, err := s.client.Endpoint.Query().
			Order(ent.Asc(endpoint.FieldCreatedAt)).
			Offset(offset).
			Limit(s.cfg.EndpointBatchSize).
			IDs(ctx)
		if err != nil {
			return fmt.Errorf("failed to enumerate endpoints: %w", err)
		}
		if len(ids) == 0 {
			return nil
		}

		for _, id := range ids {
			if err := s.scheduleIfDue(ctx, id, interval); err != nil {
				slog.Error("scheduler: failed to schedule endpoint", "endpoint_id", id, "error", err)
			}
		}

		if len(ids) < s.cfg.EndpointBatchSize {
			return nil
		}
		offset += len(ids)
		s.sleep(s.cfg.BatchYield)
	}
}

// scheduleIfDue implements the periodic tick's per-endpoint dedup rule:
// skip if a DONE/RUNNING task already covers this interval window, fold
// into an existing future PENDING task if one exists, otherwise create a
// fresh PENDING task due shortly.
func (s *Scheduler) scheduleIfDue(ctx context.Context, endpointID string, interval time.Duration) error {
	now := time.Now()
	windowStart := now.Add(-interval)

	recentlyCovered, err := s.client.EndpointTestTask.Query().
		Where(
			endpointtesttask.EndpointIDEQ(endpointID),
			endpointtesttask.StatusIn(endpointtesttask.StatusDone, endpointtesttask.StatusRunning),
			endpointtesttask.ScheduledAtGTE(windowStart),
		).
		Exist(ctx)
	if err != nil {
		return fmt.Errorf("failed to check recent tasks: %w", err)
	}
	if recentlyCovered {
		return nil
	}

	hasFuturePending, err := s.client.EndpointTestTask.Query().
		Where(
			endpointtesttask.EndpointIDEQ(endpointID),
			endpointtesttask.StatusEQ(endpointtesttask.StatusPending),
			endpointtesttask.ScheduledAtGT(now),
		).
		Exist(ctx)
	if err != nil {
		return fmt.Errorf("failed to look up pending task: %w", err)
	}
	if hasFuturePending {
		return nil
	}

	if _, err := s.client.EndpointTestTask.Create().
		SetID(uuid.New().String()).
		SetEndpointID(endpointID).
		SetScheduledAt(now.Add(s.cfg.OnDemandLeadTime)).
		Save(ctx); err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}
