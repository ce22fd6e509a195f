package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"entgo.io/ent/dialect/sql"

	"github.com/ollamafleet/router/ent"
	"github.com/ollamafleet/router/ent/endpointtesttask"
)

// claimPollInterval is how often the claim loop checks for a newly-due
// task when none was found on the last pass.
const claimPollInterval = 500 * time.Millisecond

// claimLoop continuously claims due PENDING tasks, gated by the
// concurrency semaphore, until Stop is called. Same poll-loop shape as
// a session worker's run loop, generalized from "one worker, one
// session" to "one loop, N semaphore-gated concurrent tasks".
func (s *Scheduler) claimLoop(ctx context.Context) {
	defer s.taskWG.Wait()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		default:
		}

		task, err := s.claimDueTask(ctx)
		if err != nil {
			if err == ErrNoTasksAvailable {
				s.sleep(claimPollInterval)
				continue
			}
			slog.Error("scheduler: failed to claim task", "error", err)
			s.sleep(claimPollInterval)
			continue
		}

		select {
		case s.sem <- struct{}{}:
		case <-s.stopCh:
			// The claimed task is not run and stays RUNNING; the next
			// process's startup reset deletes it.
			return
		}

		s.taskWG.Add(1)
		go func(t *ent.EndpointTestTask) {
			defer s.taskWG.Done()
			defer func() { <-s.sem }()
			s.runTask(ctx, t)
		}(task)
	}
}

// claimDueTask atomically claims the oldest due PENDING task using
// FOR UPDATE SKIP LOCKED so multiple claimers never race onto the same
// row. Endpoints that already have a RUNNING task are excluded from the
// candidate set, enforcing "at most one RUNNING task per endpoint" at
// claim time rather than relying solely on the on-demand path's
// best-effort dedup — two due PENDING rows for the same endpoint would
// otherwise both be claimable across successive claimLoop iterations,
// since the first claim's dispatch happens in a background goroutine.
func (s *Scheduler) claimDueTask(ctx context.Context) (*ent.EndpointTestTask, error) {
	tx, err := s.client.Tx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	runningEndpointIDs, err := tx.EndpointTestTask.Query().
		Where(endpointtesttask.StatusEQ(endpointtesttask.StatusRunning)).
		Select(endpointtesttask.FieldEndpointID).
		Strings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query running endpoints: %w", err)
	}

	query := tx.EndpointTestTask.Query().
		Where(
			endpointtesttask.StatusEQ(endpointtesttask.StatusPending),
			endpointtesttask.ScheduledAtLTE(time.Now()),
		)
	if len(runningEndpointIDs) > 0 {
		query = query.Where(endpointtesttask.Not(endpointtesttask.EndpointIDIn(runningEndpointIDs...)))
	}

	task, err := query.
		Order(ent.Asc(endpointtesttask.FieldScheduledAt)).
		Limit(1).
		ForUpdate(sql.WithLockAction(sql.SkipLocked)).
		First(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, ErrNoTasksAvailable
		}
		return nil, fmt.Errorf("failed to query due task: %w", err)
	}

	task, err = task.Update().
		SetStatus(endpointtesttask.StatusRunning).
		SetLastTried(time.Now()).
		Save(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to claim task: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit task claim: %w", err)
	}
	return task, nil
}

// runTask probes the task's endpoint, applies the result, and marks the
// task DONE or FAILED. It never leaves a task RUNNING.
func (s *Scheduler) runTask(ctx context.Context, task *ent.EndpointTestTask) {
	s.recordDispatch()
	log := slog.With("task_id", task.ID, "endpoint_id", task.EndpointID)

	ep, err := s.client.Endpoint.Get(ctx, task.EndpointID)
	if err != nil {
		log.Error("scheduler: failed to load endpoint for task", "error", err)
		s.finishTask(task.ID, endpointtesttask.StatusFailed)
		return
	}

	result := s.runner(ctx, ep.URL)

	if err := s.applier.ApplyProbeResult(ctx, task.EndpointID, result); err != nil {
		log.Error("scheduler: failed to apply probe result", "error", err)
		s.finishTask(task.ID, endpointtesttask.StatusFailed)
		return
	}

	log.Info("scheduler: probe complete", "status", result.Status)
	s.finishTask(task.ID, endpointtesttask.StatusDone)
}

// finishTask always runs against a background context — the task's own
// ctx may already be cancelled (process shutdown) by the time the probe
// returns, but the final status write must still land.
func (s *Scheduler) finishTask(taskID string, status endpointtesttask.Status) {
	if err := s.client.EndpointTestTask.UpdateOneID(taskID).
		SetStatus(status).
		Exec(context.Background()); err != nil {
		slog.Error("scheduler: failed to finalize task status", "task_id", taskID, "status", status, "error", err)
	}
}
