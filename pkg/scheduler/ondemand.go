package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ollamafleet/router/ent"
	"github.com/ollamafleet/router/ent/endpointtesttask"
)

// ScheduleEndpointTest implements services.Scheduler: it is how
// EndpointService asks for an immediate (or near-immediate) probe —
// on endpoint creation, batch creation, and the manual "test" action.
//
// Dedup rule: skip if a RUNNING task exists whose scheduled_at falls
// within the running-task grace window; if a future PENDING task
// exists, move it earlier; otherwise create one.
func (s *Scheduler) ScheduleEndpointTest(ctx context.Context, endpointID string) error {
	now := time.Now()
	graceWindowStart := now.Add(-s.cfg.RunningTaskGraceWindow)

	runningRecently, err := s.client.EndpointTestTask.Query().
		Where(
			endpointtesttask.EndpointIDEQ(endpointID),
			endpointtesttask.StatusEQ(endpointtesttask.StatusRunning),
			endpointtesttask.ScheduledAtGTE(graceWindowStart),
		).
		Exist(ctx)
	if err != nil {
		return fmt.Errorf("failed to check running tasks: %w", err)
	}
	if runningRecently {
		return nil
	}

	pending, err := s.client.EndpointTestTask.Query().
		Where(
			endpointtesttask.EndpointIDEQ(endpointID),
			endpointtesttask.StatusEQ(endpointtesttask.StatusPending),
			endpointtesttask.ScheduledAtGT(now),
		).
		First(ctx)
	switch {
	case ent.IsNotFound(err):
		_, err := s.client.EndpointTestTask.Create().
			SetID(uuid.New().String()).
			SetEndpointID(endpointID).
			SetScheduledAt(now.Add(s.cfg.OnDemandLeadTime)).
			Save(ctx)
		if err != nil {
			return fmt.Errorf("failed to create on-demand task: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("failed to look up pending task: %w", err)
	default:
		if _, err := pending.Update().
			SetScheduledAt(now.Add(s.cfg.OnDemandLeadTime)).
			Save(ctx); err != nil {
			return fmt.Errorf("failed to reschedule pending task: %w", err)
		}
		return nil
	}
}
