package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ollamafleet/router/ent"
	"github.com/ollamafleet/router/ent/endpointtesttask"
)

// resetStaleTasks deletes every PENDING or RUNNING task left over from a
// prior process. Measurements are idempotent and the next periodic tick
// re-schedules anything that still needs probing, so deletion is simpler
// and just as correct as trying to resume mid-flight work.
func resetStaleTasks(ctx context.Context, client *ent.Client) error {
	n, err := client.EndpointTestTask.Delete().
		Where(endpointtesttask.StatusIn(endpointtesttask.StatusPending, endpointtesttask.StatusRunning)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to reset stale endpoint test tasks: %w", err)
	}
	if n > 0 {
		slog.Info("scheduler: cleared stale tasks from previous run", "count", n)
	}
	return nil
}
