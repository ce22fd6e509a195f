package scheduler

import (
	"context"
	"testing"
	"time"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/ollamafleet/router/ent"
	"github.com/ollamafleet/router/ent/endpointtesttask"
	"github.com/ollamafleet/router/pkg/config"
	"github.com/ollamafleet/router/pkg/probe"
)

func newTestEntClient(t *testing.T) *ent.Client {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(pgContainer); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	drv, err := sql.Open(dialect.Postgres, connStr)
	require.NoError(t, err)

	client := ent.NewClient(ent.Driver(drv))
	require.NoError(t, client.Schema.Create(ctx))
	t.Cleanup(func() { client.Close() })

	return client
}

type stubApplier struct {
	calls int
	last  probe.EndpointResult
}

func (s *stubApplier) ApplyProbeResult(_ context.Context, _ string, result probe.EndpointResult) error {
	s.calls++
	s.last = result
	return nil
}

type fixedIntervalReader struct{ hours int }

func (f fixedIntervalReader) IntervalHours(_ context.Context, _ int) int { return f.hours }

func testSchedulerConfig() *config.SchedulerConfig {
	cfg := config.DefaultSchedulerConfig()
	cfg.WarmupDelay = 0
	cfg.OnDemandLeadTime = 0
	cfg.RunningTaskGraceWindow = 10 * time.Minute
	cfg.EndpointBatchSize = 500
	cfg.BatchYield = time.Millisecond
	return cfg
}

func TestScheduleIfDue_CreatesTaskWhenNoneExists(t *testing.T) {
	client := newTestEntClient(t)
	ctx := context.Background()

	ep, err := client.Endpoint.Create().SetID("ep-1").SetURL("http://b1:11434").Save(ctx)
	require.NoError(t, err)

	s := New(client, testSchedulerConfig(), &stubApplier{}, fixedIntervalReader{24}, nil)
	require.NoError(t, s.scheduleIfDue(ctx, ep.ID, 24*time.Hour))

	count, err := client.EndpointTestTask.Query().Where(endpointtesttask.EndpointIDEQ(ep.ID)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestScheduleIfDue_SkipsWhenRecentDoneTaskExists(t *testing.T) {
	client := newTestEntClient(t)
	ctx := context.Background()

	ep, err := client.Endpoint.Create().SetID("ep-1").SetURL("http://b1:11434").Save(ctx)
	require.NoError(t, err)

	_, err = client.EndpointTestTask.Create().
		SetID("task-1").
		SetEndpointID(ep.ID).
		SetStatus(endpointtesttask.StatusDone).
		SetScheduledAt(time.Now().Add(-time.Hour)).
		Save(ctx)
	require.NoError(t, err)

	s := New(client, testSchedulerConfig(), &stubApplier{}, fixedIntervalReader{24}, nil)
	require.NoError(t, s.scheduleIfDue(ctx, ep.ID, 24*time.Hour))

	count, err := client.EndpointTestTask.Query().Where(endpointtesttask.EndpointIDEQ(ep.ID)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "should not have created a second task")
}

func TestScheduleIfDue_CreatesFreshTaskWhenPriorOneExpired(t *testing.T) {
	client := newTestEntClient(t)
	ctx := context.Background()

	ep, err := client.Endpoint.Create().SetID("ep-1").SetURL("http://b1:11434").Save(ctx)
	require.NoError(t, err)

	_, err = client.EndpointTestTask.Create().
		SetID("task-1").
		SetEndpointID(ep.ID).
		SetStatus(endpointtesttask.StatusDone).
		SetScheduledAt(time.Now().Add(-48 * time.Hour)).
		Save(ctx)
	require.NoError(t, err)

	s := New(client, testSchedulerConfig(), &stubApplier{}, fixedIntervalReader{24}, nil)
	require.NoError(t, s.scheduleIfDue(ctx, ep.ID, 24*time.Hour))

	count, err := client.EndpointTestTask.Query().Where(endpointtesttask.EndpointIDEQ(ep.ID)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestScheduleEndpointTest_SkipsWhenRecentlyRunning(t *testing.T) {
	client := newTestEntClient(t)
	ctx := context.Background()

	ep, err := client.Endpoint.Create().SetID("ep-1").SetURL("http://b1:11434").Save(ctx)
	require.NoError(t, err)

	_, err = client.EndpointTestTask.Create().
		SetID("task-1").
		SetEndpointID(ep.ID).
		SetStatus(endpointtesttask.StatusRunning).
		SetScheduledAt(time.Now()).
		Save(ctx)
	require.NoError(t, err)

	s := New(client, testSchedulerConfig(), &stubApplier{}, fixedIntervalReader{24}, nil)
	require.NoError(t, s.ScheduleEndpointTest(ctx, ep.ID))

	count, err := client.EndpointTestTask.Query().Where(endpointtesttask.EndpointIDEQ(ep.ID)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestScheduleEndpointTest_MovesFuturePendingEarlier(t *testing.T) {
	client := newTestEntClient(t)
	ctx := context.Background()

	ep, err := client.Endpoint.Create().SetID("ep-1").SetURL("http://b1:11434").Save(ctx)
	require.NoError(t, err)

	task, err := client.EndpointTestTask.Create().
		SetID("task-1").
		SetEndpointID(ep.ID).
		SetStatus(endpointtesttask.StatusPending).
		SetScheduledAt(time.Now().Add(time.Hour)).
		Save(ctx)
	require.NoError(t, err)

	cfg := testSchedulerConfig()
	cfg.OnDemandLeadTime = time.Second
	s := New(client, cfg, &stubApplier{}, fixedIntervalReader{24}, nil)
	require.NoError(t, s.ScheduleEndpointTest(ctx, ep.ID))

	refreshed, err := client.EndpointTestTask.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, refreshed.ScheduledAt.Before(time.Now().Add(time.Minute)))

	count, err := client.EndpointTestTask.Query().Where(endpointtesttask.EndpointIDEQ(ep.ID)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestClaimDueTaskAndRunTask_MarksTaskDone(t *testing.T) {
	client := newTestEntClient(t)
	ctx := context.Background()

	ep, err := client.Endpoint.Create().SetID("ep-1").SetURL("http://b1:11434").Save(ctx)
	require.NoError(t, err)

	_, err = client.EndpointTestTask.Create().
		SetID("task-1").
		SetEndpointID(ep.ID).
		SetStatus(endpointtesttask.StatusPending).
		SetScheduledAt(time.Now().Add(-time.Second)).
		Save(ctx)
	require.NoError(t, err)

	applier := &stubApplier{}
	runner := func(_ context.Context, url string) probe.EndpointResult {
		assert.Equal(t, "http://b1:11434", url)
		return probe.EndpointResult{Status: probe.StatusAvailable}
	}

	s := New(client, testSchedulerConfig(), applier, fixedIntervalReader{24}, runner)

	task, err := s.claimDueTask(ctx)
	require.NoError(t, err)
	require.Equal(t, endpointtesttask.StatusRunning, task.Status)

	s.runTask(ctx, task)

	assert.Equal(t, 1, applier.calls)
	assert.Equal(t, probe.StatusAvailable, applier.last.Status)

	final, err := client.EndpointTestTask.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, endpointtesttask.StatusDone, final.Status)
}

func TestClaimDueTask_NoneAvailable(t *testing.T) {
	client := newTestEntClient(t)
	ctx := context.Background()

	s := New(client, testSchedulerConfig(), &stubApplier{}, fixedIntervalReader{24}, nil)
	_, err := s.claimDueTask(ctx)
	assert.ErrorIs(t, err, ErrNoTasksAvailable)
}
