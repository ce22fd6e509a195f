package router

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
	"github.com/ollamafleet/router/ent/endpointaimodel"
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

func TestBestEndpointsForModel_OrdersByThroughputThenLatency(t *testing.T) {
	client := newTestEntClient(t)
	ctx := context.Background()

	_, err := client.AIModel.Create().SetID("model-1").SetName("llama3").SetTag("8b").Save(ctx)
	require.NoError(t, err)

	for _, ep := range []struct {
		id        string
		tps       float64
		maxConnMs int64
	}{
		{"ep-slow", 10, 500},
		{"ep-fast", 50, 200},
		{"ep-mid", 30, 300},
	} {
		_, err := client.Endpoint.Create().SetID(ep.id).SetURL("http://" + ep.id + ":11434").Save(ctx)
		require.NoError(t, err)
		_, err = client.EndpointAIModel.Create().
			SetID(ep.id + "-link").
			SetEndpointID(ep.id).
			SetAiModelID("model-1").
			SetStatus(endpointaimodel.StatusAvailable).
			SetTokenPerSecond(ep.tps).
			SetMaxConnectionTimeMs(ep.maxConnMs).
			Save(ctx)
		require.NoError(t, err)
	}

	r := New(client)
	endpoints, err := r.BestEndpointsForModel(ctx, "llama3", "8b")
	require.NoError(t, err)
	require.Len(t, endpoints, 3)
	assert.Equal(t, "ep-fast", endpoints[0].ID)
	assert.Equal(t, "ep-mid", endpoints[1].ID)
	assert.Equal(t, "ep-slow", endpoints[2].ID)
}

func TestBestEndpointsForModel_ExcludesUnavailable(t *testing.T) {
	client := newTestEntClient(t)
	ctx := context.Background()

	_, err := client.AIModel.Create().SetID("model-1").SetName("llama3").SetTag("8b").Save(ctx)
	require.NoError(t, err)

	_, err = client.Endpoint.Create().SetID("ep-1").SetURL("http://ep-1:11434").Save(ctx)
	require.NoError(t, err)
	_, err = client.EndpointAIModel.Create().
		SetID("ep-1-link").
		SetEndpointID("ep-1").
		SetAiModelID("model-1").
		SetStatus(endpointaimodel.StatusUnavailable).
		Save(ctx)
	require.NoError(t, err)

	r := New(client)
	_, err = r.BestEndpointsForModel(ctx, "llama3", "8b")
	assert.ErrorIs(t, err, ErrModelNotFound)
}

func TestBestEndpointsForModel_UnknownModel(t *testing.T) {
	client := newTestEntClient(t)
	r := New(client)
	_, err := r.BestEndpointsForModel(context.Background(), "nonexistent", "latest")
	assert.ErrorIs(t, err, ErrModelNotFound)
}

func TestBestEndpointsForModel_TieBreaksByEndpointID(t *testing.T) {
	client := newTestEntClient(t)
	ctx := context.Background()

	_, err := client.AIModel.Create().SetID("model-1").SetName("llama3").SetTag("8b").Save(ctx)
	require.NoError(t, err)

	for _, id := range []string{"ep-b", "ep-a", "ep-c"} {
		_, err := client.Endpoint.Create().SetID(id).SetURL("http://" + id + ":11434").Save(ctx)
		require.NoError(t, err)
		_, err = client.EndpointAIModel.Create().
			SetID(id + "-link").
			SetEndpointID(id).
			SetAiModelID("model-1").
			SetStatus(endpointaimodel.StatusAvailable).
			SetTokenPerSecond(20).
			SetMaxConnectionTimeMs(100).
			Save(ctx)
		require.NoError(t, err)
	}

	r := New(client)
	endpoints, err := r.BestEndpointsForModel(ctx, "llama3", "8b")
	require.NoError(t, err)
	require.Len(t, endpoints, 3)
	assert.Equal(t, []string{"ep-a", "ep-b", "ep-c"}, []string{endpoints[0].ID, endpoints[1].ID, endpoints[2].ID})
}
