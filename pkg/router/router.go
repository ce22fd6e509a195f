// Package router resolves a served (name, tag) model pair to the
// ordered list of backend endpoints currently able to serve it.
package router

import (
	"context"
	"errors"
	"fmt"

	"github.com/ollamafleet/router/ent"
	"github.com/ollamafleet/router/ent/aimodel"
	"github.com/ollamafleet/router/ent/endpointaimodel"
)

// ErrModelNotFound is returned when no AIModel row exists for the
// requested (name, tag), or when one exists but no endpoint currently
// reports it AVAILABLE.
var ErrModelNotFound = errors.New("no available endpoint for model")

// Router resolves candidate backends for a model. Read-only: it does no
// timing of its own, it only reflects whatever the scheduler's probes
// last wrote.
type Router struct {
	client *ent.Client
}

// New builds a Router over the given ent client.
func New(client *ent.Client) *Router {
	return &Router{client: client}
}

// BestEndpointsForModel returns every Endpoint currently serving
// (name, tag) as AVAILABLE, ordered best-first: highest measured
// throughput, then lowest max connection time, then endpoint ID for a
// fully deterministic tie-break via a chained multi-key Order(...).
func (r *Router) BestEndpointsForModel(ctx context.Context, name, tag string) ([]*ent.Endpoint, error) {
	model, err := r.client.AIModel.Query().
		Where(aimodel.NameEQ(name), aimodel.TagEQ(tag)).
		Only(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, ErrModelNotFound
		}
		return nil, fmt.Errorf("failed to resolve model %s:%s: %w", name, tag, err)
	}

	links, err := r.client.EndpointAIModel.Query().
		Where(
			endpointaimodel.AiModelIDEQ(model.ID),
			endpointaimodel.StatusEQ(endpointaimodel.StatusAvailable),
		).
		Order(
			ent.Desc(endpointaimodel.FieldTokenPerSecond),
			ent.Asc(endpointaimodel.FieldMaxConnectionTimeMs),
			ent.Asc(endpointaimodel.FieldEndpointID),
		).
		WithEndpoint().
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query endpoint links for model %s:%s: %w", name, tag, err)
	}
	if len(links) == 0 {
		return nil, ErrModelNotFound
	}

	endpoints := make([]*ent.Endpoint, 0, len(links))
	for _, link := range links {
		endpoints = append(endpoints, link.Edges.Endpoint)
	}
	return endpoints, nil
}
