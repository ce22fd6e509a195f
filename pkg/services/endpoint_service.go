package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/ollamafleet/router/ent"
	"github.com/ollamafleet/router/ent/endpoint"
	"github.com/ollamafleet/router/ent/endpointaimodel"
	"github.com/ollamafleet/router/pkg/models"
)

// Scheduler is the subset of the scheduler's API the endpoint service
// needs to trigger probes as a side effect of endpoint CRUD, without
// importing the scheduler package directly (which would create an import
// cycle: scheduler depends on services for the probe-application step).
type Scheduler interface {
	ScheduleEndpointTest(ctx context.Context, endpointID string) error
}

// EndpointService manages Endpoint CRUD and schedules probes on creation.
type EndpointService struct {
	client    *ent.Client
	scheduler Scheduler
}

// NewEndpointService creates a new EndpointService.
func NewEndpointService(client *ent.Client, scheduler Scheduler) *EndpointService {
	return &EndpointService{client: client, scheduler: scheduler}
}

// CreateEndpoint creates one endpoint and schedules an immediate probe.
// A URL that already exists is not an error — it returns the existing row
// untouched, satisfying the "POST with a duplicate URL creates no
// duplicate" invariant without the caller needing to pre-check.
func (s *EndpointService) CreateEndpoint(ctx context.Context, req models.CreateEndpointRequest) (*ent.Endpoint, error) {
	if req.URL == "" {
		return nil, NewValidationError("url", "required")
	}

	existing, err := s.client.Endpoint.Query().Where(endpoint.URLEQ(req.URL)).Only(ctx)
	if err == nil {
		return existing, nil
	}
	if !ent.IsNotFound(err) {
		return nil, fmt.Errorf("failed to look up endpoint by url: %w", err)
	}

	name := req.Name
	if name == "" {
		name = req.URL
	}

	ep, err := s.client.Endpoint.Create().
		SetID(uuid.New().String()).
		SetURL(req.URL).
		SetName(name).
		Save(ctx)
	if err != nil {
		if ent.IsConstraintError(err) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("failed to create endpoint: %w", err)
	}

	if err := s.scheduler.ScheduleEndpointTest(ctx, ep.ID); err != nil {
		return nil, fmt.Errorf("failed to schedule endpoint test: %w", err)
	}

	return ep, nil
}

// CreateEndpointBatch creates multiple endpoints, skipping URLs that
// already exist, and returns every endpoint in the batch (new or
// pre-existing).
func (s *EndpointService) CreateEndpointBatch(ctx context.Context, reqs []models.CreateEndpointRequest) ([]*ent.Endpoint, error) {
	out := make([]*ent.Endpoint, 0, len(reqs))
	for _, req := range reqs {
		ep, err := s.CreateEndpoint(ctx, req)
		if err != nil {
			return nil, err
		}
		out = append(out, ep)
	}
	return out, nil
}

// UpdateEndpoint renames an endpoint.
func (s *EndpointService) UpdateEndpoint(ctx context.Context, id string, req models.UpdateEndpointRequest) (*ent.Endpoint, error) {
	if req.Name == "" {
		return nil, NewValidationError("name", "required")
	}

	ep, err := s.client.Endpoint.UpdateOneID(id).SetName(req.Name).Save(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update endpoint: %w", err)
	}
	return ep, nil
}

// DeleteEndpoint deletes an endpoint; cascades to its performance
// snapshots, model links, and test tasks via the schema's ON DELETE
// CASCADE annotations.
func (s *EndpointService) DeleteEndpoint(ctx context.Context, id string) error {
	err := s.client.Endpoint.DeleteOneID(id).Exec(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete endpoint: %w", err)
	}
	return nil
}

// GetEndpoint fetches one endpoint by ID.
func (s *EndpointService) GetEndpoint(ctx context.Context, id string) (*ent.Endpoint, error) {
	ep, err := s.client.Endpoint.Get(ctx, id)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get endpoint: %w", err)
	}
	return ep, nil
}

// TestEndpoint manually schedules a probe for one endpoint.
func (s *EndpointService) TestEndpoint(ctx context.Context, id string) error {
	if _, err := s.GetEndpoint(ctx, id); err != nil {
		return err
	}
	return s.scheduler.ScheduleEndpointTest(ctx, id)
}

// ListEndpoints returns a paginated, optionally-searched/sorted page of
// endpoints, each annotated with its current linked-model count.
func (s *EndpointService) ListEndpoints(ctx context.Context, f models.EndpointFilters) (*models.EndpointListResponse, error) {
	page, size := normalizePage(f.Page, f.Size)

	query := s.client.Endpoint.Query()
	if f.Search != "" {
		query = query.Where(endpoint.Or(
			endpoint.URLContainsFold(f.Search),
			endpoint.NameContainsFold(f.Search),
		))
	}

	totalCount, err := query.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count endpoints: %w", err)
	}

	query = applyEndpointOrder(query, f.OrderBy, f.Order)
	endpoints, err := query.Offset((page - 1) * size).Limit(size).All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list endpoints: %w", err)
	}

	out := make([]models.EndpointResponse, 0, len(endpoints))
	for _, ep := range endpoints {
		count, err := s.client.EndpointAIModel.Query().
			Where(endpointaimodel.HasEndpointWith(endpoint.IDEQ(ep.ID))).
			Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to count models for endpoint: %w", err)
		}
		out = append(out, models.EndpointResponse{Endpoint: ep, ModelCount: count})
	}

	return &models.EndpointListResponse{
		Endpoints:  out,
		TotalCount: totalCount,
		Page:       page,
		Size:       size,
	}, nil
}

func applyEndpointOrder(q *ent.EndpointQuery, orderBy, order string) *ent.EndpointQuery {
	desc := strings.EqualFold(order, "desc")
	switch orderBy {
	case "name":
		if desc {
			return q.Order(ent.Desc(endpoint.FieldName))
		}
		return q.Order(ent.Asc(endpoint.FieldName))
	case "url":
		if desc {
			return q.Order(ent.Desc(endpoint.FieldURL))
		}
		return q.Order(ent.Asc(endpoint.FieldURL))
	default:
		if desc {
			return q.Order(ent.Desc(endpoint.FieldCreatedAt))
		}
		return q.Order(ent.Asc(endpoint.FieldCreatedAt))
	}
}

// normalizePage applies the pagination defaults and bounds: page is
// 1-indexed, size defaults to 50 and is capped at 100.
func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = 50
	}
	if size > 100 {
		size = 100
	}
	return page, size
}
