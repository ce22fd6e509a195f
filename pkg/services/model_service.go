package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/ollamafleet/router/ent"
	"github.com/ollamafleet/router/ent/aimodel"
	"github.com/ollamafleet/router/ent/aimodelperformance"
	"github.com/ollamafleet/router/ent/endpoint"
	"github.com/ollamafleet/router/ent/endpointaimodel"
	"github.com/ollamafleet/router/ent/endpointperformance"
	"github.com/ollamafleet/router/pkg/models"
	"github.com/ollamafleet/router/pkg/probe"
)

// ModelService owns AIModel/EndpointAIModel reads and is the sole writer
// of probe measurements.
type ModelService struct {
	client *ent.Client
}

// NewModelService creates a new ModelService.
func NewModelService(client *ent.Client) *ModelService {
	return &ModelService{client: client}
}

// ApplyProbeResult persists one Probe outcome atomically: an
// EndpointPerformance snapshot, AIModel upserts, EndpointAIModel link
// upserts, a fresh AIModelPerformance row per discovered model, and a
// MISSING transition for any previously-linked model absent from this
// run's discovery set. Concurrent probes against the *same* endpoint must
// be serialized by the caller (the Scheduler's per-endpoint exclusivity
// guarantee) — this function does not itself lock the endpoint row.
func (s *ModelService) ApplyProbeResult(ctx context.Context, endpointID string, result probe.EndpointResult) error {
	tx, err := s.client.Tx(ctx)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	var ollamaVersion *string
	if result.OllamaVersion != nil {
		v := *result.OllamaVersion
		ollamaVersion = &v
	}
	if _, err := tx.EndpointPerformance.Create().
		SetID(uuid.New().String()).
		SetEndpointID(endpointID).
		SetStatus(endpointperformance.Status(result.Status)).
		SetNillableOllamaVersion(ollamaVersion).
		Save(ctx); err != nil {
		return fmt.Errorf("failed to record endpoint performance: %w", err)
	}

	discovered := make(map[string]struct{}, len(result.Models))
	for _, m := range result.Models {
		key := m.Name + ":" + m.Tag
		discovered[key] = struct{}{}

		aiModel, err := tx.AIModel.Query().
			Where(aimodel.NameEQ(m.Name), aimodel.TagEQ(m.Tag)).
			Only(ctx)
		if ent.IsNotFound(err) {
			aiModel, err = tx.AIModel.Create().
				SetID(uuid.New().String()).
				SetName(m.Name).
				SetTag(m.Tag).
				Save(ctx)
		}
		if err != nil {
			return fmt.Errorf("failed to upsert ai_model %s: %w", key, err)
		}

		link, err := tx.EndpointAIModel.Query().
			Where(
				endpointaimodel.EndpointIDEQ(endpointID),
				endpointaimodel.AiModelIDEQ(aiModel.ID),
			).
			Only(ctx)
		switch {
		case ent.IsNotFound(err):
			link, err = tx.EndpointAIModel.Create().
				SetID(uuid.New().String()).
				SetEndpointID(endpointID).
				SetAiModelID(aiModel.ID).
				SetStatus(endpointaimodel.Status(m.Status)).
				SetNillableTokenPerSecond(m.TokenPerSecond).
				SetNillableMaxConnectionTimeMs(m.ConnectionTimeMs).
				Save(ctx)
			if err != nil {
				return fmt.Errorf("failed to create endpoint_ai_model link: %w", err)
			}
		case err != nil:
			return fmt.Errorf("failed to load endpoint_ai_model link: %w", err)
		default:
			maxConn := maxNillableInt64(link.MaxConnectionTimeMs, m.ConnectionTimeMs)
			link, err = link.Update().
				SetStatus(endpointaimodel.Status(m.Status)).
				SetNillableTokenPerSecond(m.TokenPerSecond).
				SetNillableMaxConnectionTimeMs(maxConn).
				Save(ctx)
			if err != nil {
				return fmt.Errorf("failed to update endpoint_ai_model link: %w", err)
			}
		}

		if _, err := tx.AIModelPerformance.Create().
			SetID(uuid.New().String()).
			SetEndpointAiModelID(link.ID).
			SetStatus(aimodelperformance.Status(m.Status)).
			SetNillableTokenPerSecond(m.TokenPerSecond).
			SetNillableConnectionTimeMs(m.ConnectionTimeMs).
			SetNillableTotalTimeMs(m.TotalTimeMs).
			SetOutput(m.Output).
			SetNillableOutputTokens(m.OutputTokens).
			Save(ctx); err != nil {
			return fmt.Errorf("failed to record ai_model_performance: %w", err)
		}
	}

	// Anything previously linked to this endpoint but absent from this
	// run's discovery set transitions to MISSING.
	existingLinks, err := tx.EndpointAIModel.Query().
		Where(endpointaimodel.HasEndpointWith(endpoint.IDEQ(endpointID))).
		WithAiModel().
		All(ctx)
	if err != nil {
		return fmt.Errorf("failed to load existing links: %w", err)
	}
	for _, link := range existingLinks {
		if link.Edges.AiModel == nil {
			continue
		}
		key := link.Edges.AiModel.Name + ":" + link.Edges.AiModel.Tag
		if _, ok := discovered[key]; ok {
			continue
		}
		if link.Status == endpointaimodel.StatusMissing {
			continue
		}
		link, err = link.Update().SetStatus(endpointaimodel.StatusMissing).Save(ctx)
		if err != nil {
			return fmt.Errorf("failed to mark link missing: %w", err)
		}
		if _, err := tx.AIModelPerformance.Create().
			SetID(uuid.New().String()).
			SetEndpointAiModelID(link.ID).
			SetStatus(aimodelperformance.StatusMissing).
			Save(ctx); err != nil {
			return fmt.Errorf("failed to record missing ai_model_performance: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit probe result: %w", err)
	}
	return nil
}

func maxNillableInt64(prev, next *int64) *int64 {
	if prev == nil {
		return next
	}
	if next == nil {
		return prev
	}
	if *next > *prev {
		return next
	}
	return prev
}

// ListModels returns a paginated, optionally-searched/sorted page of
// AIModels, each annotated with the number of endpoints currently
// reporting it.
func (s *ModelService) ListModels(ctx context.Context, f models.AIModelFilters) (*models.AIModelListResponse, error) {
	page, size := normalizePage(f.Page, f.Size)

	query := s.client.AIModel.Query()
	if f.Search != "" {
		query = query.Where(aimodel.Or(
			aimodel.NameContainsFold(f.Search),
			aimodel.TagContainsFold(f.Search),
		))
	}

	totalCount, err := query.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count ai_models: %w", err)
	}

	desc := strings.EqualFold(f.Order, "desc")
	if desc {
		query = query.Order(ent.Desc(aimodel.FieldCreatedAt))
	} else {
		query = query.Order(ent.Asc(aimodel.FieldCreatedAt))
	}

	ms, err := query.Offset((page - 1) * size).Limit(size).All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list ai_models: %w", err)
	}

	out := make([]models.AIModelResponse, 0, len(ms))
	for _, m := range ms {
		count, err := s.client.EndpointAIModel.Query().
			Where(endpointaimodel.HasAiModelWith(aimodel.IDEQ(m.ID))).
			Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to count endpoints for ai_model: %w", err)
		}
		out = append(out, models.AIModelResponse{AIModel: m, EndpointCount: count})
	}

	return &models.AIModelListResponse{
		Models:     out,
		TotalCount: totalCount,
		Page:       page,
		Size:       size,
	}, nil
}

// FindByNameTag resolves a "name:tag" identifier to its AIModel row.
func (s *ModelService) FindByNameTag(ctx context.Context, name, tag string) (*ent.AIModel, error) {
	m, err := s.client.AIModel.Query().
		Where(aimodel.NameEQ(name), aimodel.TagEQ(tag)).
		Only(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find ai_model: %w", err)
	}
	return m, nil
}
