package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/ollamafleet/router/ent"
	"github.com/ollamafleet/router/ent/plan"
	"github.com/ollamafleet/router/pkg/models"
)

// PlanService manages rate-limit Plan CRUD. The "exactly one default
// plan" invariant is enforced at the database level by the schema's
// partial unique index on is_default; this service additionally demotes
// the previous default inside the same transaction when a new default is
// set, so the index is never violated by ordinary API use.
type PlanService struct {
	client *ent.Client
}

// NewPlanService creates a new PlanService.
func NewPlanService(client *ent.Client) *PlanService {
	return &PlanService{client: client}
}

// CreatePlan creates a new plan. If is_default is set, the currently
// default plan (if any) is demoted first.
func (s *PlanService) CreatePlan(ctx context.Context, req models.CreatePlanRequest) (*ent.Plan, error) {
	if req.Name == "" {
		return nil, NewValidationError("name", "required")
	}
	if req.RPM <= 0 {
		return nil, NewValidationError("rpm", "must be positive")
	}
	if req.RPD <= 0 {
		return nil, NewValidationError("rpd", "must be positive")
	}

	tx, err := s.client.Tx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if req.IsDefault {
		if err := demoteDefaultPlan(ctx, tx.Client()); err != nil {
			return nil, err
		}
	}

	p, err := tx.Plan.Create().
		SetID(uuid.New().String()).
		SetName(req.Name).
		SetRpm(req.RPM).
		SetRpd(req.RPD).
		SetIsDefault(req.IsDefault).
		Save(ctx)
	if err != nil {
		if ent.IsConstraintError(err) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("failed to create plan: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit plan creation: %w", err)
	}
	return p, nil
}

// UpdatePlan applies a partial update to a plan.
func (s *PlanService) UpdatePlan(ctx context.Context, id string, req models.UpdatePlanRequest) (*ent.Plan, error) {
	tx, err := s.client.Tx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if req.IsDefault != nil && *req.IsDefault {
		if err := demoteDefaultPlan(ctx, tx.Client()); err != nil {
			return nil, err
		}
	}

	update := tx.Plan.UpdateOneID(id)
	if req.Name != nil {
		update = update.SetName(*req.Name)
	}
	if req.RPM != nil {
		update = update.SetRpm(*req.RPM)
	}
	if req.RPD != nil {
		update = update.SetRpd(*req.RPD)
	}
	if req.IsDefault != nil {
		update = update.SetIsDefault(*req.IsDefault)
	}

	p, err := update.Save(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update plan: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit plan update: %w", err)
	}
	return p, nil
}

func demoteDefaultPlan(ctx context.Context, client *ent.Client) error {
	_, err := client.Plan.Update().
		Where(plan.IsDefaultEQ(true)).
		SetIsDefault(false).
		Save(ctx)
	if err != nil {
		return fmt.Errorf("failed to demote previous default plan: %w", err)
	}
	return nil
}

// GetDefaultPlan returns the plan new users inherit.
func (s *PlanService) GetDefaultPlan(ctx context.Context) (*ent.Plan, error) {
	p, err := s.client.Plan.Query().Where(plan.IsDefaultEQ(true)).Only(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get default plan: %w", err)
	}
	return p, nil
}

// ListPlans returns every plan.
func (s *PlanService) ListPlans(ctx context.Context) ([]*ent.Plan, error) {
	plans, err := s.client.Plan.Query().Order(ent.Asc(plan.FieldName)).All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	return plans, nil
}

// GetPlan fetches one plan by ID.
func (s *PlanService) GetPlan(ctx context.Context, id string) (*ent.Plan, error) {
	p, err := s.client.Plan.Get(ctx, id)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	return p, nil
}
