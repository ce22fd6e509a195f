package models

import "github.com/ollamafleet/router/ent"

// CreatePlanRequest is the body of POST /api/v2/plan.
type CreatePlanRequest struct {
	Name      string `json:"name"`
	RPM       int    `json:"rpm"`
	RPD       int    `json:"rpd"`
	IsDefault bool   `json:"is_default,omitempty"`
}

// UpdatePlanRequest is the body of PATCH /api/v2/plan/{id}.
type UpdatePlanRequest struct {
	Name      *string `json:"name,omitempty"`
	RPM       *int    `json:"rpm,omitempty"`
	RPD       *int    `json:"rpd,omitempty"`
	IsDefault *bool   `json:"is_default,omitempty"`
}

// PlanResponse wraps a Plan.
type PlanResponse struct {
	*ent.Plan
}

// PlanListResponse lists every plan (plans are never paginated — the set
// is small and admin-managed).
type PlanListResponse struct {
	Plans []PlanResponse `json:"plans"`
}
