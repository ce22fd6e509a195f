package models

import "github.com/ollamafleet/router/ent"

// AIModelFilters captures the listing query params for GET /api/v2/ai_model.
type AIModelFilters struct {
	Search  string `query:"search"`
	OrderBy string `query:"order_by"`
	Order   string `query:"order"`
	Page    int    `query:"page"`
	Size    int    `query:"size"`
}

// AIModelResponse wraps an AIModel plus the derived endpoint-count the
// listing route exposes.
type AIModelResponse struct {
	*ent.AIModel
	EndpointCount int `json:"endpoint_count"`
}

// AIModelListResponse is a paginated collection of models.
type AIModelListResponse struct {
	Models     []AIModelResponse `json:"models"`
	TotalCount int               `json:"total_count"`
	Page       int               `json:"page"`
	Size       int               `json:"size"`
}
