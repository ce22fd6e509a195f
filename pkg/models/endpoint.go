// Package models contains request/response DTOs for the HTTP API. They
// sit between the Echo handlers and the generated Ent types.
package models

import "github.com/ollamafleet/router/ent"

// CreateEndpointRequest is the body of POST /api/v2/endpoint.
type CreateEndpointRequest struct {
	URL  string `json:"url"`
	Name string `json:"name,omitempty"`
}

// BatchCreateEndpointRequest is the body of POST /api/v2/endpoint/batch.
type BatchCreateEndpointRequest struct {
	Endpoints []CreateEndpointRequest `json:"endpoints"`
}

// UpdateEndpointRequest is the body of PATCH /api/v2/endpoint/{id}.
type UpdateEndpointRequest struct {
	Name string `json:"name"`
}

// EndpointFilters captures the listing query params shared by every
// paginated collection route: page/size/search/order_by/order.
type EndpointFilters struct {
	Search  string `query:"search"`
	OrderBy string `query:"order_by"`
	Order   string `query:"order"`
	Page    int    `query:"page"`
	Size    int    `query:"size"`
}

// EndpointResponse wraps an Endpoint plus the derived model-count the
// listing route needs (the count isn't a schema field — it's computed per
// request and doesn't belong on ent.Endpoint itself).
type EndpointResponse struct {
	*ent.Endpoint
	ModelCount int `json:"model_count"`
}

// EndpointListResponse is a paginated collection of endpoints.
type EndpointListResponse struct {
	Endpoints  []EndpointResponse `json:"endpoints"`
	TotalCount int                `json:"total_count"`
	Page       int                `json:"page"`
	Size       int                `json:"size"`
}
