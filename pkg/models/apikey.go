package models

import "time"

// CreateApiKeyRequest is the body of POST /api/v2/apikey.
type CreateApiKeyRequest struct {
	Name string `json:"name,omitempty"`
}

// CreateApiKeyResponse is returned exactly once, at creation time, and is
// the only response that ever carries the raw key value — every later
// listing returns ApiKeyResponse instead, which omits it.
type CreateApiKeyResponse struct {
	ID        string    `json:"id"`
	Key       string    `json:"key"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ApiKeyResponse is the listing/detail DTO. The raw key is never
// re-exposed after creation — only its metadata.
type ApiKeyResponse struct {
	ID         string     `json:"id"`
	Name       string     `json:"name,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	Revoked    bool       `json:"revoked"`
}

// ApiKeyListResponse lists the keys belonging to the caller.
type ApiKeyListResponse struct {
	Keys []ApiKeyResponse `json:"keys"`
}

// ApiKeyUsageStatsResponse summarizes usage for a key over a window,
// surfaced on GET /api/v2/apikey/{id}/usage.
type ApiKeyUsageStatsResponse struct {
	RequestCount  int            `json:"request_count"`
	ByStatusCode  map[int]int    `json:"by_status_code"`
	ByModel       map[string]int `json:"by_model"`
	WindowMinutes int            `json:"window_minutes"`
}
