package models

import "time"

// InitUserRequest is the body of POST /api/v2/user/init — the one-time
// bootstrap route that only succeeds while the user table is empty.
type InitUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginRequest is the body of POST /api/v2/user/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the issued bearer token; callers treat the
// token's internal shape as opaque.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// CreateUserRequest is the body of POST /api/v2/user (admin-only).
type CreateUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	PlanID   string `json:"plan_id,omitempty"`
	IsAdmin  bool   `json:"is_admin,omitempty"`
}

// UpdateUserRequest is the body of PATCH /api/v2/user/{id}.
type UpdateUserRequest struct {
	PlanID  *string `json:"plan_id,omitempty"`
	IsAdmin *bool   `json:"is_admin,omitempty"`
}

// UserResponse is the user DTO. It is hand-assembled rather than embedding
// *ent.User directly because ent.User carries PasswordHash — the schema's
// Sensitive() annotation only suppresses it from String()/log output, not
// from JSON marshaling, so this explicit projection is how the hash stays
// out of API responses.
type UserResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	IsAdmin   bool      `json:"is_admin"`
	PlanID    string    `json:"plan_id"`
	CreatedAt time.Time `json:"created_at"`
}

// UserListResponse is a paginated collection of users.
type UserListResponse struct {
	Users      []UserResponse `json:"users"`
	TotalCount int            `json:"total_count"`
	Page       int            `json:"page"`
	Size       int            `json:"size"`
}
