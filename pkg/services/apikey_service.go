package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ollamafleet/router/ent"
	"github.com/ollamafleet/router/ent/apikey"
	"github.com/ollamafleet/router/ent/apikeyusagelog"
	"github.com/ollamafleet/router/pkg/models"
)

// ApiKeyService manages ApiKey CRUD and the per-request usage log.
type ApiKeyService struct {
	client *ent.Client
}

// NewApiKeyService creates a new ApiKeyService.
func NewApiKeyService(client *ent.Client) *ApiKeyService {
	return &ApiKeyService{client: client}
}

// CreateApiKey mints a new opaque, high-entropy key for a user. The raw
// key is returned once, here, and never again — callers must capture it
// from this response.
func (s *ApiKeyService) CreateApiKey(ctx context.Context, userID string, req models.CreateApiKeyRequest) (*models.CreateApiKeyResponse, error) {
	raw, err := generateAPIKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate api key: %w", err)
	}

	k, err := s.client.ApiKey.Create().
		SetID(uuid.New().String()).
		SetKey(raw).
		SetName(req.Name).
		SetUserID(userID).
		Save(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create api key: %w", err)
	}

	return &models.CreateApiKeyResponse{
		ID: k.ID, Key: k.Key, Name: k.Name, CreatedAt: k.CreatedAt,
	}, nil
}

func generateAPIKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "sk-" + hex.EncodeToString(buf), nil
}

// Authenticate resolves a raw key value to its owning ApiKey, rejecting
// revoked keys, and touches last_used_at.
func (s *ApiKeyService) Authenticate(ctx context.Context, raw string) (*ent.ApiKey, error) {
	k, err := s.client.ApiKey.Query().Where(apikey.KeyEQ(raw)).Only(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to look up api key: %w", err)
	}
	if k.Revoked {
		return nil, ErrNotFound
	}

	k, err = k.Update().SetLastUsedAt(time.Now()).Save(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to touch last_used_at: %w", err)
	}
	return k, nil
}

// RevokeApiKey soft-deletes a key; usage logs referencing it are
// preserved.
func (s *ApiKeyService) RevokeApiKey(ctx context.Context, id string) error {
	_, err := s.client.ApiKey.UpdateOneID(id).SetRevoked(true).Save(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to revoke api key: %w", err)
	}
	return nil
}

// ListApiKeys returns every key owned by a user.
func (s *ApiKeyService) ListApiKeys(ctx context.Context, userID string) (*models.ApiKeyListResponse, error) {
	keys, err := s.client.ApiKey.Query().
		Where(apikey.UserIDEQ(userID)).
		Order(ent.Desc(apikey.FieldCreatedAt)).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list api keys: %w", err)
	}

	out := make([]models.ApiKeyResponse, 0, len(keys))
	for _, k := range keys {
		out = append(out, models.ApiKeyResponse{
			ID: k.ID, Name: k.Name, CreatedAt: k.CreatedAt,
			LastUsedAt: k.LastUsedAt, Revoked: k.Revoked,
		})
	}
	return &models.ApiKeyListResponse{Keys: out}, nil
}

// LogUsage appends exactly one ApiKeyUsageLog row per forwarded request,
// success or failure.
func (s *ApiKeyService) LogUsage(ctx context.Context, apiKeyID, path, method string, model *string, statusCode int) error {
	_, err := s.client.ApiKeyUsageLog.Create().
		SetID(uuid.New().String()).
		SetAPIKeyID(apiKeyID).
		SetEndpoint(path).
		SetMethod(method).
		SetNillableModel(model).
		SetStatusCode(statusCode).
		Save(ctx)
	if err != nil {
		return fmt.Errorf("failed to log api key usage: %w", err)
	}
	return nil
}

// UsageStats summarizes recent usage for a key over the given window.
func (s *ApiKeyService) UsageStats(ctx context.Context, apiKeyID string, window time.Duration) (*models.ApiKeyUsageStatsResponse, error) {
	logs, err := s.client.ApiKeyUsageLog.Query().
		Where(
			apikeyusagelog.APIKeyIDEQ(apiKeyID),
			apikeyusagelog.TimestampGTE(time.Now().Add(-window)),
		).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query usage logs: %w", err)
	}

	stats := &models.ApiKeyUsageStatsResponse{
		ByStatusCode:  make(map[int]int),
		ByModel:       make(map[string]int),
		WindowMinutes: int(window.Minutes()),
	}
	for _, l := range logs {
		stats.RequestCount++
		stats.ByStatusCode[l.StatusCode]++
		if l.Model != nil {
			stats.ByModel[*l.Model]++
		}
	}
	return stats, nil
}

// CountSince counts usage rows for a key since a given time — the
// primitive the rate limiter's RPM/RPD windows are built on.
func (s *ApiKeyService) CountSince(ctx context.Context, apiKeyID string, since time.Time) (int, error) {
	count, err := s.client.ApiKeyUsageLog.Query().
		Where(
			apikeyusagelog.APIKeyIDEQ(apiKeyID),
			apikeyusagelog.TimestampGTE(since),
		).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count usage since %s: %w", since, err)
	}
	return count, nil
}
