package services

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ollamafleet/router/ent"
	"github.com/ollamafleet/router/ent/systemsetting"
	"github.com/ollamafleet/router/pkg/config"
	"github.com/ollamafleet/router/pkg/models"
)

// SettingService manages the flat SystemSetting key/value store.
type SettingService struct {
	client *ent.Client
}

// NewSettingService creates a new SettingService.
func NewSettingService(client *ent.Client) *SettingService {
	return &SettingService{client: client}
}

// GetSetting fetches one setting by key.
func (s *SettingService) GetSetting(ctx context.Context, key string) (*ent.SystemSetting, error) {
	setting, err := s.client.SystemSetting.Query().Where(systemsetting.KeyEQ(key)).Only(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return setting, nil
}

// UpdateSetting validates and persists a new value for a known key.
// update_endpoint_task_interval_hours is the only key the core validates
// numerically; others are stored as opaque strings.
func (s *SettingService) UpdateSetting(ctx context.Context, key, value string) (*ent.SystemSetting, error) {
	if key == models.IntervalSettingKey {
		hours, err := strconv.Atoi(value)
		if err != nil || hours < config.MinIntervalHours || hours > config.MaxIntervalHours {
			return nil, NewValidationError("value", fmt.Sprintf("must be an integer between %d and %d", config.MinIntervalHours, config.MaxIntervalHours))
		}
	}

	setting, err := s.client.SystemSetting.Query().Where(systemsetting.KeyEQ(key)).Only(ctx)
	switch {
	case ent.IsNotFound(err):
		setting, err = s.client.SystemSetting.Create().SetKey(key).SetValue(value).Save(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create setting %s: %w", key, err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to load setting %s: %w", key, err)
	default:
		setting, err = setting.Update().SetValue(value).Save(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to update setting %s: %w", key, err)
		}
	}
	return setting, nil
}

// IntervalHours returns the current probe interval, defaulting to the
// configured fallback if the row is somehow missing or malformed (it is
// auto-seeded by migration, so this is a defensive fallback only).
func (s *SettingService) IntervalHours(ctx context.Context, fallback int) int {
	setting, err := s.GetSetting(ctx, models.IntervalSettingKey)
	if err != nil {
		return fallback
	}
	hours, err := strconv.Atoi(setting.Value)
	if err != nil {
		return fallback
	}
	return hours
}
