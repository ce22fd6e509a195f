package models

import "github.com/ollamafleet/router/ent"

// IntervalSettingKey is the only SystemSetting key the core consumes.
const IntervalSettingKey = "update_endpoint_task_interval_hours"

// UpdateSettingRequest is the body of PUT /api/v2/setting/{key}.
type UpdateSettingRequest struct {
	Value string `json:"value"`
}

// SettingResponse wraps a SystemSetting.
type SettingResponse struct {
	*ent.SystemSetting
}
