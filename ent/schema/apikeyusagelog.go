package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// ApiKeyUsageLog holds the schema definition for the ApiKeyUsageLog entity:
// an append-only record written exactly once per forwarded request
// (success or failure) for rate-limit counting and usage stats.
type ApiKeyUsageLog struct {
	ent.Schema
}

// Fields of the ApiKeyUsageLog.
func (ApiKeyUsageLog) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Unique().
			Immutable(),
		field.String("api_key_id").
			Immutable(),
		field.Time("timestamp").
			Default(time.Now).
			Immutable(),
		field.String("endpoint").
			Immutable().
			Comment("Request path, e.g. api/generate"),
		field.String("method").
			Immutable(),
		field.String("model").
			Optional().
			Nillable().
			Immutable(),
		field.Int("status_code").
			Immutable(),
	}
}

// Edges of the ApiKeyUsageLog.
func (ApiKeyUsageLog) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("api_key", ApiKey.Type).
			Ref("usage_logs").
			Field("api_key_id").
			Unique().
			Required().
			Immutable(),
	}
}

// Indexes of the ApiKeyUsageLog. The composite index on (api_key_id,
// timestamp) is what makes the rate limiter's RPM/RPD window counts cheap.
func (ApiKeyUsageLog) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("api_key_id", "timestamp"),
	}
}
