package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
)

// ApiKey holds the schema definition for the ApiKey entity: an opaque,
// high-entropy bearer credential used by the Forwarder's data plane.
// Soft-deleted via revoked=true — never hard-deleted, since usage logs
// reference it.
type ApiKey struct {
	ent.Schema
}

// Fields of the ApiKey.
func (ApiKey) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Unique().
			Immutable(),
		field.String("key").
			Unique().
			Immutable().
			Sensitive(),
		field.String("name").
			Optional(),
		field.String("user_id").
			Immutable(),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
		field.Time("last_used_at").
			Optional().
			Nillable(),
		field.Bool("revoked").
			Default(false),
	}
}

// Edges of the ApiKey.
func (ApiKey) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("user", User.Type).
			Ref("api_keys").
			Field("user_id").
			Unique().
			Required().
			Immutable(),
		edge.To("usage_logs", ApiKeyUsageLog.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
	}
}
