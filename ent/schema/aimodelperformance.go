package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// AIModelPerformance holds the schema definition for the AIModelPerformance
// entity: an append-only record of one generation benchmark against one
// (endpoint, model) pair. Never mutated after creation.
type AIModelPerformance struct {
	ent.Schema
}

// Fields of the AIModelPerformance.
func (AIModelPerformance) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Unique().
			Immutable(),
		field.Enum("status").
			Values("available", "unavailable", "fake", "missing").
			Immutable(),
		field.Float("token_per_second").
			Optional().
			Nillable().
			Immutable(),
		field.Int64("connection_time_ms").
			Optional().
			Nillable().
			Immutable().
			Comment("Time from request send to first chunk"),
		field.Int64("total_time_ms").
			Optional().
			Nillable().
			Immutable(),
		field.Text("output").
			Optional().
			Immutable().
			Comment("Concatenated generation output, truncated for storage"),
		field.Int("output_tokens").
			Optional().
			Nillable().
			Immutable(),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
		field.String("endpoint_ai_model_id").
			Immutable(),
	}
}

// Edges of the AIModelPerformance.
func (AIModelPerformance) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("link", EndpointAIModel.Type).
			Ref("performances").
			Field("endpoint_ai_model_id").
			Unique().
			Required().
			Immutable(),
	}
}

// Indexes of the AIModelPerformance.
func (AIModelPerformance) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("endpoint_ai_model_id", "created_at"),
	}
}
