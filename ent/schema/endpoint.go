package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Endpoint holds the schema definition for the Endpoint entity.
// An Endpoint is one backend HTTP service implementing the Ollama API.
type Endpoint struct {
	ent.Schema
}

// Fields of the Endpoint.
func (Endpoint) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Unique().
			Immutable(),
		field.String("url").
			Unique().
			NotEmpty().
			Comment("Base URL of the backend, e.g. http://host:11434"),
		field.String("name").
			Optional().
			Comment("Human-friendly label; defaults to the URL if not set"),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
	}
}

// Edges of the Endpoint. Cascades mirror the spec's delete rules: removing
// an Endpoint removes its performance history and its model links, but
// never the AIModel rows themselves (those persist independently).
func (Endpoint) Edges() []ent.Edge {
	return []ent.Edge{
		edge.To("performances", EndpointPerformance.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
		edge.To("ai_model_links", EndpointAIModel.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
		edge.To("test_tasks", EndpointTestTask.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
	}
}

// Indexes of the Endpoint.
func (Endpoint) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("created_at"),
	}
}
