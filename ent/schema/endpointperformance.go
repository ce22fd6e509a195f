package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// EndpointPerformance holds the schema definition for the EndpointPerformance
// entity: an append-only snapshot of one endpoint's liveness, written once
// per probe and never mutated afterward.
type EndpointPerformance struct {
	ent.Schema
}

// Fields of the EndpointPerformance.
func (EndpointPerformance) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Unique().
			Immutable(),
		field.Enum("status").
			Values("available", "unavailable", "fake").
			Immutable(),
		field.String("ollama_version").
			Optional().
			Nillable().
			Immutable(),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
		field.String("endpoint_id").
			Immutable(),
	}
}

// Edges of the EndpointPerformance.
func (EndpointPerformance) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("endpoint", Endpoint.Type).
			Ref("performances").
			Field("endpoint_id").
			Unique().
			Required().
			Immutable(),
	}
}

// Indexes of the EndpointPerformance.
func (EndpointPerformance) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("endpoint_id", "created_at"),
	}
}
