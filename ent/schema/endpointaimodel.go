package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// EndpointAIModel holds the schema definition for the association/current-
// state row between one Endpoint and one AIModel: what a backend currently
// reports for that model, as of the most recent probe.
type EndpointAIModel struct {
	ent.Schema
}

// Fields of the EndpointAIModel.
func (EndpointAIModel) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Unique().
			Immutable(),
		field.Enum("status").
			Values("available", "unavailable", "fake", "missing").
			Default("available"),
		field.Float("token_per_second").
			Optional().
			Nillable().
			Comment("Most recent measured throughput"),
		field.Int64("max_connection_time_ms").
			Optional().
			Nillable().
			Comment("Monotonically non-decreasing across successive probes"),
		field.Time("updated_at").
			Default(time.Now).
			UpdateDefault(time.Now),
		field.String("endpoint_id").
			Immutable(),
		field.String("ai_model_id").
			Immutable(),
	}
}

// Edges of the EndpointAIModel.
func (EndpointAIModel) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("endpoint", Endpoint.Type).
			Ref("ai_model_links").
			Field("endpoint_id").
			Unique().
			Required().
			Immutable(),
		edge.From("ai_model", AIModel.Type).
			Ref("endpoint_links").
			Field("ai_model_id").
			Unique().
			Required().
			Immutable(),
		edge.To("performances", AIModelPerformance.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
	}
}

// Indexes of the EndpointAIModel. (endpoint_id, ai_model_id) is unique per
// the spec's invariant; status is indexed for the Router's hot-path query.
func (EndpointAIModel) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("endpoint_id", "ai_model_id").Unique(),
		index.Fields("ai_model_id", "status"),
	}
}
