package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// AIModel holds the schema definition for the AIModel entity: the (name,
// tag) pair identifying a served model, e.g. "llama3:8b". Created lazily
// by Probe on first discovery. Rows persist even once no endpoint links to
// them anymore — they are not cascade-deleted from Endpoint.
type AIModel struct {
	ent.Schema
}

// Fields of the AIModel.
func (AIModel) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Unique().
			Immutable(),
		field.String("name").
			NotEmpty().
			Immutable(),
		field.String("tag").
			NotEmpty().
			Immutable(),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
	}
}

// Edges of the AIModel.
func (AIModel) Edges() []ent.Edge {
	return []ent.Edge{
		edge.To("endpoint_links", EndpointAIModel.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
	}
}

// Indexes of the AIModel. (name, tag) is the natural uniqueness key.
func (AIModel) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("name", "tag").Unique(),
	}
}
