package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Plan holds the schema definition for the Plan entity: a named RPM/RPD
// rate-limit tier. Exactly one row carries is_default=true.
type Plan struct {
	ent.Schema
}

// Fields of the Plan.
func (Plan) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Unique().
			Immutable(),
		field.String("name").
			Unique().
			NotEmpty(),
		field.Int("rpm").
			Positive().
			Comment("Max requests per rolling 60-second window"),
		field.Int("rpd").
			Positive().
			Comment("Max requests per UTC calendar day"),
		field.Bool("is_default").
			Default(false),
	}
}

// Edges of the Plan.
func (Plan) Edges() []ent.Edge {
	return []ent.Edge{
		edge.To("users", User.Type),
	}
}

// Indexes of the Plan. The partial unique index enforces "exactly one
// default plan" at the database level via entsql.IndexWhere, so only
// rows with is_default set are covered by the unique constraint.
func (Plan) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("is_default").
			Unique().
			Annotations(entsql.IndexWhere("is_default")),
	}
}
