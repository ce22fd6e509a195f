package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// EndpointTestTask holds the schema definition for the EndpointTestTask
// entity: the Scheduler's unit of work. One row tracks one pending,
// running, or finished probe against one Endpoint.
type EndpointTestTask struct {
	ent.Schema
}

// Fields of the EndpointTestTask.
func (EndpointTestTask) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Unique().
			Immutable(),
		field.String("endpoint_id").
			Immutable(),
		field.Enum("status").
			Values("pending", "running", "done", "failed").
			Default("pending"),
		field.Time("scheduled_at"),
		field.Time("last_tried").
			Optional().
			Nillable(),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
	}
}

// Edges of the EndpointTestTask.
func (EndpointTestTask) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("endpoint", Endpoint.Type).
			Ref("test_tasks").
			Field("endpoint_id").
			Unique().
			Required().
			Immutable(),
	}
}

// Indexes of the EndpointTestTask. The (status, scheduled_at) index backs
// both the claim query (FOR UPDATE SKIP LOCKED ordered by scheduled_at)
// and the periodic tick's "does a future/recent task already exist" check.
func (EndpointTestTask) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("status", "scheduled_at"),
		index.Fields("endpoint_id", "status"),
	}
}
