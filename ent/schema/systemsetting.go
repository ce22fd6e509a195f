package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
)

// SystemSetting holds the schema definition for the SystemSetting entity: a
// flat key/value store. The only key the core consumes is
// update_endpoint_task_interval_hours, seeded to "24" by migration.
type SystemSetting struct {
	ent.Schema
}

// Fields of the SystemSetting.
func (SystemSetting) Fields() []ent.Field {
	return []ent.Field{
		field.String("key").
			Unique().
			Immutable().
			StorageKey("setting_key"),
		field.String("value"),
	}
}
