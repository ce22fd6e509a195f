// Package ent holds the generated entity client. The client, per-type query
// builders, and predicate packages are produced by `go generate` from the
// schema definitions in ./schema — nothing in this file is hand-written
// beyond the directive.
package ent

//go:generate go run -mod=mod entgo.io/ent/cmd/ent generate ./schema
