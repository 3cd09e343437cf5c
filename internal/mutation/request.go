// Package mutation validates write intents coming from forms and shapes
// them into store payloads. It never writes anything itself.
package mutation

import "strings"

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
)

type (
	// Op tells the caller which store method to call.
	Op string

	// Request is a validated write. ID is empty for creates.
	Request[T any] struct {
		Op      Op
		ID      string
		Payload T
	}

	// Resolver resolves type and status slugs to ids.
	Resolver interface {
		TypeSlugs() map[string]int64
		StatusSlugs() map[string]int64
	}
)

func newRequest[T any](id string, payload T) Request[T] {
	id = strings.TrimSpace(id)
	if id == "" {
		return Request[T]{Op: OpCreate, Payload: payload}
	}
	return Request[T]{Op: OpUpdate, ID: id, Payload: payload}
}

// IsCreate reports whether the request creates a new record.
func (r Request[T]) IsCreate() bool {
	return r.Op == OpCreate
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
