// Package projection turns stored rows into the denormalized view entities
// used by reports, tables and the API.
//
// Every foreign key is resolved through Lookups. A reference that does not
// resolve never fails the projection; the entity gets the documented
// fallback instead (no category name, FallbackColor, expense nature, no
// status).
package projection

import (
	"ebudget/internal/core"
)

// Lookups indexes the reference data a projection needs.
type Lookups struct {
	types          map[int64]core.Type
	typeBySlug     map[string]int64
	statuses       map[int64]core.Status
	statusBySlug   map[string]int64
	categories     map[string]core.Category
	categoryByName map[string]core.Category
}

// NewLookups indexes already normalized types and statuses and projected
// categories. On duplicate keys the first entry wins.
func NewLookups(types []core.Type, statuses []core.Status, categories []core.Category) *Lookups {
	l := &Lookups{
		types:          make(map[int64]core.Type, len(types)),
		typeBySlug:     make(map[string]int64, len(types)),
		statuses:       make(map[int64]core.Status, len(statuses)),
		statusBySlug:   make(map[string]int64, len(statuses)),
		categories:     make(map[string]core.Category, len(categories)),
		categoryByName: make(map[string]core.Category, len(categories)),
	}
	for _, t := range types {
		putFirst(l.types, t.ID, t)
		putFirst(l.typeBySlug, t.Slug, t.ID)
	}
	for _, s := range statuses {
		putFirst(l.statuses, s.ID, s)
		putFirst(l.statusBySlug, s.Slug, s.ID)
	}
	l.indexCategories(categories)
	return l
}

func (l *Lookups) indexCategories(categories []core.Category) {
	for _, c := range categories {
		putFirst(l.categories, c.ID, c)
		putFirst(l.categoryByName, c.Name, c)
	}
}

func putFirst[K comparable, V any](m map[K]V, k K, v V) {
	if _, ok := m[k]; !ok {
		m[k] = v
	}
}

// Type returns the type with the given id.
func (l *Lookups) Type(id int64) (core.Type, bool) {
	t, ok := l.types[id]
	return t, ok
}

// Status returns the status with the given id.
func (l *Lookups) Status(id int64) (core.Status, bool) {
	s, ok := l.statuses[id]
	return s, ok
}

// Category returns the category with the given id.
func (l *Lookups) Category(id string) (core.Category, bool) {
	if id == "" {
		return core.Category{}, false
	}
	c, ok := l.categories[id]
	return c, ok
}

// CategoryByName returns the category with the given display name.
func (l *Lookups) CategoryByName(name string) (core.Category, bool) {
	c, ok := l.categoryByName[name]
	return c, ok
}

// TypeSlugs returns the slug to id index used to resolve type references.
func (l *Lookups) TypeSlugs() map[string]int64 {
	return l.typeBySlug
}

// StatusSlugs returns the slug to id index used to resolve status references.
func (l *Lookups) StatusSlugs() map[string]int64 {
	return l.statusBySlug
}

// ResolveType resolves a type reference to an existing type. A numeric id
// is accepted only if it is known.
func (l *Lookups) ResolveType(ref core.Ref) (core.Type, bool) {
	id, ok := ref.Resolve(l.typeBySlug)
	if !ok {
		return core.Type{}, false
	}
	return l.Type(id)
}

// ResolveStatus resolves a status reference to an existing status.
func (l *Lookups) ResolveStatus(ref core.Ref) (core.Status, bool) {
	id, ok := ref.Resolve(l.statusBySlug)
	if !ok {
		return core.Status{}, false
	}
	return l.Status(id)
}

// CategoryColor returns the display colour of a category name, or
// core.FallbackColor when the name is unknown or has no colour.
func (l *Lookups) CategoryColor(name string) string {
	if c, ok := l.categoryByName[name]; ok && c.Color != "" {
		return c.Color
	}
	return core.FallbackColor
}

// CategoryNature returns the nature of a category name, or NatureUnknown.
func (l *Lookups) CategoryNature(name string) core.Nature {
	if c, ok := l.categoryByName[name]; ok {
		return c.Type
	}
	return core.NatureUnknown
}
