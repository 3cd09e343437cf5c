package core

import (
	"encoding/json"
	"strconv"
	"strings"
)

const (
	RefNone RefKind = iota
	RefID
	RefSlug
)

type (
	RefKind int

	// Ref points at a type or status either by numeric id or by slug, as
	// forms send one or the other.
	Ref struct {
		Kind RefKind
		ID   int64
		Slug string
	}
)

// RefByID returns an id reference.
func RefByID(id int64) Ref {
	return Ref{Kind: RefID, ID: id}
}

// RefBySlug returns a slug reference; the value is slugified.
func RefBySlug(s string) Ref {
	s = Slugify(s)
	if s == "" {
		return Ref{}
	}
	return Ref{Kind: RefSlug, Slug: s}
}

// ParseRef reads a raw form value: numeric strings are ids, anything else
// non-empty is a slug.
func ParseRef(v string) Ref {
	v = strings.TrimSpace(v)
	if v == "" {
		return Ref{}
	}
	if id, err := strconv.ParseInt(v, 10, 64); err == nil {
		return RefByID(id)
	}
	return RefBySlug(v)
}

// IsZero reports whether the reference is empty.
func (r Ref) IsZero() bool {
	return r.Kind == RefNone
}

// Or returns r, or fallback when r is empty.
func (r Ref) Or(fallback Ref) Ref {
	if r.IsZero() {
		return fallback
	}
	return r
}

// Resolve turns the reference into an id: an id is taken as is, a slug is
// looked up in bySlug. Zero ids never resolve.
func (r Ref) Resolve(bySlug map[string]int64) (int64, bool) {
	switch r.Kind {
	case RefID:
		return r.ID, r.ID != 0
	case RefSlug:
		id, ok := bySlug[r.Slug]
		return id, ok && id != 0
	}
	return 0, false
}

func (r Ref) String() string {
	switch r.Kind {
	case RefID:
		return strconv.FormatInt(r.ID, 10)
	case RefSlug:
		return r.Slug
	}
	return ""
}

// UnmarshalJSON accepts a number, a string or null.
func (r *Ref) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		*r = Ref{}
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*r = ParseRef(s)
		return nil
	}
	*r = ParseRef(raw)
	return nil
}

func (r Ref) MarshalJSON() ([]byte, error) {
	switch r.Kind {
	case RefID:
		return []byte(strconv.FormatInt(r.ID, 10)), nil
	case RefSlug:
		return json.Marshal(r.Slug)
	}
	return []byte("null"), nil
}
