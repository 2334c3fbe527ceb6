package models

import (
	"fmt"
	"strings"
)

// DocumentContext is a read-only snapshot of the document under evaluation:
// its vault path, resolved tag set, and flat property map. Values in Fields
// are scalars (string, bool, number) or lists of scalars.
type DocumentContext struct {
	Path   string
	Tags   []string // each including the # marker
	Fields map[string]any
}

// HasTag reports whether the document carries the given tag,
// case-insensitively. The leading marker is normalized on both sides.
func (d *DocumentContext) HasTag(tag string) bool {
	want := strings.ToLower(strings.TrimPrefix(tag, "#"))
	for _, t := range d.Tags {
		if strings.ToLower(strings.TrimPrefix(t, "#")) == want {
			return true
		}
	}
	return false
}

// ValueStrings flattens a property value into its comparable string forms.
// A scalar yields one entry, a list yields one per element, nil yields none.
func ValueStrings(v any) []string {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		return []string{val}
	case []string:
		return val
	case []any:
		out := make([]string, 0, len(val))
		for _, e := range val {
			out = append(out, fmt.Sprint(e))
		}
		return out
	default:
		return []string{fmt.Sprint(val)}
	}
}

// SurfaceKind identifies a host surface that displays property elements.
type SurfaceKind int

// Surface kinds
const (
	SurfaceTable          SurfaceKind = iota // property table in the main editor
	SurfaceFileProperties                    // single-document side panel
	SurfaceAllProperties                     // all-properties side panel
)

func (k SurfaceKind) String() string {
	switch k {
	case SurfaceTable:
		return "table"
	case SurfaceFileProperties:
		return "file-properties"
	case SurfaceAllProperties:
		return "all-properties"
	default:
		return "unknown"
	}
}

// FieldElement is one displayed property row on a surface. Key carries the
// structured key when the host exposes it; Label is the rendered label text
// used as a fallback. Live holds an in-progress edit value when present.
type FieldElement struct {
	Key   string
	Label string
	Live  *string
}

// ResolvedKey returns the lowercased property key for the element,
// preferring the structured key over the rendered label.
func (e FieldElement) ResolvedKey() string {
	if e.Key != "" {
		return strings.ToLower(e.Key)
	}
	return strings.ToLower(strings.TrimSpace(e.Label))
}

// Surface is a snapshot of one displayed surface and its property elements.
// Active reflects input focus and is meaningful for the table surface only.
type Surface struct {
	Kind     SurfaceKind
	Active   bool
	Elements []FieldElement
}

// Visibility is the live-path mark applied to a single element.
type Visibility int

// Visibility marks
const (
	// VisibilityAuto clears any live mark, deferring to the stylesheet.
	VisibilityAuto Visibility = iota
	VisibilityForceShow
	VisibilityForceHidden
)

func (v Visibility) String() string {
	switch v {
	case VisibilityForceShow:
		return "force-show"
	case VisibilityForceHidden:
		return "force-hidden"
	default:
		return "auto"
	}
}

// SurfaceMarks holds one reconciliation pass result for a surface.
// Marks is index-aligned with the surface's Elements slice.
type SurfaceMarks struct {
	Kind  SurfaceKind
	Marks []Visibility
}
