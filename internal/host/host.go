// Package host defines the boundary to the embedding application. The
// engine computes visibility decisions; the host owns the documents, the
// displayed surfaces, and the installed stylesheet, and reports changes
// through subscriptions.
package host

import "github.com/propshade/propshade/internal/models"

// UnsubscribeFunc revokes one event subscription. Implementations must
// tolerate being called more than once.
type UnsubscribeFunc func()

// Host is the external collaborator the lifecycle coordinator drives.
type Host interface {
	// ActiveDocument returns the context of the open document, or nil when
	// none is open. The context includes the resolved tag set.
	ActiveDocument() *models.DocumentContext

	// Surfaces returns snapshots of the currently displayed property
	// surfaces, including their focus state and elements.
	Surfaces() []models.Surface

	// InstallStyle replaces the installed stylesheet fragment with css.
	// At most one fragment is installed at any time.
	InstallStyle(css string) error

	// RemoveStyle uninstalls the fragment. Absence is not an error.
	RemoveStyle() error

	// ApplyMarks applies live visibility marks to surface elements.
	ApplyMarks(marks []models.SurfaceMarks) error

	// Folded reports whether the property table is collapsed.
	Folded() bool

	// ToggleFold flips the property table's collapse state.
	ToggleFold()

	// OnDocumentOpen fires when a document becomes active.
	OnDocumentOpen(fn func(path string)) UnsubscribeFunc

	// OnSurfaceChange fires when a displayed surface appears or changes,
	// carrying the surface kind so the all-properties panel is detectable.
	OnSurfaceChange(fn func(kind models.SurfaceKind)) UnsubscribeFunc

	// OnContentChange fires when the host's content cache updates for a
	// document. Saves can fire this rapidly; consumers debounce.
	OnContentChange(fn func(path string)) UnsubscribeFunc

	// OnInput fires on raw input inside the property-editing surface.
	OnInput(fn func()) UnsubscribeFunc
}
