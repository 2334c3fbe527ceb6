// Package reconcile implements the live path: rules that need regex
// matching against multiple keys or value conditions against current
// content cannot be expressed statically, so each displayed property
// element gets its visibility resolved and marked directly. Marks are
// declarative outputs; the host applies them to its elements.
package reconcile

import (
	"github.com/propshade/propshade/internal/models"
	"github.com/propshade/propshade/internal/resolve"
)

// Pass resolves visibility for every element of every surface snapshot and
// returns index-aligned marks per surface. Each pass starts from the
// authoritative settings and document context, never from a previous
// pass's output, so repeated passes are idempotent.
//
// When no rule needs live evaluation and the all-properties panel is not
// open the pass returns nil: the stylesheet already covers everything.
func Pass(s models.Settings, doc *models.DocumentContext, surfaces []models.Surface) []models.SurfaceMarks {
	if !s.HasLiveRules() && !hasAllProperties(surfaces) {
		return nil
	}

	out := make([]models.SurfaceMarks, 0, len(surfaces))
	for _, surface := range surfaces {
		marks := make([]models.Visibility, len(surface.Elements))
		for i, el := range surface.Elements {
			marks[i] = resolveElement(s, doc, surface, el)
		}
		out = append(out, models.SurfaceMarks{Kind: surface.Kind, Marks: marks})
	}
	return out
}

// resolveElement computes the live mark for one displayed element.
func resolveElement(s models.Settings, doc *models.DocumentContext, surface models.Surface, el models.FieldElement) models.Visibility {
	key := el.ResolvedKey()
	if key == "" {
		return models.VisibilityAuto
	}

	// el.Live carries an in-progress edit when present; otherwise value
	// matching reads the stored property map.
	res := resolve.Resolve(s.Rules, key, doc, el.Live)

	if surface.Kind == models.SurfaceAllProperties {
		// Only the all-properties target applies here; there is no
		// active/inactive distinction. Unmatched elements get any stale
		// mark cleared.
		if res.Matched && res.Action == models.ActionHide && res.Targets.AllProperties {
			return models.VisibilityForceHidden
		}
		return models.VisibilityAuto
	}

	// A declarative-path winner (or no winner) defers to the stylesheet.
	if !res.Matched || !res.Rule.NeedsLiveEvaluation() {
		return models.VisibilityAuto
	}

	if res.Action == models.ActionShow {
		return models.VisibilityForceShow
	}

	// Target applicability mirrors the declarative generator.
	switch surface.Kind {
	case models.SurfaceFileProperties:
		if res.Targets.FileProperties {
			return models.VisibilityForceHidden
		}
	case models.SurfaceTable:
		if res.Targets.Always {
			return models.VisibilityForceHidden
		}
		if res.Targets.WhenInactive && !surface.Active {
			return models.VisibilityForceHidden
		}
	}
	return models.VisibilityAuto
}

func hasAllProperties(surfaces []models.Surface) bool {
	for _, s := range surfaces {
		if s.Kind == models.SurfaceAllProperties {
			return true
		}
	}
	return false
}
