// Package resolve implements first-match-wins conflict resolution over an
// ordered rule list. For a given property key and document context there is
// at most one winning rule: the one at the lowest index for which name
// match, scope, and value condition all hold.
package resolve

import (
	"github.com/propshade/propshade/internal/match"
	"github.com/propshade/propshade/internal/models"
)

// Resolution is the outcome for one (rule list, property key, document)
// evaluation. When Matched is false no rule applies and visibility falls to
// the baseline rules outside the rule list.
type Resolution struct {
	Matched bool
	Index   int
	Rule    models.Rule
	Action  models.Action
	Targets models.HideTargets
}

// NoMatch is the resolution when no rule in the list applies.
var NoMatch = Resolution{Index: -1}

// Resolve walks the rule list in priority order and returns the first rule
// whose name match, scope, and value condition all hold. Later rules for
// the same key are never consulted. liveValue, when non-nil, overrides the
// stored property value for the value-condition check.
func Resolve(rules []models.Rule, fieldKey string, doc *models.DocumentContext, liveValue *string) Resolution {
	for i, r := range rules {
		if !match.NameMatches(fieldKey, r) {
			continue
		}
		if !match.ScopeApplies(r, doc) {
			continue
		}
		if !match.ValueMatches(r, fieldKey, doc, liveValue) {
			continue
		}
		return Resolution{
			Matched: true,
			Index:   i,
			Rule:    r,
			Action:  r.Action,
			Targets: r.HideTargets,
		}
	}
	return NoMatch
}
