// Package stylegen produces the declarative stylesheet fragment for a
// document context. Only rules decidable without live document inspection
// are emitted here (literal pattern, no value condition); everything else
// is the reconcile package's responsibility. Output is a pure function of
// the settings and the document context: regenerating with unchanged
// inputs yields byte-identical text.
package stylegen

import (
	"fmt"
	"strings"

	"github.com/propshade/propshade/internal/match"
	"github.com/propshade/propshade/internal/models"
)

// Selector vocabulary applied by the host to its property elements.
const (
	// SelectorTable is the property table container in the main editor.
	SelectorTable = ".props-table"
	// SelectorActive modifies the table container while it holds focus.
	SelectorActive = ".props-active"
	// SelectorFilePanel is the single-document side panel container.
	SelectorFilePanel = ".props-panel-file"
	// SelectorSideDock is the side dock container.
	SelectorSideDock = ".props-side-dock"
	// AttrKey carries the lowercased property key on each element.
	AttrKey = "data-property-key"
	// AttrEmpty marks elements whose property value is empty.
	AttrEmpty = "data-property-empty"
)

// Skip reason constants
const (
	SkipLivePath     = "live-path"
	SkipOutOfScope   = "out-of-scope"
	SkipDuplicateKey = "duplicate-key"
	SkipNoTarget     = "no-target"
)

// Stats tracks generation statistics
type Stats struct {
	Emitted     int
	Skipped     int
	SkipReasons map[string]int
}

// Generator emits the stylesheet fragment. Use a fresh generator per run
// for accurate stats.
type Generator struct {
	stats Stats
}

// New creates a new generator
func New() *Generator {
	return &Generator{
		stats: Stats{
			SkipReasons: make(map[string]int),
		},
	}
}

// skip records a skipped rule with reason
func (g *Generator) skip(reason string) {
	g.stats.Skipped++
	g.stats.SkipReasons[reason]++
}

// Stats returns generation statistics
func (g *Generator) Stats() Stats {
	return g.stats
}

// Generate builds the stylesheet fragment for the given settings and
// document context. doc may be nil when no document is open; scoped rules
// are then out of scope and the context-dependent baselines are omitted.
func (g *Generator) Generate(s models.Settings, doc *models.DocumentContext) string {
	var b strings.Builder

	b.WriteString("/* propshade generated stylesheet */\n")
	if doc != nil {
		fmt.Fprintf(&b, "/* context: %s */\n", doc.Path)
	} else {
		b.WriteString("/* context: none */\n")
	}

	claimed := make(map[string]bool)
	for _, r := range s.Rules {
		if r.NeedsLiveEvaluation() {
			g.skip(SkipLivePath)
			continue
		}
		if !match.ScopeApplies(r, doc) {
			g.skip(SkipOutOfScope)
			continue
		}
		key := strings.ToLower(r.Pattern)
		if claimed[key] {
			g.skip(SkipDuplicateKey)
			continue
		}
		claimed[key] = true
		g.emitRule(&b, r, key)
	}

	g.emitBaselines(&b, s, doc)

	return b.String()
}

// emitRule writes the style blocks for one winning declarative rule.
func (g *Generator) emitRule(b *strings.Builder, r models.Rule, key string) {
	sel := keySelector(key)

	if r.Action == models.ActionShow {
		// Forces the element back to its normal display state, overriding
		// any later generic hide.
		fmt.Fprintf(b, "%s { display: flex !important; }\n", sel)
		g.stats.Emitted++
		return
	}

	emitted := false
	if r.HideTargets.FileProperties {
		fmt.Fprintf(b, "%s %s { display: none; }\n", SelectorFilePanel, sel)
		emitted = true
	}
	if r.HideTargets.WhenInactive || r.HideTargets.Always {
		fmt.Fprintf(b, "%s %s { display: none; }\n", SelectorTable, sel)
		emitted = true
	}
	if r.HideTargets.Always {
		// Beats the active-table exemption below.
		fmt.Fprintf(b, "%s%s %s { display: none !important; }\n", SelectorTable, SelectorActive, sel)
		emitted = true
	}

	if emitted {
		g.stats.Emitted++
	} else {
		g.skip(SkipNoTarget)
	}
}

// emitBaselines appends the context-independent fallback rules. They are
// lower priority than any explicit rule decision.
func (g *Generator) emitBaselines(b *strings.Builder, s models.Settings, doc *models.DocumentContext) {
	// While the table holds focus everything is shown except always-hide
	// rules, which carry !important.
	fmt.Fprintf(b, "%s%s [%s] { display: flex; }\n", SelectorTable, SelectorActive, AttrKey)

	if s.HideEmptyFields {
		fmt.Fprintf(b, "[%s] { display: none; }\n", AttrEmpty)
		if s.ExemptSideDock {
			fmt.Fprintf(b, "%s [%s] { display: flex; }\n", SelectorSideDock, AttrEmpty)
		}
	}

	if s.HideTableField != "" && doc != nil && fieldSet(doc, s.HideTableField) {
		fmt.Fprintf(b, "%s { display: none !important; }\n", SelectorTable)
	}

	// Legacy always-visible list, applied last for backward compatibility.
	for _, key := range s.AlwaysVisibleKeys() {
		fmt.Fprintf(b, "%s { display: flex; }\n", keySelector(key))
	}
}

// fieldSet reports whether the document sets the marker property to a
// non-empty, non-false value.
func fieldSet(doc *models.DocumentContext, field string) bool {
	for k, v := range doc.Fields {
		if !strings.EqualFold(k, field) {
			continue
		}
		for _, s := range models.ValueStrings(v) {
			switch strings.ToLower(strings.TrimSpace(s)) {
			case "", "false", "0", "no":
			default:
				return true
			}
		}
	}
	return false
}

// keySelector builds the attribute selector for a property key.
func keySelector(key string) string {
	return fmt.Sprintf(`[%s="%s"]`, AttrKey, cssEscape(key))
}

// cssEscape escapes characters that would break out of a quoted attribute
// selector.
func cssEscape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}
