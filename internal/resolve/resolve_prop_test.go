package resolve

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/propshade/propshade/internal/match"
	"github.com/propshade/propshade/internal/models"
)

func genRule() gopter.Gen {
	return gopter.CombineGens(
		gen.OneConstOf("status", "tags", "priority", "_draft", "notes"),
		gen.Bool(),
		gen.OneConstOf("", "Projects/", "Archive/"),
		gen.OneConstOf("", "#work"),
	).Map(func(vals []interface{}) models.Rule {
		action := models.ActionHide
		if vals[1].(bool) {
			action = models.ActionShow
		}
		return models.Rule{
			Pattern:     vals[0].(string),
			Action:      action,
			FolderScope: vals[2].(string),
			TagScope:    vals[3].(string),
			HideTargets: models.HideTargets{WhenInactive: true},
		}
	})
}

func genRules() gopter.Gen {
	return gen.SliceOf(genRule())
}

// applies mirrors the per-rule applicability predicate so the property can
// verify the winner independently of the iteration in Resolve.
func applies(r models.Rule, key string, doc *models.DocumentContext) bool {
	return match.NameMatches(key, r) &&
		match.ScopeApplies(r, doc) &&
		match.ValueMatches(r, key, doc, nil)
}

func TestResolve_Properties(t *testing.T) {
	doc := &models.DocumentContext{
		Path: "Projects/x.md",
		Tags: []string{"#work"},
		Fields: map[string]any{
			"status": "Active",
			"tags":   []any{"work"},
		},
	}

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("winner has the lowest applicable index", prop.ForAll(
		func(rules []models.Rule, key string) bool {
			res := Resolve(rules, key, doc, nil)

			lowest := -1
			for i, r := range rules {
				if applies(r, key, doc) {
					lowest = i
					break
				}
			}

			if lowest == -1 {
				return !res.Matched
			}
			return res.Matched && res.Index == lowest
		},
		genRules(),
		gen.OneConstOf("status", "tags", "priority", "_draft", "missing"),
	))

	properties.Property("rules after the winner never affect the result", prop.ForAll(
		func(rules []models.Rule, key string, extra models.Rule) bool {
			res := Resolve(rules, key, doc, nil)
			if !res.Matched {
				return true
			}

			// Reverse everything after the winner and append a fresh rule;
			// the winner must not change.
			mutated := append([]models.Rule{}, rules[:res.Index+1]...)
			for i := len(rules) - 1; i > res.Index; i-- {
				mutated = append(mutated, rules[i])
			}
			mutated = append(mutated, extra)

			again := Resolve(mutated, key, doc, nil)
			return again.Matched && again.Index == res.Index && again.Action == res.Action
		},
		genRules(),
		gen.OneConstOf("status", "tags", "priority", "_draft"),
		genRule(),
	))

	properties.TestingRun(t)
}
