package stylegen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/propshade/propshade/internal/models"
)

func TestGenerate_Idempotent(t *testing.T) {
	s := models.Settings{
		HideEmptyFields: true,
		ExemptSideDock:  true,
		AlwaysVisible:   "tags, aliases",
		Rules: []models.Rule{
			{Pattern: "status", Action: models.ActionHide, HideTargets: models.HideTargets{WhenInactive: true}},
			{Pattern: "due", Action: models.ActionShow},
		},
	}
	doc := &models.DocumentContext{Path: "Projects/x.md"}

	first := New().Generate(s, doc)
	second := New().Generate(s, doc)
	assert.Equal(t, first, second, "unchanged inputs must produce byte-identical output")
}

func TestGenerate_ShowRule(t *testing.T) {
	s := models.Settings{
		Rules: []models.Rule{{Pattern: "Status", Action: models.ActionShow}},
	}

	out := New().Generate(s, nil)
	assert.Contains(t, out, `[data-property-key="status"] { display: flex !important; }`)
}

func TestGenerate_HideTargets(t *testing.T) {
	tests := []struct {
		name        string
		targets     models.HideTargets
		contains    []string
		notContains []string
	}{
		{
			name:    "inactive only",
			targets: models.HideTargets{WhenInactive: true},
			contains: []string{
				`.props-table [data-property-key="secret"] { display: none; }`,
			},
			notContains: []string{
				`.props-table.props-active [data-property-key="secret"]`,
				`.props-panel-file [data-property-key="secret"]`,
			},
		},
		{
			name:    "always adds the active override",
			targets: models.HideTargets{WhenInactive: true, Always: true},
			contains: []string{
				`.props-table [data-property-key="secret"] { display: none; }`,
				`.props-table.props-active [data-property-key="secret"] { display: none !important; }`,
			},
		},
		{
			name:    "file panel only",
			targets: models.HideTargets{FileProperties: true},
			contains: []string{
				`.props-panel-file [data-property-key="secret"] { display: none; }`,
			},
			notContains: []string{
				`.props-table [data-property-key="secret"]`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := models.Settings{
				Rules: []models.Rule{{Pattern: "secret", Action: models.ActionHide, HideTargets: tt.targets}},
			}
			out := New().Generate(s, nil)
			for _, c := range tt.contains {
				assert.Contains(t, out, c)
			}
			for _, nc := range tt.notContains {
				assert.NotContains(t, out, nc)
			}
		})
	}
}

func TestGenerate_SkipsLivePathRules(t *testing.T) {
	s := models.Settings{
		Rules: []models.Rule{
			{Pattern: "^_", IsPattern: true, Action: models.ActionHide, HideTargets: models.HideTargets{WhenInactive: true}},
			{Pattern: "status", ValueCondition: "done", Action: models.ActionHide, HideTargets: models.HideTargets{WhenInactive: true}},
		},
	}

	gen := New()
	out := gen.Generate(s, nil)

	assert.NotContains(t, out, "^_")
	assert.NotContains(t, out, `[data-property-key="status"]`)
	assert.Equal(t, 2, gen.Stats().SkipReasons[SkipLivePath])
	assert.Equal(t, 0, gen.Stats().Emitted)
}

func TestGenerate_ScopeFiltering(t *testing.T) {
	s := models.Settings{
		Rules: []models.Rule{
			{Pattern: "status", FolderScope: "Projects/", Action: models.ActionHide, HideTargets: models.HideTargets{WhenInactive: true}},
		},
	}

	t.Run("in scope emits", func(t *testing.T) {
		doc := &models.DocumentContext{Path: "Projects/x.md"}
		gen := New()
		out := gen.Generate(s, doc)
		assert.Contains(t, out, `[data-property-key="status"]`)
		assert.Equal(t, 1, gen.Stats().Emitted)
	})

	t.Run("out of scope skips", func(t *testing.T) {
		doc := &models.DocumentContext{Path: "Notes/y.md"}
		gen := New()
		out := gen.Generate(s, doc)
		assert.NotContains(t, out, `[data-property-key="status"]`)
		assert.Equal(t, 1, gen.Stats().SkipReasons[SkipOutOfScope])
	})

	t.Run("no open document skips scoped rule", func(t *testing.T) {
		gen := New()
		out := gen.Generate(s, nil)
		assert.NotContains(t, out, `[data-property-key="status"]`)
		assert.Equal(t, 1, gen.Stats().SkipReasons[SkipOutOfScope])
	})
}

func TestGenerate_FirstClaimWins(t *testing.T) {
	s := models.Settings{
		Rules: []models.Rule{
			{Pattern: "status", Action: models.ActionShow},
			{Pattern: "STATUS", Action: models.ActionHide, HideTargets: models.HideTargets{WhenInactive: true}},
		},
	}

	gen := New()
	out := gen.Generate(s, nil)

	assert.Contains(t, out, `[data-property-key="status"] { display: flex !important; }`)
	assert.Equal(t, 1, gen.Stats().SkipReasons[SkipDuplicateKey])
	assert.Equal(t, 1, strings.Count(out, `[data-property-key="status"]`))
}

func TestGenerate_LegacyAlwaysVisible(t *testing.T) {
	// Empty rule list plus the legacy list yields show rules for its keys
	// and nothing beyond the baselines.
	s := models.Settings{
		HideEmptyFields: true,
		AlwaysVisible:   "tags, aliases",
	}

	out := New().Generate(s, nil)

	assert.Contains(t, out, `[data-property-key="tags"] { display: flex; }`)
	assert.Contains(t, out, `[data-property-key="aliases"] { display: flex; }`)
	assert.Contains(t, out, `[data-property-empty] { display: none; }`)
	assert.Equal(t, 2, strings.Count(out, "data-property-key=\""))
}

func TestGenerate_Baselines(t *testing.T) {
	t.Run("empty-field hiding disabled", func(t *testing.T) {
		s := models.Settings{HideEmptyFields: false, ExemptSideDock: true}
		out := New().Generate(s, nil)
		assert.NotContains(t, out, "data-property-empty")
	})

	t.Run("side dock exemption", func(t *testing.T) {
		s := models.Settings{HideEmptyFields: true, ExemptSideDock: true}
		out := New().Generate(s, nil)
		assert.Contains(t, out, `.props-side-dock [data-property-empty] { display: flex; }`)
	})

	t.Run("marker field hides the whole table", func(t *testing.T) {
		s := models.Settings{HideTableField: "hide-props"}
		doc := &models.DocumentContext{
			Path:   "a.md",
			Fields: map[string]any{"hide-props": true},
		}
		out := New().Generate(s, doc)
		assert.Contains(t, out, `.props-table { display: none !important; }`)
	})

	t.Run("marker field unset leaves the table visible", func(t *testing.T) {
		s := models.Settings{HideTableField: "hide-props"}
		doc := &models.DocumentContext{
			Path:   "a.md",
			Fields: map[string]any{"hide-props": false},
		}
		out := New().Generate(s, doc)
		assert.NotContains(t, out, `.props-table { display: none !important; }`)
	})

	t.Run("active table exemption always present", func(t *testing.T) {
		out := New().Generate(models.Settings{}, nil)
		assert.Contains(t, out, `.props-table.props-active [data-property-key] { display: flex; }`)
	})
}

func TestGenerate_EscapesKeys(t *testing.T) {
	s := models.Settings{
		Rules: []models.Rule{{Pattern: `we"ird`, Action: models.ActionShow}},
	}
	out := New().Generate(s, nil)
	assert.Contains(t, out, `[data-property-key="we\"ird"]`)
}
