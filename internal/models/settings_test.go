package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHideTargets_Invariant(t *testing.T) {
	t.Run("setting always forces whenInactive", func(t *testing.T) {
		var targets HideTargets
		targets.SetAlways(true)
		assert.True(t, targets.Always)
		assert.True(t, targets.WhenInactive)
	})

	t.Run("clearing whenInactive forces always off", func(t *testing.T) {
		targets := HideTargets{WhenInactive: true, Always: true}
		targets.SetWhenInactive(false)
		assert.False(t, targets.WhenInactive)
		assert.False(t, targets.Always)
	})

	t.Run("normalize repairs deserialized state", func(t *testing.T) {
		targets := HideTargets{Always: true}
		targets.Normalize()
		assert.True(t, targets.WhenInactive)
	})
}

func TestParseSettings_RejectsNonObject(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "array", input: `[{"pattern": "x"}]`},
		{name: "scalar", input: `42`},
		{name: "malformed", input: `{"rules": `},
		{name: "empty", input: ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSettings([]byte(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestParseSettings_FillsDefaults(t *testing.T) {
	// A minimal export from an older version: no global flags, rules
	// missing every newer field.
	input := `{"rules": [{"pattern": "status"}]}`

	s, err := ParseSettings([]byte(input))
	require.NoError(t, err)

	assert.Equal(t, SettingsVersion, s.Version)
	assert.True(t, s.HideEmptyFields, "default on")
	assert.True(t, s.ExemptSideDock, "default on")
	assert.False(t, s.AutoFold)

	require.Len(t, s.Rules, 1)
	r := s.Rules[0]
	assert.Equal(t, "status", r.Pattern)
	assert.False(t, r.IsPattern)
	assert.Empty(t, r.FolderScope)
	assert.Empty(t, r.TagScope)
	assert.Empty(t, r.ValueCondition)
	assert.Equal(t, ActionHide, r.Action, "action defaults to hide")
}

func TestParseSettings_ExplicitFalseIsKept(t *testing.T) {
	input := `{"hideEmptyFields": false, "exemptSideDock": false}`

	s, err := ParseSettings([]byte(input))
	require.NoError(t, err)
	assert.False(t, s.HideEmptyFields)
	assert.False(t, s.ExemptSideDock)
}

func TestParseSettings_RepairsHideTargetInvariant(t *testing.T) {
	input := `{"rules": [{"pattern": "x", "hideTargets": {"always": true}}]}`

	s, err := ParseSettings([]byte(input))
	require.NoError(t, err)
	require.Len(t, s.Rules, 1)
	assert.True(t, s.Rules[0].HideTargets.WhenInactive)
}

func TestSettings_ExportRoundTrip(t *testing.T) {
	original := Settings{
		Version:         SettingsVersion,
		HideEmptyFields: true,
		ExemptSideDock:  false,
		HideTableField:  "hide-props",
		AlwaysVisible:   "tags, aliases",
		AutoFold:        true,
		Rules: []Rule{
			{
				Pattern:        "status",
				ValueCondition: "Cancelled, Done",
				FolderScope:    "Projects/",
				Action:         ActionHide,
				HideTargets:    HideTargets{WhenInactive: true, Always: true},
			},
			{Pattern: "^_", IsPattern: true, Action: ActionHide, HideTargets: HideTargets{WhenInactive: true}},
			{Pattern: "due", Action: ActionShow},
		},
	}

	exported, err := original.Export()
	require.NoError(t, err)

	imported, err := ParseSettings(exported)
	require.NoError(t, err)
	assert.Equal(t, original, imported, "round trip must preserve every field")

	// Export is stable.
	again, err := imported.Export()
	require.NoError(t, err)
	assert.Equal(t, exported, again)
}

func TestSettings_AlwaysVisibleKeys(t *testing.T) {
	s := Settings{AlwaysVisible: " Tags , aliases ,, CSSclasses "}
	assert.Equal(t, []string{"tags", "aliases", "cssclasses"}, s.AlwaysVisibleKeys())

	assert.Nil(t, Settings{}.AlwaysVisibleKeys())
}

func TestSettings_HasLiveRules(t *testing.T) {
	assert.False(t, Settings{Rules: []Rule{{Pattern: "a"}}}.HasLiveRules())
	assert.True(t, Settings{Rules: []Rule{{Pattern: "a", IsPattern: true}}}.HasLiveRules())
	assert.True(t, Settings{Rules: []Rule{{Pattern: "a", ValueCondition: "x"}}}.HasLiveRules())
	assert.False(t, Settings{Rules: []Rule{{Pattern: "a", ValueCondition: "   "}}}.HasLiveRules(),
		"whitespace-only condition is empty")
}

func TestValueStrings(t *testing.T) {
	assert.Nil(t, ValueStrings(nil))
	assert.Equal(t, []string{"x"}, ValueStrings("x"))
	assert.Equal(t, []string{"a", "b"}, ValueStrings([]any{"a", "b"}))
	assert.Equal(t, []string{"true"}, ValueStrings(true))
	assert.Equal(t, []string{"3"}, ValueStrings(3))
}
