package models

import "strings"

// Action decides what a matching rule does to a property.
type Action string

// Action constants
const (
	ActionHide Action = "hide"
	ActionShow Action = "show"
)

// HideTargets selects the surfaces a hide rule applies to.
// Only meaningful when the rule's action is ActionHide.
type HideTargets struct {
	WhenInactive   bool `json:"whenInactive"`   // hide while the property table is not focused
	Always         bool `json:"always"`         // hide even while the table is focused (implies WhenInactive)
	FileProperties bool `json:"fileProperties"` // hide in the single-document side panel
	AllProperties  bool `json:"allProperties"`  // hide in the all-properties side panel
}

// SetAlways updates the always flag. Enabling it also enables WhenInactive,
// since "hide always" is a superset of "hide when inactive".
func (t *HideTargets) SetAlways(v bool) {
	t.Always = v
	if v {
		t.WhenInactive = true
	}
}

// SetWhenInactive updates the inactive flag. Disabling it also disables
// Always; the two flags must stay synchronized.
func (t *HideTargets) SetWhenInactive(v bool) {
	t.WhenInactive = v
	if !v {
		t.Always = false
	}
}

// Normalize repairs the Always/WhenInactive invariant after deserialization.
func (t *HideTargets) Normalize() {
	if t.Always {
		t.WhenInactive = true
	}
}

// Rule decides the visibility of properties whose key matches its pattern.
// Rules live in an ordered list; the lowest index that fully matches wins.
type Rule struct {
	// Pattern is a literal property key, or a case-insensitive regular
	// expression when IsPattern is set.
	Pattern   string `json:"pattern"`
	IsPattern bool   `json:"isPattern"`
	// FolderScope restricts the rule to documents under this path prefix.
	FolderScope string `json:"folderScope,omitempty"`
	// TagScope restricts the rule to documents carrying this tag.
	TagScope string `json:"tagScope,omitempty"`
	// ValueCondition is a comma-separated set of literal values; when
	// non-empty the property's current value must equal one of them.
	ValueCondition string      `json:"valueCondition,omitempty"`
	Action         Action      `json:"action"`
	HideTargets    HideTargets `json:"hideTargets"`
}

// NeedsLiveEvaluation reports whether the rule can only be applied by
// inspecting live document content. Regex patterns and value conditions
// cannot be expressed as static stylesheet rules.
func (r Rule) NeedsLiveEvaluation() bool {
	return r.IsPattern || strings.TrimSpace(r.ValueCondition) != ""
}

// Normalize fills defaults for fields absent from older configurations and
// repairs the hide-target invariant.
func (r *Rule) Normalize() {
	if r.Action != ActionShow {
		r.Action = ActionHide
	}
	r.HideTargets.Normalize()
}
