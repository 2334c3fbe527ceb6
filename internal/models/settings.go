package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SettingsVersion is the current settings layout version.
const SettingsVersion = 1

// Settings is the full persisted configuration: global flags plus the
// ordered rule list. The engine never mutates it during an evaluation pass.
type Settings struct {
	Version int `json:"version"`
	// HideEmptyFields hides properties whose value is empty.
	HideEmptyFields bool `json:"hideEmptyFields"`
	// ExemptSideDock keeps empty properties visible in the side dock.
	ExemptSideDock bool `json:"exemptSideDock"`
	// HideTableField names a marker property; documents that set it get
	// their whole property table hidden. Empty disables the behavior.
	HideTableField string `json:"hideTableField"`
	// AlwaysVisible is the legacy comma-separated list of property keys
	// shown unconditionally, applied at the lowest priority.
	AlwaysVisible string `json:"alwaysVisible"`
	// AutoFold collapses the property table when a document opens.
	AutoFold bool   `json:"autoFold"`
	Rules    []Rule `json:"rules"`
}

// DefaultSettings returns the configuration used when nothing is persisted.
func DefaultSettings() Settings {
	return Settings{
		Version:         SettingsVersion,
		HideEmptyFields: true,
		ExemptSideDock:  true,
	}
}

// Normalize fills per-rule defaults and repairs invariants in place.
func (s *Settings) Normalize() {
	if s.Version == 0 {
		s.Version = SettingsVersion
	}
	for i := range s.Rules {
		s.Rules[i].Normalize()
	}
}

// AlwaysVisibleKeys splits the legacy always-visible list into lowercased,
// trimmed property keys, dropping empty entries.
func (s Settings) AlwaysVisibleKeys() []string {
	var keys []string
	for _, k := range strings.Split(s.AlwaysVisible, ",") {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// HasLiveRules reports whether any rule requires live document inspection.
func (s Settings) HasLiveRules() bool {
	for _, r := range s.Rules {
		if r.NeedsLiveEvaluation() {
			return true
		}
	}
	return false
}

// settingsFile mirrors Settings with pointer fields so that keys absent
// from older configurations can be told apart from explicit zero values.
type settingsFile struct {
	Version         *int    `json:"version"`
	HideEmptyFields *bool   `json:"hideEmptyFields"`
	ExemptSideDock  *bool   `json:"exemptSideDock"`
	HideTableField  *string `json:"hideTableField"`
	AlwaysVisible   *string `json:"alwaysVisible"`
	AutoFold        *bool   `json:"autoFold"`
	Rules           []Rule  `json:"rules"`
}

// ParseSettings validates and deserializes an exported configuration.
// The payload must be a single JSON object; any key absent from older
// configurations is filled with its default. A parse failure returns an
// error without producing a partial result.
func ParseSettings(data []byte) (Settings, error) {
	// Reject arrays, scalars, and malformed input up front.
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return Settings{}, fmt.Errorf("settings must be a JSON object: %w", err)
	}

	var f settingsFile
	if err := json.Unmarshal(data, &f); err != nil {
		return Settings{}, fmt.Errorf("parse settings: %w", err)
	}

	s := DefaultSettings()
	if f.Version != nil {
		s.Version = *f.Version
	}
	if f.HideEmptyFields != nil {
		s.HideEmptyFields = *f.HideEmptyFields
	}
	if f.ExemptSideDock != nil {
		s.ExemptSideDock = *f.ExemptSideDock
	}
	if f.HideTableField != nil {
		s.HideTableField = *f.HideTableField
	}
	if f.AlwaysVisible != nil {
		s.AlwaysVisible = *f.AlwaysVisible
	}
	if f.AutoFold != nil {
		s.AutoFold = *f.AutoFold
	}
	s.Rules = f.Rules

	s.Normalize()
	return s, nil
}

// Export serializes the configuration as indented JSON. Output is stable:
// exporting the same settings twice yields identical bytes.
func (s Settings) Export() ([]byte, error) {
	out, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export settings: %w", err)
	}
	return append(out, '\n'), nil
}
