// Package match provides the pure predicates deciding whether a single rule
// applies: name match, folder/tag scope, and value condition. All matching
// is case-insensitive and fails closed — a malformed pattern never matches
// and never raises.
package match

import (
	"regexp"
	"strings"
	"sync"

	"github.com/propshade/propshade/internal/models"
)

// patternCache holds compiled case-insensitive patterns keyed by source.
// A nil entry marks a pattern that failed to compile.
var patternCache sync.Map

// compilePattern compiles a rule pattern case-insensitively, caching the
// result. Returns nil for malformed patterns.
func compilePattern(pattern string) *regexp.Regexp {
	if cached, ok := patternCache.Load(pattern); ok {
		re, _ := cached.(*regexp.Regexp)
		return re
	}

	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		re = nil
	}
	patternCache.Store(pattern, re)
	return re
}

// NameMatches reports whether the rule's pattern matches the property key.
// Literal patterns compare case-insensitively; regex patterns are tested
// against the lowercased key and match nothing when malformed.
func NameMatches(fieldKey string, rule models.Rule) bool {
	key := strings.ToLower(fieldKey)

	if rule.IsPattern {
		re := compilePattern(rule.Pattern)
		if re == nil {
			return false
		}
		return re.MatchString(key)
	}

	return key == strings.ToLower(rule.Pattern)
}

// ScopeApplies reports whether the rule is in scope for the document.
// An unscoped rule applies everywhere. A scoped rule never applies without
// an open document. When both scopes are set, both must hold.
func ScopeApplies(rule models.Rule, doc *models.DocumentContext) bool {
	folder := strings.TrimSpace(rule.FolderScope)
	tag := strings.TrimSpace(rule.TagScope)

	if folder == "" && tag == "" {
		return true
	}
	if doc == nil {
		return false
	}

	if folder != "" {
		if !strings.HasSuffix(folder, "/") {
			folder += "/"
		}
		if !strings.HasPrefix(doc.Path, folder) {
			return false
		}
	}

	if tag != "" && !doc.HasTag(tag) {
		return false
	}

	return true
}

// ValueMatches reports whether the rule's value condition holds for the
// property. An empty condition always holds. A live value, when supplied,
// takes precedence over the stored property map; list values match if any
// element matches one of the condition terms.
func ValueMatches(rule models.Rule, fieldKey string, doc *models.DocumentContext, liveValue *string) bool {
	terms := conditionTerms(rule.ValueCondition)
	if len(terms) == 0 {
		return true
	}

	if liveValue != nil {
		return termsContain(terms, *liveValue)
	}

	if doc == nil {
		return false
	}
	stored, ok := doc.Fields[fieldKey]
	if !ok {
		return false
	}
	for _, v := range models.ValueStrings(stored) {
		if termsContain(terms, v) {
			return true
		}
	}
	return false
}

// conditionTerms splits a value condition into lowercased, trimmed terms.
func conditionTerms(condition string) []string {
	if strings.TrimSpace(condition) == "" {
		return nil
	}
	var terms []string
	for _, t := range strings.Split(condition, ",") {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			terms = append(terms, t)
		}
	}
	return terms
}

func termsContain(terms []string, value string) bool {
	v := strings.ToLower(strings.TrimSpace(value))
	for _, t := range terms {
		if t == v {
			return true
		}
	}
	return false
}
