// Package rules holds the deterministic keyword and regex rule tables used by
// the triage, prefilter, and demotion stages, plus the generic evaluators that
// consume them. Rule tables are ordered data; evaluation is always
// first-match-wins so each table can be tested row by row.
package rules

import (
	"regexp"
	"strings"
)

// Rule is one named regex pattern in an ordered rule list.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
}

// NewRule compiles a rule, panicking on an invalid pattern. Rule tables are
// package-level constants, so a bad pattern fails at init.
func NewRule(name, pattern string) Rule {
	return Rule{Name: name, Pattern: regexp.MustCompile(pattern)}
}

// FirstMatch evaluates an ordered rule list against text and returns the name
// of the first matching rule. The second return is false when no rule matches.
func FirstMatch(rs []Rule, text string) (string, bool) {
	for _, r := range rs {
		if r.Pattern.MatchString(text) {
			return r.Name, true
		}
	}
	return "", false
}

// AnyMatch reports whether any rule in the list matches text.
func AnyMatch(rs []Rule, text string) bool {
	_, ok := FirstMatch(rs, text)
	return ok
}

// ContainsAny reports whether text contains any of the given substrings.
// Callers normalize text first; keywords are stored lowercase.
func ContainsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

// CountDistinct counts how many distinct keywords occur in text at least once.
func CountDistinct(text string, keywords []string) int {
	n := 0
	for _, k := range keywords {
		if strings.Contains(text, k) {
			n++
		}
	}
	return n
}

// compileAll builds a rule list from (name, pattern) pairs preserving order.
func compileAll(pairs [][2]string) []Rule {
	out := make([]Rule, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, NewRule(p[0], p[1]))
	}
	return out
}
