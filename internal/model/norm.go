package model

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	dedupeCharRe = regexp.MustCompile(`[^a-z0-9 \-\/]`)

	// foldAccents decomposes characters and strips combining marks, so
	// "Müller Fellowship" and "Muller Fellowship" produce one dedupe key.
	foldAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

func normLower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeBlob lowercases and collapses whitespace. Used for rule matching
// over free-text fields.
func NormalizeBlob(s string) string {
	return whitespaceRe.ReplaceAllString(normLower(s), " ")
}

// NormalizeKeyText canonicalizes a name or URL for dedupe-key construction:
// accent folding, lowercase, whitespace collapse, then stripping everything
// outside [a-z0-9 -/].
func NormalizeKeyText(s string) string {
	folded, _, err := transform.String(foldAccents, s)
	if err != nil {
		folded = s
	}
	folded = NormalizeBlob(folded)
	return dedupeCharRe.ReplaceAllString(folded, "")
}

// DedupeKey builds the canonical per-foundation identity for an opportunity:
// the normalized URL when present, otherwise the normalized name.
func DedupeKey(o Opportunity) string {
	if u := NormalizeKeyText(o.URL); u != "" {
		return o.FoundationID + "|url|" + u
	}
	return o.FoundationID + "|name|" + NormalizeKeyText(o.Name)
}
