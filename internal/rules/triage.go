package rules

import (
	"fmt"
	"strings"
)

// Triage reason strings. Every page gets exactly one of these; text_good
// reasons carry the distinct signal count as a suffix.
const (
	TriagePDF              = "pdf"
	TriageURLGoodOverrides = "url_good_overrides_bad"
	TriageURLBad           = "url_bad"
	TriageURLGood          = "url_good"
	TriageTextTooShort     = "text_too_short"
	TriageNoSignal         = "no_signal"
	triageTextGoodPrefix   = "text_good_"
)

// minTriageTextLen is the extracted-text length below which a page with no
// other signal is treated as nav/empty.
const minTriageTextLen = 400

// minTextSignals is how many distinct text-signal keywords a page needs to be
// kept on text evidence alone.
const minTextSignals = 2

// urlGoodKeywords are URL substrings that often indicate funding opportunities.
var urlGoodKeywords = []string{
	"grant", "grants", "funding", "award", "awards", "scholar", "scholarship",
	"fellow", "fellowship", "rfp", "proposal", "apply", "application", "guideline",
	"career-development", "young-investigator", "pilot", "seed",
}

// urlBadKeywords are URL substrings that often indicate noise (not funding).
var urlBadKeywords = []string{
	"leadership", "board", "staff", "team", "membership", "join", "renew",
	"donate", "giving", "news", "blog", "press", "event", "calendar",
	"job", "careers", "privacy", "terms", "contact", "about", "login", "signin",
}

// textGoodKeywords are text signals that often appear in real opportunities.
var textGoodKeywords = []string{
	"eligibility", "eligible", "deadline", "due date", "letter of intent", "loi",
	"award amount", "funding amount", "budget", "apply by", "application period",
	"request for proposals", "call for proposals", "submission", "proposal",
}

// Triage scores a fetched page as likely-funding or not. It is a total
// function: every (url, contentType, text) input maps to exactly one
// (keep, reason) pair, first rule wins.
func Triage(url, contentType, text string) (bool, string) {
	u := strings.ToLower(url)
	ct := strings.ToLower(contentType)
	t := strings.ToLower(text)

	// PDFs are often high-value for grants and guidelines.
	if strings.Contains(ct, "application/pdf") || strings.HasSuffix(u, ".pdf") {
		return true, TriagePDF
	}

	if ContainsAny(u, urlBadKeywords) {
		// Still allow if the URL strongly suggests funding too.
		if ContainsAny(u, urlGoodKeywords) {
			return true, TriageURLGoodOverrides
		}
		return false, TriageURLBad
	}

	if ContainsAny(u, urlGoodKeywords) {
		return true, TriageURLGood
	}

	if hits := CountDistinct(t, textGoodKeywords); hits >= minTextSignals {
		return true, fmt.Sprintf("%s%d", triageTextGoodPrefix, hits)
	}

	if len(strings.TrimSpace(t)) < minTriageTextLen {
		return false, TriageTextTooShort
	}

	return false, TriageNoSignal
}

// TriageReasonPriority ranks keep reasons for page selection: PDFs first, then
// direct URL matches, then override keeps, with text-signal keeps last.
func TriageReasonPriority(reason string) int {
	switch reason {
	case TriagePDF:
		return 1
	case TriageURLGood:
		return 2
	case TriageURLGoodOverrides:
		return 3
	default:
		return 10
	}
}
