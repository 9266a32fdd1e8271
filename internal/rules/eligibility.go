package rules

import (
	"strings"

	"github.com/beehive-research/foundation-scout/internal/model"
)

// usStates is the state vocabulary for the restrictive-eligibility heuristic,
// including DC variants. Order matters: multi-word names are matched as plain
// substrings of normalized text.
var usStates = []string{
	"alabama", "alaska", "arizona", "arkansas", "california", "colorado", "connecticut", "delaware",
	"florida", "georgia", "hawaii", "idaho", "illinois", "indiana", "iowa", "kansas", "kentucky",
	"louisiana", "maine", "maryland", "massachusetts", "michigan", "minnesota", "mississippi", "missouri",
	"montana", "nebraska", "nevada", "new hampshire", "new jersey", "new mexico", "new york",
	"north carolina", "north dakota", "ohio", "oklahoma", "oregon", "pennsylvania", "rhode island",
	"south carolina", "south dakota", "tennessee", "texas", "utah", "vermont", "virginia", "washington",
	"west virginia", "wisconsin", "wyoming", "district of columbia", "washington dc", "d.c.",
}

// restrictiveMarkers suggest a residency or location restriction in
// eligibility text.
var restrictiveMarkers = []string{
	"only", "must be", "restricted", "residents of", "resident of", "located in", "within the state of",
}

const homeState = "utah"

// MentionedStates returns the distinct US states found in normalized text,
// preserving vocabulary order.
func MentionedStates(text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, st := range usStates {
		if strings.Contains(text, st) && !seen[st] {
			seen[st] = true
			out = append(out, st)
		}
	}
	return out
}

// ResolveEligibility decides the ternary eligibility flag from the model's
// reported eligibility and the free-text eligibility description.
//
// The model's explicit "no" is authoritative. An explicit Utah mention wins
// next. A restrictive marker naming exactly one non-Utah state means "no";
// naming one or more states without Utah is ambiguous (the list may be
// non-exhaustive) and lands in "review". The model's "yes" is accepted only
// after the state heuristic passes; everything else is "review".
func ResolveEligibility(eligibilityUS model.Ternary, eligibilityText string) model.EligibilityFlag {
	et := model.NormalizeKeyText(eligibilityText)

	if eligibilityUS == model.TernaryNo {
		return model.EligibilityNo
	}

	if strings.Contains(et, homeState) {
		return model.EligibilityYes
	}

	if ContainsAny(et, restrictiveMarkers) {
		states := MentionedStates(et)
		if len(states) == 1 && states[0] != homeState {
			return model.EligibilityNo
		}
		if len(states) >= 1 {
			return model.EligibilityReview
		}
	}

	if eligibilityUS == model.TernaryYes {
		return model.EligibilityYes
	}

	return model.EligibilityReview
}
