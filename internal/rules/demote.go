package rules

import "fmt"

// demotionRules signal retrospective or report-like content: past-recipient
// lists, annual reports, conference programs. Ordered; first match wins.
var demotionRules = compileAll([][2]string{
	// Strong retrospective signals.
	{"past_recipients", `(?i)\b(past|previous|prior)\s+(recipients|awardees|winners|grantees)\b`},
	{"grant_recipients", `(?i)\b(grant|award)\s+recipients\b`},
	{"funded_projects_list", `(?i)\b(funded\s+projects|projects\s+funded|grants\s+awarded|awarded\s+grants)\b`},
	{"meet_the_awardees", `(?i)\bmeet\s+(the\s+)?(awardees|recipients|grantees)\b`},
	{"list_of_awardees", `(?i)\blist\s+of\s+(awardees|recipients|grantees|winners)\b`},

	// Reports / retrospective publications.
	{"annual_report", `(?i)\b(annual|impact|program)\s+report\b`},
	{"year_in_review", `(?i)\b(year\s+in\s+review|highlights\s+of\s+the\s+year)\b`},

	// Conference program pages, no funding attached.
	{"conference_program_only", `(?i)\b(conference|meeting)\s+(program|agenda|schedule)\b`},
})

// MatchDemotion returns the first demotion rule matching the row text, or
// ("", false) when the row shows no retrospective signal.
func MatchDemotion(text string) (string, bool) {
	return FirstMatch(demotionRules, text)
}

// DemoteReason formats the audit trail message for a demoted row.
func DemoteReason(ruleName string) string {
	return fmt.Sprintf("Rule demotion: matched '%s' pattern indicating retrospective/non-opportunity content.", ruleName)
}
