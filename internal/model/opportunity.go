package model

import "strings"

// OpportunityType categorizes a funding opportunity.
type OpportunityType string

const (
	OpportunityTypeResearch   OpportunityType = "research"
	OpportunityTypeEducation  OpportunityType = "education"
	OpportunityTypeQI         OpportunityType = "QI"
	OpportunityTypeFellowship OpportunityType = "fellowship"
	OpportunityTypeTravel     OpportunityType = "travel"
	OpportunityTypeOther      OpportunityType = "other"
	OpportunityTypeUnclear    OpportunityType = "unclear"
)

// AllOpportunityTypes returns the valid opportunity type values.
func AllOpportunityTypes() []OpportunityType {
	return []OpportunityType{
		OpportunityTypeResearch,
		OpportunityTypeEducation,
		OpportunityTypeQI,
		OpportunityTypeFellowship,
		OpportunityTypeTravel,
		OpportunityTypeOther,
		OpportunityTypeUnclear,
	}
}

// NormalizeOpportunityType maps a model-reported string onto the enum,
// defaulting to unclear for unknown values.
func NormalizeOpportunityType(s string) OpportunityType {
	s = strings.TrimSpace(s)
	for _, t := range AllOpportunityTypes() {
		if strings.EqualFold(s, string(t)) {
			return t
		}
	}
	return OpportunityTypeUnclear
}

// Ternary is a yes/no/unclear answer as reported by the extraction model.
type Ternary string

const (
	TernaryYes     Ternary = "yes"
	TernaryNo      Ternary = "no"
	TernaryUnclear Ternary = "unclear"
)

// NormalizeTernary maps a model-reported string onto yes/no/unclear,
// defaulting to unclear.
func NormalizeTernary(s string) Ternary {
	switch Ternary(strings.ToLower(strings.TrimSpace(s))) {
	case TernaryYes:
		return TernaryYes
	case TernaryNo:
		return TernaryNo
	default:
		return TernaryUnclear
	}
}

// Confidence is the extraction model's self-reported confidence.
type Confidence string

const (
	ConfidenceLow  Confidence = "low"
	ConfidenceMed  Confidence = "med"
	ConfidenceHigh Confidence = "high"
)

// NormalizeConfidence maps a model-reported string onto low/med/high,
// defaulting to low.
func NormalizeConfidence(s string) Confidence {
	switch Confidence(strings.ToLower(strings.TrimSpace(s))) {
	case ConfidenceHigh:
		return ConfidenceHigh
	case ConfidenceMed:
		return ConfidenceMed
	default:
		return ConfidenceLow
	}
}

// Weight maps confidence to its dedupe scoring weight. Unknown values score 0.
func (c Confidence) Weight() int {
	switch c {
	case ConfidenceHigh:
		return 3
	case ConfidenceMed:
		return 2
	case ConfidenceLow:
		return 1
	default:
		return 0
	}
}

// Opportunity is one funding opportunity candidate produced by structured
// extraction from a single page. Multiple candidates across pages may describe
// the same real-world opportunity; the dedupe stage collapses them.
type Opportunity struct {
	FoundationID    string          `json:"foundation_id"`
	FoundationName  string          `json:"foundation_name"`
	SourceURL       string          `json:"source_url"`
	Name            string          `json:"opportunity_name"`
	URL             string          `json:"opportunity_url"`
	Type            OpportunityType `json:"opportunity_type"`
	EligibilityUS   Ternary         `json:"eligibility_us"`
	EligibilityText string          `json:"eligibility_text"`
	DeadlineText    string          `json:"deadline_text"`
	AwardAmountText string          `json:"award_amount_text"`
	Keywords        []string        `json:"keywords_phrases"`
	Summary         string          `json:"summary_1_2_sentences"`
	Evidence        []string        `json:"evidence_snippets"`
	Confidence      Confidence      `json:"confidence"`

	// Error is set on audit rows recording a failed extraction; real
	// opportunity rows leave it empty.
	Error string `json:"error,omitempty"`
}

// KeywordsJoined renders the keyword list in its on-disk "|"-separated form.
func (o Opportunity) KeywordsJoined() string {
	return strings.Join(o.Keywords, "|")
}

// EvidenceJoined renders evidence snippets in their on-disk " | " form.
func (o Opportunity) EvidenceJoined() string {
	return strings.Join(o.Evidence, " | ")
}

// SplitKeywords parses the "|"-separated keyword encoding back into a list.
func SplitKeywords(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return strings.Split(s, "|")
}

// SplitEvidence parses the " | "-separated evidence encoding back into a list.
func SplitEvidence(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return strings.Split(s, " | ")
}

// EligibilityFlag is the resolved ternary eligibility decision.
type EligibilityFlag string

const (
	EligibilityYes    EligibilityFlag = "yes"
	EligibilityNo     EligibilityFlag = "no"
	EligibilityReview EligibilityFlag = "review"
)

// ResolvedOpportunity is an Opportunity that survived dedupe, annotated with
// its resolved eligibility flag. Immutable once written to the final table.
type ResolvedOpportunity struct {
	Opportunity
	DedupeKey    string          `json:"dedupe_key"`
	RowScore     int             `json:"row_score"`
	EligibleFlag EligibilityFlag `json:"utah_eligible_flag"`
}
