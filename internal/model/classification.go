package model

// FundingVerdict is the classifier's decision about whether a row describes
// real prospective funding.
type FundingVerdict string

const (
	FundingYes     FundingVerdict = "yes"
	FundingNo      FundingVerdict = "no"
	FundingUnclear FundingVerdict = "unclear"
)

// NormalizeFundingVerdict maps any out-of-enum classifier output to unclear.
func NormalizeFundingVerdict(s string) FundingVerdict {
	switch v := FundingVerdict(normLower(s)); v {
	case FundingYes, FundingNo, FundingUnclear:
		return v
	default:
		return FundingUnclear
	}
}

// ClassificationRecord is a resolved opportunity row extended with the
// classifier's verdict. Mutated in place only by the demotion pass
// (unclear → no); otherwise append-only.
type ClassificationRecord struct {
	ResolvedOpportunity
	PrefilterReason  string         `json:"prefilter_reason"`
	IsRealFunding    FundingVerdict `json:"is_real_funding"`
	Reason           string         `json:"reason"`
	ConfidenceLabel  string         `json:"confidence"`
	RuleDemoted      bool           `json:"rule_demoted"`
	RuleDemoteReason string         `json:"rule_demote_reason"`
}

// PrefilterResult is a resolved opportunity annotated with the prefilter
// keep/drop decision. Dropped rows land in an audit table, never deleted.
type PrefilterResult struct {
	ResolvedOpportunity
	Keep   bool   `json:"prefilter_keep"`
	Reason string `json:"prefilter_reason"`
}
