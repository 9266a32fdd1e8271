package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeOpportunityType(t *testing.T) {
	tests := []struct {
		in   string
		want OpportunityType
	}{
		{"research", OpportunityTypeResearch},
		{"QI", OpportunityTypeQI},
		{"qi", OpportunityTypeQI},
		{"Fellowship", OpportunityTypeFellowship},
		{" travel ", OpportunityTypeTravel},
		{"grantmaking", OpportunityTypeUnclear},
		{"", OpportunityTypeUnclear},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeOpportunityType(tt.in), "input %q", tt.in)
	}
}

func TestNormalizeTernary(t *testing.T) {
	assert.Equal(t, TernaryYes, NormalizeTernary("Yes"))
	assert.Equal(t, TernaryNo, NormalizeTernary(" no "))
	assert.Equal(t, TernaryUnclear, NormalizeTernary("maybe"))
	assert.Equal(t, TernaryUnclear, NormalizeTernary(""))
}

func TestNormalizeConfidence(t *testing.T) {
	assert.Equal(t, ConfidenceHigh, NormalizeConfidence("HIGH"))
	assert.Equal(t, ConfidenceMed, NormalizeConfidence("med"))
	assert.Equal(t, ConfidenceLow, NormalizeConfidence("medium"))
	assert.Equal(t, ConfidenceLow, NormalizeConfidence(""))
}

func TestConfidenceWeight(t *testing.T) {
	assert.Equal(t, 3, ConfidenceHigh.Weight())
	assert.Equal(t, 2, ConfidenceMed.Weight())
	assert.Equal(t, 1, ConfidenceLow.Weight())
	assert.Equal(t, 0, Confidence("bogus").Weight())
}

func TestKeywordRoundTrip(t *testing.T) {
	o := Opportunity{
		Keywords: []string{"pilot", "cardiology", "early career"},
		Evidence: []string{"Apply by March 1", "Awards up to $50,000"},
	}
	assert.Equal(t, "pilot|cardiology|early career", o.KeywordsJoined())
	assert.Equal(t, "Apply by March 1 | Awards up to $50,000", o.EvidenceJoined())

	assert.Equal(t, o.Keywords, SplitKeywords(o.KeywordsJoined()))
	assert.Equal(t, o.Evidence, SplitEvidence(o.EvidenceJoined()))

	assert.Nil(t, SplitKeywords(""))
	assert.Nil(t, SplitEvidence("  "))
}

func TestNormalizeFundingVerdict(t *testing.T) {
	assert.Equal(t, FundingYes, NormalizeFundingVerdict("YES"))
	assert.Equal(t, FundingNo, NormalizeFundingVerdict("no"))
	assert.Equal(t, FundingUnclear, NormalizeFundingVerdict("probably"))
	assert.Equal(t, FundingUnclear, NormalizeFundingVerdict(""))
}

func TestFoundationID(t *testing.T) {
	assert.Equal(t, "F001", FoundationID(1))
	assert.Equal(t, "F042", FoundationID(42))
	assert.Equal(t, "F1000", FoundationID(1000))
}

func TestRegistrableDomain(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://www.example.org/grants", "example.org"},
		{"example.org", "example.org"},
		{"http://foundation.example.co.uk", "example.co.uk"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RegistrableDomain(tt.in), "input %q", tt.in)
	}
}

func TestPageKey(t *testing.T) {
	key := PageKey("https://example.org/grants")
	assert.Len(t, key, 12)
	// Stable across calls.
	assert.Equal(t, key, PageKey("https://example.org/grants"))
	assert.NotEqual(t, key, PageKey("https://example.org/other"))
}
