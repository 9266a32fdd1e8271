package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beehive-research/foundation-scout/internal/model"
	"github.com/beehive-research/foundation-scout/internal/rules"
)

func classifiedRow(key, name, summary string, verdict model.FundingVerdict) model.ClassificationRecord {
	return model.ClassificationRecord{
		ResolvedOpportunity: model.ResolvedOpportunity{
			Opportunity: model.Opportunity{
				FoundationID:   "F001",
				FoundationName: "Alpha Foundation",
				Name:           name,
				Summary:        summary,
				Confidence:     model.ConfidenceMed,
			},
			DedupeKey: key,
		},
		IsRealFunding:   verdict,
		Reason:          "classifier output",
		ConfidenceLabel: "low",
	}
}

func TestDemotionSearchText(t *testing.T) {
	c := classifiedRow("k1", "Pilot Grant", "Annual Report 2025", model.FundingUnclear)
	text := demotionSearchText(c)
	assert.Contains(t, text, "pilot grant")
	assert.Contains(t, text, "annual report 2025")
}

func TestDemote(t *testing.T) {
	p, deps := newTestPipeline(t)
	ctx := context.Background()

	require.NoError(t, deps.store.AppendClassified(ctx, []model.ClassificationRecord{
		classifiedRow("k1", "Past Recipients of the Pilot Grant", "Meet last year's winners.", model.FundingUnclear),
		classifiedRow("k2", "Pilot Research Grant", "Funds early-stage projects.", model.FundingUnclear),
		classifiedRow("k3", "Annual Report", "Our annual report highlights.", model.FundingYes),
	}))

	require.NoError(t, p.Demote(ctx))

	got, err := deps.store.ListDemoted(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)

	// Unclear + retrospective content is demoted with the rule recorded.
	assert.Equal(t, model.FundingNo, got[0].IsRealFunding)
	assert.True(t, got[0].RuleDemoted)
	assert.Equal(t, rules.DemoteReason("past_recipients"), got[0].RuleDemoteReason)

	// Unclear without a retrospective signal is left alone.
	assert.Equal(t, model.FundingUnclear, got[1].IsRealFunding)
	assert.False(t, got[1].RuleDemoted)

	// Non-unclear verdicts are never touched, even with matching text.
	assert.Equal(t, model.FundingYes, got[2].IsRealFunding)
	assert.False(t, got[2].RuleDemoted)
}

func TestDemoteIsIdempotent(t *testing.T) {
	p, deps := newTestPipeline(t)
	ctx := context.Background()

	require.NoError(t, deps.store.AppendClassified(ctx, []model.ClassificationRecord{
		classifiedRow("k1", "Grant Recipients 2025", "", model.FundingUnclear),
		classifiedRow("k2", "Pilot Research Grant", "Funds early-stage projects.", model.FundingUnclear),
	}))

	require.NoError(t, p.Demote(ctx))
	first, err := deps.store.ListDemoted(ctx)
	require.NoError(t, err)

	require.NoError(t, p.Demote(ctx))
	second, err := deps.store.ListDemoted(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestDemoteSkipsAlreadyDemotedRows(t *testing.T) {
	p, deps := newTestPipeline(t)
	ctx := context.Background()

	// An unclear row carrying a demotion mark from an earlier pass keeps its
	// original rule attribution.
	prior := classifiedRow("k1", "Grant Recipients 2025", "", model.FundingUnclear)
	prior.RuleDemoted = true
	prior.RuleDemoteReason = "earlier pass"
	require.NoError(t, deps.store.AppendClassified(ctx, []model.ClassificationRecord{prior}))

	require.NoError(t, p.Demote(ctx))

	got, err := deps.store.ListDemoted(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, model.FundingUnclear, got[0].IsRealFunding)
	assert.Equal(t, "earlier pass", got[0].RuleDemoteReason)
}
