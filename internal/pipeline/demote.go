package pipeline

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/beehive-research/foundation-scout/internal/model"
	"github.com/beehive-research/foundation-scout/internal/rules"
)

// demotionSearchText concatenates the high-signal row fields the demotion
// patterns are matched against.
func demotionSearchText(c model.ClassificationRecord) string {
	fields := []string{
		c.Name, c.Summary, c.EvidenceJoined(), c.AwardAmountText,
		c.DeadlineText, c.EligibilityText, c.URL, c.SourceURL,
	}
	var parts []string
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			parts = append(parts, f)
		}
	}
	return strings.ToLower(strings.Join(parts, "\n"))
}

// Demote applies the retrospective-content rules to classified rows still
// labeled unclear, demoting first matches to "no". Rows already demoted keep
// their verdict and rule name, so rerunning the pass changes nothing.
func (p *Pipeline) Demote(ctx context.Context) error {
	classified, err := p.store.ListClassified(ctx)
	if err != nil {
		return err
	}
	if len(classified) == 0 {
		return eris.New("pipeline: no classified opportunities; run classify first")
	}

	var unclear, demoted int
	out := make([]model.ClassificationRecord, 0, len(classified))

	for _, c := range classified {
		if c.IsRealFunding == model.FundingUnclear && !c.RuleDemoted {
			unclear++
			if ruleName, ok := rules.MatchDemotion(demotionSearchText(c)); ok {
				c.IsRealFunding = model.FundingNo
				c.ConfidenceLabel = string(model.ConfidenceLow)
				c.RuleDemoted = true
				c.RuleDemoteReason = rules.DemoteReason(ruleName)
				demoted++
			}
		}
		out = append(out, c)
	}

	if err := p.store.ReplaceDemoted(ctx, out); err != nil {
		return err
	}

	logCounts("demote",
		zap.Int("input_rows", len(classified)),
		zap.Int("unclear_rows", unclear),
		zap.Int("demoted", demoted),
	)
	return nil
}
