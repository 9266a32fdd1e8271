package pipeline

import (
	"context"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/beehive-research/foundation-scout/internal/model"
	"github.com/beehive-research/foundation-scout/internal/rules"
)

// scoreRow ranks duplicate rows so the most complete one survives: extraction
// confidence dominates, then presence of deadline and amount, then keyword
// count, then summary and evidence length.
func scoreRow(o model.Opportunity) int {
	confScore := o.Confidence.Weight()

	hasDeadline := 0
	if strings.TrimSpace(o.DeadlineText) != "" {
		hasDeadline = 1
	}
	hasAmount := 0
	if strings.TrimSpace(o.AwardAmountText) != "" {
		hasAmount = 1
	}

	kwCount := 0
	if joined := strings.TrimSpace(o.KeywordsJoined()); joined != "" {
		kwCount = len(strings.Split(joined, "|"))
	}

	summaryLen := len(strings.TrimSpace(o.Summary))
	evidenceLen := len(strings.TrimSpace(o.EvidenceJoined()))

	return confScore*1000 + (hasDeadline+hasAmount)*100 + kwCount*5 + summaryLen/50 + evidenceLen/50
}

// dedupe keeps, for each dedupe key, the highest-scoring row. Ties keep the
// first row in input order. Error audit rows (failed extractions) are not
// opportunities and are excluded.
func dedupe(opps []model.Opportunity) []model.ResolvedOpportunity {
	byKey := map[string]int{}
	var out []model.ResolvedOpportunity

	for _, o := range opps {
		if o.Error != "" {
			continue
		}
		key := model.DedupeKey(o)
		score := scoreRow(o)

		if idx, ok := byKey[key]; ok {
			if score > out[idx].RowScore {
				out[idx] = model.ResolvedOpportunity{Opportunity: o, DedupeKey: key, RowScore: score}
			}
			continue
		}
		byKey[key] = len(out)
		out = append(out, model.ResolvedOpportunity{Opportunity: o, DedupeKey: key, RowScore: score})
	}

	return out
}

// Resolve deduplicates the raw opportunity rows and resolves the eligibility
// flag for each survivor. Rows resolved to "no" are dropped outright;
// "review" rows stay for human spot-checking.
func (p *Pipeline) Resolve(ctx context.Context) error {
	opps, err := p.store.ListOpportunities(ctx)
	if err != nil {
		return err
	}
	if len(opps) == 0 {
		return eris.New("pipeline: no opportunities; run extract first")
	}

	resolved := dedupe(opps)
	deduped := len(resolved)

	kept := resolved[:0]
	var droppedNo int
	for _, r := range resolved {
		r.EligibleFlag = rules.ResolveEligibility(r.EligibilityUS, r.EligibilityText)
		if r.EligibleFlag == model.EligibilityNo {
			droppedNo++
			continue
		}
		kept = append(kept, r)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		a, b := kept[i], kept[j]
		if a.FoundationID != b.FoundationID {
			return a.FoundationID < b.FoundationID
		}
		if a.FoundationName != b.FoundationName {
			return a.FoundationName < b.FoundationName
		}
		return a.Name < b.Name
	})

	if err := p.store.ReplaceResolved(ctx, kept); err != nil {
		return err
	}

	logCounts("resolve",
		zap.Int("raw_rows", len(opps)),
		zap.Int("deduped", deduped),
		zap.Int("dropped_ineligible", droppedNo),
		zap.Int("resolved", len(kept)),
	)
	return nil
}
