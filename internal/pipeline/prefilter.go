package pipeline

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/beehive-research/foundation-scout/internal/model"
	"github.com/beehive-research/foundation-scout/internal/rules"
)

// Prefilter runs the deterministic drop rules over the resolved rows before
// any LLM classification is paid for. Dropped rows are persisted alongside
// kept ones so every drop decision stays auditable.
func (p *Pipeline) Prefilter(ctx context.Context) error {
	resolved, err := p.store.ListResolved(ctx)
	if err != nil {
		return err
	}
	if len(resolved) == 0 {
		return eris.New("pipeline: no resolved opportunities; run resolve first")
	}

	results := make([]model.PrefilterResult, 0, len(resolved))
	var kept int

	for _, r := range resolved {
		blob := model.NormalizeBlob(strings.Join([]string{
			r.Name, r.Summary, r.EligibilityText,
			r.DeadlineText, r.AwardAmountText, r.EvidenceJoined(),
		}, " "))

		keep, reason := rules.Prefilter(rules.PrefilterInput{
			Name:     model.NormalizeBlob(r.Name),
			URLs:     model.NormalizeBlob(r.SourceURL + " " + r.URL),
			Blob:     blob,
			Deadline: model.NormalizeBlob(r.DeadlineText),
			Amount:   model.NormalizeBlob(r.AwardAmountText),
		})
		if keep {
			kept++
		}

		results = append(results, model.PrefilterResult{
			ResolvedOpportunity: r,
			Keep:                keep,
			Reason:              reason,
		})
	}

	if err := p.store.ReplacePrefiltered(ctx, results); err != nil {
		return err
	}

	logCounts("prefilter",
		zap.Int("input_rows", len(resolved)),
		zap.Int("kept", kept),
		zap.Int("dropped", len(resolved)-kept),
	)
	return nil
}
