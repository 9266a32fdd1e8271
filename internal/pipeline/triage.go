package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/beehive-research/foundation-scout/internal/model"
	"github.com/beehive-research/foundation-scout/internal/rules"
)

// Triage classifies every fetched page as likely-funding or not and replaces
// the triage table. A page that fails to load from the page store still gets
// a row, so downstream counts always add up to the fetched total.
func (p *Pipeline) Triage(ctx context.Context) error {
	foundations, err := p.store.ListFoundations(ctx)
	if err != nil {
		return err
	}

	var (
		results []model.TriageResult
		likely  int
	)

	for _, f := range foundations {
		keys, err := p.pages.ListKeys(f.ID)
		if err != nil {
			return err
		}

		for _, key := range keys {
			page, err := p.pages.Load(f.ID, key)
			if err != nil {
				results = append(results, model.TriageResult{
					FoundationID: f.ID,
					PageKey:      key,
					Reason:       "json_read_error",
					Error:        err.Error(),
				})
				continue
			}

			url := page.FinalURL
			if url == "" {
				url = page.URL
			}

			keep, reason := rules.Triage(url, page.ContentType, page.ExtractedText)
			if keep {
				likely++
			}

			results = append(results, model.TriageResult{
				FoundationID:   page.FoundationID,
				FoundationName: page.FoundationName,
				PageKey:        key,
				URL:            url,
				ContentType:    page.ContentType,
				HTTPStatus:     page.HTTPStatus,
				TextLen:        len(page.ExtractedText),
				LikelyFunding:  keep,
				Reason:         reason,
				Error:          page.Error,
			})
		}
	}

	if len(results) == 0 {
		return eris.New("pipeline: no fetched pages to triage; run fetch first")
	}

	if err := p.store.ReplaceTriageResults(ctx, results); err != nil {
		return err
	}

	logCounts("triage",
		zap.Int("pages", len(results)),
		zap.Int("likely_funding", likely),
	)
	return nil
}
