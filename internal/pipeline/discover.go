package pipeline

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/beehive-research/foundation-scout/internal/model"
)

// queryTemplates are the site-restricted searches run per foundation domain.
// Order matters: general funding pages first, then application/deadline
// pages, then PDFs where the real details often live.
var queryTemplates = []string{
	`site:{domain} (grant OR grants OR funding OR "request for proposals" OR RFP OR award OR fellowship)`,
	`site:{domain} (apply OR application OR "letter of intent" OR LOI OR deadline)`,
	`site:{domain} filetype:pdf (grant OR RFP OR guidelines OR application OR deadline)`,
}

// Discover runs the search queries for every foundation with a usable domain
// and replaces the candidate pages table. Results are deduplicated on
// (foundation, url); a failed query produces a single error row so the gap
// stays visible.
func (p *Pipeline) Discover(ctx context.Context) error {
	foundations, err := p.store.ListFoundations(ctx)
	if err != nil {
		return err
	}
	if len(foundations) == 0 {
		return eris.New("pipeline: no foundations loaded; run ids first")
	}

	var (
		rows    []model.CandidatePage
		seen    = map[[2]string]bool{}
		errored int
	)

	for _, f := range foundations {
		if f.Domain == "" {
			zap.L().Warn("discover: foundation has no domain", zap.String("foundation_id", f.ID))
			continue
		}

		for _, tmpl := range queryTemplates {
			query := strings.ReplaceAll(tmpl, "{domain}", f.Domain)

			results, err := p.search.Search(ctx, query, p.cfg.SerpAPI.ResultsPerQuery)
			if err != nil {
				if ctx.Err() != nil {
					return eris.Wrap(ctx.Err(), "pipeline: discover cancelled")
				}
				errored++
				zap.L().Warn("discover: query failed",
					zap.String("foundation_id", f.ID),
					zap.String("query", query),
					zap.Error(err),
				)
				rows = append(rows, model.CandidatePage{
					FoundationID:   f.ID,
					FoundationName: f.Name,
					Domain:         f.Domain,
					Query:          query,
					Error:          err.Error(),
				})
				continue
			}

			for _, r := range results {
				if r.Link == "" || seen[[2]string{f.ID, r.Link}] {
					continue
				}
				seen[[2]string{f.ID, r.Link}] = true

				rows = append(rows, model.CandidatePage{
					FoundationID:   f.ID,
					FoundationName: f.Name,
					Domain:         f.Domain,
					Query:          query,
					ResultRank:     r.Position,
					Title:          r.Title,
					Snippet:        r.Snippet,
					URL:            r.Link,
				})
			}
		}
	}

	if err := p.store.ReplaceCandidatePages(ctx, rows); err != nil {
		return err
	}

	logCounts("discover",
		zap.Int("foundations", len(foundations)),
		zap.Int("candidate_rows", len(rows)),
		zap.Int("unique_urls", len(seen)),
		zap.Int("failed_queries", errored),
	)
	return nil
}
