package pipeline

import (
	"context"
	"regexp"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/beehive-research/foundation-scout/internal/model"
)

// skipURLPatterns filter obvious junk before fetching: social networks and
// site chrome (donate/contact/news/login pages) that never carry opportunity
// detail.
var skipURLPatterns = compilePatterns([]string{
	`facebook\.com`, `twitter\.com`, `x\.com`, `instagram\.com`, `linkedin\.com`,
	`youtube\.com`, `youtu\.be`,
	`/donate`, `/giving`, `/support`, `/privacy`, `/terms`, `/cookie`,
	`/contact`, `/about`, `/staff`, `/team`, `/news`, `/press`, `/blog`,
	`/login`, `/signin`, `/sign-in`, `/account`,
})

func compilePatterns(pats []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(pats))
	for i, p := range pats {
		out[i] = regexp.MustCompile(`(?i)` + p)
	}
	return out
}

func shouldSkipURL(url string) bool {
	for _, re := range skipURLPatterns {
		if re.MatchString(url) {
			return true
		}
	}
	return false
}

// FetchPages fetches and extracts candidate page text, writing one JSON
// document per page. URLs are filtered through the skip patterns, capped per
// foundation by result rank, and pages fetched on a previous run are left
// untouched so the stage is resumable.
func (p *Pipeline) FetchPages(ctx context.Context) error {
	candidates, err := p.store.ListCandidatePages(ctx)
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		return eris.New("pipeline: no candidate pages; run discover first")
	}

	var usable []model.CandidatePage
	for _, c := range candidates {
		if c.URL == "" || shouldSkipURL(c.URL) {
			continue
		}
		usable = append(usable, c)
	}

	// Top N per foundation by result rank, ties broken by URL so the cap is
	// deterministic.
	sort.SliceStable(usable, func(i, j int) bool {
		a, b := usable[i], usable[j]
		if a.FoundationID != b.FoundationID {
			return a.FoundationID < b.FoundationID
		}
		if a.ResultRank != b.ResultRank {
			return a.ResultRank < b.ResultRank
		}
		return a.URL < b.URL
	})

	maxPerFoundation := p.cfg.Fetch.MaxURLsPerFoundation
	perFoundation := map[string]int{}
	var attempted, fetched, skipped, errored int

	for _, c := range usable {
		if perFoundation[c.FoundationID] >= maxPerFoundation {
			continue
		}
		perFoundation[c.FoundationID]++
		attempted++

		key := model.PageKey(c.URL)
		if p.pages.Exists(c.FoundationID, key) {
			skipped++
			continue
		}

		page := model.FetchedPage{
			FoundationID:   c.FoundationID,
			FoundationName: c.FoundationName,
			URL:            c.URL,
			FetchedAt:      time.Now().UTC(),
		}

		result, err := p.fetcher.Fetch(ctx, c.URL)
		if err != nil {
			if ctx.Err() != nil {
				return eris.Wrap(ctx.Err(), "pipeline: fetch cancelled")
			}
			page.Error = err.Error()
			errored++
		} else {
			page.HTTPStatus = result.HTTPStatus
			page.FinalURL = result.FinalURL
			page.ContentType = result.ContentType
			page.Title = result.Title
			page.ExtractedText = result.ExtractedText
			page.Error = result.Error
			if result.Error != "" {
				errored++
			}
		}

		if err := p.pages.Save(page); err != nil {
			return err
		}
		fetched++
	}

	logCounts("fetch",
		zap.Int("candidates", len(candidates)),
		zap.Int("after_filter", len(usable)),
		zap.Int("after_cap", attempted),
		zap.Int("fetched", fetched),
		zap.Int("already_fetched", skipped),
		zap.Int("errored", errored),
	)
	return nil
}
