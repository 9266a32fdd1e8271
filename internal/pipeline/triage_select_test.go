package pipeline

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beehive-research/foundation-scout/internal/model"
)

func TestTriageStage(t *testing.T) {
	p, deps := newTestPipeline(t)
	ctx := context.Background()

	require.NoError(t, deps.store.ReplaceFoundations(ctx, []model.Foundation{
		{ID: "F001", Name: "Alpha Foundation", Domain: "alpha.org"},
	}))

	require.NoError(t, deps.pages.Save(model.FetchedPage{
		FoundationID:   "F001",
		FoundationName: "Alpha Foundation",
		URL:            "https://alpha.org/grants",
		FinalURL:       "https://alpha.org/grants/",
		ContentType:    "text/html",
		HTTPStatus:     200,
		ExtractedText:  strings.Repeat("x", 500),
	}))
	require.NoError(t, deps.pages.Save(model.FetchedPage{
		FoundationID:   "F001",
		FoundationName: "Alpha Foundation",
		URL:            "https://alpha.org/photos",
		ContentType:    "text/html",
		HTTPStatus:     200,
		ExtractedText:  strings.Repeat("nothing relevant here ", 30),
	}))

	require.NoError(t, p.Triage(ctx))

	results, err := deps.store.ListTriageResults(ctx)
	require.NoError(t, err)
	require.Len(t, results, 2)

	byKey := map[string]model.TriageResult{}
	for _, r := range results {
		byKey[r.PageKey] = r
	}

	grants := byKey[model.PageKey("https://alpha.org/grants")]
	assert.True(t, grants.LikelyFunding)
	assert.Equal(t, "url_good", grants.Reason)
	// FinalURL wins over the original URL when set.
	assert.Equal(t, "https://alpha.org/grants/", grants.URL)
	assert.Equal(t, 500, grants.TextLen)

	photos := byKey[model.PageKey("https://alpha.org/photos")]
	assert.False(t, photos.LikelyFunding)
	assert.Equal(t, "no_signal", photos.Reason)
}

func TestSelectPagesCapsAndOrder(t *testing.T) {
	p, deps := newTestPipeline(t)
	ctx := context.Background()
	deps.cfg.Select.MaxPDFsPerFoundation = 1
	deps.cfg.Select.MaxHTMLPerFoundation = 2

	mk := func(i int, ct, reason string, textLen int, likely bool) model.TriageResult {
		return model.TriageResult{
			FoundationID:  "F001",
			PageKey:       fmt.Sprintf("key%02d", i),
			URL:           fmt.Sprintf("https://alpha.org/p%d", i),
			ContentType:   ct,
			TextLen:       textLen,
			LikelyFunding: likely,
			Reason:        reason,
		}
	}
	require.NoError(t, deps.store.ReplaceTriageResults(ctx, []model.TriageResult{
		mk(1, "text/html", "url_good", 1000, true),
		mk(2, "text/html", "text_good_2", 5000, true),
		mk(3, "text/html", "url_good", 3000, true),
		mk(4, "text/html", "text_good_3", 9000, true),
		mk(5, "application/pdf", "pdf", 2000, true),
		mk(6, "application/pdf", "pdf", 8000, true),
		mk(7, "text/html", "no_signal", 100, false),
	}))

	require.NoError(t, p.SelectPages(ctx))

	selected, err := deps.store.ListSelectedPages(ctx)
	require.NoError(t, err)
	require.Len(t, selected, 3)

	// PDFs first (longest text wins the 1-slot cap), then HTML by reason
	// priority and text length.
	assert.Equal(t, "key06", selected[0].PageKey)
	assert.Equal(t, "key03", selected[1].PageKey)
	assert.Equal(t, "key01", selected[2].PageKey)
}

func TestSelectPagesRequiresLikelyFunding(t *testing.T) {
	p, deps := newTestPipeline(t)
	ctx := context.Background()

	require.NoError(t, deps.store.ReplaceTriageResults(ctx, []model.TriageResult{
		{FoundationID: "F001", PageKey: "k1", Reason: "no_signal"},
	}))

	err := p.SelectPages(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no likely-funding pages")
}
