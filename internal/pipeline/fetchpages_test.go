package pipeline

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/beehive-research/foundation-scout/internal/model"
	"github.com/beehive-research/foundation-scout/pkg/pagetext"
)

func TestShouldSkipURL(t *testing.T) {
	skip := []string{
		"https://www.facebook.com/alphafdn",
		"https://twitter.com/alphafdn",
		"https://alpha.org/donate",
		"https://alpha.org/About/Staff",
		"https://alpha.org/news/2026",
		"https://alpha.org/login",
	}
	for _, u := range skip {
		assert.True(t, shouldSkipURL(u), "expected skip: %s", u)
	}

	keep := []string{
		"https://alpha.org/grants",
		"https://alpha.org/apply-for-funding",
		"https://alpha.org/rfp/2026-guidelines.pdf",
	}
	for _, u := range keep {
		assert.False(t, shouldSkipURL(u), "expected keep: %s", u)
	}
}

func TestFetchPages(t *testing.T) {
	p, deps := newTestPipeline(t)
	ctx := context.Background()

	require.NoError(t, deps.store.ReplaceCandidatePages(ctx, []model.CandidatePage{
		{FoundationID: "F001", FoundationName: "Alpha Foundation", ResultRank: 1, URL: "https://alpha.org/grants"},
		{FoundationID: "F001", FoundationName: "Alpha Foundation", ResultRank: 2, URL: "https://facebook.com/alphafdn"},
		{FoundationID: "F001", FoundationName: "Alpha Foundation", ResultRank: 3, URL: "https://alpha.org/rfp.pdf"},
		{FoundationID: "F001", FoundationName: "Alpha Foundation", ResultRank: 4, URL: ""},
	}))

	deps.fetcher.fetchFn = func(ctx context.Context, rawURL string) (*pagetext.Result, error) {
		return &pagetext.Result{
			HTTPStatus:    200,
			FinalURL:      rawURL,
			ContentType:   "text/html",
			ExtractedText: "grant application deadline",
		}, nil
	}

	require.NoError(t, p.FetchPages(ctx))

	// Social and empty URLs never reach the fetcher.
	assert.Equal(t, []string{"https://alpha.org/grants", "https://alpha.org/rfp.pdf"}, deps.fetcher.urls)

	keys, err := deps.pages.ListKeys("F001")
	require.NoError(t, err)
	assert.Len(t, keys, 2)

	page, err := deps.pages.Load("F001", model.PageKey("https://alpha.org/grants"))
	require.NoError(t, err)
	assert.Equal(t, 200, page.HTTPStatus)
	assert.Equal(t, "grant application deadline", page.ExtractedText)
}

func TestFetchPagesCapPerFoundation(t *testing.T) {
	p, deps := newTestPipeline(t)
	ctx := context.Background()
	deps.cfg.Fetch.MaxURLsPerFoundation = 2

	var candidates []model.CandidatePage
	for i := 1; i <= 5; i++ {
		candidates = append(candidates, model.CandidatePage{
			FoundationID: "F001",
			ResultRank:   i,
			URL:          fmt.Sprintf("https://alpha.org/grants/%d", i),
		})
	}
	require.NoError(t, deps.store.ReplaceCandidatePages(ctx, candidates))

	deps.fetcher.fetchFn = func(ctx context.Context, rawURL string) (*pagetext.Result, error) {
		return &pagetext.Result{HTTPStatus: 200, FinalURL: rawURL}, nil
	}

	core, logs := observer.New(zap.InfoLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	require.NoError(t, p.FetchPages(ctx))

	// Cap keeps the best-ranked URLs.
	assert.Equal(t, []string{
		"https://alpha.org/grants/1",
		"https://alpha.org/grants/2",
	}, deps.fetcher.urls)

	// The summary reports the filtered and capped counts separately.
	entries := logs.FilterMessage("fetch: done").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.EqualValues(t, 5, fields["after_filter"])
	assert.EqualValues(t, 2, fields["after_cap"])
}

func TestFetchPagesSkipsAlreadyFetched(t *testing.T) {
	p, deps := newTestPipeline(t)
	ctx := context.Background()

	require.NoError(t, deps.store.ReplaceCandidatePages(ctx, []model.CandidatePage{
		{FoundationID: "F001", ResultRank: 1, URL: "https://alpha.org/grants"},
		{FoundationID: "F001", ResultRank: 2, URL: "https://alpha.org/fellowships"},
	}))

	// First URL already has an artifact from a previous run.
	require.NoError(t, deps.pages.Save(model.FetchedPage{
		FoundationID: "F001",
		URL:          "https://alpha.org/grants",
		HTTPStatus:   200,
	}))

	deps.fetcher.fetchFn = func(ctx context.Context, rawURL string) (*pagetext.Result, error) {
		return &pagetext.Result{HTTPStatus: 200, FinalURL: rawURL}, nil
	}

	require.NoError(t, p.FetchPages(ctx))
	assert.Equal(t, []string{"https://alpha.org/fellowships"}, deps.fetcher.urls)
}

func TestFetchPagesRecordsTransportError(t *testing.T) {
	p, deps := newTestPipeline(t)
	ctx := context.Background()

	require.NoError(t, deps.store.ReplaceCandidatePages(ctx, []model.CandidatePage{
		{FoundationID: "F001", ResultRank: 1, URL: "https://alpha.org/grants"},
	}))

	deps.fetcher.fetchFn = func(ctx context.Context, rawURL string) (*pagetext.Result, error) {
		return &pagetext.Result{HTTPStatus: 503, FinalURL: rawURL, Error: "HTTP 503"}, nil
	}

	require.NoError(t, p.FetchPages(ctx))

	page, err := deps.pages.Load("F001", model.PageKey("https://alpha.org/grants"))
	require.NoError(t, err)
	assert.Equal(t, "HTTP 503", page.Error)
}
