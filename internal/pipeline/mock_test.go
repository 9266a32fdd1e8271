package pipeline

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/beehive-research/foundation-scout/internal/config"
	"github.com/beehive-research/foundation-scout/internal/pagestore"
	"github.com/beehive-research/foundation-scout/internal/store"
	"github.com/beehive-research/foundation-scout/pkg/anthropic"
	"github.com/beehive-research/foundation-scout/pkg/pagetext"
	"github.com/beehive-research/foundation-scout/pkg/serpapi"
)

type mockSearch struct {
	searchFn func(ctx context.Context, query string, num int) ([]serpapi.OrganicResult, error)
	queries  []string
}

func (m *mockSearch) Search(ctx context.Context, query string, num int) ([]serpapi.OrganicResult, error) {
	m.queries = append(m.queries, query)
	return m.searchFn(ctx, query, num)
}

type mockFetcher struct {
	fetchFn func(ctx context.Context, rawURL string) (*pagetext.Result, error)
	urls    []string
}

func (m *mockFetcher) Fetch(ctx context.Context, rawURL string) (*pagetext.Result, error) {
	m.urls = append(m.urls, rawURL)
	return m.fetchFn(ctx, rawURL)
}

type mockAnthropic struct {
	createFn func(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error)
	calls    int
	requests []anthropic.MessageRequest
}

func (m *mockAnthropic) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	m.calls++
	m.requests = append(m.requests, req)
	return m.createFn(ctx, req)
}

// textResponse wraps a raw model reply in a MessageResponse.
func textResponse(text string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: text}},
		Usage:   anthropic.TokenUsage{InputTokens: 100, OutputTokens: 50},
	}
}

func testConfig() *config.Config {
	return &config.Config{
		SerpAPI: config.SerpAPIConfig{ResultsPerQuery: 10},
		Fetch:   config.FetchConfig{MaxURLsPerFoundation: 25},
		Select: config.SelectConfig{
			MaxPDFsPerFoundation: 4,
			MaxHTMLPerFoundation: 4,
		},
		Anthropic: config.AnthropicConfig{
			ExtractModel:   "claude-haiku-4-5-20251001",
			ClassifyModel:  "claude-haiku-4-5-20251001",
			MaxTokens:      2048,
			RetryAttempts:  2,
			RetryMinWaitMS: 1,
			RetryMaxWaitMS: 2,
		},
		Extract:  config.ExtractConfig{MaxChars: 18000, BatchSize: 25},
		Classify: config.ClassifyConfig{SaveEvery: 25},
	}
}

type testDeps struct {
	cfg     *config.Config
	store   store.Store
	search  *mockSearch
	fetcher *mockFetcher
	ai      *mockAnthropic
	pages   *pagestore.Store
}

func newTestPipeline(t *testing.T) (*Pipeline, *testDeps) {
	t.Helper()

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "scout.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))

	deps := &testDeps{
		cfg:     testConfig(),
		store:   st,
		search:  &mockSearch{},
		fetcher: &mockFetcher{},
		ai:      &mockAnthropic{},
		pages:   pagestore.New(t.TempDir()),
	}
	p := New(deps.cfg, deps.store, deps.search, deps.fetcher, deps.ai, deps.pages)
	return p, deps
}
