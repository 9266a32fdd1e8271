package main

import (
	"context"
	"net/http"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"

	"github.com/beehive-research/foundation-scout/internal/pagestore"
	"github.com/beehive-research/foundation-scout/internal/pipeline"
	"github.com/beehive-research/foundation-scout/internal/store"
	anthropicpkg "github.com/beehive-research/foundation-scout/pkg/anthropic"
	"github.com/beehive-research/foundation-scout/pkg/pagetext"
	"github.com/beehive-research/foundation-scout/pkg/serpapi"
)

// initStore opens and migrates the stage store.
func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// newPipeline builds the pipeline with all external clients wired from
// config. Stages that never touch a given collaborator simply don't call it.
func newPipeline(st store.Store) *pipeline.Pipeline {
	searchClient := serpapi.NewClient(cfg.SerpAPI.Key,
		serpapi.WithBaseURL(cfg.SerpAPI.BaseURL),
		serpapi.WithRateLimit(cfg.SerpAPI.QueriesPerSec),
	)

	fetcher := pagetext.New(
		pagetext.WithUserAgent(cfg.Fetch.UserAgent),
		pagetext.WithRateLimit(cfg.Fetch.RequestsPerSec),
		pagetext.WithPdfToText(cfg.Fetch.PdfToTextPath),
		pagetext.WithMaxTextChars(cfg.Fetch.MaxTextChars),
		pagetext.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.Fetch.TimeoutSecs) * time.Second}),
	)

	anthropicClient := anthropicpkg.NewClient(cfg.Anthropic.Key)
	pages := pagestore.New(cfg.Paths.PageStoreDir)

	return pipeline.New(cfg, st, searchClient, fetcher, anthropicClient, pages)
}

// dataPath joins a file name onto the configured data directory.
func dataPath(name string) string {
	return filepath.Join(cfg.Paths.DataDir, name)
}
