// Package pipeline orchestrates the foundation funding opportunity stages:
// search discovery, page fetch, triage, selection, structured extraction,
// dedup/eligibility resolution, prefilter, classification, and demotion.
// Stages run sequentially; each reads the prior stage's table and writes its
// own, so any stage can be rerun in isolation.
package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/beehive-research/foundation-scout/internal/config"
	"github.com/beehive-research/foundation-scout/internal/pagestore"
	"github.com/beehive-research/foundation-scout/internal/store"
	"github.com/beehive-research/foundation-scout/pkg/anthropic"
	"github.com/beehive-research/foundation-scout/pkg/pagetext"
	"github.com/beehive-research/foundation-scout/pkg/serpapi"
)

// Pipeline wires the stage implementations to their collaborators.
type Pipeline struct {
	cfg       *config.Config
	store     store.Store
	search    serpapi.Client
	fetcher   pagetext.Fetcher
	anthropic anthropic.Client
	pages     *pagestore.Store
}

// New creates a Pipeline with all dependencies.
func New(
	cfg *config.Config,
	st store.Store,
	search serpapi.Client,
	fetcher pagetext.Fetcher,
	aiClient anthropic.Client,
	pages *pagestore.Store,
) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		store:     st,
		search:    search,
		fetcher:   fetcher,
		anthropic: aiClient,
		pages:     pages,
	}
}

// StageCounts reports per-stage row counts for the status command.
func (p *Pipeline) StageCounts(ctx context.Context) (map[string]int, error) {
	return p.store.StageCounts(ctx)
}

func logCounts(stage string, fields ...zap.Field) {
	zap.L().Info(stage+": done", fields...)
}
