// Package store persists every pipeline stage's output as a durable table, so
// any stage can be rerun independently given the prior stage's output.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/beehive-research/foundation-scout/internal/model"
)

// Stage names used for count reporting.
const (
	StageFoundations    = "foundations"
	StageCandidatePages = "candidate_pages"
	StageTriage         = "page_triage"
	StageSelected       = "llm_input_pages"
	StageOpportunities  = "opportunities"
	StageResolved       = "resolved_opportunities"
	StagePrefiltered    = "prefiltered_opportunities"
	StageClassified     = "classified_opportunities"
	StageDemoted        = "demoted_opportunities"
)

// Stages lists all stage tables in pipeline order.
func Stages() []string {
	return []string{
		StageFoundations,
		StageCandidatePages,
		StageTriage,
		StageSelected,
		StageOpportunities,
		StageResolved,
		StagePrefiltered,
		StageClassified,
		StageDemoted,
	}
}

// Store defines the persistence interface for the pipeline's stage tables.
// List operations return rows in stable insertion order.
type Store interface {
	// Foundations
	ReplaceFoundations(ctx context.Context, rows []model.Foundation) error
	ListFoundations(ctx context.Context) ([]model.Foundation, error)

	// Candidate pages (search discovery output)
	ReplaceCandidatePages(ctx context.Context, rows []model.CandidatePage) error
	ListCandidatePages(ctx context.Context) ([]model.CandidatePage, error)

	// Triage results
	ReplaceTriageResults(ctx context.Context, rows []model.TriageResult) error
	ListTriageResults(ctx context.Context) ([]model.TriageResult, error)

	// Selected pages (bounded LLM input set)
	ReplaceSelectedPages(ctx context.Context, rows []model.TriageResult) error
	ListSelectedPages(ctx context.Context) ([]model.TriageResult, error)

	// Raw extracted opportunities; append-only so batch flushes and resumed
	// runs accumulate into one table.
	AppendOpportunities(ctx context.Context, rows []model.Opportunity) error
	ListOpportunities(ctx context.Context) ([]model.Opportunity, error)

	// Resolved (deduped + eligibility-annotated) opportunities
	ReplaceResolved(ctx context.Context, rows []model.ResolvedOpportunity) error
	ListResolved(ctx context.Context) ([]model.ResolvedOpportunity, error)

	// Prefilter output. Kept and dropped rows live in one table distinguished
	// by the keep flag; dropped rows form the audit trail.
	ReplacePrefiltered(ctx context.Context, rows []model.PrefilterResult) error
	ListPrefiltered(ctx context.Context, keptOnly bool) ([]model.PrefilterResult, error)

	// Classified rows; append-only, doubling as the classifier checkpoint.
	AppendClassified(ctx context.Context, rows []model.ClassificationRecord) error
	ListClassified(ctx context.Context) ([]model.ClassificationRecord, error)
	ClassifiedKeys(ctx context.Context) (map[string]bool, error)
	CountClassified(ctx context.Context) (int, error)

	// Demotion pass output
	ReplaceDemoted(ctx context.Context, rows []model.ClassificationRecord) error
	ListDemoted(ctx context.Context) ([]model.ClassificationRecord, error)

	// StageCounts reports the row count of every stage table.
	StageCounts(ctx context.Context) (map[string]int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open constructs a Store for the configured driver.
func Open(ctx context.Context, driver, databaseURL string) (Store, error) {
	switch driver {
	case "sqlite", "":
		return NewSQLite(databaseURL)
	case "postgres":
		return NewPostgres(ctx, databaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
}
