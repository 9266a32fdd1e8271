package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beehive-research/foundation-scout/internal/checkpoint"
	"github.com/beehive-research/foundation-scout/internal/model"
	"github.com/beehive-research/foundation-scout/pkg/anthropic"
)

func TestTruncateText(t *testing.T) {
	assert.Equal(t, "short", truncateText("short", 100))

	long := strings.Repeat("a", 150)
	got := truncateText(long, 100)
	assert.True(t, strings.HasSuffix(got, "\n\n[TRUNCATED]"))
	assert.Equal(t, long[:100], strings.TrimSuffix(got, "\n\n[TRUNCATED]"))
}

func TestCleanJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain object", `{"a": 1}`, `{"a": 1}`},
		{"json fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"bare fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"surrounding prose", `Here is the result: {"a": 1} Hope that helps!`, `{"a": 1}`},
		{"no json at all", "sorry, cannot comply", "sorry, cannot comply"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanJSON(tt.in))
		})
	}
}

func seedSelectedPages(t *testing.T, deps *testDeps, urls ...string) {
	t.Helper()
	ctx := context.Background()

	var selected []model.TriageResult
	for _, u := range urls {
		require.NoError(t, deps.pages.Save(model.FetchedPage{
			FoundationID:   "F001",
			FoundationName: "Alpha Foundation",
			URL:            u,
			ContentType:    "text/html",
			ExtractedText:  "The Pilot Research Grant funds early-stage projects. Apply by March 1.",
		}))
		selected = append(selected, model.TriageResult{
			FoundationID:   "F001",
			FoundationName: "Alpha Foundation",
			PageKey:        model.PageKey(u),
			URL:            u,
			LikelyFunding:  true,
			Reason:         "url_good",
		})
	}
	require.NoError(t, deps.store.ReplaceSelectedPages(ctx, selected))
}

const extractReply = `{
	"is_funding_related": true,
	"opportunities": [{
		"opportunity_name": "Pilot Research Grant",
		"opportunity_url": "https://alpha.org/grants/pilot",
		"opportunity_type": "research",
		"eligibility_us": "yes",
		"eligibility_text": "Open to US institutions",
		"deadline_text": "March 1, 2026",
		"award_amount_text": "$50,000",
		"keywords_phrases": ["pilot", "research"],
		"summary_1_2_sentences": "Seed funding for early-stage research.",
		"evidence_snippets": ["Apply by March 1"],
		"confidence": "high"
	}]
}`

func TestExtract(t *testing.T) {
	p, deps := newTestPipeline(t)
	ctx := context.Background()

	seedSelectedPages(t, deps, "https://alpha.org/grants")
	deps.ai.createFn = func(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
		assert.Equal(t, int64(2048), req.MaxTokens)
		assert.Contains(t, req.Messages[0].Content, "Alpha Foundation")
		assert.Contains(t, req.Messages[0].Content, "Pilot Research Grant funds")
		return textResponse(extractReply), nil
	}

	processed := checkpoint.NewMemorySet()
	require.NoError(t, p.Extract(ctx, processed))

	rows, err := deps.store.ListOpportunities(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	got := rows[0]
	assert.Equal(t, "F001", got.FoundationID)
	assert.Equal(t, "https://alpha.org/grants", got.SourceURL)
	assert.Equal(t, "Pilot Research Grant", got.Name)
	assert.Equal(t, model.OpportunityTypeResearch, got.Type)
	assert.Equal(t, model.TernaryYes, got.EligibilityUS)
	assert.Equal(t, model.ConfidenceHigh, got.Confidence)
	assert.Equal(t, []string{"pilot", "research"}, got.Keywords)

	assert.Equal(t, 1, processed.Len())
}

func TestExtractResumesFromCheckpoint(t *testing.T) {
	p, deps := newTestPipeline(t)
	ctx := context.Background()

	urls := []string{
		"https://alpha.org/grants",
		"https://alpha.org/fellowships",
		"https://alpha.org/awards",
	}
	seedSelectedPages(t, deps, urls...)

	deps.ai.createFn = func(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
		return textResponse(`{"is_funding_related": false, "opportunities": []}`), nil
	}

	// Two of three pages were handled by a previous run.
	processed := checkpoint.NewMemorySet()
	require.NoError(t, processed.Record(pageUnitID("F001", model.PageKey(urls[0]))))
	require.NoError(t, processed.Record(pageUnitID("F001", model.PageKey(urls[1]))))

	require.NoError(t, p.Extract(ctx, processed))
	assert.Equal(t, 1, deps.ai.calls)
	assert.Equal(t, 3, processed.Len())
}

func TestExtractFailureWritesErrorRow(t *testing.T) {
	p, deps := newTestPipeline(t)
	ctx := context.Background()

	seedSelectedPages(t, deps, "https://alpha.org/grants")
	deps.ai.createFn = func(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
		return nil, errors.New("overloaded")
	}

	processed := checkpoint.NewMemorySet()
	require.NoError(t, p.Extract(ctx, processed))

	// The failed page is recorded so a rerun does not retry it, and an audit
	// row with Error set marks the failure.
	assert.Equal(t, 1, processed.Len())
	rows, err := deps.store.ListOpportunities(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "F001", rows[0].FoundationID)
	assert.Equal(t, "Alpha Foundation", rows[0].FoundationName)
	assert.Equal(t, "https://alpha.org/grants", rows[0].SourceURL)
	assert.Equal(t, "overloaded", rows[0].Error)
	assert.Empty(t, rows[0].Name)
}

func TestExtractMissingArtifactIsRecorded(t *testing.T) {
	p, deps := newTestPipeline(t)
	ctx := context.Background()

	// Selected page with no saved artifact behind it.
	require.NoError(t, deps.store.ReplaceSelectedPages(ctx, []model.TriageResult{
		{FoundationID: "F001", PageKey: "deadbeef0000", URL: "https://alpha.org/gone", LikelyFunding: true},
	}))

	processed := checkpoint.NewMemorySet()
	require.NoError(t, p.Extract(ctx, processed))

	assert.Zero(t, deps.ai.calls)
	assert.True(t, processed.Contains(pageUnitID("F001", "deadbeef0000")))

	rows, err := deps.store.ListOpportunities(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "https://alpha.org/gone", rows[0].SourceURL)
	assert.NotEmpty(t, rows[0].Error)
}

func TestExtractFlushesInBatches(t *testing.T) {
	p, deps := newTestPipeline(t)
	ctx := context.Background()
	deps.cfg.Extract.BatchSize = 1

	seedSelectedPages(t, deps,
		"https://alpha.org/grants",
		"https://alpha.org/fellowships",
	)
	deps.ai.createFn = func(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
		return textResponse(extractReply), nil
	}

	require.NoError(t, p.Extract(ctx, checkpoint.NewMemorySet()))

	rows, err := deps.store.ListOpportunities(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}
