package pipeline

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/beehive-research/foundation-scout/internal/checkpoint"
	"github.com/beehive-research/foundation-scout/internal/model"
	"github.com/beehive-research/foundation-scout/pkg/anthropic"
)

const extractionSystemPrompt = `You are a careful research assistant extracting funding opportunities from foundation web pages. Use only the page text provided. Do not invent opportunities. Return JSON only, matching the schema exactly.`

const extractionPromptTemplate = `Foundation: <<foundation_name>> (<<foundation_id>>)
Source URL: <<source_url>>

Read the page text below and extract every funding opportunity this foundation offers (grants, fellowships, awards, scholarships, travel funding, pilot funding).

Return JSON with:
- is_funding_related: true if the page describes at least one funding opportunity, else false
- opportunities: list of objects, each with:
  - opportunity_name: official name of the opportunity
  - opportunity_url: most specific URL for it, or ""
  - opportunity_type: one of "research" | "education" | "QI" | "fellowship" | "travel" | "other" | "unclear"
  - eligibility_us: "yes" | "no" | "unclear" (can US-based applicants apply?)
  - eligibility_text: short quote or paraphrase of eligibility requirements
  - deadline_text: deadline as stated in the text, or ""
  - award_amount_text: award amount as stated, or ""
  - keywords_phrases: list of short keywords/phrases describing the opportunity
  - summary_1_2_sentences: 1-2 sentence summary
  - evidence_snippets: list of short verbatim snippets supporting the extraction
  - confidence: "low" | "med" | "high"

If the page is not funding related, return {"is_funding_related": false, "opportunities": []}.

Page text:
<<text>>`

// extractionResult mirrors the fixed response schema.
type extractionResult struct {
	IsFundingRelated bool                   `json:"is_funding_related"`
	Opportunities    []extractedOpportunity `json:"opportunities"`
}

type extractedOpportunity struct {
	OpportunityName  string   `json:"opportunity_name"`
	OpportunityURL   string   `json:"opportunity_url"`
	OpportunityType  string   `json:"opportunity_type"`
	EligibilityUS    string   `json:"eligibility_us"`
	EligibilityText  string   `json:"eligibility_text"`
	DeadlineText     string   `json:"deadline_text"`
	AwardAmountText  string   `json:"award_amount_text"`
	KeywordsPhrases  []string `json:"keywords_phrases"`
	Summary          string   `json:"summary_1_2_sentences"`
	EvidenceSnippets []string `json:"evidence_snippets"`
	Confidence       string   `json:"confidence"`
}

// truncateText caps page text at maxChars, appending a marker so the model
// knows the text was cut.
func truncateText(text string, maxChars int) string {
	if len(text) <= maxChars {
		return text
	}
	return text[:maxChars] + "\n\n[TRUNCATED]"
}

// pageUnitID identifies one selected page in the processed set.
func pageUnitID(foundationID, pageKey string) string {
	return foundationID + "/" + pageKey
}

// errorRow records a failed extraction attempt so the page surfaces for
// audit; downstream dedupe skips rows with Error set.
func errorRow(page model.TriageResult, err error) model.Opportunity {
	return model.Opportunity{
		FoundationID:   page.FoundationID,
		FoundationName: page.FoundationName,
		SourceURL:      page.URL,
		Error:          eris.Cause(err).Error(),
	}
}

// Extract runs structured extraction over the selected pages. Every page is
// marked processed after its attempt, success or failure, so an interrupted
// run resumes where it left off. Extracted rows are appended in batches.
func (p *Pipeline) Extract(ctx context.Context, processed checkpoint.ProcessedSet) error {
	selected, err := p.store.ListSelectedPages(ctx)
	if err != nil {
		return err
	}
	if len(selected) == 0 {
		return eris.New("pipeline: no selected pages; run select first")
	}

	var (
		batch        []model.Opportunity
		usage        anthropic.TokenUsage
		processedNow int
		written      int
		skipped      int
		failed       int
		batchSize    = p.cfg.Extract.BatchSize
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := p.store.AppendOpportunities(ctx, batch); err != nil {
			return err
		}
		written += len(batch)
		batch = nil
		zap.L().Info("extract: batch flushed",
			zap.Int("processed_pages", processedNow),
			zap.Int("rows_written", written),
		)
		return nil
	}

	for _, page := range selected {
		unit := pageUnitID(page.FoundationID, page.PageKey)
		if processed.Contains(unit) {
			skipped++
			continue
		}
		if ctx.Err() != nil {
			return eris.Wrap(ctx.Err(), "pipeline: extract cancelled")
		}

		doc, err := p.pages.Load(page.FoundationID, page.PageKey)
		if err != nil {
			// Missing or unreadable artifact: record the attempt so reruns
			// do not loop on it forever.
			zap.L().Warn("extract: page artifact unreadable",
				zap.String("unit", unit),
				zap.Error(err),
			)
			failed++
			batch = append(batch, errorRow(page, err))
			if err := processed.Record(unit); err != nil {
				return err
			}
			processedNow++
			continue
		}

		rows, pageUsage, err := p.extractPage(ctx, page, doc)
		usage.Add(pageUsage)
		if err != nil {
			if ctx.Err() != nil {
				return eris.Wrap(ctx.Err(), "pipeline: extract cancelled")
			}
			zap.L().Warn("extract: page failed",
				zap.String("unit", unit),
				zap.Error(err),
			)
			failed++
			batch = append(batch, errorRow(page, err))
		} else {
			batch = append(batch, rows...)
		}

		// Mark processed after the attempt, success or failure; the durable
		// record is what makes interruption safe.
		if err := processed.Record(unit); err != nil {
			return err
		}
		processedNow++

		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}

	if err := flush(); err != nil {
		return err
	}

	usage.LogCost(p.cfg.Anthropic.ExtractModel, "extract")
	logCounts("extract",
		zap.Int("selected_pages", len(selected)),
		zap.Int("already_processed", skipped),
		zap.Int("processed_this_run", processedNow),
		zap.Int("failed_pages", failed),
		zap.Int("rows_written", written),
	)
	return nil
}

func (p *Pipeline) extractPage(ctx context.Context, page model.TriageResult, doc model.FetchedPage) ([]model.Opportunity, anthropic.TokenUsage, error) {
	var usage anthropic.TokenUsage

	text := truncateText(doc.ExtractedText, p.cfg.Extract.MaxChars)
	prompt := strings.NewReplacer(
		"<<foundation_name>>", doc.FoundationName,
		"<<foundation_id>>", doc.FoundationID,
		"<<source_url>>", page.URL,
		"<<text>>", text,
	).Replace(extractionPromptTemplate)

	resp, err := p.anthropic.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     p.cfg.Anthropic.ExtractModel,
		MaxTokens: int64(p.cfg.Anthropic.MaxTokens),
		System:    extractionSystemPrompt,
		Messages: []anthropic.Message{
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return nil, usage, eris.Wrap(err, "pipeline: extraction call")
	}
	usage = resp.Usage

	var parsed extractionResult
	if err := json.Unmarshal([]byte(cleanJSON(anthropic.Text(resp))), &parsed); err != nil {
		return nil, usage, eris.Wrap(err, "pipeline: parse extraction response")
	}

	if !parsed.IsFundingRelated || len(parsed.Opportunities) == 0 {
		return nil, usage, nil
	}

	rows := make([]model.Opportunity, 0, len(parsed.Opportunities))
	for _, opp := range parsed.Opportunities {
		rows = append(rows, model.Opportunity{
			FoundationID:    doc.FoundationID,
			FoundationName:  doc.FoundationName,
			SourceURL:       page.URL,
			Name:            opp.OpportunityName,
			URL:             opp.OpportunityURL,
			Type:            model.NormalizeOpportunityType(opp.OpportunityType),
			EligibilityUS:   model.NormalizeTernary(opp.EligibilityUS),
			EligibilityText: opp.EligibilityText,
			DeadlineText:    opp.DeadlineText,
			AwardAmountText: opp.AwardAmountText,
			Keywords:        opp.KeywordsPhrases,
			Summary:         opp.Summary,
			Evidence:        opp.EvidenceSnippets,
			Confidence:      model.NormalizeConfidence(opp.Confidence),
		})
	}
	return rows, usage, nil
}

// cleanJSON strips markdown fences and surrounding prose from a model
// response, leaving the outermost JSON object.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}
