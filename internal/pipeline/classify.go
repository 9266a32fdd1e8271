package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/beehive-research/foundation-scout/internal/model"
	"github.com/beehive-research/foundation-scout/internal/resilience"
	"github.com/beehive-research/foundation-scout/pkg/anthropic"
)

const classifySystemPrompt = `You are a strict funding-opportunity classifier.
Goal: minimize false positives. It is OK to answer "unclear".

Classify whether the opportunity is REAL PROSPECTIVE FUNDING that provides money:
- YES: grants, fellowships, stipends, travel awards, salary support, funded programs with awards, paid research funding.
- NO: recognition-only awards, honorary titles, certificates, informational program pages with no application/funding, advocacy/awareness pages, listings of past recipients only, "call for nominations" with no money, conferences with no funding, membership benefits only.
- UNCLEAR: ambiguous, missing money info, or could be funding but not explicit.

Rules:
- If there is no explicit or strongly implied money/funding, prefer UNCLEAR over YES.
- If the text indicates honor/recognition without funding, answer NO.
- Do not invent details. Use only the provided row text.
Return JSON only, matching the schema exactly.`

const classifyUserTemplate = `Classify this row.

Return JSON with:
- is_real_funding: "yes" | "no" | "unclear"
- reason: 1 sentence, specific to the row
- confidence: always "low"

Row fields:
%s`

// fallbackReason fills in when the model returns an empty reason.
const fallbackReason = "Insufficient information in the row text to determine whether money is provided."

// classifyFieldOrder is the serialized field order shown to the model.
func classifyRowText(r model.ResolvedOpportunity) string {
	fields := []struct {
		label string
		value string
	}{
		{"opportunity_name", r.Name},
		{"summary_1_2_sentences", r.Summary},
		{"award_amount_text", r.AwardAmountText},
		{"opportunity_type", string(r.Type)},
		{"eligibility_text", r.EligibilityText},
		{"deadline_text", r.DeadlineText},
		{"evidence_snippets", r.EvidenceJoined()},
		{"opportunity_url", r.URL},
		{"source_url", r.SourceURL},
	}

	var parts []string
	for _, f := range fields {
		if v := strings.TrimSpace(f.value); v != "" {
			parts = append(parts, f.label+": "+v)
		}
	}
	if len(parts) == 0 {
		return "(no text fields present)"
	}
	return strings.Join(parts, "\n")
}

type classifyResponse struct {
	IsRealFunding string `json:"is_real_funding"`
	Reason        string `json:"reason"`
	Confidence    string `json:"confidence"`
}

// Classify runs the LLM funding classifier over the prefilter survivors.
// Progress checkpoints by dedupe key: rows already in the classified table
// are skipped, and output is flushed in batches so an interrupted run loses
// at most one batch of work, never the checkpoint.
func (p *Pipeline) Classify(ctx context.Context) error {
	todo, err := p.store.ListPrefiltered(ctx, true)
	if err != nil {
		return err
	}
	if len(todo) == 0 {
		return eris.New("pipeline: no prefiltered opportunities; run prefilter first")
	}

	done, err := p.store.ClassifiedKeys(ctx)
	if err != nil {
		return err
	}
	if len(done) > 0 {
		// The classified table is append-only, so total rows can exceed
		// distinct keys after reruns; log both.
		total, err := p.store.CountClassified(ctx)
		if err != nil {
			return err
		}
		zap.L().Info("classify: resuming from checkpoint",
			zap.Int("already_classified", len(done)),
			zap.Int("classified_rows", total),
		)
	}

	retryCfg := resilience.RetryConfig{
		MaxAttempts:    p.cfg.Anthropic.RetryAttempts,
		InitialBackoff: time.Duration(p.cfg.Anthropic.RetryMinWaitMS) * time.Millisecond,
		MaxBackoff:     time.Duration(p.cfg.Anthropic.RetryMaxWaitMS) * time.Millisecond,
	}

	var (
		batch     []model.ClassificationRecord
		usage     anthropic.TokenUsage
		processed int
		written   int
		skipped   int
		failures  int
		saveEvery = p.cfg.Classify.SaveEvery
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := p.store.AppendClassified(ctx, batch); err != nil {
			return err
		}
		written += len(batch)
		batch = nil
		zap.L().Info("classify: checkpoint saved",
			zap.Int("processed", processed),
			zap.Int("written", written),
		)
		return nil
	}

	for _, row := range todo {
		if done[row.DedupeKey] {
			skipped++
			continue
		}
		if ctx.Err() != nil {
			return eris.Wrap(ctx.Err(), "pipeline: classify cancelled")
		}

		result, rowUsage, err := p.classifyRow(ctx, retryCfg, row)
		usage.Add(rowUsage)
		if err != nil {
			if ctx.Err() != nil {
				return eris.Wrap(ctx.Err(), "pipeline: classify cancelled")
			}
			// Conservative failure mode: record the row as unclear with a
			// diagnostic reason instead of halting the run.
			failures++
			result = classifyResponse{
				IsRealFunding: string(model.FundingUnclear),
				Reason:        fmt.Sprintf("LLM error; marked unclear. Error: %s", eris.Cause(err)),
			}
		}

		batch = append(batch, model.ClassificationRecord{
			ResolvedOpportunity: row.ResolvedOpportunity,
			PrefilterReason:     row.Reason,
			IsRealFunding:       model.NormalizeFundingVerdict(result.IsRealFunding),
			Reason:              result.Reason,
			ConfidenceLabel:     string(model.ConfidenceLow),
		})
		done[row.DedupeKey] = true
		processed++

		if len(batch) >= saveEvery {
			if err := flush(); err != nil {
				return err
			}
		}
	}

	if err := flush(); err != nil {
		return err
	}

	usage.LogCost(p.cfg.Anthropic.ClassifyModel, "classify")
	logCounts("classify",
		zap.Int("input_rows", len(todo)),
		zap.Int("already_classified", skipped),
		zap.Int("processed_this_run", processed),
		zap.Int("call_failures", failures),
		zap.Int("rows_written", written),
	)
	return nil
}

func (p *Pipeline) classifyRow(ctx context.Context, retryCfg resilience.RetryConfig, row model.PrefilterResult) (classifyResponse, anthropic.TokenUsage, error) {
	var usage anthropic.TokenUsage
	temperature := 0.0
	prompt := fmt.Sprintf(classifyUserTemplate, classifyRowText(row.ResolvedOpportunity))

	resp, err := resilience.DoVal(ctx, retryCfg, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return p.anthropic.CreateMessage(ctx, anthropic.MessageRequest{
			Model:       p.cfg.Anthropic.ClassifyModel,
			MaxTokens:   int64(p.cfg.Anthropic.MaxTokens),
			System:      classifySystemPrompt,
			Temperature: &temperature,
			Messages: []anthropic.Message{
				{Role: "user", Content: prompt},
			},
		})
	})
	if err != nil {
		return classifyResponse{}, usage, eris.Wrap(err, "pipeline: classification call")
	}
	usage = resp.Usage

	var parsed classifyResponse
	if err := json.Unmarshal([]byte(cleanJSON(anthropic.Text(resp))), &parsed); err != nil {
		return classifyResponse{}, usage, eris.Wrap(err, "pipeline: parse classification response")
	}

	if strings.TrimSpace(parsed.Reason) == "" {
		parsed.Reason = fallbackReason
	}
	return parsed, usage, nil
}
