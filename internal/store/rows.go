package store

import (
	"github.com/rotisserie/eris"

	"github.com/beehive-research/foundation-scout/internal/model"
)

// rowScanner is the subset of *sql.Rows and pgx.Rows the scan helpers need.
type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func foundationValues(rows []model.Foundation) [][]any {
	out := make([][]any, 0, len(rows))
	for _, f := range rows {
		out = append(out, []any{f.ID, f.Name, f.WebsiteURL, f.Domain})
	}
	return out
}

func scanFoundations(rows rowScanner) ([]model.Foundation, error) {
	var out []model.Foundation
	for rows.Next() {
		var f model.Foundation
		if err := rows.Scan(&f.ID, &f.Name, &f.WebsiteURL, &f.Domain); err != nil {
			return nil, eris.Wrap(err, "store: scan foundation")
		}
		out = append(out, f)
	}
	return out, eris.Wrap(rows.Err(), "store: iterate foundations")
}

func candidateValues(rows []model.CandidatePage) [][]any {
	out := make([][]any, 0, len(rows))
	for _, p := range rows {
		out = append(out, []any{
			p.FoundationID, p.FoundationName, p.Domain, p.Query,
			p.ResultRank, p.Title, p.Snippet, p.URL, p.Error,
		})
	}
	return out
}

func scanCandidatePages(rows rowScanner) ([]model.CandidatePage, error) {
	var out []model.CandidatePage
	for rows.Next() {
		var p model.CandidatePage
		if err := rows.Scan(
			&p.FoundationID, &p.FoundationName, &p.Domain, &p.Query,
			&p.ResultRank, &p.Title, &p.Snippet, &p.URL, &p.Error,
		); err != nil {
			return nil, eris.Wrap(err, "store: scan candidate page")
		}
		out = append(out, p)
	}
	return out, eris.Wrap(rows.Err(), "store: iterate candidate pages")
}

func triageValues(rows []model.TriageResult) [][]any {
	out := make([][]any, 0, len(rows))
	for _, t := range rows {
		out = append(out, []any{
			t.FoundationID, t.FoundationName, t.PageKey, t.URL, t.ContentType,
			t.HTTPStatus, t.TextLen, t.LikelyFunding, t.Reason, t.Error,
		})
	}
	return out
}

func scanTriageResults(rows rowScanner) ([]model.TriageResult, error) {
	var out []model.TriageResult
	for rows.Next() {
		var t model.TriageResult
		if err := rows.Scan(
			&t.FoundationID, &t.FoundationName, &t.PageKey, &t.URL, &t.ContentType,
			&t.HTTPStatus, &t.TextLen, &t.LikelyFunding, &t.Reason, &t.Error,
		); err != nil {
			return nil, eris.Wrap(err, "store: scan triage result")
		}
		out = append(out, t)
	}
	return out, eris.Wrap(rows.Err(), "store: iterate triage results")
}

func opportunityValues(rows []model.Opportunity) [][]any {
	out := make([][]any, 0, len(rows))
	for _, o := range rows {
		out = append(out, []any{
			o.FoundationID, o.FoundationName, o.SourceURL, o.Name, o.URL, string(o.Type),
			string(o.EligibilityUS), o.EligibilityText, o.DeadlineText, o.AwardAmountText,
			o.KeywordsJoined(), o.Summary, o.EvidenceJoined(), string(o.Confidence), o.Error,
		})
	}
	return out
}

func scanOpportunities(rows rowScanner) ([]model.Opportunity, error) {
	var out []model.Opportunity
	for rows.Next() {
		var (
			o                  model.Opportunity
			typ, elig, conf    string
			keywords, evidence string
		)
		if err := rows.Scan(
			&o.FoundationID, &o.FoundationName, &o.SourceURL, &o.Name, &o.URL, &typ,
			&elig, &o.EligibilityText, &o.DeadlineText, &o.AwardAmountText,
			&keywords, &o.Summary, &evidence, &conf, &o.Error,
		); err != nil {
			return nil, eris.Wrap(err, "store: scan opportunity")
		}
		o.Type = model.OpportunityType(typ)
		o.EligibilityUS = model.Ternary(elig)
		o.Confidence = model.Confidence(conf)
		o.Keywords = model.SplitKeywords(keywords)
		o.Evidence = model.SplitEvidence(evidence)
		out = append(out, o)
	}
	return out, eris.Wrap(rows.Err(), "store: iterate opportunities")
}

func resolvedValues(rows []model.ResolvedOpportunity) [][]any {
	out := make([][]any, 0, len(rows))
	for _, r := range rows {
		out = append(out, []any{
			r.FoundationID, r.FoundationName, r.SourceURL, r.Name, r.URL, string(r.Type),
			string(r.EligibilityUS), r.EligibilityText, r.DeadlineText, r.AwardAmountText,
			r.KeywordsJoined(), r.Summary, r.EvidenceJoined(), string(r.Confidence),
			r.DedupeKey, r.RowScore, string(r.EligibleFlag),
		})
	}
	return out
}

func scanResolvedInto(rows rowScanner, r *model.ResolvedOpportunity, extra ...any) error {
	var (
		typ, elig, conf    string
		keywords, evidence string
		flag               string
	)
	dest := []any{
		&r.FoundationID, &r.FoundationName, &r.SourceURL, &r.Name, &r.URL, &typ,
		&elig, &r.EligibilityText, &r.DeadlineText, &r.AwardAmountText,
		&keywords, &r.Summary, &evidence, &conf,
		&r.DedupeKey, &r.RowScore, &flag,
	}
	dest = append(dest, extra...)
	if err := rows.Scan(dest...); err != nil {
		return err
	}
	r.Type = model.OpportunityType(typ)
	r.EligibilityUS = model.Ternary(elig)
	r.Confidence = model.Confidence(conf)
	r.Keywords = model.SplitKeywords(keywords)
	r.Evidence = model.SplitEvidence(evidence)
	r.EligibleFlag = model.EligibilityFlag(flag)
	return nil
}

func scanResolved(rows rowScanner) ([]model.ResolvedOpportunity, error) {
	var out []model.ResolvedOpportunity
	for rows.Next() {
		var r model.ResolvedOpportunity
		if err := scanResolvedInto(rows, &r); err != nil {
			return nil, eris.Wrap(err, "store: scan resolved opportunity")
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "store: iterate resolved opportunities")
}

func prefilteredValues(rows []model.PrefilterResult) [][]any {
	out := make([][]any, 0, len(rows))
	for _, p := range rows {
		vals := resolvedValues([]model.ResolvedOpportunity{p.ResolvedOpportunity})[0]
		out = append(out, append(vals, p.Keep, p.Reason))
	}
	return out
}

func scanPrefiltered(rows rowScanner) ([]model.PrefilterResult, error) {
	var out []model.PrefilterResult
	for rows.Next() {
		var p model.PrefilterResult
		if err := scanResolvedInto(rows, &p.ResolvedOpportunity, &p.Keep, &p.Reason); err != nil {
			return nil, eris.Wrap(err, "store: scan prefilter result")
		}
		out = append(out, p)
	}
	return out, eris.Wrap(rows.Err(), "store: iterate prefilter results")
}

func classifiedValues(rows []model.ClassificationRecord) [][]any {
	out := make([][]any, 0, len(rows))
	for _, c := range rows {
		vals := resolvedValues([]model.ResolvedOpportunity{c.ResolvedOpportunity})[0]
		out = append(out, append(vals,
			c.PrefilterReason, string(c.IsRealFunding), c.Reason,
			c.ConfidenceLabel, c.RuleDemoted, c.RuleDemoteReason,
		))
	}
	return out
}

func scanClassified(rows rowScanner) ([]model.ClassificationRecord, error) {
	var out []model.ClassificationRecord
	for rows.Next() {
		var (
			c       model.ClassificationRecord
			verdict string
		)
		if err := scanResolvedInto(rows, &c.ResolvedOpportunity,
			&c.PrefilterReason, &verdict, &c.Reason, &c.ConfidenceLabel, &c.RuleDemoted, &c.RuleDemoteReason,
		); err != nil {
			return nil, eris.Wrap(err, "store: scan classification record")
		}
		c.IsRealFunding = model.FundingVerdict(verdict)
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "store: iterate classification records")
}
