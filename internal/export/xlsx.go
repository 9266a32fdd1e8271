// Package export writes the human-facing XLSX deliverables: the ID-assigned
// foundations sheet, the resolved opportunities workbook, the prefilter
// workbook with its dropped-rows audit tab, and the classified output.
package export

import (
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/beehive-research/foundation-scout/internal/model"
)

func writeSheet(f *xlsx.File, name string, header []string, rows [][]string) error {
	sheet, err := f.AddSheet(name)
	if err != nil {
		return eris.Wrapf(err, "export: add sheet %s", name)
	}
	hr := sheet.AddRow()
	for _, h := range header {
		hr.AddCell().SetString(h)
	}
	for _, row := range rows {
		r := sheet.AddRow()
		for _, cell := range row {
			r.AddCell().SetString(cell)
		}
	}
	return nil
}

func save(f *xlsx.File, path string) error {
	return eris.Wrapf(f.Save(path), "export: save %s", path)
}

var foundationHeader = []string{"foundation_id", "foundation_name", "website_url", "domain"}

// WriteFoundations writes the ID-assigned foundations sheet.
func WriteFoundations(path string, foundations []model.Foundation) error {
	f := xlsx.NewFile()
	rows := make([][]string, 0, len(foundations))
	for _, fd := range foundations {
		rows = append(rows, []string{fd.ID, fd.Name, fd.WebsiteURL, fd.Domain})
	}
	if err := writeSheet(f, "Foundations", foundationHeader, rows); err != nil {
		return err
	}
	return save(f, path)
}

var opportunityHeader = []string{
	"foundation_id", "foundation_name", "opportunity_name", "opportunity_url",
	"opportunity_type", "utah_eligible_flag", "deadline_text", "award_amount_text",
	"keywords_phrases", "summary_1_2_sentences", "evidence_snippets",
	"confidence", "source_url",
}

func resolvedRow(r model.ResolvedOpportunity) []string {
	return []string{
		r.FoundationID, r.FoundationName, r.Name, r.URL,
		string(r.Type), string(r.EligibleFlag), r.DeadlineText, r.AwardAmountText,
		r.KeywordsJoined(), r.Summary, r.EvidenceJoined(),
		string(r.Confidence), r.SourceURL,
	}
}

// WriteResolved writes the two-tab resolved workbook: one Foundations tab,
// one Opportunities tab.
func WriteResolved(path string, foundations []model.Foundation, resolved []model.ResolvedOpportunity) error {
	f := xlsx.NewFile()

	frows := make([][]string, 0, len(foundations))
	for _, fd := range foundations {
		frows = append(frows, []string{fd.ID, fd.Name, fd.WebsiteURL, fd.Domain})
	}
	if err := writeSheet(f, "Foundations", foundationHeader, frows); err != nil {
		return err
	}

	orows := make([][]string, 0, len(resolved))
	for _, r := range resolved {
		orows = append(orows, resolvedRow(r))
	}
	if err := writeSheet(f, "Opportunities", opportunityHeader, orows); err != nil {
		return err
	}

	return save(f, path)
}

var prefilterHeader = append(append([]string{}, opportunityHeader...), "prefilter_reason")

// WritePrefiltered writes kept rows to an Opportunities tab and dropped rows
// to a Dropped tab so the filter's work stays auditable.
func WritePrefiltered(path string, results []model.PrefilterResult) error {
	f := xlsx.NewFile()

	var kept, dropped [][]string
	for _, p := range results {
		row := append(resolvedRow(p.ResolvedOpportunity), p.Reason)
		if p.Keep {
			kept = append(kept, row)
		} else {
			dropped = append(dropped, row)
		}
	}

	if err := writeSheet(f, "Opportunities", prefilterHeader, kept); err != nil {
		return err
	}
	if err := writeSheet(f, "Dropped", prefilterHeader, dropped); err != nil {
		return err
	}

	return save(f, path)
}

var classifiedHeader = append(append([]string{}, opportunityHeader...),
	"is_real_funding", "reason", "classifier_confidence", "rule_demoted", "rule_demote_reason",
)

// WriteClassified writes classification records, one row per opportunity.
func WriteClassified(path string, records []model.ClassificationRecord) error {
	f := xlsx.NewFile()

	rows := make([][]string, 0, len(records))
	for _, c := range records {
		rows = append(rows, append(resolvedRow(c.ResolvedOpportunity),
			string(c.IsRealFunding), c.Reason, c.ConfidenceLabel,
			strconv.FormatBool(c.RuleDemoted), c.RuleDemoteReason,
		))
	}
	if err := writeSheet(f, "Opportunities", classifiedHeader, rows); err != nil {
		return err
	}

	return save(f, path)
}
