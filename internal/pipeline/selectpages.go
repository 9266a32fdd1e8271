package pipeline

import (
	"context"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/beehive-research/foundation-scout/internal/model"
	"github.com/beehive-research/foundation-scout/internal/rules"
)

// SelectPages narrows the likely-funding pages to a bounded per-foundation
// set for extraction: PDFs first, then by triage reason strength, then by
// text length, capped separately for PDFs and HTML pages.
func (p *Pipeline) SelectPages(ctx context.Context) error {
	triaged, err := p.store.ListTriageResults(ctx)
	if err != nil {
		return err
	}

	var funding []model.TriageResult
	for _, t := range triaged {
		if t.LikelyFunding {
			funding = append(funding, t)
		}
	}
	if len(funding) == 0 {
		return eris.New("pipeline: no likely-funding pages; run triage first")
	}

	sort.SliceStable(funding, func(i, j int) bool {
		a, b := funding[i], funding[j]
		if a.FoundationID != b.FoundationID {
			return a.FoundationID < b.FoundationID
		}
		if a.IsPDF() != b.IsPDF() {
			return a.IsPDF()
		}
		ra, rb := rules.TriageReasonPriority(a.Reason), rules.TriageReasonPriority(b.Reason)
		if ra != rb {
			return ra < rb
		}
		return a.TextLen > b.TextLen
	})

	var (
		selected   []model.TriageResult
		pdfCount   = map[string]int{}
		htmlCount  = map[string]int{}
		maxPDF     = p.cfg.Select.MaxPDFsPerFoundation
		maxHTML    = p.cfg.Select.MaxHTMLPerFoundation
		fidsChosen = map[string]bool{}
	)

	for _, t := range funding {
		if t.IsPDF() {
			if pdfCount[t.FoundationID] >= maxPDF {
				continue
			}
			pdfCount[t.FoundationID]++
		} else {
			if htmlCount[t.FoundationID] >= maxHTML {
				continue
			}
			htmlCount[t.FoundationID]++
		}
		fidsChosen[t.FoundationID] = true
		selected = append(selected, t)
	}

	if err := p.store.ReplaceSelectedPages(ctx, selected); err != nil {
		return err
	}

	logCounts("select",
		zap.Int("likely_funding", len(funding)),
		zap.Int("selected", len(selected)),
		zap.Int("foundations_represented", len(fidsChosen)),
	)
	return nil
}
