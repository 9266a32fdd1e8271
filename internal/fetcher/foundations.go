package fetcher

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/beehive-research/foundation-scout/internal/model"
)

// Header variants accepted in the raw foundations spreadsheet. Matching is
// case-insensitive on the trimmed header cell.
var (
	nameHeaders    = []string{"foundation name", "foundation_name", "name", "organization", "org name"}
	websiteHeaders = []string{"website", "website url", "website_url", "url", "link", "site"}
)

func findColumn(header []string, candidates []string) int {
	for i, cell := range header {
		cell = strings.ToLower(strings.TrimSpace(cell))
		for _, want := range candidates {
			if cell == want {
				return i
			}
		}
	}
	return -1
}

// ReadFoundations reads the raw foundations spreadsheet and assigns stable
// sequential IDs (F001, F002, ...) by row order. Rows with an empty name are
// skipped; the website column is optional.
func ReadFoundations(path string) ([]model.Foundation, error) {
	rows, err := ReadXLSX(path, XLSXOptions{})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, eris.Errorf("fetcher: %s is empty", path)
	}

	header := rows[0]
	nameCol := findColumn(header, nameHeaders)
	if nameCol < 0 {
		return nil, eris.Errorf("fetcher: no foundation name column in %s (header: %v)", path, header)
	}
	siteCol := findColumn(header, websiteHeaders)

	var out []model.Foundation
	for _, row := range rows[1:] {
		name := ""
		if nameCol < len(row) {
			name = strings.TrimSpace(row[nameCol])
		}
		if name == "" {
			continue
		}

		site := ""
		if siteCol >= 0 && siteCol < len(row) {
			site = strings.TrimSpace(row[siteCol])
		}

		out = append(out, model.Foundation{
			ID:         model.FoundationID(len(out) + 1),
			Name:       name,
			WebsiteURL: site,
			Domain:     model.RegistrableDomain(site),
		})
	}

	if len(out) == 0 {
		return nil, eris.Errorf("fetcher: no foundation rows in %s", path)
	}
	return out, nil
}
