package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/beehive-research/foundation-scout/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

// Shared column lists. List queries order by seq so stable insertion order is
// preserved, which the dedupe tie-break depends on.
const (
	foundationCols = `foundation_id, foundation_name, website_url, domain`

	candidateCols = `foundation_id, foundation_name, domain, query, result_rank, title, snippet, url, error`

	triageCols = `foundation_id, foundation_name, page_key, url, content_type, http_status, text_len, likely_funding, reason, error`

	opportunityCols = `foundation_id, foundation_name, source_url, opportunity_name, opportunity_url, opportunity_type,
		eligibility_us, eligibility_text, deadline_text, award_amount_text, keywords_phrases,
		summary_1_2_sentences, evidence_snippets, confidence, error`

	resolvedCols = `foundation_id, foundation_name, source_url, opportunity_name, opportunity_url, opportunity_type,
		eligibility_us, eligibility_text, deadline_text, award_amount_text, keywords_phrases,
		summary_1_2_sentences, evidence_snippets, confidence, dedupe_key, row_score, utah_eligible_flag`

	prefilteredCols = resolvedCols + `, prefilter_keep, prefilter_reason`

	classifiedCols = resolvedCols + `, prefilter_reason, is_real_funding, reason, confidence_label, rule_demoted, rule_demote_reason`
)

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS foundations (
	seq             INTEGER PRIMARY KEY AUTOINCREMENT,
	foundation_id   TEXT NOT NULL,
	foundation_name TEXT NOT NULL,
	website_url     TEXT NOT NULL DEFAULT '',
	domain          TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS candidate_pages (
	seq             INTEGER PRIMARY KEY AUTOINCREMENT,
	foundation_id   TEXT NOT NULL,
	foundation_name TEXT NOT NULL DEFAULT '',
	domain          TEXT NOT NULL DEFAULT '',
	query           TEXT NOT NULL DEFAULT '',
	result_rank     INTEGER NOT NULL DEFAULT 0,
	title           TEXT NOT NULL DEFAULT '',
	snippet         TEXT NOT NULL DEFAULT '',
	url             TEXT NOT NULL DEFAULT '',
	error           TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS page_triage (
	seq             INTEGER PRIMARY KEY AUTOINCREMENT,
	foundation_id   TEXT NOT NULL,
	foundation_name TEXT NOT NULL DEFAULT '',
	page_key        TEXT NOT NULL,
	url             TEXT NOT NULL DEFAULT '',
	content_type    TEXT NOT NULL DEFAULT '',
	http_status     INTEGER NOT NULL DEFAULT 0,
	text_len        INTEGER NOT NULL DEFAULT 0,
	likely_funding  INTEGER NOT NULL DEFAULT 0,
	reason          TEXT NOT NULL DEFAULT '',
	error           TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS llm_input_pages (
	seq             INTEGER PRIMARY KEY AUTOINCREMENT,
	foundation_id   TEXT NOT NULL,
	foundation_name TEXT NOT NULL DEFAULT '',
	page_key        TEXT NOT NULL,
	url             TEXT NOT NULL DEFAULT '',
	content_type    TEXT NOT NULL DEFAULT '',
	http_status     INTEGER NOT NULL DEFAULT 0,
	text_len        INTEGER NOT NULL DEFAULT 0,
	likely_funding  INTEGER NOT NULL DEFAULT 0,
	reason          TEXT NOT NULL DEFAULT '',
	error           TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS opportunities (
	seq                   INTEGER PRIMARY KEY AUTOINCREMENT,
	foundation_id         TEXT NOT NULL,
	foundation_name       TEXT NOT NULL DEFAULT '',
	source_url            TEXT NOT NULL DEFAULT '',
	opportunity_name      TEXT NOT NULL DEFAULT '',
	opportunity_url       TEXT NOT NULL DEFAULT '',
	opportunity_type      TEXT NOT NULL DEFAULT 'unclear',
	eligibility_us        TEXT NOT NULL DEFAULT 'unclear',
	eligibility_text      TEXT NOT NULL DEFAULT '',
	deadline_text         TEXT NOT NULL DEFAULT '',
	award_amount_text     TEXT NOT NULL DEFAULT '',
	keywords_phrases      TEXT NOT NULL DEFAULT '',
	summary_1_2_sentences TEXT NOT NULL DEFAULT '',
	evidence_snippets     TEXT NOT NULL DEFAULT '',
	confidence            TEXT NOT NULL DEFAULT 'low',
	error                 TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS resolved_opportunities (
	seq                   INTEGER PRIMARY KEY AUTOINCREMENT,
	foundation_id         TEXT NOT NULL,
	foundation_name       TEXT NOT NULL DEFAULT '',
	source_url            TEXT NOT NULL DEFAULT '',
	opportunity_name      TEXT NOT NULL DEFAULT '',
	opportunity_url       TEXT NOT NULL DEFAULT '',
	opportunity_type      TEXT NOT NULL DEFAULT 'unclear',
	eligibility_us        TEXT NOT NULL DEFAULT 'unclear',
	eligibility_text      TEXT NOT NULL DEFAULT '',
	deadline_text         TEXT NOT NULL DEFAULT '',
	award_amount_text     TEXT NOT NULL DEFAULT '',
	keywords_phrases      TEXT NOT NULL DEFAULT '',
	summary_1_2_sentences TEXT NOT NULL DEFAULT '',
	evidence_snippets     TEXT NOT NULL DEFAULT '',
	confidence            TEXT NOT NULL DEFAULT 'low',
	dedupe_key            TEXT NOT NULL,
	row_score             INTEGER NOT NULL DEFAULT 0,
	utah_eligible_flag    TEXT NOT NULL DEFAULT 'review'
);

CREATE TABLE IF NOT EXISTS prefiltered_opportunities (
	seq                   INTEGER PRIMARY KEY AUTOINCREMENT,
	foundation_id         TEXT NOT NULL,
	foundation_name       TEXT NOT NULL DEFAULT '',
	source_url            TEXT NOT NULL DEFAULT '',
	opportunity_name      TEXT NOT NULL DEFAULT '',
	opportunity_url       TEXT NOT NULL DEFAULT '',
	opportunity_type      TEXT NOT NULL DEFAULT 'unclear',
	eligibility_us        TEXT NOT NULL DEFAULT 'unclear',
	eligibility_text      TEXT NOT NULL DEFAULT '',
	deadline_text         TEXT NOT NULL DEFAULT '',
	award_amount_text     TEXT NOT NULL DEFAULT '',
	keywords_phrases      TEXT NOT NULL DEFAULT '',
	summary_1_2_sentences TEXT NOT NULL DEFAULT '',
	evidence_snippets     TEXT NOT NULL DEFAULT '',
	confidence            TEXT NOT NULL DEFAULT 'low',
	dedupe_key            TEXT NOT NULL,
	row_score             INTEGER NOT NULL DEFAULT 0,
	utah_eligible_flag    TEXT NOT NULL DEFAULT 'review',
	prefilter_keep        INTEGER NOT NULL DEFAULT 0,
	prefilter_reason      TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS classified_opportunities (
	seq                   INTEGER PRIMARY KEY AUTOINCREMENT,
	foundation_id         TEXT NOT NULL,
	foundation_name       TEXT NOT NULL DEFAULT '',
	source_url            TEXT NOT NULL DEFAULT '',
	opportunity_name      TEXT NOT NULL DEFAULT '',
	opportunity_url       TEXT NOT NULL DEFAULT '',
	opportunity_type      TEXT NOT NULL DEFAULT 'unclear',
	eligibility_us        TEXT NOT NULL DEFAULT 'unclear',
	eligibility_text      TEXT NOT NULL DEFAULT '',
	deadline_text         TEXT NOT NULL DEFAULT '',
	award_amount_text     TEXT NOT NULL DEFAULT '',
	keywords_phrases      TEXT NOT NULL DEFAULT '',
	summary_1_2_sentences TEXT NOT NULL DEFAULT '',
	evidence_snippets     TEXT NOT NULL DEFAULT '',
	confidence            TEXT NOT NULL DEFAULT 'low',
	dedupe_key            TEXT NOT NULL,
	row_score             INTEGER NOT NULL DEFAULT 0,
	utah_eligible_flag    TEXT NOT NULL DEFAULT 'review',
	prefilter_reason      TEXT NOT NULL DEFAULT '',
	is_real_funding       TEXT NOT NULL DEFAULT 'unclear',
	reason                TEXT NOT NULL DEFAULT '',
	confidence_label      TEXT NOT NULL DEFAULT 'low',
	rule_demoted          INTEGER NOT NULL DEFAULT 0,
	rule_demote_reason    TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS demoted_opportunities (
	seq                   INTEGER PRIMARY KEY AUTOINCREMENT,
	foundation_id         TEXT NOT NULL,
	foundation_name       TEXT NOT NULL DEFAULT '',
	source_url            TEXT NOT NULL DEFAULT '',
	opportunity_name      TEXT NOT NULL DEFAULT '',
	opportunity_url       TEXT NOT NULL DEFAULT '',
	opportunity_type      TEXT NOT NULL DEFAULT 'unclear',
	eligibility_us        TEXT NOT NULL DEFAULT 'unclear',
	eligibility_text      TEXT NOT NULL DEFAULT '',
	deadline_text         TEXT NOT NULL DEFAULT '',
	award_amount_text     TEXT NOT NULL DEFAULT '',
	keywords_phrases      TEXT NOT NULL DEFAULT '',
	summary_1_2_sentences TEXT NOT NULL DEFAULT '',
	evidence_snippets     TEXT NOT NULL DEFAULT '',
	confidence            TEXT NOT NULL DEFAULT 'low',
	dedupe_key            TEXT NOT NULL,
	row_score             INTEGER NOT NULL DEFAULT 0,
	utah_eligible_flag    TEXT NOT NULL DEFAULT 'review',
	prefilter_reason      TEXT NOT NULL DEFAULT '',
	is_real_funding       TEXT NOT NULL DEFAULT 'unclear',
	reason                TEXT NOT NULL DEFAULT '',
	confidence_label      TEXT NOT NULL DEFAULT 'low',
	rule_demoted          INTEGER NOT NULL DEFAULT 0,
	rule_demote_reason    TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_candidate_pages_fid ON candidate_pages(foundation_id);
CREATE INDEX IF NOT EXISTS idx_page_triage_fid ON page_triage(foundation_id);
CREATE INDEX IF NOT EXISTS idx_opportunities_fid ON opportunities(foundation_id);
CREATE INDEX IF NOT EXISTS idx_resolved_dedupe_key ON resolved_opportunities(dedupe_key);
CREATE INDEX IF NOT EXISTS idx_classified_dedupe_key ON classified_opportunities(dedupe_key);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// placeholders renders "?, ?, ..." for n columns.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// replaceAll clears a table and inserts rows in one transaction.
func (s *SQLiteStore) replaceAll(ctx context.Context, table, cols string, rows [][]any) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrapf(err, "sqlite: begin %s", table)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
		return eris.Wrapf(err, "sqlite: clear %s", table)
	}

	n := strings.Count(cols, ",") + 1
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`, table, cols, placeholders(n))
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return eris.Wrapf(err, "sqlite: prepare insert %s", table)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return eris.Wrapf(err, "sqlite: insert %s", table)
		}
	}

	return eris.Wrapf(tx.Commit(), "sqlite: commit %s", table)
}

// appendAll inserts rows into a table without clearing it.
func (s *SQLiteStore) appendAll(ctx context.Context, table, cols string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrapf(err, "sqlite: begin %s", table)
	}
	defer tx.Rollback()

	n := strings.Count(cols, ",") + 1
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`, table, cols, placeholders(n))
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return eris.Wrapf(err, "sqlite: prepare insert %s", table)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return eris.Wrapf(err, "sqlite: insert %s", table)
		}
	}

	return eris.Wrapf(tx.Commit(), "sqlite: commit %s", table)
}

func (s *SQLiteStore) ReplaceFoundations(ctx context.Context, rows []model.Foundation) error {
	return s.replaceAll(ctx, StageFoundations, foundationCols, foundationValues(rows))
}

func (s *SQLiteStore) ListFoundations(ctx context.Context) ([]model.Foundation, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+foundationCols+` FROM foundations ORDER BY seq`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list foundations")
	}
	defer rows.Close()
	return scanFoundations(rows)
}

func (s *SQLiteStore) ReplaceCandidatePages(ctx context.Context, rows []model.CandidatePage) error {
	return s.replaceAll(ctx, StageCandidatePages, candidateCols, candidateValues(rows))
}

func (s *SQLiteStore) ListCandidatePages(ctx context.Context) ([]model.CandidatePage, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+candidateCols+` FROM candidate_pages ORDER BY seq`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list candidate pages")
	}
	defer rows.Close()
	return scanCandidatePages(rows)
}

func (s *SQLiteStore) ReplaceTriageResults(ctx context.Context, rows []model.TriageResult) error {
	return s.replaceAll(ctx, StageTriage, triageCols, triageValues(rows))
}

func (s *SQLiteStore) ListTriageResults(ctx context.Context) ([]model.TriageResult, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+triageCols+` FROM page_triage ORDER BY seq`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list triage results")
	}
	defer rows.Close()
	return scanTriageResults(rows)
}

func (s *SQLiteStore) ReplaceSelectedPages(ctx context.Context, rows []model.TriageResult) error {
	return s.replaceAll(ctx, StageSelected, triageCols, triageValues(rows))
}

func (s *SQLiteStore) ListSelectedPages(ctx context.Context) ([]model.TriageResult, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+triageCols+` FROM llm_input_pages ORDER BY seq`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list selected pages")
	}
	defer rows.Close()
	return scanTriageResults(rows)
}

func (s *SQLiteStore) AppendOpportunities(ctx context.Context, rows []model.Opportunity) error {
	return s.appendAll(ctx, StageOpportunities, opportunityCols, opportunityValues(rows))
}

func (s *SQLiteStore) ListOpportunities(ctx context.Context) ([]model.Opportunity, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+opportunityCols+` FROM opportunities ORDER BY seq`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list opportunities")
	}
	defer rows.Close()
	return scanOpportunities(rows)
}

func (s *SQLiteStore) ReplaceResolved(ctx context.Context, rows []model.ResolvedOpportunity) error {
	return s.replaceAll(ctx, StageResolved, resolvedCols, resolvedValues(rows))
}

func (s *SQLiteStore) ListResolved(ctx context.Context) ([]model.ResolvedOpportunity, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+resolvedCols+` FROM resolved_opportunities ORDER BY seq`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list resolved")
	}
	defer rows.Close()
	return scanResolved(rows)
}

func (s *SQLiteStore) ReplacePrefiltered(ctx context.Context, rows []model.PrefilterResult) error {
	return s.replaceAll(ctx, StagePrefiltered, prefilteredCols, prefilteredValues(rows))
}

func (s *SQLiteStore) ListPrefiltered(ctx context.Context, keptOnly bool) ([]model.PrefilterResult, error) {
	query := `SELECT ` + prefilteredCols + ` FROM prefiltered_opportunities`
	if keptOnly {
		query += ` WHERE prefilter_keep = 1`
	}
	query += ` ORDER BY seq`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list prefiltered")
	}
	defer rows.Close()
	return scanPrefiltered(rows)
}

func (s *SQLiteStore) AppendClassified(ctx context.Context, rows []model.ClassificationRecord) error {
	return s.appendAll(ctx, StageClassified, classifiedCols, classifiedValues(rows))
}

func (s *SQLiteStore) ListClassified(ctx context.Context) ([]model.ClassificationRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+classifiedCols+` FROM classified_opportunities ORDER BY seq`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list classified")
	}
	defer rows.Close()
	return scanClassified(rows)
}

func (s *SQLiteStore) ClassifiedKeys(ctx context.Context) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT dedupe_key FROM classified_opportunities`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: classified keys")
	}
	defer rows.Close()

	keys := make(map[string]bool)
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan classified key")
		}
		keys[k] = true
	}
	return keys, eris.Wrap(rows.Err(), "sqlite: classified keys iterate")
}

func (s *SQLiteStore) CountClassified(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM classified_opportunities`).Scan(&n)
	return n, eris.Wrap(err, "sqlite: count classified")
}

func (s *SQLiteStore) ReplaceDemoted(ctx context.Context, rows []model.ClassificationRecord) error {
	return s.replaceAll(ctx, StageDemoted, classifiedCols, classifiedValues(rows))
}

func (s *SQLiteStore) ListDemoted(ctx context.Context) ([]model.ClassificationRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+classifiedCols+` FROM demoted_opportunities ORDER BY seq`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list demoted")
	}
	defer rows.Close()
	return scanClassified(rows)
}

func (s *SQLiteStore) StageCounts(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int, len(Stages()))
	for _, table := range Stages() {
		var n int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&n); err != nil {
			return nil, eris.Wrapf(err, "sqlite: count %s", table)
		}
		counts[table] = n
	}
	return counts, nil
}
