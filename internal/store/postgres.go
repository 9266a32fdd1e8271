package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/beehive-research/foundation-scout/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock's pool mock
// satisfies it, which keeps the postgres driver testable without a server.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres connects a pgx pool to the given database URL.
func NewPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool. Used by tests.
func NewPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS foundations (
	seq             BIGSERIAL PRIMARY KEY,
	foundation_id   TEXT NOT NULL,
	foundation_name TEXT NOT NULL,
	website_url     TEXT NOT NULL DEFAULT '',
	domain          TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS candidate_pages (
	seq             BIGSERIAL PRIMARY KEY,
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
	seq             BIGSERIAL PRIMARY KEY,
	foundation_id   TEXT NOT NULL,
	foundation_name TEXT NOT NULL DEFAULT '',
	page_key        TEXT NOT NULL,
	url             TEXT NOT NULL DEFAULT '',
	content_type    TEXT NOT NULL DEFAULT '',
	http_status     INTEGER NOT NULL DEFAULT 0,
	text_len        INTEGER NOT NULL DEFAULT 0,
	likely_funding  BOOLEAN NOT NULL DEFAULT FALSE,
	reason          TEXT NOT NULL DEFAULT '',
	error           TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS llm_input_pages (
	seq             BIGSERIAL PRIMARY KEY,
	foundation_id   TEXT NOT NULL,
	foundation_name TEXT NOT NULL DEFAULT '',
	page_key        TEXT NOT NULL,
	url             TEXT NOT NULL DEFAULT '',
	content_type    TEXT NOT NULL DEFAULT '',
	http_status     INTEGER NOT NULL DEFAULT 0,
	text_len        INTEGER NOT NULL DEFAULT 0,
	likely_funding  BOOLEAN NOT NULL DEFAULT FALSE,
	reason          TEXT NOT NULL DEFAULT '',
	error           TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS opportunities (
	seq                   BIGSERIAL PRIMARY KEY,
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
	seq                   BIGSERIAL PRIMARY KEY,
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
	seq                   BIGSERIAL PRIMARY KEY,
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
	prefilter_keep        BOOLEAN NOT NULL DEFAULT FALSE,
	prefilter_reason      TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS classified_opportunities (
	seq                   BIGSERIAL PRIMARY KEY,
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
	rule_demoted          BOOLEAN NOT NULL DEFAULT FALSE,
	rule_demote_reason    TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS demoted_opportunities (
	seq                   BIGSERIAL PRIMARY KEY,
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
	rule_demoted          BOOLEAN NOT NULL DEFAULT FALSE,
	rule_demote_reason    TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_candidate_pages_fid ON candidate_pages(foundation_id);
CREATE INDEX IF NOT EXISTS idx_page_triage_fid ON page_triage(foundation_id);
CREATE INDEX IF NOT EXISTS idx_opportunities_fid ON opportunities(foundation_id);
CREATE INDEX IF NOT EXISTS idx_resolved_dedupe_key ON resolved_opportunities(dedupe_key);
CREATE INDEX IF NOT EXISTS idx_classified_dedupe_key ON classified_opportunities(dedupe_key);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// pgPlaceholders renders "$1, $2, ..." for n columns.
func pgPlaceholders(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("$%d", i+1)
	}
	return strings.Join(parts, ", ")
}

func (s *PostgresStore) replaceAll(ctx context.Context, table, cols string, rows [][]any) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrapf(err, "postgres: begin %s", table)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM `+table); err != nil {
		return eris.Wrapf(err, "postgres: clear %s", table)
	}

	n := strings.Count(cols, ",") + 1
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`, table, cols, pgPlaceholders(n))
	for _, row := range rows {
		if _, err := tx.Exec(ctx, query, row...); err != nil {
			return eris.Wrapf(err, "postgres: insert %s", table)
		}
	}

	return eris.Wrapf(tx.Commit(ctx), "postgres: commit %s", table)
}

func (s *PostgresStore) appendAll(ctx context.Context, table, cols string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrapf(err, "postgres: begin %s", table)
	}
	defer tx.Rollback(ctx)

	n := strings.Count(cols, ",") + 1
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`, table, cols, pgPlaceholders(n))
	for _, row := range rows {
		if _, err := tx.Exec(ctx, query, row...); err != nil {
			return eris.Wrapf(err, "postgres: insert %s", table)
		}
	}

	return eris.Wrapf(tx.Commit(ctx), "postgres: commit %s", table)
}

func (s *PostgresStore) ReplaceFoundations(ctx context.Context, rows []model.Foundation) error {
	return s.replaceAll(ctx, StageFoundations, foundationCols, foundationValues(rows))
}

func (s *PostgresStore) ListFoundations(ctx context.Context) ([]model.Foundation, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+foundationCols+` FROM foundations ORDER BY seq`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list foundations")
	}
	defer rows.Close()
	return scanFoundations(rows)
}

func (s *PostgresStore) ReplaceCandidatePages(ctx context.Context, rows []model.CandidatePage) error {
	return s.replaceAll(ctx, StageCandidatePages, candidateCols, candidateValues(rows))
}

func (s *PostgresStore) ListCandidatePages(ctx context.Context) ([]model.CandidatePage, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+candidateCols+` FROM candidate_pages ORDER BY seq`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list candidate pages")
	}
	defer rows.Close()
	return scanCandidatePages(rows)
}

func (s *PostgresStore) ReplaceTriageResults(ctx context.Context, rows []model.TriageResult) error {
	return s.replaceAll(ctx, StageTriage, triageCols, triageValues(rows))
}

func (s *PostgresStore) ListTriageResults(ctx context.Context) ([]model.TriageResult, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+triageCols+` FROM page_triage ORDER BY seq`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list triage results")
	}
	defer rows.Close()
	return scanTriageResults(rows)
}

func (s *PostgresStore) ReplaceSelectedPages(ctx context.Context, rows []model.TriageResult) error {
	return s.replaceAll(ctx, StageSelected, triageCols, triageValues(rows))
}

func (s *PostgresStore) ListSelectedPages(ctx context.Context) ([]model.TriageResult, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+triageCols+` FROM llm_input_pages ORDER BY seq`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list selected pages")
	}
	defer rows.Close()
	return scanTriageResults(rows)
}

func (s *PostgresStore) AppendOpportunities(ctx context.Context, rows []model.Opportunity) error {
	return s.appendAll(ctx, StageOpportunities, opportunityCols, opportunityValues(rows))
}

func (s *PostgresStore) ListOpportunities(ctx context.Context) ([]model.Opportunity, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+opportunityCols+` FROM opportunities ORDER BY seq`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list opportunities")
	}
	defer rows.Close()
	return scanOpportunities(rows)
}

func (s *PostgresStore) ReplaceResolved(ctx context.Context, rows []model.ResolvedOpportunity) error {
	return s.replaceAll(ctx, StageResolved, resolvedCols, resolvedValues(rows))
}

func (s *PostgresStore) ListResolved(ctx context.Context) ([]model.ResolvedOpportunity, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+resolvedCols+` FROM resolved_opportunities ORDER BY seq`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list resolved")
	}
	defer rows.Close()
	return scanResolved(rows)
}

func (s *PostgresStore) ReplacePrefiltered(ctx context.Context, rows []model.PrefilterResult) error {
	return s.replaceAll(ctx, StagePrefiltered, prefilteredCols, prefilteredValues(rows))
}

func (s *PostgresStore) ListPrefiltered(ctx context.Context, keptOnly bool) ([]model.PrefilterResult, error) {
	query := `SELECT ` + prefilteredCols + ` FROM prefiltered_opportunities`
	if keptOnly {
		query += ` WHERE prefilter_keep`
	}
	query += ` ORDER BY seq`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list prefiltered")
	}
	defer rows.Close()
	return scanPrefiltered(rows)
}

func (s *PostgresStore) AppendClassified(ctx context.Context, rows []model.ClassificationRecord) error {
	return s.appendAll(ctx, StageClassified, classifiedCols, classifiedValues(rows))
}

func (s *PostgresStore) ListClassified(ctx context.Context) ([]model.ClassificationRecord, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+classifiedCols+` FROM classified_opportunities ORDER BY seq`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list classified")
	}
	defer rows.Close()
	return scanClassified(rows)
}

func (s *PostgresStore) ClassifiedKeys(ctx context.Context) (map[string]bool, error) {
	rows, err := s.pool.Query(ctx, `SELECT dedupe_key FROM classified_opportunities`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: classified keys")
	}
	defer rows.Close()

	keys := make(map[string]bool)
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, eris.Wrap(err, "postgres: scan classified key")
		}
		keys[k] = true
	}
	return keys, eris.Wrap(rows.Err(), "postgres: classified keys iterate")
}

func (s *PostgresStore) CountClassified(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM classified_opportunities`).Scan(&n)
	return n, eris.Wrap(err, "postgres: count classified")
}

func (s *PostgresStore) ReplaceDemoted(ctx context.Context, rows []model.ClassificationRecord) error {
	return s.replaceAll(ctx, StageDemoted, classifiedCols, classifiedValues(rows))
}

func (s *PostgresStore) ListDemoted(ctx context.Context) ([]model.ClassificationRecord, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+classifiedCols+` FROM demoted_opportunities ORDER BY seq`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list demoted")
	}
	defer rows.Close()
	return scanClassified(rows)
}

func (s *PostgresStore) StageCounts(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int, len(Stages()))
	for _, table := range Stages() {
		var n int
		if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM `+table).Scan(&n); err != nil {
			return nil, eris.Wrapf(err, "postgres: count %s", table)
		}
		counts[table] = n
	}
	return counts, nil
}
