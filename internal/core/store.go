package core

// store.go is the PostgreSQL persistence layer: filings with their
// parameters, per-template row data as jsonb, and the export audit trail.
//
// Row data is stored one jsonb document per (filing, template) pair and
// always replaced wholesale. Filings are small (15 templates, thousands of
// rows at most) and the exporter needs the full dataset anyway, so there is
// no per-row addressing.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/regline/roi-filing/internal/filing"
)

// Store is the persistence interface the service depends on.
// Implemented by PGStore; tests substitute an in-memory fake.
type Store interface {
	CreateFiling(ctx context.Context, name string, params filing.PackageParameters) (Filing, error)
	GetFiling(ctx context.Context, filingID string) (Filing, error)
	ListFilings(ctx context.Context) ([]Filing, error)
	ReplaceTemplateRows(ctx context.Context, filingID string, templateID filing.TemplateID, rows []filing.Row) (int, error)
	TemplateData(ctx context.Context, filingID string) (map[filing.TemplateID][]filing.Row, error)
	TemplateRowCounts(ctx context.Context, filingID string) ([]TemplateRowCount, error)
	RecordExport(ctx context.Context, rec ExportRecord) error
	ListExports(ctx context.Context, filingID string) ([]ExportRecord, error)
}

// PGStore implements Store on a pgx connection pool.
type PGStore struct {
	db DBTX
}

// NewPGStore creates a store backed by the given pool or transaction.
func NewPGStore(db DBTX) *PGStore {
	return &PGStore{db: db}
}

// EnsureSchema creates the storage tables if they do not exist.
// Called once at startup; safe to call repeatedly.
func (s *PGStore) EnsureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS filings (
    id                UUID PRIMARY KEY,
    name              TEXT NOT NULL,
    entity_id         TEXT NOT NULL,
    ref_period        TEXT NOT NULL,
    base_currency     TEXT NOT NULL,
    decimals_integer  INT NOT NULL DEFAULT 0,
    decimals_monetary INT NOT NULL DEFAULT 2,
    created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS filing_rows (
    filing_id   UUID NOT NULL REFERENCES filings(id) ON DELETE CASCADE,
    template_id TEXT NOT NULL,
    rows        JSONB NOT NULL DEFAULT '[]',
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (filing_id, template_id)
);

CREATE TABLE IF NOT EXISTS exports (
    id           UUID PRIMARY KEY,
    filing_id    UUID NOT NULL REFERENCES filings(id) ON DELETE CASCADE,
    package_name TEXT,
    success      BOOLEAN NOT NULL,
    error        TEXT,
    duration_ms  BIGINT NOT NULL DEFAULT 0,
    exported_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS exports_filing_id_idx ON exports(filing_id, exported_at DESC);
`
	if _, err := s.db.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// CreateFiling stores a new filing and returns it with its generated ID.
func (s *PGStore) CreateFiling(ctx context.Context, name string, params filing.PackageParameters) (Filing, error) {
	id := uuid.New().String()

	const q = `
INSERT INTO filings (id, name, entity_id, ref_period, base_currency, decimals_integer, decimals_monetary)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING created_at, updated_at`

	f := Filing{ID: id, Name: name, Params: params}
	err := s.db.QueryRow(ctx, q, id, name,
		params.EntityID, params.RefPeriod, params.BaseCurrency,
		params.DecimalsInteger, params.DecimalsMonetary,
	).Scan(&f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return Filing{}, fmt.Errorf("create filing: %w", err)
	}
	return f, nil
}

// GetFiling loads a filing by ID.
func (s *PGStore) GetFiling(ctx context.Context, filingID string) (Filing, error) {
	const q = `
SELECT id, name, entity_id, ref_period, base_currency, decimals_integer, decimals_monetary, created_at, updated_at
FROM filings WHERE id = $1`

	var f Filing
	err := s.db.QueryRow(ctx, q, filingID).Scan(
		&f.ID, &f.Name,
		&f.Params.EntityID, &f.Params.RefPeriod, &f.Params.BaseCurrency,
		&f.Params.DecimalsInteger, &f.Params.DecimalsMonetary,
		&f.CreatedAt, &f.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Filing{}, fmt.Errorf("filing not found: %s", filingID)
	}
	if err != nil {
		return Filing{}, fmt.Errorf("get filing: %w", err)
	}
	return f, nil
}

// ListFilings returns all filings, newest first.
func (s *PGStore) ListFilings(ctx context.Context) ([]Filing, error) {
	const q = `
SELECT id, name, entity_id, ref_period, base_currency, decimals_integer, decimals_monetary, created_at, updated_at
FROM filings ORDER BY created_at DESC`

	rows, err := s.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list filings: %w", err)
	}
	defer rows.Close()

	var filings []Filing
	for rows.Next() {
		var f Filing
		if err := rows.Scan(
			&f.ID, &f.Name,
			&f.Params.EntityID, &f.Params.RefPeriod, &f.Params.BaseCurrency,
			&f.Params.DecimalsInteger, &f.Params.DecimalsMonetary,
			&f.CreatedAt, &f.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan filing: %w", err)
		}
		filings = append(filings, f)
	}
	return filings, rows.Err()
}

// ReplaceTemplateRows replaces the full row set for one template of a filing
// and returns the stored row count.
func (s *PGStore) ReplaceTemplateRows(ctx context.Context, filingID string, templateID filing.TemplateID, rows []filing.Row) (int, error) {
	if _, ok := filing.TemplateByID(templateID); !ok {
		return 0, fmt.Errorf("unknown template: %s", templateID)
	}
	if rows == nil {
		rows = []filing.Row{}
	}

	payload, err := json.Marshal(rows)
	if err != nil {
		return 0, fmt.Errorf("encode rows: %w", err)
	}

	const q = `
INSERT INTO filing_rows (filing_id, template_id, rows, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (filing_id, template_id)
DO UPDATE SET rows = EXCLUDED.rows, updated_at = now()`

	if _, err := s.db.Exec(ctx, q, filingID, string(templateID), payload); err != nil {
		return 0, fmt.Errorf("replace template rows: %w", err)
	}

	if _, err := s.db.Exec(ctx, `UPDATE filings SET updated_at = now() WHERE id = $1`, filingID); err != nil {
		return 0, fmt.Errorf("touch filing: %w", err)
	}
	return len(rows), nil
}

// TemplateData loads all stored template rows for a filing. Templates with
// no stored rows are absent from the map; the package builder treats them as
// empty datasets.
func (s *PGStore) TemplateData(ctx context.Context, filingID string) (map[filing.TemplateID][]filing.Row, error) {
	const q = `SELECT template_id, rows FROM filing_rows WHERE filing_id = $1`

	rows, err := s.db.Query(ctx, q, filingID)
	if err != nil {
		return nil, fmt.Errorf("load template data: %w", err)
	}
	defer rows.Close()

	data := make(map[filing.TemplateID][]filing.Row)
	for rows.Next() {
		var templateID string
		var payload []byte
		if err := rows.Scan(&templateID, &payload); err != nil {
			return nil, fmt.Errorf("scan template rows: %w", err)
		}
		var decoded []filing.Row
		if err := json.Unmarshal(payload, &decoded); err != nil {
			return nil, fmt.Errorf("decode rows for %s: %w", templateID, err)
		}
		data[filing.TemplateID(templateID)] = decoded
	}
	return data, rows.Err()
}

// TemplateRowCounts returns the stored row count for every registry
// template, in registry order, including templates with no stored rows.
func (s *PGStore) TemplateRowCounts(ctx context.Context, filingID string) ([]TemplateRowCount, error) {
	const q = `SELECT template_id, jsonb_array_length(rows) FROM filing_rows WHERE filing_id = $1`

	rows, err := s.db.Query(ctx, q, filingID)
	if err != nil {
		return nil, fmt.Errorf("count template rows: %w", err)
	}
	defer rows.Close()

	counts := make(map[filing.TemplateID]int)
	for rows.Next() {
		var templateID string
		var n int
		if err := rows.Scan(&templateID, &n); err != nil {
			return nil, fmt.Errorf("scan row count: %w", err)
		}
		counts[filing.TemplateID(templateID)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]TemplateRowCount, 0, filing.TemplateCount())
	for _, t := range filing.Templates {
		out = append(out, TemplateRowCount{TemplateID: t.ID, RowCount: counts[t.ID]})
	}
	return out, nil
}

// RecordExport appends one entry to a filing's export audit trail.
func (s *PGStore) RecordExport(ctx context.Context, rec ExportRecord) error {
	const q = `
INSERT INTO exports (id, filing_id, package_name, success, error, duration_ms, exported_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.db.Exec(ctx, q,
		rec.ID, rec.FilingID, rec.PackageName, rec.Success, rec.Error, rec.DurationMs, rec.ExportedAt)
	if err != nil {
		return fmt.Errorf("record export: %w", err)
	}
	return nil
}

// ListExports returns a filing's export history, newest first.
func (s *PGStore) ListExports(ctx context.Context, filingID string) ([]ExportRecord, error) {
	const q = `
SELECT id, filing_id, COALESCE(package_name, ''), success, COALESCE(error, ''), duration_ms, exported_at
FROM exports WHERE filing_id = $1 ORDER BY exported_at DESC`

	rows, err := s.db.Query(ctx, q, filingID)
	if err != nil {
		return nil, fmt.Errorf("list exports: %w", err)
	}
	defer rows.Close()

	var records []ExportRecord
	for rows.Next() {
		var rec ExportRecord
		if err := rows.Scan(&rec.ID, &rec.FilingID, &rec.PackageName, &rec.Success, &rec.Error, &rec.DurationMs, &rec.ExportedAt); err != nil {
			return nil, fmt.Errorf("scan export: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
