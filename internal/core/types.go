package core

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/regline/roi-filing/internal/filing"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// ExportPhase indicates the current stage of export processing.
type ExportPhase string

const (
	PhaseStarting  ExportPhase = "starting"
	PhaseLoading   ExportPhase = "loading"
	PhaseRendering ExportPhase = "rendering"
	PhaseComplete  ExportPhase = "complete"
	PhaseFailed    ExportPhase = "failed"
	PhaseCancelled ExportPhase = "cancelled"
)

// ExportProgress represents the current state of an export job.
type ExportProgress struct {
	ExportID string            `json:"exportId"`
	FilingID string            `json:"filingId"`
	Phase    ExportPhase       `json:"phase"`
	Template filing.TemplateID `json:"template,omitempty"` // last template rendered
	Rendered int               `json:"rendered"`           // templates added to the archive so far
	Error    string            `json:"error,omitempty"`    // non-empty if Phase is PhaseFailed
}

// Percent returns the progress as a percentage (0-100) over the fixed
// template denominator, so progress is stable across exports of any size.
func (p ExportProgress) Percent() int {
	if p.Phase == PhaseComplete {
		return 100
	}
	return (p.Rendered * 100) / filing.TemplateCount()
}

// ExportJobResult is the final outcome of an export job: the builder result
// plus job-level timing.
type ExportJobResult struct {
	ExportID string              `json:"exportId"`
	FilingID string              `json:"filingId"`
	Result   filing.ExportResult `json:"result"`
	Duration time.Duration       `json:"duration"`
}

// ProgressCallback is called for each progress update during an export.
type ProgressCallback func(ExportProgress)

// Filing is a stored filing with its parameters.
type Filing struct {
	ID        string                   `json:"id"`
	Name      string                   `json:"name"`
	Params    filing.PackageParameters `json:"params"`
	CreatedAt time.Time                `json:"createdAt"`
	UpdatedAt time.Time                `json:"updatedAt"`
}

// ExportRecord is one entry in a filing's export audit trail.
type ExportRecord struct {
	ID          string    `json:"id"`
	FilingID    string    `json:"filingId"`
	PackageName string    `json:"packageName,omitempty"`
	Success     bool      `json:"success"`
	Error       string    `json:"error,omitempty"`
	DurationMs  int64     `json:"durationMs"`
	ExportedAt  time.Time `json:"exportedAt"`
}

// TemplateRowCount pairs a template with the number of stored rows.
type TemplateRowCount struct {
	TemplateID filing.TemplateID `json:"templateId"`
	RowCount   int               `json:"rowCount"`
}
