package core

// export.go runs export jobs: asynchronous package builds with progress
// streaming, cancellation, and an audit record per attempt.
//
// The builder itself is pure and has no cancellation primitive, so
// cancellation is checked at the phase boundaries around it. A single build
// renders 15 CSV documents and compresses them in memory; the window where
// a cancel cannot take effect is short.

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/regline/roi-filing/internal/filing"
)

// StartExport begins an asynchronous export of a filing.
// Returns the export ID immediately. Use SubscribeProgress to get updates.
//
// Returns ErrTooManyExports if the concurrent export limit is reached and no
// slot becomes available within the timeout period.
func (s *Service) StartExport(ctx context.Context, filingID string) (string, error) {
	f, err := s.store.GetFiling(ctx, filingID)
	if err != nil {
		return "", err
	}

	// Acquire export slot (blocks until available or timeout)
	if err := s.limiter.Acquire(ctx); err != nil {
		return "", err
	}

	exportID := uuid.New().String()
	exportCtx, cancel := context.WithTimeout(context.Background(), s.opts.ExportTimeout)

	job := &activeExport{
		ID:       exportID,
		FilingID: filingID,
		Cancel:   cancel,
		Progress: ExportProgress{
			ExportID: exportID,
			FilingID: filingID,
			Phase:    PhaseStarting,
		},
		Done:      make(chan struct{}),
		Listeners: make([]chan ExportProgress, 0),
	}

	s.mu.Lock()
	s.exports[exportID] = job
	s.mu.Unlock()

	// Process in background with panic recovery to ensure limiter release
	go func() {
		defer s.limiter.Release()
		defer func() {
			if r := recover(); r != nil {
				slog.Error("panic in export",
					"export_id", exportID,
					"filing_id", filingID,
					"panic", r,
				)
				job.Progress.Phase = PhaseFailed
				job.Progress.Error = fmt.Sprintf("internal error: %v", r)
				job.notifyProgress()
				job.closeListeners()
				close(job.Done)
				s.cleanup(exportID, s.opts.JobRetention)
			}
		}()
		s.processExport(exportCtx, job, f)
	}()

	return exportID, nil
}

// processExport runs one export job to completion.
func (s *Service) processExport(ctx context.Context, job *activeExport, f Filing) {
	defer job.Cancel()
	started := time.Now()

	logger := slog.Default().With("export_id", job.ID, "filing_id", job.FilingID)
	logger.Info("export started", "entity", f.Params.EntityID, "ref_period", f.Params.RefPeriod)

	finish := func(result filing.ExportResult) {
		jobResult := &ExportJobResult{
			ExportID: job.ID,
			FilingID: job.FilingID,
			Result:   result,
			Duration: time.Since(started),
		}
		job.Result = jobResult

		switch {
		case result.Success:
			job.Progress.Phase = PhaseComplete
			job.Progress.Rendered = filing.TemplateCount()
			logger.Info("export completed",
				"package", result.PackageName,
				"duration_ms", jobResult.Duration.Milliseconds(),
			)
		case ctx.Err() != nil:
			job.Progress.Phase = PhaseCancelled
			job.Progress.Error = firstError(result)
			logger.Info("export cancelled")
		default:
			job.Progress.Phase = PhaseFailed
			job.Progress.Error = firstError(result)
			logger.Error("export failed", "error", job.Progress.Error)
		}
		job.notifyProgress()

		s.recordExport(jobResult)

		job.closeListeners()
		close(job.Done)
		s.cleanup(job.ID, s.opts.JobRetention)
	}

	// Load the full dataset for the filing
	job.Progress.Phase = PhaseLoading
	job.notifyProgress()

	data, err := s.store.TemplateData(ctx, job.FilingID)
	if err != nil {
		finish(filing.ExportResult{
			Timestamp: time.Now().UTC(),
			Errors:    []string{fmt.Sprintf("load filing data: %v", err)},
		})
		return
	}

	if ctx.Err() != nil {
		finish(filing.ExportResult{
			Timestamp: time.Now().UTC(),
			Errors:    []string{"export cancelled"},
		})
		return
	}

	// Build the package, streaming per-template progress to listeners
	job.Progress.Phase = PhaseRendering
	job.notifyProgress()

	result := filing.BuildPackage(f.Params, data, filing.BuildOptions{
		Generator: s.opts.Generator,
		Progress: func(id filing.TemplateID, percent int) {
			job.Progress.Template = id
			job.Progress.Rendered++
			job.notifyProgress()
		},
	})

	if ctx.Err() != nil && result.Success {
		// Cancelled after the build finished; discard the archive
		result = filing.ExportResult{
			Timestamp: result.Timestamp,
			Errors:    []string{"export cancelled"},
		}
	}

	finish(result)
}

// recordExport appends the audit record for a finished job. Failure to
// write the record is logged but does not fail the export.
func (s *Service) recordExport(jobResult *ExportJobResult) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rec := ExportRecord{
		ID:          uuid.New().String(),
		FilingID:    jobResult.FilingID,
		PackageName: jobResult.Result.PackageName,
		Success:     jobResult.Result.Success,
		Error:       firstError(jobResult.Result),
		DurationMs:  jobResult.Duration.Milliseconds(),
		ExportedAt:  time.Now().UTC(),
	}
	if err := s.store.RecordExport(ctx, rec); err != nil {
		slog.Error("record export audit entry", "export_id", jobResult.ExportID, "error", err)
	}
}

// firstError returns the first error string of a failed result, or "".
func firstError(result filing.ExportResult) string {
	if len(result.Errors) == 0 {
		return ""
	}
	return result.Errors[0]
}

// SubscribeProgress returns a channel that receives progress updates.
// The channel is closed when the export completes.
func (s *Service) SubscribeProgress(exportID string) (<-chan ExportProgress, error) {
	job, err := s.lookupExport(exportID)
	if err != nil {
		return nil, err
	}

	ch := make(chan ExportProgress, 10)

	job.ListenerMu.Lock()
	job.Listeners = append(job.Listeners, ch)
	// Send current progress immediately
	select {
	case ch <- job.Progress:
	default:
	}
	job.ListenerMu.Unlock()

	return ch, nil
}

// CancelExport cancels an in-progress export.
func (s *Service) CancelExport(exportID string) error {
	job, err := s.lookupExport(exportID)
	if err != nil {
		return err
	}

	job.Cancel()
	return nil
}

// GetExportResult returns the result of a completed export.
// Blocks until the export completes if still in progress.
func (s *Service) GetExportResult(exportID string) (*ExportJobResult, error) {
	job, err := s.lookupExport(exportID)
	if err != nil {
		return nil, err
	}

	<-job.Done

	return job.Result, nil
}

// GetExportProgress returns the current progress without blocking.
func (s *Service) GetExportProgress(exportID string) (ExportProgress, error) {
	job, err := s.lookupExport(exportID)
	if err != nil {
		return ExportProgress{}, err
	}

	return job.Progress, nil
}
