package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/regline/roi-filing/internal/filing"
)

// Options configures a Service. Zero values fall back to the package
// defaults, so tests can construct a Service with Options{}.
type Options struct {
	// MaxConcurrent caps parallel export builds.
	MaxConcurrent int
	// MaxWait is how long StartExport waits for an export slot.
	MaxWait time.Duration
	// ExportTimeout bounds a single export build.
	ExportTimeout time.Duration
	// JobRetention is how long finished jobs stay queryable.
	JobRetention time.Duration
	// Generator names this system in export metadata.
	Generator string
	// DefaultCurrency is the bare ISO 4217 code applied to new filings.
	DefaultCurrency string
	// DecimalsInteger and DecimalsMonetary are the default declared
	// precision for new filings.
	DecimalsInteger  int
	DecimalsMonetary int
}

// DefaultExportTimeout bounds a single export build unless configured.
const DefaultExportTimeout = 5 * time.Minute

// DefaultJobRetention is how long finished jobs stay queryable unless
// configured.
const DefaultJobRetention = time.Hour

// Service provides the core business logic for filing management and
// package exports.
type Service struct {
	store   Store
	limiter *ExportLimiter
	opts    Options

	mu      sync.RWMutex
	exports map[string]*activeExport
}

type activeExport struct {
	ID         string
	FilingID   string
	Cancel     context.CancelFunc
	Progress   ExportProgress
	Result     *ExportJobResult
	Done       chan struct{}
	Listeners  []chan ExportProgress
	ListenerMu sync.Mutex
}

// NewService creates a new Service instance.
func NewService(store Store, opts Options) *Service {
	if opts.ExportTimeout <= 0 {
		opts.ExportTimeout = DefaultExportTimeout
	}
	if opts.JobRetention <= 0 {
		opts.JobRetention = DefaultJobRetention
	}
	if opts.DefaultCurrency == "" {
		opts.DefaultCurrency = "EUR"
	}
	if opts.Generator == "" {
		opts.Generator = "roi-filing"
	}

	return &Service{
		store:   store,
		limiter: NewExportLimiter(opts.MaxConcurrent, opts.MaxWait),
		opts:    opts,
		exports: make(map[string]*activeExport),
	}
}

// Limiter exposes the export limiter for graceful shutdown draining.
func (s *Service) Limiter() *ExportLimiter {
	return s.limiter
}

// ListTemplates returns the fixed template registry.
func (s *Service) ListTemplates() []filing.Template {
	return filing.Templates
}

// NewFilingParams builds default package parameters for a bare legal
// identifier, applying the configured currency and precision defaults.
func (s *Service) NewFilingParams(legalID string, refDate ...time.Time) filing.PackageParameters {
	p := filing.DefaultParameters(legalID, refDate...)
	p.BaseCurrency = "iso4217:" + s.opts.DefaultCurrency
	p.DecimalsInteger = s.opts.DecimalsInteger
	p.DecimalsMonetary = s.opts.DecimalsMonetary
	return p
}

// CreateFiling stores a new filing.
func (s *Service) CreateFiling(ctx context.Context, name string, params filing.PackageParameters) (Filing, error) {
	if name == "" {
		name = params.LegalID() + " " + params.RefPeriod
	}
	return s.store.CreateFiling(ctx, name, params)
}

// GetFiling loads a filing by ID.
func (s *Service) GetFiling(ctx context.Context, filingID string) (Filing, error) {
	return s.store.GetFiling(ctx, filingID)
}

// ListFilings returns all filings, newest first.
func (s *Service) ListFilings(ctx context.Context) ([]Filing, error) {
	return s.store.ListFilings(ctx)
}

// ReplaceTemplateRows replaces the full row set for one template and
// returns the stored row count.
func (s *Service) ReplaceTemplateRows(ctx context.Context, filingID string, templateID filing.TemplateID, rows []filing.Row) (int, error) {
	if _, err := s.store.GetFiling(ctx, filingID); err != nil {
		return 0, err
	}
	return s.store.ReplaceTemplateRows(ctx, filingID, templateID, rows)
}

// TemplateRowCounts returns the stored row count for every template of a
// filing, in registry order.
func (s *Service) TemplateRowCounts(ctx context.Context, filingID string) ([]TemplateRowCount, error) {
	if _, err := s.store.GetFiling(ctx, filingID); err != nil {
		return nil, err
	}
	return s.store.TemplateRowCounts(ctx, filingID)
}

// ValidateFiling checks a filing's parameters against the submission rules
// and returns every violation.
func (s *Service) ValidateFiling(ctx context.Context, filingID string) (filing.ValidationResult, error) {
	f, err := s.store.GetFiling(ctx, filingID)
	if err != nil {
		return filing.ValidationResult{}, err
	}
	return filing.ValidateParameters(f.Params), nil
}

// ListExports returns a filing's export audit trail.
func (s *Service) ListExports(ctx context.Context, filingID string) ([]ExportRecord, error) {
	if _, err := s.store.GetFiling(ctx, filingID); err != nil {
		return nil, err
	}
	return s.store.ListExports(ctx, filingID)
}

// notifyProgress sends progress updates to all listeners.
func (e *activeExport) notifyProgress() {
	e.ListenerMu.Lock()
	defer e.ListenerMu.Unlock()

	for _, ch := range e.Listeners {
		select {
		case ch <- e.Progress:
		default:
			// Listener is slow, skip this update
		}
	}
}

// closeListeners closes all listener channels.
func (e *activeExport) closeListeners() {
	e.ListenerMu.Lock()
	defer e.ListenerMu.Unlock()

	for _, ch := range e.Listeners {
		close(ch)
	}
	e.Listeners = nil
}

// cleanup removes the export job from tracking after a delay.
func (s *Service) cleanup(exportID string, delay time.Duration) {
	time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.exports, exportID)
		s.mu.Unlock()
	})
}

// lookupExport returns the tracked job or a not-found error.
func (s *Service) lookupExport(exportID string) (*activeExport, error) {
	s.mu.RLock()
	job, ok := s.exports[exportID]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("export not found: %s", exportID)
	}
	return job, nil
}
