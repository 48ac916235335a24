// Package quotation implements the quotation use cases: numbering with retry,
// state-gated updates, duplication, statistics and PDF export.
package quotation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/cotiza/backend/internal/domain/quotation"
	"github.com/cotiza/backend/internal/domain/shared"
	"github.com/cotiza/backend/internal/infrastructure/config"
	"github.com/cotiza/backend/internal/infrastructure/logger"
	"github.com/cotiza/backend/internal/infrastructure/printing"
	"github.com/cotiza/backend/internal/infrastructure/storage"
	"github.com/cotiza/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	defaultMaxNumberRetries = 5
	retryInitialInterval    = 10 * time.Millisecond
	retryMaxInterval        = 200 * time.Millisecond
)

// Printer renders a quotation to a PDF document
type Printer interface {
	Print(ctx context.Context, q *quotation.Quotation) (*printing.Document, error)
}

// Service handles quotation business operations
type Service struct {
	repo       quotation.Repository
	tax        quotation.TaxCalculator
	printer    Printer
	archive    storage.ObjectStorage
	metrics    *telemetry.BusinessMetrics
	logger     *zap.Logger
	maxRetries int
	now        func() time.Time
}

// Option configures a Service
type Option func(*Service)

// WithPrinter enables PDF export
func WithPrinter(p Printer) Option {
	return func(s *Service) { s.printer = p }
}

// WithArchive stores every generated PDF in object storage
func WithArchive(store storage.ObjectStorage) Option {
	return func(s *Service) { s.archive = store }
}

// WithMetrics records business metrics
func WithMetrics(m *telemetry.BusinessMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithTaxCalculator replaces the zero tax calculator
func WithTaxCalculator(tax quotation.TaxCalculator) Option {
	return func(s *Service) { s.tax = tax }
}

// NewService creates a new quotation Service
func NewService(repo quotation.Repository, cfg config.QuotationConfig, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		repo:       repo,
		tax:        quotation.ZeroTax{},
		logger:     logger,
		maxRetries: cfg.MaxNumberRetries,
		now:        func() time.Time { return time.Now().UTC() },
	}
	if s.maxRetries <= 0 {
		s.maxRetries = defaultMaxNumberRetries
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create opens a draft quotation owned by the actor and allocates its number
func (s *Service) Create(ctx context.Context, actor Actor, req CreateQuotationRequest) (*QuotationResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "quotation", "create",
		telemetry.SpanAttrUserID, actor.ID,
		telemetry.SpanAttrItemsCount, len(req.Items),
	)
	defer span.End()

	validUntil, err := parseDate("valid_until", req.ValidUntil)
	if err != nil {
		return nil, err
	}

	q, err := quotation.NewQuotation(actor.ID, quotation.NewQuotationInput{
		Client: quotation.ClientSnapshot{
			Name:     req.ClientName,
			Email:    req.ClientEmail,
			Phone:    req.ClientPhone,
			Address:  req.ClientAddress,
			Document: req.ClientDocument,
		},
		ValidUntil:    validUntil,
		Notes:         req.Notes,
		InternalNotes: req.InternalNotes,
		Items:         toItemInputs(req.Items),
	}, s.now(), s.tax)
	if err != nil {
		return nil, err
	}

	if err := s.insertWithRetry(ctx, q); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrQuotationID, q.ID,
		telemetry.SpanAttrQuotationNumber, q.Number,
	)
	s.metrics.RecordQuotationCreated(ctx, q.Total)
	logger.L(ctx).Info("quotation created",
		zap.String("quotation_number", q.Number),
		zap.String("quotation_id", q.ID.String()),
	)

	resp := ToQuotationResponse(q)
	return &resp, nil
}

// insertWithRetry retries number allocation after a lost race with jittered backoff.
// Other errors stop immediately.
func (s *Service) insertWithRetry(ctx context.Context, q *quotation.Quotation) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = retryInitialInterval
	policy.MaxInterval = retryMaxInterval
	policy.RandomizationFactor = 0.5

	attempt := 0
	operation := func() error {
		attempt++
		err := s.repo.Create(ctx, q)
		if err == nil {
			return nil
		}
		if errors.Is(err, quotation.ErrNumberConflict) {
			s.metrics.RecordNumberRetry(ctx)
			telemetry.AddEvent(ctx, "number_conflict", telemetry.SpanAttrAttempt, attempt)
			logger.L(ctx).Warn("quotation number conflict, retrying", zap.Int("attempt", attempt))
			return err
		}
		return backoff.Permanent(err)
	}

	err := backoff.Retry(operation,
		backoff.WithContext(backoff.WithMaxRetries(policy, uint64(s.maxRetries-1)), ctx))
	if errors.Is(err, quotation.ErrNumberConflict) {
		return shared.NewConflictError(quotation.CodeNumberConflict,
			fmt.Sprintf("Could not allocate a quotation number after %d attempts", attempt))
	}
	return err
}

// GetByID returns a quotation with its items
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*QuotationResponse, error) {
	q, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToQuotationResponse(q)
	return &resp, nil
}

// List returns a filtered page of quotations plus the actor's stats
func (s *Service) List(ctx context.Context, actor Actor, f ListQuotationsFilter) (*ListResponse, error) {
	filter, err := toListFilter(f)
	if err != nil {
		return nil, err
	}

	page, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	unfiltered, err := s.repo.CountAll(ctx)
	if err != nil {
		return nil, err
	}
	stats, err := s.repo.Stats(ctx, quotation.StatsScope{OwnerID: &actor.ID})
	if err != nil {
		return nil, err
	}

	items := make([]QuotationResponse, len(page.Items))
	for i := range page.Items {
		items[i] = ToQuotationResponse(&page.Items[i])
	}
	return &ListResponse{
		Items:           items,
		PageInfo:        page.PageInfo,
		TotalUnfiltered: unfiltered,
		Stats:           stats,
		FiltersApplied:  filter.Applied(),
	}, nil
}

func toListFilter(f ListQuotationsFilter) (quotation.ListFilter, error) {
	page := shared.DefaultFilter()
	page.Page, page.PageSize = f.Page, f.PageSize
	filter := quotation.ListFilter{
		Filter:     page.Normalize(),
		Number:     f.QuotationNumber,
		ClientName: f.ClientName,
		Status:     quotation.Status(f.Status),
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		return filter, shared.NewValidationError("status", fmt.Sprintf("unknown status %q", f.Status))
	}
	if f.DateFrom != "" {
		from, err := parseDate("date_from", f.DateFrom)
		if err != nil {
			return filter, err
		}
		filter.CreatedFrom = &from
	}
	if f.DateTo != "" {
		to, err := parseDate("date_to", f.DateTo)
		if err != nil {
			return filter, err
		}
		// inclusive: up to the last instant of that day
		end := to.Add(24*time.Hour - time.Nanosecond)
		filter.CreatedTo = &end
	}
	var err error
	if filter.TotalMin, err = parseAmount("min_total", f.MinTotal); err != nil {
		return filter, err
	}
	if filter.TotalMax, err = parseAmount("max_total", f.MaxTotal); err != nil {
		return filter, err
	}
	return filter, nil
}

// parseAmount reads an optional money filter; empty means unset
func parseAmount(field, value string) (*decimal.Decimal, error) {
	if value == "" {
		return nil, nil
	}
	v, err := decimal.NewFromString(value)
	if err != nil || v.IsNegative() {
		return nil, shared.NewValidationError(field, field+" must be a non-negative amount")
	}
	return &v, nil
}

// Update patches an editable quotation owned by the actor
func (s *Service) Update(ctx context.Context, actor Actor, id uuid.UUID, req UpdateQuotationRequest) (*QuotationResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "quotation", "update",
		telemetry.SpanAttrQuotationID, id,
		telemetry.SpanAttrUserID, actor.ID,
	)
	defer span.End()

	q, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	patch := quotation.DetailsPatch{
		ClientName:     req.ClientName,
		ClientEmail:    req.ClientEmail,
		ClientPhone:    req.ClientPhone,
		ClientAddress:  req.ClientAddress,
		ClientDocument: req.ClientDocument,
		Notes:          req.Notes,
		InternalNotes:  req.InternalNotes,
	}
	if req.ValidUntil != nil {
		validUntil, err := parseDate("valid_until", *req.ValidUntil)
		if err != nil {
			return nil, err
		}
		patch.ValidUntil = &validUntil
	}

	now := s.now()
	if err := q.ApplyDetails(patch, now); err != nil {
		return nil, err
	}
	if req.Items != nil {
		if err := q.ReplaceItems(toItemInputs(req.Items), now, s.tax); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Save(ctx, q); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	resp := ToQuotationResponse(q)
	return &resp, nil
}

// Delete removes a draft quotation owned by the actor
func (s *Service) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	q, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := q.CanDelete(); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	logger.L(ctx).Info("quotation deleted", zap.String("quotation_number", q.Number))
	return nil
}

// ChangeStatus moves a quotation owned by the actor along the lifecycle
func (s *Service) ChangeStatus(ctx context.Context, actor Actor, id uuid.UUID, req ChangeStatusRequest) (*QuotationResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "quotation", "change_status",
		telemetry.SpanAttrQuotationID, id,
		telemetry.SpanAttrQuotationStatus, req.Status,
	)
	defer span.End()

	q, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	from := q.Status
	if err := q.ChangeStatus(quotation.Status(req.Status), actor.Name, req.Notes, s.now()); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, q); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.metrics.RecordStatusTransition(ctx, from.String(), q.Status.String())
	logger.L(ctx).Info("quotation status changed",
		zap.String("quotation_number", q.Number),
		zap.String("from", from.String()),
		zap.String("to", q.Status.String()),
	)

	resp := ToQuotationResponse(q)
	return &resp, nil
}

// Duplicate copies any quotation into a new draft owned by the actor
func (s *Service) Duplicate(ctx context.Context, actor Actor, id uuid.UUID) (*QuotationResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "quotation", "duplicate",
		telemetry.SpanAttrQuotationID, id,
		telemetry.SpanAttrUserID, actor.ID,
	)
	defer span.End()

	source, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dup, err := source.Duplicate(actor.ID, s.now(), s.tax)
	if err != nil {
		return nil, err
	}
	if err := s.insertWithRetry(ctx, dup); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.metrics.RecordQuotationCreated(ctx, dup.Total)
	logger.L(ctx).Info("quotation duplicated",
		zap.String("source_number", source.Number),
		zap.String("quotation_number", dup.Number),
	)

	resp := ToQuotationResponse(dup)
	return &resp, nil
}

// NextNumberPreview returns the number the next quotation of this year would get.
// Nothing is reserved.
func (s *Service) NextNumberPreview(ctx context.Context) (*NextNumberResponse, error) {
	number, err := s.repo.NextNumber(ctx, s.now().Year())
	if err != nil {
		return nil, err
	}
	return &NextNumberResponse{NextNumber: number}, nil
}

// Stats aggregates quotations, optionally only those of ownerID
func (s *Service) Stats(ctx context.Context, ownerID *uuid.UUID) (quotation.Stats, error) {
	return s.repo.Stats(ctx, quotation.StatsScope{OwnerID: ownerID})
}

func (s *Service) loadOwned(ctx context.Context, actor Actor, id uuid.UUID) (*quotation.Quotation, error) {
	q, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := q.CheckOwner(actor.ID); err != nil {
		return nil, err
	}
	return q, nil
}

func parseDate(field, value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, shared.NewValidationError(field, field+" must be a date in YYYY-MM-DD format")
	}
	return t, nil
}
