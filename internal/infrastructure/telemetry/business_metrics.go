package telemetry

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when no meter is supplied.
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// BusinessMetrics counts quotation and catalog activity.
// A nil *BusinessMetrics is valid and records nothing.
type BusinessMetrics struct {
	quotationsCreated metric.Int64Counter
	statusTransitions metric.Int64Counter
	quotationValue    metric.Float64Histogram
	productsImported  metric.Int64Counter
	importRowErrors   metric.Int64Counter
	numberRetries     metric.Int64Counter
}

// NewBusinessMetrics registers the instruments on meter.
func NewBusinessMetrics(meter metric.Meter) (*BusinessMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	bm := &BusinessMetrics{}
	var err error

	if bm.quotationsCreated, err = meter.Int64Counter(
		"cotiza_quotations_created_total",
		metric.WithDescription("Total number of quotations created"),
		metric.WithUnit("{quotations}"),
	); err != nil {
		return nil, err
	}
	if bm.statusTransitions, err = meter.Int64Counter(
		"cotiza_quotation_status_transitions_total",
		metric.WithDescription("Quotation status changes by source and target status"),
		metric.WithUnit("{transitions}"),
	); err != nil {
		return nil, err
	}
	if bm.quotationValue, err = meter.Float64Histogram(
		"cotiza_quotation_total_value",
		metric.WithDescription("Document total of created quotations"),
		metric.WithUnit("{currency}"),
	); err != nil {
		return nil, err
	}
	if bm.productsImported, err = meter.Int64Counter(
		"cotiza_products_imported_total",
		metric.WithDescription("Products written by CSV imports"),
		metric.WithUnit("{products}"),
	); err != nil {
		return nil, err
	}
	if bm.importRowErrors, err = meter.Int64Counter(
		"cotiza_import_row_errors_total",
		metric.WithDescription("CSV import rows rejected"),
		metric.WithUnit("{rows}"),
	); err != nil {
		return nil, err
	}
	if bm.numberRetries, err = meter.Int64Counter(
		"cotiza_quotation_number_retries_total",
		metric.WithDescription("Quotation creations retried after a number conflict"),
		metric.WithUnit("{retries}"),
	); err != nil {
		return nil, err
	}

	return bm, nil
}

// RecordQuotationCreated counts a new quotation and observes its total.
func (bm *BusinessMetrics) RecordQuotationCreated(ctx context.Context, total decimal.Decimal) {
	if bm == nil {
		return
	}
	bm.quotationsCreated.Add(ctx, 1)
	bm.quotationValue.Record(ctx, total.InexactFloat64())
}

// RecordStatusTransition counts a quotation status change.
func (bm *BusinessMetrics) RecordStatusTransition(ctx context.Context, from, to string) {
	if bm == nil {
		return
	}
	bm.statusTransitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

// RecordNumberRetry counts one retry caused by a quotation number collision.
func (bm *BusinessMetrics) RecordNumberRetry(ctx context.Context) {
	if bm == nil {
		return
	}
	bm.numberRetries.Add(ctx, 1)
}

// RecordImport records the outcome of a CSV import. kind is "products" or "stock".
func (bm *BusinessMetrics) RecordImport(ctx context.Context, kind string, created, updated, rejected int) {
	if bm == nil {
		return
	}
	kindAttr := attribute.String("kind", kind)
	if created > 0 {
		bm.productsImported.Add(ctx, int64(created), metric.WithAttributes(kindAttr, attribute.String("result", "created")))
	}
	if updated > 0 {
		bm.productsImported.Add(ctx, int64(updated), metric.WithAttributes(kindAttr, attribute.String("result", "updated")))
	}
	if rejected > 0 {
		bm.importRowErrors.Add(ctx, int64(rejected), metric.WithAttributes(kindAttr))
	}
}
