package printing

import (
	"context"
	"fmt"
	"html"
	"time"

	"github.com/cotiza/backend/internal/domain/quotation"
	"go.uber.org/zap"
)

// Document is a rendered quotation ready to be downloaded or archived
type Document struct {
	Filename  string
	Content   []byte
	PageCount int
}

// QuotationPrinter renders quotations to PDF
type QuotationPrinter struct {
	engine   *TemplateEngine
	renderer PDFRenderer
	logger   *zap.Logger
	issuer   Issuer
	now      func() time.Time
}

// PrinterOption configures a QuotationPrinter
type PrinterOption func(*QuotationPrinter)

// WithIssuer sets the company printed in the document header
func WithIssuer(issuer Issuer) PrinterOption {
	return func(p *QuotationPrinter) { p.issuer = issuer }
}

// WithPrinterClock overrides the print timestamp source
func WithPrinterClock(now func() time.Time) PrinterOption {
	return func(p *QuotationPrinter) { p.now = now }
}

// NewQuotationPrinter creates a printer on top of a renderer
func NewQuotationPrinter(engine *TemplateEngine, renderer PDFRenderer, logger *zap.Logger, opts ...PrinterOption) *QuotationPrinter {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &QuotationPrinter{
		engine:   engine,
		renderer: renderer,
		logger:   logger,
		issuer:   Issuer{Name: "Cotiza"},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Print renders q as an A4 portrait PDF
func (p *QuotationPrinter) Print(ctx context.Context, q *quotation.Quotation) (*Document, error) {
	body, err := p.engine.RenderQuotation(q, p.issuer, p.now())
	if err != nil {
		return nil, err
	}

	result, err := p.renderer.Render(ctx, &RenderRequest{
		HTML:        body,
		PaperSize:   PaperSizeA4,
		Orientation: OrientationPortrait,
		Margins:     DefaultMargins(),
		Title:       "Cotización " + q.Number,
		FooterHTML:  pageFooter(q.Number),
	})
	if err != nil {
		p.logger.Warn("quotation pdf rendering failed",
			zap.String("quotation_number", q.Number),
			zap.Error(err))
		return nil, err
	}

	return &Document{
		Filename:  fmt.Sprintf("cotizacion_%s.pdf", q.Number),
		Content:   result.PDFData,
		PageCount: result.PageCount,
	}, nil
}

// pageFooter numbers every page; pageNumber and totalPages are filled in by Chrome
func pageFooter(number string) string {
	return fmt.Sprintf(`<div style="width:100%%;font-size:8px;color:#666;text-align:center">`+
		`%s · Página <span class="pageNumber"></span> de <span class="totalPages"></span></div>`,
		html.EscapeString(number))
}
