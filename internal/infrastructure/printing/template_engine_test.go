package printing

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/cotiza/backend/internal/domain/quotation"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var printTestNow = time.Date(2025, 6, 10, 15, 0, 0, 0, time.UTC)

func newPrintableQuotation(t *testing.T) *quotation.Quotation {
	t.Helper()
	q, err := quotation.NewQuotation(uuid.New(), quotation.NewQuotationInput{
		Client: quotation.ClientSnapshot{
			Name:     "Ferretería <El Tornillo>",
			Email:    "compras@eltornillo.co",
			Phone:    "3005551234",
			Document: "900123456-7",
		},
		ValidUntil: printTestNow.AddDate(0, 0, 30),
		Notes:      "Entrega en 5 días\nPago a 30 días",
		Items: []quotation.ItemInput{
			{ProductName: "Taladro percutor", ProductCode: "TAL-01", Quantity: decimal.NewFromInt(2),
				UnitPrice: decimal.NewFromInt(1250000), DiscountPercentage: decimal.NewFromInt(10)},
			{ProductName: "Broca 1/4", Quantity: decimal.RequireFromString("1.5"), UnitPrice: decimal.RequireFromString("8500.50")},
		},
	}, printTestNow, quotation.ZeroTax{})
	require.NoError(t, err)
	require.NoError(t, q.AssignNumber("COT-2025-014"))
	return q
}

func TestTemplateEngine_RenderQuotation(t *testing.T) {
	engine := NewTemplateEngine()
	q := newPrintableQuotation(t)
	// stored order must not matter
	q.Items[0], q.Items[1] = q.Items[1], q.Items[0]

	html, err := engine.RenderQuotation(q, Issuer{Name: "Cotiza S.A.S.", Phone: "6015550000"}, printTestNow)
	require.NoError(t, err)

	assert.Contains(t, html, "<title>Cotización COT-2025-014</title>")
	assert.Contains(t, html, "Cotiza S.A.S.")
	assert.Contains(t, html, "Tel. 6015550000")
	assert.Contains(t, html, "Ferretería &lt;El Tornillo&gt;")
	assert.Contains(t, html, "Válida hasta</td><td>10/07/2025")
	assert.Contains(t, html, "Borrador")
	assert.Contains(t, html, "$ 2.250.000,00")
	assert.Contains(t, html, "1,5")
	assert.Contains(t, html, "<div>Pago a 30 días</div>")
	assert.Less(t, strings.Index(html, "Taladro percutor"), strings.Index(html, "Broca 1/4"))
}

func TestTemplateEngine_RenderQuotation_Nil(t *testing.T) {
	_, err := NewTemplateEngine().RenderQuotation(nil, Issuer{}, printTestNow)
	assertRenderCode(t, err, ErrCodeTemplateFailed)
}

func TestFormatters(t *testing.T) {
	assert.Equal(t, "$ 0,00", formatMoney(decimal.Zero))
	assert.Equal(t, "$ 999,90", formatMoney(decimal.RequireFromString("999.9")))
	assert.Equal(t, "$ 1.234.567,89", formatMoney(decimal.RequireFromString("1234567.891")))
	assert.Equal(t, "-$ 1.000,00", formatMoney(decimal.NewFromInt(-1000)))
	assert.Equal(t, "12", formatDecimal(decimal.NewFromInt(12)))
	assert.Equal(t, "1.500,25", formatDecimal(decimal.RequireFromString("1500.25")))
	assert.Equal(t, "", formatDate(time.Time{}))
	assert.Equal(t, "Aprobada", statusLabel(quotation.StatusApproved))
	assert.Nil(t, lines("  "))
}

type fakeRenderer struct {
	req *RenderRequest
	err error
}

func (f *fakeRenderer) Render(_ context.Context, req *RenderRequest) (*RenderResult, error) {
	f.req = req
	if f.err != nil {
		return nil, f.err
	}
	return &RenderResult{PDFData: []byte("%PDF-1.4 fake"), PageCount: 1}, nil
}

func (f *fakeRenderer) Close() error { return nil }

func TestQuotationPrinter_Print(t *testing.T) {
	renderer := &fakeRenderer{}
	printer := NewQuotationPrinter(NewTemplateEngine(), renderer, nil,
		WithIssuer(Issuer{Name: "Cotiza S.A.S."}),
		WithPrinterClock(func() time.Time { return printTestNow }))

	doc, err := printer.Print(context.Background(), newPrintableQuotation(t))
	require.NoError(t, err)

	assert.Equal(t, "cotizacion_COT-2025-014.pdf", doc.Filename)
	assert.Equal(t, []byte("%PDF-1.4 fake"), doc.Content)
	assert.Equal(t, 1, doc.PageCount)
	require.NotNil(t, renderer.req)
	assert.Equal(t, PaperSizeA4, renderer.req.PaperSize)
	assert.Equal(t, "Cotización COT-2025-014", renderer.req.Title)
	assert.Contains(t, renderer.req.HTML, "Generado el 10/06/2025")
	assert.Contains(t, renderer.req.FooterHTML, "COT-2025-014 · Página")
	assert.Contains(t, renderer.req.FooterHTML, `class="totalPages"`)
}

func TestQuotationPrinter_PropagatesRendererError(t *testing.T) {
	printer := NewQuotationPrinter(NewTemplateEngine(), DisabledRenderer{}, nil)
	_, err := printer.Print(context.Background(), newPrintableQuotation(t))
	assertRenderCode(t, err, ErrCodeRendererDisabled)
}
