package printing

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"sort"
	"strings"
	"time"

	"github.com/cotiza/backend/internal/domain/quotation"
	"github.com/shopspring/decimal"
)

//go:embed templates/*.html
var templateFS embed.FS

const quotationTemplate = "quotation.html"

var statusLabels = map[quotation.Status]string{
	quotation.StatusDraft:    "Borrador",
	quotation.StatusSent:     "Enviada",
	quotation.StatusApproved: "Aprobada",
	quotation.StatusRejected: "Rechazada",
}

// Issuer is the company printed in the document header
type Issuer struct {
	Name    string
	Address string
	Phone   string
	Email   string
}

// QuotationView is the data handed to the quotation template
type QuotationView struct {
	Issuer    Issuer
	Quotation *quotation.Quotation
	Items     []quotation.Item
	PrintedAt time.Time
}

// TemplateEngine renders documents from the embedded html/template files
type TemplateEngine struct {
	templates *template.Template
}

// NewTemplateEngine parses the embedded templates. It panics if they are malformed.
func NewTemplateEngine() *TemplateEngine {
	tmpl := template.Must(template.New("").Funcs(funcMap()).ParseFS(templateFS, "templates/*.html"))
	return &TemplateEngine{templates: tmpl}
}

// RenderQuotation returns the HTML document of a quotation. Items are printed by position.
func (e *TemplateEngine) RenderQuotation(q *quotation.Quotation, issuer Issuer, now time.Time) (string, error) {
	if q == nil {
		return "", NewRenderError(ErrCodeTemplateFailed, "quotation is nil", nil)
	}

	items := make([]quotation.Item, len(q.Items))
	copy(items, q.Items)
	sort.SliceStable(items, func(i, j int) bool { return items[i].Position < items[j].Position })

	var buf bytes.Buffer
	err := e.templates.ExecuteTemplate(&buf, quotationTemplate, QuotationView{
		Issuer:    issuer,
		Quotation: q,
		Items:     items,
		PrintedAt: now,
	})
	if err != nil {
		return "", NewRenderError(ErrCodeTemplateFailed, "failed to execute quotation template", err)
	}
	return buf.String(), nil
}

func funcMap() template.FuncMap {
	return template.FuncMap{
		"formatMoney":   formatMoney,
		"formatDecimal": formatDecimal,
		"formatDate":    formatDate,
		"statusLabel":   statusLabel,
		"lines":         lines,
	}
}

// formatMoney renders an amount with dot thousands and comma decimals, e.g. $ 1.234,50
func formatMoney(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	intPart, decPart, _ := strings.Cut(d.StringFixed(2), ".")
	return fmt.Sprintf("%s$ %s,%s", sign, groupThousands(intPart), decPart)
}

// formatDecimal drops trailing zeros and uses a decimal comma
func formatDecimal(d decimal.Decimal) string {
	intPart, decPart, found := strings.Cut(d.String(), ".")
	if !found {
		return groupThousands(intPart)
	}
	return groupThousands(intPart) + "," + decPart
}

func groupThousands(digits string) string {
	var b strings.Builder
	for i, c := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteRune('.')
		}
		b.WriteRune(c)
	}
	return b.String()
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02/01/2006")
}

func statusLabel(s quotation.Status) string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

func lines(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
