package storage

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ObjectStorage stores files under slash separated keys
type ObjectStorage interface {
	Upload(ctx context.Context, storageKey string, data []byte, contentType string) error
}

// Content types of archived files
const (
	ContentTypePDF = "application/pdf"
	ContentTypeCSV = "text/csv"
)

// QuotationPDFKey is where the PDF of a quotation is archived, grouped by creation year
func QuotationPDFKey(number string, createdAt time.Time) string {
	return path.Join("quotations", fmt.Sprintf("%04d", createdAt.UTC().Year()), sanitize(number)+".pdf")
}

// ImportKey is where an uploaded CSV is archived, e.g. imports/products/2025/06/10/<id>-stock.csv
func ImportKey(kind string, at time.Time, id uuid.UUID, filename string) string {
	at = at.UTC()
	name := id.String()
	if filename != "" {
		base := path.Base(filename)
		if base = sanitize(strings.TrimSuffix(base, path.Ext(base))); base != "" {
			name += "-" + base
		}
	}
	return path.Join("imports", sanitize(kind), at.Format("2006/01/02"), name+".csv")
}

// sanitize keeps ASCII letters, digits, dash and underscore
func sanitize(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ' || r == '.':
			b.WriteRune('_')
		}
	}
	return b.String()
}
