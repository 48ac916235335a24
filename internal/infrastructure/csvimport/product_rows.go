package csvimport

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cotiza/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Column aliases accepted on import, mapped to the canonical column
var columnAliases = map[string]string{
	"price":    "unit_price",
	"status":   "product_status",
	"stock":    "stock_quantity",
	"quantity": "stock_quantity",
}

// ProductRow is a validated product line from an import file
type ProductRow struct {
	Line  int
	Input catalog.ProductInput
}

// StockRow is a validated stock line from an import file
type StockRow struct {
	Line     int
	Code     string
	Quantity int
}

// ReadProductRows parses a product CSV. Rows failing validation are reported
// in the returned collection and left out of the result.
func ReadProductRows(r io.Reader, maxErrors int) ([]ProductRow, *ErrorCollection, error) {
	rows, errs, err := readRows(r, maxErrors, []string{"name", "unit_price"})
	if err != nil {
		return nil, nil, err
	}

	title := cases.Title(language.Spanish)
	seen := make(map[string]int)
	out := make([]ProductRow, 0, len(rows))
	for _, row := range rows {
		in, ok := decodeProduct(row, errs, title)
		if !ok {
			continue
		}
		if in.Code != "" {
			if first, dup := seen[in.Code]; dup {
				errs.Add(NewRowErrorWithValue(row.LineNumber, "code", ErrCodeImportDuplicate,
					fmt.Sprintf("code already used on row %d", first), in.Code))
				continue
			}
			seen[in.Code] = row.LineNumber
		}
		out = append(out, ProductRow{Line: row.LineNumber, Input: in})
	}
	return out, errs, nil
}

func decodeProduct(row *Row, errs *ErrorCollection, title cases.Caser) (catalog.ProductInput, bool) {
	line := row.LineNumber
	in := catalog.ProductInput{
		Code:              strings.ToUpper(row.Get("code")),
		Name:              row.Get("name"),
		Description:       row.Get("description"),
		Category:          titleCase(title, row.Get("category")),
		Brand:             titleCase(title, row.Get("brand")),
		Supplier:          row.Get("supplier"),
		WarehouseLocation: row.Get("warehouse_location"),
		Weight:            row.Get("weight"),
		Dimensions:        row.Get("dimensions"),
		Status:            catalog.ProductStatus(strings.ToLower(row.GetOrDefault("product_status", string(catalog.ProductStatusActive)))),
	}

	if in.Name == "" {
		errs.AddRequiredError(line, "name")
		return in, false
	}

	price, err := decimal.NewFromString(normalizeNumber(row.Get("unit_price")))
	if err != nil {
		errs.AddTypeError(line, "unit_price", "a valid number", row.Get("unit_price"))
		return in, false
	}
	if !price.IsPositive() {
		errs.AddRangeError(line, "unit_price", "must be greater than 0", row.Get("unit_price"))
		return in, false
	}
	in.UnitPrice = price

	margin, err := decimal.NewFromString(normalizeNumber(row.GetOrDefault("profit_margin", "0")))
	if err != nil {
		errs.AddTypeError(line, "profit_margin", "a valid number", row.Get("profit_margin"))
		return in, false
	}
	in.ProfitMargin = margin

	stock, ok := parseCount(row, "stock_quantity", errs)
	if !ok {
		return in, false
	}
	in.StockQuantity = stock

	minStock, ok := parseCount(row, "min_stock", errs)
	if !ok {
		return in, false
	}
	in.MinStock = minStock

	if !in.Status.IsValid() {
		errs.AddRangeError(line, "product_status", "must be active, inactive or discontinued", string(in.Status))
		return in, false
	}
	return in, true
}

// ReadStockRows parses a stock CSV of code and stock_quantity columns
func ReadStockRows(r io.Reader, maxErrors int) ([]StockRow, *ErrorCollection, error) {
	rows, errs, err := readRows(r, maxErrors, []string{"code", "stock_quantity"})
	if err != nil {
		return nil, nil, err
	}

	seen := make(map[string]int)
	out := make([]StockRow, 0, len(rows))
	for _, row := range rows {
		code := strings.ToUpper(row.Get("code"))
		if code == "" {
			errs.AddRequiredError(row.LineNumber, "code")
			continue
		}
		if row.Get("stock_quantity") == "" {
			errs.AddRequiredError(row.LineNumber, "stock_quantity")
			continue
		}
		qty, ok := parseCount(row, "stock_quantity", errs)
		if !ok {
			continue
		}
		if first, dup := seen[code]; dup {
			errs.Add(NewRowErrorWithValue(row.LineNumber, "code", ErrCodeImportDuplicate,
				fmt.Sprintf("code already used on row %d", first), code))
			continue
		}
		seen[code] = row.LineNumber
		out = append(out, StockRow{Line: row.LineNumber, Code: code, Quantity: qty})
	}
	return out, errs, nil
}

func readRows(r io.Reader, maxErrors int, required []string) ([]*Row, *ErrorCollection, error) {
	parser, err := NewCSVParser(r)
	if err != nil {
		return nil, nil, err
	}
	if err := parser.ParseHeader(); err != nil {
		return nil, nil, err
	}
	parser.applyAliases()
	if missing := parser.ValidateHeaders(required); len(missing) > 0 {
		return nil, nil, &MissingColumnsError{Columns: missing}
	}

	errs := NewErrorCollection(maxErrors)
	return parser.ReadAllRows(errs), errs, nil
}

// applyAliases maps alias headers onto canonical names that are not present
func (p *CSVParser) applyAliases() {
	for alias, canonical := range columnAliases {
		idx, ok := p.headerMap[alias]
		if !ok || p.HasHeader(canonical) {
			continue
		}
		p.headerMap[canonical] = idx
		delete(p.headerMap, alias)
	}
}

// parseCount reads a non-negative integer column, treating empty as 0
func parseCount(row *Row, column string, errs *ErrorCollection) (int, bool) {
	raw := row.GetOrDefault(column, "0")
	n, err := strconv.Atoi(raw)
	if err != nil {
		errs.AddTypeError(row.LineNumber, column, "a whole number", raw)
		return 0, false
	}
	if n < 0 {
		errs.AddRangeError(row.LineNumber, column, "cannot be negative", raw)
		return 0, false
	}
	return n, true
}

// normalizeNumber accepts a decimal comma when no dot is present ("12,50")
func normalizeNumber(s string) string {
	s = strings.TrimSpace(s)
	if strings.Contains(s, ",") && !strings.Contains(s, ".") {
		return strings.Replace(s, ",", ".", 1)
	}
	return s
}

func titleCase(c cases.Caser, s string) string {
	if s == "" {
		return s
	}
	return c.String(strings.ToLower(s))
}
