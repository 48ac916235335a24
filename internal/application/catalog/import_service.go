package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cotiza/backend/internal/domain/catalog"
	"github.com/cotiza/backend/internal/domain/shared"
	"github.com/cotiza/backend/internal/infrastructure/csvimport"
	"github.com/cotiza/backend/internal/infrastructure/logger"
	"github.com/cotiza/backend/internal/infrastructure/storage"
	"github.com/cotiza/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Import kinds, also used as archive folders and metric attributes
const (
	ImportKindProducts = "products"
	ImportKindStock    = "stock"
)

// maxImportErrors caps the row errors returned to the caller; the total is still counted
const maxImportErrors = 100

// ImportProducts creates or updates products from a CSV file. A row whose code
// already exists updates that product, any other row creates a new one.
// Invalid rows are reported with their line number and do not stop the import.
func (s *ProductService) ImportProducts(ctx context.Context, filename string, data []byte) (*ImportResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "catalog", "import_products")
	defer span.End()

	rows, errs, err := csvimport.ReadProductRows(bytes.NewReader(data), maxImportErrors)
	if err != nil {
		return nil, fileError(err)
	}
	result := &ImportResult{
		TotalRows: len(rows) + errs.TotalCount(),
		Created:   []string{},
		Updated:   []string{},
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrImportRows, result.TotalRows)

	existing, err := s.repo.FindByCodes(ctx, rowCodes(rows))
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		code, updated, err := s.importProductRow(ctx, row, existing)
		if err != nil {
			if rowErr, ok := asRowError(row.Line, err); ok {
				errs.Add(rowErr)
				continue
			}
			telemetry.RecordError(span, err)
			return nil, fmt.Errorf("import row %d: %w", row.Line, err)
		}
		if updated {
			result.Updated = append(result.Updated, code)
		} else {
			result.Created = append(result.Created, code)
		}
	}

	s.finishImport(ctx, ImportKindProducts, filename, data, result, errs)
	return result, nil
}

func (s *ProductService) importProductRow(ctx context.Context, row csvimport.ProductRow, existing map[string]*catalog.Product) (string, bool, error) {
	now := s.now()
	in := row.Input

	if product, ok := existing[in.Code]; ok {
		status := in.Status
		patch := catalog.ProductPatch{
			Name:              &in.Name,
			Description:       &in.Description,
			Category:          &in.Category,
			Brand:             &in.Brand,
			Supplier:          &in.Supplier,
			UnitPrice:         &in.UnitPrice,
			ProfitMargin:      &in.ProfitMargin,
			StockQuantity:     &in.StockQuantity,
			MinStock:          &in.MinStock,
			WarehouseLocation: &in.WarehouseLocation,
			Weight:            &in.Weight,
			Dimensions:        &in.Dimensions,
			Status:            &status,
		}
		if err := product.Apply(patch, now); err != nil {
			return "", false, err
		}
		if err := s.repo.Save(ctx, product); err != nil {
			return "", false, err
		}
		return product.Code, true, nil
	}

	code, err := s.resolveCode(ctx, in.Code)
	if err != nil {
		return "", false, err
	}
	in.Code = code
	product, err := catalog.NewProduct(in, now)
	if err != nil {
		return "", false, err
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return "", false, err
	}
	existing[product.Code] = product
	return product.Code, false, nil
}

// ImportStock sets the stock of existing products from a code,stock_quantity CSV.
// Unknown codes are reported as row errors.
func (s *ProductService) ImportStock(ctx context.Context, filename string, data []byte) (*ImportResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "catalog", "import_stock")
	defer span.End()

	rows, errs, err := csvimport.ReadStockRows(bytes.NewReader(data), maxImportErrors)
	if err != nil {
		return nil, fileError(err)
	}
	result := &ImportResult{
		TotalRows: len(rows) + errs.TotalCount(),
		Created:   []string{},
		Updated:   []string{},
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrImportRows, result.TotalRows)

	codes := make([]string, len(rows))
	for i, row := range rows {
		codes[i] = row.Code
	}
	existing, err := s.repo.FindByCodes(ctx, codes)
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		product, ok := existing[row.Code]
		if !ok {
			errs.Add(csvimport.NewRowErrorWithValue(row.Line, "code", csvimport.ErrCodeImportNotFound,
				"no product with this code", row.Code))
			continue
		}
		if err := product.SetStock(row.Quantity, s.now()); err != nil {
			errs.Add(mustRowError(row.Line, err))
			continue
		}
		if err := s.repo.Save(ctx, product); err != nil {
			if rowErr, ok := asRowError(row.Line, err); ok {
				errs.Add(rowErr)
				continue
			}
			telemetry.RecordError(span, err)
			return nil, fmt.Errorf("import row %d: %w", row.Line, err)
		}
		result.Updated = append(result.Updated, product.Code)
	}

	s.finishImport(ctx, ImportKindStock, filename, data, result, errs)
	return result, nil
}

// finishImport fills the error summary, archives the file and records metrics
func (s *ProductService) finishImport(ctx context.Context, kind, filename string, data []byte, result *ImportResult, errs *csvimport.ErrorCollection) {
	result.Errors = errs.Errors()
	result.ErrorRows = errs.TotalCount()
	result.TotalErrors = errs.TotalCount()
	result.IsTruncated = errs.IsTruncated()

	if len(result.Created)+len(result.Updated) > 0 {
		s.invalidate(ctx)
	}

	if s.archive != nil {
		key := storage.ImportKey(kind, s.now(), uuid.New(), filename)
		if err := s.archive.Upload(ctx, key, data, storage.ContentTypeCSV); err != nil {
			logger.L(ctx).Warn("failed to archive import file", zap.String("key", key), zap.Error(err))
		} else {
			result.ArchiveKey = key
		}
	}

	s.metrics.RecordImport(ctx, kind, len(result.Created), len(result.Updated), result.ErrorRows)
	logger.L(ctx).Info("csv import finished",
		zap.String("kind", kind),
		zap.Int("total_rows", result.TotalRows),
		zap.Int("created", len(result.Created)),
		zap.Int("updated", len(result.Updated)),
		zap.Int("error_rows", result.ErrorRows),
	)
}

// fileError turns a file-level parse failure into a validation error on "file"
func fileError(err error) error {
	var missing *csvimport.MissingColumnsError
	switch {
	case errors.As(err, &missing):
		return shared.NewValidationError("file", fmt.Sprintf("Missing required columns: %s", strings.Join(missing.Columns, ", ")))
	case errors.Is(err, csvimport.ErrEmptyFile),
		errors.Is(err, csvimport.ErrMissingHeader),
		errors.Is(err, csvimport.ErrInvalidEncoding),
		errors.Is(err, csvimport.ErrFileTooLarge):
		return shared.NewValidationError("file", err.Error())
	}
	return fmt.Errorf("read csv: %w", err)
}

// asRowError reports a domain error against a row. Other errors are not row errors.
func asRowError(line int, err error) (csvimport.RowError, bool) {
	var de *shared.DomainError
	if !errors.As(err, &de) {
		return csvimport.RowError{}, false
	}
	return mustRowError(line, de), true
}

func mustRowError(line int, err error) csvimport.RowError {
	var de *shared.DomainError
	if !errors.As(err, &de) {
		return csvimport.NewRowError(line, "", csvimport.ErrCodeImportRejected, err.Error())
	}
	column := ""
	for field := range de.Details {
		column = field
		break
	}
	if errors.Is(err, catalog.ErrDuplicateCode) {
		column = "code"
	}
	return csvimport.NewRowError(line, column, csvimport.ErrCodeImportRejected, de.Message)
}

func rowCodes(rows []csvimport.ProductRow) []string {
	codes := make([]string, 0, len(rows))
	for _, row := range rows {
		if row.Input.Code != "" {
			codes = append(codes, row.Input.Code)
		}
	}
	return codes
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
