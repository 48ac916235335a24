package persistence

import (
	"context"
	"fmt"

	"github.com/cotiza/backend/internal/domain/quotation"
	"github.com/cotiza/backend/internal/domain/shared"
	"github.com/cotiza/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const quotationNumberConstraint = "uq_quotations_number"

// GormQuotationRepository implements quotation.Repository using GORM
type GormQuotationRepository struct {
	db *gorm.DB
}

// NewGormQuotationRepository creates a new GormQuotationRepository
func NewGormQuotationRepository(db *gorm.DB) *GormQuotationRepository {
	return &GormQuotationRepository{db: db}
}

func preloadItems(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	})
}

// FindByID finds a quotation by ID with its items
func (r *GormQuotationRepository) FindByID(ctx context.Context, id uuid.UUID) (*quotation.Quotation, error) {
	var model models.QuotationModel
	if err := first(preloadItems(r.db.WithContext(ctx)), &model, "quotation", id, "id = ?", id); err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByNumber finds a quotation by its number with its items
func (r *GormQuotationRepository) FindByNumber(ctx context.Context, number string) (*quotation.Quotation, error) {
	var model models.QuotationModel
	if err := first(preloadItems(r.db.WithContext(ctx)), &model, "quotation", number, "quotation_number = ?", number); err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// Create allocates the next number of the creation year and inserts header and items
// in one transaction. On PostgreSQL concurrent allocations for the same year are
// serialized with a transaction-scoped advisory lock; the unique index on the number
// is the last line of defence and surfaces as quotation.ErrNumberConflict.
func (r *GormQuotationRepository) Create(ctx context.Context, q *quotation.Quotation) error {
	year := q.CreatedAt.UTC().Year()
	var allocated string

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockNumberSequence(tx, year); err != nil {
			return fmt.Errorf("lock quotation sequence: %w", err)
		}
		number, err := nextQuotationNumber(tx, year)
		if err != nil {
			return err
		}

		model := models.QuotationModelFromDomain(q)
		model.QuotationNumber = number
		items := model.Items
		model.Items = nil

		if err := tx.Create(model).Error; err != nil {
			if isUniqueViolation(err, quotationNumberConstraint) {
				return quotation.ErrNumberConflict
			}
			return fmt.Errorf("insert quotation: %w", err)
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return fmt.Errorf("insert quotation items: %w", err)
			}
		}
		allocated = number
		return nil
	})
	if err != nil {
		return err
	}

	if err := q.AssignNumber(allocated); err != nil {
		return err
	}
	q.MarkPersisted()
	return nil
}

// Save updates the header with an optimistic version check and rewrites the items
// when they were replaced
func (r *GormQuotationRepository) Save(ctx context.Context, q *quotation.Quotation) error {
	model := models.QuotationModelFromDomain(q)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := updateVersioned(tx, &models.QuotationModel{}, "quotation", q.ID, q.Version, map[string]any{
			"client_name":     model.ClientName,
			"client_email":    model.ClientEmail,
			"client_phone":    model.ClientPhone,
			"client_address":  model.ClientAddress,
			"client_document": model.ClientDocument,
			"status":          model.Status,
			"valid_until":     model.ValidUntil,
			"subtotal":        model.Subtotal,
			"discount_total":  model.DiscountTotal,
			"tax_total":       model.TaxTotal,
			"total":           model.Total,
			"notes":           model.Notes,
			"internal_notes":  model.InternalNotes,
			"updated_at":      model.UpdatedAt,
		})
		if err != nil {
			return err
		}

		if !q.ItemsReplaced() {
			return nil
		}
		if err := tx.Where("quotation_id = ?", q.ID).Delete(&models.QuotationItemModel{}).Error; err != nil {
			return fmt.Errorf("delete quotation items: %w", err)
		}
		if len(model.Items) > 0 {
			if err := tx.Create(&model.Items).Error; err != nil {
				return fmt.Errorf("insert quotation items: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	q.IncrementVersion()
	q.MarkPersisted()
	return nil
}

// Delete removes the items and then the header in one transaction
func (r *GormQuotationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quotation_id = ?", id).Delete(&models.QuotationItemModel{}).Error; err != nil {
			return fmt.Errorf("delete quotation items: %w", err)
		}
		return deleteByID(tx, &models.QuotationModel{}, "quotation", id)
	})
}

// List returns a filtered page ordered by creation date, newest first
func (r *GormQuotationRepository) List(ctx context.Context, filter quotation.ListFilter) (*shared.Paginated[quotation.Quotation], error) {
	filter.Filter = filter.Filter.Normalize()

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.QuotationModel{}).
		Scopes(quotationFilterScope(filter)).
		Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count quotations: %w", err)
	}

	dir := ValidateSortOrder(filter.OrderDir)
	var rows []models.QuotationModel
	if err := preloadItems(r.db.WithContext(ctx)).
		Scopes(quotationFilterScope(filter)).
		Order(orderClause(filter.OrderBy, QuotationSortFields, "created_at", filter.OrderDir)).
		Order("id " + dir).
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list quotations: %w", err)
	}

	items := make([]quotation.Quotation, len(rows))
	for i := range rows {
		items[i] = *rows[i].ToDomain()
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// CountAll counts every stored quotation
func (r *GormQuotationRepository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.QuotationModel{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// NextNumber previews the number the next quotation of year would get
func (r *GormQuotationRepository) NextNumber(ctx context.Context, year int) (string, error) {
	return nextQuotationNumber(r.db.WithContext(ctx), year)
}

// Stats aggregates count and value per status within scope
func (r *GormQuotationRepository) Stats(ctx context.Context, scope quotation.StatsScope) (quotation.Stats, error) {
	type statusRow struct {
		Status string
		Count  int64
		Value  decimal.Decimal
	}

	query := r.db.WithContext(ctx).Model(&models.QuotationModel{})
	if scope.OwnerID != nil {
		query = query.Where("created_by = ?", *scope.OwnerID)
	}
	if scope.CreatedSince != nil {
		query = query.Where("created_at >= ?", scope.CreatedSince.UTC())
	}

	var rows []statusRow
	if err := query.
		Select("status, COUNT(*) AS count, COALESCE(SUM(total), 0) AS value").
		Group("status").
		Scan(&rows).Error; err != nil {
		return quotation.Stats{}, fmt.Errorf("quotation stats: %w", err)
	}

	byStatus := make(map[quotation.Status]quotation.StatusStats, len(rows))
	for _, row := range rows {
		byStatus[quotation.Status(row.Status)] = quotation.StatusStats{Count: row.Count, Value: row.Value}
	}
	return quotation.NewStats(byStatus), nil
}

// lockNumberSequence serializes number allocation for a year on PostgreSQL.
// Other dialects rely on the unique index and the service retry.
func lockNumberSequence(tx *gorm.DB, year int) error {
	if tx.Dialector.Name() != DriverPostgres {
		return nil
	}
	return tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", quotation.NumberPrefix(year)).Error
}

// nextQuotationNumber reads the greatest number of year. Shorter numbers sort first so
// COT-2025-1000 wins over COT-2025-999.
func nextQuotationNumber(db *gorm.DB, year int) (string, error) {
	var numbers []string
	if err := db.Model(&models.QuotationModel{}).
		Where("quotation_number LIKE ?", quotation.NumberPrefix(year)+"%").
		Order("LENGTH(quotation_number) DESC").
		Order("quotation_number DESC").
		Limit(1).
		Pluck("quotation_number", &numbers).Error; err != nil {
		return "", fmt.Errorf("read last quotation number: %w", err)
	}

	last := ""
	if len(numbers) > 0 {
		last = numbers[0]
	}
	return quotation.NextNumber(year, last)
}

func quotationFilterScope(f quotation.ListFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.Search != "" {
			term := escapeLike(f.Search)
			db = db.Where(`(LOWER(quotation_number) LIKE ? ESCAPE '\' OR LOWER(client_name) LIKE ? ESCAPE '\' OR LOWER(client_email) LIKE ? ESCAPE '\')`,
				term, term, term)
		}
		if f.Number != "" {
			db = db.Where(`LOWER(quotation_number) LIKE ? ESCAPE '\'`, escapeLike(f.Number))
		}
		if f.ClientName != "" {
			db = db.Where(`LOWER(client_name) LIKE ? ESCAPE '\'`, escapeLike(f.ClientName))
		}
		if f.Status != "" {
			db = db.Where("status = ?", f.Status)
		}
		if f.CreatedFrom != nil {
			db = db.Where("created_at >= ?", f.CreatedFrom.UTC())
		}
		if f.CreatedTo != nil {
			db = db.Where("created_at <= ?", f.CreatedTo.UTC())
		}
		if f.TotalMin != nil {
			db = db.Where("total >= ?", *f.TotalMin)
		}
		if f.TotalMax != nil {
			db = db.Where("total <= ?", *f.TotalMax)
		}
		return db
	}
}
