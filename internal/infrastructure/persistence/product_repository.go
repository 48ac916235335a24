package persistence

import (
	"context"
	"fmt"
	"strings"

	"github.com/cotiza/backend/internal/domain/catalog"
	"github.com/cotiza/backend/internal/domain/shared"
	"github.com/cotiza/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormProductRepository implements catalog.ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID finds a product by its ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var model models.ProductModel
	if err := first(r.db.WithContext(ctx), &model, "product", id, "id = ?", id); err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCode finds a product by its code, ignoring case
func (r *GormProductRepository) FindByCode(ctx context.Context, code string) (*catalog.Product, error) {
	var model models.ProductModel
	if err := first(r.db.WithContext(ctx), &model, "product", code, "code = ?", normalizeCode(code)); err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCodes finds the products with the given codes, keyed by upper-cased code
func (r *GormProductRepository) FindByCodes(ctx context.Context, codes []string) (map[string]*catalog.Product, error) {
	result := make(map[string]*catalog.Product, len(codes))
	if len(codes) == 0 {
		return result, nil
	}

	normalized := make([]string, 0, len(codes))
	for _, c := range codes {
		if c = normalizeCode(c); c != "" {
			normalized = append(normalized, c)
		}
	}

	var rows []models.ProductModel
	if err := r.db.WithContext(ctx).Where("code IN ?", normalized).Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		result[rows[i].Code] = rows[i].ToDomain()
	}
	return result, nil
}

// ExistsByCode checks if a product with the given code exists
func (r *GormProductRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ProductModel{}).
		Where("code = ?", normalizeCode(code)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create inserts a new product
func (r *GormProductRepository) Create(ctx context.Context, product *catalog.Product) error {
	if err := r.db.WithContext(ctx).Create(models.ProductModelFromDomain(product)).Error; err != nil {
		if isUniqueViolation(err, "uq_products_code") {
			return catalog.ErrDuplicateCode
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// Save updates an existing product, checking the version it was loaded with
func (r *GormProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	m := models.ProductModelFromDomain(product)
	err := updateVersioned(r.db.WithContext(ctx), &models.ProductModel{}, "product", product.ID, product.Version, map[string]any{
		"code":               m.Code,
		"name":               m.Name,
		"description":        m.Description,
		"category":           m.Category,
		"brand":              m.Brand,
		"supplier":           m.Supplier,
		"unit_price":         m.UnitPrice,
		"profit_margin":      m.ProfitMargin,
		"stock_quantity":     m.StockQuantity,
		"min_stock":          m.MinStock,
		"warehouse_location": m.WarehouseLocation,
		"weight":             m.Weight,
		"dimensions":         m.Dimensions,
		"status":             m.Status,
		"last_stock_update":  m.LastStockUpdate,
		"updated_at":         m.UpdatedAt,
	})
	if isUniqueViolation(err, "uq_products_code") {
		return catalog.ErrDuplicateCode
	}
	if err != nil {
		return err
	}
	product.IncrementVersion()
	return nil
}

func (r *GormProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(r.db.WithContext(ctx), &models.ProductModel{}, "product", id)
}

// List returns a filtered page of products together with the unfiltered count
func (r *GormProductRepository) List(ctx context.Context, filter catalog.ProductFilter) (*catalog.ProductPage, error) {
	filter.Filter = filter.Filter.Normalize()

	var total, filtered int64
	if err := r.db.WithContext(ctx).Model(&models.ProductModel{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}
	if err := r.db.WithContext(ctx).Model(&models.ProductModel{}).
		Scopes(productFilterScope(filter)).
		Count(&filtered).Error; err != nil {
		return nil, fmt.Errorf("count filtered products: %w", err)
	}

	var rows []models.ProductModel
	if err := r.db.WithContext(ctx).
		Scopes(productFilterScope(filter)).
		Order(orderClause(filter.OrderBy, ProductSortFields, "created_at", filter.OrderDir)).
		Order("id " + ValidateSortOrder(filter.OrderDir)).
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	items := make([]catalog.Product, len(rows))
	for i := range rows {
		items[i] = *rows[i].ToDomain()
	}
	return &catalog.ProductPage{
		Paginated:       shared.NewPaginated(items, filtered, filter.Page, filter.PageSize),
		TotalUnfiltered: total,
	}, nil
}

// Stats computes stock and price statistics over the filtered products
func (r *GormProductRepository) Stats(ctx context.Context, filter catalog.ProductFilter) (*catalog.ProductStats, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.ProductModel{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}

	var agg struct {
		Filtered       int64
		Available      int64
		LowStock       int64
		OutOfStock     int64
		AveragePrice   decimal.Decimal
		InventoryValue decimal.Decimal
	}
	if err := r.db.WithContext(ctx).Model(&models.ProductModel{}).
		Scopes(productFilterScope(filter)).
		Select(`COUNT(*) AS filtered,
			COALESCE(SUM(CASE WHEN stock_quantity > 0 AND status = ? THEN 1 ELSE 0 END), 0) AS available,
			COALESCE(SUM(CASE WHEN stock_quantity > 0 AND stock_quantity <= min_stock THEN 1 ELSE 0 END), 0) AS low_stock,
			COALESCE(SUM(CASE WHEN stock_quantity = 0 THEN 1 ELSE 0 END), 0) AS out_of_stock,
			COALESCE(AVG(unit_price), 0) AS average_price,
			COALESCE(SUM(unit_price * stock_quantity), 0) AS inventory_value`, catalog.ProductStatusActive).
		Scan(&agg).Error; err != nil {
		return nil, fmt.Errorf("product stats: %w", err)
	}

	categories, err := r.breakdown(ctx, filter, "category")
	if err != nil {
		return nil, err
	}
	brands, err := r.breakdown(ctx, filter, "brand")
	if err != nil {
		return nil, err
	}

	return &catalog.ProductStats{
		TotalProducts:       total,
		FilteredProducts:    agg.Filtered,
		AvailableCount:      agg.Available,
		LowStockCount:       agg.LowStock,
		OutOfStockCount:     agg.OutOfStock,
		AveragePrice:        agg.AveragePrice.Round(2),
		TotalInventoryValue: agg.InventoryValue.Round(2),
		CategoriesBreakdown: categories,
		BrandsBreakdown:     brands,
	}, nil
}

// Facets returns the distinct non-empty categories, brands and suppliers
func (r *GormProductRepository) Facets(ctx context.Context) (*catalog.Facets, error) {
	facets := &catalog.Facets{}
	for column, dest := range map[string]*[]string{
		"category": &facets.Categories,
		"brand":    &facets.Brands,
		"supplier": &facets.Suppliers,
	} {
		values := make([]string, 0)
		if err := r.db.WithContext(ctx).Model(&models.ProductModel{}).
			Where(column + " <> ''").
			Distinct(column).
			Order(column).
			Pluck(column, &values).Error; err != nil {
			return nil, fmt.Errorf("product %s facet: %w", column, err)
		}
		*dest = values
	}
	return facets, nil
}

// breakdown counts filtered products per value of column, skipping empty values.
// column is one of the fixed grouping columns, never user input.
func (r *GormProductRepository) breakdown(ctx context.Context, filter catalog.ProductFilter, column string) (map[string]int64, error) {
	var rows []struct {
		Label string
		Count int64
	}
	if err := r.db.WithContext(ctx).Model(&models.ProductModel{}).
		Scopes(productFilterScope(filter)).
		Where(column + " <> ''").
		Select(column + " AS label, COUNT(*) AS count").
		Group(column).
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("product %s breakdown: %w", column, err)
	}

	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Label] = row.Count
	}
	return out, nil
}

func productFilterScope(f catalog.ProductFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.Search != "" {
			term := escapeLike(f.Search)
			db = db.Where(`(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(code) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\')`,
				term, term, term)
		}
		if f.Category != "" {
			db = db.Where("LOWER(category) = ?", strings.ToLower(strings.TrimSpace(f.Category)))
		}
		if f.Brand != "" {
			db = db.Where("LOWER(brand) = ?", strings.ToLower(strings.TrimSpace(f.Brand)))
		}
		if f.Supplier != "" {
			db = db.Where("LOWER(supplier) = ?", strings.ToLower(strings.TrimSpace(f.Supplier)))
		}
		if f.Status != "" {
			db = db.Where("status = ?", f.Status)
		}
		if f.PriceMin != nil {
			db = db.Where("unit_price >= ?", *f.PriceMin)
		}
		if f.PriceMax != nil {
			db = db.Where("unit_price <= ?", *f.PriceMax)
		}
		return db
	}
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
