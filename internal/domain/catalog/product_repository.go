package catalog

import (
	"context"

	"github.com/cotiza/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrDuplicateCode is returned when another product already uses the code
var ErrDuplicateCode = shared.NewConflictError("DUPLICATE_PRODUCT_CODE", "A product with this code already exists")

// ProductFilter narrows a product listing. Empty fields are not applied.
type ProductFilter struct {
	shared.Filter
	Category string
	Brand    string
	Supplier string
	Status   ProductStatus
	PriceMin *decimal.Decimal
	PriceMax *decimal.Decimal
}

// ProductStats summarizes the products matching a filter
type ProductStats struct {
	TotalProducts       int64            `json:"total_products"`
	FilteredProducts    int64            `json:"filtered_products"`
	AvailableCount      int64            `json:"available_count"`
	LowStockCount       int64            `json:"low_stock_count"`
	OutOfStockCount     int64            `json:"out_of_stock_count"`
	AveragePrice        decimal.Decimal  `json:"average_price"`
	TotalInventoryValue decimal.Decimal  `json:"total_inventory_value"`
	CategoriesBreakdown map[string]int64 `json:"categories_breakdown"`
	BrandsBreakdown     map[string]int64 `json:"brands_breakdown"`
}

// Facets lists the distinct non-empty grouping values in the catalog
type Facets struct {
	Categories []string `json:"categories"`
	Brands     []string `json:"brands"`
	Suppliers  []string `json:"suppliers"`
}

// ProductPage is a page of products together with the unfiltered count
type ProductPage struct {
	shared.Paginated[Product]
	TotalUnfiltered int64
}

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	// FindByID finds a product by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindByCode finds a product by its unique code
	FindByCode(ctx context.Context, code string) (*Product, error)

	// FindByCodes returns the products whose code is in codes, keyed by code
	FindByCodes(ctx context.Context, codes []string) (map[string]*Product, error)

	// ExistsByCode checks if a product with the given code exists
	ExistsByCode(ctx context.Context, code string) (bool, error)

	// Create inserts a new product
	Create(ctx context.Context, product *Product) error

	// Save updates an existing product
	Save(ctx context.Context, product *Product) error

	// Delete deletes a product
	Delete(ctx context.Context, id uuid.UUID) error

	// List returns a filtered page of products
	List(ctx context.Context, filter ProductFilter) (*ProductPage, error)

	// Stats computes stock and price statistics over the filtered products
	Stats(ctx context.Context, filter ProductFilter) (*ProductStats, error)

	// Facets returns the distinct categories, brands and suppliers
	Facets(ctx context.Context) (*Facets, error)
}
