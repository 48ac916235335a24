package catalog

import (
	"time"

	"github.com/cotiza/backend/internal/domain/catalog"
	"github.com/cotiza/backend/internal/domain/shared"
	"github.com/cotiza/backend/internal/infrastructure/csvimport"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateProductRequest represents a request to create a new product.
// An empty code is generated as PRD followed by six digits.
type CreateProductRequest struct {
	Code              string          `json:"code" binding:"max=50"`
	Name              string          `json:"name" binding:"required,min=2,max=255"`
	Description       string          `json:"description" binding:"max=2000"`
	Category          string          `json:"category" binding:"max=100"`
	Brand             string          `json:"brand" binding:"max=100"`
	Supplier          string          `json:"supplier" binding:"max=200"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	ProfitMargin      decimal.Decimal `json:"profit_margin"`
	StockQuantity     int             `json:"stock_quantity" binding:"min=1"`
	MinStock          int             `json:"min_stock" binding:"min=0"`
	WarehouseLocation string          `json:"warehouse_location" binding:"max=100"`
	Weight            string          `json:"weight" binding:"max=50"`
	Dimensions        string          `json:"dimensions" binding:"max=100"`
	Status            string          `json:"product_status" binding:"omitempty,oneof=active inactive discontinued"`
}

// UpdateProductRequest represents a request to update a product. Nil fields are left untouched.
type UpdateProductRequest struct {
	Name              *string          `json:"name" binding:"omitempty,min=2,max=255"`
	Description       *string          `json:"description" binding:"omitempty,max=2000"`
	Category          *string          `json:"category" binding:"omitempty,max=100"`
	Brand             *string          `json:"brand" binding:"omitempty,max=100"`
	Supplier          *string          `json:"supplier" binding:"omitempty,max=200"`
	UnitPrice         *decimal.Decimal `json:"unit_price"`
	ProfitMargin      *decimal.Decimal `json:"profit_margin"`
	StockQuantity     *int             `json:"stock_quantity" binding:"omitempty,min=0"`
	MinStock          *int             `json:"min_stock" binding:"omitempty,min=0"`
	WarehouseLocation *string          `json:"warehouse_location" binding:"omitempty,max=100"`
	Weight            *string          `json:"weight" binding:"omitempty,max=50"`
	Dimensions        *string          `json:"dimensions" binding:"omitempty,max=100"`
	Status            *string          `json:"product_status" binding:"omitempty,oneof=active inactive discontinued"`
}

// StockRequest adds or removes units of stock
type StockRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

// ProductListFilter holds the query parameters of the product list
type ProductListFilter struct {
	Page     int      `form:"page" binding:"omitempty,min=1"`
	PageSize int      `form:"page_size" binding:"omitempty,min=1,max=100"`
	Search   string   `form:"search"`
	OrderBy  string   `form:"order_by"`
	OrderDir string   `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Category string   `form:"category"`
	Brand    string   `form:"brand"`
	Supplier string   `form:"supplier"`
	Status   string   `form:"product_status" binding:"omitempty,oneof=active inactive discontinued"`
	PriceMin *float64 `form:"price_min" binding:"omitempty,min=0"`
	PriceMax *float64 `form:"price_max" binding:"omitempty,min=0"`
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID                uuid.UUID       `json:"id"`
	Code              string          `json:"code"`
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	Category          string          `json:"category"`
	Brand             string          `json:"brand"`
	Supplier          string          `json:"supplier"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	ProfitMargin      decimal.Decimal `json:"profit_margin"`
	StockQuantity     int             `json:"stock_quantity"`
	MinStock          int             `json:"min_stock"`
	WarehouseLocation string          `json:"warehouse_location"`
	Weight            string          `json:"weight"`
	Dimensions        string          `json:"dimensions"`
	Status            string          `json:"product_status"`
	IsAvailable       bool            `json:"is_available"`
	IsLowStock        bool            `json:"is_low_stock"`
	LastStockUpdate   *time.Time      `json:"last_stock_update"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	Version           int             `json:"version"`
}

// ProductListResponse is a page of products
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	shared.PageInfo
	TotalUnfiltered int64 `json:"totalUnfiltered"`
}

// ImportResult summarizes a CSV import. Row numbers count the header as row 1.
type ImportResult struct {
	TotalRows   int                  `json:"total_rows"`
	Created     []string             `json:"created"`
	Updated     []string             `json:"updated"`
	ErrorRows   int                  `json:"error_rows"`
	Errors      []csvimport.RowError `json:"errors"`
	TotalErrors int                  `json:"total_errors"`
	IsTruncated bool                 `json:"is_truncated,omitempty"`
	ArchiveKey  string               `json:"archive_key,omitempty"`
}

// ToProductResponse converts a domain Product
func ToProductResponse(p *catalog.Product) ProductResponse {
	return ProductResponse{
		ID:                p.ID,
		Code:              p.Code,
		Name:              p.Name,
		Description:       p.Description,
		Category:          p.Category,
		Brand:             p.Brand,
		Supplier:          p.Supplier,
		UnitPrice:         p.UnitPrice,
		ProfitMargin:      p.ProfitMargin,
		StockQuantity:     p.StockQuantity,
		MinStock:          p.MinStock,
		WarehouseLocation: p.WarehouseLocation,
		Weight:            p.Weight,
		Dimensions:        p.Dimensions,
		Status:            string(p.Status),
		IsAvailable:       p.IsAvailable(),
		IsLowStock:        p.IsLowStock(),
		LastStockUpdate:   p.LastStockUpdate,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
		Version:           p.Version,
	}
}

// ToProductResponses converts a slice of domain products
func ToProductResponses(products []catalog.Product) []ProductResponse {
	out := make([]ProductResponse, len(products))
	for i := range products {
		out[i] = ToProductResponse(&products[i])
	}
	return out
}

func (r UpdateProductRequest) patch() catalog.ProductPatch {
	p := catalog.ProductPatch{
		Name:              r.Name,
		Description:       r.Description,
		Category:          r.Category,
		Brand:             r.Brand,
		Supplier:          r.Supplier,
		UnitPrice:         r.UnitPrice,
		ProfitMargin:      r.ProfitMargin,
		StockQuantity:     r.StockQuantity,
		MinStock:          r.MinStock,
		WarehouseLocation: r.WarehouseLocation,
		Weight:            r.Weight,
		Dimensions:        r.Dimensions,
	}
	if r.Status != nil {
		status := catalog.ProductStatus(*r.Status)
		p.Status = &status
	}
	return p
}

func (f ProductListFilter) domain() catalog.ProductFilter {
	filter := catalog.ProductFilter{
		Filter: shared.Filter{
			Page:     f.Page,
			PageSize: f.PageSize,
			OrderBy:  f.OrderBy,
			OrderDir: f.OrderDir,
			Search:   f.Search,
		}.Normalize(),
		Category: f.Category,
		Brand:    f.Brand,
		Supplier: f.Supplier,
		Status:   catalog.ProductStatus(f.Status),
	}
	if f.PriceMin != nil {
		v := decimal.NewFromFloat(*f.PriceMin)
		filter.PriceMin = &v
	}
	if f.PriceMax != nil {
		v := decimal.NewFromFloat(*f.PriceMax)
		filter.PriceMax = &v
	}
	return filter
}
