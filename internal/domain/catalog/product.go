package catalog

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/cotiza/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ProductStatus represents the status of a product
type ProductStatus string

const (
	ProductStatusActive       ProductStatus = "active"
	ProductStatusInactive     ProductStatus = "inactive"
	ProductStatusDiscontinued ProductStatus = "discontinued"
)

// IsValid checks if the status is a known value
func (s ProductStatus) IsValid() bool {
	switch s {
	case ProductStatusActive, ProductStatusInactive, ProductStatusDiscontinued:
		return true
	}
	return false
}

const (
	productCodePrefix    = "PRD"
	maxProductCodeLength = 50
	minProductNameLength = 2
	maxProductNameLength = 255
)

var hundred = decimal.NewFromInt(100)

// GenerateProductCode returns a random PRD code. Callers check uniqueness.
func GenerateProductCode() string {
	return fmt.Sprintf("%s%06d", productCodePrefix, rand.IntN(1_000_000))
}

// Product represents a catalog item with its stock level
type Product struct {
	shared.BaseAggregateRoot
	Code              string
	Name              string
	Description       string
	Category          string
	Brand             string
	Supplier          string
	UnitPrice         decimal.Decimal
	ProfitMargin      decimal.Decimal
	StockQuantity     int
	MinStock          int
	WarehouseLocation string
	Weight            string
	Dimensions        string
	Status            ProductStatus
	LastStockUpdate   *time.Time
}

// ProductInput holds the values for a new product. An empty Code is generated.
type ProductInput struct {
	Code              string
	Name              string
	Description       string
	Category          string
	Brand             string
	Supplier          string
	UnitPrice         decimal.Decimal
	ProfitMargin      decimal.Decimal
	StockQuantity     int
	MinStock          int
	WarehouseLocation string
	Weight            string
	Dimensions        string
	Status            ProductStatus
}

// NewProduct creates a new product
func NewProduct(in ProductInput, now time.Time) (*Product, error) {
	code := strings.ToUpper(strings.TrimSpace(in.Code))
	if code == "" {
		code = GenerateProductCode()
	}
	if err := validateProductCode(code); err != nil {
		return nil, err
	}
	if err := validateProductName(in.Name); err != nil {
		return nil, err
	}
	if err := validatePricing(in.UnitPrice, in.ProfitMargin); err != nil {
		return nil, err
	}
	if in.StockQuantity < 0 {
		return nil, shared.NewValidationError("stock_quantity", "Stock quantity cannot be negative")
	}
	if in.MinStock < 0 {
		return nil, shared.NewValidationError("min_stock", "Minimum stock cannot be negative")
	}

	status := in.Status
	if status == "" {
		status = ProductStatusActive
	}
	if !status.IsValid() {
		return nil, shared.NewValidationError("product_status", fmt.Sprintf("unknown product status %q", status))
	}

	p := &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(now),
		Code:              code,
		Name:              strings.TrimSpace(in.Name),
		Description:       strings.TrimSpace(in.Description),
		Category:          strings.TrimSpace(in.Category),
		Brand:             strings.TrimSpace(in.Brand),
		Supplier:          strings.TrimSpace(in.Supplier),
		UnitPrice:         in.UnitPrice,
		ProfitMargin:      in.ProfitMargin,
		StockQuantity:     in.StockQuantity,
		MinStock:          in.MinStock,
		WarehouseLocation: strings.TrimSpace(in.WarehouseLocation),
		Weight:            strings.TrimSpace(in.Weight),
		Dimensions:        strings.TrimSpace(in.Dimensions),
		Status:            status,
	}
	if p.StockQuantity > 0 {
		p.LastStockUpdate = &now
	}
	return p, nil
}

// ProductPatch lists the fields an update may change. Nil means untouched.
type ProductPatch struct {
	Name              *string
	Description       *string
	Category          *string
	Brand             *string
	Supplier          *string
	UnitPrice         *decimal.Decimal
	ProfitMargin      *decimal.Decimal
	StockQuantity     *int
	MinStock          *int
	WarehouseLocation *string
	Weight            *string
	Dimensions        *string
	Status            *ProductStatus
}

// Apply patches the product. The whole patch is validated before anything changes.
func (p *Product) Apply(patch ProductPatch, now time.Time) error {
	next := *p

	if patch.Name != nil {
		if err := validateProductName(*patch.Name); err != nil {
			return err
		}
		next.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		next.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Category != nil {
		next.Category = strings.TrimSpace(*patch.Category)
	}
	if patch.Brand != nil {
		next.Brand = strings.TrimSpace(*patch.Brand)
	}
	if patch.Supplier != nil {
		next.Supplier = strings.TrimSpace(*patch.Supplier)
	}
	if patch.UnitPrice != nil {
		next.UnitPrice = *patch.UnitPrice
	}
	if patch.ProfitMargin != nil {
		next.ProfitMargin = *patch.ProfitMargin
	}
	if err := validatePricing(next.UnitPrice, next.ProfitMargin); err != nil {
		return err
	}
	if patch.MinStock != nil {
		if *patch.MinStock < 0 {
			return shared.NewValidationError("min_stock", "Minimum stock cannot be negative")
		}
		next.MinStock = *patch.MinStock
	}
	if patch.WarehouseLocation != nil {
		next.WarehouseLocation = strings.TrimSpace(*patch.WarehouseLocation)
	}
	if patch.Weight != nil {
		next.Weight = strings.TrimSpace(*patch.Weight)
	}
	if patch.Dimensions != nil {
		next.Dimensions = strings.TrimSpace(*patch.Dimensions)
	}
	if patch.Status != nil {
		if !patch.Status.IsValid() {
			return shared.NewValidationError("product_status", fmt.Sprintf("unknown product status %q", *patch.Status))
		}
		next.Status = *patch.Status
	}
	if patch.StockQuantity != nil {
		if err := next.SetStock(*patch.StockQuantity, now); err != nil {
			return err
		}
	}

	next.Touch(now)
	*p = next
	return nil
}

// AddStock increases the stock level
func (p *Product) AddStock(quantity int, now time.Time) error {
	if quantity <= 0 {
		return shared.NewValidationError("quantity", "Quantity must be greater than 0")
	}
	p.StockQuantity += quantity
	p.touchStock(now)
	return nil
}

// RemoveStock decreases the stock level, failing when not enough is on hand
func (p *Product) RemoveStock(quantity int, now time.Time) error {
	if quantity <= 0 {
		return shared.NewValidationError("quantity", "Quantity must be greater than 0")
	}
	if quantity > p.StockQuantity {
		return shared.NewDomainError(shared.ErrInsufficientStock.Code,
			fmt.Sprintf("Insufficient stock: requested %d, available %d", quantity, p.StockQuantity))
	}
	p.StockQuantity -= quantity
	p.touchStock(now)
	return nil
}

// SetStock replaces the stock level
func (p *Product) SetStock(quantity int, now time.Time) error {
	if quantity < 0 {
		return shared.NewValidationError("stock_quantity", "Stock quantity cannot be negative")
	}
	p.StockQuantity = quantity
	p.touchStock(now)
	return nil
}

func (p *Product) touchStock(now time.Time) {
	p.LastStockUpdate = &now
	p.Touch(now)
}

// IsAvailable reports whether the product can be sold
func (p *Product) IsAvailable() bool {
	return p.StockQuantity > 0 && p.Status == ProductStatusActive
}

// IsLowStock reports whether stock is positive but at or below the threshold
func (p *Product) IsLowStock() bool {
	return p.StockQuantity > 0 && p.StockQuantity <= p.MinStock
}

// IsOutOfStock reports whether no stock is left
func (p *Product) IsOutOfStock() bool {
	return p.StockQuantity == 0
}

// InventoryValue is unit price times stock on hand
func (p *Product) InventoryValue() decimal.Decimal {
	return p.UnitPrice.Mul(decimal.NewFromInt(int64(p.StockQuantity)))
}

func validateProductCode(code string) error {
	if code == "" {
		return shared.NewValidationError("code", "Product code cannot be empty")
	}
	if len(code) > maxProductCodeLength {
		return shared.NewValidationError("code", "Product code cannot exceed 50 characters")
	}
	for _, r := range code {
		if !((r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_') {
			return shared.NewValidationError("code", "Product code can only contain letters, numbers, hyphens, and underscores")
		}
	}
	return nil
}

func validateProductName(name string) error {
	n := len([]rune(strings.TrimSpace(name)))
	if n < minProductNameLength || n > maxProductNameLength {
		return shared.NewValidationError("name",
			fmt.Sprintf("Product name must be between %d and %d characters", minProductNameLength, maxProductNameLength))
	}
	return nil
}

func validatePricing(price, margin decimal.Decimal) error {
	if !price.IsPositive() {
		return shared.NewValidationError("unit_price", "Unit price must be greater than 0")
	}
	if margin.IsNegative() || margin.GreaterThan(hundred) {
		return shared.NewValidationError("profit_margin", "Profit margin must be between 0 and 100")
	}
	return nil
}
