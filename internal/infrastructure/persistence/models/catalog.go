package models

import (
	"time"

	"github.com/cotiza/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// ProductModel is the persistence model for the Product domain entity.
type ProductModel struct {
	AggregateModel
	Code              string                `gorm:"type:varchar(50);not null;uniqueIndex:uq_products_code"`
	Name              string                `gorm:"type:varchar(255);not null;index"`
	Description       string                `gorm:"type:text"`
	Category          string                `gorm:"type:varchar(100);index"`
	Brand             string                `gorm:"type:varchar(100);index"`
	Supplier          string                `gorm:"type:varchar(200)"`
	UnitPrice         decimal.Decimal       `gorm:"type:decimal(18,2);not null"`
	ProfitMargin      decimal.Decimal       `gorm:"type:decimal(5,2);not null"`
	StockQuantity     int                   `gorm:"not null"`
	MinStock          int                   `gorm:"not null"`
	WarehouseLocation string                `gorm:"type:varchar(100)"`
	Weight            string                `gorm:"type:varchar(50)"`
	Dimensions        string                `gorm:"type:varchar(100)"`
	Status            catalog.ProductStatus `gorm:"type:varchar(20);not null;index"`
	LastStockUpdate   *time.Time
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product entity.
func (m *ProductModel) ToDomain() *catalog.Product {
	p := &catalog.Product{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Code:              m.Code,
		Name:              m.Name,
		Description:       m.Description,
		Category:          m.Category,
		Brand:             m.Brand,
		Supplier:          m.Supplier,
		UnitPrice:         m.UnitPrice,
		ProfitMargin:      m.ProfitMargin,
		StockQuantity:     m.StockQuantity,
		MinStock:          m.MinStock,
		WarehouseLocation: m.WarehouseLocation,
		Weight:            m.Weight,
		Dimensions:        m.Dimensions,
		Status:            m.Status,
	}
	if m.LastStockUpdate != nil {
		t := m.LastStockUpdate.UTC()
		p.LastStockUpdate = &t
	}
	return p
}

// FromDomain populates the persistence model from a domain Product entity.
func (m *ProductModel) FromDomain(p *catalog.Product) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.Code = p.Code
	m.Name = p.Name
	m.Description = p.Description
	m.Category = p.Category
	m.Brand = p.Brand
	m.Supplier = p.Supplier
	m.UnitPrice = p.UnitPrice
	m.ProfitMargin = p.ProfitMargin
	m.StockQuantity = p.StockQuantity
	m.MinStock = p.MinStock
	m.WarehouseLocation = p.WarehouseLocation
	m.Weight = p.Weight
	m.Dimensions = p.Dimensions
	m.Status = p.Status
	m.LastStockUpdate = nil
	if p.LastStockUpdate != nil {
		t := p.LastStockUpdate.UTC()
		m.LastStockUpdate = &t
	}
}

// ProductModelFromDomain creates a new persistence model from a domain Product entity.
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}
