package models

import (
	"time"

	"github.com/cotiza/backend/internal/domain/quotation"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// QuotationModel is the persistence model for the Quotation aggregate root.
type QuotationModel struct {
	OwnedAggregateModel
	QuotationNumber string               `gorm:"type:varchar(30);not null;uniqueIndex:uq_quotations_number"`
	ClientName      string               `gorm:"type:varchar(200);not null;index"`
	ClientEmail     string               `gorm:"type:varchar(150);not null"`
	ClientPhone     string               `gorm:"type:varchar(20)"`
	ClientAddress   string               `gorm:"type:text"`
	ClientDocument  string               `gorm:"type:varchar(50)"`
	Status          quotation.Status     `gorm:"type:varchar(20);not null;index"`
	ValidUntil      time.Time            `gorm:"type:date;not null"`
	Subtotal        decimal.Decimal      `gorm:"type:decimal(18,2);not null"`
	DiscountTotal   decimal.Decimal      `gorm:"type:decimal(18,2);not null"`
	TaxTotal        decimal.Decimal      `gorm:"type:decimal(18,2);not null"`
	Total           decimal.Decimal      `gorm:"type:decimal(18,2);not null;index"`
	Notes           string               `gorm:"type:text"`
	InternalNotes   string               `gorm:"type:text"`
	Items           []QuotationItemModel `gorm:"foreignKey:QuotationID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (QuotationModel) TableName() string {
	return "quotations"
}

// ToDomain converts the persistence model to a domain Quotation.
// Items are ordered by position.
func (m *QuotationModel) ToDomain() *quotation.Quotation {
	q := &quotation.Quotation{
		OwnedAggregateRoot: m.ToDomainOwnedAggregateRoot(),
		Number:             m.QuotationNumber,
		Client: quotation.ClientSnapshot{
			Name:     m.ClientName,
			Email:    m.ClientEmail,
			Phone:    m.ClientPhone,
			Address:  m.ClientAddress,
			Document: m.ClientDocument,
		},
		Status:        m.Status,
		ValidUntil:    dateUTC(m.ValidUntil),
		Subtotal:      m.Subtotal,
		DiscountTotal: m.DiscountTotal,
		TaxTotal:      m.TaxTotal,
		Total:         m.Total,
		Notes:         m.Notes,
		InternalNotes: m.InternalNotes,
		Items:         make([]quotation.Item, len(m.Items)),
	}
	for i := range m.Items {
		q.Items[i] = m.Items[i].ToDomain()
	}
	return q
}

// FromDomain populates the persistence model from a domain Quotation.
func (m *QuotationModel) FromDomain(q *quotation.Quotation) {
	m.FromDomainOwnedAggregateRoot(q.OwnedAggregateRoot)
	m.QuotationNumber = q.Number
	m.ClientName = q.Client.Name
	m.ClientEmail = q.Client.Email
	m.ClientPhone = q.Client.Phone
	m.ClientAddress = q.Client.Address
	m.ClientDocument = q.Client.Document
	m.Status = q.Status
	m.ValidUntil = dateUTC(q.ValidUntil)
	m.Subtotal = q.Subtotal
	m.DiscountTotal = q.DiscountTotal
	m.TaxTotal = q.TaxTotal
	m.Total = q.Total
	m.Notes = q.Notes
	m.InternalNotes = q.InternalNotes
	m.Items = make([]QuotationItemModel, len(q.Items))
	for i := range q.Items {
		m.Items[i] = QuotationItemModelFromDomain(q.ID, q.Items[i])
	}
}

// QuotationModelFromDomain creates a new persistence model from a domain Quotation.
func QuotationModelFromDomain(q *quotation.Quotation) *QuotationModel {
	m := &QuotationModel{}
	m.FromDomain(q)
	return m
}

// QuotationItemModel is the persistence model for a quotation line.
type QuotationItemModel struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primary_key"`
	QuotationID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID          *uuid.UUID      `gorm:"type:uuid"`
	ProductName        string          `gorm:"type:varchar(200);not null"`
	ProductDescription string          `gorm:"type:text"`
	ProductCode        string          `gorm:"type:varchar(50)"`
	Quantity           decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice          decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	DiscountPercentage decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	Subtotal           decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	DiscountAmount     decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Total              decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Position           int             `gorm:"not null"`
	CreatedAt          time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (QuotationItemModel) TableName() string {
	return "quotation_items"
}

// ToDomain converts the persistence model to a domain Item.
func (m *QuotationItemModel) ToDomain() quotation.Item {
	return quotation.Item{
		ID:                 m.ID,
		QuotationID:        m.QuotationID,
		ProductID:          m.ProductID,
		ProductName:        m.ProductName,
		ProductDescription: m.ProductDescription,
		ProductCode:        m.ProductCode,
		Quantity:           m.Quantity,
		UnitPrice:          m.UnitPrice,
		DiscountPercentage: m.DiscountPercentage,
		Subtotal:           m.Subtotal,
		DiscountAmount:     m.DiscountAmount,
		Total:              m.Total,
		Position:           m.Position,
	}
}

// QuotationItemModelFromDomain creates a persistence model for an item of quotationID.
func QuotationItemModelFromDomain(quotationID uuid.UUID, item quotation.Item) QuotationItemModel {
	return QuotationItemModel{
		ID:                 item.ID,
		QuotationID:        quotationID,
		ProductID:          item.ProductID,
		ProductName:        item.ProductName,
		ProductDescription: item.ProductDescription,
		ProductCode:        item.ProductCode,
		Quantity:           item.Quantity,
		UnitPrice:          item.UnitPrice,
		DiscountPercentage: item.DiscountPercentage,
		Subtotal:           item.Subtotal,
		DiscountAmount:     item.DiscountAmount,
		Total:              item.Total,
		Position:           item.Position,
	}
}

func dateUTC(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
}
