package models

import (
	"github.com/cotiza/backend/internal/domain/partner"
)

// ClientModel is the persistence model for the Client domain entity.
type ClientModel struct {
	AggregateModel
	Name                string `gorm:"type:varchar(200);not null;index"`
	NIT                 string `gorm:"column:nit;type:varchar(50);not null;uniqueIndex:uq_clients_nit"`
	LegalRepresentative string `gorm:"type:varchar(200)"`
	Email               string `gorm:"type:varchar(150);not null;uniqueIndex:uq_clients_email"`
	Phone               string `gorm:"type:varchar(20)"`
	AltPhone            string `gorm:"type:varchar(20)"`
	Address             string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ClientModel) TableName() string {
	return "clients"
}

// ToDomain converts the persistence model to a domain Client entity.
func (m *ClientModel) ToDomain() *partner.Client {
	return &partner.Client{
		BaseAggregateRoot:   m.ToDomainAggregateRoot(),
		Name:                m.Name,
		NIT:                 m.NIT,
		LegalRepresentative: m.LegalRepresentative,
		Email:               m.Email,
		Phone:               m.Phone,
		AltPhone:            m.AltPhone,
		Address:             m.Address,
	}
}

// FromDomain populates the persistence model from a domain Client entity.
func (m *ClientModel) FromDomain(c *partner.Client) {
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	m.Name = c.Name
	m.NIT = c.NIT
	m.LegalRepresentative = c.LegalRepresentative
	m.Email = c.Email
	m.Phone = c.Phone
	m.AltPhone = c.AltPhone
	m.Address = c.Address
}

// ClientModelFromDomain creates a new persistence model from a domain Client entity.
func ClientModelFromDomain(c *partner.Client) *ClientModel {
	m := &ClientModel{}
	m.FromDomain(c)
	return m
}
