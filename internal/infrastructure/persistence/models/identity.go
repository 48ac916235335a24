package models

import (
	"time"

	"github.com/cotiza/backend/internal/domain/identity"
)

// UserModel is the persistence model for the User domain entity.
type UserModel struct {
	AggregateModel
	Email          string `gorm:"type:varchar(150);not null;uniqueIndex:uq_users_email"`
	Name           string `gorm:"type:varchar(100);not null"`
	Age            int    `gorm:"not null"`
	PasswordHash   string `gorm:"type:varchar(255);not null"`
	IsVerified     bool   `gorm:"not null"`
	CompanyName    string `gorm:"type:varchar(200)"`
	CompanyAddress string `gorm:"type:text"`
	Phone          string `gorm:"type:varchar(20)"`
	RecoveryEmail  string `gorm:"type:varchar(150)"`
	City           string `gorm:"type:varchar(100)"`
	BloodType      string `gorm:"type:varchar(5)"`
	LastLoginAt    *time.Time
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain User entity.
func (m *UserModel) ToDomain() *identity.User {
	u := &identity.User{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Email:             m.Email,
		Name:              m.Name,
		Age:               m.Age,
		PasswordHash:      m.PasswordHash,
		IsVerified:        m.IsVerified,
		CompanyName:       m.CompanyName,
		CompanyAddress:    m.CompanyAddress,
		Phone:             m.Phone,
		RecoveryEmail:     m.RecoveryEmail,
		City:              m.City,
		BloodType:         m.BloodType,
	}
	if m.LastLoginAt != nil {
		t := m.LastLoginAt.UTC()
		u.LastLoginAt = &t
	}
	return u
}

// FromDomain populates the persistence model from a domain User entity.
func (m *UserModel) FromDomain(u *identity.User) {
	m.FromDomainAggregateRoot(u.BaseAggregateRoot)
	m.Email = u.Email
	m.Name = u.Name
	m.Age = u.Age
	m.PasswordHash = u.PasswordHash
	m.IsVerified = u.IsVerified
	m.CompanyName = u.CompanyName
	m.CompanyAddress = u.CompanyAddress
	m.Phone = u.Phone
	m.RecoveryEmail = u.RecoveryEmail
	m.City = u.City
	m.BloodType = u.BloodType
	m.LastLoginAt = nil
	if u.LastLoginAt != nil {
		t := u.LastLoginAt.UTC()
		m.LastLoginAt = &t
	}
}

// UserModelFromDomain creates a new persistence model from a domain User entity.
func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{}
	m.FromDomain(u)
	return m
}
