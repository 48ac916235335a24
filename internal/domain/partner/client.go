package partner

import (
	"net/mail"
	"strings"
	"time"

	"github.com/cotiza/backend/internal/domain/shared"
)

const (
	maxClientNameLength  = 200
	maxClientNITLength   = 30
	maxClientEmailLength = 150
	maxClientPhoneLength = 20
)

// Client is a customer record that quotations may be prepared for
type Client struct {
	shared.BaseAggregateRoot
	Name                string
	NIT                 string
	LegalRepresentative string
	Email               string
	Phone               string
	AltPhone            string
	Address             string
}

// ClientInput holds the values for a new client
type ClientInput struct {
	Name                string
	NIT                 string
	LegalRepresentative string
	Email               string
	Phone               string
	AltPhone            string
	Address             string
}

func (in ClientInput) normalized() ClientInput {
	return ClientInput{
		Name:                strings.TrimSpace(in.Name),
		NIT:                 strings.ToUpper(strings.TrimSpace(in.NIT)),
		LegalRepresentative: strings.TrimSpace(in.LegalRepresentative),
		Email:               strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:               strings.TrimSpace(in.Phone),
		AltPhone:            strings.TrimSpace(in.AltPhone),
		Address:             strings.TrimSpace(in.Address),
	}
}

func (in ClientInput) validate() error {
	if in.Name == "" || len([]rune(in.Name)) > maxClientNameLength {
		return shared.NewValidationError("name", "Client name is required and cannot exceed 200 characters")
	}
	if in.NIT == "" || len(in.NIT) > maxClientNITLength {
		return shared.NewValidationError("nit", "NIT is required and cannot exceed 30 characters")
	}
	if in.LegalRepresentative == "" {
		return shared.NewValidationError("legalRepresentative", "Legal representative is required")
	}
	if in.Email == "" || len(in.Email) > maxClientEmailLength {
		return shared.NewValidationError("email", "Email is required and cannot exceed 150 characters")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return shared.NewValidationError("email", "Email is not a valid address")
	}
	if in.Phone == "" || len(in.Phone) > maxClientPhoneLength {
		return shared.NewValidationError("phone", "Phone is required and cannot exceed 20 characters")
	}
	if len(in.AltPhone) > maxClientPhoneLength {
		return shared.NewValidationError("altPhone", "Alternate phone cannot exceed 20 characters")
	}
	if in.Address == "" {
		return shared.NewValidationError("address", "Address is required")
	}
	return nil
}

// NewClient creates a new client
func NewClient(in ClientInput, now time.Time) (*Client, error) {
	in = in.normalized()
	if err := in.validate(); err != nil {
		return nil, err
	}

	c := &Client{
		BaseAggregateRoot:   shared.NewBaseAggregateRoot(now),
		Name:                in.Name,
		NIT:                 in.NIT,
		LegalRepresentative: in.LegalRepresentative,
		Email:               in.Email,
		Phone:               in.Phone,
		AltPhone:            in.AltPhone,
		Address:             in.Address,
	}
	return c, nil
}

// ClientPatch lists the fields an update may change. Nil means untouched.
type ClientPatch struct {
	Name                *string
	NIT                 *string
	LegalRepresentative *string
	Email               *string
	Phone               *string
	AltPhone            *string
	Address             *string
}

// Apply patches the client after validating the merged result
func (c *Client) Apply(p ClientPatch, now time.Time) error {
	in := c.input()
	if p.Name != nil {
		in.Name = *p.Name
	}
	if p.NIT != nil {
		in.NIT = *p.NIT
	}
	if p.LegalRepresentative != nil {
		in.LegalRepresentative = *p.LegalRepresentative
	}
	if p.Email != nil {
		in.Email = *p.Email
	}
	if p.Phone != nil {
		in.Phone = *p.Phone
	}
	if p.AltPhone != nil {
		in.AltPhone = *p.AltPhone
	}
	if p.Address != nil {
		in.Address = *p.Address
	}

	in = in.normalized()
	if err := in.validate(); err != nil {
		return err
	}

	c.Name = in.Name
	c.NIT = in.NIT
	c.LegalRepresentative = in.LegalRepresentative
	c.Email = in.Email
	c.Phone = in.Phone
	c.AltPhone = in.AltPhone
	c.Address = in.Address
	c.Touch(now)
	return nil
}

func (c *Client) input() ClientInput {
	return ClientInput{
		Name:                c.Name,
		NIT:                 c.NIT,
		LegalRepresentative: c.LegalRepresentative,
		Email:               c.Email,
		Phone:               c.Phone,
		AltPhone:            c.AltPhone,
		Address:             c.Address,
	}
}
