package partner

import (
	"time"

	"github.com/cotiza/backend/internal/domain/partner"
	"github.com/cotiza/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// CreateClientRequest represents a request to create a new client
type CreateClientRequest struct {
	Name                string `json:"name" binding:"required,max=200"`
	NIT                 string `json:"nit" binding:"required,max=30"`
	LegalRepresentative string `json:"legalRepresentative" binding:"required,max=200"`
	Email               string `json:"email" binding:"required,email,max=150"`
	Phone               string `json:"phone" binding:"required,max=20"`
	AltPhone            string `json:"altPhone" binding:"max=20"`
	Address             string `json:"address" binding:"required,max=500"`
}

// UpdateClientRequest represents a request to update a client
type UpdateClientRequest struct {
	Name                *string `json:"name" binding:"omitempty,max=200"`
	NIT                 *string `json:"nit" binding:"omitempty,max=30"`
	LegalRepresentative *string `json:"legalRepresentative" binding:"omitempty,max=200"`
	Email               *string `json:"email" binding:"omitempty,email,max=150"`
	Phone               *string `json:"phone" binding:"omitempty,max=20"`
	AltPhone            *string `json:"altPhone" binding:"omitempty,max=20"`
	Address             *string `json:"address" binding:"omitempty,max=500"`
}

// ClientListFilter holds the query parameters of the client list
type ClientListFilter struct {
	Search   string `form:"search"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ClientResponse represents a client in API responses
type ClientResponse struct {
	ID                  uuid.UUID `json:"id"`
	Name                string    `json:"name"`
	NIT                 string    `json:"nit"`
	LegalRepresentative string    `json:"legalRepresentative"`
	Email               string    `json:"email"`
	Phone               string    `json:"phone"`
	AltPhone            string    `json:"altPhone"`
	Address             string    `json:"address"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// ClientListResponse is a page of clients
type ClientListResponse struct {
	Items []ClientResponse `json:"items"`
	shared.PageInfo
}

// ToClientResponse converts a domain Client
func ToClientResponse(c *partner.Client) ClientResponse {
	return ClientResponse{
		ID:                  c.ID,
		Name:                c.Name,
		NIT:                 c.NIT,
		LegalRepresentative: c.LegalRepresentative,
		Email:               c.Email,
		Phone:               c.Phone,
		AltPhone:            c.AltPhone,
		Address:             c.Address,
		CreatedAt:           c.CreatedAt,
		UpdatedAt:           c.UpdatedAt,
	}
}

func (r UpdateClientRequest) patch() partner.ClientPatch {
	return partner.ClientPatch{
		Name:                r.Name,
		NIT:                 r.NIT,
		LegalRepresentative: r.LegalRepresentative,
		Email:               r.Email,
		Phone:               r.Phone,
		AltPhone:            r.AltPhone,
		Address:             r.Address,
	}
}
