package quotation

import (
	"time"

	"github.com/cotiza/backend/internal/domain/quotation"
	"github.com/cotiza/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// dateLayout is the wire format of valid_until and the date filters
const dateLayout = "2006-01-02"

// Actor is the authenticated user performing an operation
type Actor struct {
	ID   uuid.UUID
	Name string
}

// ItemRequest is one quotation line as sent by the client
type ItemRequest struct {
	ProductID          *uuid.UUID      `json:"product_id"`
	ProductName        string          `json:"product_name" binding:"required,min=1,max=200"`
	ProductDescription string          `json:"product_description"`
	ProductCode        string          `json:"product_code" binding:"max=50"`
	Quantity           decimal.Decimal `json:"quantity"`
	UnitPrice          decimal.Decimal `json:"unit_price"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
}

// CreateQuotationRequest represents a request to create a quotation
type CreateQuotationRequest struct {
	ClientName     string        `json:"client_name" binding:"required,min=2,max=200"`
	ClientEmail    string        `json:"client_email" binding:"required,email,max=150"`
	ClientPhone    string        `json:"client_phone" binding:"max=20"`
	ClientAddress  string        `json:"client_address"`
	ClientDocument string        `json:"client_document" binding:"max=50"`
	ValidUntil     string        `json:"valid_until" binding:"required,datetime=2006-01-02"`
	Notes          string        `json:"notes" binding:"max=1000"`
	InternalNotes  string        `json:"internal_notes" binding:"max=1000"`
	Items          []ItemRequest `json:"items" binding:"required,min=1,dive"`
}

// UpdateQuotationRequest is a partial update. Nil fields are left untouched.
// Items == nil keeps the lines; a present but empty list is rejected.
type UpdateQuotationRequest struct {
	ClientName     *string       `json:"client_name" binding:"omitempty,min=2,max=200"`
	ClientEmail    *string       `json:"client_email" binding:"omitempty,email,max=150"`
	ClientPhone    *string       `json:"client_phone" binding:"omitempty,max=20"`
	ClientAddress  *string       `json:"client_address"`
	ClientDocument *string       `json:"client_document" binding:"omitempty,max=50"`
	ValidUntil     *string       `json:"valid_until" binding:"omitempty,datetime=2006-01-02"`
	Notes          *string       `json:"notes" binding:"omitempty,max=1000"`
	InternalNotes  *string       `json:"internal_notes" binding:"omitempty,max=1000"`
	Items          []ItemRequest `json:"items" binding:"omitempty,dive"`
}

// ChangeStatusRequest moves a quotation to another status
type ChangeStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=draft sent approved rejected"`
	Notes  string `json:"notes" binding:"max=500"`
}

// ListQuotationsFilter holds the query parameters of the quotation list
type ListQuotationsFilter struct {
	Page            int      `form:"page" binding:"omitempty,min=1"`
	PageSize        int      `form:"page_size" binding:"omitempty,min=1,max=100"`
	QuotationNumber string   `form:"quotation_number"`
	ClientName      string   `form:"client_name"`
	Status          string   `form:"status" binding:"omitempty,oneof=draft sent approved rejected"`
	DateFrom        string   `form:"date_from" binding:"omitempty,datetime=2006-01-02"`
	DateTo          string   `form:"date_to" binding:"omitempty,datetime=2006-01-02"`
	MinTotal        string   `form:"min_total" binding:"omitempty,numeric"`
	MaxTotal        string   `form:"max_total" binding:"omitempty,numeric"`
}

// ItemResponse is a quotation line in API responses
type ItemResponse struct {
	ID                 uuid.UUID       `json:"id"`
	ProductID          *uuid.UUID      `json:"product_id"`
	ProductName        string          `json:"product_name"`
	ProductDescription string          `json:"product_description"`
	ProductCode        string          `json:"product_code"`
	Quantity           decimal.Decimal `json:"quantity"`
	UnitPrice          decimal.Decimal `json:"unit_price"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
	Subtotal           decimal.Decimal `json:"subtotal"`
	DiscountAmount     decimal.Decimal `json:"discount_amount"`
	Total              decimal.Decimal `json:"total"`
	Position           int             `json:"position"`
}

// QuotationResponse represents a quotation with its items
type QuotationResponse struct {
	ID              uuid.UUID       `json:"id"`
	QuotationNumber string          `json:"quotation_number"`
	ClientName      string          `json:"client_name"`
	ClientEmail     string          `json:"client_email"`
	ClientPhone     string          `json:"client_phone"`
	ClientAddress   string          `json:"client_address"`
	ClientDocument  string          `json:"client_document"`
	Status          string          `json:"status"`
	ValidUntil      string          `json:"valid_until"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	DiscountTotal   decimal.Decimal `json:"discount_total"`
	TaxTotal        decimal.Decimal `json:"tax_total"`
	Total           decimal.Decimal `json:"total"`
	Notes           string          `json:"notes"`
	InternalNotes   string          `json:"internal_notes"`
	CreatedBy       uuid.UUID       `json:"created_by"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	Version         int             `json:"version"`
	Items           []ItemResponse  `json:"items"`
}

// ListResponse is a page of quotations with the actor's stats and the filters used
type ListResponse struct {
	Items []QuotationResponse `json:"items"`
	shared.PageInfo
	TotalUnfiltered int64           `json:"totalUnfiltered"`
	Stats           quotation.Stats `json:"stats"`
	FiltersApplied  map[string]any  `json:"filtersApplied"`
}

// NextNumberResponse previews the number the next quotation would receive
type NextNumberResponse struct {
	NextNumber string `json:"next_number"`
}

// PeriodStats aggregates the quotations created inside a period
type PeriodStats struct {
	Count    int64                                      `json:"quotations_count"`
	Value    decimal.Decimal                            `json:"total_value"`
	Average  decimal.Decimal                            `json:"avg_value"`
	ByStatus map[quotation.Status]quotation.StatusStats `json:"by_status"`
}

// PeriodSummaryResponse combines the actor's overall stats with a period window
type PeriodSummaryResponse struct {
	Period       string          `json:"period"`
	Since        time.Time       `json:"since"`
	GeneralStats quotation.Stats `json:"general_stats"`
	PeriodStats  PeriodStats     `json:"period_stats"`
}

// ToItemResponse converts a domain item
func ToItemResponse(item quotation.Item) ItemResponse {
	return ItemResponse{
		ID:                 item.ID,
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

// ToQuotationResponse converts a domain Quotation
func ToQuotationResponse(q *quotation.Quotation) QuotationResponse {
	items := make([]ItemResponse, len(q.Items))
	for i := range q.Items {
		items[i] = ToItemResponse(q.Items[i])
	}
	return QuotationResponse{
		ID:              q.ID,
		QuotationNumber: q.Number,
		ClientName:      q.Client.Name,
		ClientEmail:     q.Client.Email,
		ClientPhone:     q.Client.Phone,
		ClientAddress:   q.Client.Address,
		ClientDocument:  q.Client.Document,
		Status:          q.Status.String(),
		ValidUntil:      q.ValidUntil.Format(dateLayout),
		Subtotal:        q.Subtotal,
		DiscountTotal:   q.DiscountTotal,
		TaxTotal:        q.TaxTotal,
		Total:           q.Total,
		Notes:           q.Notes,
		InternalNotes:   q.InternalNotes,
		CreatedBy:       q.CreatedBy,
		CreatedAt:       q.CreatedAt,
		UpdatedAt:       q.UpdatedAt,
		Version:         q.Version,
		Items:           items,
	}
}

func toItemInputs(reqs []ItemRequest) []quotation.ItemInput {
	inputs := make([]quotation.ItemInput, len(reqs))
	for i, r := range reqs {
		inputs[i] = quotation.ItemInput{
			ProductID:          r.ProductID,
			ProductName:        r.ProductName,
			ProductDescription: r.ProductDescription,
			ProductCode:        r.ProductCode,
			Quantity:           r.Quantity,
			UnitPrice:          r.UnitPrice,
			DiscountPercentage: r.DiscountPercentage,
		}
	}
	return inputs
}
