package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	quotationapp "github.com/cotiza/backend/internal/application/quotation"
	"github.com/cotiza/backend/internal/domain/quotation"
	"github.com/cotiza/backend/internal/infrastructure/printing"
	"github.com/cotiza/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// QuotationService is the quotation API used by QuotationHandler
type QuotationService interface {
	Create(ctx context.Context, actor quotationapp.Actor, req quotationapp.CreateQuotationRequest) (*quotationapp.QuotationResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*quotationapp.QuotationResponse, error)
	List(ctx context.Context, actor quotationapp.Actor, filter quotationapp.ListQuotationsFilter) (*quotationapp.ListResponse, error)
	Update(ctx context.Context, actor quotationapp.Actor, id uuid.UUID, req quotationapp.UpdateQuotationRequest) (*quotationapp.QuotationResponse, error)
	Delete(ctx context.Context, actor quotationapp.Actor, id uuid.UUID) error
	ChangeStatus(ctx context.Context, actor quotationapp.Actor, id uuid.UUID, req quotationapp.ChangeStatusRequest) (*quotationapp.QuotationResponse, error)
	Duplicate(ctx context.Context, actor quotationapp.Actor, id uuid.UUID) (*quotationapp.QuotationResponse, error)
	NextNumberPreview(ctx context.Context) (*quotationapp.NextNumberResponse, error)
	PeriodSummary(ctx context.Context, actorID uuid.UUID, period string) (*quotationapp.PeriodSummaryResponse, error)
	Stats(ctx context.Context, ownerID *uuid.UUID) (quotation.Stats, error)
	PDF(ctx context.Context, id uuid.UUID) (*printing.Document, error)
}

// QuotationHandler handles quotation endpoints
type QuotationHandler struct {
	BaseHandler
	quotationService QuotationService
}

// NewQuotationHandler creates a new QuotationHandler
func NewQuotationHandler(quotationService QuotationService) *QuotationHandler {
	return &QuotationHandler{quotationService: quotationService}
}

func (h *QuotationHandler) actor(c *gin.Context) (quotationapp.Actor, bool) {
	id, ok := h.currentUser(c)
	if !ok {
		return quotationapp.Actor{}, false
	}
	return quotationapp.Actor{ID: id, Name: middleware.GetJWTUserName(c)}, true
}

// Create numbers and stores a new draft quotation.
// POST /quotations
func (h *QuotationHandler) Create(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var req quotationapp.CreateQuotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	q, err := h.quotationService.Create(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, q)
}

// List returns a filtered page of all quotations, the actor's own stats and
// the applied filters.
// GET /quotations
func (h *QuotationHandler) List(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var filter quotationapp.ListQuotationsFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}

	page, err := h.quotationService.List(c.Request.Context(), actor, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, page)
}

// NextNumber previews the number the next quotation would get.
// GET /quotations/next-number
func (h *QuotationHandler) NextNumber(c *gin.Context) {
	resp, err := h.quotationService.NextNumberPreview(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Summary returns overall stats plus the stats of the last week, month,
// quarter or year.
// GET /quotations/stats/summary?period=
func (h *QuotationHandler) Summary(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	resp, err := h.quotationService.PeriodSummary(c.Request.Context(), actor.ID, c.Query("period"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Stats aggregates quotations by status. owner_id narrows them to one
// owner; "me" stands for the caller.
// GET /quotations/stats?owner_id=
func (h *QuotationHandler) Stats(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var owner *uuid.UUID
	switch raw := c.Query("owner_id"); raw {
	case "":
	case "me":
		owner = &actor.ID
	default:
		id, err := uuid.Parse(raw)
		if err != nil {
			h.InvalidID(c, "owner_id")
			return
		}
		owner = &id
	}

	stats, err := h.quotationService.Stats(c.Request.Context(), owner)
	h.respond(c, http.StatusOK, stats, err)
}

// GetByID returns a quotation with its items.
// GET /quotations/:id
func (h *QuotationHandler) GetByID(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	q, err := h.quotationService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, q)
}

// Update edits a draft or sent quotation.
// PUT /quotations/:id
func (h *QuotationHandler) Update(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	var req quotationapp.UpdateQuotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	q, err := h.quotationService.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, q)
}

// Delete removes a draft quotation.
// DELETE /quotations/:id
func (h *QuotationHandler) Delete(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	if err := h.quotationService.Delete(c.Request.Context(), actor, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ChangeStatus moves a quotation along its lifecycle.
// PATCH /quotations/:id/status
func (h *QuotationHandler) ChangeStatus(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	var req quotationapp.ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	q, err := h.quotationService.ChangeStatus(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, q)
}

// Duplicate copies a quotation into a new draft with a fresh number.
// POST /quotations/:id/duplicate
func (h *QuotationHandler) Duplicate(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	q, err := h.quotationService.Duplicate(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, q)
}

// PDF streams the rendered quotation as an attachment.
// GET /quotations/:id/pdf
func (h *QuotationHandler) PDF(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	doc, err := h.quotationService.PDF(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	c.Header("Content-Length", strconv.Itoa(len(doc.Content)))
	c.Data(http.StatusOK, "application/pdf", doc.Content)
}
