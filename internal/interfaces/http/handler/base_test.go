package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cotiza/backend/internal/domain/shared"
	"github.com/cotiza/backend/internal/interfaces/http/dto"
	"github.com/cotiza/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", shared.NewNotFoundError("quotation", "COT-2025-001"), http.StatusNotFound, dto.ErrCodeNotFound},
		{"validation", shared.NewValidationError("period", "bad period"), http.StatusBadRequest, dto.ErrCodeValidation},
		{"invalid transition", shared.NewConflictError("INVALID_TRANSITION", "approved is terminal"), http.StatusConflict, dto.ErrCodeInvalidTransition},
		{"not editable", shared.NewConflictError("QUOTATION_NOT_EDITABLE", "only drafts"), http.StatusConflict, dto.ErrCodeNotEditable},
		{"empty items", shared.NewForbiddenError("EMPTY_ITEMS_FORBIDDEN", "at least one item"), http.StatusForbidden, dto.ErrCodeEmptyItems},
		{"insufficient stock", shared.ErrInsufficientStock, http.StatusUnprocessableEntity, dto.ErrCodeInsufficientStock},
		{"already exists alias", shared.ErrAlreadyExists, http.StatusConflict, dto.ErrCodeConflict},
		{"pdf disabled alias", shared.NewDomainError("PDF_DISABLED", "off"), http.StatusServiceUnavailable, dto.ErrCodePDFUnavailable},
		{"wrapped domain error", fmt.Errorf("load: %w", shared.ErrConcurrencyConflict), http.StatusConflict, dto.ErrCodeConcurrencyConflict},
		{"unauthorized", shared.ErrUnauthorized, http.StatusUnauthorized, dto.ErrCodeUnauthorized},
		{"plain error", errors.New("connection reset by peer"), http.StatusInternalServerError, dto.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newTestEngine(uuid.Nil)
			engine.GET("/fail", func(c *gin.Context) {
				h := &BaseHandler{}
				h.HandleError(c, tt.err)
			})

			req := httptest.NewRequest(http.MethodGet, "/fail", nil)
			req.Header.Set(middleware.RequestIDHeader, "req-42")
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decode(t, w, nil)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.Equal(t, "req-42", resp.Error.RequestID)
		})
	}
}

func TestHandleError_HidesInternalCause(t *testing.T) {
	engine := newTestEngine(uuid.Nil)
	engine.GET("/fail", func(c *gin.Context) {
		(&BaseHandler{}).HandleError(c, errors.New("pq: password authentication failed"))
	})

	w := doJSON(engine, http.MethodGet, "/fail", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "password authentication")
}

func TestHandleError_KeepsDetails(t *testing.T) {
	engine := newTestEngine(uuid.Nil)
	engine.GET("/fail", func(c *gin.Context) {
		(&BaseHandler{}).HandleError(c, shared.NewValidationError("items[0].quantity", "quantity must be positive"))
	})

	resp := decode(t, doJSON(engine, http.MethodGet, "/fail", nil), nil)

	assert.Equal(t, "quantity must be positive", resp.Error.Message)
	assert.Equal(t, map[string]string{"items[0].quantity": "quantity must be positive"}, resp.Error.Details)
}

func TestHandleError_Nil(t *testing.T) {
	engine := newTestEngine(uuid.Nil)
	engine.GET("/ok", func(c *gin.Context) {
		(&BaseHandler{}).HandleError(c, nil)
		c.Status(http.StatusAccepted)
	})

	assert.Equal(t, http.StatusAccepted, doJSON(engine, http.MethodGet, "/ok", nil).Code)
}

func TestParseID(t *testing.T) {
	id := uuid.New()
	engine := newTestEngine(uuid.Nil)
	engine.GET("/things/:id", func(c *gin.Context) {
		h := &BaseHandler{}
		got, ok := h.parseID(c, "id")
		if !ok {
			return
		}
		h.Success(c, got)
	})

	w := doJSON(engine, http.MethodGet, "/things/"+id.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got uuid.UUID
	decode(t, w, &got)
	assert.Equal(t, id, got)

	w = doJSON(engine, http.MethodGet, "/things/COT-2025-001", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode(t, w, nil)
	assert.Equal(t, dto.ErrCodeInvalidID, resp.Error.Code)
	assert.Equal(t, "Invalid UUID format", resp.Error.Details["id"])
}

func TestCurrentUser(t *testing.T) {
	handlerFn := func(c *gin.Context) {
		h := &BaseHandler{}
		if id, ok := h.currentUser(c); ok {
			h.Success(c, id)
		}
	}

	userID := uuid.New()
	engine := newTestEngine(userID)
	engine.GET("/me", handlerFn)
	w := doJSON(engine, http.MethodGet, "/me", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got uuid.UUID
	decode(t, w, &got)
	assert.Equal(t, userID, got)

	anonymous := newTestEngine(uuid.Nil)
	anonymous.GET("/me", handlerFn)
	w = doJSON(anonymous, http.MethodGet, "/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	malformed := gin.New()
	malformed.GET("/me", func(c *gin.Context) {
		c.Set(middleware.JWTUserIDKey, "not-a-uuid")
		c.Next()
	}, handlerFn)
	assert.Equal(t, http.StatusUnauthorized, doJSON(malformed, http.MethodGet, "/me", nil).Code)
}

func TestResponseHelpers(t *testing.T) {
	engine := newTestEngine(uuid.Nil)
	h := &BaseHandler{}
	engine.POST("/created", func(c *gin.Context) { h.Created(c, gin.H{"id": 1}) })
	engine.DELETE("/gone", func(c *gin.Context) { h.NoContent(c) })
	engine.GET("/code", func(c *gin.Context) { h.ErrorWithCode(c, "NUMBER_CONFLICT", "retry") })
	engine.GET("/bad", func(c *gin.Context) { h.BadRequest(c, "nope") })

	w := doJSON(engine, http.MethodPost, "/created", nil)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, decode(t, w, nil).Success)

	w = doJSON(engine, http.MethodDelete, "/gone", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())

	assert.Equal(t, http.StatusConflict, doJSON(engine, http.MethodGet, "/code", nil).Code)

	w = doJSON(engine, http.MethodGet, "/bad", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeBadRequest, decode(t, w, nil).Error.Code)
}
