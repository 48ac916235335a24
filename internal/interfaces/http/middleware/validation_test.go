package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cotiza/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testLine struct {
	Name     string `json:"product_name" binding:"required,max=10"`
	Quantity int    `json:"quantity" binding:"min=1"`
}

type testQuotation struct {
	ClientEmail string     `json:"client_email" binding:"required,email"`
	ValidUntil  string     `json:"valid_until" binding:"required,datetime=2006-01-02"`
	Status      string     `json:"status" binding:"omitempty,oneof=draft sent"`
	Items       []testLine `json:"items" binding:"required,min=1,dive"`
}

func validationRouter() *gin.Engine {
	SetupValidator()
	router := gin.New()
	router.POST("/test", func(c *gin.Context) {
		var req testQuotation
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusOK)
	})
	return router
}

func postJSON(router *gin.Engine, body string) (*httptest.ResponseRecorder, dto.Response) {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp dto.Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestHandleValidationError_FieldDetails(t *testing.T) {
	w, resp := postJSON(validationRouter(), `{
		"client_email": "not-an-email",
		"valid_until": "31/12/2025",
		"status": "approved",
		"items": [{"product_name": "Taladro percutor", "quantity": 0}]
	}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "Request validation failed", resp.Error.Message)
	assert.Equal(t, map[string]string{
		"client_email":          "Invalid email format",
		"valid_until":           "Must be a date in the format 2006-01-02",
		"status":                "Must be one of: draft sent",
		"items[0].product_name": "Must be at most 10 characters",
		"items[0].quantity":     "Must be at least 1",
	}, resp.Error.Details)
}

func TestHandleValidationError_EmptyItems(t *testing.T) {
	w, resp := postJSON(validationRouter(), `{"client_email": "a@b.co", "valid_until": "2025-12-31", "items": []}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Must be at least 1 items", resp.Error.Details["items"])
}

func TestHandleValidationError_MalformedJSON(t *testing.T) {
	w, resp := postJSON(validationRouter(), `{"client_email": `)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeInvalidJSON, resp.Error.Code)
	assert.Empty(t, resp.Error.Details)
}

func TestHandleValidationError_Valid(t *testing.T) {
	w, _ := postJSON(validationRouter(), `{
		"client_email": "compras@ferreteria.co",
		"valid_until": "2025-12-31",
		"items": [{"product_name": "Martillo", "quantity": 2}]
	}`)

	assert.Equal(t, http.StatusOK, w.Code)
}
