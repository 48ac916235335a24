package dto

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeInvalidJSON, http.StatusBadRequest},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeInvalidCredentials, http.StatusUnauthorized},
		{ErrCodeMissingToken, http.StatusUnauthorized},
		{ErrCodeTokenExpired, http.StatusBadRequest},
		{ErrCodeTokenRevoked, http.StatusBadRequest},
		{ErrCodeForbidden, http.StatusForbidden},
		{ErrCodeEmptyItems, http.StatusForbidden},
		{ErrCodeInvalidTransition, http.StatusConflict},
		{ErrCodeNotEditable, http.StatusConflict},
		{ErrCodeNotDeletable, http.StatusConflict},
		{ErrCodeNumberConflict, http.StatusConflict},
		{ErrCodeDuplicateProduct, http.StatusConflict},
		{ErrCodeDuplicateNIT, http.StatusConflict},
		{ErrCodeEmailTaken, http.StatusConflict},
		{ErrCodeInsufficientStock, http.StatusUnprocessableEntity},
		{ErrCodePDFUnavailable, http.StatusServiceUnavailable},
		{ErrCodeRequestTooLarge, http.StatusRequestEntityTooLarge},
		{"UNKNOWN_CODE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestNormalizeErrorCode(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"ALREADY_EXISTS", ErrCodeConflict},
		{"INVALID_INPUT", ErrCodeValidation},
		{"PDF_DISABLED", ErrCodePDFUnavailable},
		{"INVALID_TOKEN_TYPE", ErrCodeInvalidToken},
		// public codes pass through unchanged
		{ErrCodeNotFound, ErrCodeNotFound},
		{ErrCodeInvalidTransition, ErrCodeInvalidTransition},
		{"CUSTOM_ERROR", "CUSTOM_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeErrorCode(tt.input))
		})
	}
}

func TestErrorCodeAliasesResolveToMappedCodes(t *testing.T) {
	for alias, code := range ErrorCodeAliases {
		_, ok := ErrorCodeHTTPStatus[code]
		assert.True(t, ok, "alias %s points at %s which has no status", alias, code)
	}
}

func TestNewErrorResponse(t *testing.T) {
	resp := NewErrorResponse("ALREADY_EXISTS", "Resource already exists")

	assert.False(t, resp.Success)
	assert.Nil(t, resp.Data)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeConflict, resp.Error.Code)
	assert.Equal(t, "Resource already exists", resp.Error.Message)
	assert.NotZero(t, resp.Error.Timestamp)
}

func TestNewDetailedErrorResponse(t *testing.T) {
	resp := NewValidationErrorResponse("Request validation failed", "req-789", map[string]string{
		"client_email": "must be a valid email",
	})

	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "req-789", resp.Error.RequestID)
	assert.Equal(t, "must be a valid email", resp.Error.Details["client_email"])

	bare := NewDetailedErrorResponse(ErrCodeNotFound, "Quotation not found", "req-1", map[string]string{})
	assert.Nil(t, bare.Error.Details)
}

func TestErrorResponseJSON(t *testing.T) {
	resp := NewDetailedErrorResponse(ErrCodeInvalidTransition, "Cannot move from approved to draft", "req-test-123",
		map[string]string{"status": "draft"})

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, false, decoded["success"])
	assert.NotContains(t, decoded, "data")

	errObj, ok := decoded["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, ErrCodeInvalidTransition, errObj["code"])
	assert.Equal(t, "req-test-123", errObj["request_id"])
	assert.Equal(t, map[string]any{"status": "draft"}, errObj["details"])
}

func TestErrorResponseTimestamp(t *testing.T) {
	before := time.Now()
	resp := NewErrorResponse(ErrCodeInternal, "Server error")
	after := time.Now()

	assert.False(t, resp.Error.Timestamp.Before(before.Add(-time.Second)))
	assert.False(t, resp.Error.Timestamp.After(after))
}
