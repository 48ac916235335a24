package handler

import (
	"net/http"
	"testing"

	identityapp "github.com/cotiza/backend/internal/application/identity"
	"github.com/cotiza/backend/internal/domain/shared"
	"github.com/cotiza/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newUserEngine(svc *MockUserService, userID uuid.UUID) *gin.Engine {
	engine := newTestEngine(userID)
	h := NewUserHandler(svc)
	engine.GET("/users/me", h.Me)
	engine.PUT("/users/me", h.UpdateMe)
	engine.DELETE("/users/me", h.DeleteMe)
	engine.GET("/users/me/profile-completion", h.ProfileCompletion)
	return engine
}

func TestUserHandler_Me(t *testing.T) {
	userID := uuid.New()
	svc := new(MockUserService)
	svc.On("Me", mock.Anything, userID).Return(&identityapp.UserResponse{
		ID:                userID,
		Email:             "laura@ferreteria.co",
		Name:              "Laura Gómez",
		ProfileCompletion: 50,
	}, nil)

	w := doJSON(newUserEngine(svc, userID), http.MethodGet, "/users/me", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var got identityapp.UserResponse
	decode(t, w, &got)
	assert.Equal(t, userID, got.ID)
	assert.Equal(t, 50, got.ProfileCompletion)
	svc.AssertExpectations(t)
}

func TestUserHandler_Me_Unauthenticated(t *testing.T) {
	svc := new(MockUserService)

	w := doJSON(newUserEngine(svc, uuid.Nil), http.MethodGet, "/users/me", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	svc.AssertNotCalled(t, "Me", mock.Anything, mock.Anything)
}

func TestUserHandler_UpdateMe(t *testing.T) {
	userID := uuid.New()
	svc := new(MockUserService)
	city := "Medellín"
	svc.On("UpdateProfile", mock.Anything, userID, mock.MatchedBy(func(req identityapp.UpdateProfileRequest) bool {
		return req.City != nil && *req.City == city && req.Name == nil
	})).Return(&identityapp.UserResponse{ID: userID, City: city}, nil)

	// email and password are not part of the allow-list and are dropped by binding
	w := doJSON(newUserEngine(svc, userID), http.MethodPut, "/users/me", map[string]any{
		"city":     city,
		"email":    "otro@correo.co",
		"password": "hijacked",
	})

	require.Equal(t, http.StatusOK, w.Code)
	var got identityapp.UserResponse
	decode(t, w, &got)
	assert.Equal(t, city, got.City)
	svc.AssertExpectations(t)
}

func TestUserHandler_UpdateMe_Validation(t *testing.T) {
	svc := new(MockUserService)

	w := doJSON(newUserEngine(svc, uuid.New()), http.MethodPut, "/users/me", map[string]any{"age": 200})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Must be at most 120", decode(t, w, nil).Error.Details["age"])
}

func TestUserHandler_ProfileCompletion(t *testing.T) {
	userID := uuid.New()
	svc := new(MockUserService)
	svc.On("ProfileCompletion", mock.Anything, userID).Return(&identityapp.ProfileCompletionResponse{
		ProfileCompletion: 67,
		MissingFields:     []string{"company_name", "city"},
	}, nil)

	w := doJSON(newUserEngine(svc, userID), http.MethodGet, "/users/me/profile-completion", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var got identityapp.ProfileCompletionResponse
	decode(t, w, &got)
	assert.Equal(t, 67, got.ProfileCompletion)
	assert.Equal(t, []string{"company_name", "city"}, got.MissingFields)
}

func TestUserHandler_DeleteMe(t *testing.T) {
	userID := uuid.New()
	svc := new(MockUserService)
	svc.On("Delete", mock.Anything, userID).Return(nil).Once()

	w := doJSON(newUserEngine(svc, userID), http.MethodDelete, "/users/me", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	svc.On("Delete", mock.Anything, userID).Return(shared.NewNotFoundError("user", userID))
	w = doJSON(newUserEngine(svc, userID), http.MethodDelete, "/users/me", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, dto.ErrCodeNotFound, decode(t, w, nil).Error.Code)
}
