package handler

import (
	"context"

	identityapp "github.com/cotiza/backend/internal/application/identity"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// UserService is the profile API used by UserHandler
type UserService interface {
	Me(ctx context.Context, userID uuid.UUID) (*identityapp.UserResponse, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, req identityapp.UpdateProfileRequest) (*identityapp.UserResponse, error)
	ProfileCompletion(ctx context.Context, userID uuid.UUID) (*identityapp.ProfileCompletionResponse, error)
	Delete(ctx context.Context, userID uuid.UUID) error
}

// UserHandler serves the authenticated user's own profile
type UserHandler struct {
	BaseHandler
	userService UserService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// Me returns the current user.
// GET /users/me
func (h *UserHandler) Me(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}

	user, err := h.userService.Me(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}

// UpdateMe applies the allow-listed profile fields. Unknown fields such as
// email or password are ignored by the binding.
// PUT /users/me
func (h *UserHandler) UpdateMe(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req identityapp.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}

// ProfileCompletion reports the completion percentage and the missing fields.
// GET /users/me/profile-completion
func (h *UserHandler) ProfileCompletion(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}

	resp, err := h.userService.ProfileCompletion(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// DeleteMe removes the account and revokes its sessions.
// DELETE /users/me
func (h *UserHandler) DeleteMe(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}

	if err := h.userService.Delete(c.Request.Context(), userID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
