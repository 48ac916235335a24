package handler

import (
	"context"
	"net/http"

	identityapp "github.com/cotiza/backend/internal/application/identity"
	"github.com/cotiza/backend/internal/infrastructure/auth"
	"github.com/cotiza/backend/internal/interfaces/http/dto"
	"github.com/cotiza/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// AuthService is the account and session API used by AuthHandler
type AuthService interface {
	Register(ctx context.Context, req identityapp.RegisterRequest) (*identityapp.UserResponse, error)
	Login(ctx context.Context, req identityapp.LoginRequest) (*identityapp.LoginResponse, error)
	VerifyEmail(ctx context.Context, token string) error
	ForgotPassword(ctx context.Context, req identityapp.ForgotPasswordRequest) error
	ResetPassword(ctx context.Context, req identityapp.ResetPasswordRequest) error
	Logout(ctx context.Context, claims *auth.Claims) error
}

// AuthHandler handles registration, login and the email link flows
type AuthHandler struct {
	BaseHandler
	authService AuthService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register creates an account and sends the verification link.
// POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req identityapp.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	user, err := h.authService.Register(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, user)
}

// Login exchanges credentials for an access token.
// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req identityapp.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// VerifyEmail consumes the token of a verification link.
// GET /auth/verify-email?token=
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse(
			"Verification token is required",
			getRequestID(c),
			map[string]string{"token": "This field is required"},
		))
		return
	}

	if err := h.authService.VerifyEmail(c.Request.Context(), token); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, identityapp.MessageResponse{Message: "Email verified successfully"})
}

// ForgotPassword sends a reset link. The answer is the same whether or not
// the email belongs to an account.
// POST /auth/forgot-password
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req identityapp.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	if err := h.authService.ForgotPassword(c.Request.Context(), req); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, identityapp.MessageResponse{
		Message: "If the email is registered, a password reset link has been sent",
	})
}

// ResetPassword sets a new password with the token of a reset link.
// POST /auth/reset-password
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req identityapp.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	if err := h.authService.ResetPassword(c.Request.Context(), req); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, identityapp.MessageResponse{Message: "Password updated successfully"})
}

// Logout revokes the presented access token.
// POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.Error(c, http.StatusUnauthorized, dto.ErrCodeMissingToken, "Authentication required")
		return
	}

	if err := h.authService.Logout(c.Request.Context(), claims); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, identityapp.MessageResponse{Message: "Logged out successfully"})
}
