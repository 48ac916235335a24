// Package identity implements registration, sessions, email verification,
// password recovery and the user's own profile.
package identity

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/cotiza/backend/internal/domain/identity"
	"github.com/cotiza/backend/internal/domain/shared"
	"github.com/cotiza/backend/internal/infrastructure/auth"
	"github.com/cotiza/backend/internal/infrastructure/config"
	"github.com/cotiza/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// Error codes returned by the auth flows
const (
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
)

// ErrInvalidCredentials hides whether the email or the password was wrong
var ErrInvalidCredentials = shared.NewDomainError(CodeInvalidCredentials, "Invalid email or password")

// AuthService handles authentication operations
type AuthService struct {
	users       identity.UserRepository
	jwtService  *auth.JWTService
	blacklist   auth.TokenBlacklist
	notifier    identity.Notifier
	frontendURL string
	logger      *zap.Logger
	now         func() time.Time
}

// NewAuthService creates a new authentication service
func NewAuthService(
	users identity.UserRepository,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	notifier identity.Notifier,
	app config.AppConfig,
	logger *zap.Logger,
) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:       users,
		jwtService:  jwtService,
		blacklist:   blacklist,
		notifier:    notifier,
		frontendURL: strings.TrimRight(app.FrontendURL, "/"),
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the time source
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	s.now = now
	return s
}

// Register creates an unverified account and sends the verification link.
// A failed delivery is logged; the account stays registered.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*UserResponse, error) {
	exists, err := s.users.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, identity.ErrEmailTaken
	}

	user, err := identity.NewUser(req.Email, req.Name, req.Age, req.Password, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.jwtService.GenerateEmailVerificationToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	if err := s.notifier.SendVerification(ctx, identity.Notification{
		UserID: user.ID.String(),
		Email:  user.Email,
		Name:   user.Name,
		Link:   s.link("/verify-email", token),
	}); err != nil {
		logger.L(ctx).Warn("failed to send verification email", zap.String("user_id", user.ID.String()), zap.Error(err))
	}

	logger.L(ctx).Info("user registered", zap.String("user_id", user.ID.String()))
	response := ToUserResponse(user)
	return &response, nil
}

// Login checks the credentials and issues an access token
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			logger.L(ctx).Warn("login for unknown email")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.VerifyPassword(req.Password) {
		logger.L(ctx).Warn("invalid password attempt", zap.String("user_id", user.ID.String()))
		return nil, ErrInvalidCredentials
	}

	token, err := s.jwtService.GenerateAccessToken(user.ID, user.Email, user.Name)
	if err != nil {
		return nil, err
	}

	user.RecordLogin(s.now())
	if err := s.users.Save(ctx, user); err != nil {
		// the session is valid even when the login stamp is lost
		logger.L(ctx).Error("failed to record login", zap.String("user_id", user.ID.String()), zap.Error(err))
	}

	logger.L(ctx).Info("user logged in", zap.String("user_id", user.ID.String()))
	return &LoginResponse{AccessToken: *token, User: ToUserResponse(user)}, nil
}

// VerifyEmail marks the token's user as verified. Verifying twice is not an error.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	claims, err := s.jwtService.ValidateEmailVerificationToken(token)
	if err != nil {
		return tokenError(err)
	}
	user, err := s.userFromClaims(ctx, claims)
	if err != nil {
		return err
	}
	if user.IsVerified {
		return nil
	}
	user.MarkVerified(s.now())
	return s.users.Save(ctx, user)
}

// ForgotPassword sends a reset link when the email belongs to an account.
// Unknown emails succeed silently so accounts cannot be enumerated.
func (s *AuthService) ForgotPassword(ctx context.Context, req ForgotPasswordRequest) error {
	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			logger.L(ctx).Info("password reset requested for unknown email")
			return nil
		}
		return err
	}

	token, err := s.jwtService.GeneratePasswordResetToken(user.ID, user.Email)
	if err != nil {
		return err
	}
	return s.notifier.SendPasswordReset(ctx, identity.Notification{
		UserID: user.ID.String(),
		Email:  user.Email,
		Name:   user.Name,
		Link:   s.link("/reset-password", token),
	})
}

// ResetPassword sets a new password. The reset token works once, and every
// session issued before the reset is revoked.
func (s *AuthService) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	claims, err := s.jwtService.ValidatePasswordResetToken(req.Token)
	if err != nil {
		return tokenError(err)
	}
	used, err := s.blacklist.IsBlacklisted(ctx, claims.ID)
	if err != nil {
		return err
	}
	if used {
		return tokenError(auth.ErrTokenBlacklisted)
	}

	user, err := s.userFromClaims(ctx, claims)
	if err != nil {
		return err
	}
	if err := user.SetPassword(req.NewPassword, s.now()); err != nil {
		return err
	}
	if err := s.users.Save(ctx, user); err != nil {
		return err
	}

	if err := s.blacklist.AddToBlacklist(ctx, claims.ID, claims.GetRemainingTTL()); err != nil {
		logger.L(ctx).Error("failed to consume reset token", zap.Error(err))
	}
	if err := s.blacklist.InvalidateUserTokens(ctx, user.ID.String(), s.jwtService.GetAccessTokenExpiration()); err != nil {
		logger.L(ctx).Error("failed to revoke sessions after password reset", zap.Error(err))
	}
	logger.L(ctx).Info("password reset", zap.String("user_id", user.ID.String()))
	return nil
}

// Logout revokes the access token until it would have expired anyway
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil || claims.ID == "" {
		return shared.NewDomainError(auth.CodeInvalidToken, "Token has no identifier")
	}
	ttl := claims.GetRemainingTTL()
	if ttl <= 0 {
		return nil
	}
	return s.blacklist.AddToBlacklist(ctx, claims.ID, ttl)
}

func (s *AuthService) userFromClaims(ctx context.Context, claims *auth.Claims) (*identity.User, error) {
	id, err := claims.GetUserUUID()
	if err != nil {
		return nil, tokenError(auth.ErrInvalidClaims)
	}
	return s.users.FindByID(ctx, id)
}

func (s *AuthService) link(path, token string) string {
	return s.frontendURL + path + "?token=" + url.QueryEscape(token)
}

// tokenError turns a token validation failure into a domain error carrying
// INVALID_TOKEN, TOKEN_EXPIRED or TOKEN_REVOKED
func tokenError(err error) error {
	code := auth.ErrorCode(err)
	message := "Token is invalid"
	switch code {
	case auth.CodeTokenExpired:
		message = "Token has expired, request a new one"
	case auth.CodeTokenRevoked:
		message = "Token has already been used"
	}
	return shared.NewDomainError(code, message)
}
