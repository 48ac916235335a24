package middleware

import (
	"net/http"
	"strings"

	"github.com/cotiza/backend/internal/infrastructure/auth"
	"github.com/cotiza/backend/internal/infrastructure/logger"
	"github.com/cotiza/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Context keys set on authenticated requests
const (
	JWTClaimsKey   = "jwt_claims"
	JWTUserIDKey   = "user_id"
	JWTUserNameKey = "jwt_user_name"
	JWTEmailKey    = "jwt_email"
)

const (
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// authMessages holds the client-facing text per failure code
var authMessages = map[string]string{
	auth.CodeMissingToken: "Authentication required",
	auth.CodeInvalidToken: "Invalid token",
	auth.CodeTokenExpired: "Token has expired",
	auth.CodeTokenRevoked: "Token has been revoked",
}

type JWTMiddlewareConfig struct {
	JWTService *auth.JWTService
	// TokenBlacklist rejects logged-out tokens and sessions revoked by a
	// password reset. Nil skips both checks.
	TokenBlacklist auth.TokenBlacklist
	// SkipPaths are matched exactly against the request path
	SkipPaths []string
	// OnError replaces the 401 envelope
	OnError func(c *gin.Context, err error)
	Logger  *zap.Logger
}

// DefaultJWTConfig leaves the health checks public
func DefaultJWTConfig(jwtService *auth.JWTService) JWTMiddlewareConfig {
	return JWTMiddlewareConfig{
		JWTService: jwtService,
		SkipPaths:  []string{"/health", "/api/v1/system/ping"},
	}
}

func JWTAuthMiddleware(jwtService *auth.JWTService) gin.HandlerFunc {
	return JWTAuthMiddlewareWithConfig(DefaultJWTConfig(jwtService))
}

// JWTAuthMiddlewareWithConfig requires "Authorization: Bearer <access token>".
// Failures answer 401 with MISSING_TOKEN, INVALID_TOKEN, TOKEN_EXPIRED or
// TOKEN_REVOKED.
func JWTAuthMiddlewareWithConfig(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}
	if cfg.OnError == nil {
		cfg.OnError = cfg.rejectUnauthorized
	}

	return func(c *gin.Context) {
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		claims, err := cfg.authenticate(c)
		if err != nil {
			cfg.OnError(c, err)
			return
		}

		c.Set(JWTClaimsKey, claims)
		c.Set(JWTUserIDKey, claims.UserID)
		c.Set(JWTUserNameKey, claims.Name)
		c.Set(JWTEmailKey, claims.Email)

		ctx, _ := logger.WithUserID(c.Request.Context(), logger.FromContext(c.Request.Context()), claims.UserID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (cfg JWTMiddlewareConfig) authenticate(c *gin.Context) (*auth.Claims, error) {
	token, err := bearerToken(c.GetHeader(AuthHeaderKey))
	if err != nil {
		return nil, err
	}
	claims, err := cfg.JWTService.ValidateAccessToken(token)
	if err != nil {
		return nil, err
	}
	if cfg.TokenBlacklist != nil && cfg.revoked(c, claims) {
		return nil, auth.ErrTokenBlacklisted
	}
	return claims, nil
}

// bearerToken extracts the credential from an Authorization header value
func bearerToken(header string) (string, error) {
	if header == "" {
		return "", auth.ErrMissingToken
	}
	rest, ok := strings.CutPrefix(header, BearerPrefix)
	if !ok {
		return "", auth.ErrInvalidToken
	}
	if token := strings.TrimSpace(rest); token != "" {
		return token, nil
	}
	return "", auth.ErrMissingToken
}

// revoked checks the jti blacklist, then the per-user cutoff. Lookup errors
// are logged and treated as not revoked so a Redis outage does not lock
// everyone out.
func (cfg JWTMiddlewareConfig) revoked(c *gin.Context, claims *auth.Claims) bool {
	ctx := c.Request.Context()

	if claims.ID != "" {
		hit, err := cfg.TokenBlacklist.IsBlacklisted(ctx, claims.ID)
		switch {
		case err != nil:
			cfg.Logger.Error("Failed to check token blacklist", zap.String("jti", claims.ID), zap.Error(err))
		case hit:
			return true
		}
	}

	cut, err := cfg.TokenBlacklist.IsUserTokenInvalidated(ctx, claims.UserID, claims.GetIssuedAtTime())
	if err != nil {
		cfg.Logger.Error("Failed to check user token invalidation", zap.String("user_id", claims.UserID), zap.Error(err))
		return false
	}
	return cut
}

func (cfg JWTMiddlewareConfig) rejectUnauthorized(c *gin.Context, err error) {
	code := auth.ErrorCode(err)
	cfg.Logger.Warn("JWT authentication failed",
		zap.String("code", code),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err))
	c.AbortWithStatusJSON(http.StatusUnauthorized,
		dto.NewErrorResponseWithRequestID(code, authMessages[code], GetRequestID(c)))
}

// GetJWTClaims returns nil on unauthenticated requests
func GetJWTClaims(c *gin.Context) *auth.Claims {
	v, _ := c.Get(JWTClaimsKey)
	claims, _ := v.(*auth.Claims)
	return claims
}

func GetJWTUserID(c *gin.Context) string   { return c.GetString(JWTUserIDKey) }
func GetJWTUserName(c *gin.Context) string { return c.GetString(JWTUserNameKey) }
func GetJWTEmail(c *gin.Context) string    { return c.GetString(JWTEmailKey) }
