package auth

import (
	"errors"
	"time"

	"github.com/cotiza/backend/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenType is stored in every token so that a reset or verification token
// cannot be replayed as a session.
type TokenType string

const (
	TokenTypeAccess            TokenType = "access"
	TokenTypeEmailVerification TokenType = "email_verification"
	TokenTypePasswordReset     TokenType = "password_reset"
)

// Codes sent to clients in the error envelope
const (
	CodeMissingToken = "MISSING_TOKEN"
	CodeInvalidToken = "INVALID_TOKEN"
	CodeTokenExpired = "TOKEN_EXPIRED"
	CodeTokenRevoked = "TOKEN_REVOKED"
)

var (
	ErrMissingToken     = errors.New("missing token")
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidTokenType = errors.New("invalid token type")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrMissingUserID    = errors.New("missing user_id in claims")
	ErrTokenBlacklisted = errors.New("token has been revoked")
)

// ErrorCode maps a validation error to its client code. Anything
// unrecognised is reported as INVALID_TOKEN.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrMissingToken):
		return CodeMissingToken
	case errors.Is(err, ErrExpiredToken):
		return CodeTokenExpired
	case errors.Is(err, ErrTokenBlacklisted):
		return CodeTokenRevoked
	}
	return CodeInvalidToken
}

// Claims is the payload of every token the service signs. Subject and
// UserID carry the same id.
type Claims struct {
	jwt.RegisteredClaims
	UserID    string    `json:"user_id"`
	Email     string    `json:"email,omitempty"`
	Name      string    `json:"name,omitempty"`
	TokenType TokenType `json:"token_type"`
}

func (c *Claims) GetUserUUID() (uuid.UUID, error) {
	return uuid.Parse(c.UserID)
}

// GetIssuedAtTime returns the zero time for tokens without iat
func (c *Claims) GetIssuedAtTime() time.Time {
	if c.IssuedAt == nil {
		return time.Time{}
	}
	return c.IssuedAt.Time
}

// GetRemainingTTL is how long the token stays valid, never negative. Logout
// blacklists the jti for exactly this long.
func (c *Claims) GetRemainingTTL() time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	return max(time.Until(c.ExpiresAt.Time), 0)
}

// AccessToken is the login response body
type AccessToken struct {
	Token     string    `json:"access_token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
	ExpiresIn int64     `json:"expires_in"`
}

// JWTService signs and validates HS256 tokens. Each TokenType has its own
// lifetime.
type JWTService struct {
	secret []byte
	issuer string
	ttl    map[TokenType]time.Duration
	now    func() time.Time
}

func NewJWTService(cfg config.JWTConfig) *JWTService {
	return &JWTService{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl: map[TokenType]time.Duration{
			TokenTypeAccess:            cfg.AccessTokenExpiration,
			TokenTypeEmailVerification: cfg.VerificationTokenExpiration,
			TokenTypePasswordReset:     cfg.ResetTokenExpiration,
		},
		now: time.Now,
	}
}

// WithClock returns a copy reading time from now
func (s *JWTService) WithClock(now func() time.Time) *JWTService {
	clone := *s
	clone.now = now
	return &clone
}

func (s *JWTService) GetAccessTokenExpiration() time.Duration {
	return s.ttl[TokenTypeAccess]
}

// GenerateAccessToken issues a session token. Email and name ride along
// so handlers can attribute actions without a user lookup.
func (s *JWTService) GenerateAccessToken(userID uuid.UUID, email, name string) (*AccessToken, error) {
	claims := s.claims(userID, email, TokenTypeAccess)
	claims.Name = name
	signed, err := s.sign(claims)
	if err != nil {
		return nil, err
	}
	ttl := s.ttl[TokenTypeAccess]
	return &AccessToken{
		Token:     signed,
		TokenType: "Bearer",
		ExpiresAt: claims.ExpiresAt.Time,
		ExpiresIn: int64(ttl / time.Second),
	}, nil
}

func (s *JWTService) GenerateEmailVerificationToken(userID uuid.UUID, email string) (string, error) {
	return s.sign(s.claims(userID, email, TokenTypeEmailVerification))
}

func (s *JWTService) GeneratePasswordResetToken(userID uuid.UUID, email string) (string, error) {
	return s.sign(s.claims(userID, email, TokenTypePasswordReset))
}

func (s *JWTService) ValidateAccessToken(token string) (*Claims, error) {
	return s.parse(token, TokenTypeAccess)
}

func (s *JWTService) ValidateEmailVerificationToken(token string) (*Claims, error) {
	return s.parse(token, TokenTypeEmailVerification)
}

func (s *JWTService) ValidatePasswordResetToken(token string) (*Claims, error) {
	return s.parse(token, TokenTypePasswordReset)
}

func (s *JWTService) claims(userID uuid.UUID, email string, typ TokenType) *Claims {
	issued := s.now()
	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   userID.String(),
			Audience:  jwt.ClaimStrings{s.issuer},
			IssuedAt:  jwt.NewNumericDate(issued),
			NotBefore: jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(s.ttl[typ])),
		},
		UserID:    userID.String(),
		Email:     email,
		TokenType: typ,
	}
}

func (s *JWTService) sign(claims *Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *JWTService) parse(raw string, want TokenType) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
	)
	claims := &Claims{}
	token, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpiredToken
	case err != nil:
		return nil, ErrInvalidToken
	case !token.Valid:
		return nil, ErrInvalidClaims
	case claims.TokenType != want:
		return nil, ErrInvalidTokenType
	case claims.UserID == "":
		return nil, ErrMissingUserID
	}
	return claims, nil
}
