package auth

import (
	"context"
	"sync"
	"time"
)

// TokenBlacklist revokes tokens before they expire. Logout revokes one token
// by jti; a password reset revokes every token the user holds.
type TokenBlacklist interface {
	// AddToBlacklist revokes jti for ttl, normally the token's remaining lifetime.
	// A non-positive ttl is a no-op.
	AddToBlacklist(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)

	// InvalidateUserTokens revokes every token issued to userID before now.
	// The cutoff is kept for ttl, the longest lifetime a token can have.
	InvalidateUserTokens(ctx context.Context, userID string, ttl time.Duration) error
	IsUserTokenInvalidated(ctx context.Context, userID string, issuedAt time.Time) (bool, error)
}

// issuedBefore compares at second precision, matching iat. A token minted in
// the same second as the cutoff stays valid.
func issuedBefore(issuedAt time.Time, cutoff int64) bool {
	return issuedAt.Unix() < cutoff
}

// InMemoryTokenBlacklist is the fallback when Redis is disabled. State is
// per process.
type InMemoryTokenBlacklist struct {
	mu      sync.Mutex
	revoked map[string]time.Time // jti -> expiry
	cutoffs map[string]userCutoff
	now     func() time.Time
}

type userCutoff struct {
	unix    int64
	expires time.Time // zero never expires
}

func NewInMemoryTokenBlacklist() *InMemoryTokenBlacklist {
	return &InMemoryTokenBlacklist{
		revoked: make(map[string]time.Time),
		cutoffs: make(map[string]userCutoff),
		now:     time.Now,
	}
}

var _ TokenBlacklist = (*InMemoryTokenBlacklist)(nil)

func (b *InMemoryTokenBlacklist) AddToBlacklist(_ context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	b.mu.Lock()
	b.revoked[jti] = b.now().Add(ttl)
	b.mu.Unlock()
	return nil
}

// IsBlacklisted drops the entry once it has expired
func (b *InMemoryTokenBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	expires, ok := b.revoked[jti]
	if ok && !b.now().Before(expires) {
		delete(b.revoked, jti)
		return false, nil
	}
	return ok, nil
}

func (b *InMemoryTokenBlacklist) InvalidateUserTokens(_ context.Context, userID string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	c := userCutoff{unix: now.Unix()}
	if ttl > 0 {
		c.expires = now.Add(ttl)
	}
	b.cutoffs[userID] = c
	return nil
}

func (b *InMemoryTokenBlacklist) IsUserTokenInvalidated(_ context.Context, userID string, issuedAt time.Time) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	c, ok := b.cutoffs[userID]
	if !ok {
		return false, nil
	}
	if !c.expires.IsZero() && !b.now().Before(c.expires) {
		delete(b.cutoffs, userID)
		return false, nil
	}
	return issuedBefore(issuedAt, c.unix), nil
}
