package identity

import (
	"context"
	"time"

	"github.com/cotiza/backend/internal/domain/identity"
	"github.com/cotiza/backend/internal/infrastructure/auth"
	"github.com/cotiza/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserService serves the signed-in user's own account
type UserService struct {
	users     identity.UserRepository
	blacklist auth.TokenBlacklist
	tokenTTL  time.Duration
	now       func() time.Time
}

// NewUserService creates a new UserService. tokenTTL bounds how long a
// deleted account's sessions must stay revoked.
func NewUserService(users identity.UserRepository, blacklist auth.TokenBlacklist, tokenTTL time.Duration) *UserService {
	return &UserService{
		users:     users,
		blacklist: blacklist,
		tokenTTL:  tokenTTL,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the time source
func (s *UserService) WithClock(now func() time.Time) *UserService {
	s.now = now
	return s
}

// Me returns the user's profile
func (s *UserService) Me(ctx context.Context, userID uuid.UUID) (*UserResponse, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	response := ToUserResponse(user)
	return &response, nil
}

// UpdateProfile applies the allow-listed profile patch
func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, req UpdateProfileRequest) (*UserResponse, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := user.ApplyProfile(req.patch(), s.now()); err != nil {
		return nil, err
	}
	if err := s.users.Save(ctx, user); err != nil {
		return nil, err
	}
	response := ToUserResponse(user)
	return &response, nil
}

// ProfileCompletion reports the filled-in percentage and the fields still missing
func (s *UserService) ProfileCompletion(ctx context.Context, userID uuid.UUID) (*ProfileCompletionResponse, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &ProfileCompletionResponse{
		ProfileCompletion: user.ProfileCompletion(),
		MissingFields:     missingProfileFields(user),
		IsVerified:        user.IsVerified,
	}, nil
}

// Delete removes the account and revokes its open sessions
func (s *UserService) Delete(ctx context.Context, userID uuid.UUID) error {
	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}
	if err := s.blacklist.InvalidateUserTokens(ctx, userID.String(), s.tokenTTL); err != nil {
		logger.L(ctx).Error("failed to revoke sessions of deleted user", zap.Error(err))
	}
	logger.L(ctx).Info("user deleted", zap.String("user_id", userID.String()))
	return nil
}
