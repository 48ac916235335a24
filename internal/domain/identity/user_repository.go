package identity

import (
	"context"

	"github.com/cotiza/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ErrEmailTaken is returned when registering an email that already has an account
var ErrEmailTaken = shared.NewConflictError("EMAIL_TAKEN", "An account with this email already exists")

// UserRepository defines the interface for user persistence
type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)

	// FindByEmail looks the user up by lower-cased email
	FindByEmail(ctx context.Context, email string) (*User, error)

	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, user *User) error
	Save(ctx context.Context, user *User) error
	Delete(ctx context.Context, id uuid.UUID) error
}
