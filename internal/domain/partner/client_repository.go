package partner

import (
	"context"

	"github.com/cotiza/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Client error codes
const (
	CodeDuplicateNIT   = "DUPLICATE_NIT"
	CodeDuplicateEmail = "DUPLICATE_EMAIL"
)

var (
	ErrDuplicateNIT   = shared.NewConflictError(CodeDuplicateNIT, "A client with this NIT already exists")
	ErrDuplicateEmail = shared.NewConflictError(CodeDuplicateEmail, "A client with this email already exists")
)

// ClientRepository defines the interface for client persistence
type ClientRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Client, error)

	// List searches name, NIT and email with the filter's Search term
	List(ctx context.Context, filter shared.Filter) (*shared.Paginated[Client], error)

	// ExistsByNIT checks for another client with the NIT. excludeID may be uuid.Nil.
	ExistsByNIT(ctx context.Context, nit string, excludeID uuid.UUID) (bool, error)

	// ExistsByEmail checks for another client with the email. excludeID may be uuid.Nil.
	ExistsByEmail(ctx context.Context, email string, excludeID uuid.UUID) (bool, error)

	Create(ctx context.Context, client *Client) error
	Save(ctx context.Context, client *Client) error
	Delete(ctx context.Context, id uuid.UUID) error
}
