// Package partner implements client management
package partner

import (
	"context"
	"time"

	"github.com/cotiza/backend/internal/domain/partner"
	"github.com/cotiza/backend/internal/domain/shared"
	"github.com/cotiza/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ClientService handles client-related business operations
type ClientService struct {
	repo partner.ClientRepository
	now  func() time.Time
}

// NewClientService creates a new ClientService
func NewClientService(repo partner.ClientRepository) *ClientService {
	return &ClientService{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the time source
func (s *ClientService) WithClock(now func() time.Time) *ClientService {
	s.now = now
	return s
}

// Create creates a new client. NIT and email must not belong to another client.
func (s *ClientService) Create(ctx context.Context, req CreateClientRequest) (*ClientResponse, error) {
	client, err := partner.NewClient(partner.ClientInput{
		Name:                req.Name,
		NIT:                 req.NIT,
		LegalRepresentative: req.LegalRepresentative,
		Email:               req.Email,
		Phone:               req.Phone,
		AltPhone:            req.AltPhone,
		Address:             req.Address,
	}, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.checkUnique(ctx, client, uuid.Nil); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, client); err != nil {
		return nil, err
	}

	logger.L(ctx).Info("client created", zap.String("client_id", client.ID.String()), zap.String("nit", client.NIT))
	response := ToClientResponse(client)
	return &response, nil
}

// GetByID retrieves a client by ID
func (s *ClientService) GetByID(ctx context.Context, id uuid.UUID) (*ClientResponse, error) {
	client, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToClientResponse(client)
	return &response, nil
}

// List searches clients by name, NIT or email
func (s *ClientService) List(ctx context.Context, f ClientListFilter) (*ClientListResponse, error) {
	page, err := s.repo.List(ctx, shared.Filter{
		Page:     f.Page,
		PageSize: f.PageSize,
		OrderBy:  f.OrderBy,
		OrderDir: f.OrderDir,
		Search:   f.Search,
	})
	if err != nil {
		return nil, err
	}

	items := make([]ClientResponse, len(page.Items))
	for i := range page.Items {
		items[i] = ToClientResponse(&page.Items[i])
	}
	return &ClientListResponse{Items: items, PageInfo: page.PageInfo}, nil
}

// Update patches a client
func (s *ClientService) Update(ctx context.Context, id uuid.UUID, req UpdateClientRequest) (*ClientResponse, error) {
	client, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := client.Apply(req.patch(), s.now()); err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, client, client.ID); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, client); err != nil {
		return nil, err
	}

	response := ToClientResponse(client)
	return &response, nil
}

// Delete removes a client. Quotations keep their copy of the client data.
func (s *ClientService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	logger.L(ctx).Info("client deleted", zap.String("client_id", id.String()))
	return nil
}

func (s *ClientService) checkUnique(ctx context.Context, client *partner.Client, excludeID uuid.UUID) error {
	exists, err := s.repo.ExistsByNIT(ctx, client.NIT, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return partner.ErrDuplicateNIT
	}

	exists, err = s.repo.ExistsByEmail(ctx, client.Email, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return partner.ErrDuplicateEmail
	}
	return nil
}
