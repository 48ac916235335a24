package persistence

import (
	"context"
	"fmt"
	"strings"

	"github.com/cotiza/backend/internal/domain/partner"
	"github.com/cotiza/backend/internal/domain/shared"
	"github.com/cotiza/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormClientRepository implements partner.ClientRepository using GORM
type GormClientRepository struct {
	db *gorm.DB
}

// NewGormClientRepository creates a new GormClientRepository
func NewGormClientRepository(db *gorm.DB) *GormClientRepository {
	return &GormClientRepository{db: db}
}

// FindByID finds a client by its ID
func (r *GormClientRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Client, error) {
	var model models.ClientModel
	if err := first(r.db.WithContext(ctx), &model, "client", id, "id = ?", id); err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// List returns a page of clients matching the search term on name, NIT or email
func (r *GormClientRepository) List(ctx context.Context, filter shared.Filter) (*shared.Paginated[partner.Client], error) {
	filter = filter.Normalize()

	scope := func(db *gorm.DB) *gorm.DB {
		if filter.Search == "" {
			return db
		}
		term := escapeLike(filter.Search)
		return db.Where(`(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(nit) LIKE ? ESCAPE '\' OR LOWER(email) LIKE ? ESCAPE '\')`,
			term, term, term)
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.ClientModel{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count clients: %w", err)
	}

	var rows []models.ClientModel
	if err := r.db.WithContext(ctx).
		Scopes(scope).
		Order(orderClause(filter.OrderBy, ClientSortFields, "name", filter.OrderDir)).
		Order("id ASC").
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}

	items := make([]partner.Client, len(rows))
	for i := range rows {
		items[i] = *rows[i].ToDomain()
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// ExistsByNIT checks for a client other than excludeID with the NIT
func (r *GormClientRepository) ExistsByNIT(ctx context.Context, nit string, excludeID uuid.UUID) (bool, error) {
	return r.existsBy(ctx, "nit", strings.ToUpper(strings.TrimSpace(nit)), excludeID)
}

// ExistsByEmail checks for a client other than excludeID with the email
func (r *GormClientRepository) ExistsByEmail(ctx context.Context, email string, excludeID uuid.UUID) (bool, error) {
	return r.existsBy(ctx, "email", strings.ToLower(strings.TrimSpace(email)), excludeID)
}

// Create inserts a new client
func (r *GormClientRepository) Create(ctx context.Context, client *partner.Client) error {
	if err := r.db.WithContext(ctx).Create(models.ClientModelFromDomain(client)).Error; err != nil {
		return r.translateError(ctx, client, err)
	}
	return nil
}

// Save updates an existing client, checking the version it was loaded with
func (r *GormClientRepository) Save(ctx context.Context, client *partner.Client) error {
	m := models.ClientModelFromDomain(client)
	err := updateVersioned(r.db.WithContext(ctx), &models.ClientModel{}, "client", client.ID, client.Version, map[string]any{
		"name":                 m.Name,
		"nit":                  m.NIT,
		"legal_representative": m.LegalRepresentative,
		"email":                m.Email,
		"phone":                m.Phone,
		"alt_phone":            m.AltPhone,
		"address":              m.Address,
		"updated_at":           m.UpdatedAt,
	})
	if isUniqueViolation(err, "") {
		return r.translateError(ctx, client, err)
	}
	if err != nil {
		return err
	}
	client.IncrementVersion()
	return nil
}

func (r *GormClientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(r.db.WithContext(ctx), &models.ClientModel{}, "client", id)
}

// existsBy counts rows where column equals value. column is a fixed identifier.
func (r *GormClientRepository) existsBy(ctx context.Context, column string, value any, excludeID uuid.UUID) (bool, error) {
	query := r.db.WithContext(ctx).Model(&models.ClientModel{}).Where(column+" = ?", value)
	if excludeID != uuid.Nil {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// translateError maps a unique violation to the duplicate error of the key
// that collided. Translated driver errors drop the column, so it is looked up.
func (r *GormClientRepository) translateError(ctx context.Context, client *partner.Client, err error) error {
	if !isUniqueViolation(err, "") {
		return fmt.Errorf("write client: %w", err)
	}
	if taken, lookupErr := r.ExistsByNIT(ctx, client.NIT, client.ID); lookupErr == nil && taken {
		return partner.ErrDuplicateNIT
	}
	if taken, lookupErr := r.ExistsByEmail(ctx, client.Email, client.ID); lookupErr == nil && taken {
		return partner.ErrDuplicateEmail
	}
	return shared.ErrAlreadyExists
}
