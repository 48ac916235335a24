package persistence

import (
	"context"
	"fmt"
	"strings"

	"github.com/cotiza/backend/internal/domain/identity"
	"github.com/cotiza/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormUserRepository implements identity.UserRepository using GORM
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GormUserRepository
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	var model models.UserModel
	if err := first(r.db.WithContext(ctx), &model, "user", id, "id = ?", id); err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByEmail finds a user by email, ignoring case
func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	var model models.UserModel
	if err := first(r.db.WithContext(ctx), &model, "user", email, "email = ?", normalizeEmail(email)); err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// ExistsByEmail checks if an account uses the email
func (r *GormUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.UserModel{}).
		Where("email = ?", normalizeEmail(email)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create inserts a new user
func (r *GormUserRepository) Create(ctx context.Context, user *identity.User) error {
	if err := r.db.WithContext(ctx).Create(models.UserModelFromDomain(user)).Error; err != nil {
		if isUniqueViolation(err, "uq_users_email") {
			return identity.ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// Save updates an existing user, checking the version it was loaded with
func (r *GormUserRepository) Save(ctx context.Context, user *identity.User) error {
	m := models.UserModelFromDomain(user)
	err := updateVersioned(r.db.WithContext(ctx), &models.UserModel{}, "user", user.ID, user.Version, map[string]any{
		"name":            m.Name,
		"age":             m.Age,
		"password_hash":   m.PasswordHash,
		"is_verified":     m.IsVerified,
		"company_name":    m.CompanyName,
		"company_address": m.CompanyAddress,
		"phone":           m.Phone,
		"recovery_email":  m.RecoveryEmail,
		"city":            m.City,
		"blood_type":      m.BloodType,
		"last_login_at":   m.LastLoginAt,
		"updated_at":      m.UpdatedAt,
	})
	if err != nil {
		return err
	}
	user.IncrementVersion()
	return nil
}

func (r *GormUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(r.db.WithContext(ctx), &models.UserModel{}, "user", id)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
