package identity

import (
	"time"

	"github.com/cotiza/backend/internal/domain/identity"
	"github.com/cotiza/backend/internal/infrastructure/auth"
	"github.com/google/uuid"
)

// RegisterRequest contains the input for account registration
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email,max=200"`
	Name     string `json:"name" binding:"required,max=100"`
	Age      int    `json:"age" binding:"required,min=1,max=120"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

// LoginRequest contains the input for user login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ForgotPasswordRequest asks for a password reset link
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetPasswordRequest sets a new password with a reset token
type ResetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=72"`
}

// UpdateProfileRequest is the allow-listed profile patch. Email and password
// cannot be changed through it.
type UpdateProfileRequest struct {
	Name           *string `json:"name" binding:"omitempty,max=100"`
	Age            *int    `json:"age" binding:"omitempty,min=1,max=120"`
	CompanyName    *string `json:"company_name" binding:"omitempty,max=200"`
	CompanyAddress *string `json:"company_address" binding:"omitempty,max=300"`
	Phone          *string `json:"phone" binding:"omitempty,max=50"`
	RecoveryEmail  *string `json:"recovery_email" binding:"omitempty,max=200"`
	City           *string `json:"city" binding:"omitempty,max=100"`
	BloodType      *string `json:"blood_type" binding:"omitempty,max=3"`
}

// UserResponse represents a user in API responses
type UserResponse struct {
	ID                uuid.UUID  `json:"id"`
	Email             string     `json:"email"`
	Name              string     `json:"name"`
	Age               int        `json:"age"`
	IsVerified        bool       `json:"is_verified"`
	CompanyName       string     `json:"company_name"`
	CompanyAddress    string     `json:"company_address"`
	Phone             string     `json:"phone"`
	RecoveryEmail     string     `json:"recovery_email"`
	City              string     `json:"city"`
	BloodType         string     `json:"blood_type"`
	ProfileCompletion int        `json:"profile_completion"`
	LastLoginAt       *time.Time `json:"last_login_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// LoginResponse is a session token together with the signed-in user
type LoginResponse struct {
	auth.AccessToken
	User UserResponse `json:"user"`
}

// ProfileCompletionResponse reports how much of the profile is filled in
type ProfileCompletionResponse struct {
	ProfileCompletion int      `json:"profile_completion"`
	MissingFields     []string `json:"missing_fields"`
	IsVerified        bool     `json:"is_verified"`
}

// MessageResponse is returned by endpoints without a resource
type MessageResponse struct {
	Message string `json:"message"`
}

// ToUserResponse converts a domain User
func ToUserResponse(u *identity.User) UserResponse {
	return UserResponse{
		ID:                u.ID,
		Email:             u.Email,
		Name:              u.Name,
		Age:               u.Age,
		IsVerified:        u.IsVerified,
		CompanyName:       u.CompanyName,
		CompanyAddress:    u.CompanyAddress,
		Phone:             u.Phone,
		RecoveryEmail:     u.RecoveryEmail,
		City:              u.City,
		BloodType:         u.BloodType,
		ProfileCompletion: u.ProfileCompletion(),
		LastLoginAt:       u.LastLoginAt,
		CreatedAt:         u.CreatedAt,
		UpdatedAt:         u.UpdatedAt,
	}
}

func (r UpdateProfileRequest) patch() identity.ProfilePatch {
	return identity.ProfilePatch{
		Name:           r.Name,
		Age:            r.Age,
		CompanyName:    r.CompanyName,
		CompanyAddress: r.CompanyAddress,
		Phone:          r.Phone,
		RecoveryEmail:  r.RecoveryEmail,
		City:           r.City,
		BloodType:      r.BloodType,
	}
}

// missingProfileFields lists the scored profile fields that are still empty
func missingProfileFields(u *identity.User) []string {
	missing := []string{}
	for _, f := range []struct {
		name  string
		empty bool
	}{
		{"name", u.Name == ""},
		{"email", u.Email == ""},
		{"age", u.Age <= 0},
		{"company_name", u.CompanyName == ""},
		{"phone", u.Phone == ""},
		{"city", u.City == ""},
	} {
		if f.empty {
			missing = append(missing, f.name)
		}
	}
	return missing
}
