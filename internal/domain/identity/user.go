package identity

import (
	"regexp"
	"strings"
	"time"

	"github.com/cotiza/backend/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

// Password cost for bcrypt
const bcryptCost = 12

const (
	minUserAge = 1
	maxUserAge = 120
)

var (
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	letterRegex   = regexp.MustCompile(`[a-zA-Z]`)
	digitRegex    = regexp.MustCompile(`[0-9]`)
	bloodTypeList = map[string]bool{"A+": true, "A-": true, "B+": true, "B-": true, "AB+": true, "AB-": true, "O+": true, "O-": true}
)

// User represents an account that can sign in and own quotations
type User struct {
	shared.BaseAggregateRoot
	Email          string
	Name           string
	Age            int
	PasswordHash   string
	IsVerified     bool
	CompanyName    string
	CompanyAddress string
	Phone          string
	RecoveryEmail  string
	City           string
	BloodType      string
	LastLoginAt    *time.Time
}

// NewUser registers a new, unverified user
func NewUser(email, name string, age int, password string, now time.Time) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := validateAge(age); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}

	u := &User{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(now),
		Email:             email,
		Name:              name,
		Age:               age,
		PasswordHash:      hash,
	}
	return u, nil
}

// VerifyPassword checks if the provided password matches the stored hash
func (u *User) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// SetPassword replaces the password hash
func (u *User) SetPassword(password string, now time.Time) error {
	if err := validatePassword(password); err != nil {
		return err
	}
	hash, err := hashPassword(password)
	if err != nil {
		return shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}
	u.PasswordHash = hash
	u.Touch(now)
	return nil
}

// MarkVerified records that the user confirmed their email address
func (u *User) MarkVerified(now time.Time) {
	u.IsVerified = true
	u.Touch(now)
}

// RecordLogin stamps the last successful login
func (u *User) RecordLogin(now time.Time) {
	u.LastLoginAt = &now
}

// ProfilePatch is the allow-list of fields a user may change on their own profile
type ProfilePatch struct {
	Name           *string
	Age            *int
	CompanyName    *string
	CompanyAddress *string
	Phone          *string
	RecoveryEmail  *string
	City           *string
	BloodType      *string
}

// ApplyProfile patches the profile. Nothing changes when a field is invalid.
func (u *User) ApplyProfile(p ProfilePatch, now time.Time) error {
	next := *u

	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if err := validateName(name); err != nil {
			return err
		}
		next.Name = name
	}
	if p.Age != nil {
		if err := validateAge(*p.Age); err != nil {
			return err
		}
		next.Age = *p.Age
	}
	if p.CompanyName != nil {
		next.CompanyName = strings.TrimSpace(*p.CompanyName)
	}
	if p.CompanyAddress != nil {
		next.CompanyAddress = strings.TrimSpace(*p.CompanyAddress)
	}
	if p.Phone != nil {
		phone := strings.TrimSpace(*p.Phone)
		if len(phone) > 50 {
			return shared.NewValidationError("phone", "Phone cannot exceed 50 characters")
		}
		next.Phone = phone
	}
	if p.RecoveryEmail != nil {
		recovery := strings.ToLower(strings.TrimSpace(*p.RecoveryEmail))
		if recovery != "" {
			if err := validateEmail(recovery); err != nil {
				return shared.NewValidationError("recovery_email", "Invalid recovery email format")
			}
		}
		next.RecoveryEmail = recovery
	}
	if p.City != nil {
		next.City = strings.TrimSpace(*p.City)
	}
	if p.BloodType != nil {
		bt := strings.ToUpper(strings.TrimSpace(*p.BloodType))
		if bt != "" && !bloodTypeList[bt] {
			return shared.NewValidationError("blood_type", "Unknown blood type")
		}
		next.BloodType = bt
	}

	next.Touch(now)
	*u = next
	return nil
}

// ProfileCompletion returns the integer percentage of key profile fields filled in
func (u *User) ProfileCompletion() int {
	fields := []bool{
		u.Name != "",
		u.Email != "",
		u.Age > 0,
		u.CompanyName != "",
		u.Phone != "",
		u.City != "",
	}
	done := 0
	for _, ok := range fields {
		if ok {
			done++
		}
	}
	return done * 100 / len(fields)
}

func validateName(name string) error {
	if name == "" {
		return shared.NewValidationError("name", "Name cannot be empty")
	}
	if len([]rune(name)) > 100 {
		return shared.NewValidationError("name", "Name cannot exceed 100 characters")
	}
	return nil
}

func validateAge(age int) error {
	if age < minUserAge || age > maxUserAge {
		return shared.NewValidationError("age", "Age must be between 1 and 120")
	}
	return nil
}

func validatePassword(password string) error {
	if password == "" {
		return shared.NewValidationError("password", "Password cannot be empty")
	}
	if len(password) < 8 {
		return shared.NewValidationError("password", "Password must be at least 8 characters")
	}
	if len(password) > 72 {
		return shared.NewValidationError("password", "Password cannot exceed 72 characters")
	}
	if !letterRegex.MatchString(password) || !digitRegex.MatchString(password) {
		return shared.NewValidationError("password", "Password must contain at least one letter and one number")
	}
	return nil
}

func validateEmail(email string) error {
	if len(email) > 200 {
		return shared.NewValidationError("email", "Email cannot exceed 200 characters")
	}
	if !emailRegex.MatchString(email) {
		return shared.NewValidationError("email", "Invalid email format")
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
