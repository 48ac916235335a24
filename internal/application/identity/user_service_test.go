package identity

import (
	"context"
	"testing"

	"github.com/cotiza/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestUserService_ProfileCompletion(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	user, err := f.auth.Register(ctx, registerRequest("laura@cotiza.co"))
	require.NoError(t, err)
	assert.Equal(t, 50, user.ProfileCompletion, "name, email and age out of six fields")

	completion, err := f.users.ProfileCompletion(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, completion.ProfileCompletion)
	assert.Equal(t, []string{"company_name", "phone", "city"}, completion.MissingFields)

	_, err = f.users.UpdateProfile(ctx, user.ID, UpdateProfileRequest{
		CompanyName: ptr("Ferretería Gómez"),
		City:        ptr("Medellín"),
	})
	require.NoError(t, err)

	completion, err = f.users.ProfileCompletion(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 83, completion.ProfileCompletion)
	assert.Equal(t, []string{"phone"}, completion.MissingFields)
}

func TestUserService_UpdateProfile(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	user, err := f.auth.Register(ctx, registerRequest("laura@cotiza.co"))
	require.NoError(t, err)

	updated, err := f.users.UpdateProfile(ctx, user.ID, UpdateProfileRequest{
		Name:          ptr("Laura G."),
		Phone:         ptr("3001234567"),
		RecoveryEmail: ptr("Laura.Alt@Mail.com"),
		BloodType:     ptr("o+"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Laura G.", updated.Name)
	assert.Equal(t, "laura.alt@mail.com", updated.RecoveryEmail)
	assert.Equal(t, "O+", updated.BloodType)
	assert.Equal(t, "laura@cotiza.co", updated.Email)

	_, err = f.users.UpdateProfile(ctx, user.ID, UpdateProfileRequest{
		City:      ptr("Cali"),
		BloodType: ptr("Z"),
	})
	requireCode(t, err, shared.CodeValidation)

	me, err := f.users.Me(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, me.City, "a rejected patch changes nothing")
	assert.Equal(t, "3001234567", me.Phone)
}

func TestUserService_Delete(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	user, err := f.auth.Register(ctx, registerRequest("laura@cotiza.co"))
	require.NoError(t, err)

	require.NoError(t, f.users.Delete(ctx, user.ID))

	_, err = f.users.Me(ctx, user.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.ErrorIs(t, f.users.Delete(ctx, user.ID), shared.ErrNotFound)

	_, err = f.auth.Login(ctx, LoginRequest{Email: "laura@cotiza.co", Password: "secreto123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.auth.Register(ctx, registerRequest("laura@cotiza.co"))
	assert.NoError(t, err, "the email is free again")
}
