package service_test

import (
	"bms-service/internal/domain"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuccessCreateUser(t *testing.T) {
	e := setup(t)

	user, err := e.userService.CreateUser(e.ctx, domain.User{Email: " nina@example.com ", FirstName: "Nina"})
	require.NoError(t, err)
	assert.Equal(t, "nina@example.com", user.Email)

	got, err := e.userService.User(e.ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user, got)
}

func TestCreateUserFail(t *testing.T) {
	e := setup(t)

	_, err := e.userService.CreateUser(e.ctx, domain.User{Email: "not-an-email"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = e.userService.CreateUser(e.ctx, domain.User{Email: "PETR@example.com"})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestUserFailNotFound(t *testing.T) {
	e := setup(t)

	_, err := e.userService.User(e.ctx, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
