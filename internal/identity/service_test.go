package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestService() *Service {
	return NewService(NewMemoryRepository()).WithCost(bcrypt.MinCost)
}

func TestRegisterAndAuthenticate(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	user, err := svc.Register(ctx, Credentials{Username: "sarah1", Password: "sarah123"}, []string{"CARD-OWNER"})
	require.NoError(t, err)
	assert.NotEqual(t, "sarah123", string(user.PasswordHash), "password stored in clear")

	p, err := svc.Authenticate(ctx, Credentials{Username: "sarah1", Password: "sarah123"})
	require.NoError(t, err)
	assert.Equal(t, "sarah1", p.Name)
	assert.True(t, p.HasRole("CARD-OWNER"))
}

func TestAuthenticateRejectsBadCredentials(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, Credentials{Username: "sarah1", Password: "sarah123"}, nil)
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, Credentials{Username: "sarah1", Password: "BAD"})
	assert.ErrorIs(t, err, ErrInvalidCredentials, "wrong password")

	_, err = svc.Authenticate(ctx, Credentials{Username: "BAD-USER", Password: "sarah123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials, "unknown user")
}

func TestUnknownUserComparesAtStoredCost(t *testing.T) {
	for _, cost := range []int{bcrypt.MinCost, bcrypt.MinCost + 2} {
		svc := NewService(NewMemoryRepository()).WithCost(cost)
		ctx := context.Background()

		user, err := svc.Register(ctx, Credentials{Username: "sarah1", Password: "sarah123"}, nil)
		require.NoError(t, err)

		_, err = svc.Authenticate(ctx, Credentials{Username: "nobody", Password: "sarah123"})
		require.ErrorIs(t, err, ErrInvalidCredentials)

		stored, err := bcrypt.Cost(user.PasswordHash)
		require.NoError(t, err)
		dummy, err := bcrypt.Cost(svc.dummyHash())
		require.NoError(t, err)
		assert.Equal(t, stored, dummy, "unknown users must cost as much as real ones")
	}

	dummy, err := bcrypt.Cost(NewService(NewMemoryRepository()).dummyHash())
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, dummy)
}

func TestSeedSkipsExistingUsers(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	seeds := []SeedUser{
		{Username: "sarah1", Password: "sarah123", Roles: []string{"CARD-OWNER"}},
		{Username: "stranger", Password: "abc123", Roles: []string{"NON-OWNER"}},
	}
	require.NoError(t, svc.Seed(ctx, seeds))
	require.NoError(t, svc.Seed(ctx, seeds), "re-seed")

	p, found, err := svc.Lookup(ctx, "stranger")
	require.NoError(t, err)
	require.True(t, found)
	assert.False(t, p.HasRole("CARD-OWNER"), "stranger must not hold the owner role")
}

func TestRegisterRejectsDuplicatesAndBlanks(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, Credentials{Username: "sarah1", Password: "sarah123"}, nil)
	require.NoError(t, err)
	_, err = svc.Register(ctx, Credentials{Username: "sarah1", Password: "other"}, nil)
	assert.ErrorIs(t, err, ErrUserExists)

	_, err = svc.Register(ctx, Credentials{Username: "  ", Password: "x"}, nil)
	assert.Error(t, err)
	_, err = svc.Register(ctx, Credentials{Username: "kumar2"}, nil)
	assert.Error(t, err)
}

func TestPrincipalRolesAreCopied(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, Credentials{Username: "kumar2", Password: "xyz789"}, []string{"CARD-OWNER"})
	require.NoError(t, err)
	p, _, _ := svc.Lookup(ctx, "kumar2")
	p.Roles[0] = "ADMIN"

	again, _, _ := svc.Lookup(ctx, "kumar2")
	assert.True(t, again.HasRole("CARD-OWNER"), "stored roles were mutated through a principal")
}
