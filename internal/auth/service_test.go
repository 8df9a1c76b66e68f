package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cashcards/cashcards/internal/identity"
)

func TestIssueAndVerify(t *testing.T) {
	svc := NewService("secret", time.Minute, "cashcards")
	pair, err := svc.Issue(identity.Principal{Name: "sarah1", Roles: []string{"CARD-OWNER"}})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.Equal(t, int64(60), pair.ExpiresIn)

	claims, err := svc.Verify(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "sarah1", claims.Subject)
	assert.Equal(t, []string{"CARD-OWNER"}, claims.Roles)
	assert.NotEmpty(t, claims.ID)
}

func TestVerifyRejectsForeignSecretAndIssuer(t *testing.T) {
	p := identity.Principal{Name: "sarah1"}

	other, err := NewService("other-secret", time.Minute, "cashcards").Issue(p)
	require.NoError(t, err)
	_, err = NewService("secret", time.Minute, "cashcards").Verify(other.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken, "wrong secret")

	foreign, err := NewService("secret", time.Minute, "someone-else").Issue(p)
	require.NoError(t, err)
	_, err = NewService("secret", time.Minute, "cashcards").Verify(foreign.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken, "wrong issuer")
}

func TestVerifyRejectsExpired(t *testing.T) {
	svc := NewService("secret", time.Minute, "cashcards")
	issuedAt := time.Now().Add(-time.Hour)
	svc.now = func() time.Time { return issuedAt }
	pair, err := svc.Issue(identity.Principal{Name: "sarah1"})
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.Verify(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	svc := NewService("secret", time.Minute, "cashcards")
	_, err := svc.Verify("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
