package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "unit-test-secret"

func TestUserTokenRoundTrip(t *testing.T) {
	perms := []string{PermReadMenu, PermWriteOrders}
	raw, exp, err := IssueUserToken(testSecret, 42, "jane@example.com", RoleCustomer, perms, 15*time.Minute)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), exp, 2*time.Second)

	claims, err := VerifyUserToken(testSecret, raw)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), claims.ID)
	assert.Equal(t, "jane@example.com", claims.Email)
	assert.Equal(t, RoleCustomer, claims.UserType)
	assert.Equal(t, perms, claims.Permissions)
	assert.Equal(t, TokenKindUser, claims.Type)
}

func TestServiceTokenRoundTrip(t *testing.T) {
	raw, _, err := IssueServiceToken(testSecret, 7, "sa_abc", "restaurant", []string{PermReadMenu}, time.Hour)
	require.NoError(t, err)

	claims, err := VerifyServiceToken(testSecret, raw)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), claims.ServiceID)
	assert.Equal(t, "sa_abc", claims.ClientID)
	assert.Equal(t, "restaurant", claims.ServiceName)
	assert.Equal(t, []string{PermReadMenu}, claims.Scopes)
}

func TestVerifyRejectsWrongKind(t *testing.T) {
	userTok, _, err := IssueUserToken(testSecret, 1, "a@b.c", RoleAdmin, nil, time.Hour)
	require.NoError(t, err)
	svcTok, _, err := IssueServiceToken(testSecret, 1, "sa_x", "delivery", nil, time.Hour)
	require.NoError(t, err)

	_, err = VerifyServiceToken(testSecret, userTok)
	assert.ErrorIs(t, err, ErrTokenInvalid)
	_, err = VerifyUserToken(testSecret, svcTok)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	raw, _, err := IssueUserToken(testSecret, 1, "a@b.c", RoleCustomer, nil, time.Hour)
	require.NoError(t, err)

	_, err = VerifyUserToken("other-secret", raw)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyRejectsExpired(t *testing.T) {
	raw, _, err := IssueUserToken(testSecret, 1, "a@b.c", RoleCustomer, nil, -time.Minute)
	require.NoError(t, err)

	_, err = VerifyUserToken(testSecret, raw)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	_, err := VerifyUserToken(testSecret, "not.a.jwt")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestPeekExpiry(t *testing.T) {
	raw, exp, err := IssueUserToken(testSecret, 1, "a@b.c", RoleCustomer, nil, time.Hour)
	require.NoError(t, err)

	got := PeekExpiry(raw)
	require.NotNil(t, got)
	assert.WithinDuration(t, exp, *got, time.Second)

	assert.Nil(t, PeekExpiry("garbage"))
}

func TestTokenKind(t *testing.T) {
	userTok, _, _ := IssueUserToken(testSecret, 1, "a@b.c", RoleCustomer, nil, time.Hour)
	svcTok, _, _ := IssueServiceToken(testSecret, 1, "sa_x", "payment", nil, time.Hour)

	assert.Equal(t, TokenKindUser, TokenKind(userTok))
	assert.Equal(t, TokenKindService, TokenKind(svcTok))
	assert.Equal(t, "", TokenKind("garbage"))
}
