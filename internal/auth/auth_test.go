package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	tokens := NewTokens("test-secret", time.Hour)
	raw, err := tokens.GenerateToken(7, "ayse@kahve.test", RoleCashier, 3)
	require.NoError(t, err)

	claims, err := tokens.ValidateToken(raw)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "cashier", claims.Role)
	assert.Equal(t, uint(3), claims.BranchID)
}

func TestTokenRejectsOtherSecretAndExpiry(t *testing.T) {
	raw, err := NewTokens("a", time.Hour).GenerateToken(1, "x@y", RoleAdmin, 0)
	require.NoError(t, err)
	_, err = NewTokens("b", time.Hour).ValidateToken(raw)
	assert.Error(t, err)

	expired, err := NewTokens("a", time.Nanosecond).GenerateToken(1, "x@y", RoleAdmin, 0)
	require.NoError(t, err)
	time.Sleep(2 * time.Second)
	_, err = NewTokens("a", time.Hour).ValidateToken(expired)
	assert.Error(t, err)
}

func TestRolePermissions(t *testing.T) {
	assert.True(t, RoleAdmin.CanCheckout())
	assert.True(t, RoleCashier.CanCheckout())
	assert.False(t, RoleBranchManager.CanCheckout())
	assert.False(t, Role("barista").CanCheckout())

	assert.True(t, RoleBranchManager.CanManageStock())
	assert.False(t, RoleCashier.CanManageStock())

	_, err := ParseRole("barista")
	assert.Error(t, err)
	r, err := ParseRole("branch_manager")
	require.NoError(t, err)
	assert.Equal(t, "Şube Müdürü", r.Label())
}

func TestPasswordHashing(t *testing.T) {
	_, err := HashPassword("12345")
	assert.ErrorIs(t, err, ErrPasswordTooShort)

	hash, err := HashPassword("espresso")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "espresso"))
	assert.False(t, CheckPassword(hash, "latte"))
}
