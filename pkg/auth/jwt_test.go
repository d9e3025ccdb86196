package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	svc := NewTokenService("secret", time.Hour)

	token, err := svc.Generate("st_marys")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "st_marys", claims.TenantID)
	assert.Equal(t, "st_marys", claims.Subject)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	token, err := NewTokenService("secret-a", time.Hour).Generate("acme")
	require.NoError(t, err)

	_, err = NewTokenService("secret-b", time.Hour).Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsGarbage(t *testing.T) {
	svc := NewTokenService("secret", time.Hour)

	for _, raw := range []string{"", "not-a-token", "a.b.c"} {
		_, err := svc.Validate(raw)
		assert.ErrorIs(t, err, ErrInvalidToken, "token %q", raw)
	}
}

func TestValidateRejectsExpired(t *testing.T) {
	svc := NewTokenService("secret", time.Millisecond)

	token, err := svc.Generate("acme")
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	_, err = svc.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
