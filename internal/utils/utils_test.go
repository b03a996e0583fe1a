package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWhatsAppURL(t *testing.T) {
	phone := "+91 98765-43210"
	got := WhatsAppURL("91", &phone)
	require.NotNil(t, got)
	assert.Equal(t, "https://wa.me/91919876543210", *got)

	local := "98765 43210"
	assert.Equal(t, "https://wa.me/919876543210", *WhatsAppURL("91", &local))

	empty := " - "
	assert.Nil(t, WhatsAppURL("91", &empty))
	assert.Nil(t, WhatsAppURL("91", nil))
}

func TestTokenIssuerRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)

	tok, err := issuer.Generate("user-1", "a@b.c")
	require.NoError(t, err)

	claims, err := issuer.Validate(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "a@b.c", claims.Email)
}

func TestTokenIssuerRejectsForeignSecretAndExpiry(t *testing.T) {
	tok, err := NewTokenIssuer("other", time.Hour).Generate("user-1", "a@b.c")
	require.NoError(t, err)
	_, err = NewTokenIssuer("secret", time.Hour).Validate(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := NewTokenIssuer("secret", -time.Minute).Generate("user-1", "a@b.c")
	require.NoError(t, err)
	_, err = NewTokenIssuer("secret", time.Hour).Validate(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
