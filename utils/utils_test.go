package utils

import (
	"context"
	"net/smtp"
	"testing"

	"github.com/Kariqs/amexan-market/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToken(t *testing.T) {
	user := models.User{ID: "u-1", Email: "ada@example.com", Role: models.RoleSeller}

	t.Run("Round trip", func(t *testing.T) {
		token, err := GenerateToken("secret", user)
		require.NoError(t, err)

		claims, err := ParseToken("secret", token)
		require.NoError(t, err)

		caller, err := CallerFromClaims(claims)
		require.NoError(t, err)
		assert.Equal(t, &models.Caller{ID: "u-1", Email: "ada@example.com", Role: models.RoleSeller}, caller)
	})

	t.Run("Fail on wrong secret", func(t *testing.T) {
		token, err := GenerateToken("secret", user)
		require.NoError(t, err)

		_, err = ParseToken("other", token)
		assert.Error(t, err)
	})

	t.Run("Fail without user id", func(t *testing.T) {
		_, err := CallerFromClaims(jwt.MapClaims{"email": "x@example.com"})
		assert.Error(t, err)
	})

	t.Run("Role defaults to user", func(t *testing.T) {
		caller, err := CallerFromClaims(jwt.MapClaims{"user_id": "u-2"})
		require.NoError(t, err)
		assert.Equal(t, models.RoleUser, caller.Role)
	})
}

func TestSendOrderConfirmation(t *testing.T) {
	var (
		gotAddr string
		gotTo   []string
		gotMsg  string
	)
	m := NewMailer(SMTPConfig{
		From:        "orders@amexan.store",
		Password:    "pw",
		Host:        "smtp.example.com",
		Address:     "smtp.example.com:587",
		FrontendURL: "https://www.amexan.store",
	})
	m.send = func(addr string, _ smtp.Auth, _ string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, string(msg)
		return nil
	}

	err := m.SendOrderConfirmation(context.Background(), "ada@example.com", "Ada", "o-1", "25.00")

	require.NoError(t, err)
	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, []string{"ada@example.com"}, gotTo)
	assert.Contains(t, gotMsg, "Subject: Order Confirmed")
	assert.Contains(t, gotMsg, "Hi Ada,")
	assert.Contains(t, gotMsg, "25.00")
	assert.Contains(t, gotMsg, "https://www.amexan.store/orders/o-1")

	m.send = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("connection refused") }
	err = m.SendOrderConfirmation(context.Background(), "ada@example.com", "Ada", "o-1", "25.00")
	assert.ErrorContains(t, err, "failed to send email")
}
