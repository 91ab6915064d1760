package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rachitv/framl/backend/internal/domain"
)

func TestNormalizeUser(t *testing.T) {
	u, err := normalizeUser(domain.User{
		ID:            " U-1 ",
		Name:          "  Priya   Sharma ",
		Email:         " Priya.Sharma@Example.COM ",
		Phone:         "+91-98765-43210",
		Address:       "Flat  No. 12,\tMG Road,  Mumbai",
		PaymentMethod: " CARD_1234 ",
	})
	require.NoError(t, err)

	assert.Equal(t, "U-1", u.ID)
	assert.Equal(t, "Priya Sharma", u.Name)
	assert.Equal(t, "priya.sharma@example.com", u.Email)
	assert.Equal(t, "+919876543210", u.Phone)
	assert.Equal(t, "flat no. 12, mg road, mumbai", u.Address)
	assert.Equal(t, "card_1234", u.PaymentMethod)
}

func TestNormalizePhoneVariants(t *testing.T) {
	cases := map[string]string{
		"+91-98765-43210":  "+919876543210",
		"91 98765 43210":   "+919876543210",
		"0091 98765 43210": "+919876543210",
		"(987) 654-3210":   "+9876543210",
		"":                 "",
		"---":              "",
	}
	for input, want := range cases {
		assert.Equal(t, want, normalizePhone(input), "input %q", input)
	}
}

func TestNormalizeUserRequiresID(t *testing.T) {
	_, err := normalizeUser(domain.User{ID: "   "})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestNormalizeTransactionDefaultsAndTrims(t *testing.T) {
	tx, err := normalizeTransaction(domain.Transaction{
		ID:         " TX-1 ",
		SenderID:   " U-1 ",
		ReceiverID: " U-2 ",
		Amount:     100,
		Timestamp:  time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		DeviceID:   " DEV-1 ",
	})
	require.NoError(t, err)

	assert.Equal(t, "TX-1", tx.ID)
	assert.Equal(t, "U-1", tx.SenderID)
	assert.Equal(t, "U-2", tx.ReceiverID)
	assert.Equal(t, domain.DefaultCurrency, tx.Currency)
	assert.Equal(t, domain.StatusClear, tx.Status)
	assert.Equal(t, "dev-1", tx.DeviceID)
}
