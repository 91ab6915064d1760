package service

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/rachitv/framl/backend/internal/domain"
)

var (
	whitespaceRegex = regexp.MustCompile(`\s+`)
	nonDigitRegex   = regexp.MustCompile(`\D+`)
)

// normalizeUser canonicalizes linkable attribute values so that equality in
// the attribute index means real-world equality, and validates the parts the
// deriver depends on. Returns domain.ErrValidation before any store write.
func normalizeUser(u domain.User) (domain.User, error) {
	u.ID = strings.TrimSpace(u.ID)
	if u.ID == "" {
		return domain.User{}, fmt.Errorf("%w: user id is required", domain.ErrValidation)
	}
	u.Name = sanitizeString(u.Name)
	u.Email = normalizeEmail(u.Email)
	u.Phone = normalizePhone(u.Phone)
	u.Address = normalizeAddress(u.Address)
	u.PaymentMethod = strings.ToLower(strings.TrimSpace(u.PaymentMethod))
	return u, nil
}

func normalizeTransaction(tx domain.Transaction) (domain.Transaction, error) {
	tx.ID = strings.TrimSpace(tx.ID)
	if tx.ID == "" {
		return domain.Transaction{}, fmt.Errorf("%w: transaction id is required", domain.ErrValidation)
	}
	tx.SenderID = strings.TrimSpace(tx.SenderID)
	tx.ReceiverID = strings.TrimSpace(tx.ReceiverID)
	if tx.SenderID == "" || tx.ReceiverID == "" {
		return domain.Transaction{}, fmt.Errorf("%w: sender and receiver ids are required", domain.ErrValidation)
	}
	if tx.Amount < 0 {
		return domain.Transaction{}, fmt.Errorf("%w: amount must be non-negative", domain.ErrValidation)
	}
	if tx.RiskScore < 0 || tx.RiskScore > 1 {
		return domain.Transaction{}, fmt.Errorf("%w: risk score must be within [0,1]", domain.ErrValidation)
	}
	if tx.Timestamp.IsZero() {
		return domain.Transaction{}, fmt.Errorf("%w: timestamp is required", domain.ErrValidation)
	}
	if tx.Currency == "" {
		tx.Currency = domain.DefaultCurrency
	}
	if tx.Status == "" {
		tx.Status = domain.StatusClear
	}
	if !domain.ValidStatus(tx.Status) {
		return domain.Transaction{}, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, tx.Status)
	}
	tx.IPAddress = strings.TrimSpace(tx.IPAddress)
	tx.DeviceID = strings.ToLower(strings.TrimSpace(tx.DeviceID))
	return tx, nil
}

// normalizeEmail lowercases and trims the provided email.
func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

// normalizePhone removes non-digit characters to produce a canonical
// representation.
func normalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	phone = nonDigitRegex.ReplaceAllString(phone, "")
	if phone == "" {
		return ""
	}
	if strings.HasPrefix(phone, "00") {
		phone = phone[2:]
	}
	return "+" + phone
}

// normalizeAddress lowercases and collapses whitespace so trivially different
// spellings of one address land in the same bucket.
func normalizeAddress(address string) string {
	return strings.ToLower(sanitizeString(address))
}

// sanitizeString collapses whitespace and trims the result.
func sanitizeString(value string) string {
	value = whitespaceRegex.ReplaceAllString(value, " ")
	return strings.TrimSpace(value)
}
