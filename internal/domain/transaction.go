package domain

import "time"

// Transaction statuses assigned by the risk pipeline.
const (
	StatusClear   = "clear"
	StatusReview  = "review"
	StatusFlagged = "flagged"
)

// DefaultCurrency is applied when a transaction omits the currency field.
const DefaultCurrency = "INR"

// Transaction models a transaction node in the graph. Sender and receiver
// reference user identifiers; the core tolerates references to users that
// were never ingested.
type Transaction struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	Amount     float64   `json:"amount"`
	Currency   string    `json:"currency"`
	Timestamp  time.Time `json:"timestamp"`
	IPAddress  string    `json:"ip_address"`
	DeviceID   string    `json:"device_id"`
	Status     string    `json:"status"`
	RiskScore  float64   `json:"risk_score"`
}

// ValidStatus reports whether s is one of the recognized transaction statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusClear, StatusReview, StatusFlagged:
		return true
	}
	return false
}
