package domain

// User is a user node in the graph. The identifier is globally unique and
// format-free; re-ingesting an existing identifier overwrites the attributes.
type User struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	PaymentMethod string `json:"payment_method"`
}
