package domain

import "time"

// PaymentMethod is how a reader pays for a book.
type PaymentMethod string

const (
	PaymentCard   PaymentMethod = "card"
	PaymentUPI    PaymentMethod = "upi"
	PaymentWallet PaymentMethod = "wallet"
)

// Valid reports whether m is an accepted method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCard, PaymentUPI, PaymentWallet:
		return true
	default:
		return false
	}
}

// Receipt is a payment confirmation issued by the gateway.
type Receipt struct {
	IssuedAt time.Time     `json:"issued_at"`
	ID       string        `json:"id"`
	UserID   string        `json:"user_id"`
	BookID   string        `json:"book_id"`
	Method   PaymentMethod `json:"method"`
	Amount   float64       `json:"amount"`
}
