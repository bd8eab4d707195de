// Package payment defines the payment gateway the purchase flow confirms
// against, plus the mocked gateway used in place of a real processor.
package payment

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pageboundapp/pagebound-server/internal/domain"
	domainerrors "github.com/pageboundapp/pagebound-server/internal/errors"
	"github.com/pageboundapp/pagebound-server/internal/validation"
)

// Charge is a request to take payment for one book.
type Charge struct {
	UserID string               `json:"user_id" validate:"required"`
	BookID string               `json:"book_id" validate:"required"`
	Method domain.PaymentMethod `json:"method" validate:"required,oneof=card upi wallet"`
	Amount float64              `json:"amount" validate:"gt=0"`
}

// Gateway confirms payments. A nil error means the charge went through.
type Gateway interface {
	Charge(ctx context.Context, c Charge) (domain.Receipt, error)
}

// MockGateway accepts every well-formed charge.
type MockGateway struct {
	validator *validation.Validator
	logger    *slog.Logger
}

// NewMockGateway creates the always-succeeding gateway.
func NewMockGateway(v *validation.Validator, logger *slog.Logger) *MockGateway {
	return &MockGateway{validator: v, logger: logger}
}

// Charge validates the request and issues a receipt.
func (g *MockGateway) Charge(ctx context.Context, c Charge) (domain.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return domain.Receipt{}, domainerrors.RemoteFailure(err, "payment gateway unavailable")
	}
	if err := g.validator.Validate(c); err != nil {
		return domain.Receipt{}, err
	}

	receipt := domain.Receipt{
		IssuedAt: time.Now(),
		ID:       uuid.NewString(),
		UserID:   c.UserID,
		BookID:   c.BookID,
		Method:   c.Method,
		Amount:   c.Amount,
	}

	g.logger.Info("payment confirmed",
		"receipt_id", receipt.ID,
		"user_id", c.UserID,
		"book_id", c.BookID,
		"method", c.Method,
	)
	return receipt, nil
}
