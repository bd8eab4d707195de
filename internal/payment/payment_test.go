package payment

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageboundapp/pagebound-server/internal/domain"
	domainerrors "github.com/pageboundapp/pagebound-server/internal/errors"
	"github.com/pageboundapp/pagebound-server/internal/validation"
)

func newTestGateway() *MockGateway {
	return NewMockGateway(validation.New(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestMockGateway_Charge(t *testing.T) {
	g := newTestGateway()

	receipt, err := g.Charge(context.Background(), Charge{
		UserID: "user-1",
		BookID: "book-1",
		Method: domain.PaymentUPI,
		Amount: 14.99,
	})
	require.NoError(t, err)

	_, err = uuid.Parse(receipt.ID)
	require.NoError(t, err)
	assert.Equal(t, 14.99, receipt.Amount)
	assert.Equal(t, domain.PaymentUPI, receipt.Method)
	assert.False(t, receipt.IssuedAt.IsZero())
}

func TestMockGateway_RejectsBadCharges(t *testing.T) {
	g := newTestGateway()

	tests := []struct {
		name   string
		charge Charge
	}{
		{"unknown method", Charge{UserID: "u", BookID: "b", Method: "cash", Amount: 1}},
		{"zero amount", Charge{UserID: "u", BookID: "b", Method: domain.PaymentCard}},
		{"missing user", Charge{BookID: "b", Method: domain.PaymentCard, Amount: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := g.Charge(context.Background(), tt.charge)
			assert.ErrorIs(t, err, domainerrors.ErrValidation)
		})
	}
}

func TestMockGateway_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestGateway().Charge(ctx, Charge{UserID: "u", BookID: "b", Method: domain.PaymentCard, Amount: 1})
	assert.ErrorIs(t, err, domainerrors.ErrRemoteFailure)
}

func TestPaymentMethod_Valid(t *testing.T) {
	assert.True(t, domain.PaymentWallet.Valid())
	assert.False(t, domain.PaymentMethod("cash").Valid())
}
