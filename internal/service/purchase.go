package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pageboundapp/pagebound-server/internal/domain"
	"github.com/pageboundapp/pagebound-server/internal/id"
	"github.com/pageboundapp/pagebound-server/internal/payment"
	"github.com/pageboundapp/pagebound-server/internal/remote"
	"github.com/pageboundapp/pagebound-server/internal/state"
	"github.com/pageboundapp/pagebound-server/internal/validation"
)

// PurchaseResult is the outcome of a purchase.
type PurchaseResult struct {
	User *domain.User `json:"user"`
	// Receipt is nil for free books and books the user already owned.
	Receipt *domain.Receipt `json:"receipt,omitempty"`
}

// PurchaseService unlocks books. Free books go straight to the reading
// list; paid books need a confirmed payment first.
type PurchaseService struct {
	state     *state.State
	remote    *remote.Adapter
	gateway   payment.Gateway
	accounts  *AccountService
	validator *validation.Validator
	logger    *slog.Logger
}

// NewPurchaseService creates a new purchase service.
func NewPurchaseService(st *state.State, rm *remote.Adapter, gw payment.Gateway, accounts *AccountService, v *validation.Validator, logger *slog.Logger) *PurchaseService {
	return &PurchaseService{
		state:     st,
		remote:    rm,
		gateway:   gw,
		accounts:  accounts,
		validator: v,
		logger:    logger,
	}
}

// Purchase buys bookID for the caller. method is ignored for free books.
func (s *PurchaseService) Purchase(ctx context.Context, userID, bookID string, method domain.PaymentMethod) (PurchaseResult, error) {
	user, err := activeUser(s.state, userID)
	if err != nil {
		return PurchaseResult{}, err
	}
	book, err := requireBook(s.state, bookID)
	if err != nil {
		return PurchaseResult{}, err
	}
	if user.InReadingList(bookID) {
		return PurchaseResult{User: user}, nil
	}

	if book.IsFree {
		updated, err := s.accounts.addToReadingList(ctx, user, bookID)
		if err != nil {
			return PurchaseResult{}, err
		}
		return PurchaseResult{User: updated}, nil
	}

	// A purchase recorded by an earlier attempt whose reading-list write
	// failed is completed without charging again.
	owned, err := s.accounts.owns(ctx, userID, bookID)
	if err != nil {
		return PurchaseResult{}, err
	}
	if owned {
		updated, err := s.accounts.addToReadingList(ctx, user, bookID)
		if err != nil {
			return PurchaseResult{}, err
		}
		return PurchaseResult{User: updated}, nil
	}

	if err := s.validator.Var("method", string(method), "required,oneof=card upi wallet"); err != nil {
		return PurchaseResult{}, err
	}

	receipt, err := s.gateway.Charge(ctx, payment.Charge{
		UserID: userID,
		BookID: bookID,
		Method: method,
		Amount: book.Price,
	})
	if err != nil {
		return PurchaseResult{}, err
	}

	purchaseID, err := id.Generate(id.PrefixPurchase)
	if err != nil {
		return PurchaseResult{}, fmt.Errorf("generate purchase ID: %w", err)
	}
	if err := s.remote.InsertPurchase(ctx, remote.Purchase{
		CreatedAt: time.Now().UTC(),
		ID:        purchaseID,
		UserID:    userID,
		BookID:    bookID,
		Method:    string(method),
		Receipt:   receipt.ID,
		Amount:    receipt.Amount,
	}); err != nil {
		return PurchaseResult{}, err
	}

	s.logger.Info("book purchased",
		"purchase_id", purchaseID,
		"user_id", userID,
		"book_id", bookID,
		"amount", receipt.Amount,
	)

	updated, err := s.accounts.addToReadingList(ctx, user, bookID)
	if err != nil {
		return PurchaseResult{}, err
	}
	return PurchaseResult{User: updated, Receipt: &receipt}, nil
}
