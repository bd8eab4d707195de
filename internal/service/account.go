package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/pageboundapp/pagebound-server/internal/domain"
	domainerrors "github.com/pageboundapp/pagebound-server/internal/errors"
	"github.com/pageboundapp/pagebound-server/internal/id"
	"github.com/pageboundapp/pagebound-server/internal/remote"
	"github.com/pageboundapp/pagebound-server/internal/state"
	"github.com/pageboundapp/pagebound-server/internal/validation"
)

// NewBookmark is the input to AccountService.AddBookmark.
type NewBookmark struct {
	BookID    string `json:"book_id" validate:"required"`
	ChapterID string `json:"chapter_id" validate:"required"`
	Note      string `json:"note,omitempty" validate:"max=1000"`
	Position  int    `json:"position,omitempty" validate:"gte=0"`
}

// AccountService manages active sessions, subscriptions and the
// per-user reading state: reading list, progress and bookmarks.
type AccountService struct {
	state     *state.State
	remote    *remote.Adapter
	validator *validation.Validator
	logger    *slog.Logger
}

// NewAccountService creates a new account service.
func NewAccountService(st *state.State, rm *remote.Adapter, v *validation.Validator, logger *slog.Logger) *AccountService {
	return &AccountService{
		state:     st,
		remote:    rm,
		validator: v,
		logger:    logger,
	}
}

// SetUser replaces the session for u.ID wholesale. A nil user is ignored;
// use ClearUser to end a session.
func (s *AccountService) SetUser(u *domain.User) {
	s.state.SetUser(u)
}

// ClearUser ends the session for userID.
func (s *AccountService) ClearUser(userID string) {
	s.state.ClearUser(userID)
}

// CurrentUser returns the session view of userID.
func (s *AccountService) CurrentUser(userID string) (*domain.User, error) {
	return activeUser(s.state, userID)
}

// IsPremium is the premium gate. Unknown or signed-out users are never premium.
func (s *AccountService) IsPremium(userID string) bool {
	u, ok := s.state.User(userID)
	return ok && u.IsPremium()
}

// SessionCount returns the number of active sessions.
func (s *AccountService) SessionCount() int {
	_, _, _, sessions := s.state.Counts()
	return sessions
}

// AddToReadingList adds a book the caller already owns or that is free.
// Paid books must go through PurchaseService.Purchase first.
func (s *AccountService) AddToReadingList(ctx context.Context, userID, bookID string) (*domain.User, error) {
	user, err := activeUser(s.state, userID)
	if err != nil {
		return nil, err
	}
	book, err := requireBook(s.state, bookID)
	if err != nil {
		return nil, err
	}
	if user.InReadingList(bookID) {
		return user, nil
	}
	if !book.IsFree {
		owned, err := s.owns(ctx, userID, bookID)
		if err != nil {
			return nil, err
		}
		if !owned {
			return nil, domainerrors.Forbidden("payment required")
		}
	}
	return s.addToReadingList(ctx, user, bookID)
}

// addToReadingList persists and applies the entry without the payment gate.
func (s *AccountService) addToReadingList(ctx context.Context, user *domain.User, bookID string) (*domain.User, error) {
	if user.InReadingList(bookID) {
		return user, nil
	}
	if err := s.remote.InsertReadingListEntry(ctx, user.ID, bookID, time.Now().UTC()); err != nil {
		return nil, err
	}

	updated, err := s.state.UpdateUser(user.ID, func(u *domain.User) error {
		u.AddToReadingList(bookID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("reading list updated", "user_id", user.ID, "book_id", bookID)
	return updated, nil
}

func (s *AccountService) owns(ctx context.Context, userID, bookID string) (bool, error) {
	purchases, err := s.remote.Purchases(ctx, userID)
	if err != nil {
		return false, err
	}
	return slices.ContainsFunc(purchases, func(p remote.Purchase) bool { return p.BookID == bookID }), nil
}

// UpgradeSubscription moves the caller to the premium plan.
func (s *AccountService) UpgradeSubscription(ctx context.Context, userID string) (*domain.User, error) {
	user, err := activeUser(s.state, userID)
	if err != nil {
		return nil, err
	}
	if user.IsPremium() {
		return user, nil
	}
	if err := s.remote.SetSubscription(ctx, userID, domain.SubscriptionPremium); err != nil {
		return nil, err
	}

	updated, err := s.state.UpdateUser(userID, func(u *domain.User) error {
		u.Subscription = domain.SubscriptionPremium
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("subscription upgraded", "user_id", userID, "subscription", domain.SubscriptionPremium)
	return updated, nil
}

// UpdateReadingProgress records how far through a book the caller is.
func (s *AccountService) UpdateReadingProgress(ctx context.Context, userID, bookID string, percent float64) (domain.ReadingProgress, error) {
	if _, err := activeUser(s.state, userID); err != nil {
		return domain.ReadingProgress{}, err
	}
	if err := s.validator.Var("progress", percent, "gte=0,lte=100"); err != nil {
		return domain.ReadingProgress{}, err
	}
	if _, err := requireBook(s.state, bookID); err != nil {
		return domain.ReadingProgress{}, err
	}

	p := domain.ReadingProgress{
		LastRead: time.Now().UTC(),
		BookID:   bookID,
		Progress: percent,
	}
	if err := s.remote.UpsertReadingProgress(ctx, userID, p); err != nil {
		return domain.ReadingProgress{}, err
	}

	if _, err := s.state.UpdateUser(userID, func(u *domain.User) error {
		u.SetProgress(p)
		return nil
	}); err != nil {
		return domain.ReadingProgress{}, err
	}

	s.logger.Debug("reading progress updated", "user_id", userID, "book_id", bookID, "progress", percent)
	return p, nil
}

// AddBookmark marks a position inside a chapter.
func (s *AccountService) AddBookmark(ctx context.Context, userID string, in NewBookmark) (domain.Bookmark, error) {
	if _, err := activeUser(s.state, userID); err != nil {
		return domain.Bookmark{}, err
	}
	if err := s.validator.Validate(in); err != nil {
		return domain.Bookmark{}, err
	}
	book, err := requireBook(s.state, in.BookID)
	if err != nil {
		return domain.Bookmark{}, err
	}
	if _, ok := book.Chapter(in.ChapterID); !ok {
		return domain.Bookmark{}, domainerrors.NotFoundf("chapter %s not found", in.ChapterID)
	}

	bookmarkID, err := id.Generate(id.PrefixBookmark)
	if err != nil {
		return domain.Bookmark{}, fmt.Errorf("generate bookmark ID: %w", err)
	}
	b := domain.Bookmark{
		CreatedAt: time.Now().UTC(),
		ID:        bookmarkID,
		BookID:    in.BookID,
		ChapterID: in.ChapterID,
		Note:      strings.TrimSpace(in.Note),
		Position:  in.Position,
	}
	if err := s.remote.InsertBookmark(ctx, userID, b); err != nil {
		return domain.Bookmark{}, err
	}

	if _, err := s.state.UpdateUser(userID, func(u *domain.User) error {
		u.Bookmarks = append(u.Bookmarks, b)
		return nil
	}); err != nil {
		return domain.Bookmark{}, err
	}

	s.logger.Info("bookmark added", "bookmark_id", b.ID, "user_id", userID, "book_id", b.BookID)
	return b, nil
}

// RemoveBookmark deletes one of the caller's bookmarks.
func (s *AccountService) RemoveBookmark(ctx context.Context, userID, bookmarkID string) error {
	user, err := activeUser(s.state, userID)
	if err != nil {
		return err
	}
	if _, ok := user.Bookmark(bookmarkID); !ok {
		owner, err := s.remote.BookmarkOwner(ctx, bookmarkID)
		if err != nil {
			return err
		}
		if owner != userID {
			return domainerrors.Forbidden("bookmark belongs to another user")
		}
	}

	if err := s.remote.DeleteBookmark(ctx, userID, bookmarkID); err != nil {
		return err
	}

	if _, err := s.state.UpdateUser(userID, func(u *domain.User) error {
		u.RemoveBookmark(bookmarkID)
		return nil
	}); err != nil {
		return err
	}

	s.logger.Info("bookmark removed", "bookmark_id", bookmarkID, "user_id", userID)
	return nil
}
