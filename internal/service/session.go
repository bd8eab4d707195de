package service

import (
	"strings"

	"github.com/pageboundapp/pagebound-server/internal/domain"
	domainerrors "github.com/pageboundapp/pagebound-server/internal/errors"
	"github.com/pageboundapp/pagebound-server/internal/state"
)

// activeUser returns the caller's session or Unauthenticated.
func activeUser(st *state.State, userID string) (*domain.User, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domainerrors.Unauthenticated("sign in required")
	}
	u, ok := st.User(userID)
	if !ok {
		return nil, domainerrors.Unauthenticated("sign in required")
	}
	return u, nil
}

// requireBook returns the catalog entry or NotFound.
func requireBook(st *state.State, bookID string) (domain.Book, error) {
	b, ok := st.Book(bookID)
	if !ok {
		return domain.Book{}, domainerrors.NotFoundf("book %s not found", bookID)
	}
	return b, nil
}
