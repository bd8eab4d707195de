package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/pageboundapp/pagebound-server/internal/domain"
	"github.com/pageboundapp/pagebound-server/internal/service"
)

func (s *Server) registerAccountRoutes() {
	bearer := []map[string][]string{{"bearer": {}}}

	huma.Register(s.api, huma.Operation{
		OperationID: "getMe",
		Method:      http.MethodGet,
		Path:        "/api/v1/me",
		Summary:     "Get current user",
		Description: "Returns the caller's session: reading list, bookmarks, progress, groups and annotations",
		Tags:        []string{"Account"},
		Security:    bearer,
	}, s.handleGetMe)

	huma.Register(s.api, huma.Operation{
		OperationID: "addToReadingList",
		Method:      http.MethodPost,
		Path:        "/api/v1/me/reading-list",
		Summary:     "Add to reading list",
		Description: "Adds a free or already purchased book. Paid books must be purchased first.",
		Tags:        []string{"Account"},
		Security:    bearer,
	}, s.handleAddToReadingList)

	huma.Register(s.api, huma.Operation{
		OperationID: "upgradeSubscription",
		Method:      http.MethodPost,
		Path:        "/api/v1/me/subscription",
		Summary:     "Upgrade to premium",
		Tags:        []string{"Account"},
		Security:    bearer,
	}, s.handleUpgradeSubscription)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateProgress",
		Method:      http.MethodPut,
		Path:        "/api/v1/me/progress/{bookId}",
		Summary:     "Update reading progress",
		Tags:        []string{"Account"},
		Security:    bearer,
	}, s.handleUpdateProgress)

	huma.Register(s.api, huma.Operation{
		OperationID:   "addBookmark",
		Method:        http.MethodPost,
		Path:          "/api/v1/me/bookmarks",
		Summary:       "Add bookmark",
		Tags:          []string{"Account"},
		Security:      bearer,
		DefaultStatus: http.StatusCreated,
	}, s.handleAddBookmark)

	huma.Register(s.api, huma.Operation{
		OperationID: "removeBookmark",
		Method:      http.MethodDelete,
		Path:        "/api/v1/me/bookmarks/{id}",
		Summary:     "Remove bookmark",
		Tags:        []string{"Account"},
		Security:    bearer,
	}, s.handleRemoveBookmark)
}

// === DTOs ===

// AuthenticatedInput is any request that only needs the bearer token.
type AuthenticatedInput struct {
	Authorization string `header:"Authorization"`
}

// UserOutput wraps the caller's user.
type UserOutput struct {
	Body *domain.User
}

// ReadingListRequest names the book to add.
type ReadingListRequest struct {
	BookID string `json:"book_id" minLength:"1" doc:"Book ID"`
}

// ReadingListInput wraps a reading list addition.
type ReadingListInput struct {
	Authorization string `header:"Authorization"`
	Body          ReadingListRequest
}

// ProgressRequest is the new position in a book.
type ProgressRequest struct {
	Progress float64 `json:"progress" doc:"Percent read, 0-100"`
}

// ProgressInput wraps a progress update.
type ProgressInput struct {
	Authorization string `header:"Authorization"`
	BookID        string `path:"bookId" doc:"Book ID"`
	Body          ProgressRequest
}

// ProgressOutput wraps reading progress.
type ProgressOutput struct {
	Body domain.ReadingProgress
}

// AddBookmarkInput wraps a new bookmark.
type AddBookmarkInput struct {
	Authorization string `header:"Authorization"`
	Body          service.NewBookmark
}

// BookmarkOutput wraps a bookmark.
type BookmarkOutput struct {
	Body domain.Bookmark
}

// BookmarkIDInput addresses a bookmark.
type BookmarkIDInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Bookmark ID"`
}

// === Handlers ===

func (s *Server) handleGetMe(ctx context.Context, _ *AuthenticatedInput) (*UserOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	u, err := s.services.Account.CurrentUser(userID)
	if err != nil {
		return nil, err
	}
	return &UserOutput{Body: u}, nil
}

func (s *Server) handleAddToReadingList(ctx context.Context, input *ReadingListInput) (*UserOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	u, err := s.services.Account.AddToReadingList(ctx, userID, input.Body.BookID)
	if err != nil {
		return nil, err
	}
	return &UserOutput{Body: u}, nil
}

func (s *Server) handleUpgradeSubscription(ctx context.Context, _ *AuthenticatedInput) (*UserOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	u, err := s.services.Account.UpgradeSubscription(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &UserOutput{Body: u}, nil
}

func (s *Server) handleUpdateProgress(ctx context.Context, input *ProgressInput) (*ProgressOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	p, err := s.services.Account.UpdateReadingProgress(ctx, userID, input.BookID, input.Body.Progress)
	if err != nil {
		return nil, err
	}
	return &ProgressOutput{Body: p}, nil
}

func (s *Server) handleAddBookmark(ctx context.Context, input *AddBookmarkInput) (*BookmarkOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	b, err := s.services.Account.AddBookmark(ctx, userID, input.Body)
	if err != nil {
		return nil, err
	}
	return &BookmarkOutput{Body: b}, nil
}

func (s *Server) handleRemoveBookmark(ctx context.Context, input *BookmarkIDInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.services.Account.RemoveBookmark(ctx, userID, input.ID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "bookmark removed"}}, nil
}
