package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/pageboundapp/pagebound-server/internal/domain"
	"github.com/pageboundapp/pagebound-server/internal/search"
	"github.com/pageboundapp/pagebound-server/internal/service"
)

func (s *Server) registerBookRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books",
		Summary:     "List books",
		Description: "Returns the catalog narrowed by genre, price, rating and a search term, in the requested order",
		Tags:        []string{"Books"},
	}, s.handleListBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBook",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}",
		Summary:     "Get book",
		Description: "Returns a book with its sample chapters",
		Tags:        []string{"Books"},
	}, s.handleGetBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "getChapter",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}/chapters/{chapterId}",
		Summary:     "Get sample chapter",
		Tags:        []string{"Books"},
	}, s.handleGetChapter)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/search",
		Summary:     "Search the catalog",
		Description: "Full-text search over titles, authors and synopses with a genre facet",
		Tags:        []string{"Books"},
	}, s.handleSearch)

	huma.Register(s.api, huma.Operation{
		OperationID: "purchaseBook",
		Method:      http.MethodPost,
		Path:        "/api/v1/books/{id}/purchase",
		Summary:     "Purchase book",
		Description: "Free books go straight to the reading list. Paid books are charged first; the list only changes once payment is confirmed.",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handlePurchase)
}

// === DTOs ===

// ListBooksInput holds the filter panel state.
type ListBooksInput struct {
	Genre  string `query:"genre" doc:"Genre, or 'all'"`
	Price  string `query:"price" doc:"all, free or paid"`
	Rating int    `query:"rating" doc:"Whole-star bucket 1-5; 0 disables"`
	Sort   string `query:"sort" doc:"popularity, rating, price_low, price_high, title or newest"`
	Query  string `query:"q" doc:"Case-insensitive title/author search"`
}

// BookSummary is a book without its chapter bodies.
type BookSummary struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Author       string  `json:"author"`
	CoverURL     string  `json:"cover_url"`
	Price        float64 `json:"price"`
	Rating       float64 `json:"rating"`
	Genre        string  `json:"genre"`
	ReleaseDate  string  `json:"release_date"`
	IsFree       bool    `json:"is_free"`
	ChapterCount int     `json:"chapter_count"`
}

func newBookSummary(b domain.Book) BookSummary {
	return BookSummary{
		ID:           b.ID,
		Title:        b.Title,
		Author:       b.Author,
		CoverURL:     b.CoverURL,
		Price:        b.Price,
		Rating:       b.Rating,
		Genre:        b.Genre,
		ReleaseDate:  b.ReleaseDate,
		IsFree:       b.IsFree,
		ChapterCount: len(b.Chapters),
	}
}

// BookListResponse is a filtered page of the catalog.
type BookListResponse struct {
	Books  []BookSummary `json:"books"`
	Total  int           `json:"total"`
	Genres []string      `json:"genres" doc:"Every genre in the catalog, for the filter panel"`
}

// BookListOutput wraps the list response.
type BookListOutput struct {
	Body BookListResponse
}

// BookIDInput addresses a single book.
type BookIDInput struct {
	ID string `path:"id" doc:"Book ID"`
}

// BookOutput wraps a book.
type BookOutput struct {
	Body domain.Book
}

// ChapterInput addresses a sample chapter.
type ChapterInput struct {
	ID        string `path:"id" doc:"Book ID"`
	ChapterID string `path:"chapterId" doc:"Chapter ID"`
}

// ChapterResponse is a chapter with its content split for display.
type ChapterResponse struct {
	BookID     string         `json:"book_id"`
	Chapter    domain.Chapter `json:"chapter"`
	Paragraphs []string       `json:"paragraphs"`
}

// ChapterOutput wraps a chapter.
type ChapterOutput struct {
	Body ChapterResponse
}

// SearchInput holds search parameters.
type SearchInput struct {
	Query  string `query:"q" doc:"Search text"`
	Genre  string `query:"genre" doc:"Restrict to a genre"`
	Sort   string `query:"sort" default:"relevance" enum:"relevance,title,rating" doc:"Result order"`
	Limit  int    `query:"limit" default:"20" minimum:"1" maximum:"100" doc:"Page size"`
	Offset int    `query:"offset" minimum:"0" doc:"Page offset"`
}

// SearchOutput wraps search results.
type SearchOutput struct {
	Body *search.SearchResult
}

// PurchaseRequest selects the payment method.
type PurchaseRequest struct {
	Method domain.PaymentMethod `json:"method,omitempty" doc:"card, upi or wallet; ignored for free books"`
}

// PurchaseInput wraps a purchase.
type PurchaseInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Book ID"`
	Body          *PurchaseRequest
}

// PurchaseOutput wraps the purchase result.
type PurchaseOutput struct {
	Body service.PurchaseResult
}

// === Handlers ===

func (s *Server) handleListBooks(_ context.Context, input *ListBooksInput) (*BookListOutput, error) {
	spec := domain.FilterSpec{
		Genre:      input.Genre,
		PriceRange: domain.PriceRange(input.Price),
		SortBy:     domain.SortBy(input.Sort),
		Rating:     input.Rating,
	}
	books, err := s.services.Catalog.Filter(spec, input.Query)
	if err != nil {
		return nil, err
	}

	summaries := make([]BookSummary, len(books))
	for i, b := range books {
		summaries[i] = newBookSummary(b)
	}
	return &BookListOutput{Body: BookListResponse{
		Books:  summaries,
		Total:  len(summaries),
		Genres: s.services.Catalog.Genres(),
	}}, nil
}

func (s *Server) handleGetBook(_ context.Context, input *BookIDInput) (*BookOutput, error) {
	book, err := s.services.Catalog.Book(input.ID)
	if err != nil {
		return nil, err
	}
	return &BookOutput{Body: book}, nil
}

func (s *Server) handleGetChapter(_ context.Context, input *ChapterInput) (*ChapterOutput, error) {
	ch, err := s.services.Catalog.Chapter(input.ID, input.ChapterID)
	if err != nil {
		return nil, err
	}
	return &ChapterOutput{Body: ChapterResponse{
		BookID:     input.ID,
		Chapter:    ch,
		Paragraphs: ch.Paragraphs(),
	}}, nil
}

func (s *Server) handleSearch(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	res, err := s.services.Catalog.Search(ctx, search.SearchParams{
		Query:  input.Query,
		Genre:  input.Genre,
		SortBy: input.Sort,
		Limit:  input.Limit,
		Offset: input.Offset,
	})
	if err != nil {
		return nil, err
	}
	return &SearchOutput{Body: res}, nil
}

func (s *Server) handlePurchase(ctx context.Context, input *PurchaseInput) (*PurchaseOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	var method domain.PaymentMethod
	if input.Body != nil {
		method = input.Body.Method
	}
	res, err := s.services.Purchase.Purchase(ctx, userID, input.ID, method)
	if err != nil {
		return nil, err
	}
	return &PurchaseOutput{Body: res}, nil
}
