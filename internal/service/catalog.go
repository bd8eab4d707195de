package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/pageboundapp/pagebound-server/internal/catalog"
	"github.com/pageboundapp/pagebound-server/internal/domain"
	domainerrors "github.com/pageboundapp/pagebound-server/internal/errors"
	"github.com/pageboundapp/pagebound-server/internal/filter"
	"github.com/pageboundapp/pagebound-server/internal/remote"
	"github.com/pageboundapp/pagebound-server/internal/search"
	"github.com/pageboundapp/pagebound-server/internal/sse"
	"github.com/pageboundapp/pagebound-server/internal/state"
)

// CatalogService serves the read-only book catalog and keeps the search
// index in step with it.
type CatalogService struct {
	state  *state.State
	remote *remote.Adapter
	index  *search.SearchIndex
	events sse.Emitter
	logger *slog.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(st *state.State, rm *remote.Adapter, index *search.SearchIndex, events sse.Emitter, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		state:  st,
		remote: rm,
		index:  index,
		events: events,
		logger: logger,
	}
}

// Seed upserts the seed's books into persistence, then reloads the catalog
// from persistence so books that were stored earlier stay visible.
// It is the reload callback of the catalog watcher.
func (s *CatalogService) Seed(ctx context.Context, seed *catalog.Seed) error {
	if err := s.remote.SaveCatalog(ctx, seed.Books); err != nil {
		return err
	}
	return s.Reload(ctx)
}

// Reload replaces the in-memory catalog and the search index with what
// persistence holds.
func (s *CatalogService) Reload(ctx context.Context) error {
	books, err := s.remote.LoadCatalog(ctx)
	if err != nil {
		return err
	}
	s.state.ReplaceCatalog(books)
	if err := s.Reindex(); err != nil {
		return err
	}

	s.logger.Info("catalog reloaded", "books", len(books))
	s.events.Emit(sse.NewCatalogReloadedEvent(len(books)))
	return nil
}

// Reindex rebuilds the search index from the in-memory catalog.
func (s *CatalogService) Reindex() error {
	if s.index == nil {
		return nil
	}
	if err := s.index.Replace(s.state.Books()); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "rebuild search index")
	}
	return nil
}

// Books returns the whole catalog in catalog order.
func (s *CatalogService) Books() []domain.Book {
	return s.state.Books()
}

// Book returns one book.
func (s *CatalogService) Book(bookID string) (domain.Book, error) {
	return requireBook(s.state, bookID)
}

// Chapter returns one sample chapter of a book.
func (s *CatalogService) Chapter(bookID, chapterID string) (domain.Chapter, error) {
	book, err := requireBook(s.state, bookID)
	if err != nil {
		return domain.Chapter{}, err
	}
	ch, ok := book.Chapter(chapterID)
	if !ok {
		return domain.Chapter{}, domainerrors.NotFoundf("chapter %s not found", chapterID)
	}
	return ch, nil
}

// Filter applies the filter panel and the search box to the catalog.
func (s *CatalogService) Filter(spec domain.FilterSpec, searchTerm string) ([]domain.Book, error) {
	if !spec.Valid() {
		return nil, domainerrors.Validationf("invalid filter: genre=%q price_range=%q rating=%d sort_by=%q",
			spec.Genre, spec.PriceRange, spec.Rating, spec.SortBy)
	}
	return filter.ApplyFilters(s.state.Books(), spec, searchTerm), nil
}

// Search runs a ranked full-text query over the catalog.
func (s *CatalogService) Search(ctx context.Context, params search.SearchParams) (*search.SearchResult, error) {
	if strings.TrimSpace(params.Query) == "" && params.Genre == "" {
		return nil, domainerrors.Validation("search query is required")
	}
	if s.index == nil {
		return nil, domainerrors.Internal("search is not available")
	}
	result, err := s.index.Search(ctx, params)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "search failed")
	}
	return result, nil
}

// Genres lists the catalog's genres in first-seen order.
func (s *CatalogService) Genres() []string {
	return filter.Genres(s.state.Books())
}
