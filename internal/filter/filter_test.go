package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pageboundapp/pagebound-server/internal/domain"
)

func testCatalog() []domain.Book {
	return []domain.Book{
		{ID: "b1", Title: "Dune", Author: "Frank Herbert", Genre: "Science", Price: 14.99, Rating: 4.5, ReleaseDate: "1965-08-01"},
		{ID: "b2", Title: "Pride and Prejudice", Author: "Jane Austen", Genre: "Romance", IsFree: true, Rating: 4.8, ReleaseDate: "1813-01-28"},
		{ID: "b3", Title: "The Hound of the Baskervilles", Author: "Arthur Conan Doyle", Genre: "Mystery", IsFree: true, Rating: 4.5, ReleaseDate: "1902-04-01"},
		{ID: "b4", Title: "Neuromancer", Author: "William Gibson", Genre: "Fiction", Price: 9.99, Rating: 3.9, ReleaseDate: "1984-07-01"},
	}
}

func ids(books []domain.Book) []string {
	out := make([]string, len(books))
	for i, b := range books {
		out[i] = b.ID
	}
	return out
}

func TestApplyFilters_ClearedReturnsCatalogInOrder(t *testing.T) {
	catalog := testCatalog()

	got := ApplyFilters(catalog, domain.FilterSpec{Genre: "all", PriceRange: domain.PriceAll}, "")

	assert.Equal(t, catalog, got)
	assert.True(t, Cleared(domain.FilterSpec{}))
}

func TestApplyFilters_Search(t *testing.T) {
	tests := []struct {
		term string
		want []string
	}{
		{"dune", []string{"b1"}},
		{"AUSTEN", []string{"b2"}},
		{"myst", []string{"b3"}},
		{"  the  ", []string{"b3"}},
		{"nothing matches", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			got := ApplyFilters(testCatalog(), domain.DefaultFilterSpec(), tt.term)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestApplyFilters_GenreIsCaseInsensitive(t *testing.T) {
	got := ApplyFilters(testCatalog(), domain.FilterSpec{Genre: "romance"}, "")
	assert.Equal(t, []string{"b2"}, ids(got))
}

func TestApplyFilters_PriceRange(t *testing.T) {
	free := ApplyFilters(testCatalog(), domain.FilterSpec{PriceRange: domain.PriceFree}, "")
	paid := ApplyFilters(testCatalog(), domain.FilterSpec{PriceRange: domain.PricePaid}, "")

	assert.Equal(t, []string{"b2", "b3"}, ids(free))
	assert.Equal(t, []string{"b1", "b4"}, ids(paid))
}

func TestApplyFilters_ExactRatingTruncates(t *testing.T) {
	catalog := []domain.Book{
		{ID: "x", Rating: 4.5},
		{ID: "y", Rating: 4.8},
		{ID: "z", Rating: 4.5},
	}

	assert.Equal(t, []string{"x", "y", "z"}, ids(ApplyFilters(catalog, domain.FilterSpec{Rating: 4}, "")))
	assert.Empty(t, ApplyFilters(catalog, domain.FilterSpec{Rating: 5}, ""))
	assert.Len(t, ApplyFilters(catalog, domain.FilterSpec{Rating: 0}, ""), 3)
}

func TestApplyFilters_Conjunctive(t *testing.T) {
	got := ApplyFilters(testCatalog(), domain.FilterSpec{PriceRange: domain.PriceFree, Rating: 4}, "the")
	assert.Equal(t, []string{"b3"}, ids(got))
}

func TestApplyFilters_Idempotent(t *testing.T) {
	specs := []domain.FilterSpec{
		domain.DefaultFilterSpec(),
		{PriceRange: domain.PricePaid, SortBy: domain.SortPriceHigh},
		{Rating: 4, SortBy: domain.SortRating},
		{Genre: "Mystery", SortBy: domain.SortTitle},
	}

	for _, spec := range specs {
		once := ApplyFilters(testCatalog(), spec, "")
		twice := ApplyFilters(once, spec, "")
		assert.Equal(t, once, twice)
	}
}

func TestApplyFilters_DoesNotMutateInput(t *testing.T) {
	catalog := testCatalog()
	before := testCatalog()

	got := ApplyFilters(catalog, domain.FilterSpec{SortBy: domain.SortTitle}, "")
	got[0].Title = "mutated"

	assert.Equal(t, before, catalog)
}

func TestApplyFilters_Sorting(t *testing.T) {
	tests := []struct {
		by   domain.SortBy
		want []string
	}{
		{domain.SortPopularity, []string{"b1", "b2", "b3", "b4"}},
		{domain.SortRating, []string{"b2", "b1", "b3", "b4"}},
		{domain.SortPriceLow, []string{"b2", "b3", "b4", "b1"}},
		{domain.SortPriceHigh, []string{"b1", "b4", "b2", "b3"}},
		{domain.SortTitle, []string{"b1", "b4", "b2", "b3"}},
		{domain.SortNewest, []string{"b4", "b1", "b3", "b2"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.by), func(t *testing.T) {
			got := ApplyFilters(testCatalog(), domain.FilterSpec{SortBy: tt.by}, "")
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestGenres(t *testing.T) {
	catalog := append(testCatalog(), domain.Book{ID: "b5", Genre: "science"})
	assert.Equal(t, []string{"Science", "Romance", "Mystery", "Fiction"}, Genres(catalog))
}
