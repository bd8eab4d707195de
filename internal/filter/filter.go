// Package filter derives the displayed subset of the catalog from a filter
// spec and an optional search term.
package filter

import (
	"cmp"
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"github.com/pageboundapp/pagebound-server/internal/domain"
)

// ApplyFilters returns the books of catalog that pass every active filter.
//
// The filters are conjunctive and independent of evaluation order. With a
// cleared spec and no search term the result is the whole catalog in its
// original order. The input slice is never modified; the result holds copies.
func ApplyFilters(catalog []domain.Book, spec domain.FilterSpec, searchTerm string) []domain.Book {
	spec = spec.Normalized()
	fold := cases.Fold()

	term := fold.String(strings.TrimSpace(searchTerm))
	genre := fold.String(strings.TrimSpace(spec.Genre))
	if genre == domain.GenreAll {
		genre = ""
	}

	out := make([]domain.Book, 0, len(catalog))
	for _, b := range catalog {
		if term != "" && !matchesSearch(fold, b, term) {
			continue
		}
		if genre != "" && fold.String(b.Genre) != genre {
			continue
		}
		if !matchesPrice(b, spec.PriceRange) {
			continue
		}
		if spec.Rating > 0 && b.RatingBucket() != spec.Rating {
			continue
		}
		out = append(out, b.Clone())
	}

	sortBooks(out, spec.SortBy)
	return out
}

// Cleared reports whether spec filters nothing.
func Cleared(spec domain.FilterSpec) bool {
	spec = spec.Normalized()
	return strings.EqualFold(spec.Genre, domain.GenreAll) && spec.PriceRange == domain.PriceAll && spec.Rating == 0
}

// Genres lists the distinct genres of the catalog in first-seen order,
// compared case-insensitively.
func Genres(catalog []domain.Book) []string {
	fold := cases.Fold()
	seen := make(map[string]bool)
	var out []string
	for _, b := range catalog {
		key := fold.String(b.Genre)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, b.Genre)
	}
	return out
}

func matchesSearch(fold cases.Caser, b domain.Book, term string) bool {
	return strings.Contains(fold.String(b.Title), term) ||
		strings.Contains(fold.String(b.Author), term) ||
		strings.Contains(fold.String(b.Genre), term)
}

func matchesPrice(b domain.Book, pr domain.PriceRange) bool {
	switch pr {
	case domain.PriceFree:
		return b.IsFree
	case domain.PricePaid:
		return !b.IsFree
	default:
		return true
	}
}

// sortBooks orders books in place. Ties keep catalog order.
func sortBooks(books []domain.Book, by domain.SortBy) {
	var less func(a, b domain.Book) int
	switch by {
	case domain.SortRating:
		less = func(a, b domain.Book) int { return cmp.Compare(b.Rating, a.Rating) }
	case domain.SortPriceLow:
		less = func(a, b domain.Book) int { return cmp.Compare(a.Price, b.Price) }
	case domain.SortPriceHigh:
		less = func(a, b domain.Book) int { return cmp.Compare(b.Price, a.Price) }
	case domain.SortTitle:
		less = func(a, b domain.Book) int { return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title)) }
	case domain.SortNewest:
		less = func(a, b domain.Book) int { return strings.Compare(b.ReleaseDate, a.ReleaseDate) }
	default:
		return
	}
	slices.SortStableFunc(books, less)
}
