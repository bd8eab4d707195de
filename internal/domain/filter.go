package domain

import "strings"

// PriceRange restricts the catalog by price tier.
type PriceRange string

const (
	PriceAll  PriceRange = "all"
	PriceFree PriceRange = "free"
	PricePaid PriceRange = "paid"
)

// SortBy selects an ordering for filtered results.
type SortBy string

const (
	// SortPopularity keeps catalog order.
	SortPopularity SortBy = "popularity"
	SortRating     SortBy = "rating"
	SortPriceLow   SortBy = "price_low"
	SortPriceHigh  SortBy = "price_high"
	SortTitle      SortBy = "title"
	SortNewest     SortBy = "newest"
)

// GenreAll disables the genre filter.
const GenreAll = "all"

// FilterSpec describes which books to show.
// Rating 0 disables the rating filter; 1-5 matches that whole-star bucket exactly.
type FilterSpec struct {
	Genre      string     `json:"genre"`
	PriceRange PriceRange `json:"price_range"`
	SortBy     SortBy     `json:"sort_by"`
	Rating     int        `json:"rating"`
}

// DefaultFilterSpec is the cleared state of the filter panel.
func DefaultFilterSpec() FilterSpec {
	return FilterSpec{Genre: GenreAll, PriceRange: PriceAll, SortBy: SortPopularity}
}

// Normalized fills blank fields with their cleared values.
func (f FilterSpec) Normalized() FilterSpec {
	if strings.TrimSpace(f.Genre) == "" {
		f.Genre = GenreAll
	}
	if f.PriceRange == "" {
		f.PriceRange = PriceAll
	}
	if f.SortBy == "" {
		f.SortBy = SortPopularity
	}
	return f
}

// Valid reports whether every field holds a known value.
func (f FilterSpec) Valid() bool {
	f = f.Normalized()
	switch f.PriceRange {
	case PriceAll, PriceFree, PricePaid:
	default:
		return false
	}
	switch f.SortBy {
	case SortPopularity, SortRating, SortPriceLow, SortPriceHigh, SortTitle, SortNewest:
	default:
		return false
	}
	return f.Rating >= 0 && f.Rating <= 5
}
