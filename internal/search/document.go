// Package search provides full-text search over the catalog using Bleve,
// with fuzzy and prefix matching and a genre facet.
package search

import (
	"github.com/pageboundapp/pagebound-server/internal/domain"
)

// BookDocument is the indexed form of a catalog book.
type BookDocument struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Author   string  `json:"author"`
	Genre    string  `json:"genre"`
	Synopsis string  `json:"synopsis,omitempty"`
	Price    float64 `json:"price"`
	Rating   float64 `json:"rating"`
	IsFree   bool    `json:"is_free"`
}

// NewBookDocument builds the document for b.
func NewBookDocument(b domain.Book) *BookDocument {
	return &BookDocument{
		ID:       b.ID,
		Title:    b.Title,
		Author:   b.Author,
		Genre:    b.Genre,
		Synopsis: b.Synopsis,
		Price:    b.Price,
		Rating:   b.Rating,
		IsFree:   b.IsFree,
	}
}

// ToMap converts the document to the field names used by the mapping.
func (d *BookDocument) ToMap() map[string]any {
	return map[string]any{
		"id":       d.ID,
		"title":    d.Title,
		"author":   d.Author,
		"genre":    d.Genre,
		"synopsis": d.Synopsis,
		"price":    d.Price,
		"rating":   d.Rating,
		"is_free":  d.IsFree,
	}
}
