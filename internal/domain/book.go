package domain

import (
	"math"
	"slices"
	"strings"

	domainerrors "github.com/pageboundapp/pagebound-server/internal/errors"
)

// Book is a catalog title. Books are reference data: they never change after
// the catalog is loaded, so the engine hands out copies.
type Book struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	CoverURL    string    `json:"cover_url"`
	Price       float64   `json:"price"`
	Rating      float64   `json:"rating"`
	Genre       string    `json:"genre"`
	Synopsis    string    `json:"synopsis"`
	ReleaseDate string    `json:"release_date"` // ISO date, "2006-01-02"
	IsFree      bool      `json:"is_free"`
	Chapters    []Chapter `json:"chapters"`
}

// Chapter is a sample chapter of a book.
type Chapter struct {
	ID      string         `json:"id"`
	Title   string         `json:"title"`
	Content string         `json:"content"`
	Images  []ChapterImage `json:"images"`
}

// ChapterImage is an illustration shown with a chapter.
type ChapterImage struct {
	URL     string `json:"url"`
	Caption string `json:"caption"`
}

// NewBook validates b and returns it with normalized collections.
// IsFree must agree with Price: a book is free exactly when it costs nothing.
func NewBook(b Book) (Book, error) {
	switch {
	case strings.TrimSpace(b.ID) == "":
		return Book{}, domainerrors.Validation("book id is required")
	case strings.TrimSpace(b.Title) == "":
		return Book{}, domainerrors.Validationf("book %s: title is required", b.ID)
	case b.Price < 0 || math.IsNaN(b.Price):
		return Book{}, domainerrors.Validationf("book %s: price must be >= 0", b.ID)
	case b.Rating < 0 || b.Rating > 5 || math.IsNaN(b.Rating):
		return Book{}, domainerrors.Validationf("book %s: rating must be between 0 and 5", b.ID)
	case b.IsFree != (b.Price == 0):
		return Book{}, domainerrors.Validationf("book %s: is_free must be true exactly when price is 0", b.ID)
	}

	seen := make(map[string]bool, len(b.Chapters))
	for _, ch := range b.Chapters {
		if ch.ID == "" {
			return Book{}, domainerrors.Validationf("book %s: chapter id is required", b.ID)
		}
		if seen[ch.ID] {
			return Book{}, domainerrors.Validationf("book %s: duplicate chapter %s", b.ID, ch.ID)
		}
		seen[ch.ID] = true
	}

	out := b.Clone()
	if out.Chapters == nil {
		out.Chapters = []Chapter{}
	}
	return out, nil
}

// Chapter returns the sample chapter with the given id.
func (b Book) Chapter(chapterID string) (Chapter, bool) {
	i := slices.IndexFunc(b.Chapters, func(ch Chapter) bool { return ch.ID == chapterID })
	if i < 0 {
		return Chapter{}, false
	}
	return b.Chapters[i].Clone(), true
}

// RatingBucket is the whole-star bucket a rating falls into (truncated).
func (b Book) RatingBucket() int {
	return int(math.Floor(b.Rating))
}

// Clone returns a deep copy of the book.
func (b Book) Clone() Book {
	out := b
	if b.Chapters != nil {
		out.Chapters = make([]Chapter, len(b.Chapters))
		for i, ch := range b.Chapters {
			out.Chapters[i] = ch.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the chapter.
func (c Chapter) Clone() Chapter {
	out := c
	out.Images = slices.Clone(c.Images)
	if out.Images == nil {
		out.Images = []ChapterImage{}
	}
	return out
}

// Paragraphs splits the chapter content on newlines, skipping blank lines.
func (c Chapter) Paragraphs() []string {
	lines := strings.Split(c.Content, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}
