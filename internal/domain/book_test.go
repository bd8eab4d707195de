package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/pageboundapp/pagebound-server/internal/errors"
)

func TestNewBook_FreeMustMatchPrice(t *testing.T) {
	tests := []struct {
		name    string
		price   float64
		isFree  bool
		wantErr bool
	}{
		{"free and zero", 0, true, false},
		{"paid and priced", 14.99, false, false},
		{"free but priced", 14.99, true, true},
		{"paid but zero", 0, false, true},
		{"negative price", -1, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBook(Book{ID: "b1", Title: "Dune", Price: tt.price, IsFree: tt.isFree, Rating: 4.5})
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, domainerrors.ErrValidation)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestNewBook_RejectsBadRatingAndChapters(t *testing.T) {
	_, err := NewBook(Book{ID: "b1", Title: "Dune", IsFree: true, Rating: 5.5})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	_, err = NewBook(Book{ID: "b1", Title: "Dune", IsFree: true, Chapters: []Chapter{{ID: "c1"}, {ID: "c1"}}})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestBook_CloneIsDeep(t *testing.T) {
	b, err := NewBook(Book{
		ID: "b1", Title: "Dune", IsFree: true,
		Chapters: []Chapter{{ID: "c1", Title: "One", Images: []ChapterImage{{URL: "a.png"}}}},
	})
	require.NoError(t, err)

	c := b.Clone()
	c.Chapters[0].Images[0].URL = "changed.png"
	c.Chapters[0].Title = "Changed"

	assert.Equal(t, "a.png", b.Chapters[0].Images[0].URL)
	assert.Equal(t, "One", b.Chapters[0].Title)
}

func TestBook_ChapterAndParagraphs(t *testing.T) {
	b := Book{Chapters: []Chapter{{ID: "c1", Content: "First.\n\nSecond.\n"}}}

	ch, ok := b.Chapter("c1")
	require.True(t, ok)
	assert.Equal(t, []string{"First.", "Second."}, ch.Paragraphs())
	assert.NotNil(t, ch.Images)

	_, ok = b.Chapter("missing")
	assert.False(t, ok)
}

func TestBook_RatingBucketTruncates(t *testing.T) {
	assert.Equal(t, 4, Book{Rating: 4.8}.RatingBucket())
	assert.Equal(t, 4, Book{Rating: 4.0}.RatingBucket())
	assert.Equal(t, 5, Book{Rating: 5}.RatingBucket())
	assert.Equal(t, 0, Book{Rating: 0.9}.RatingBucket())
}
