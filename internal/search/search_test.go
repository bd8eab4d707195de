package search

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageboundapp/pagebound-server/internal/domain"
)

// setupTestIndex creates a temporary on-disk search index for testing.
func setupTestIndex(t *testing.T) (*SearchIndex, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "search-test-*")
	require.NoError(t, err)

	index, err := NewSearchIndex(Options{DataPath: tmpDir})
	require.NoError(t, err)

	cleanup := func() {
		_ = index.Close()
		_ = os.RemoveAll(tmpDir)
	}

	return index, cleanup
}

func testBooks() []domain.Book {
	return []domain.Book{
		{ID: "book-dune", Title: "Dune", Author: "Frank Herbert", Genre: "Science Fiction", Rating: 4.8, Price: 14.99, Synopsis: "Spice and sandworms on Arrakis."},
		{ID: "book-emma", Title: "Emma", Author: "Jane Austen", Genre: "Classic", Rating: 4.1, IsFree: true},
		{ID: "book-hobbit", Title: "The Hobbit", Author: "J.R.R. Tolkien", Genre: "Fantasy", Rating: 4.7, Price: 9.99},
		{ID: "book-persuasion", Title: "Persuasion", Author: "Jane Austen", Genre: "Classic", Rating: 4.3, IsFree: true},
	}
}

func hitIDs(r *SearchResult) []string {
	ids := make([]string, len(r.Hits))
	for i, h := range r.Hits {
		ids[i] = h.ID
	}
	return ids
}

func TestNewSearchIndex(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestNewSearchIndex_InMemory(t *testing.T) {
	index, err := NewSearchIndex(Options{})
	require.NoError(t, err)
	defer index.Close()

	require.NoError(t, index.IndexBooks(testBooks()))
	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(4), count)
}

func TestSearchIndex_SearchByTitle(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()
	require.NoError(t, index.IndexBooks(testBooks()))

	result, err := index.Search(context.Background(), SearchParams{Query: "hobbit"})
	require.NoError(t, err)
	require.NotEmpty(t, result.Hits)
	assert.Equal(t, "book-hobbit", result.Hits[0].ID)
	assert.Equal(t, "The Hobbit", result.Hits[0].Title)
	assert.Equal(t, "J.R.R. Tolkien", result.Hits[0].Author)
}

func TestSearchIndex_SearchByAuthor(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()
	require.NoError(t, index.IndexBooks(testBooks()))

	result, err := index.Search(context.Background(), SearchParams{Query: "austen"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"book-emma", "book-persuasion"}, hitIDs(result))
}

func TestSearchIndex_FuzzyTitle(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()
	require.NoError(t, index.IndexBooks(testBooks()))

	result, err := index.Search(context.Background(), SearchParams{Query: "dume"})
	require.NoError(t, err)
	assert.Contains(t, hitIDs(result), "book-dune")
}

func TestSearchIndex_GenreFilterAndFacets(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()
	require.NoError(t, index.IndexBooks(testBooks()))

	result, err := index.Search(context.Background(), SearchParams{Genre: "Classic"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"book-emma", "book-persuasion"}, hitIDs(result))

	all, err := index.Search(context.Background(), DefaultSearchParams())
	require.NoError(t, err)
	assert.Equal(t, uint64(4), all.Total)
	require.NotEmpty(t, all.Genres)
	assert.Equal(t, FacetCount{Value: "Classic", Count: 2}, all.Genres[0])
}

func TestSearchIndex_SortByRating(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()
	require.NoError(t, index.IndexBooks(testBooks()))

	result, err := index.Search(context.Background(), SearchParams{SortBy: "rating"})
	require.NoError(t, err)
	assert.Equal(t, []string{"book-dune", "book-hobbit", "book-persuasion", "book-emma"}, hitIDs(result))
}

func TestSearchIndex_Pagination(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()
	require.NoError(t, index.IndexBooks(testBooks()))

	page, err := index.Search(context.Background(), SearchParams{SortBy: "rating", Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Equal(t, uint64(4), page.Total)
	assert.Equal(t, []string{"book-persuasion", "book-emma"}, hitIDs(page))
}

func TestSearchIndex_DeleteAndReplace(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()
	require.NoError(t, index.IndexBooks(testBooks()))

	require.NoError(t, index.DeleteBook("book-dune"))
	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)

	require.NoError(t, index.Replace(testBooks()[:1]))
	count, err = index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func TestNewSearchIndex_RebuildsOnVersionChange(t *testing.T) {
	dir := t.TempDir()

	index, err := NewSearchIndex(Options{DataPath: dir})
	require.NoError(t, err)
	require.NoError(t, index.IndexBooks(testBooks()))
	require.NoError(t, index.Close())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "catalog.version"), []byte("0"), 0o644))

	reopened, err := NewSearchIndex(Options{DataPath: dir})
	require.NoError(t, err)
	defer reopened.Close()

	count, err := reopened.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}
