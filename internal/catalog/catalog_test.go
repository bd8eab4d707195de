package catalog

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/pageboundapp/pagebound-server/internal/errors"
)

const yamlSeed = `
books:
  - id: book-dune
    title: Dune
    author: Frank Herbert
    price: 14.99
    rating: 4.8
    genre: Science Fiction
    chapters:
      - id: dune-1
        title: Arrakis
        content: "A beginning is the time...\nTo begin your study..."
        images:
          - url: https://example.com/arrakis.png
            caption: Arrakis
  - id: book-emma
    title: Emma
    author: Jane Austen
    price: 0
    rating: 4.1
    genre: Classic
`

const jsonSeed = `{"books":[{"id":"book-emma","title":"Emma","author":"Jane Austen","price":0,"is_free":true,"rating":4.1,"genre":"Classic"}]}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFile_YAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "catalog.yaml", yamlSeed)

	seed, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, seed.Books, 2)
	assert.NotZero(t, seed.Hash)

	dune := seed.Books[0]
	assert.Equal(t, "Dune", dune.Title)
	assert.False(t, dune.IsFree)
	require.Len(t, dune.Chapters, 1)
	assert.Len(t, dune.Chapters[0].Paragraphs(), 2)
	assert.Equal(t, "Arrakis", dune.Chapters[0].Images[0].Caption)

	emma := seed.Books[1]
	assert.True(t, emma.IsFree, "is_free derived from price")
	assert.NotNil(t, emma.Chapters)
}

func TestLoadFile_JSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "catalog.json", jsonSeed)

	seed, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, seed.Books, 1)
	assert.Equal(t, "book-emma", seed.Books[0].ID)
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte("books: []"), ".toml")
	assert.Error(t, err)

	_, err = Parse([]byte(`{"books":[{"id":"b","title":"T","price":5,"is_free":true}]}`), ".json")
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	_, err = Parse([]byte(`{"books":[{"id":"b","title":"T"},{"id":"b","title":"U"}]}`), ".json")
	assert.ErrorContains(t, err, "duplicate")

	_, err = Parse([]byte("books: [unclosed"), ".yml")
	assert.Error(t, err)
}

func TestLoadFile_SameContentSameHash(t *testing.T) {
	dir := t.TempDir()
	a, err := LoadFile(writeFile(t, dir, "a.json", jsonSeed))
	require.NoError(t, err)
	b, err := LoadFile(writeFile(t, dir, "b.json", jsonSeed))
	require.NoError(t, err)
	assert.Equal(t, a.Hash, b.Hash)
}

func TestWatcher_ReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "catalog.json", jsonSeed)
	initial, err := LoadFile(path)
	require.NoError(t, err)

	var reloads atomic.Int32
	var lastCount atomic.Int32
	w := NewWatcher(path, initial.Hash, func(_ context.Context, s *Seed) error {
		reloads.Add(1)
		lastCount.Store(int32(len(s.Books)))
		return nil
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	w.SettleDelay = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher time to register.
	time.Sleep(100 * time.Millisecond)

	// Same bytes: skipped.
	writeFile(t, dir, "catalog.json", jsonSeed)
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(0), reloads.Load())

	// New content: reloaded.
	writeFile(t, dir, "catalog.yaml", yamlSeed)
	writeFile(t, dir, "catalog.json", `{"books":[]}`)
	require.Eventually(t, func() bool { return reloads.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(0), lastCount.Load())

	// Other files in the directory do not trigger reloads.
	writeFile(t, dir, "other.json", jsonSeed)
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(1), reloads.Load())

	cancel()
	require.NoError(t, <-done)
}
