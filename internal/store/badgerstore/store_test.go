package badgerstore

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageboundapp/pagebound-server/internal/store"
	"github.com/pageboundapp/pagebound-server/internal/store/storetest"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return newTestStore(t) })
}

func TestOpen_InMemory(t *testing.T) {
	s, err := Open("", nil)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Insert(context.Background(), store.TableBooks, []store.Record{{"id": "b1", "title": "Dune"}})
	require.NoError(t, err)

	rows, err := s.Select(context.Background(), store.TableBooks, nil)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestReopenKeepsRowsAndOrder(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := Open(dir, nil)
	require.NoError(t, err)
	_, err = s.Insert(ctx, store.TableBooks, []store.Record{{"id": "z", "title": "Last"}, {"id": "a", "title": "First"}})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(dir, nil)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Insert(ctx, store.TableBooks, []store.Record{{"id": "m", "title": "Later"}})
	require.NoError(t, err)

	rows, err := s.Select(ctx, store.TableBooks, nil)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "z", rows[0].String("id"))
	assert.Equal(t, "a", rows[1].String("id"))
	assert.Equal(t, "m", rows[2].String("id"))
}
