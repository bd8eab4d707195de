package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pageboundapp/pagebound-server/internal/auth"
	"github.com/pageboundapp/pagebound-server/internal/domain"
	"github.com/pageboundapp/pagebound-server/internal/payment"
	"github.com/pageboundapp/pagebound-server/internal/remote"
	"github.com/pageboundapp/pagebound-server/internal/search"
	"github.com/pageboundapp/pagebound-server/internal/sse"
	"github.com/pageboundapp/pagebound-server/internal/state"
	"github.com/pageboundapp/pagebound-server/internal/store"
	"github.com/pageboundapp/pagebound-server/internal/store/sqlite"
	"github.com/pageboundapp/pagebound-server/internal/validation"
)

var errInjected = errors.New("injected failure")

// flakyStore fails the operations listed in failOn ("insert:comments").
type flakyStore struct {
	store.Store
	mu     sync.Mutex
	failOn map[string]bool
}

func (f *flakyStore) failNext(op, table string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failOn[op+":"+table] = true
}

func (f *flakyStore) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failOn = map[string]bool{}
}

func (f *flakyStore) fail(op, table string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failOn[op+":"+table]
}

func (f *flakyStore) Select(ctx context.Context, table string, filter store.Filter) ([]store.Record, error) {
	if f.fail("select", table) {
		return nil, errInjected
	}
	return f.Store.Select(ctx, table, filter)
}

func (f *flakyStore) Insert(ctx context.Context, table string, recs []store.Record) ([]store.Record, error) {
	if f.fail("insert", table) {
		return nil, errInjected
	}
	return f.Store.Insert(ctx, table, recs)
}

func (f *flakyStore) Upsert(ctx context.Context, table string, rec store.Record, key []string) error {
	if f.fail("upsert", table) {
		return errInjected
	}
	return f.Store.Upsert(ctx, table, rec, key)
}

func (f *flakyStore) Delete(ctx context.Context, table string, match store.Filter) error {
	if f.fail("delete", table) {
		return errInjected
	}
	return f.Store.Delete(ctx, table, match)
}

// recorder captures emitted events.
type recorder struct {
	mu     sync.Mutex
	events []sse.Event
}

func (r *recorder) Emit(event any) {
	if e, ok := event.(sse.Event); ok {
		r.mu.Lock()
		r.events = append(r.events, e)
		r.mu.Unlock()
	}
}

func (r *recorder) types() []sse.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]sse.EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

// testEnv wires every service over one temp SQLite store.
type testEnv struct {
	state   *state.State
	remote  *remote.Adapter
	flaky   *flakyStore
	events  *recorder
	index   *search.SearchIndex
	tokens  *auth.TokenService
	catalog *CatalogService
	annots  *AnnotationService
	groups  *CommunityService
	account *AccountService
	buy     *PurchaseService
	auth    *AuthService
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "pagebound.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	index, err := search.NewSearchIndex(search.Options{Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { index.Close() })

	tokens, err := auth.NewTokenService(make([]byte, 32), time.Hour)
	require.NoError(t, err)

	env := &testEnv{
		state:  state.New(),
		flaky:  &flakyStore{Store: db, failOn: map[string]bool{}},
		events: &recorder{},
		index:  index,
		tokens: tokens,
	}
	env.remote = remote.New(env.flaky, logger)
	v := validation.New()

	env.catalog = NewCatalogService(env.state, env.remote, index, env.events, logger)
	env.annots = NewAnnotationService(env.state, env.remote, env.events, v, logger)
	env.groups = NewCommunityService(env.state, env.remote, env.events, v, logger)
	env.account = NewAccountService(env.state, env.remote, v, logger)
	env.buy = NewPurchaseService(env.state, env.remote, payment.NewMockGateway(v, logger), env.account, v, logger)
	env.auth = NewAuthService(env.state, env.remote, tokens, v, logger)

	require.NoError(t, env.remote.SaveCatalog(context.Background(), testBooks()))
	require.NoError(t, env.catalog.Reload(context.Background()))
	env.events.events = nil
	return env
}

// signIn registers a session for a user that exists only in memory.
func (e *testEnv) signIn(userID, name string) {
	e.state.SetUser(domain.NewUser(userID, name, userID+"@example.com"))
}

func testBooks() []domain.Book {
	return []domain.Book{
		{
			ID: "book-dune", Title: "Dune", Author: "Frank Herbert", Genre: "Science Fiction",
			Price: 14.99, Rating: 4.5, ReleaseDate: "1965-08-01",
			Synopsis: "A desert planet and the spice that rules the galaxy.",
			Chapters: []domain.Chapter{
				{ID: "dune-1", Title: "Arrakis", Content: "A beginning is the time for taking the most delicate care."},
			},
		},
		{
			ID: "book-pp", Title: "Pride and Prejudice", Author: "Jane Austen", Genre: "Romance",
			IsFree: true, Rating: 4.8, ReleaseDate: "1813-01-28",
			Chapters: []domain.Chapter{
				{ID: "pp-1", Title: "Chapter 1", Content: "It is a truth universally acknowledged."},
			},
		},
		{
			ID: "book-found", Title: "Foundation", Author: "Isaac Asimov", Genre: "Science Fiction",
			Price: 9.99, Rating: 4.2, ReleaseDate: "1951-06-01",
			Chapters: []domain.Chapter{},
		},
	}
}
