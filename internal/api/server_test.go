package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/require"

	"github.com/pageboundapp/pagebound-server/internal/auth"
	"github.com/pageboundapp/pagebound-server/internal/domain"
	"github.com/pageboundapp/pagebound-server/internal/payment"
	"github.com/pageboundapp/pagebound-server/internal/remote"
	"github.com/pageboundapp/pagebound-server/internal/search"
	"github.com/pageboundapp/pagebound-server/internal/service"
	"github.com/pageboundapp/pagebound-server/internal/sse"
	"github.com/pageboundapp/pagebound-server/internal/state"
	"github.com/pageboundapp/pagebound-server/internal/store/sqlite"
	"github.com/pageboundapp/pagebound-server/internal/validation"
)

// testEnvelope mirrors both envelope shapes for decoding in tests.
type testEnvelope[T any] struct {
	Version int             `json:"v"`
	Success bool            `json:"success"`
	Data    T               `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Details json.RawMessage `json:"details"`
}

// testServer wraps the API server with a humatest client.
type testServer struct {
	*Server
	api humatest.TestAPI
	sse *sse.Manager
}

func newTestServices(t *testing.T) *Services {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "pagebound.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	index, err := search.NewSearchIndex(search.Options{Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	tokens, err := auth.NewTokenService(make([]byte, 32), time.Hour)
	require.NoError(t, err)

	st := state.New()
	rm := remote.New(db, logger)
	v := validation.New()
	events := sse.NewManager(logger)

	account := service.NewAccountService(st, rm, v, logger)
	services := &Services{
		Auth:       service.NewAuthService(st, rm, tokens, v, logger),
		Catalog:    service.NewCatalogService(st, rm, index, events, logger),
		Account:    account,
		Purchase:   service.NewPurchaseService(st, rm, payment.NewMockGateway(v, logger), account, v, logger),
		Annotation: service.NewAnnotationService(st, rm, events, v, logger),
		Community:  service.NewCommunityService(st, rm, events, v, logger),
		Remote:     rm,
		Search:     index,
		SSE:        events,
	}

	ctx := context.Background()
	require.NoError(t, rm.SaveCatalog(ctx, testBooks()))
	require.NoError(t, services.Catalog.Reload(ctx))
	return services
}

// setupTestServer creates a test server over a temp SQLite store.
func setupTestServer(t *testing.T) *testServer {
	return setupTestServerWith(t, DefaultOptions())
}

func setupTestServerWith(t *testing.T, opts Options) *testServer {
	t.Helper()
	services := newTestServices(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s := NewServer(services, opts, logger)
	t.Cleanup(s.Close)

	return &testServer{
		Server: s,
		api:    humatest.Wrap(t, s.api),
		sse:    services.SSE,
	}
}

// signUp creates an account and returns its bearer header and user id.
func (ts *testServer) signUp(t *testing.T, email, name string) (authHeader, userID string) {
	t.Helper()

	resp := ts.api.Post("/api/v1/auth/signup", map[string]any{
		"email":    email,
		"password": "correct horse battery",
		"name":     name,
	})
	require.Equal(t, http.StatusOK, resp.Code, "signup failed: %s", resp.Body.String())

	env := decodeEnvelope[service.AuthResponse](t, resp.Body.Bytes())
	return "Authorization: Bearer " + env.Data.AccessToken, env.Data.User.ID
}

func decodeEnvelope[T any](t *testing.T, body []byte) testEnvelope[T] {
	t.Helper()
	var env testEnvelope[T]
	require.NoError(t, json.Unmarshal(body, &env), "body: %s", body)
	require.Equal(t, EnvelopeVersion, env.Version)
	return env
}

func testBooks() []domain.Book {
	return []domain.Book{
		{
			ID: "book-dune", Title: "Dune", Author: "Frank Herbert", Genre: "Science Fiction",
			Price: 14.99, Rating: 4.5, ReleaseDate: "1965-08-01",
			Chapters: []domain.Chapter{
				{ID: "dune-1", Title: "Arrakis", Content: "A beginning is the time.\n\nFor taking the most delicate care."},
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
