package di

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/samber/do/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageboundapp/pagebound-server/internal/config"
	"github.com/pageboundapp/pagebound-server/internal/di/providers"
	"github.com/pageboundapp/pagebound-server/internal/service"
)

const seedYAML = `books:
  - id: dune-1
    title: Dune
    author: Frank Herbert
    price: 0
    rating: 4.6
    genre: Science Fiction
    chapters:
      - id: ch-1
        title: Arrakis
        content: "A beginning is the time for taking the most delicate care."
  - id: hobbit-1
    title: The Hobbit
    author: J.R.R. Tolkien
    price: 7.99
    rating: 4.8
    genre: Fantasy
`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	seed := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(seed, []byte(seedYAML), 0o600))

	return &config.Config{
		App:     config.AppConfig{Environment: "development"},
		Logger:  config.LoggerConfig{Level: "error"},
		Storage: config.StorageConfig{Backend: config.BackendSQLite, DataPath: dir},
		Server: config.ServerConfig{
			Port:            "0",
			ReadTimeout:     5 * time.Second,
			ShutdownTimeout: 5 * time.Second,
			CORSOrigins:     []string{"*"},
		},
		Auth: config.AuthConfig{
			AccessTokenDuration: time.Hour,
			SignInRate:          20,
			SignInBurst:         10,
		},
		Catalog: config.CatalogConfig{SeedPath: seed},
		Search:  config.SearchConfig{IndexPath: filepath.Join(dir, "search")},
	}
}

func TestBootstrap_WiresServer(t *testing.T) {
	cfg := testConfig(t)
	injector := NewContainer(cfg)
	t.Cleanup(func() { injector.Shutdown() })

	require.NoError(t, Bootstrap(injector))

	boot := do.MustInvoke[*providers.Bootstrap](injector)
	assert.Equal(t, 2, boot.Books)
	assert.NotZero(t, boot.SeedHash)
	assert.Len(t, cfg.Auth.AccessTokenKey, 32)

	catalog := do.MustInvoke[*service.CatalogService](injector)
	book, err := catalog.Book("hobbit-1")
	require.NoError(t, err)
	assert.Equal(t, "The Hobbit", book.Title)

	handler := do.MustInvoke[*providers.APIServerHandle](injector)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBootstrap_KeyIsReusedAcrossRestarts(t *testing.T) {
	cfg := testConfig(t)
	cfg.Catalog.SeedPath = ""

	first := NewContainer(cfg)
	require.NoError(t, Bootstrap(first))
	key := append([]byte(nil), cfg.Auth.AccessTokenKey...)
	first.Shutdown()

	second := NewContainer(cfg)
	t.Cleanup(func() { second.Shutdown() })
	require.NoError(t, Bootstrap(second))

	assert.Equal(t, key, cfg.Auth.AccessTokenKey)
	// No seed file, so the catalog hydrates empty.
	assert.Zero(t, do.MustInvoke[*providers.Bootstrap](second).Books)
}

func TestOpenStore_UnknownBackend(t *testing.T) {
	_, err := providers.OpenStore(config.StorageConfig{Backend: "mongo"}, nil)
	assert.Error(t, err)
}
