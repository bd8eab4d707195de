package providers

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/samber/do/v2"

	"github.com/pageboundapp/pagebound-server/internal/catalog"
	"github.com/pageboundapp/pagebound-server/internal/config"
	"github.com/pageboundapp/pagebound-server/internal/remote"
	"github.com/pageboundapp/pagebound-server/internal/service"
	"github.com/pageboundapp/pagebound-server/internal/sse"
	"github.com/pageboundapp/pagebound-server/internal/state"
	"github.com/pageboundapp/pagebound-server/internal/store"
	"github.com/pageboundapp/pagebound-server/internal/store/badgerstore"
	"github.com/pageboundapp/pagebound-server/internal/store/gormstore"
	"github.com/pageboundapp/pagebound-server/internal/store/sqlite"
)

// SSEManagerHandle wraps the SSE manager with its context for lifecycle management.
type SSEManagerHandle struct {
	*sse.Manager
	cancel  context.CancelFunc
	timeout time.Duration
}

// Shutdown implements do.Shutdownable.
func (h *SSEManagerHandle) Shutdown() error {
	h.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()
	return h.Manager.Shutdown(ctx)
}

// ProvideSSEManager provides the server-sent events manager.
func ProvideSSEManager(i do.Injector) (*SSEManagerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*slog.Logger](i)

	manager := sse.NewManager(log)

	ctx, cancel := context.WithCancel(context.Background())
	go manager.Start(ctx)

	log.Info("SSE manager started")

	return &SSEManagerHandle{
		Manager: manager,
		cancel:  cancel,
		timeout: cfg.Server.ShutdownTimeout,
	}, nil
}

// StoreHandle wraps the configured persistence backend with shutdown capability.
type StoreHandle struct {
	store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore opens the persistence backend selected by configuration.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*slog.Logger](i)

	db, err := OpenStore(cfg.Storage, log)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "backend", cfg.Storage.Backend)
	return &StoreHandle{Store: db}, nil
}

// OpenStore opens the backend named by sc. The operator CLI shares it.
func OpenStore(sc config.StorageConfig, log *slog.Logger) (store.Store, error) {
	if sc.Backend == config.BackendSQLite || sc.Backend == config.BackendBadger {
		if err := os.MkdirAll(sc.DataPath, 0o700); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	switch sc.Backend {
	case config.BackendSQLite:
		return sqlite.Open(filepath.Join(sc.DataPath, "pagebound.db"), log)
	case config.BackendBadger:
		return badgerstore.Open(filepath.Join(sc.DataPath, "badger"), log)
	case config.BackendPostgres:
		return gormstore.OpenPostgres(sc.DSN, gormstore.ConnectionArg{
			MaxOpenConns:    20,
			MaxIdleConns:    5,
			ConnMaxLifetime: time.Hour,
		}, log)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", sc.Backend)
	}
}

// ProvideRemote provides the remote sync adapter over the store.
func ProvideRemote(i do.Injector) (*remote.Adapter, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*slog.Logger](i)
	return remote.New(storeHandle.Store, log), nil
}

// ProvideState provides the process-wide application state.
func ProvideState(i do.Injector) (*state.State, error) {
	return state.New(), nil
}

// Bootstrap is the result of loading persisted state at startup.
type Bootstrap struct {
	Books       int
	Groups      int
	Annotations int

	// SeedHash is the hash of the applied seed file, zero without one.
	SeedHash uint64
}

// hydrateTimeout bounds loading state and applying the seed at startup.
const hydrateTimeout = 2 * time.Minute

// ProvideBootstrap hydrates the state from persistence and applies the
// optional catalog seed file.
func ProvideBootstrap(i do.Injector) (*Bootstrap, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*slog.Logger](i)
	rm := do.MustInvoke[*remote.Adapter](i)
	st := do.MustInvoke[*state.State](i)
	catalogService := do.MustInvoke[*service.CatalogService](i)

	ctx, cancel := context.WithTimeout(context.Background(), hydrateTimeout)
	defer cancel()

	snap, err := rm.Hydrate(ctx)
	if err != nil {
		return nil, fmt.Errorf("hydrate state: %w", err)
	}
	st.Reset(snap.Books, snap.Groups, snap.Annotations)

	result := &Bootstrap{
		Groups:      len(snap.Groups),
		Annotations: len(snap.Annotations),
	}

	if cfg.Catalog.SeedPath != "" {
		seed, err := catalog.LoadFile(cfg.Catalog.SeedPath)
		if err != nil {
			return nil, err
		}
		if err := catalogService.Seed(ctx, seed); err != nil {
			return nil, fmt.Errorf("apply catalog seed: %w", err)
		}
		result.SeedHash = seed.Hash
		log.Info("Catalog seed applied", "path", seed.Path, "books", len(seed.Books))
	} else if err := catalogService.Reindex(); err != nil {
		return nil, err
	}

	result.Books = len(catalogService.Books())
	log.Info("State ready",
		"books", result.Books,
		"groups", result.Groups,
		"annotations", result.Annotations,
	)
	return result, nil
}
