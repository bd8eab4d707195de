package providers

import (
	"context"
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/pageboundapp/pagebound-server/internal/catalog"
	"github.com/pageboundapp/pagebound-server/internal/config"
	"github.com/pageboundapp/pagebound-server/internal/service"
)

// CatalogWatcherHandle wraps the seed file watcher with shutdown capability.
// Watcher is nil when watching is disabled or there is no seed file.
type CatalogWatcherHandle struct {
	Watcher *catalog.Watcher
	cancel  context.CancelFunc
	done    chan struct{}
}

// Shutdown implements do.Shutdownable.
func (h *CatalogWatcherHandle) Shutdown() error {
	if h.cancel == nil {
		return nil
	}
	h.cancel()
	<-h.done
	return nil
}

// ProvideCatalogWatcher starts reloading the catalog when the seed file changes.
func ProvideCatalogWatcher(i do.Injector) (*CatalogWatcherHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*slog.Logger](i)
	bootstrap := do.MustInvoke[*Bootstrap](i)
	catalogService := do.MustInvoke[*service.CatalogService](i)

	if cfg.Catalog.SeedPath == "" || !cfg.Catalog.Watch {
		log.Info("Catalog seed watching disabled")
		return &CatalogWatcherHandle{}, nil
	}

	w := catalog.NewWatcher(cfg.Catalog.SeedPath, bootstrap.SeedHash, catalogService.Seed, log)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)
		if err := w.Run(ctx); err != nil {
			log.Error("Catalog watcher error", "error", err)
		}
	}()

	return &CatalogWatcherHandle{
		Watcher: w,
		cancel:  cancel,
		done:    done,
	}, nil
}
