package providers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/samber/do/v2"

	"github.com/pageboundapp/pagebound-server/internal/api"
	"github.com/pageboundapp/pagebound-server/internal/config"
	"github.com/pageboundapp/pagebound-server/internal/remote"
	"github.com/pageboundapp/pagebound-server/internal/service"
)

// APIServerHandle wraps the API handler so its limiter is stopped on shutdown.
type APIServerHandle struct {
	*api.Server
}

// Shutdown implements do.Shutdownable.
func (h *APIServerHandle) Shutdown() error {
	h.Close()
	return nil
}

// ProvideAPIServer provides the HTTP handler with every route registered.
func ProvideAPIServer(i do.Injector) (*APIServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*slog.Logger](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)

	services := &api.Services{
		Auth:       do.MustInvoke[*service.AuthService](i),
		Catalog:    do.MustInvoke[*service.CatalogService](i),
		Account:    do.MustInvoke[*service.AccountService](i),
		Purchase:   do.MustInvoke[*service.PurchaseService](i),
		Annotation: do.MustInvoke[*service.AnnotationService](i),
		Community:  do.MustInvoke[*service.CommunityService](i),
		Remote:     do.MustInvoke[*remote.Adapter](i),
		Search:     indexHandle.SearchIndex,
		SSE:        sseHandle.Manager,
	}

	handler := api.NewServer(services, api.Options{
		CORSOrigins: cfg.Server.CORSOrigins,
		AuthRate:    cfg.Auth.SignInRate,
		AuthBurst:   cfg.Auth.SignInBurst,
	}, log)

	return &APIServerHandle{Server: handler}, nil
}

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	timeout time.Duration
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server and starts listening.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*slog.Logger](i)
	handler := do.MustInvoke[*APIServerHandle](i)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv, timeout: cfg.Server.ShutdownTimeout}, nil
}
