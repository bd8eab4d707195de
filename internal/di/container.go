// Package di provides dependency injection configuration for the Pagebound server.
package di

import (
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/pageboundapp/pagebound-server/internal/auth"
	"github.com/pageboundapp/pagebound-server/internal/config"
	"github.com/pageboundapp/pagebound-server/internal/di/providers"
	"github.com/pageboundapp/pagebound-server/internal/payment"
	"github.com/pageboundapp/pagebound-server/internal/remote"
	"github.com/pageboundapp/pagebound-server/internal/service"
	"github.com/pageboundapp/pagebound-server/internal/state"
	"github.com/pageboundapp/pagebound-server/internal/validation"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer(cfg *config.Config) *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.ProvideValue(injector, cfg)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideAuthKey)
	do.Provide(injector, providers.ProvideValidator)

	// Persistence and state
	do.Provide(injector, providers.ProvideSSEManager)
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideRemote)
	do.Provide(injector, providers.ProvideState)
	do.Provide(injector, providers.ProvideSearchIndex)

	// Auth and payments
	do.Provide(injector, providers.ProvideTokenService)
	do.Provide(injector, providers.ProvidePaymentGateway)

	// Business services
	do.Provide(injector, providers.ProvideAuthService)
	do.Provide(injector, providers.ProvideCatalogService)
	do.Provide(injector, providers.ProvideAccountService)
	do.Provide(injector, providers.ProvidePurchaseService)
	do.Provide(injector, providers.ProvideAnnotationService)
	do.Provide(injector, providers.ProvideCommunityService)

	// Startup and workers
	do.Provide(injector, providers.ProvideBootstrap)
	do.Provide(injector, providers.ProvideCatalogWatcher)

	// Server
	do.Provide(injector, providers.ProvideAPIServer)
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services. Hydration runs before the HTTP
// server starts listening so no request sees an empty state.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*slog.Logger](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[providers.AuthKey](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*providers.SSEManagerHandle](injector)
	_ = do.MustInvoke[*remote.Adapter](injector)
	_ = do.MustInvoke[*state.State](injector)
	_ = do.MustInvoke[*validation.Validator](injector)
	if _, err := do.Invoke[*providers.SearchIndexHandle](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*auth.TokenService](injector)
	_ = do.MustInvoke[payment.Gateway](injector)

	// Business services
	_ = do.MustInvoke[*service.AuthService](injector)
	_ = do.MustInvoke[*service.CatalogService](injector)
	_ = do.MustInvoke[*service.AccountService](injector)
	_ = do.MustInvoke[*service.PurchaseService](injector)
	_ = do.MustInvoke[*service.AnnotationService](injector)
	_ = do.MustInvoke[*service.CommunityService](injector)

	if _, err := do.Invoke[*providers.Bootstrap](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.CatalogWatcherHandle](injector); err != nil {
		return err
	}

	_ = do.MustInvoke[*providers.APIServerHandle](injector)
	if _, err := do.Invoke[*providers.HTTPServerHandle](injector); err != nil {
		return err
	}

	return nil
}
