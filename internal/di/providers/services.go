package providers

import (
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/pageboundapp/pagebound-server/internal/auth"
	"github.com/pageboundapp/pagebound-server/internal/payment"
	"github.com/pageboundapp/pagebound-server/internal/remote"
	"github.com/pageboundapp/pagebound-server/internal/service"
	"github.com/pageboundapp/pagebound-server/internal/state"
	"github.com/pageboundapp/pagebound-server/internal/validation"
)

// ProvideValidator provides the shared struct validator.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// ProvidePaymentGateway provides the payment gateway. Payments are mocked.
func ProvidePaymentGateway(i do.Injector) (payment.Gateway, error) {
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*slog.Logger](i)
	return payment.NewMockGateway(v, log), nil
}

// ProvideAuthService provides the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	st := do.MustInvoke[*state.State](i)
	rm := do.MustInvoke[*remote.Adapter](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*slog.Logger](i)

	return service.NewAuthService(st, rm, tokenService, v, log), nil
}

// ProvideCatalogService provides the catalog service.
func ProvideCatalogService(i do.Injector) (*service.CatalogService, error) {
	st := do.MustInvoke[*state.State](i)
	rm := do.MustInvoke[*remote.Adapter](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*slog.Logger](i)

	return service.NewCatalogService(st, rm, indexHandle.SearchIndex, sseHandle.Manager, log), nil
}

// ProvideAccountService provides the session and subscription service.
func ProvideAccountService(i do.Injector) (*service.AccountService, error) {
	st := do.MustInvoke[*state.State](i)
	rm := do.MustInvoke[*remote.Adapter](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*slog.Logger](i)

	return service.NewAccountService(st, rm, v, log), nil
}

// ProvidePurchaseService provides the purchase flow.
func ProvidePurchaseService(i do.Injector) (*service.PurchaseService, error) {
	st := do.MustInvoke[*state.State](i)
	rm := do.MustInvoke[*remote.Adapter](i)
	gateway := do.MustInvoke[payment.Gateway](i)
	accountService := do.MustInvoke[*service.AccountService](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*slog.Logger](i)

	return service.NewPurchaseService(st, rm, gateway, accountService, v, log), nil
}

// ProvideAnnotationService provides the annotation store.
func ProvideAnnotationService(i do.Injector) (*service.AnnotationService, error) {
	st := do.MustInvoke[*state.State](i)
	rm := do.MustInvoke[*remote.Adapter](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*slog.Logger](i)

	return service.NewAnnotationService(st, rm, sseHandle.Manager, v, log), nil
}

// ProvideCommunityService provides the community engine.
func ProvideCommunityService(i do.Injector) (*service.CommunityService, error) {
	st := do.MustInvoke[*state.State](i)
	rm := do.MustInvoke[*remote.Adapter](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*slog.Logger](i)

	return service.NewCommunityService(st, rm, sseHandle.Manager, v, log), nil
}
