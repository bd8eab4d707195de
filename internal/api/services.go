package api

import (
	"github.com/pageboundapp/pagebound-server/internal/remote"
	"github.com/pageboundapp/pagebound-server/internal/search"
	"github.com/pageboundapp/pagebound-server/internal/service"
	"github.com/pageboundapp/pagebound-server/internal/sse"
)

// Services holds everything the handlers call into.
type Services struct {
	Auth       *service.AuthService
	Catalog    *service.CatalogService
	Account    *service.AccountService
	Purchase   *service.PurchaseService
	Annotation *service.AnnotationService
	Community  *service.CommunityService

	// Used by health checks only.
	Remote *remote.Adapter
	Search *search.SearchIndex
	SSE    *sse.Manager
}
