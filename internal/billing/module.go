// Package billing provides the subscription billing bounded context module.
package billing

import (
	"github.com/sanjaykhatri/lead-management-backend/internal/billing/handler"
	"github.com/sanjaykhatri/lead-management-backend/internal/billing/processor"
	"github.com/sanjaykhatri/lead-management-backend/internal/billing/repository"
	"github.com/sanjaykhatri/lead-management-backend/internal/billing/service"
	"github.com/sanjaykhatri/lead-management-backend/internal/events"
	apphttp "github.com/sanjaykhatri/lead-management-backend/internal/http"
	"github.com/sanjaykhatri/lead-management-backend/platform/config"
	"github.com/sanjaykhatri/lead-management-backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the billing bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the billing module. The providers
// dependency resolves checkout contact details without an import cycle.
func NewModule(pool *pgxpool.Pool, providers service.ProviderContacts, bus events.Bus, cfg config.BillingConfig, log *logger.Logger) *Module {
	repo := repository.New(pool)
	client := processor.NewHTTPClient(cfg, log)
	svc := service.New(repo, client, providers, bus, cfg, log)
	return &Module{
		handler: handler.New(svc, cfg, log),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "billing"
}

// Service returns the billing service for use by other modules.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts billing routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterPublicRoutes(ctx.V1.Group("/billing"))
	m.handler.RegisterProviderRoutes(ctx.Provider.Group("/billing"))
	m.handler.RegisterAdminRoutes(ctx.Admin.Group("/billing"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
