// Package leads provides the lead management bounded context module.
package leads

import (
	"github.com/sanjaykhatri/lead-management-backend/internal/events"
	apphttp "github.com/sanjaykhatri/lead-management-backend/internal/http"
	"github.com/sanjaykhatri/lead-management-backend/internal/leads/handler"
	"github.com/sanjaykhatri/lead-management-backend/internal/leads/repository"
	"github.com/sanjaykhatri/lead-management-backend/internal/leads/service"
	"github.com/sanjaykhatri/lead-management-backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the leads module with its dependencies.
func NewModule(pool *pgxpool.Pool, providers service.ProviderDirectory, bus events.Bus, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, providers, bus, log)
	return &Module{
		handler: handler.New(svc),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service returns the lead lifecycle service for use by other modules.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts lead routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterPublicRoutes(ctx.V1.Group("/leads"), ctx.SubmitRateLimiter.RateLimit())
	m.handler.RegisterAuthenticatedRoutes(ctx.Protected.Group("/leads"))
	m.handler.RegisterNoteRoutes(ctx.Protected.Group("/lead-notes"))
	m.handler.RegisterAdminRoutes(ctx.Admin.Group("/leads"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
