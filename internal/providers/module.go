// Package providers provides the service provider bounded context module.
package providers

import (
	apphttp "github.com/sanjaykhatri/lead-management-backend/internal/http"
	"github.com/sanjaykhatri/lead-management-backend/internal/providers/handler"
	"github.com/sanjaykhatri/lead-management-backend/internal/providers/repository"
	"github.com/sanjaykhatri/lead-management-backend/internal/providers/service"
	"github.com/sanjaykhatri/lead-management-backend/platform/logger"
	"github.com/sanjaykhatri/lead-management-backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the providers bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the providers module.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, val, log)
	return &Module{
		handler: handler.New(svc),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "providers"
}

// Service returns the providers service for use by other modules.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts provider routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterAdminRoutes(ctx.Admin.Group("/providers"))
	m.handler.RegisterProviderRoutes(ctx.Provider.Group("/profile"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
