// Package locations provides the locations bounded context module.
package locations

import (
	apphttp "github.com/sanjaykhatri/lead-management-backend/internal/http"
	"github.com/sanjaykhatri/lead-management-backend/internal/locations/handler"
	"github.com/sanjaykhatri/lead-management-backend/internal/locations/repository"
	"github.com/sanjaykhatri/lead-management-backend/internal/locations/service"
	"github.com/sanjaykhatri/lead-management-backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the locations bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the locations module.
func NewModule(pool *pgxpool.Pool, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, log)
	return &Module{
		handler: handler.New(svc),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "locations"
}

// Service returns the locations service for use by other modules.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts locations routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterAdminRoutes(ctx.Admin.Group("/locations"))
	m.handler.RegisterPublicRoutes(ctx.V1.Group("/locations"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
