package analytics

import (
	apphttp "github.com/sanjaykhatri/lead-management-backend/internal/http"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the analytics bounded context module implementing http.Module.
type Module struct {
	handler *Handler
}

func NewModule(pool *pgxpool.Pool) *Module {
	return &Module{handler: NewHandler(NewService(NewRepository(pool)))}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "analytics"
}

// RegisterRoutes mounts the dashboard endpoint on the admin group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Admin.Group("/analytics"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
