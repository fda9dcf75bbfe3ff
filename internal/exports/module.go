package exports

import (
	"github.com/sanjaykhatri/lead-management-backend/internal/adapters/storage"
	apphttp "github.com/sanjaykhatri/lead-management-backend/internal/http"
	"github.com/sanjaykhatri/lead-management-backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the exports bounded context module implementing http.Module.
type Module struct {
	handler *Handler
	service *Service
}

// NewModule creates the exports module. The storage service may be nil when
// MinIO is not configured; exports then return inline CSV only.
func NewModule(pool *pgxpool.Pool, store *storage.Service, log *logger.Logger) *Module {
	svc := NewService(NewRepository(pool), store, log)
	return &Module{
		handler: NewHandler(svc),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "exports"
}

// RegisterRoutes mounts the export endpoints on the admin group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Admin.Group("/exports"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
