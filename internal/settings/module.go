// Package settings provides the application settings bounded context module.
package settings

import (
	"context"
	_ "embed"

	apphttp "github.com/sanjaykhatri/lead-management-backend/internal/http"
	"github.com/sanjaykhatri/lead-management-backend/internal/settings/cache"
	"github.com/sanjaykhatri/lead-management-backend/internal/settings/handler"
	"github.com/sanjaykhatri/lead-management-backend/internal/settings/repository"
	"github.com/sanjaykhatri/lead-management-backend/internal/settings/service"
	"github.com/sanjaykhatri/lead-management-backend/platform/config"
	"github.com/sanjaykhatri/lead-management-backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Module is the settings bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	cache   *cache.Cache
}

// NewModule wires the settings store, seeds defaults and returns the module.
func NewModule(ctx context.Context, pool *pgxpool.Pool, cfg config.SettingsCacheConfig, log *logger.Logger) (*Module, error) {
	repo := repository.New(pool)

	c, err := cache.New(cfg.GetRedisURL(), cfg.GetSettingsCacheTTL())
	if err != nil {
		// A broken cache URL should not take the service down.
		log.Warn("settings cache disabled", "error", err)
		c = nil
	}

	svc := service.New(repo, c, log)
	if err := svc.SeedDefaults(ctx, defaultsYAML); err != nil {
		return nil, err
	}

	return &Module{
		handler: handler.New(svc),
		service: svc,
		cache:   c,
	}, nil
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "settings"
}

// Service returns the settings service for use by other modules.
func (m *Module) Service() *service.Service {
	return m.service
}

// Close releases the cache connection.
func (m *Module) Close() error {
	return m.cache.Close()
}

// RegisterRoutes mounts settings routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Admin.Group("/settings"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
