// Package handler exposes the admin settings endpoints.
package handler

import (
	"github.com/sanjaykhatri/lead-management-backend/internal/settings/repository"
	"github.com/sanjaykhatri/lead-management-backend/internal/settings/service"
	"github.com/sanjaykhatri/lead-management-backend/internal/settings/transport"
	"github.com/sanjaykhatri/lead-management-backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *service.Service
}

func New(svc *service.Service) *Handler {
	return &Handler{service: svc}
}

// RegisterRoutes mounts settings endpoints on the given (admin) route group.
func (h *Handler) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("", h.List)
	group.GET("/groups/:group", h.ListGroup)
	group.GET("/:key", h.Get)
	group.PUT("/:key", h.Update)
}

// List returns every setting, grouped ordering.
// GET /api/v1/admin/settings
func (h *Handler) List(c *gin.Context) {
	settings, err := h.service.List(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"settings": transport.ToSettingResponses(settings)})
}

// ListGroup returns the settings belonging to one group.
// GET /api/v1/admin/settings/groups/:group
func (h *Handler) ListGroup(c *gin.Context) {
	settings, err := h.service.ListByGroup(c.Request.Context(), c.Param("group"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"settings": transport.ToSettingResponses(settings)})
}

// Get returns a single setting by key.
// GET /api/v1/admin/settings/:key
func (h *Handler) Get(c *gin.Context) {
	key := c.Param("key")
	value, err := h.service.Get(c.Request.Context(), key)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"key": key, "value": value})
}

// Update creates or updates a setting by key.
// PUT /api/v1/admin/settings/:key
func (h *Handler) Update(c *gin.Context) {
	var req transport.UpdateSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, 400, "invalid request body", err.Error())
		return
	}

	setting, err := h.service.Set(c.Request.Context(), repository.UpsertParams{
		Key:         c.Param("key"),
		Value:       req.Value,
		Type:        req.Type,
		Group:       req.Group,
		Description: req.Description,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToSettingResponse(setting))
}
