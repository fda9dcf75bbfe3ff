// Package handler exposes the locations endpoints.
package handler

import (
	"net/http"

	"github.com/sanjaykhatri/lead-management-backend/internal/locations/service"
	"github.com/sanjaykhatri/lead-management-backend/internal/locations/transport"
	"github.com/sanjaykhatri/lead-management-backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	service *service.Service
}

func New(svc *service.Service) *Handler {
	return &Handler{service: svc}
}

// RegisterAdminRoutes mounts the management endpoints on the admin group.
func (h *Handler) RegisterAdminRoutes(group *gin.RouterGroup) {
	group.POST("", h.Create)
	group.GET("", h.List)
	group.GET("/:id", h.Get)
	group.PUT("/:id", h.Update)
	group.DELETE("/:id", h.Delete)
	group.GET("/:id/providers", h.ListProviders)
	group.POST("/:id/providers", h.LinkProvider)
	group.DELETE("/:id/providers/:providerId", h.UnlinkProvider)
}

// RegisterPublicRoutes mounts the unauthenticated lookup used by intake forms.
func (h *Handler) RegisterPublicRoutes(group *gin.RouterGroup) {
	group.GET("/slug/:slug", h.GetBySlug)
}

func parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid id", nil)
		return uuid.Nil, false
	}
	return id, true
}

// Create handles POST /api/v1/admin/locations.
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	location, err := h.service.Create(c.Request.Context(), service.CreateInput{
		Name:                req.Name,
		Slug:                req.Slug,
		Address:             req.Address,
		AssignmentAlgorithm: req.AssignmentAlgorithm,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, transport.ToLocationResponse(location))
}

// List handles GET /api/v1/admin/locations.
func (h *Handler) List(c *gin.Context) {
	locations, err := h.service.List(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"locations": transport.ToLocationResponses(locations)})
}

// Get handles GET /api/v1/admin/locations/:id.
func (h *Handler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	location, err := h.service.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToLocationResponse(location))
}

// GetBySlug handles GET /api/v1/locations/slug/:slug (public).
func (h *Handler) GetBySlug(c *gin.Context) {
	location, err := h.service.GetBySlug(c.Request.Context(), c.Param("slug"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToPublicLocationResponse(location))
}

// Update handles PUT /api/v1/admin/locations/:id.
func (h *Handler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req transport.UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	location, err := h.service.Update(c.Request.Context(), id, service.UpdateInput{
		Name:                req.Name,
		Slug:                req.Slug,
		Address:             req.Address,
		AssignmentAlgorithm: req.AssignmentAlgorithm,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToLocationResponse(location))
}

// Delete handles DELETE /api/v1/admin/locations/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if httpkit.HandleError(c, h.service.Delete(c.Request.Context(), id)) {
		return
	}
	c.Status(http.StatusNoContent)
}

// ListProviders handles GET /api/v1/admin/locations/:id/providers.
func (h *Handler) ListProviders(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	ids, err := h.service.LinkedProviderIDs(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"providerIds": ids})
}

// LinkProvider handles POST /api/v1/admin/locations/:id/providers.
func (h *Handler) LinkProvider(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req transport.LinkProviderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if httpkit.HandleError(c, h.service.LinkProvider(c.Request.Context(), id, req.ProviderID)) {
		return
	}
	c.Status(http.StatusNoContent)
}

// UnlinkProvider handles DELETE /api/v1/admin/locations/:id/providers/:providerId.
func (h *Handler) UnlinkProvider(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	providerID, ok := parseID(c, "providerId")
	if !ok {
		return
	}
	if httpkit.HandleError(c, h.service.UnlinkProvider(c.Request.Context(), id, providerID)) {
		return
	}
	c.Status(http.StatusNoContent)
}
