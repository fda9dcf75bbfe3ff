// Package handler exposes the service provider endpoints.
package handler

import (
	"net/http"

	"github.com/sanjaykhatri/lead-management-backend/internal/providers/service"
	"github.com/sanjaykhatri/lead-management-backend/internal/providers/transport"
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
	group.POST("/:id/activate", h.Activate)
	group.POST("/:id/deactivate", h.Deactivate)
}

// RegisterProviderRoutes mounts the self-service endpoints.
func (h *Handler) RegisterProviderRoutes(group *gin.RouterGroup) {
	group.GET("/me", h.Me)
	group.PUT("/me", h.UpdateMe)
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid id", nil)
		return uuid.Nil, false
	}
	return id, true
}

// Create handles POST /api/v1/admin/providers.
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateProviderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	provider, err := h.service.Create(c.Request.Context(), service.CreateInput{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
		ZipCode: req.ZipCode,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, transport.ToProviderResponse(provider))
}

// List handles GET /api/v1/admin/providers.
func (h *Handler) List(c *gin.Context) {
	providers, err := h.service.List(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"providers": transport.ToProviderResponses(providers)})
}

// Get handles GET /api/v1/admin/providers/:id.
func (h *Handler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	provider, err := h.service.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToProviderResponse(provider))
}

// Update handles PUT /api/v1/admin/providers/:id.
func (h *Handler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.UpdateProviderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	provider, err := h.service.Update(c.Request.Context(), id, service.UpdateInput{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
		ZipCode: req.ZipCode,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToProviderResponse(provider))
}

// Activate handles POST /api/v1/admin/providers/:id/activate.
func (h *Handler) Activate(c *gin.Context) {
	h.setActive(c, true)
}

// Deactivate handles POST /api/v1/admin/providers/:id/deactivate.
func (h *Handler) Deactivate(c *gin.Context) {
	h.setActive(c, false)
}

func (h *Handler) setActive(c *gin.Context, active bool) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	provider, err := h.service.SetActive(c.Request.Context(), id, active)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToProviderResponse(provider))
}

// Me handles GET /api/v1/provider/profile/me.
func (h *Handler) Me(c *gin.Context) {
	actor, ok := httpkit.ActorFromContext(c)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, "authentication required", nil)
		return
	}
	provider, err := h.service.Get(c.Request.Context(), actor.ID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToProviderResponse(provider))
}

// UpdateMe handles PUT /api/v1/provider/profile/me.
func (h *Handler) UpdateMe(c *gin.Context) {
	actor, ok := httpkit.ActorFromContext(c)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, "authentication required", nil)
		return
	}
	var req transport.UpdateProviderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	provider, err := h.service.Update(c.Request.Context(), actor.ID, service.UpdateInput{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
		ZipCode: req.ZipCode,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToProviderResponse(provider))
}
