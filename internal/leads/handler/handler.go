// Package handler exposes the lead endpoints: public intake plus the
// authenticated lifecycle surface shared by admins and providers.
package handler

import (
	"net/http"

	"github.com/sanjaykhatri/lead-management-backend/internal/leads/domain"
	"github.com/sanjaykhatri/lead-management-backend/internal/leads/repository"
	"github.com/sanjaykhatri/lead-management-backend/internal/leads/service"
	"github.com/sanjaykhatri/lead-management-backend/internal/leads/transport"
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

// RegisterPublicRoutes mounts the unauthenticated intake endpoint.
func (h *Handler) RegisterPublicRoutes(group *gin.RouterGroup, submitLimiter gin.HandlerFunc) {
	group.POST("", submitLimiter, h.Submit)
}

// RegisterAuthenticatedRoutes mounts the lifecycle endpoints shared by both
// roles; service-level scoping keeps providers inside their own leads.
func (h *Handler) RegisterAuthenticatedRoutes(group *gin.RouterGroup) {
	group.GET("", h.List)
	group.GET("/:id", h.Get)
	group.PATCH("/:id/status", h.ChangeStatus)
	group.GET("/:id/notes", h.ListNotes)
	group.POST("/:id/notes", h.AddNote)
	group.GET("/:id/activity", h.ListActivity)
}

// RegisterNoteRoutes mounts note editing under its own prefix to avoid
// clashing with the :id wildcard on /leads.
func (h *Handler) RegisterNoteRoutes(group *gin.RouterGroup) {
	group.PUT("/:noteId", h.UpdateNote)
	group.DELETE("/:noteId", h.DeleteNote)
}

// RegisterAdminRoutes mounts the admin-only routing controls.
func (h *Handler) RegisterAdminRoutes(group *gin.RouterGroup) {
	group.POST("/:id/reassign", h.Reassign)
}

func requireActor(c *gin.Context) (httpkit.Actor, bool) {
	actor, ok := httpkit.ActorFromContext(c)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, "authentication required", nil)
	}
	return actor, ok
}

func parseParamID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid id", nil)
		return uuid.Nil, false
	}
	return id, true
}

// Submit handles POST /api/v1/leads (public intake).
func (h *Handler) Submit(c *gin.Context) {
	var req transport.SubmitLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	lead, err := h.service.Submit(c.Request.Context(), service.SubmitInput{
		LocationID:  req.LocationID,
		Name:        req.Name,
		Phone:       req.Phone,
		Email:       req.Email,
		ZipCode:     req.ZipCode,
		ProjectType: req.ProjectType,
		Timing:      req.Timing,
		Notes:       req.Notes,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, transport.SubmitLeadResponse{
		ID:        lead.ID,
		Status:    string(lead.Status),
		CreatedAt: lead.CreatedAt,
	})
}

// List handles GET /api/v1/leads.
func (h *Handler) List(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var filter repository.ListFilter
	if raw := c.Query("locationId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "invalid locationId", nil)
			return
		}
		filter.LocationID = &id
	}
	if raw := c.Query("providerId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "invalid providerId", nil)
			return
		}
		filter.ProviderID = &id
	}
	if raw := c.Query("status"); raw != "" {
		status, err := domain.ParseStatus(raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, err.Error(), nil)
			return
		}
		filter.Status = &status
	}

	leads, err := h.service.List(c.Request.Context(), actor, filter)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"leads": transport.ToLeadResponses(leads)})
}

// Get handles GET /api/v1/leads/:id.
func (h *Handler) Get(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseParamID(c, "id")
	if !ok {
		return
	}
	lead, err := h.service.Get(c.Request.Context(), actor, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(lead))
}

// ChangeStatus handles PATCH /api/v1/leads/:id/status.
func (h *Handler) ChangeStatus(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseParamID(c, "id")
	if !ok {
		return
	}
	var req transport.ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	status, err := domain.ParseStatus(req.Status)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	lead, err := h.service.ChangeStatus(c.Request.Context(), actor, id, status)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(lead))
}

// Reassign handles POST /api/v1/admin/leads/:id/reassign.
func (h *Handler) Reassign(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseParamID(c, "id")
	if !ok {
		return
	}
	var req transport.ReassignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	lead, err := h.service.Reassign(c.Request.Context(), actor, id, req.ProviderID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(lead))
}

// ListNotes handles GET /api/v1/leads/:id/notes.
func (h *Handler) ListNotes(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseParamID(c, "id")
	if !ok {
		return
	}
	notes, err := h.service.ListNotes(c.Request.Context(), actor, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"notes": transport.ToNoteResponses(notes)})
}

// AddNote handles POST /api/v1/leads/:id/notes.
func (h *Handler) AddNote(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseParamID(c, "id")
	if !ok {
		return
	}
	var req transport.NoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	note, err := h.service.AddNote(c.Request.Context(), actor, id, req.Body)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, transport.ToNoteResponse(note))
}

// UpdateNote handles PUT /api/v1/lead-notes/:noteId.
func (h *Handler) UpdateNote(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	noteID, ok := parseParamID(c, "noteId")
	if !ok {
		return
	}
	var req transport.NoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	note, err := h.service.UpdateNote(c.Request.Context(), actor, noteID, req.Body)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToNoteResponse(note))
}

// DeleteNote handles DELETE /api/v1/lead-notes/:noteId.
func (h *Handler) DeleteNote(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	noteID, ok := parseParamID(c, "noteId")
	if !ok {
		return
	}
	if httpkit.HandleError(c, h.service.DeleteNote(c.Request.Context(), actor, noteID)) {
		return
	}
	c.Status(http.StatusNoContent)
}

// ListActivity handles GET /api/v1/leads/:id/activity.
func (h *Handler) ListActivity(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseParamID(c, "id")
	if !ok {
		return
	}
	entries, err := h.service.ListActivity(c.Request.Context(), actor, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"activity": transport.ToActivityResponses(entries)})
}
