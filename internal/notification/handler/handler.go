// Package handler exposes the in-app notification feed endpoints.
package handler

import (
	"net/http"
	"strconv"

	"github.com/sanjaykhatri/lead-management-backend/internal/notification/inapp"
	"github.com/sanjaykhatri/lead-management-backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	inApp *inapp.Service
}

func New(inApp *inapp.Service) *Handler {
	return &Handler{inApp: inApp}
}

// RegisterRoutes mounts the feed endpoints; the actor's role decides which
// channel is read.
func (h *Handler) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("", h.List)
	group.GET("/unread-count", h.UnreadCount)
	group.POST("/:id/read", h.MarkRead)
	group.POST("/read-all", h.MarkAllRead)
}

func requireActor(c *gin.Context) (httpkit.Actor, bool) {
	actor, ok := httpkit.ActorFromContext(c)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, "authentication required", nil)
	}
	return actor, ok
}

// List handles GET /api/v1/notifications.
func (h *Handler) List(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	notifications, total, err := h.inApp.ListFor(c.Request.Context(), actor, limit, offset)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"notifications": notifications, "total": total})
}

// UnreadCount handles GET /api/v1/notifications/unread-count.
func (h *Handler) UnreadCount(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	count, err := h.inApp.UnreadFor(c.Request.Context(), actor)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"unread": count})
}

// MarkRead handles POST /api/v1/notifications/:id/read.
func (h *Handler) MarkRead(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	if httpkit.HandleError(c, h.inApp.MarkReadFor(c.Request.Context(), actor, id)) {
		return
	}
	httpkit.OK(c, gin.H{"read": true})
}

// MarkAllRead handles POST /api/v1/notifications/read-all.
func (h *Handler) MarkAllRead(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	updated, err := h.inApp.MarkAllReadFor(c.Request.Context(), actor)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"updated": updated})
}
