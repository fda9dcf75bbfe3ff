package analytics

import (
	"net/http"
	"strconv"

	"github.com/sanjaykhatri/lead-management-backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{service: svc}
}

func (h *Handler) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("/dashboard", h.Dashboard)
}

// Dashboard handles GET /api/v1/admin/analytics/dashboard.
func (h *Handler) Dashboard(c *gin.Context) {
	days := 0
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			httpkit.Error(c, http.StatusBadRequest, "days must be a positive integer", nil)
			return
		}
		days = parsed
	}

	dashboard, err := h.service.Dashboard(c.Request.Context(), days)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, dashboard)
}
