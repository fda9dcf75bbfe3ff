package exports

import (
	"net/http"
	"time"

	"github.com/sanjaykhatri/lead-management-backend/internal/leads/domain"
	"github.com/sanjaykhatri/lead-management-backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	service *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{service: svc}
}

func (h *Handler) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("/leads", h.ExportLeads)
}

// ExportLeads handles GET /api/v1/admin/exports/leads. With ?format=csv the
// payload streams as a file download; the default JSON envelope carries the
// CSV inline plus the archive link when storage is configured.
func (h *Handler) ExportLeads(c *gin.Context) {
	var filter Filter

	if raw := c.Query("locationId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "invalid locationId", nil)
			return
		}
		filter.LocationID = &id
	}
	if raw := c.Query("status"); raw != "" {
		status, err := domain.ParseStatus(raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, err.Error(), nil)
			return
		}
		filter.Status = &status
	}
	if raw := c.Query("from"); raw != "" {
		from, err := time.Parse(dateLayout, raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "invalid from date, expected YYYY-MM-DD", nil)
			return
		}
		filter.From = &from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := time.Parse(dateLayout, raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "invalid to date, expected YYYY-MM-DD", nil)
			return
		}
		// Inclusive end date: advance to the next midnight.
		end := to.AddDate(0, 0, 1)
		filter.To = &end
	}

	result, err := h.service.ExportLeads(c.Request.Context(), filter)
	if httpkit.HandleError(c, err) {
		return
	}

	if c.Query("format") == "csv" {
		c.Header("Content-Disposition", `attachment; filename="leads.csv"`)
		c.Data(http.StatusOK, "text/csv", []byte(result.CSV))
		return
	}

	httpkit.OK(c, gin.H{
		"csv":      result.CSV,
		"rowCount": result.RowCount,
		"archive":  result.Archive,
	})
}
