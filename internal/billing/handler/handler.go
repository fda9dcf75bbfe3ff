// Package handler exposes the billing endpoints: the provider self-service
// surface, admin plan management, and the processor webhook.
package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/sanjaykhatri/lead-management-backend/internal/billing/processor"
	"github.com/sanjaykhatri/lead-management-backend/internal/billing/service"
	"github.com/sanjaykhatri/lead-management-backend/internal/billing/transport"
	"github.com/sanjaykhatri/lead-management-backend/platform/config"
	"github.com/sanjaykhatri/lead-management-backend/platform/httpkit"
	"github.com/sanjaykhatri/lead-management-backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// maxWebhookBody bounds how much of a webhook payload we read.
const maxWebhookBody = 1 << 20

// signatureHeader carries the processor's webhook signature.
const signatureHeader = "Processor-Signature"

type Handler struct {
	service *service.Service
	cfg     config.BillingConfig
	logger  *logger.Logger
}

func New(svc *service.Service, cfg config.BillingConfig, log *logger.Logger) *Handler {
	return &Handler{service: svc, cfg: cfg, logger: log}
}

// RegisterPublicRoutes mounts the webhook and the plan listing. The webhook
// authenticates with its signature, not a bearer token.
func (h *Handler) RegisterPublicRoutes(group *gin.RouterGroup) {
	group.POST("/webhook", h.Webhook)
	group.GET("/plans", h.ListPublicPlans)
}

// RegisterProviderRoutes mounts the provider self-service endpoints.
func (h *Handler) RegisterProviderRoutes(group *gin.RouterGroup) {
	group.POST("/checkout", h.CreateCheckout)
	group.GET("/subscription", h.Subscription)
	group.GET("/history", h.History)
	group.POST("/change-plan", h.ChangePlan)
	group.POST("/cancel", h.Cancel)
	group.POST("/portal", h.BillingPortal)
}

// RegisterAdminRoutes mounts plan management.
func (h *Handler) RegisterAdminRoutes(group *gin.RouterGroup) {
	group.GET("/plans", h.ListPlans)
	group.POST("/plans", h.CreatePlan)
	group.GET("/plans/:id", h.GetPlan)
	group.PUT("/plans/:id", h.UpdatePlan)
	group.DELETE("/plans/:id", h.DeletePlan)
}

func requireProvider(c *gin.Context) (uuid.UUID, bool) {
	actor, ok := httpkit.ActorFromContext(c)
	if !ok || actor.Kind != httpkit.ActorProvider {
		httpkit.Error(c, http.StatusForbidden, "provider account required", nil)
		return uuid.Nil, false
	}
	return actor.ID, true
}

func parseParamID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid id", nil)
		return uuid.Nil, false
	}
	return id, true
}

// Webhook handles POST /api/v1/billing/webhook. Once the signature verifies
// we acknowledge with 200 whatever happens downstream; the processor only
// retries transport-level failures, and a replay is harmless because the
// reconciler is idempotent.
func (h *Handler) Webhook(c *gin.Context) {
	secret := h.cfg.GetBillingWebhookSecret()
	if secret == "" {
		httpkit.Error(c, http.StatusServiceUnavailable, "webhook not configured", nil)
		return
	}

	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "unreadable payload", nil)
		return
	}

	event, err := processor.ParseWebhook(payload, c.GetHeader(signatureHeader), secret)
	if err != nil {
		if errors.Is(err, processor.ErrInvalidSignature) {
			h.logger.Warn("webhook signature rejected", "ip", c.ClientIP())
			httpkit.Error(c, http.StatusBadRequest, "invalid signature", nil)
			return
		}
		httpkit.Error(c, http.StatusBadRequest, "malformed payload", nil)
		return
	}

	if err := h.service.HandleProcessorEvent(c.Request.Context(), event); err != nil {
		h.logger.Error("webhook processing failed", "eventId", event.ID, "type", event.Type, "error", err)
	}
	httpkit.OK(c, gin.H{"received": true})
}

// ListPublicPlans handles GET /api/v1/billing/plans.
func (h *Handler) ListPublicPlans(c *gin.Context) {
	plans, err := h.service.ListPlans(c.Request.Context(), true)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"plans": transport.ToPublicPlanResponses(plans)})
}

// CreateCheckout handles POST /api/v1/provider/billing/checkout.
func (h *Handler) CreateCheckout(c *gin.Context) {
	providerID, ok := requireProvider(c)
	if !ok {
		return
	}
	var req transport.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	session, err := h.service.CreateCheckout(c.Request.Context(), providerID, req.PlanID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.CheckoutResponse{SessionID: session.ID, CheckoutURL: session.URL})
}

// Subscription handles GET /api/v1/provider/billing/subscription.
func (h *Handler) Subscription(c *gin.Context) {
	providerID, ok := requireProvider(c)
	if !ok {
		return
	}
	sub, err := h.service.Status(c.Request.Context(), providerID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToSubscriptionResponse(sub))
}

// History handles GET /api/v1/provider/billing/history.
func (h *Handler) History(c *gin.Context) {
	providerID, ok := requireProvider(c)
	if !ok {
		return
	}
	entries, err := h.service.History(c.Request.Context(), providerID, 0)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"history": transport.ToHistoryResponses(entries)})
}

// ChangePlan handles POST /api/v1/provider/billing/change-plan.
func (h *Handler) ChangePlan(c *gin.Context) {
	providerID, ok := requireProvider(c)
	if !ok {
		return
	}
	var req transport.ChangePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	sub, err := h.service.ChangePlan(c.Request.Context(), providerID, req.PlanID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToSubscriptionResponse(sub))
}

// Cancel handles POST /api/v1/provider/billing/cancel.
func (h *Handler) Cancel(c *gin.Context) {
	providerID, ok := requireProvider(c)
	if !ok {
		return
	}
	sub, err := h.service.Cancel(c.Request.Context(), providerID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToSubscriptionResponse(sub))
}

// BillingPortal handles POST /api/v1/provider/billing/portal.
func (h *Handler) BillingPortal(c *gin.Context) {
	providerID, ok := requireProvider(c)
	if !ok {
		return
	}
	portalURL, err := h.service.BillingPortalURL(c.Request.Context(), providerID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"url": portalURL})
}

// ListPlans handles GET /api/v1/admin/billing/plans (retired plans included).
func (h *Handler) ListPlans(c *gin.Context) {
	plans, err := h.service.ListPlans(c.Request.Context(), false)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"plans": transport.ToPlanResponses(plans)})
}

// CreatePlan handles POST /api/v1/admin/billing/plans.
func (h *Handler) CreatePlan(c *gin.Context) {
	var req transport.PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	plan, err := h.service.CreatePlan(c.Request.Context(), planInput(req))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, transport.ToPlanResponse(plan))
}

// GetPlan handles GET /api/v1/admin/billing/plans/:id.
func (h *Handler) GetPlan(c *gin.Context) {
	id, ok := parseParamID(c, "id")
	if !ok {
		return
	}
	plan, err := h.service.GetPlan(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToPlanResponse(plan))
}

// UpdatePlan handles PUT /api/v1/admin/billing/plans/:id.
func (h *Handler) UpdatePlan(c *gin.Context) {
	id, ok := parseParamID(c, "id")
	if !ok {
		return
	}
	var req transport.PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	plan, err := h.service.UpdatePlan(c.Request.Context(), id, planInput(req))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToPlanResponse(plan))
}

// DeletePlan handles DELETE /api/v1/admin/billing/plans/:id.
func (h *Handler) DeletePlan(c *gin.Context) {
	id, ok := parseParamID(c, "id")
	if !ok {
		return
	}
	if httpkit.HandleError(c, h.service.DeletePlan(c.Request.Context(), id)) {
		return
	}
	c.Status(http.StatusNoContent)
}

func planInput(req transport.PlanRequest) service.PlanInput {
	return service.PlanInput{
		Name:             req.Name,
		ProcessorPriceID: req.ProcessorPriceID,
		Price:            req.Price,
		BillingInterval:  req.BillingInterval,
		TrialDays:        req.TrialDays,
		Features:         req.Features,
		IsActive:         req.IsActive,
		SortOrder:        req.SortOrder,
	}
}
