// Package transport contains request/response DTOs for the billing API.
package transport

import (
	"time"

	"github.com/sanjaykhatri/lead-management-backend/internal/billing/repository"

	"github.com/google/uuid"
)

// PlanRequest creates or updates a subscription plan (admin only).
type PlanRequest struct {
	Name             string   `json:"name" binding:"required,min=2,max=120"`
	ProcessorPriceID string   `json:"processorPriceId" binding:"required,max=255"`
	Price            float64  `json:"price" binding:"gte=0"`
	BillingInterval  string   `json:"billingInterval" binding:"required,oneof=monthly yearly"`
	TrialDays        int      `json:"trialDays" binding:"gte=0,lte=365"`
	Features         []string `json:"features"`
	IsActive         bool     `json:"isActive"`
	SortOrder        int      `json:"sortOrder"`
}

// CheckoutRequest starts a hosted checkout for a plan.
type CheckoutRequest struct {
	PlanID uuid.UUID `json:"planId" binding:"required"`
}

// ChangePlanRequest moves a live subscription onto another plan.
type ChangePlanRequest struct {
	PlanID uuid.UUID `json:"planId" binding:"required"`
}

// PlanResponse is the API shape of a plan.
type PlanResponse struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	ProcessorPriceID string    `json:"processorPriceId"`
	Price            float64   `json:"price"`
	BillingInterval  string    `json:"billingInterval"`
	TrialDays        int       `json:"trialDays"`
	Features         []string  `json:"features"`
	IsActive         bool      `json:"isActive"`
	SortOrder        int       `json:"sortOrder"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// PublicPlanResponse omits processor identifiers for provider-facing listings.
type PublicPlanResponse struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Price           float64   `json:"price"`
	BillingInterval string    `json:"billingInterval"`
	TrialDays       int       `json:"trialDays"`
	Features        []string  `json:"features"`
}

// CheckoutResponse carries the hosted checkout redirect.
type CheckoutResponse struct {
	SessionID   string `json:"sessionId"`
	CheckoutURL string `json:"checkoutUrl"`
}

// SubscriptionResponse is the provider-facing subscription state.
type SubscriptionResponse struct {
	ID               uuid.UUID  `json:"id"`
	Status           string     `json:"status"`
	PlanID           *uuid.UUID `json:"planId,omitempty"`
	CurrentPeriodEnd *time.Time `json:"currentPeriodEnd,omitempty"`
	TrialEndsAt      *time.Time `json:"trialEndsAt,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// HistoryResponse is one billing audit record.
type HistoryResponse struct {
	ID          uuid.UUID      `json:"id"`
	PlanID      *uuid.UUID     `json:"planId,omitempty"`
	EventType   string         `json:"eventType"`
	Status      string         `json:"status"`
	Amount      *float64       `json:"amount,omitempty"`
	Currency    string         `json:"currency"`
	Description *string        `json:"description,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	EventDate   time.Time      `json:"eventDate"`
}

func ToPlanResponse(plan repository.Plan) PlanResponse {
	return PlanResponse{
		ID:               plan.ID,
		Name:             plan.Name,
		ProcessorPriceID: plan.ProcessorPriceID,
		Price:            plan.Price,
		BillingInterval:  plan.BillingInterval,
		TrialDays:        plan.TrialDays,
		Features:         plan.Features,
		IsActive:         plan.IsActive,
		SortOrder:        plan.SortOrder,
		CreatedAt:        plan.CreatedAt,
		UpdatedAt:        plan.UpdatedAt,
	}
}

func ToPlanResponses(plans []repository.Plan) []PlanResponse {
	out := make([]PlanResponse, 0, len(plans))
	for _, plan := range plans {
		out = append(out, ToPlanResponse(plan))
	}
	return out
}

func ToPublicPlanResponses(plans []repository.Plan) []PublicPlanResponse {
	out := make([]PublicPlanResponse, 0, len(plans))
	for _, plan := range plans {
		out = append(out, PublicPlanResponse{
			ID:              plan.ID,
			Name:            plan.Name,
			Price:           plan.Price,
			BillingInterval: plan.BillingInterval,
			TrialDays:       plan.TrialDays,
			Features:        plan.Features,
		})
	}
	return out
}

func ToSubscriptionResponse(sub repository.Subscription) SubscriptionResponse {
	return SubscriptionResponse{
		ID:               sub.ID,
		Status:           sub.Status,
		PlanID:           sub.PlanID,
		CurrentPeriodEnd: sub.CurrentPeriodEnd,
		TrialEndsAt:      sub.TrialEndsAt,
		CreatedAt:        sub.CreatedAt,
		UpdatedAt:        sub.UpdatedAt,
	}
}

func ToHistoryResponses(entries []repository.HistoryEntry) []HistoryResponse {
	out := make([]HistoryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, HistoryResponse{
			ID:          e.ID,
			PlanID:      e.PlanID,
			EventType:   e.EventType,
			Status:      e.Status,
			Amount:      e.Amount,
			Currency:    e.Currency,
			Description: e.Description,
			Metadata:    e.Metadata,
			EventDate:   e.EventDate,
		})
	}
	return out
}
