package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sanjaykhatri/lead-management-backend/internal/billing/processor"
	"github.com/sanjaykhatri/lead-management-backend/internal/billing/repository"
	"github.com/sanjaykhatri/lead-management-backend/internal/events"
	"github.com/sanjaykhatri/lead-management-backend/platform/apperr"

	"github.com/google/uuid"
)

// ProrationCredit computes the unused portion of the current plan's price
// when switching mid-period, from the period's actual bounds. The credit is
// recorded for audit only; the processor handles actual money movement.
func ProrationCredit(price float64, periodStart, periodEnd, now time.Time) float64 {
	if price <= 0 || !periodEnd.After(now) || !periodEnd.After(periodStart) {
		return 0
	}

	total := periodEnd.Sub(periodStart)
	remaining := periodEnd.Sub(now)
	if remaining > total {
		remaining = total
	}

	credit := price * remaining.Seconds() / total.Seconds()
	// Round to cents.
	return float64(int64(credit*100+0.5)) / 100
}

// ChangePlan moves a live subscription to a different plan at the processor
// and re-projects the result locally.
func (s *Service) ChangePlan(ctx context.Context, providerID, newPlanID uuid.UUID) (repository.Subscription, error) {
	sub, err := s.store.GetSubscriptionByProvider(ctx, providerID)
	if err != nil {
		if errors.Is(err, repository.ErrSubscriptionNotFound) {
			return repository.Subscription{}, apperr.NotFound("no subscription to change").WithOp("billing.ChangePlan")
		}
		return repository.Subscription{}, apperr.Wrap(apperr.KindInternal, "failed to load subscription", err).WithOp("billing.ChangePlan")
	}
	if !liveStatus(sub.Status) || sub.ProcessorSubscriptionID == nil {
		return repository.Subscription{}, apperr.Conflict("subscription is not active").WithOp("billing.ChangePlan")
	}
	if sub.PlanID != nil && *sub.PlanID == newPlanID {
		return repository.Subscription{}, apperr.Conflict("already subscribed to this plan").WithOp("billing.ChangePlan")
	}

	newPlan, err := s.store.GetPlan(ctx, newPlanID)
	if err != nil {
		if errors.Is(err, repository.ErrPlanNotFound) {
			return repository.Subscription{}, apperr.NotFound("plan not found").WithOp("billing.ChangePlan")
		}
		return repository.Subscription{}, apperr.Wrap(apperr.KindInternal, "failed to load plan", err).WithOp("billing.ChangePlan")
	}
	if !newPlan.IsActive {
		return repository.Subscription{}, apperr.Conflict("plan is no longer offered").WithOp("billing.ChangePlan")
	}

	var oldPlan repository.Plan
	if sub.PlanID != nil {
		if plan, err := s.store.GetPlan(ctx, *sub.PlanID); err == nil {
			oldPlan = plan
		}
	}

	// The period bounds live at the processor; a failed read just zeroes the
	// audit credit.
	credit := 0.0
	if current, err := s.client.GetSubscription(ctx, *sub.ProcessorSubscriptionID); err == nil {
		credit = ProrationCredit(oldPlan.Price, current.CurrentPeriodStart, current.CurrentPeriodEnd, time.Now())
	}

	remote, err := s.client.ChangeSubscriptionPrice(ctx, *sub.ProcessorSubscriptionID, newPlan.ProcessorPriceID)
	if err != nil {
		return repository.Subscription{}, apperr.Wrap(apperr.KindInternal, "failed to change plan at processor", err).WithOp("billing.ChangePlan")
	}

	// Collect the difference now instead of waiting for the next cycle.
	// An already-open invoice collects it instead, so failure is tolerable.
	if err := s.client.SettleOpenInvoice(ctx, *sub.ProcessorSubscriptionID); err != nil {
		s.logger.Error("failed to settle plan change invoice",
			"providerId", providerID, "subscriptionId", *sub.ProcessorSubscriptionID, "error", err)
	}

	status := remote.Status
	if !processor.KnownStatus(status) {
		status = sub.Status
	}
	updated, err := s.store.UpsertSubscription(ctx, repository.UpsertSubscriptionParams{
		ServiceProviderID:       providerID,
		ProcessorCustomerID:     sub.ProcessorCustomerID,
		ProcessorSubscriptionID: sub.ProcessorSubscriptionID,
		Status:                  status,
		PlanID:                  &newPlan.ID,
		CurrentPeriodEnd:        periodEnd(remote),
		TrialEndsAt:             sub.TrialEndsAt,
	})
	if err != nil {
		return repository.Subscription{}, apperr.Wrap(apperr.KindInternal, "failed to record plan change", err).WithOp("billing.ChangePlan")
	}

	historyType := repository.HistoryUpgraded
	if newPlan.Price < oldPlan.Price {
		historyType = repository.HistoryDowngraded
	}
	description := fmt.Sprintf("Plan changed from %s to %s", planName(oldPlan), newPlan.Name)
	amount := newPlan.Price
	s.appendHistory(ctx, repository.HistoryParams{
		ServiceProviderID:       providerID,
		PlanID:                  &newPlan.ID,
		ProcessorSubscriptionID: sub.ProcessorSubscriptionID,
		ProcessorCustomerID:     &sub.ProcessorCustomerID,
		EventType:               historyType,
		Status:                  status,
		Amount:                  &amount,
		Description:             &description,
		Metadata:                map[string]any{"prorationCredit": credit},
	})

	s.bus.Publish(ctx, events.SubscriptionChanged{
		BaseEvent:  events.NewBaseEvent(),
		ProviderID: providerID,
		PlanID:     &newPlan.ID,
		EventType:  historyType,
		OldStatus:  sub.Status,
		NewStatus:  status,
	})

	s.logger.BillingEvent("plan changed", providerID.String(),
		"newPlanId", newPlanID.String(), "prorationCredit", credit)
	return updated, nil
}

// Cancel ends the provider's subscription at the processor. Local state
// updates when the deletion webhook arrives, but we project the cancellation
// immediately so the UI doesn't show a live subscription in the meantime.
func (s *Service) Cancel(ctx context.Context, providerID uuid.UUID) (repository.Subscription, error) {
	sub, err := s.store.GetSubscriptionByProvider(ctx, providerID)
	if err != nil {
		if errors.Is(err, repository.ErrSubscriptionNotFound) {
			return repository.Subscription{}, apperr.NotFound("no subscription to cancel").WithOp("billing.Cancel")
		}
		return repository.Subscription{}, apperr.Wrap(apperr.KindInternal, "failed to load subscription", err).WithOp("billing.Cancel")
	}
	if !liveStatus(sub.Status) || sub.ProcessorSubscriptionID == nil {
		return repository.Subscription{}, apperr.Conflict("subscription is not active").WithOp("billing.Cancel")
	}

	if err := s.client.CancelSubscription(ctx, *sub.ProcessorSubscriptionID); err != nil {
		return repository.Subscription{}, apperr.Wrap(apperr.KindInternal, "failed to cancel subscription", err).WithOp("billing.Cancel")
	}

	updated, err := s.store.UpsertSubscription(ctx, repository.UpsertSubscriptionParams{
		ServiceProviderID:       providerID,
		ProcessorCustomerID:     sub.ProcessorCustomerID,
		ProcessorSubscriptionID: sub.ProcessorSubscriptionID,
		Status:                  processor.StatusCanceled,
		PlanID:                  sub.PlanID,
		CurrentPeriodEnd:        sub.CurrentPeriodEnd,
		TrialEndsAt:             sub.TrialEndsAt,
	})
	if err != nil {
		return repository.Subscription{}, apperr.Wrap(apperr.KindInternal, "failed to record cancellation", err).WithOp("billing.Cancel")
	}

	description := "Subscription canceled by provider"
	s.appendHistory(ctx, repository.HistoryParams{
		ServiceProviderID:       providerID,
		PlanID:                  sub.PlanID,
		ProcessorSubscriptionID: sub.ProcessorSubscriptionID,
		ProcessorCustomerID:     &sub.ProcessorCustomerID,
		EventType:               repository.HistoryCanceled,
		Status:                  processor.StatusCanceled,
		Description:             &description,
	})
	s.bus.Publish(ctx, events.SubscriptionChanged{
		BaseEvent:  events.NewBaseEvent(),
		ProviderID: providerID,
		PlanID:     sub.PlanID,
		EventType:  repository.HistoryCanceled,
		OldStatus:  sub.Status,
		NewStatus:  processor.StatusCanceled,
	})

	s.logger.BillingEvent("subscription canceled", providerID.String())
	return updated, nil
}

// Status returns the provider's subscription, refreshing it from the
// processor best effort first. A processor outage serves the local
// projection.
func (s *Service) Status(ctx context.Context, providerID uuid.UUID) (repository.Subscription, error) {
	sub, err := s.store.GetSubscriptionByProvider(ctx, providerID)
	if err != nil {
		if errors.Is(err, repository.ErrSubscriptionNotFound) {
			return repository.Subscription{}, apperr.NotFound("no subscription").WithOp("billing.Status")
		}
		return repository.Subscription{}, apperr.Wrap(apperr.KindInternal, "failed to load subscription", err).WithOp("billing.Status")
	}
	if sub.ProcessorSubscriptionID == nil {
		return sub, nil
	}

	remote, err := s.client.GetSubscription(ctx, *sub.ProcessorSubscriptionID)
	if err != nil {
		s.logger.Warn("failed to refresh subscription from processor",
			"providerId", providerID, "error", err)
		return sub, nil
	}

	status := remote.Status
	if !processor.KnownStatus(status) {
		status = processor.StatusIncomplete
	}
	if status == sub.Status && equalTime(periodEnd(remote), sub.CurrentPeriodEnd) {
		return sub, nil
	}

	refreshed, err := s.store.UpsertSubscription(ctx, repository.UpsertSubscriptionParams{
		ServiceProviderID:       providerID,
		ProcessorCustomerID:     sub.ProcessorCustomerID,
		ProcessorSubscriptionID: sub.ProcessorSubscriptionID,
		Status:                  status,
		PlanID:                  sub.PlanID,
		CurrentPeriodEnd:        periodEnd(remote),
		TrialEndsAt:             remote.TrialEnd,
	})
	if err != nil {
		return sub, nil
	}
	return refreshed, nil
}

// BillingPortalURL opens the processor's self-service portal for the
// provider's customer record.
func (s *Service) BillingPortalURL(ctx context.Context, providerID uuid.UUID) (string, error) {
	sub, err := s.store.GetSubscriptionByProvider(ctx, providerID)
	if err != nil {
		if errors.Is(err, repository.ErrSubscriptionNotFound) {
			return "", apperr.NotFound("no billing account yet").WithOp("billing.BillingPortalURL")
		}
		return "", apperr.Wrap(apperr.KindInternal, "failed to load subscription", err).WithOp("billing.BillingPortalURL")
	}
	if sub.ProcessorCustomerID == "" {
		return "", apperr.NotFound("no billing account yet").WithOp("billing.BillingPortalURL")
	}

	portalURL, err := s.client.CreateBillingPortalSession(ctx, sub.ProcessorCustomerID, s.cfg.GetFrontendURL()+"/provider/billing")
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "failed to create billing portal session", err).WithOp("billing.BillingPortalURL")
	}
	return portalURL, nil
}

// History returns the provider's billing audit trail.
func (s *Service) History(ctx context.Context, providerID uuid.UUID, limit int) ([]repository.HistoryEntry, error) {
	entries, err := s.store.ListHistory(ctx, providerID, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list history", err).WithOp("billing.History")
	}
	return entries, nil
}

func planName(plan repository.Plan) string {
	if plan.Name == "" {
		return "no plan"
	}
	return plan.Name
}

func equalTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
