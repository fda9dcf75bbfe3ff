// Package service implements the subscription reconciler. The payment
// processor owns the truth about subscriptions; this service projects it into
// the local database from webhook events and keeps the single-active
// invariant: one provider, at most one live subscription.
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
	"github.com/sanjaykhatri/lead-management-backend/platform/config"
	"github.com/sanjaykhatri/lead-management-backend/platform/logger"

	"github.com/google/uuid"
)

// Store is the persistence surface the reconciler needs, satisfied by
// *repository.Repository.
type Store interface {
	CreatePlan(ctx context.Context, params repository.PlanParams) (repository.Plan, error)
	UpdatePlan(ctx context.Context, id uuid.UUID, params repository.PlanParams) (repository.Plan, error)
	DeletePlan(ctx context.Context, id uuid.UUID) error
	GetPlan(ctx context.Context, id uuid.UUID) (repository.Plan, error)
	GetPlanByPriceID(ctx context.Context, priceID string) (repository.Plan, error)
	ListPlans(ctx context.Context, activeOnly bool) ([]repository.Plan, error)
	UpsertSubscription(ctx context.Context, params repository.UpsertSubscriptionParams) (repository.Subscription, error)
	GetSubscriptionByProvider(ctx context.Context, providerID uuid.UUID) (repository.Subscription, error)
	GetSubscriptionByCustomer(ctx context.Context, customerID string) (repository.Subscription, error)
	AppendHistory(ctx context.Context, params repository.HistoryParams) error
	ListHistory(ctx context.Context, providerID uuid.UUID, limit int) ([]repository.HistoryEntry, error)
}

// ProviderContacts resolves checkout contact details.
type ProviderContacts interface {
	ProviderContact(ctx context.Context, id uuid.UUID) (name, email string, err error)
}

type Service struct {
	store     Store
	client    processor.Client
	providers ProviderContacts
	bus       events.Bus
	cfg       config.BillingConfig
	logger    *logger.Logger
}

func New(store Store, client processor.Client, providers ProviderContacts, bus events.Bus, cfg config.BillingConfig, log *logger.Logger) *Service {
	return &Service{store: store, client: client, providers: providers, bus: bus, cfg: cfg, logger: log}
}

func liveStatus(status string) bool {
	return status == processor.StatusActive || status == processor.StatusTrialing
}

// CreateCheckout opens a hosted checkout session for the provider. Providers
// with a live subscription must change plans instead. The provider's customer
// record at the processor is created on first checkout and reused afterwards;
// any stray live subscription on a reused customer is canceled before the new
// intent so at most one can ever complete.
func (s *Service) CreateCheckout(ctx context.Context, providerID, planID uuid.UUID) (processor.CheckoutSession, error) {
	if !s.cfg.IsBillingEnabled() {
		return processor.CheckoutSession{}, apperr.Conflict("billing is not enabled").WithOp("billing.CreateCheckout")
	}

	plan, err := s.store.GetPlan(ctx, planID)
	if err != nil {
		if errors.Is(err, repository.ErrPlanNotFound) {
			return processor.CheckoutSession{}, apperr.NotFound("plan not found").WithOp("billing.CreateCheckout")
		}
		return processor.CheckoutSession{}, apperr.Wrap(apperr.KindInternal, "failed to load plan", err).WithOp("billing.CreateCheckout")
	}
	if !plan.IsActive {
		return processor.CheckoutSession{}, apperr.Conflict("plan is no longer offered").WithOp("billing.CreateCheckout")
	}

	var customerID string
	existing, err := s.store.GetSubscriptionByProvider(ctx, providerID)
	switch {
	case err == nil:
		if liveStatus(existing.Status) {
			return processor.CheckoutSession{}, apperr.Conflict("provider already has an active subscription").WithOp("billing.CreateCheckout")
		}
		customerID = existing.ProcessorCustomerID
	case !errors.Is(err, repository.ErrSubscriptionNotFound):
		return processor.CheckoutSession{}, apperr.Wrap(apperr.KindInternal, "failed to load subscription", err).WithOp("billing.CreateCheckout")
	}

	name, email, err := s.providers.ProviderContact(ctx, providerID)
	if err != nil {
		return processor.CheckoutSession{}, apperr.NotFound("provider not found").WithOp("billing.CreateCheckout")
	}

	if customerID == "" {
		customerID, err = s.client.CreateCustomer(ctx, processor.CustomerParams{
			Email:    email,
			Name:     name,
			Metadata: map[string]string{"provider_id": providerID.String()},
		})
		if err != nil {
			return processor.CheckoutSession{}, apperr.Wrap(apperr.KindInternal, "failed to create billing customer", err).WithOp("billing.CreateCheckout")
		}
	} else {
		s.enforceSingleActive(ctx, customerID, "")
	}

	frontend := s.cfg.GetFrontendURL()
	session, err := s.client.CreateCheckoutSession(ctx, processor.CheckoutParams{
		CustomerID: customerID,
		PriceID:    plan.ProcessorPriceID,
		TrialDays:  plan.TrialDays,
		SuccessURL: frontend + "/billing/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  frontend + "/billing/plans",
		Metadata: map[string]string{
			"provider_id": providerID.String(),
			"plan_id":     plan.ID.String(),
		},
	})
	if err != nil {
		return processor.CheckoutSession{}, apperr.Wrap(apperr.KindInternal, "failed to create checkout session", err).WithOp("billing.CreateCheckout")
	}

	// Project the intent locally so the provider resolves by customer id even
	// if the completion webhook loses its metadata. The subscription id stays
	// empty until the processor reports one.
	if _, err := s.store.UpsertSubscription(ctx, repository.UpsertSubscriptionParams{
		ServiceProviderID:   providerID,
		ProcessorCustomerID: customerID,
		Status:              processor.StatusIncomplete,
		PlanID:              &plan.ID,
	}); err != nil {
		return processor.CheckoutSession{}, apperr.Wrap(apperr.KindInternal, "failed to record checkout intent", err).WithOp("billing.CreateCheckout")
	}

	description := fmt.Sprintf("Checkout started for plan %s", plan.Name)
	amount := plan.Price
	s.appendHistory(ctx, repository.HistoryParams{
		ServiceProviderID:   providerID,
		PlanID:              &plan.ID,
		ProcessorCustomerID: &customerID,
		EventType:           repository.HistoryCreated,
		Status:              processor.StatusIncomplete,
		Amount:              &amount,
		Description:         &description,
	})

	s.logger.BillingEvent("checkout session created", providerID.String(), "planId", planID.String())
	return session, nil
}

// HandleProcessorEvent projects one verified webhook event onto local state.
// It is idempotent: replaying an event that changes nothing writes no history
// and publishes nothing. Errors here are the caller's to log; the webhook
// endpoint acknowledges regardless, the processor retries on transport
// failures only.
func (s *Service) HandleProcessorEvent(ctx context.Context, event processor.WebhookEvent) error {
	switch event.Type {
	case processor.EventSubscriptionCreated, processor.EventSubscriptionUpdated, processor.EventSubscriptionDeleted:
	default:
		return nil
	}

	remote := event.Subscription
	providerID, ok := s.resolveProvider(ctx, remote)
	if !ok {
		s.logger.Warn("webhook subscription has no resolvable provider",
			"eventId", event.ID, "subscriptionId", remote.ID, "customerId", remote.CustomerID)
		return nil
	}

	newStatus := remote.Status
	if event.Type == processor.EventSubscriptionDeleted {
		newStatus = processor.StatusCanceled
	}
	if !processor.KnownStatus(newStatus) {
		newStatus = processor.StatusIncomplete
	}

	oldStatus := processor.StatusIncomplete
	var oldPlanID *uuid.UUID
	existing, err := s.store.GetSubscriptionByProvider(ctx, providerID)
	if err == nil {
		oldStatus = existing.Status
		oldPlanID = existing.PlanID
	} else if !errors.Is(err, repository.ErrSubscriptionNotFound) {
		return fmt.Errorf("load subscription: %w", err)
	}

	planID := s.resolvePlan(ctx, remote)
	if planID == nil {
		planID = oldPlanID
	}

	subID := remote.ID
	updated, err := s.store.UpsertSubscription(ctx, repository.UpsertSubscriptionParams{
		ServiceProviderID:       providerID,
		ProcessorCustomerID:     remote.CustomerID,
		ProcessorSubscriptionID: &subID,
		Status:                  newStatus,
		PlanID:                  planID,
		CurrentPeriodEnd:        periodEnd(remote),
		TrialEndsAt:             remote.TrialEnd,
	})
	if err != nil {
		return fmt.Errorf("upsert subscription: %w", err)
	}

	if liveStatus(newStatus) {
		s.enforceSingleActive(ctx, remote.CustomerID, remote.ID)
	}

	// Nothing changed: a replayed event. Skip history and events.
	if oldStatus == newStatus && samePlan(oldPlanID, planID) {
		return nil
	}

	historyType := repository.HistoryUpdated
	switch {
	case event.Type == processor.EventSubscriptionDeleted:
		historyType = repository.HistoryCanceled
	case oldStatus == processor.StatusIncomplete && newStatus == processor.StatusActive:
		historyType = repository.HistoryCreated
	}

	description := fmt.Sprintf("Subscription %s (%s -> %s)", historyType, oldStatus, newStatus)
	s.appendHistory(ctx, repository.HistoryParams{
		ServiceProviderID:       providerID,
		PlanID:                  planID,
		ProcessorSubscriptionID: updated.ProcessorSubscriptionID,
		ProcessorCustomerID:     &updated.ProcessorCustomerID,
		EventType:               historyType,
		Status:                  newStatus,
		Description:             &description,
		Metadata:                map[string]any{"webhookEventId": event.ID},
	})

	s.bus.Publish(ctx, events.SubscriptionChanged{
		BaseEvent:  events.NewBaseEvent(),
		ProviderID: providerID,
		PlanID:     planID,
		EventType:  historyType,
		OldStatus:  oldStatus,
		NewStatus:  newStatus,
	})

	s.logger.BillingEvent("subscription reconciled", providerID.String(),
		"eventId", event.ID, "from", oldStatus, "to", newStatus)
	return nil
}

// resolveProvider maps a remote subscription to a local provider: the
// metadata stamped at checkout wins, falling back to the customer id of a
// previously projected subscription.
func (s *Service) resolveProvider(ctx context.Context, remote processor.Subscription) (uuid.UUID, bool) {
	if raw, ok := remote.Metadata["provider_id"]; ok {
		if id, err := uuid.Parse(raw); err == nil {
			return id, true
		}
	}
	if remote.CustomerID != "" {
		if sub, err := s.store.GetSubscriptionByCustomer(ctx, remote.CustomerID); err == nil {
			return sub.ServiceProviderID, true
		}
	}
	return uuid.Nil, false
}

func (s *Service) resolvePlan(ctx context.Context, remote processor.Subscription) *uuid.UUID {
	if raw, ok := remote.Metadata["plan_id"]; ok {
		if id, err := uuid.Parse(raw); err == nil {
			if _, err := s.store.GetPlan(ctx, id); err == nil {
				return &id
			}
		}
	}
	if remote.PriceID != "" {
		if plan, err := s.store.GetPlanByPriceID(ctx, remote.PriceID); err == nil {
			return &plan.ID
		}
	}
	return nil
}

// enforceSingleActive cancels any other live subscription on the same
// customer at the processor. Best effort: failures are logged, the next
// webhook for the stray subscription retries.
func (s *Service) enforceSingleActive(ctx context.Context, customerID, keepSubscriptionID string) {
	if customerID == "" {
		return
	}
	subs, err := s.client.ListCustomerSubscriptions(ctx, customerID)
	if err != nil {
		s.logger.Error("failed to list customer subscriptions", "customerId", customerID, "error", err)
		return
	}
	for _, sub := range subs {
		if sub.ID == keepSubscriptionID || !liveStatus(sub.Status) {
			continue
		}
		if err := s.client.CancelSubscription(ctx, sub.ID); err != nil {
			s.logger.Error("failed to cancel duplicate subscription",
				"customerId", customerID, "subscriptionId", sub.ID, "error", err)
			continue
		}
		s.logger.BillingEvent("duplicate subscription canceled", "",
			"customerId", customerID, "subscriptionId", sub.ID)
	}
}

func periodEnd(remote processor.Subscription) *time.Time {
	if remote.CurrentPeriodEnd.IsZero() {
		return nil
	}
	end := remote.CurrentPeriodEnd
	return &end
}

func samePlan(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (s *Service) appendHistory(ctx context.Context, params repository.HistoryParams) {
	if err := s.store.AppendHistory(ctx, params); err != nil {
		s.logger.Error("failed to append subscription history",
			"providerId", params.ServiceProviderID, "event", params.EventType, "error", err)
	}
}
