package service

import (
	"context"
	"testing"
	"time"

	"github.com/sanjaykhatri/lead-management-backend/internal/billing/processor"
	"github.com/sanjaykhatri/lead-management-backend/internal/billing/repository"
	"github.com/sanjaykhatri/lead-management-backend/internal/events"
	"github.com/sanjaykhatri/lead-management-backend/platform/apperr"
	"github.com/sanjaykhatri/lead-management-backend/platform/logger"

	"github.com/google/uuid"
)

var (
	providerID = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	basicPlan  = repository.Plan{
		ID:               uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000001"),
		Name:             "Basic",
		ProcessorPriceID: "price_basic",
		Price:            49,
		BillingInterval:  "monthly",
		IsActive:         true,
	}
	proPlan = repository.Plan{
		ID:               uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000002"),
		Name:             "Pro",
		ProcessorPriceID: "price_pro",
		Price:            99,
		BillingInterval:  "monthly",
		TrialDays:        14,
		IsActive:         true,
	}
	retiredPlan = repository.Plan{
		ID:               uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000003"),
		Name:             "Legacy",
		ProcessorPriceID: "price_legacy",
		Price:            29,
		BillingInterval:  "monthly",
		IsActive:         false,
	}
)

// ---- fakes ----

type fakeStore struct {
	plans         map[uuid.UUID]repository.Plan
	subscriptions map[uuid.UUID]repository.Subscription
	history       []repository.HistoryParams
}

func newFakeStore(plans ...repository.Plan) *fakeStore {
	s := &fakeStore{
		plans:         make(map[uuid.UUID]repository.Plan),
		subscriptions: make(map[uuid.UUID]repository.Subscription),
	}
	for _, p := range plans {
		s.plans[p.ID] = p
	}
	return s
}

func (s *fakeStore) CreatePlan(_ context.Context, params repository.PlanParams) (repository.Plan, error) {
	for _, p := range s.plans {
		if p.ProcessorPriceID == params.ProcessorPriceID {
			return repository.Plan{}, repository.ErrPriceIDTaken
		}
	}
	plan := repository.Plan{
		ID:               uuid.New(),
		Name:             params.Name,
		ProcessorPriceID: params.ProcessorPriceID,
		Price:            params.Price,
		BillingInterval:  params.BillingInterval,
		TrialDays:        params.TrialDays,
		Features:         params.Features,
		IsActive:         params.IsActive,
		SortOrder:        params.SortOrder,
	}
	s.plans[plan.ID] = plan
	return plan, nil
}

func (s *fakeStore) UpdatePlan(_ context.Context, id uuid.UUID, params repository.PlanParams) (repository.Plan, error) {
	plan, ok := s.plans[id]
	if !ok {
		return repository.Plan{}, repository.ErrPlanNotFound
	}
	plan.Name = params.Name
	plan.ProcessorPriceID = params.ProcessorPriceID
	plan.Price = params.Price
	plan.IsActive = params.IsActive
	s.plans[id] = plan
	return plan, nil
}

func (s *fakeStore) DeletePlan(_ context.Context, id uuid.UUID) error {
	if _, ok := s.plans[id]; !ok {
		return repository.ErrPlanNotFound
	}
	for _, sub := range s.subscriptions {
		if sub.PlanID != nil && *sub.PlanID == id {
			return repository.ErrPlanInUse
		}
	}
	delete(s.plans, id)
	return nil
}

func (s *fakeStore) GetPlan(_ context.Context, id uuid.UUID) (repository.Plan, error) {
	plan, ok := s.plans[id]
	if !ok {
		return repository.Plan{}, repository.ErrPlanNotFound
	}
	return plan, nil
}

func (s *fakeStore) GetPlanByPriceID(_ context.Context, priceID string) (repository.Plan, error) {
	for _, p := range s.plans {
		if p.ProcessorPriceID == priceID {
			return p, nil
		}
	}
	return repository.Plan{}, repository.ErrPlanNotFound
}

func (s *fakeStore) ListPlans(_ context.Context, activeOnly bool) ([]repository.Plan, error) {
	out := make([]repository.Plan, 0, len(s.plans))
	for _, p := range s.plans {
		if activeOnly && !p.IsActive {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *fakeStore) UpsertSubscription(_ context.Context, params repository.UpsertSubscriptionParams) (repository.Subscription, error) {
	sub, ok := s.subscriptions[params.ServiceProviderID]
	if !ok {
		sub = repository.Subscription{ID: uuid.New(), ServiceProviderID: params.ServiceProviderID}
	}
	sub.ProcessorCustomerID = params.ProcessorCustomerID
	sub.ProcessorSubscriptionID = params.ProcessorSubscriptionID
	sub.Status = params.Status
	sub.PlanID = params.PlanID
	sub.CurrentPeriodEnd = params.CurrentPeriodEnd
	sub.TrialEndsAt = params.TrialEndsAt
	s.subscriptions[params.ServiceProviderID] = sub
	return sub, nil
}

func (s *fakeStore) GetSubscriptionByProvider(_ context.Context, id uuid.UUID) (repository.Subscription, error) {
	sub, ok := s.subscriptions[id]
	if !ok {
		return repository.Subscription{}, repository.ErrSubscriptionNotFound
	}
	return sub, nil
}

func (s *fakeStore) GetSubscriptionByCustomer(_ context.Context, customerID string) (repository.Subscription, error) {
	for _, sub := range s.subscriptions {
		if sub.ProcessorCustomerID == customerID {
			return sub, nil
		}
	}
	return repository.Subscription{}, repository.ErrSubscriptionNotFound
}

func (s *fakeStore) AppendHistory(_ context.Context, params repository.HistoryParams) error {
	s.history = append(s.history, params)
	return nil
}

func (s *fakeStore) ListHistory(_ context.Context, id uuid.UUID, _ int) ([]repository.HistoryEntry, error) {
	out := make([]repository.HistoryEntry, 0)
	for _, h := range s.history {
		if h.ServiceProviderID == id {
			out = append(out, repository.HistoryEntry{EventType: h.EventType, Status: h.Status})
		}
	}
	return out, nil
}

type fakeClient struct {
	customers     []processor.CustomerParams
	checkouts     []processor.CheckoutParams
	customerSubs  map[string][]processor.Subscription
	canceled      []string
	changed       map[string]string
	changeResult  processor.Subscription
	remote        map[string]processor.Subscription
	settledInvIDs []string
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		customerSubs: make(map[string][]processor.Subscription),
		changed:      make(map[string]string),
		remote:       make(map[string]processor.Subscription),
	}
}

func (c *fakeClient) CreateCustomer(_ context.Context, params processor.CustomerParams) (string, error) {
	c.customers = append(c.customers, params)
	return "cus_new", nil
}

func (c *fakeClient) CreateCheckoutSession(_ context.Context, params processor.CheckoutParams) (processor.CheckoutSession, error) {
	c.checkouts = append(c.checkouts, params)
	return processor.CheckoutSession{ID: "cs_1", URL: "https://checkout.example/cs_1"}, nil
}

func (c *fakeClient) CreateBillingPortalSession(_ context.Context, customerID, _ string) (string, error) {
	return "https://portal.example.processor/" + customerID, nil
}

func (c *fakeClient) GetSubscription(_ context.Context, id string) (processor.Subscription, error) {
	return c.remote[id], nil
}

func (c *fakeClient) ListCustomerSubscriptions(_ context.Context, customerID string) ([]processor.Subscription, error) {
	return c.customerSubs[customerID], nil
}

func (c *fakeClient) CancelSubscription(_ context.Context, id string) error {
	c.canceled = append(c.canceled, id)
	return nil
}

func (c *fakeClient) ChangeSubscriptionPrice(_ context.Context, id, priceID string) (processor.Subscription, error) {
	c.changed[id] = priceID
	return c.changeResult, nil
}

func (c *fakeClient) SettleOpenInvoice(_ context.Context, id string) error {
	c.settledInvIDs = append(c.settledInvIDs, id)
	return nil
}

type fakeContacts struct{}

func (fakeContacts) ProviderContact(context.Context, uuid.UUID) (string, string, error) {
	return "Austin Roofing Co", "billing@austinroofing.example", nil
}

type recordingBus struct {
	published []events.Event
}

func (b *recordingBus) Publish(_ context.Context, event events.Event) {
	b.published = append(b.published, event)
}
func (b *recordingBus) PublishSync(_ context.Context, event events.Event) error {
	b.published = append(b.published, event)
	return nil
}
func (b *recordingBus) Subscribe(string, events.Handler) {}

type testConfig struct {
	secret string
}

func (c testConfig) GetBillingAPIBaseURL() string            { return "https://api.processor.example" }
func (c testConfig) GetBillingSecretKey() string             { return c.secret }
func (c testConfig) GetBillingWebhookSecret() string         { return "whsec_test" }
func (c testConfig) GetBillingRequestTimeout() time.Duration { return time.Second }
func (c testConfig) GetFrontendURL() string                  { return "https://portal.example" }
func (c testConfig) IsBillingEnabled() bool                  { return c.secret != "" }

func newTestService(store *fakeStore, client *fakeClient) (*Service, *recordingBus) {
	bus := &recordingBus{}
	svc := New(store, client, fakeContacts{}, bus, testConfig{secret: "sk_test"}, logger.New("development"))
	return svc, bus
}

func activeSubscription(subID, customerID string, planID uuid.UUID) repository.Subscription {
	end := time.Now().Add(20 * 24 * time.Hour)
	return repository.Subscription{
		ID:                      uuid.New(),
		ServiceProviderID:       providerID,
		ProcessorCustomerID:     customerID,
		ProcessorSubscriptionID: &subID,
		Status:                  processor.StatusActive,
		PlanID:                  &planID,
		CurrentPeriodEnd:        &end,
	}
}

// ---- checkout ----

func TestCreateCheckout(t *testing.T) {
	store := newFakeStore(basicPlan, proPlan)
	client := newFakeClient()
	svc, _ := newTestService(store, client)

	session, err := svc.CreateCheckout(context.Background(), providerID, proPlan.ID)
	if err != nil {
		t.Fatalf("CreateCheckout: %v", err)
	}
	if session.URL == "" {
		t.Error("no checkout URL returned")
	}
	if len(client.checkouts) != 1 {
		t.Fatalf("checkouts = %d, want 1", len(client.checkouts))
	}
	params := client.checkouts[0]
	if params.PriceID != "price_pro" || params.TrialDays != 14 {
		t.Errorf("checkout params = %+v", params)
	}
	if params.Metadata["provider_id"] != providerID.String() {
		t.Error("provider_id metadata missing; webhooks cannot resolve the provider")
	}
	if params.SuccessURL != "https://portal.example/billing/success?session_id={CHECKOUT_SESSION_ID}" {
		t.Errorf("successURL = %q", params.SuccessURL)
	}

	if len(client.customers) != 1 || params.CustomerID != "cus_new" {
		t.Errorf("customers = %+v, checkout customer = %q", client.customers, params.CustomerID)
	}
	intent := store.subscriptions[providerID]
	if intent.Status != processor.StatusIncomplete || intent.PlanID == nil || *intent.PlanID != proPlan.ID {
		t.Errorf("checkout intent = %+v, want incomplete on pro plan", intent)
	}
	if intent.ProcessorCustomerID != "cus_new" {
		t.Errorf("customer id = %q, want cus_new", intent.ProcessorCustomerID)
	}
	if len(store.history) != 1 || store.history[0].Status != processor.StatusIncomplete {
		t.Errorf("history = %+v, want one incomplete entry", store.history)
	}
}

func TestCreateCheckoutReusesCustomerAndCancelsStrays(t *testing.T) {
	store := newFakeStore(basicPlan, proPlan)
	canceled := activeSubscription("sub_old", "cus_1", basicPlan.ID)
	canceled.Status = processor.StatusCanceled
	store.subscriptions[providerID] = canceled
	client := newFakeClient()
	client.customerSubs["cus_1"] = []processor.Subscription{
		{ID: "sub_stray", Status: processor.StatusTrialing},
	}
	svc, _ := newTestService(store, client)

	if _, err := svc.CreateCheckout(context.Background(), providerID, proPlan.ID); err != nil {
		t.Fatalf("CreateCheckout: %v", err)
	}
	if len(client.customers) != 0 {
		t.Errorf("customers = %+v, want existing cus_1 reused", client.customers)
	}
	if client.checkouts[0].CustomerID != "cus_1" {
		t.Errorf("checkout customer = %q, want cus_1", client.checkouts[0].CustomerID)
	}
	if len(client.canceled) != 1 || client.canceled[0] != "sub_stray" {
		t.Errorf("canceled = %v, want [sub_stray]", client.canceled)
	}
	if got := store.subscriptions[providerID]; got.Status != processor.StatusIncomplete || got.ProcessorSubscriptionID != nil {
		t.Errorf("intent = %+v, want incomplete with no subscription id", got)
	}
}

func TestCreateCheckoutRejectsLiveSubscription(t *testing.T) {
	store := newFakeStore(basicPlan, proPlan)
	store.subscriptions[providerID] = activeSubscription("sub_1", "cus_1", basicPlan.ID)
	svc, _ := newTestService(store, newFakeClient())

	_, err := svc.CreateCheckout(context.Background(), providerID, proPlan.ID)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("err = %v, want conflict", err)
	}
}

func TestCreateCheckoutRejectsRetiredPlan(t *testing.T) {
	store := newFakeStore(retiredPlan)
	svc, _ := newTestService(store, newFakeClient())

	_, err := svc.CreateCheckout(context.Background(), providerID, retiredPlan.ID)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("err = %v, want conflict", err)
	}
}

func TestCreateCheckoutBillingDisabled(t *testing.T) {
	store := newFakeStore(basicPlan)
	bus := &recordingBus{}
	svc := New(store, newFakeClient(), fakeContacts{}, bus, testConfig{}, logger.New("development"))

	_, err := svc.CreateCheckout(context.Background(), providerID, basicPlan.ID)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("err = %v, want conflict", err)
	}
}

// ---- webhook reconciliation ----

func webhookEvent(eventType, subID, status string, planID uuid.UUID) processor.WebhookEvent {
	return processor.WebhookEvent{
		ID:   "evt_" + subID + "_" + status,
		Type: eventType,
		Subscription: processor.Subscription{
			ID:         subID,
			CustomerID: "cus_1",
			Status:     status,
			PriceID:    "price_pro",
			Metadata: map[string]string{
				"provider_id": providerID.String(),
				"plan_id":     planID.String(),
			},
		},
	}
}

func TestHandleProcessorEventActivation(t *testing.T) {
	store := newFakeStore(basicPlan, proPlan)
	svc, bus := newTestService(store, newFakeClient())

	event := webhookEvent(processor.EventSubscriptionCreated, "sub_1", processor.StatusActive, proPlan.ID)
	if err := svc.HandleProcessorEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleProcessorEvent: %v", err)
	}

	sub := store.subscriptions[providerID]
	if sub.Status != processor.StatusActive {
		t.Errorf("status = %q, want active", sub.Status)
	}
	if sub.PlanID == nil || *sub.PlanID != proPlan.ID {
		t.Errorf("planID = %v, want %v", sub.PlanID, proPlan.ID)
	}
	if len(store.history) != 1 || store.history[0].EventType != repository.HistoryCreated {
		t.Errorf("history = %+v, want one created entry", store.history)
	}
	if len(bus.published) != 1 {
		t.Fatalf("published = %d events, want 1", len(bus.published))
	}
	changed := bus.published[0].(events.SubscriptionChanged)
	if changed.NewStatus != processor.StatusActive || changed.EventType != repository.HistoryCreated {
		t.Errorf("event = %+v", changed)
	}
}

func TestHandleProcessorEventReplayIsIdempotent(t *testing.T) {
	store := newFakeStore(basicPlan, proPlan)
	svc, bus := newTestService(store, newFakeClient())

	event := webhookEvent(processor.EventSubscriptionCreated, "sub_1", processor.StatusActive, proPlan.ID)
	for i := 0; i < 3; i++ {
		if err := svc.HandleProcessorEvent(context.Background(), event); err != nil {
			t.Fatalf("replay %d: %v", i, err)
		}
	}

	if len(store.subscriptions) != 1 {
		t.Errorf("subscriptions = %d, want 1", len(store.subscriptions))
	}
	if len(store.history) != 1 {
		t.Errorf("history = %d entries, want 1", len(store.history))
	}
	if len(bus.published) != 1 {
		t.Errorf("published = %d events, want 1", len(bus.published))
	}
}

func TestHandleProcessorEventDeleted(t *testing.T) {
	store := newFakeStore(proPlan)
	store.subscriptions[providerID] = activeSubscription("sub_1", "cus_1", proPlan.ID)
	svc, _ := newTestService(store, newFakeClient())

	event := webhookEvent(processor.EventSubscriptionDeleted, "sub_1", processor.StatusActive, proPlan.ID)
	if err := svc.HandleProcessorEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleProcessorEvent: %v", err)
	}

	if got := store.subscriptions[providerID].Status; got != processor.StatusCanceled {
		t.Errorf("status = %q, want canceled", got)
	}
	if len(store.history) != 1 || store.history[0].EventType != repository.HistoryCanceled {
		t.Errorf("history = %+v, want one canceled entry", store.history)
	}
}

func TestHandleProcessorEventUnknownStatus(t *testing.T) {
	store := newFakeStore(proPlan)
	svc, _ := newTestService(store, newFakeClient())

	event := webhookEvent(processor.EventSubscriptionUpdated, "sub_1", "paused", proPlan.ID)
	if err := svc.HandleProcessorEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleProcessorEvent: %v", err)
	}
	if got := store.subscriptions[providerID].Status; got != processor.StatusIncomplete {
		t.Errorf("status = %q, want incomplete", got)
	}
}

func TestHandleProcessorEventUnresolvableProvider(t *testing.T) {
	store := newFakeStore(proPlan)
	svc, bus := newTestService(store, newFakeClient())

	event := processor.WebhookEvent{
		ID:   "evt_orphan",
		Type: processor.EventSubscriptionUpdated,
		Subscription: processor.Subscription{
			ID: "sub_orphan", CustomerID: "cus_unknown", Status: processor.StatusActive,
		},
	}
	if err := svc.HandleProcessorEvent(context.Background(), event); err != nil {
		t.Fatalf("unresolvable provider should be acknowledged, got %v", err)
	}
	if len(store.subscriptions) != 0 || len(bus.published) != 0 {
		t.Error("orphan event mutated state")
	}
}

func TestHandleProcessorEventResolvesByCustomer(t *testing.T) {
	store := newFakeStore(proPlan)
	store.subscriptions[providerID] = activeSubscription("sub_1", "cus_1", proPlan.ID)
	svc, _ := newTestService(store, newFakeClient())

	// No metadata: resolution falls back to the known customer id.
	event := processor.WebhookEvent{
		ID:   "evt_pastdue",
		Type: processor.EventSubscriptionUpdated,
		Subscription: processor.Subscription{
			ID: "sub_1", CustomerID: "cus_1", Status: processor.StatusPastDue, PriceID: "price_pro",
		},
	}
	if err := svc.HandleProcessorEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleProcessorEvent: %v", err)
	}
	if got := store.subscriptions[providerID].Status; got != processor.StatusPastDue {
		t.Errorf("status = %q, want past_due", got)
	}
}

func TestHandleProcessorEventIgnoresUnrelatedTypes(t *testing.T) {
	store := newFakeStore(proPlan)
	svc, bus := newTestService(store, newFakeClient())

	event := processor.WebhookEvent{ID: "evt_inv", Type: "invoice.paid"}
	if err := svc.HandleProcessorEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleProcessorEvent: %v", err)
	}
	if len(store.subscriptions) != 0 || len(bus.published) != 0 {
		t.Error("unrelated event mutated state")
	}
}

func TestEnforceSingleActiveCancelsStrays(t *testing.T) {
	store := newFakeStore(proPlan)
	client := newFakeClient()
	client.customerSubs["cus_1"] = []processor.Subscription{
		{ID: "sub_new", Status: processor.StatusActive},
		{ID: "sub_stray", Status: processor.StatusActive},
		{ID: "sub_old", Status: processor.StatusCanceled},
	}
	svc, _ := newTestService(store, client)

	event := webhookEvent(processor.EventSubscriptionCreated, "sub_new", processor.StatusActive, proPlan.ID)
	if err := svc.HandleProcessorEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleProcessorEvent: %v", err)
	}

	if len(client.canceled) != 1 || client.canceled[0] != "sub_stray" {
		t.Errorf("canceled = %v, want [sub_stray]", client.canceled)
	}
}

// ---- plan change / cancel ----

func TestChangePlanUpgrade(t *testing.T) {
	store := newFakeStore(basicPlan, proPlan)
	store.subscriptions[providerID] = activeSubscription("sub_1", "cus_1", basicPlan.ID)
	client := newFakeClient()
	client.changeResult = processor.Subscription{ID: "sub_1", Status: processor.StatusActive}
	client.remote["sub_1"] = processor.Subscription{
		ID:                 "sub_1",
		Status:             processor.StatusActive,
		CurrentPeriodStart: time.Now().Add(-15 * 24 * time.Hour),
		CurrentPeriodEnd:   time.Now().Add(15 * 24 * time.Hour),
	}
	svc, bus := newTestService(store, client)

	sub, err := svc.ChangePlan(context.Background(), providerID, proPlan.ID)
	if err != nil {
		t.Fatalf("ChangePlan: %v", err)
	}
	if sub.PlanID == nil || *sub.PlanID != proPlan.ID {
		t.Errorf("planID = %v, want %v", sub.PlanID, proPlan.ID)
	}
	if client.changed["sub_1"] != "price_pro" {
		t.Errorf("processor price change = %v", client.changed)
	}
	if len(client.settledInvIDs) != 1 {
		t.Error("plan change should settle the open invoice")
	}
	if len(store.history) != 1 || store.history[0].EventType != repository.HistoryUpgraded {
		t.Errorf("history = %+v, want one upgraded entry", store.history)
	}
	if got := store.history[0].Metadata["prorationCredit"]; got != 24.5 {
		t.Errorf("prorationCredit = %v, want 24.5 (half of the basic price)", got)
	}
	if len(bus.published) != 1 {
		t.Errorf("published = %d events, want 1", len(bus.published))
	}
}

func TestChangePlanDowngradeHistoryType(t *testing.T) {
	store := newFakeStore(basicPlan, proPlan)
	store.subscriptions[providerID] = activeSubscription("sub_1", "cus_1", proPlan.ID)
	client := newFakeClient()
	client.changeResult = processor.Subscription{ID: "sub_1", Status: processor.StatusActive}
	svc, _ := newTestService(store, client)

	if _, err := svc.ChangePlan(context.Background(), providerID, basicPlan.ID); err != nil {
		t.Fatalf("ChangePlan: %v", err)
	}
	if len(store.history) != 1 || store.history[0].EventType != repository.HistoryDowngraded {
		t.Errorf("history = %+v, want one downgraded entry", store.history)
	}
}

func TestChangePlanRejectsSamePlan(t *testing.T) {
	store := newFakeStore(basicPlan, proPlan)
	store.subscriptions[providerID] = activeSubscription("sub_1", "cus_1", proPlan.ID)
	svc, _ := newTestService(store, newFakeClient())

	_, err := svc.ChangePlan(context.Background(), providerID, proPlan.ID)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("err = %v, want conflict", err)
	}
}

func TestChangePlanRequiresLiveSubscription(t *testing.T) {
	store := newFakeStore(basicPlan, proPlan)
	sub := activeSubscription("sub_1", "cus_1", basicPlan.ID)
	sub.Status = processor.StatusCanceled
	store.subscriptions[providerID] = sub
	svc, _ := newTestService(store, newFakeClient())

	_, err := svc.ChangePlan(context.Background(), providerID, proPlan.ID)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("err = %v, want conflict", err)
	}
}

func TestCancel(t *testing.T) {
	store := newFakeStore(proPlan)
	store.subscriptions[providerID] = activeSubscription("sub_1", "cus_1", proPlan.ID)
	client := newFakeClient()
	svc, bus := newTestService(store, client)

	sub, err := svc.Cancel(context.Background(), providerID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if sub.Status != processor.StatusCanceled {
		t.Errorf("status = %q, want canceled", sub.Status)
	}
	if len(client.canceled) != 1 || client.canceled[0] != "sub_1" {
		t.Errorf("canceled = %v, want [sub_1]", client.canceled)
	}
	if len(store.history) != 1 || store.history[0].EventType != repository.HistoryCanceled {
		t.Errorf("history = %+v", store.history)
	}
	if len(bus.published) != 1 {
		t.Errorf("published = %d events, want 1", len(bus.published))
	}
}

func TestCancelWithoutSubscription(t *testing.T) {
	svc, _ := newTestService(newFakeStore(proPlan), newFakeClient())

	_, err := svc.Cancel(context.Background(), providerID)
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestBillingPortalURL(t *testing.T) {
	store := newFakeStore(basicPlan)
	store.subscriptions[providerID] = activeSubscription("sub_1", "cus_1", basicPlan.ID)
	svc, _ := newTestService(store, newFakeClient())

	url, err := svc.BillingPortalURL(context.Background(), providerID)
	if err != nil {
		t.Fatalf("BillingPortalURL: %v", err)
	}
	if url != "https://portal.example.processor/cus_1" {
		t.Errorf("url = %q", url)
	}
}

func TestBillingPortalURLWithoutCustomer(t *testing.T) {
	svc, _ := newTestService(newFakeStore(basicPlan), newFakeClient())

	_, err := svc.BillingPortalURL(context.Background(), providerID)
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

// ---- proration ----

func TestProrationCredit(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	day := 24 * time.Hour

	tests := []struct {
		name        string
		price       float64
		periodStart time.Time
		periodEnd   time.Time
		want        float64
	}{
		{"half the period remaining", 100, now.Add(-15 * day), now.Add(15 * day), 50},
		{"quarter of a long period", 100, now.Add(-270 * day), now.Add(90 * day), 25},
		{"period already ended", 100, now.Add(-30 * day), now.Add(-time.Hour), 0},
		{"free plan", 0, now.Add(-15 * day), now.Add(15 * day), 0},
		{"clock before period start clamps", 100, now.Add(day), now.Add(31 * day), 100},
		{"degenerate period", 100, now.Add(15 * day), now.Add(15 * day), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ProrationCredit(tt.price, tt.periodStart, tt.periodEnd, now)
			if got != tt.want {
				t.Errorf("ProrationCredit() = %v, want %v", got, tt.want)
			}
		})
	}
}

// ---- plan admin ----

func TestCreatePlanValidation(t *testing.T) {
	svc, _ := newTestService(newFakeStore(), newFakeClient())

	tests := []struct {
		name  string
		input PlanInput
	}{
		{"missing name", PlanInput{ProcessorPriceID: "price_x", BillingInterval: "monthly"}},
		{"missing price id", PlanInput{Name: "X", BillingInterval: "monthly"}},
		{"negative price", PlanInput{Name: "X", ProcessorPriceID: "price_x", Price: -1, BillingInterval: "monthly"}},
		{"bad interval", PlanInput{Name: "X", ProcessorPriceID: "price_x", BillingInterval: "weekly"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.CreatePlan(context.Background(), tt.input); !apperr.Is(err, apperr.KindValidation) {
				t.Errorf("err = %v, want validation", err)
			}
		})
	}
}

func TestCreatePlanDuplicatePriceID(t *testing.T) {
	svc, _ := newTestService(newFakeStore(proPlan), newFakeClient())

	_, err := svc.CreatePlan(context.Background(), PlanInput{
		Name: "Clone", ProcessorPriceID: "price_pro", Price: 99, BillingInterval: "monthly",
	})
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("err = %v, want conflict", err)
	}
}

func TestDeletePlanInUse(t *testing.T) {
	store := newFakeStore(proPlan)
	store.subscriptions[providerID] = activeSubscription("sub_1", "cus_1", proPlan.ID)
	svc, _ := newTestService(store, newFakeClient())

	if err := svc.DeletePlan(context.Background(), proPlan.ID); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("err = %v, want conflict", err)
	}
}
