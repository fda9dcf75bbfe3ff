// Package notification subscribes to domain events and fans each one out to
// the configured channels: the in-app feed, SMS, email, and the broadcast
// outbox. Domain modules publish events and never touch a delivery channel
// directly.
package notification

import (
	"context"
	"fmt"
	"html"
	"time"

	billingrepo "github.com/sanjaykhatri/lead-management-backend/internal/billing/repository"
	"github.com/sanjaykhatri/lead-management-backend/internal/email"
	"github.com/sanjaykhatri/lead-management-backend/internal/events"
	apphttp "github.com/sanjaykhatri/lead-management-backend/internal/http"
	"github.com/sanjaykhatri/lead-management-backend/internal/notification/handler"
	"github.com/sanjaykhatri/lead-management-backend/internal/notification/inapp"
	"github.com/sanjaykhatri/lead-management-backend/internal/notification/outbox"
	"github.com/sanjaykhatri/lead-management-backend/internal/notification/sms"
	providerrepo "github.com/sanjaykhatri/lead-management-backend/internal/providers/repository"
	settingssvc "github.com/sanjaykhatri/lead-management-backend/internal/settings/service"
	"github.com/sanjaykhatri/lead-management-backend/platform/httpkit"
	"github.com/sanjaykhatri/lead-management-backend/platform/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

// SettingsReader resolves the runtime notification toggles.
type SettingsReader interface {
	NotificationConfig(ctx context.Context) settingssvc.NotificationConfig
}

// ProviderReader loads provider contact details for outbound channels.
type ProviderReader interface {
	Get(ctx context.Context, id uuid.UUID) (providerrepo.Provider, error)
}

// PlanReader resolves plan display names for billing notifications.
type PlanReader interface {
	GetPlan(ctx context.Context, id uuid.UUID) (billingrepo.Plan, error)
}

// Module wires the event subscriptions and the feed endpoints.
type Module struct {
	inApp     *inapp.Service
	outbox    *outbox.Repository
	sms       *sms.Client
	sender    email.Sender
	settings  SettingsReader
	providers ProviderReader
	plans     PlanReader
	handler   *handler.Handler
	frontend  string
	log       *logger.Logger
}

// NewModule creates the notification module. The sms client may be nil when
// no gateway is configured.
func NewModule(pool *pgxpool.Pool, sender email.Sender, smsClient *sms.Client,
	settings SettingsReader, providers ProviderReader, plans PlanReader,
	frontendURL string, log *logger.Logger) *Module {

	inAppSvc := inapp.NewService(inapp.NewRepository(pool), log)
	return &Module{
		inApp:     inAppSvc,
		outbox:    outbox.New(pool),
		sms:       smsClient,
		sender:    sender,
		settings:  settings,
		providers: providers,
		plans:     plans,
		handler:   handler.New(inAppSvc),
		frontend:  frontendURL,
		log:       log,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "notification"
}

// RegisterRoutes mounts the feed endpoints for both roles.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/notifications"))
}

// RegisterEventHandlers subscribes the fan-out handlers on the bus.
func (m *Module) RegisterEventHandlers(bus events.Bus) {
	bus.Subscribe(events.LeadSubmitted{}.EventName(), events.HandlerFunc(m.onLeadSubmitted))
	bus.Subscribe(events.LeadAssigned{}.EventName(), events.HandlerFunc(m.onLeadAssigned))
	bus.Subscribe(events.LeadStatusChanged{}.EventName(), events.HandlerFunc(m.onLeadStatusChanged))
	bus.Subscribe(events.SubscriptionChanged{}.EventName(), events.HandlerFunc(m.onSubscriptionChanged))
}

// RegisterDeliveryHandlers subscribes the worker-side outbox handler. The
// outbox is the at-least-once lane: the inline channels above are best
// effort, this one settles the row as sent or failed.
func (m *Module) RegisterDeliveryHandlers(bus events.Bus) {
	bus.Subscribe(events.NotificationOutboxDue{}.EventName(), events.HandlerFunc(m.onOutboxDue))
}

// fanOut runs the delivery steps concurrently. Every failure is logged and
// swallowed: notifications never fail the operation that triggered them.
func (m *Module) fanOut(ctx context.Context, eventName string, steps ...func() error) error {
	g, _ := errgroup.WithContext(ctx)
	for _, step := range steps {
		g.Go(step)
	}
	if err := g.Wait(); err != nil {
		m.log.Warn("notification fan-out incomplete", "event", eventName, "error", err)
	}
	return nil
}

func (m *Module) onLeadSubmitted(ctx context.Context, event events.Event) error {
	e, ok := event.(events.LeadSubmitted)
	if !ok {
		return nil
	}
	cfg := m.settings.NotificationConfig(ctx)
	leadID := e.LeadID

	steps := []func() error{}
	if cfg.InAppEnabled {
		steps = append(steps, func() error {
			return m.inApp.Send(ctx, inapp.SendParams{
				RecipientKind: string(httpkit.ActorAdmin),
				RecipientID:   inapp.AdminChannelID,
				Title:         "New lead received",
				Body:          fmt.Sprintf("%s submitted a %s request (zip %s)", e.LeadName, e.ProjectType, e.ZipCode),
				Category:      "info",
				ResourceID:    &leadID,
			})
		})
	}
	if cfg.EmailEnabled && cfg.AdminEmail != "" {
		steps = append(steps, func() error {
			return m.sender.SendLeadReceivedEmail(ctx, cfg.AdminEmail, email.LeadReceivedData{
				LeadName:    e.LeadName,
				ProjectType: e.ProjectType,
				ZipCode:     e.ZipCode,
				PortalURL:   m.frontend + "/admin/leads/" + leadID.String(),
			})
		})
	}
	steps = append(steps, func() error {
		_, err := m.outbox.Insert(ctx, outbox.InsertParams{EventName: e.EventName(), Payload: e})
		return err
	})

	return m.fanOut(ctx, e.EventName(), steps...)
}

func (m *Module) onLeadAssigned(ctx context.Context, event events.Event) error {
	e, ok := event.(events.LeadAssigned)
	if !ok {
		return nil
	}
	cfg := m.settings.NotificationConfig(ctx)
	leadID := e.LeadID

	provider, err := m.providers.Get(ctx, e.NewProvider)
	if err != nil {
		m.log.Warn("assigned provider not found for notification", "providerId", e.NewProvider, "error", err)
		return nil
	}

	steps := []func() error{}
	if cfg.InAppEnabled {
		steps = append(steps,
			func() error {
				return m.inApp.Send(ctx, inapp.SendParams{
					RecipientKind: string(httpkit.ActorProvider),
					RecipientID:   provider.ID,
					Title:         "New lead assigned",
					Body:          fmt.Sprintf("%s was routed to you", e.LeadName),
					Category:      "success",
					ResourceID:    &leadID,
				})
			},
			func() error {
				return m.inApp.Send(ctx, inapp.SendParams{
					RecipientKind: string(httpkit.ActorAdmin),
					RecipientID:   inapp.AdminChannelID,
					Title:         "Lead assigned",
					Body:          fmt.Sprintf("%s assigned to %s", e.LeadName, provider.Name),
					Category:      "info",
					ResourceID:    &leadID,
				})
			})
	}
	if cfg.SMSEnabled && provider.Phone != "" {
		steps = append(steps, func() error {
			return m.sms.Send(ctx, provider.Phone,
				fmt.Sprintf("New lead from %s: %s. Log in to respond.", cfg.SenderName, e.LeadName))
		})
	}
	if cfg.EmailEnabled && provider.Email != "" {
		steps = append(steps, func() error {
			return m.sender.SendLeadAssignedEmail(ctx, provider.Email, email.LeadAssignedData{
				ProviderName: provider.Name,
				LeadName:     e.LeadName,
				PortalURL:    m.frontend + "/provider/leads/" + leadID.String(),
			})
		})
	}
	steps = append(steps, func() error {
		_, err := m.outbox.Insert(ctx, outbox.InsertParams{EventName: e.EventName(), Payload: e})
		return err
	})

	return m.fanOut(ctx, e.EventName(), steps...)
}

func (m *Module) onLeadStatusChanged(ctx context.Context, event events.Event) error {
	e, ok := event.(events.LeadStatusChanged)
	if !ok {
		return nil
	}
	cfg := m.settings.NotificationConfig(ctx)
	if !cfg.InAppEnabled {
		return nil
	}
	leadID := e.LeadID

	return m.fanOut(ctx, e.EventName(), func() error {
		return m.inApp.Send(ctx, inapp.SendParams{
			RecipientKind: string(httpkit.ActorAdmin),
			RecipientID:   inapp.AdminChannelID,
			Title:         "Lead status changed",
			Body:          fmt.Sprintf("Lead moved from %s to %s by %s", e.OldStatus, e.NewStatus, e.ChangedBy.Name),
			Category:      "info",
			ResourceID:    &leadID,
		})
	})
}

func (m *Module) onSubscriptionChanged(ctx context.Context, event events.Event) error {
	e, ok := event.(events.SubscriptionChanged)
	if !ok {
		return nil
	}
	cfg := m.settings.NotificationConfig(ctx)

	provider, err := m.providers.Get(ctx, e.ProviderID)
	if err != nil {
		m.log.Warn("provider not found for billing notification", "providerId", e.ProviderID, "error", err)
		return nil
	}

	planName := ""
	if e.PlanID != nil {
		if plan, err := m.plans.GetPlan(ctx, *e.PlanID); err == nil {
			planName = plan.Name
		}
	}

	steps := []func() error{}
	if cfg.InAppEnabled {
		steps = append(steps,
			func() error {
				return m.inApp.Send(ctx, inapp.SendParams{
					RecipientKind: string(httpkit.ActorProvider),
					RecipientID:   provider.ID,
					Title:         "Subscription update",
					Body:          fmt.Sprintf("Your subscription was %s (status: %s)", e.EventType, e.NewStatus),
					Category:      "info",
				})
			},
			func() error {
				return m.inApp.Send(ctx, inapp.SendParams{
					RecipientKind: string(httpkit.ActorAdmin),
					RecipientID:   inapp.AdminChannelID,
					Title:         "Subscription " + e.EventType,
					Body:          fmt.Sprintf("%s: subscription %s (%s)", provider.Name, e.EventType, e.NewStatus),
					Category:      "info",
				})
			})
	}
	if cfg.EmailEnabled && provider.Email != "" {
		steps = append(steps, func() error {
			return m.sender.SendSubscriptionChangedEmail(ctx, provider.Email, email.SubscriptionChangedData{
				ProviderName: provider.Name,
				PlanName:     planName,
				Status:       e.NewStatus,
				ChangeKind:   e.EventType,
				PortalURL:    m.frontend + "/provider/billing",
			})
		})
	}
	steps = append(steps, func() error {
		_, err := m.outbox.Insert(ctx, outbox.InsertParams{EventName: e.EventName(), Payload: e})
		return err
	})

	return m.fanOut(ctx, e.EventName(), steps...)
}

// onOutboxDue delivers a claimed outbox record as a broadcast email to the
// admin address. Unlike the fan-out handlers, errors propagate so the worker
// records the outcome on the row.
func (m *Module) onOutboxDue(ctx context.Context, event events.Event) error {
	e, ok := event.(events.NotificationOutboxDue)
	if !ok {
		return nil
	}

	rec, err := m.outbox.GetByID(ctx, e.OutboxID)
	if err != nil {
		return fmt.Errorf("load outbox record %s: %w", e.OutboxID, err)
	}

	cfg := m.settings.NotificationConfig(ctx)
	if !cfg.EmailEnabled || cfg.AdminEmail == "" {
		m.log.Info("outbox broadcast skipped, email channel disabled", "outboxId", rec.ID, "event", rec.EventName)
		return nil
	}

	subject := "Portal activity: " + rec.EventName
	body := fmt.Sprintf("<p>Event <strong>%s</strong> recorded at %s.</p><pre>%s</pre>",
		html.EscapeString(rec.EventName),
		rec.RunAt.UTC().Format(time.RFC3339),
		html.EscapeString(string(rec.Payload)))
	return m.sender.SendCustomEmail(ctx, cfg.AdminEmail, subject, body)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
