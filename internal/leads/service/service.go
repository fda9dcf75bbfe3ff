// Package service implements the lead lifecycle: intake, status changes,
// reassignment and the note/audit timeline.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sanjaykhatri/lead-management-backend/internal/events"
	"github.com/sanjaykhatri/lead-management-backend/internal/leads/domain"
	"github.com/sanjaykhatri/lead-management-backend/internal/leads/repository"
	"github.com/sanjaykhatri/lead-management-backend/platform/apperr"
	"github.com/sanjaykhatri/lead-management-backend/platform/httpkit"
	"github.com/sanjaykhatri/lead-management-backend/platform/logger"
	"github.com/sanjaykhatri/lead-management-backend/platform/phone"

	"github.com/google/uuid"
)

// ProviderDirectory resolves provider display names for audit entries.
type ProviderDirectory interface {
	ProviderName(ctx context.Context, id uuid.UUID) (string, error)
}

// Store is the persistence surface the lifecycle needs, satisfied by
// *repository.Repository.
type Store interface {
	CreateWithAssignment(ctx context.Context, params repository.CreateParams) (domain.Lead, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Lead, error)
	List(ctx context.Context, filter repository.ListFilter) ([]domain.Lead, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.Status) (domain.Lead, error)
	ProviderEligible(ctx context.Context, providerID uuid.UUID) (bool, error)
	Reassign(ctx context.Context, id uuid.UUID, providerID uuid.UUID) (domain.Lead, error)
	LogActivity(ctx context.Context, params repository.LogActivityParams) error
	ListActivity(ctx context.Context, leadID uuid.UUID) ([]domain.ActivityEntry, error)
	CreateNote(ctx context.Context, params repository.CreateNoteParams) (domain.Note, error)
	GetNote(ctx context.Context, id uuid.UUID) (domain.Note, error)
	UpdateNoteBody(ctx context.Context, id uuid.UUID, body string) (domain.Note, error)
	DeleteNote(ctx context.Context, id uuid.UUID) error
	ListNotes(ctx context.Context, leadID uuid.UUID) ([]domain.Note, error)
}

type Service struct {
	repo      Store
	providers ProviderDirectory
	bus       events.Bus
	logger    *logger.Logger
}

func New(repo Store, providers ProviderDirectory, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, providers: providers, bus: bus, logger: log}
}

// SubmitInput is the validated public intake payload.
type SubmitInput struct {
	LocationID  uuid.UUID
	Name        string
	Phone       string
	Email       string
	ZipCode     string
	ProjectType string
	Timing      string
	Notes       *string
}

// Submit captures a lead and routes it using the location's algorithm.
// Audit and notification side effects never fail the submission.
func (s *Service) Submit(ctx context.Context, input SubmitInput) (domain.Lead, error) {
	input.Phone = phone.NormalizeE164(input.Phone)

	lead, err := s.repo.CreateWithAssignment(ctx, repository.CreateParams{
		LocationID:  input.LocationID,
		Name:        input.Name,
		Phone:       input.Phone,
		Email:       input.Email,
		ZipCode:     input.ZipCode,
		ProjectType: input.ProjectType,
		Timing:      input.Timing,
		Notes:       input.Notes,
	})
	if err != nil {
		if errors.Is(err, repository.ErrLocationNotFound) {
			return domain.Lead{}, apperr.NotFound("location not found").WithOp("leads.Submit")
		}
		return domain.Lead{}, apperr.Wrap(apperr.KindInternal, "failed to create lead", err).WithOp("leads.Submit")
	}

	s.logActivity(ctx, repository.LogActivityParams{
		LeadID:      lead.ID,
		EventType:   repository.ActivitySubmitted,
		ActorKind:   "system",
		ActorName:   "intake",
		Description: fmt.Sprintf("Lead submitted by %s", lead.Name),
	})

	s.bus.Publish(ctx, events.LeadSubmitted{
		BaseEvent:   events.NewBaseEvent(),
		LeadID:      lead.ID,
		LocationID:  lead.LocationID,
		ProviderID:  lead.ServiceProviderID,
		LeadName:    lead.Name,
		ZipCode:     lead.ZipCode,
		ProjectType: lead.ProjectType,
	})

	if lead.ServiceProviderID != nil {
		providerName := s.providerName(ctx, *lead.ServiceProviderID)
		s.logActivity(ctx, repository.LogActivityParams{
			LeadID:      lead.ID,
			EventType:   repository.ActivityAssigned,
			ActorKind:   "system",
			ActorName:   "assignment",
			Description: fmt.Sprintf("Lead assigned to %s", providerName),
			Metadata:    map[string]any{"providerId": lead.ServiceProviderID.String()},
		})
		s.bus.Publish(ctx, events.LeadAssigned{
			BaseEvent:    events.NewBaseEvent(),
			LeadID:       lead.ID,
			LocationID:   lead.LocationID,
			NewProvider:  *lead.ServiceProviderID,
			ProviderName: providerName,
			LeadName:     lead.Name,
		})
	}

	s.logger.Info("lead submitted", "leadId", lead.ID, "locationId", lead.LocationID,
		"assigned", lead.ServiceProviderID != nil)
	return lead, nil
}

// Get loads one lead, scoped to the caller: providers only see their own.
func (s *Service) Get(ctx context.Context, actor httpkit.Actor, id uuid.UUID) (domain.Lead, error) {
	lead, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Lead{}, apperr.NotFound("lead not found").WithOp("leads.Get")
		}
		return domain.Lead{}, apperr.Wrap(apperr.KindInternal, "failed to load lead", err).WithOp("leads.Get")
	}
	if err := s.authorize(ctx, actor, lead); err != nil {
		return domain.Lead{}, err
	}
	return lead, nil
}

// List returns leads matching the filter. Provider callers are always scoped
// to their own leads regardless of the filter.
func (s *Service) List(ctx context.Context, actor httpkit.Actor, filter repository.ListFilter) ([]domain.Lead, error) {
	if actor.Kind == httpkit.ActorProvider {
		filter.ProviderID = &actor.ID
	}
	leads, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list leads", err).WithOp("leads.List")
	}
	return leads, nil
}

// ChangeStatus moves a lead through the pipeline. Setting the current status
// again is a no-op that writes no audit entries.
func (s *Service) ChangeStatus(ctx context.Context, actor httpkit.Actor, id uuid.UUID, newStatus domain.Status) (domain.Lead, error) {
	lead, err := s.Get(ctx, actor, id)
	if err != nil {
		return domain.Lead{}, err
	}

	oldStatus := lead.Status
	if oldStatus == newStatus {
		return lead, nil
	}

	updated, err := s.repo.UpdateStatus(ctx, id, newStatus)
	if err != nil {
		return domain.Lead{}, apperr.Wrap(apperr.KindInternal, "failed to update lead status", err).WithOp("leads.ChangeStatus")
	}

	description := fmt.Sprintf("Status changed from %s to %s", oldStatus, newStatus)
	s.createSystemNote(ctx, repository.CreateNoteParams{
		LeadID:     id,
		AuthorKind: string(actor.Kind),
		AuthorID:   actor.ID,
		AuthorName: actor.Name,
		Type:       domain.NoteTypeStatusChange,
		Body:       description,
		Metadata:   map[string]any{"from": string(oldStatus), "to": string(newStatus)},
	})
	s.logActivity(ctx, repository.LogActivityParams{
		LeadID:      id,
		EventType:   repository.ActivityStatusChanged,
		ActorKind:   string(actor.Kind),
		ActorID:     &actor.ID,
		ActorName:   actor.Name,
		Description: description,
		Metadata:    map[string]any{"from": string(oldStatus), "to": string(newStatus)},
	})

	s.bus.Publish(ctx, events.LeadStatusChanged{
		BaseEvent:  events.NewBaseEvent(),
		LeadID:     id,
		ProviderID: updated.ServiceProviderID,
		OldStatus:  string(oldStatus),
		NewStatus:  string(newStatus),
		ChangedBy:  actorRef(actor),
	})

	s.logger.Info("lead status changed", "leadId", id, "from", oldStatus, "to", newStatus)
	return updated, nil
}

// Reassign moves a lead to a different provider. Reassigning to the current
// provider is rejected as a conflict.
func (s *Service) Reassign(ctx context.Context, actor httpkit.Actor, id, providerID uuid.UUID) (domain.Lead, error) {
	lead, err := s.Get(ctx, actor, id)
	if err != nil {
		return domain.Lead{}, err
	}
	if lead.ServiceProviderID != nil && *lead.ServiceProviderID == providerID {
		return domain.Lead{}, apperr.Conflict("lead is already assigned to this provider").WithOp("leads.Reassign")
	}

	providerName, err := s.providers.ProviderName(ctx, providerID)
	if err != nil {
		return domain.Lead{}, apperr.NotFound("provider not found").WithOp("leads.Reassign")
	}

	previous := lead.ServiceProviderID
	updated, err := s.repo.Reassign(ctx, id, providerID)
	if err != nil {
		return domain.Lead{}, apperr.Wrap(apperr.KindInternal, "failed to reassign lead", err).WithOp("leads.Reassign")
	}

	description := fmt.Sprintf("Lead assigned to %s", providerName)
	eventType := repository.ActivityAssigned
	if previous != nil {
		description = fmt.Sprintf("Lead reassigned from %s to %s", s.providerName(ctx, *previous), providerName)
		eventType = repository.ActivityReassigned
	}

	metadata := map[string]any{"providerId": providerID.String()}
	if previous != nil {
		metadata["previousProviderId"] = previous.String()
	}
	s.createSystemNote(ctx, repository.CreateNoteParams{
		LeadID:     id,
		AuthorKind: string(actor.Kind),
		AuthorID:   actor.ID,
		AuthorName: actor.Name,
		Type:       domain.NoteTypeAssignment,
		Body:       description,
		Metadata:   metadata,
	})
	s.logActivity(ctx, repository.LogActivityParams{
		LeadID:      id,
		EventType:   eventType,
		ActorKind:   string(actor.Kind),
		ActorID:     &actor.ID,
		ActorName:   actor.Name,
		Description: description,
		Metadata:    metadata,
	})

	by := actorRef(actor)
	s.bus.Publish(ctx, events.LeadAssigned{
		BaseEvent:        events.NewBaseEvent(),
		LeadID:           id,
		LocationID:       updated.LocationID,
		PreviousProvider: previous,
		NewProvider:      providerID,
		ProviderName:     providerName,
		LeadName:         updated.Name,
		AssignedBy:       &by,
	})

	s.logger.Info("lead reassigned", "leadId", id, "providerId", providerID)
	return updated, nil
}

// ListActivity returns the audit trail for a lead.
func (s *Service) ListActivity(ctx context.Context, actor httpkit.Actor, leadID uuid.UUID) ([]domain.ActivityEntry, error) {
	if _, err := s.Get(ctx, actor, leadID); err != nil {
		return nil, err
	}
	entries, err := s.repo.ListActivity(ctx, leadID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list activity", err).WithOp("leads.ListActivity")
	}
	return entries, nil
}

// authorize gates provider access to a lead: the lead must be theirs and the
// account must still be able to receive leads (active, with a live
// subscription). Admins pass unconditionally.
func (s *Service) authorize(ctx context.Context, actor httpkit.Actor, lead domain.Lead) error {
	if actor.Kind == httpkit.ActorAdmin {
		return nil
	}
	if lead.ServiceProviderID == nil || *lead.ServiceProviderID != actor.ID {
		return apperr.Forbidden("lead is not assigned to you").WithOp("leads.authorize")
	}
	eligible, err := s.repo.ProviderEligible(ctx, actor.ID)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to check provider eligibility", err).WithOp("leads.authorize")
	}
	if !eligible {
		return apperr.Forbidden("provider account is inactive or unsubscribed").WithOp("leads.authorize")
	}
	return nil
}

func (s *Service) providerName(ctx context.Context, id uuid.UUID) string {
	name, err := s.providers.ProviderName(ctx, id)
	if err != nil {
		return "provider " + id.String()
	}
	return name
}

// logActivity records an audit entry; failures are logged and swallowed so
// the primary write wins.
func (s *Service) logActivity(ctx context.Context, params repository.LogActivityParams) {
	if err := s.repo.LogActivity(ctx, params); err != nil {
		s.logger.Error("failed to log lead activity", "leadId", params.LeadID, "event", params.EventType, "error", err)
	}
}

func (s *Service) createSystemNote(ctx context.Context, params repository.CreateNoteParams) {
	if _, err := s.repo.CreateNote(ctx, params); err != nil {
		s.logger.Error("failed to create lifecycle note", "leadId", params.LeadID, "type", params.Type, "error", err)
	}
}

func actorRef(actor httpkit.Actor) events.ActorRef {
	return events.ActorRef{Kind: string(actor.Kind), ID: actor.ID, Name: actor.Name}
}
