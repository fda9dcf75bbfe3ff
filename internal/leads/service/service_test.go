package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sanjaykhatri/lead-management-backend/internal/events"
	"github.com/sanjaykhatri/lead-management-backend/internal/leads/domain"
	"github.com/sanjaykhatri/lead-management-backend/internal/leads/repository"
	"github.com/sanjaykhatri/lead-management-backend/platform/apperr"
	"github.com/sanjaykhatri/lead-management-backend/platform/httpkit"
	"github.com/sanjaykhatri/lead-management-backend/platform/logger"

	"github.com/google/uuid"
)

// fakeStore keeps leads, notes and activity in memory.
type fakeStore struct {
	leads    map[uuid.UUID]domain.Lead
	notes    map[uuid.UUID]domain.Note
	activity []repository.LogActivityParams

	assignTo    *uuid.UUID // provider CreateWithAssignment routes to
	activityErr error
	ineligible  map[uuid.UUID]bool // providers with a lapsed account or subscription
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		leads:      make(map[uuid.UUID]domain.Lead),
		notes:      make(map[uuid.UUID]domain.Note),
		ineligible: make(map[uuid.UUID]bool),
	}
}

func (f *fakeStore) ProviderEligible(_ context.Context, providerID uuid.UUID) (bool, error) {
	return !f.ineligible[providerID], nil
}

func (f *fakeStore) CreateWithAssignment(_ context.Context, params repository.CreateParams) (domain.Lead, error) {
	lead := domain.Lead{
		ID:                uuid.New(),
		LocationID:        params.LocationID,
		ServiceProviderID: f.assignTo,
		Name:              params.Name,
		Phone:             params.Phone,
		Email:             params.Email,
		ZipCode:           params.ZipCode,
		ProjectType:       params.ProjectType,
		Timing:            params.Timing,
		Notes:             params.Notes,
		Status:            domain.StatusNew,
		CreatedAt:         time.Now(),
	}
	if f.assignTo != nil {
		now := time.Now()
		lead.AssignedAt = &now
	}
	f.leads[lead.ID] = lead
	return lead, nil
}

func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID) (domain.Lead, error) {
	lead, ok := f.leads[id]
	if !ok {
		return domain.Lead{}, repository.ErrNotFound
	}
	return lead, nil
}

func (f *fakeStore) List(_ context.Context, filter repository.ListFilter) ([]domain.Lead, error) {
	out := make([]domain.Lead, 0)
	for _, l := range f.leads {
		if filter.ProviderID != nil && (l.ServiceProviderID == nil || *l.ServiceProviderID != *filter.ProviderID) {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

func (f *fakeStore) UpdateStatus(_ context.Context, id uuid.UUID, status domain.Status) (domain.Lead, error) {
	lead, ok := f.leads[id]
	if !ok {
		return domain.Lead{}, repository.ErrNotFound
	}
	lead.Status = status
	f.leads[id] = lead
	return lead, nil
}

func (f *fakeStore) Reassign(_ context.Context, id, providerID uuid.UUID) (domain.Lead, error) {
	lead, ok := f.leads[id]
	if !ok {
		return domain.Lead{}, repository.ErrNotFound
	}
	lead.ServiceProviderID = &providerID
	now := time.Now()
	lead.AssignedAt = &now
	f.leads[id] = lead
	return lead, nil
}

func (f *fakeStore) LogActivity(_ context.Context, params repository.LogActivityParams) error {
	if f.activityErr != nil {
		return f.activityErr
	}
	f.activity = append(f.activity, params)
	return nil
}

func (f *fakeStore) ListActivity(_ context.Context, leadID uuid.UUID) ([]domain.ActivityEntry, error) {
	entries := make([]domain.ActivityEntry, 0)
	for _, a := range f.activity {
		if a.LeadID == leadID {
			entries = append(entries, domain.ActivityEntry{
				LeadID:      a.LeadID,
				EventType:   a.EventType,
				Description: a.Description,
			})
		}
	}
	return entries, nil
}

func (f *fakeStore) CreateNote(_ context.Context, params repository.CreateNoteParams) (domain.Note, error) {
	note := domain.Note{
		ID:         uuid.New(),
		LeadID:     params.LeadID,
		AuthorKind: params.AuthorKind,
		AuthorID:   params.AuthorID,
		AuthorName: params.AuthorName,
		Type:       params.Type,
		Body:       params.Body,
		Metadata:   params.Metadata,
		CreatedAt:  time.Now(),
	}
	f.notes[note.ID] = note
	return note, nil
}

func (f *fakeStore) GetNote(_ context.Context, id uuid.UUID) (domain.Note, error) {
	note, ok := f.notes[id]
	if !ok {
		return domain.Note{}, repository.ErrNoteNotFound
	}
	return note, nil
}

func (f *fakeStore) UpdateNoteBody(_ context.Context, id uuid.UUID, body string) (domain.Note, error) {
	note, ok := f.notes[id]
	if !ok || note.Type != domain.NoteTypeComment {
		return domain.Note{}, repository.ErrNoteNotFound
	}
	note.Body = body
	f.notes[id] = note
	return note, nil
}

func (f *fakeStore) DeleteNote(_ context.Context, id uuid.UUID) error {
	if _, ok := f.notes[id]; !ok {
		return repository.ErrNoteNotFound
	}
	delete(f.notes, id)
	return nil
}

func (f *fakeStore) ListNotes(_ context.Context, leadID uuid.UUID) ([]domain.Note, error) {
	out := make([]domain.Note, 0)
	for _, n := range f.notes {
		if n.LeadID == leadID {
			out = append(out, n)
		}
	}
	return out, nil
}

type fakeDirectory struct {
	names map[uuid.UUID]string
}

func (f *fakeDirectory) ProviderName(_ context.Context, id uuid.UUID) (string, error) {
	name, ok := f.names[id]
	if !ok {
		return "", errors.New("provider not found")
	}
	return name, nil
}

// recordingBus captures published events synchronously.
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

func (b *recordingBus) names() []string {
	out := make([]string, 0, len(b.published))
	for _, e := range b.published {
		out = append(out, e.EventName())
	}
	return out
}

var (
	adminActor = httpkit.Actor{Kind: httpkit.ActorAdmin, ID: uuid.New(), Name: "Admin"}
	providerID = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	otherID    = uuid.MustParse("22222222-2222-2222-2222-222222222222")
)

func providerActor(id uuid.UUID) httpkit.Actor {
	return httpkit.Actor{Kind: httpkit.ActorProvider, ID: id, Name: "Provider"}
}

func newTestService(store *fakeStore) (*Service, *recordingBus) {
	bus := &recordingBus{}
	dir := &fakeDirectory{names: map[uuid.UUID]string{
		providerID: "Austin Roofing Co",
		otherID:    "Hill Country Plumbing",
	}}
	return New(store, dir, bus, logger.New("development")), bus
}

func submitInput() SubmitInput {
	return SubmitInput{
		LocationID:  uuid.New(),
		Name:        "Pat Jones",
		Phone:       "+15125550133",
		Email:       "pat@example.com",
		ZipCode:     "78701",
		ProjectType: "roof repair",
		Timing:      "this month",
	}
}

func TestSubmitAssignedLead(t *testing.T) {
	store := newFakeStore()
	store.assignTo = &providerID
	svc, bus := newTestService(store)

	lead, err := svc.Submit(context.Background(), submitInput())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if lead.ServiceProviderID == nil || *lead.ServiceProviderID != providerID {
		t.Fatalf("lead not assigned to expected provider: %v", lead.ServiceProviderID)
	}

	wantEvents := []string{"leads.submitted", "leads.assigned"}
	got := bus.names()
	if len(got) != len(wantEvents) {
		t.Fatalf("published events = %v, want %v", got, wantEvents)
	}
	for i := range wantEvents {
		if got[i] != wantEvents[i] {
			t.Errorf("event[%d] = %q, want %q", i, got[i], wantEvents[i])
		}
	}

	if len(store.activity) != 2 {
		t.Fatalf("activity entries = %d, want 2", len(store.activity))
	}
	if store.activity[1].EventType != repository.ActivityAssigned {
		t.Errorf("second activity = %q, want %q", store.activity[1].EventType, repository.ActivityAssigned)
	}
}

func TestSubmitNormalizesPhone(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestService(store)

	input := submitInput()
	input.Phone = "(512) 555-0133"
	lead, err := svc.Submit(context.Background(), input)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if lead.Phone != "+15125550133" {
		t.Errorf("phone = %q, want +15125550133", lead.Phone)
	}
}

func TestSubmitUnassignedLead(t *testing.T) {
	store := newFakeStore() // assignTo nil: manual or no eligible providers
	svc, bus := newTestService(store)

	lead, err := svc.Submit(context.Background(), submitInput())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if lead.ServiceProviderID != nil {
		t.Fatal("lead should be unassigned")
	}
	if got := bus.names(); len(got) != 1 || got[0] != "leads.submitted" {
		t.Errorf("published events = %v, want only leads.submitted", got)
	}
}

func TestSubmitSurvivesAuditFailure(t *testing.T) {
	store := newFakeStore()
	store.assignTo = &providerID
	store.activityErr = errors.New("audit table down")
	svc, _ := newTestService(store)

	if _, err := svc.Submit(context.Background(), submitInput()); err != nil {
		t.Fatalf("Submit should swallow audit failures, got %v", err)
	}
}

func TestChangeStatus(t *testing.T) {
	store := newFakeStore()
	store.assignTo = &providerID
	svc, bus := newTestService(store)
	lead, _ := svc.Submit(context.Background(), submitInput())
	bus.published = nil
	store.activity = nil

	updated, err := svc.ChangeStatus(context.Background(), adminActor, lead.ID, domain.StatusContacted)
	if err != nil {
		t.Fatalf("ChangeStatus: %v", err)
	}
	if updated.Status != domain.StatusContacted {
		t.Errorf("status = %q, want contacted", updated.Status)
	}
	if len(store.activity) != 1 || store.activity[0].EventType != repository.ActivityStatusChanged {
		t.Errorf("activity = %+v, want one status_changed entry", store.activity)
	}
	if got := bus.names(); len(got) != 1 || got[0] != "leads.status.changed" {
		t.Errorf("published = %v, want leads.status.changed", got)
	}

	notes, _ := store.ListNotes(context.Background(), lead.ID)
	if len(notes) != 1 || notes[0].Type != domain.NoteTypeStatusChange {
		t.Errorf("notes = %+v, want one status_change note", notes)
	}
}

func TestChangeStatusSameStatusIsNoOp(t *testing.T) {
	store := newFakeStore()
	store.assignTo = &providerID
	svc, bus := newTestService(store)
	lead, _ := svc.Submit(context.Background(), submitInput())
	bus.published = nil
	store.activity = nil

	if _, err := svc.ChangeStatus(context.Background(), adminActor, lead.ID, domain.StatusNew); err != nil {
		t.Fatalf("ChangeStatus: %v", err)
	}
	if len(store.activity) != 0 {
		t.Errorf("no-op change wrote %d activity entries", len(store.activity))
	}
	if len(bus.published) != 0 {
		t.Errorf("no-op change published %d events", len(bus.published))
	}
}

func TestChangeStatusProviderScoping(t *testing.T) {
	store := newFakeStore()
	store.assignTo = &providerID
	svc, _ := newTestService(store)
	lead, _ := svc.Submit(context.Background(), submitInput())

	// The assigned provider can change status.
	if _, err := svc.ChangeStatus(context.Background(), providerActor(providerID), lead.ID, domain.StatusContacted); err != nil {
		t.Fatalf("assigned provider blocked: %v", err)
	}

	// A different provider cannot.
	_, err := svc.ChangeStatus(context.Background(), providerActor(otherID), lead.ID, domain.StatusClosed)
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("err = %v, want forbidden", err)
	}
}

func TestProviderWithLapsedSubscriptionIsLockedOut(t *testing.T) {
	store := newFakeStore()
	store.assignTo = &providerID
	svc, _ := newTestService(store)
	lead, _ := svc.Submit(context.Background(), submitInput())

	store.ineligible[providerID] = true

	actor := providerActor(providerID)
	if _, err := svc.Get(context.Background(), actor, lead.ID); !apperr.Is(err, apperr.KindForbidden) {
		t.Errorf("Get err = %v, want forbidden", err)
	}
	if _, err := svc.ChangeStatus(context.Background(), actor, lead.ID, domain.StatusContacted); !apperr.Is(err, apperr.KindForbidden) {
		t.Errorf("ChangeStatus err = %v, want forbidden", err)
	}
	if _, err := svc.AddNote(context.Background(), actor, lead.ID, "still here"); !apperr.Is(err, apperr.KindForbidden) {
		t.Errorf("AddNote err = %v, want forbidden", err)
	}

	// Admins are unaffected.
	if _, err := svc.Get(context.Background(), adminActor, lead.ID); err != nil {
		t.Errorf("admin Get err = %v", err)
	}
}

func TestReassign(t *testing.T) {
	store := newFakeStore()
	store.assignTo = &providerID
	svc, bus := newTestService(store)
	lead, _ := svc.Submit(context.Background(), submitInput())
	bus.published = nil
	store.activity = nil

	updated, err := svc.Reassign(context.Background(), adminActor, lead.ID, otherID)
	if err != nil {
		t.Fatalf("Reassign: %v", err)
	}
	if updated.ServiceProviderID == nil || *updated.ServiceProviderID != otherID {
		t.Fatal("lead not moved to new provider")
	}

	if len(store.activity) != 1 {
		t.Fatalf("activity entries = %d, want 1", len(store.activity))
	}
	if store.activity[0].EventType != repository.ActivityReassigned {
		t.Errorf("activity = %q, want %q", store.activity[0].EventType, repository.ActivityReassigned)
	}
	if store.activity[0].Description != "Lead reassigned from Austin Roofing Co to Hill Country Plumbing" {
		t.Errorf("description = %q", store.activity[0].Description)
	}

	assigned, ok := bus.published[0].(events.LeadAssigned)
	if !ok {
		t.Fatalf("published %T, want LeadAssigned", bus.published[0])
	}
	if assigned.PreviousProvider == nil || *assigned.PreviousProvider != providerID {
		t.Errorf("PreviousProvider = %v, want %s", assigned.PreviousProvider, providerID)
	}
	if assigned.AssignedBy == nil || assigned.AssignedBy.Kind != "admin" {
		t.Errorf("AssignedBy = %+v, want admin actor", assigned.AssignedBy)
	}
}

func TestReassignUnassignedLeadUsesAssignedWording(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestService(store)
	lead, _ := svc.Submit(context.Background(), submitInput())
	store.activity = nil

	if _, err := svc.Reassign(context.Background(), adminActor, lead.ID, providerID); err != nil {
		t.Fatalf("Reassign: %v", err)
	}
	if store.activity[0].EventType != repository.ActivityAssigned {
		t.Errorf("activity = %q, want %q for first assignment", store.activity[0].EventType, repository.ActivityAssigned)
	}
	if store.activity[0].Description != "Lead assigned to Austin Roofing Co" {
		t.Errorf("description = %q", store.activity[0].Description)
	}
}

func TestReassignToCurrentProviderConflicts(t *testing.T) {
	store := newFakeStore()
	store.assignTo = &providerID
	svc, _ := newTestService(store)
	lead, _ := svc.Submit(context.Background(), submitInput())

	_, err := svc.Reassign(context.Background(), adminActor, lead.ID, providerID)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("err = %v, want conflict", err)
	}
}

func TestReassignUnknownProvider(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestService(store)
	lead, _ := svc.Submit(context.Background(), submitInput())

	_, err := svc.Reassign(context.Background(), adminActor, lead.ID, uuid.New())
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestListScopesProviders(t *testing.T) {
	store := newFakeStore()
	store.assignTo = &providerID
	svc, _ := newTestService(store)
	svc.Submit(context.Background(), submitInput())
	store.assignTo = &otherID
	svc.Submit(context.Background(), submitInput())

	// Provider asking for someone else's leads still only sees their own.
	leads, err := svc.List(context.Background(), providerActor(providerID), repository.ListFilter{ProviderID: &otherID})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	for _, l := range leads {
		if l.ServiceProviderID == nil || *l.ServiceProviderID != providerID {
			t.Errorf("provider saw foreign lead %s", l.ID)
		}
	}
}

func TestNoteAuthorOnlyEdits(t *testing.T) {
	store := newFakeStore()
	store.assignTo = &providerID
	svc, _ := newTestService(store)
	lead, _ := svc.Submit(context.Background(), submitInput())

	author := providerActor(providerID)
	note, err := svc.AddNote(context.Background(), author, lead.ID, "called, no answer")
	if err != nil {
		t.Fatalf("AddNote: %v", err)
	}

	// The author can edit.
	updated, err := svc.UpdateNote(context.Background(), author, note.ID, "left voicemail")
	if err != nil {
		t.Fatalf("UpdateNote by author: %v", err)
	}
	if updated.Body != "left voicemail" {
		t.Errorf("body = %q", updated.Body)
	}

	// Anyone else cannot, admins included.
	if _, err := svc.UpdateNote(context.Background(), adminActor, note.ID, "hijacked"); !apperr.Is(err, apperr.KindForbidden) {
		t.Errorf("UpdateNote by non-author err = %v, want forbidden", err)
	}
	if err := svc.DeleteNote(context.Background(), adminActor, note.ID); !apperr.Is(err, apperr.KindForbidden) {
		t.Errorf("DeleteNote by non-author err = %v, want forbidden", err)
	}

	if err := svc.DeleteNote(context.Background(), author, note.ID); err != nil {
		t.Fatalf("DeleteNote by author: %v", err)
	}
}

func TestLifecycleNotesAreImmutable(t *testing.T) {
	store := newFakeStore()
	store.assignTo = &providerID
	svc, _ := newTestService(store)
	lead, _ := svc.Submit(context.Background(), submitInput())

	svc.ChangeStatus(context.Background(), adminActor, lead.ID, domain.StatusContacted)

	notes, _ := store.ListNotes(context.Background(), lead.ID)
	var lifecycle domain.Note
	for _, n := range notes {
		if n.Type == domain.NoteTypeStatusChange {
			lifecycle = n
		}
	}
	if lifecycle.ID == uuid.Nil {
		t.Fatal("no status_change note written")
	}

	if _, err := svc.UpdateNote(context.Background(), adminActor, lifecycle.ID, "edited"); !apperr.Is(err, apperr.KindForbidden) {
		t.Errorf("UpdateNote on lifecycle note err = %v, want forbidden", err)
	}
}
