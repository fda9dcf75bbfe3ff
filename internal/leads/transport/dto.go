// Package transport contains request/response DTOs for the leads API.
package transport

import (
	"time"

	"github.com/sanjaykhatri/lead-management-backend/internal/leads/domain"

	"github.com/google/uuid"
)

// SubmitLeadRequest is the public intake payload.
type SubmitLeadRequest struct {
	LocationID  uuid.UUID `json:"locationId" binding:"required"`
	Name        string    `json:"name" binding:"required,min=2,max=120"`
	Phone       string    `json:"phone" binding:"required,max=32"`
	Email       string    `json:"email" binding:"required,email"`
	ZipCode     string    `json:"zipCode" binding:"required,max=10"`
	ProjectType string    `json:"projectType" binding:"required,max=120"`
	Timing      string    `json:"timing" binding:"required,max=120"`
	Notes       *string   `json:"notes" binding:"omitempty,max=2000"`
}

// ChangeStatusRequest moves a lead through the pipeline.
type ChangeStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=new contacted closed"`
}

// ReassignRequest moves a lead to another provider.
type ReassignRequest struct {
	ProviderID uuid.UUID `json:"providerId" binding:"required"`
}

// NoteRequest creates or edits a comment on a lead.
type NoteRequest struct {
	Body string `json:"body" binding:"required,min=1,max=5000"`
}

// LeadResponse is the authenticated shape of a lead.
type LeadResponse struct {
	ID                uuid.UUID  `json:"id"`
	LocationID        uuid.UUID  `json:"locationId"`
	ServiceProviderID *uuid.UUID `json:"serviceProviderId,omitempty"`
	Name              string     `json:"name"`
	Phone             string     `json:"phone"`
	Email             string     `json:"email"`
	ZipCode           string     `json:"zipCode"`
	ProjectType       string     `json:"projectType"`
	Timing            string     `json:"timing"`
	Notes             *string    `json:"notes,omitempty"`
	Status            string     `json:"status"`
	AssignedAt        *time.Time `json:"assignedAt,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// SubmitLeadResponse is the public acknowledgement; it leaks no routing detail.
type SubmitLeadResponse struct {
	ID        uuid.UUID `json:"id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// NoteResponse is the public shape of a lead note.
type NoteResponse struct {
	ID         uuid.UUID      `json:"id"`
	LeadID     uuid.UUID      `json:"leadId"`
	AuthorKind string         `json:"authorKind"`
	AuthorID   uuid.UUID      `json:"authorId"`
	AuthorName string         `json:"authorName"`
	Type       string         `json:"type"`
	Body       string         `json:"body"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

// ActivityResponse is one audit trail entry.
type ActivityResponse struct {
	ID          uuid.UUID      `json:"id"`
	EventType   string         `json:"eventType"`
	ActorKind   string         `json:"actorKind"`
	ActorID     *uuid.UUID     `json:"actorId,omitempty"`
	ActorName   string         `json:"actorName"`
	Description string         `json:"description"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// ToLeadResponse maps a domain lead to its API shape.
func ToLeadResponse(l domain.Lead) LeadResponse {
	return LeadResponse{
		ID:                l.ID,
		LocationID:        l.LocationID,
		ServiceProviderID: l.ServiceProviderID,
		Name:              l.Name,
		Phone:             l.Phone,
		Email:             l.Email,
		ZipCode:           l.ZipCode,
		ProjectType:       l.ProjectType,
		Timing:            l.Timing,
		Notes:             l.Notes,
		Status:            string(l.Status),
		AssignedAt:        l.AssignedAt,
		CreatedAt:         l.CreatedAt,
		UpdatedAt:         l.UpdatedAt,
	}
}

// ToLeadResponses maps a slice of leads.
func ToLeadResponses(leads []domain.Lead) []LeadResponse {
	out := make([]LeadResponse, 0, len(leads))
	for _, l := range leads {
		out = append(out, ToLeadResponse(l))
	}
	return out
}

// ToNoteResponse maps a domain note to its API shape.
func ToNoteResponse(n domain.Note) NoteResponse {
	return NoteResponse{
		ID:         n.ID,
		LeadID:     n.LeadID,
		AuthorKind: n.AuthorKind,
		AuthorID:   n.AuthorID,
		AuthorName: n.AuthorName,
		Type:       n.Type,
		Body:       n.Body,
		Metadata:   n.Metadata,
		CreatedAt:  n.CreatedAt,
		UpdatedAt:  n.UpdatedAt,
	}
}

// ToNoteResponses maps a slice of notes.
func ToNoteResponses(notes []domain.Note) []NoteResponse {
	out := make([]NoteResponse, 0, len(notes))
	for _, n := range notes {
		out = append(out, ToNoteResponse(n))
	}
	return out
}

// ToActivityResponses maps the audit trail.
func ToActivityResponses(entries []domain.ActivityEntry) []ActivityResponse {
	out := make([]ActivityResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, ActivityResponse{
			ID:          e.ID,
			EventType:   e.EventType,
			ActorKind:   e.ActorKind,
			ActorID:     e.ActorID,
			ActorName:   e.ActorName,
			Description: e.Description,
			Metadata:    e.Metadata,
			CreatedAt:   e.CreatedAt,
		})
	}
	return out
}
