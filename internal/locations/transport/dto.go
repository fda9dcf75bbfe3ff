// Package transport contains request/response DTOs for the locations API.
package transport

import (
	"time"

	"github.com/sanjaykhatri/lead-management-backend/internal/locations/repository"

	"github.com/google/uuid"
)

// CreateLocationRequest is the payload for creating a location.
type CreateLocationRequest struct {
	Name                string `json:"name" binding:"required,min=2,max=120"`
	Slug                string `json:"slug" binding:"omitempty,max=120"`
	Address             string `json:"address" binding:"omitempty,max=255"`
	AssignmentAlgorithm string `json:"assignmentAlgorithm" binding:"omitempty,oneof=round_robin geographic load_balance manual"`
}

// UpdateLocationRequest carries optional field updates.
type UpdateLocationRequest struct {
	Name                *string `json:"name" binding:"omitempty,min=2,max=120"`
	Slug                *string `json:"slug" binding:"omitempty,max=120"`
	Address             *string `json:"address" binding:"omitempty,max=255"`
	AssignmentAlgorithm *string `json:"assignmentAlgorithm" binding:"omitempty,oneof=round_robin geographic load_balance manual"`
}

// LinkProviderRequest attaches a provider to a location.
type LinkProviderRequest struct {
	ProviderID uuid.UUID `json:"providerId" binding:"required"`
}

// LocationResponse is the public shape of a location.
type LocationResponse struct {
	ID                  uuid.UUID `json:"id"`
	Name                string    `json:"name"`
	Slug                string    `json:"slug"`
	Address             string    `json:"address"`
	AssignmentAlgorithm string    `json:"assignmentAlgorithm"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// PublicLocationResponse omits routing internals for unauthenticated callers.
type PublicLocationResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`
}

// ToLocationResponse maps a repository row to its API shape.
func ToLocationResponse(l repository.Location) LocationResponse {
	return LocationResponse{
		ID:                  l.ID,
		Name:                l.Name,
		Slug:                l.Slug,
		Address:             l.Address,
		AssignmentAlgorithm: l.AssignmentAlgorithm,
		CreatedAt:           l.CreatedAt,
		UpdatedAt:           l.UpdatedAt,
	}
}

// ToLocationResponses maps a slice of rows.
func ToLocationResponses(locations []repository.Location) []LocationResponse {
	out := make([]LocationResponse, 0, len(locations))
	for _, l := range locations {
		out = append(out, ToLocationResponse(l))
	}
	return out
}

// ToPublicLocationResponse maps a row to its unauthenticated shape.
func ToPublicLocationResponse(l repository.Location) PublicLocationResponse {
	return PublicLocationResponse{ID: l.ID, Name: l.Name, Slug: l.Slug}
}
