// Package transport contains request/response DTOs for the providers API.
package transport

import (
	"time"

	"github.com/sanjaykhatri/lead-management-backend/internal/providers/repository"

	"github.com/google/uuid"
)

// CreateProviderRequest is the payload for onboarding a provider.
type CreateProviderRequest struct {
	Name    string  `json:"name" binding:"required,min=2,max=120"`
	Email   string  `json:"email" binding:"required,email"`
	Phone   string  `json:"phone" binding:"omitempty,max=32"`
	Address string  `json:"address" binding:"omitempty,max=255"`
	ZipCode *string `json:"zipCode" binding:"omitempty,max=10"`
}

// UpdateProviderRequest carries optional field updates.
type UpdateProviderRequest struct {
	Name    *string `json:"name" binding:"omitempty,min=2,max=120"`
	Email   *string `json:"email" binding:"omitempty,email"`
	Phone   *string `json:"phone" binding:"omitempty,max=32"`
	Address *string `json:"address" binding:"omitempty,max=255"`
	ZipCode *string `json:"zipCode" binding:"omitempty,max=10"`
}

// ProviderResponse is the public shape of a provider.
type ProviderResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	ZipCode   *string   `json:"zipCode,omitempty"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ToProviderResponse maps a repository row to its API shape.
func ToProviderResponse(p repository.Provider) ProviderResponse {
	return ProviderResponse{
		ID:        p.ID,
		Name:      p.Name,
		Email:     p.Email,
		Phone:     p.Phone,
		Address:   p.Address,
		ZipCode:   p.ZipCode,
		IsActive:  p.IsActive,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// ToProviderResponses maps a slice of rows.
func ToProviderResponses(providers []repository.Provider) []ProviderResponse {
	out := make([]ProviderResponse, 0, len(providers))
	for _, p := range providers {
		out = append(out, ToProviderResponse(p))
	}
	return out
}
