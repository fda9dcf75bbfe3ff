// Package transport contains request/response DTOs for the settings API.
package transport

import (
	"time"

	"github.com/sanjaykhatri/lead-management-backend/internal/settings/repository"
)

// UpdateSettingRequest is the payload for creating or updating a setting.
type UpdateSettingRequest struct {
	Value       string  `json:"value"`
	Type        string  `json:"type" binding:"omitempty,oneof=string boolean integer json"`
	Group       string  `json:"group"`
	Description *string `json:"description,omitempty"`
}

// SettingResponse is the public shape of a setting.
type SettingResponse struct {
	Key         string    `json:"key"`
	Value       string    `json:"value"`
	Type        string    `json:"type"`
	Group       string    `json:"group"`
	Description *string   `json:"description,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ToSettingResponse maps a repository row to its API shape.
func ToSettingResponse(s repository.Setting) SettingResponse {
	return SettingResponse{
		Key:         s.Key,
		Value:       s.Value,
		Type:        s.Type,
		Group:       s.Group,
		Description: s.Description,
		UpdatedAt:   s.UpdatedAt,
	}
}

// ToSettingResponses maps a slice of rows.
func ToSettingResponses(settings []repository.Setting) []SettingResponse {
	out := make([]SettingResponse, 0, len(settings))
	for _, s := range settings {
		out = append(out, ToSettingResponse(s))
	}
	return out
}
