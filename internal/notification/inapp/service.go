package inapp

import (
	"context"
	"errors"

	"github.com/sanjaykhatri/lead-management-backend/platform/apperr"
	"github.com/sanjaykhatri/lead-management-backend/platform/httpkit"
	"github.com/sanjaykhatri/lead-management-backend/platform/logger"

	"github.com/google/uuid"
)

// AdminChannelID is the shared recipient id for the admin broadcast feed.
// There is no per-admin user table; every admin reads the same channel.
var AdminChannelID = uuid.Nil

type Service struct {
	repo *Repository
	log  *logger.Logger
}

func NewService(repo *Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

type SendParams struct {
	RecipientKind string
	RecipientID   uuid.UUID
	Title         string
	Body          string
	Category      string
	ResourceID    *uuid.UUID
}

// Send persists one feed entry. Callers treat failures as best effort.
func (s *Service) Send(ctx context.Context, p SendParams) error {
	_, err := s.repo.Create(ctx, CreateParams{
		RecipientKind: p.RecipientKind,
		RecipientID:   p.RecipientID,
		Title:         p.Title,
		Body:          p.Body,
		Category:      p.Category,
		ResourceID:    p.ResourceID,
	})
	if err != nil {
		s.log.Error("failed to persist in-app notification",
			"recipientKind", p.RecipientKind, "recipientId", p.RecipientID, "error", err)
	}
	return err
}

// channel maps the authenticated actor onto its notification channel.
func channel(actor httpkit.Actor) (string, uuid.UUID) {
	if actor.Kind == httpkit.ActorAdmin {
		return string(httpkit.ActorAdmin), AdminChannelID
	}
	return string(actor.Kind), actor.ID
}

func (s *Service) ListFor(ctx context.Context, actor httpkit.Actor, limit, offset int) ([]Notification, int, error) {
	kind, id := channel(actor)
	return s.repo.List(ctx, kind, id, limit, offset)
}

func (s *Service) UnreadFor(ctx context.Context, actor httpkit.Actor) (int, error) {
	kind, id := channel(actor)
	return s.repo.CountUnread(ctx, kind, id)
}

func (s *Service) MarkReadFor(ctx context.Context, actor httpkit.Actor, id uuid.UUID) error {
	kind, recipientID := channel(actor)
	err := s.repo.MarkRead(ctx, id, kind, recipientID)
	if errors.Is(err, ErrNotFound) {
		return apperr.NotFound("notification not found").WithOp("notification.inapp.MarkRead")
	}
	return err
}

func (s *Service) MarkAllReadFor(ctx context.Context, actor httpkit.Actor) (int, error) {
	kind, id := channel(actor)
	return s.repo.MarkAllRead(ctx, kind, id)
}
