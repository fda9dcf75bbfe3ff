package service

import (
	"context"
	"errors"

	"github.com/sanjaykhatri/lead-management-backend/internal/events"
	"github.com/sanjaykhatri/lead-management-backend/internal/leads/domain"
	"github.com/sanjaykhatri/lead-management-backend/internal/leads/repository"
	"github.com/sanjaykhatri/lead-management-backend/platform/apperr"
	"github.com/sanjaykhatri/lead-management-backend/platform/httpkit"

	"github.com/google/uuid"
)

// AddNote attaches a comment to a lead the actor can see.
func (s *Service) AddNote(ctx context.Context, actor httpkit.Actor, leadID uuid.UUID, body string) (domain.Note, error) {
	lead, err := s.Get(ctx, actor, leadID)
	if err != nil {
		return domain.Note{}, err
	}

	note, err := s.repo.CreateNote(ctx, repository.CreateNoteParams{
		LeadID:     leadID,
		AuthorKind: string(actor.Kind),
		AuthorID:   actor.ID,
		AuthorName: actor.Name,
		Type:       domain.NoteTypeComment,
		Body:       body,
	})
	if err != nil {
		return domain.Note{}, apperr.Wrap(apperr.KindInternal, "failed to create note", err).WithOp("leads.AddNote")
	}

	s.bus.Publish(ctx, events.LeadNoteCreated{
		BaseEvent:  events.NewBaseEvent(),
		LeadID:     leadID,
		NoteID:     note.ID,
		ProviderID: lead.ServiceProviderID,
		Author:     actorRef(actor),
		NoteType:   note.Type,
	})
	return note, nil
}

// UpdateNote edits a comment. Only the original author may edit, and only
// comment notes are editable.
func (s *Service) UpdateNote(ctx context.Context, actor httpkit.Actor, noteID uuid.UUID, body string) (domain.Note, error) {
	note, err := s.repo.GetNote(ctx, noteID)
	if err != nil {
		if errors.Is(err, repository.ErrNoteNotFound) {
			return domain.Note{}, apperr.NotFound("note not found").WithOp("leads.UpdateNote")
		}
		return domain.Note{}, apperr.Wrap(apperr.KindInternal, "failed to load note", err).WithOp("leads.UpdateNote")
	}
	if note.AuthorID != actor.ID || note.AuthorKind != string(actor.Kind) {
		return domain.Note{}, apperr.Forbidden("only the author can edit a note").WithOp("leads.UpdateNote")
	}
	if note.Type != domain.NoteTypeComment {
		return domain.Note{}, apperr.Forbidden("lifecycle notes cannot be edited").WithOp("leads.UpdateNote")
	}

	updated, err := s.repo.UpdateNoteBody(ctx, noteID, body)
	if err != nil {
		if errors.Is(err, repository.ErrNoteNotFound) {
			return domain.Note{}, apperr.NotFound("note not found").WithOp("leads.UpdateNote")
		}
		return domain.Note{}, apperr.Wrap(apperr.KindInternal, "failed to update note", err).WithOp("leads.UpdateNote")
	}
	return updated, nil
}

// DeleteNote removes a comment. Only the original author may delete.
func (s *Service) DeleteNote(ctx context.Context, actor httpkit.Actor, noteID uuid.UUID) error {
	note, err := s.repo.GetNote(ctx, noteID)
	if err != nil {
		if errors.Is(err, repository.ErrNoteNotFound) {
			return apperr.NotFound("note not found").WithOp("leads.DeleteNote")
		}
		return apperr.Wrap(apperr.KindInternal, "failed to load note", err).WithOp("leads.DeleteNote")
	}
	if note.AuthorID != actor.ID || note.AuthorKind != string(actor.Kind) {
		return apperr.Forbidden("only the author can delete a note").WithOp("leads.DeleteNote")
	}
	if note.Type != domain.NoteTypeComment {
		return apperr.Forbidden("lifecycle notes cannot be deleted").WithOp("leads.DeleteNote")
	}

	if err := s.repo.DeleteNote(ctx, noteID); err != nil {
		if errors.Is(err, repository.ErrNoteNotFound) {
			return apperr.NotFound("note not found").WithOp("leads.DeleteNote")
		}
		return apperr.Wrap(apperr.KindInternal, "failed to delete note", err).WithOp("leads.DeleteNote")
	}
	return nil
}

// ListNotes returns the full note timeline for a lead the actor can see.
func (s *Service) ListNotes(ctx context.Context, actor httpkit.Actor, leadID uuid.UUID) ([]domain.Note, error) {
	if _, err := s.Get(ctx, actor, leadID); err != nil {
		return nil, err
	}
	notes, err := s.repo.ListNotes(ctx, leadID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list notes", err).WithOp("leads.ListNotes")
	}
	return notes, nil
}
