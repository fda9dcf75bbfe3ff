package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/sanjaykhatri/lead-management-backend/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const noteColumns = `id, lead_id, author_kind, author_id, author_name, type, body, metadata, created_at, updated_at`

func scanNote(row pgx.Row) (domain.Note, error) {
	var n domain.Note
	var metadata []byte
	err := row.Scan(&n.ID, &n.LeadID, &n.AuthorKind, &n.AuthorID, &n.AuthorName,
		&n.Type, &n.Body, &metadata, &n.CreatedAt, &n.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Note{}, ErrNoteNotFound
	}
	if err != nil {
		return domain.Note{}, err
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &n.Metadata); err != nil {
			return domain.Note{}, err
		}
	}
	return n, nil
}

// CreateNoteParams describes a new timeline entry on a lead.
type CreateNoteParams struct {
	LeadID     uuid.UUID
	AuthorKind string
	AuthorID   uuid.UUID
	AuthorName string
	Type       string
	Body       string
	Metadata   map[string]any
}

func (r *Repository) CreateNote(ctx context.Context, params CreateNoteParams) (domain.Note, error) {
	var metadata []byte
	if params.Metadata != nil {
		var err error
		metadata, err = json.Marshal(params.Metadata)
		if err != nil {
			return domain.Note{}, err
		}
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO lead_notes (lead_id, author_kind, author_id, author_name, type, body, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+noteColumns,
		params.LeadID, params.AuthorKind, params.AuthorID, params.AuthorName,
		params.Type, params.Body, metadata)
	return scanNote(row)
}

func (r *Repository) GetNote(ctx context.Context, id uuid.UUID) (domain.Note, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+noteColumns+` FROM lead_notes WHERE id = $1`, id)
	return scanNote(row)
}

// UpdateNoteBody edits a note's text. Only comment notes are editable; the
// lifecycle entries stay immutable.
func (r *Repository) UpdateNoteBody(ctx context.Context, id uuid.UUID, body string) (domain.Note, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE lead_notes SET body = $2, updated_at = now()
		WHERE id = $1 AND type = $3
		RETURNING `+noteColumns,
		id, body, domain.NoteTypeComment)
	return scanNote(row)
}

func (r *Repository) DeleteNote(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM lead_notes WHERE id = $1 AND type = $2`, id, domain.NoteTypeComment)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNoteNotFound
	}
	return nil
}

func (r *Repository) ListNotes(ctx context.Context, leadID uuid.UUID) ([]domain.Note, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+noteColumns+` FROM lead_notes
		WHERE lead_id = $1
		ORDER BY created_at DESC`,
		leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes := make([]domain.Note, 0)
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	return notes, rows.Err()
}
