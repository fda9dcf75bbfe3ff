package repository

import (
	"context"
	"encoding/json"

	"github.com/sanjaykhatri/lead-management-backend/internal/leads/domain"

	"github.com/google/uuid"
)

// LogActivityParams describes one append-only audit record.
type LogActivityParams struct {
	LeadID      uuid.UUID
	EventType   string
	ActorKind   string
	ActorID     *uuid.UUID
	ActorName   string
	Description string
	Metadata    map[string]any
}

// Activity event types.
const (
	ActivitySubmitted     = "lead.submitted"
	ActivityAssigned      = "lead.assigned"
	ActivityReassigned    = "lead.reassigned"
	ActivityStatusChanged = "lead.status_changed"
)

func (r *Repository) LogActivity(ctx context.Context, params LogActivityParams) error {
	var metadata []byte
	if params.Metadata != nil {
		var err error
		metadata, err = json.Marshal(params.Metadata)
		if err != nil {
			return err
		}
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO activity_logs (lead_id, event_type, actor_kind, actor_id, actor_name, description, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		params.LeadID, params.EventType, params.ActorKind, params.ActorID,
		params.ActorName, params.Description, metadata)
	return err
}

func (r *Repository) ListActivity(ctx context.Context, leadID uuid.UUID) ([]domain.ActivityEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, event_type, actor_kind, actor_id, actor_name, description, metadata, created_at
		FROM activity_logs
		WHERE lead_id = $1
		ORDER BY created_at DESC`,
		leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]domain.ActivityEntry, 0)
	for rows.Next() {
		var e domain.ActivityEntry
		var metadata []byte
		if err := rows.Scan(&e.ID, &e.LeadID, &e.EventType, &e.ActorKind, &e.ActorID,
			&e.ActorName, &e.Description, &metadata, &e.CreatedAt); err != nil {
			return nil, err
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &e.Metadata); err != nil {
				return nil, err
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
