// Package inapp persists and serves the in-portal notification feed.
// Admins share one broadcast channel (recipient id = nil UUID); providers
// each have their own.
package inapp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sanjaykhatri/lead-management-backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	opCreate      = "notification.inapp.repository.create"
	opList        = "notification.inapp.repository.list"
	opCountUnread = "notification.inapp.repository.count_unread"
	opMarkRead    = "notification.inapp.repository.mark_read"
	opMarkAllRead = "notification.inapp.repository.mark_all_read"
)

type Notification struct {
	ID            uuid.UUID  `json:"id"`
	RecipientKind string     `json:"recipientKind"`
	RecipientID   uuid.UUID  `json:"recipientId"`
	Title         string     `json:"title"`
	Body          string     `json:"body"`
	Category      string     `json:"category"`
	ResourceID    *uuid.UUID `json:"resourceId,omitempty"`
	IsRead        bool       `json:"isRead"`
	CreatedAt     time.Time  `json:"createdAt"`
}

type CreateParams struct {
	RecipientKind string
	RecipientID   uuid.UUID
	Title         string
	Body          string
	Category      string // "info", "success", "warning", "error"
	ResourceID    *uuid.UUID
}

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const notificationColumns = `id, recipient_kind, recipient_id, title, body, category, resource_id, is_read, created_at`

func (r *Repository) Create(ctx context.Context, p CreateParams) (Notification, error) {
	if p.RecipientKind == "" {
		return Notification{}, apperr.Validation("recipient kind is required").WithOp(opCreate)
	}
	if p.Title == "" || p.Body == "" {
		return Notification{}, apperr.Validation("title and body are required").WithOp(opCreate)
	}

	category := p.Category
	if category == "" {
		category = "info"
	}

	var n Notification
	err := r.pool.QueryRow(ctx, `
		INSERT INTO notifications (recipient_kind, recipient_id, title, body, category, resource_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+notificationColumns,
		p.RecipientKind, p.RecipientID, p.Title, p.Body, category, p.ResourceID,
	).Scan(&n.ID, &n.RecipientKind, &n.RecipientID, &n.Title, &n.Body, &n.Category,
		&n.ResourceID, &n.IsRead, &n.CreatedAt)
	if err != nil {
		return Notification{}, apperr.Internal(fmt.Sprintf("create notification failed: %v", err)).WithOp(opCreate)
	}
	return n, nil
}

func (r *Repository) List(ctx context.Context, recipientKind string, recipientID uuid.UUID, limit, offset int) ([]Notification, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var total int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM notifications WHERE recipient_kind = $1 AND recipient_id = $2`,
		recipientKind, recipientID).Scan(&total)
	if err != nil {
		return nil, 0, apperr.Internal(fmt.Sprintf("count notifications failed: %v", err)).WithOp(opList)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+notificationColumns+`
		FROM notifications
		WHERE recipient_kind = $1 AND recipient_id = $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`,
		recipientKind, recipientID, limit, offset)
	if err != nil {
		return nil, 0, apperr.Internal(fmt.Sprintf("list notifications failed: %v", err)).WithOp(opList)
	}
	defer rows.Close()

	notifications := make([]Notification, 0, limit)
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.RecipientKind, &n.RecipientID, &n.Title, &n.Body,
			&n.Category, &n.ResourceID, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, 0, apperr.Internal(fmt.Sprintf("scan notification failed: %v", err)).WithOp(opList)
		}
		notifications = append(notifications, n)
	}
	if rows.Err() != nil {
		return nil, 0, apperr.Internal(fmt.Sprintf("iterate notifications failed: %v", rows.Err())).WithOp(opList)
	}
	return notifications, total, nil
}

func (r *Repository) CountUnread(ctx context.Context, recipientKind string, recipientID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM notifications
		WHERE recipient_kind = $1 AND recipient_id = $2 AND NOT is_read`,
		recipientKind, recipientID).Scan(&count)
	if err != nil {
		return 0, apperr.Internal(fmt.Sprintf("count unread failed: %v", err)).WithOp(opCountUnread)
	}
	return count, nil
}

var ErrNotFound = errors.New("notification not found")

// MarkRead flips one notification in the caller's own channel.
func (r *Repository) MarkRead(ctx context.Context, id uuid.UUID, recipientKind string, recipientID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE notifications SET is_read = true
		WHERE id = $1 AND recipient_kind = $2 AND recipient_id = $3`,
		id, recipientKind, recipientID)
	if err != nil {
		return apperr.Internal(fmt.Sprintf("mark read failed: %v", err)).WithOp(opMarkRead)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) MarkAllRead(ctx context.Context, recipientKind string, recipientID uuid.UUID) (int, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE notifications SET is_read = true
		WHERE recipient_kind = $1 AND recipient_id = $2 AND NOT is_read`,
		recipientKind, recipientID)
	if err != nil {
		return 0, apperr.Internal(fmt.Sprintf("mark all read failed: %v", err)).WithOp(opMarkAllRead)
	}
	return int(tag.RowsAffected()), nil
}
