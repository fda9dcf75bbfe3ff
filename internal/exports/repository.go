// Package exports builds admin CSV exports of the lead pipeline.
package exports

import (
	"context"
	"time"

	"github.com/sanjaykhatri/lead-management-backend/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Row is one flattened lead for export, with names resolved.
type Row struct {
	ID           uuid.UUID
	LocationName string
	ProviderName *string
	Name         string
	Phone        string
	Email        string
	ZipCode      string
	ProjectType  string
	Timing       string
	Status       string
	AssignedAt   *time.Time
	CreatedAt    time.Time
}

// Filter narrows the export.
type Filter struct {
	LocationID *uuid.UUID
	Status     *domain.Status
	From       *time.Time
	To         *time.Time
}

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// maxExportRows bounds a single export run.
const maxExportRows = 10000

func (r *Repository) ListForExport(ctx context.Context, filter Filter) ([]Row, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT l.id, loc.name, sp.name, l.name, l.phone, l.email, l.zip_code,
			l.project_type, l.timing, l.status, l.assigned_at, l.created_at
		FROM leads l
		JOIN locations loc ON loc.id = l.location_id
		LEFT JOIN service_providers sp ON sp.id = l.service_provider_id
		WHERE ($1::uuid IS NULL OR l.location_id = $1)
		  AND ($2::text IS NULL OR l.status = $2)
		  AND ($3::timestamptz IS NULL OR l.created_at >= $3)
		  AND ($4::timestamptz IS NULL OR l.created_at < $4)
		ORDER BY l.created_at DESC
		LIMIT $5`,
		filter.LocationID, statusArg(filter.Status), filter.From, filter.To, maxExportRows)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]Row, 0)
	for rows.Next() {
		var row Row
		if err := rows.Scan(&row.ID, &row.LocationName, &row.ProviderName, &row.Name,
			&row.Phone, &row.Email, &row.ZipCode, &row.ProjectType, &row.Timing,
			&row.Status, &row.AssignedAt, &row.CreatedAt); err != nil {
			return nil, err
		}
		results = append(results, row)
	}
	return results, rows.Err()
}

func statusArg(status *domain.Status) *string {
	if status == nil {
		return nil
	}
	s := string(*status)
	return &s
}
