// Package analytics serves the admin dashboard: read-only aggregates over
// the lead pipeline.
package analytics

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StatusCount is one status bucket.
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// LocationCount aggregates leads per location.
type LocationCount struct {
	LocationID   uuid.UUID `json:"locationId"`
	LocationName string    `json:"locationName"`
	Count        int       `json:"count"`
}

// ProviderCount aggregates open and total leads per provider.
type ProviderCount struct {
	ProviderID   uuid.UUID `json:"providerId"`
	ProviderName string    `json:"providerName"`
	OpenLeads    int       `json:"openLeads"`
	TotalLeads   int       `json:"totalLeads"`
	ClosedLeads  int       `json:"closedLeads"`
}

// DayCount is one day in the intake series.
type DayCount struct {
	Day   time.Time `json:"day"`
	Count int       `json:"count"`
}

// Dashboard is the full admin overview.
type Dashboard struct {
	TotalLeads      int             `json:"totalLeads"`
	UnassignedLeads int             `json:"unassignedLeads"`
	ByStatus        []StatusCount   `json:"byStatus"`
	ByLocation      []LocationCount `json:"byLocation"`
	ByProvider      []ProviderCount `json:"byProvider"`
	LeadsPerDay     []DayCount      `json:"leadsPerDay"`
}

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Totals(ctx context.Context) (total, unassigned int, err error) {
	err = r.pool.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE service_provider_id IS NULL)
		FROM leads`).Scan(&total, &unassigned)
	return total, unassigned, err
}

func (r *Repository) CountByStatus(ctx context.Context) ([]StatusCount, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT status, COUNT(*)
		FROM leads
		GROUP BY status
		ORDER BY COUNT(*) DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make([]StatusCount, 0)
	for rows.Next() {
		var c StatusCount
		if err := rows.Scan(&c.Status, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

func (r *Repository) CountByLocation(ctx context.Context) ([]LocationCount, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT loc.id, loc.name, COUNT(l.id)
		FROM locations loc
		LEFT JOIN leads l ON l.location_id = loc.id
		GROUP BY loc.id, loc.name
		ORDER BY COUNT(l.id) DESC, loc.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make([]LocationCount, 0)
	for rows.Next() {
		var c LocationCount
		if err := rows.Scan(&c.LocationID, &c.LocationName, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

func (r *Repository) CountByProvider(ctx context.Context) ([]ProviderCount, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT sp.id, sp.name,
			COUNT(l.id) FILTER (WHERE l.status IN ('new', 'contacted')),
			COUNT(l.id),
			COUNT(l.id) FILTER (WHERE l.status = 'closed')
		FROM service_providers sp
		LEFT JOIN leads l ON l.service_provider_id = sp.id
		GROUP BY sp.id, sp.name
		ORDER BY COUNT(l.id) DESC, sp.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make([]ProviderCount, 0)
	for rows.Next() {
		var c ProviderCount
		if err := rows.Scan(&c.ProviderID, &c.ProviderName, &c.OpenLeads, &c.TotalLeads, &c.ClosedLeads); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// LeadsPerDay returns the daily intake series over the window, zero-filled
// by generate_series so the chart has no gaps.
func (r *Repository) LeadsPerDay(ctx context.Context, days int) ([]DayCount, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT d.day, COUNT(l.id)
		FROM generate_series(
			date_trunc('day', now()) - ($1 - 1) * INTERVAL '1 day',
			date_trunc('day', now()),
			INTERVAL '1 day') AS d(day)
		LEFT JOIN leads l ON date_trunc('day', l.created_at) = d.day
		GROUP BY d.day
		ORDER BY d.day`,
		days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make([]DayCount, 0, days)
	for rows.Next() {
		var c DayCount
		if err := rows.Scan(&c.Day, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}
