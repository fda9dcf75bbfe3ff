// Package repository implements lead persistence, including the locked
// provider selection used on intake.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/sanjaykhatri/lead-management-backend/internal/leads/assignment"
	"github.com/sanjaykhatri/lead-management-backend/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound is returned when a lead does not exist.
	ErrNotFound = errors.New("lead not found")
	// ErrNoteNotFound is returned when a note does not exist.
	ErrNoteNotFound = errors.New("note not found")
	// ErrLocationNotFound is returned when the target location does not exist.
	ErrLocationNotFound = errors.New("location not found")
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const leadColumns = `id, location_id, service_provider_id, name, phone, email, zip_code,
	project_type, timing, notes, status, assigned_at, created_at, updated_at`

func scanLead(row pgx.Row) (domain.Lead, error) {
	var l domain.Lead
	var status string
	err := row.Scan(&l.ID, &l.LocationID, &l.ServiceProviderID, &l.Name, &l.Phone, &l.Email,
		&l.ZipCode, &l.ProjectType, &l.Timing, &l.Notes, &status, &l.AssignedAt, &l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Lead{}, ErrNotFound
	}
	l.Status = domain.Status(status)
	return l, err
}

// CreateParams describes a new lead from the public intake form.
type CreateParams struct {
	LocationID  uuid.UUID
	Name        string
	Phone       string
	Email       string
	ZipCode     string
	ProjectType string
	Timing      string
	Notes       *string
}

// eligibleCandidates loads the providers that can receive a lead for the
// location: linked, active, and holding a live subscription (active, or any
// status with trial time left). Open lead counts ride along for load
// balancing.
func eligibleCandidates(ctx context.Context, tx pgx.Tx, locationID uuid.UUID) ([]assignment.Candidate, error) {
	rows, err := tx.Query(ctx, `
		SELECT sp.id, sp.name, sp.zip_code,
			(SELECT count(*) FROM leads l
			 WHERE l.service_provider_id = sp.id AND l.status IN ('new', 'contacted')) AS open_leads
		FROM service_providers sp
		JOIN location_service_providers lsp ON lsp.service_provider_id = sp.id
		LEFT JOIN subscriptions s ON s.service_provider_id = sp.id
		WHERE lsp.location_id = $1
		  AND sp.is_active
		  AND (s.status = 'active' OR (s.trial_ends_at IS NOT NULL AND s.trial_ends_at > now()))
		ORDER BY sp.created_at, sp.id`,
		locationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	candidates := make([]assignment.Candidate, 0)
	for rows.Next() {
		var c assignment.Candidate
		if err := rows.Scan(&c.ID, &c.Name, &c.ZipCode, &c.OpenLeads); err != nil {
			return nil, err
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

// lastAssignedProvider finds the provider who received the location's most
// recent lead among the current candidates. Leads held by providers that have
// since dropped out of the eligible set are skipped so the rotation continues
// instead of resetting.
func lastAssignedProvider(ctx context.Context, tx pgx.Tx, locationID uuid.UUID, candidateIDs []uuid.UUID) (*uuid.UUID, error) {
	if len(candidateIDs) == 0 {
		return nil, nil
	}
	var id uuid.UUID
	err := tx.QueryRow(ctx, `
		SELECT service_provider_id FROM leads
		WHERE location_id = $1 AND service_provider_id = ANY($2)
		ORDER BY created_at DESC
		LIMIT 1`,
		locationID, candidateIDs).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// ProviderEligible reports whether a provider can act on leads: account
// active with a live subscription, the same predicate candidate filtering
// uses.
func (r *Repository) ProviderEligible(ctx context.Context, providerID uuid.UUID) (bool, error) {
	var eligible bool
	err := r.pool.QueryRow(ctx, `
		SELECT sp.is_active AND COALESCE(s.status = 'active' OR s.trial_ends_at > now(), false)
		FROM service_providers sp
		LEFT JOIN subscriptions s ON s.service_provider_id = sp.id
		WHERE sp.id = $1`,
		providerID).Scan(&eligible)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return eligible, nil
}

// CreateWithAssignment inserts a lead and routes it in one transaction. The
// location row is locked first so concurrent submissions to the same location
// pick providers sequentially.
func (r *Repository) CreateWithAssignment(ctx context.Context, params CreateParams) (domain.Lead, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Lead{}, err
	}
	defer tx.Rollback(ctx)

	var algorithm string
	err = tx.QueryRow(ctx, `
		SELECT assignment_algorithm FROM locations WHERE id = $1 FOR UPDATE`,
		params.LocationID).Scan(&algorithm)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Lead{}, ErrLocationNotFound
	}
	if err != nil {
		return domain.Lead{}, err
	}

	candidates, err := eligibleCandidates(ctx, tx, params.LocationID)
	if err != nil {
		return domain.Lead{}, err
	}
	candidateIDs := make([]uuid.UUID, len(candidates))
	for i, c := range candidates {
		candidateIDs[i] = c.ID
	}
	last, err := lastAssignedProvider(ctx, tx, params.LocationID, candidateIDs)
	if err != nil {
		return domain.Lead{}, err
	}

	providerID := assignment.Select(domain.Algorithm(algorithm), candidates, last, params.ZipCode)

	var assignedAt *time.Time
	if providerID != nil {
		now := time.Now().UTC()
		assignedAt = &now
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO leads (location_id, service_provider_id, name, phone, email, zip_code,
			project_type, timing, notes, assigned_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+leadColumns,
		params.LocationID, providerID, params.Name, params.Phone, params.Email, params.ZipCode,
		params.ProjectType, params.Timing, params.Notes, assignedAt)
	lead, err := scanLead(row)
	if err != nil {
		return domain.Lead{}, err
	}

	return lead, tx.Commit(ctx)
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (domain.Lead, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)
	return scanLead(row)
}

// ListFilter narrows lead listings.
type ListFilter struct {
	LocationID *uuid.UUID
	ProviderID *uuid.UUID
	Status     *domain.Status
	Limit      int
	Offset     int
}

func (r *Repository) List(ctx context.Context, filter ListFilter) ([]domain.Lead, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+leadColumns+` FROM leads
		WHERE ($1::uuid IS NULL OR location_id = $1)
		  AND ($2::uuid IS NULL OR service_provider_id = $2)
		  AND ($3::text IS NULL OR status = $3)
		ORDER BY created_at DESC
		LIMIT $4 OFFSET $5`,
		filter.LocationID, filter.ProviderID, filter.Status, limit, filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := make([]domain.Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

// UpdateStatus moves a lead to a new status.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.Status) (domain.Lead, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE leads SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+leadColumns,
		id, status)
	return scanLead(row)
}

// Reassign moves a lead to a different provider and stamps assigned_at.
func (r *Repository) Reassign(ctx context.Context, id uuid.UUID, providerID uuid.UUID) (domain.Lead, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE leads SET service_provider_id = $2, assigned_at = now(), updated_at = now()
		WHERE id = $1
		RETURNING `+leadColumns,
		id, providerID)
	return scanLead(row)
}
