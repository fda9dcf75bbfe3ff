package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound is returned when a location does not exist.
	ErrNotFound = errors.New("location not found")
	// ErrSlugTaken is returned when another location already uses the slug.
	ErrSlugTaken = errors.New("location slug already in use")
)

// Location is a service area that leads are submitted against.
type Location struct {
	ID                  uuid.UUID
	Name                string
	Slug                string
	Address             string
	AssignmentAlgorithm string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// CreateParams describes a new location.
type CreateParams struct {
	Name                string
	Slug                string
	Address             string
	AssignmentAlgorithm string
}

// UpdateParams describes a location update. Nil fields are left unchanged.
type UpdateParams struct {
	Name                *string
	Slug                *string
	Address             *string
	AssignmentAlgorithm *string
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const locationColumns = `id, name, slug, address, assignment_algorithm, created_at, updated_at`

func scanLocation(row pgx.Row) (Location, error) {
	var l Location
	err := row.Scan(&l.ID, &l.Name, &l.Slug, &l.Address, &l.AssignmentAlgorithm, &l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Location{}, ErrNotFound
	}
	return l, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *Repository) Create(ctx context.Context, params CreateParams) (Location, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO locations (name, slug, address, assignment_algorithm)
		VALUES ($1, $2, $3, $4)
		RETURNING `+locationColumns,
		params.Name, params.Slug, params.Address, params.AssignmentAlgorithm)
	location, err := scanLocation(row)
	if isUniqueViolation(err) {
		return Location{}, ErrSlugTaken
	}
	return location, err
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Location, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+locationColumns+` FROM locations WHERE id = $1`, id)
	return scanLocation(row)
}

func (r *Repository) GetBySlug(ctx context.Context, slug string) (Location, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+locationColumns+` FROM locations WHERE slug = $1`, slug)
	return scanLocation(row)
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, params UpdateParams) (Location, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE locations SET
			name = COALESCE($2, name),
			slug = COALESCE($3, slug),
			address = COALESCE($4, address),
			assignment_algorithm = COALESCE($5, assignment_algorithm),
			updated_at = now()
		WHERE id = $1
		RETURNING `+locationColumns,
		id, params.Name, params.Slug, params.Address, params.AssignmentAlgorithm)
	location, err := scanLocation(row)
	if isUniqueViolation(err) {
		return Location{}, ErrSlugTaken
	}
	return location, err
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM locations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) List(ctx context.Context) ([]Location, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+locationColumns+` FROM locations ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	locations := make([]Location, 0)
	for rows.Next() {
		var l Location
		if err := rows.Scan(&l.ID, &l.Name, &l.Slug, &l.Address, &l.AssignmentAlgorithm, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		locations = append(locations, l)
	}
	return locations, rows.Err()
}

// LinkProvider attaches a provider to the location's routing pool.
// Linking an already linked pair is a no-op.
func (r *Repository) LinkProvider(ctx context.Context, locationID, providerID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO location_service_providers (location_id, service_provider_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`,
		locationID, providerID)
	return err
}

// UnlinkProvider detaches a provider from the location's routing pool.
func (r *Repository) UnlinkProvider(ctx context.Context, locationID, providerID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM location_service_providers
		WHERE location_id = $1 AND service_provider_id = $2`,
		locationID, providerID)
	return err
}

// LinkedProviderIDs returns the provider ids attached to a location.
func (r *Repository) LinkedProviderIDs(ctx context.Context, locationID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT service_provider_id FROM location_service_providers
		WHERE location_id = $1`,
		locationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
