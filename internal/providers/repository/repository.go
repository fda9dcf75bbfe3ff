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
	// ErrNotFound is returned when a provider does not exist.
	ErrNotFound = errors.New("service provider not found")
	// ErrEmailTaken is returned when another provider already uses the email.
	ErrEmailTaken = errors.New("email already in use")
)

// Provider is a business that receives routed leads.
type Provider struct {
	ID        uuid.UUID
	Name      string
	Email     string
	Phone     string
	Address   string
	ZipCode   *string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateParams describes a new provider.
type CreateParams struct {
	Name    string
	Email   string
	Phone   string
	Address string
	ZipCode *string
}

// UpdateParams describes a provider update. Nil fields are left unchanged.
type UpdateParams struct {
	Name    *string
	Email   *string
	Phone   *string
	Address *string
	ZipCode *string
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const providerColumns = `id, name, email, phone, address, zip_code, is_active, created_at, updated_at`

func scanProvider(row pgx.Row) (Provider, error) {
	var p Provider
	err := row.Scan(&p.ID, &p.Name, &p.Email, &p.Phone, &p.Address, &p.ZipCode, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Provider{}, ErrNotFound
	}
	return p, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *Repository) Create(ctx context.Context, params CreateParams) (Provider, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO service_providers (name, email, phone, address, zip_code)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+providerColumns,
		params.Name, params.Email, params.Phone, params.Address, params.ZipCode)
	provider, err := scanProvider(row)
	if isUniqueViolation(err) {
		return Provider{}, ErrEmailTaken
	}
	return provider, err
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Provider, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+providerColumns+` FROM service_providers WHERE id = $1`, id)
	return scanProvider(row)
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, params UpdateParams) (Provider, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE service_providers SET
			name = COALESCE($2, name),
			email = COALESCE($3, email),
			phone = COALESCE($4, phone),
			address = COALESCE($5, address),
			zip_code = COALESCE($6, zip_code),
			updated_at = now()
		WHERE id = $1
		RETURNING `+providerColumns,
		id, params.Name, params.Email, params.Phone, params.Address, params.ZipCode)
	provider, err := scanProvider(row)
	if isUniqueViolation(err) {
		return Provider{}, ErrEmailTaken
	}
	return provider, err
}

// SetActive toggles whether the provider can receive new leads.
func (r *Repository) SetActive(ctx context.Context, id uuid.UUID, active bool) (Provider, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE service_providers SET is_active = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+providerColumns,
		id, active)
	return scanProvider(row)
}

func (r *Repository) List(ctx context.Context) ([]Provider, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+providerColumns+` FROM service_providers ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProviders(rows)
}

func collectProviders(rows pgx.Rows) ([]Provider, error) {
	providers := make([]Provider, 0)
	for rows.Next() {
		var p Provider
		if err := rows.Scan(&p.ID, &p.Name, &p.Email, &p.Phone, &p.Address, &p.ZipCode, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}
	return providers, rows.Err()
}
