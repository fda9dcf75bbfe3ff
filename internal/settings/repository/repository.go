package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a setting key does not exist.
var ErrNotFound = errors.New("setting not found")

// Setting is a single typed key/value configuration row.
type Setting struct {
	ID          uuid.UUID
	Key         string
	Value       string
	Type        string
	Group       string
	Description *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// UpsertParams describes a setting write.
type UpsertParams struct {
	Key         string
	Value       string
	Type        string
	Group       string
	Description *string
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const settingColumns = `id, key, value, type, group_name, description, created_at, updated_at`

func scanSetting(row pgx.Row) (Setting, error) {
	var s Setting
	err := row.Scan(&s.ID, &s.Key, &s.Value, &s.Type, &s.Group, &s.Description, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Setting{}, ErrNotFound
	}
	return s, err
}

func (r *Repository) Get(ctx context.Context, key string) (Setting, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+settingColumns+` FROM settings WHERE key = $1`, key)
	return scanSetting(row)
}

func (r *Repository) Upsert(ctx context.Context, params UpsertParams) (Setting, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO settings (key, value, type, group_name, description)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			type = EXCLUDED.type,
			group_name = EXCLUDED.group_name,
			description = COALESCE(EXCLUDED.description, settings.description),
			updated_at = now()
		RETURNING `+settingColumns,
		params.Key, params.Value, params.Type, params.Group, params.Description)
	return scanSetting(row)
}

// InsertIfAbsent seeds a default without clobbering operator overrides.
func (r *Repository) InsertIfAbsent(ctx context.Context, params UpsertParams) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO settings (key, value, type, group_name, description)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (key) DO NOTHING`,
		params.Key, params.Value, params.Type, params.Group, params.Description)
	return err
}

func (r *Repository) List(ctx context.Context) ([]Setting, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+settingColumns+` FROM settings ORDER BY group_name, key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSettings(rows)
}

func (r *Repository) ListByGroup(ctx context.Context, group string) ([]Setting, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+settingColumns+` FROM settings WHERE group_name = $1 ORDER BY key`, group)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSettings(rows)
}

func collectSettings(rows pgx.Rows) ([]Setting, error) {
	settings := make([]Setting, 0)
	for rows.Next() {
		var s Setting
		if err := rows.Scan(&s.ID, &s.Key, &s.Value, &s.Type, &s.Group, &s.Description, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		settings = append(settings, s)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return settings, nil
}
