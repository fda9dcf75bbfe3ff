// Package repository implements billing persistence: plans, the per-provider
// subscription projection, and the append-only history.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrPlanNotFound is returned when a plan does not exist.
	ErrPlanNotFound = errors.New("subscription plan not found")
	// ErrSubscriptionNotFound is returned when a provider has no subscription row.
	ErrSubscriptionNotFound = errors.New("subscription not found")
	// ErrPlanInUse is returned when deleting a plan that subscriptions reference.
	ErrPlanInUse = errors.New("subscription plan is in use")
	// ErrPriceIDTaken is returned when a plan reuses another plan's price id.
	ErrPriceIDTaken = errors.New("processor price id already in use")
)

// Plan is a purchasable subscription tier.
type Plan struct {
	ID               uuid.UUID
	Name             string
	ProcessorPriceID string
	Price            float64
	BillingInterval  string
	TrialDays        int
	Features         []string
	IsActive         bool
	SortOrder        int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Subscription is the local projection of a provider's processor subscription.
type Subscription struct {
	ID                      uuid.UUID
	ServiceProviderID       uuid.UUID
	ProcessorCustomerID     string
	ProcessorSubscriptionID *string
	Status                  string
	PlanID                  *uuid.UUID
	CurrentPeriodEnd        *time.Time
	TrialEndsAt             *time.Time
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// HistoryEntry is one append-only billing audit record.
type HistoryEntry struct {
	ID                      uuid.UUID
	ServiceProviderID       uuid.UUID
	PlanID                  *uuid.UUID
	ProcessorSubscriptionID *string
	ProcessorCustomerID     *string
	EventType               string
	Status                  string
	Amount                  *float64
	Currency                string
	Description             *string
	Metadata                map[string]any
	EventDate               time.Time
}

// History event types.
const (
	HistoryCreated    = "created"
	HistoryUpdated    = "updated"
	HistoryCanceled   = "canceled"
	HistoryUpgraded   = "upgraded"
	HistoryDowngraded = "downgraded"
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

// ---- plans ----

const planColumns = `id, name, processor_price_id, price, billing_interval, trial_days,
	features, is_active, sort_order, created_at, updated_at`

func scanPlan(row pgx.Row) (Plan, error) {
	var p Plan
	var features []byte
	err := row.Scan(&p.ID, &p.Name, &p.ProcessorPriceID, &p.Price, &p.BillingInterval,
		&p.TrialDays, &features, &p.IsActive, &p.SortOrder, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Plan{}, ErrPlanNotFound
	}
	if err != nil {
		return Plan{}, err
	}
	if len(features) > 0 {
		if err := json.Unmarshal(features, &p.Features); err != nil {
			return Plan{}, err
		}
	}
	return p, nil
}

// PlanParams describes a plan write.
type PlanParams struct {
	Name             string
	ProcessorPriceID string
	Price            float64
	BillingInterval  string
	TrialDays        int
	Features         []string
	IsActive         bool
	SortOrder        int
}

func (r *Repository) CreatePlan(ctx context.Context, params PlanParams) (Plan, error) {
	features, err := json.Marshal(params.Features)
	if err != nil {
		return Plan{}, err
	}
	if params.Features == nil {
		features = []byte(`[]`)
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO subscription_plans (name, processor_price_id, price, billing_interval,
			trial_days, features, is_active, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+planColumns,
		params.Name, params.ProcessorPriceID, params.Price, params.BillingInterval,
		params.TrialDays, features, params.IsActive, params.SortOrder)
	plan, err := scanPlan(row)
	if isUniqueViolation(err) {
		return Plan{}, ErrPriceIDTaken
	}
	return plan, err
}

func (r *Repository) UpdatePlan(ctx context.Context, id uuid.UUID, params PlanParams) (Plan, error) {
	features, err := json.Marshal(params.Features)
	if err != nil {
		return Plan{}, err
	}
	if params.Features == nil {
		features = []byte(`[]`)
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE subscription_plans SET
			name = $2, processor_price_id = $3, price = $4, billing_interval = $5,
			trial_days = $6, features = $7, is_active = $8, sort_order = $9,
			updated_at = now()
		WHERE id = $1
		RETURNING `+planColumns,
		id, params.Name, params.ProcessorPriceID, params.Price, params.BillingInterval,
		params.TrialDays, features, params.IsActive, params.SortOrder)
	plan, err := scanPlan(row)
	if isUniqueViolation(err) {
		return Plan{}, ErrPriceIDTaken
	}
	return plan, err
}

func (r *Repository) DeletePlan(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM subscription_plans WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrPlanInUse
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPlanNotFound
	}
	return nil
}

func (r *Repository) GetPlan(ctx context.Context, id uuid.UUID) (Plan, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+planColumns+` FROM subscription_plans WHERE id = $1`, id)
	return scanPlan(row)
}

func (r *Repository) GetPlanByPriceID(ctx context.Context, priceID string) (Plan, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+planColumns+` FROM subscription_plans WHERE processor_price_id = $1`, priceID)
	return scanPlan(row)
}

// ListPlans returns plans ordered for display. When activeOnly is set,
// retired plans are omitted.
func (r *Repository) ListPlans(ctx context.Context, activeOnly bool) ([]Plan, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+planColumns+` FROM subscription_plans
		WHERE NOT $1 OR is_active
		ORDER BY sort_order, price`,
		activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	plans := make([]Plan, 0)
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, rows.Err()
}

// ---- subscriptions ----

const subscriptionColumns = `id, service_provider_id, processor_customer_id, processor_subscription_id,
	status, subscription_plan_id, current_period_end, trial_ends_at, created_at, updated_at`

func scanSubscription(row pgx.Row) (Subscription, error) {
	var s Subscription
	err := row.Scan(&s.ID, &s.ServiceProviderID, &s.ProcessorCustomerID, &s.ProcessorSubscriptionID,
		&s.Status, &s.PlanID, &s.CurrentPeriodEnd, &s.TrialEndsAt, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Subscription{}, ErrSubscriptionNotFound
	}
	return s, err
}

// UpsertSubscriptionParams projects processor state onto the provider's
// single subscription row.
type UpsertSubscriptionParams struct {
	ServiceProviderID       uuid.UUID
	ProcessorCustomerID     string
	ProcessorSubscriptionID *string
	Status                  string
	PlanID                  *uuid.UUID
	CurrentPeriodEnd        *time.Time
	TrialEndsAt             *time.Time
}

// UpsertSubscription writes the provider's subscription row. The UNIQUE
// constraint on service_provider_id makes this idempotent: replays of the
// same processor state settle on the same row.
func (r *Repository) UpsertSubscription(ctx context.Context, params UpsertSubscriptionParams) (Subscription, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO subscriptions (service_provider_id, processor_customer_id,
			processor_subscription_id, status, subscription_plan_id, current_period_end, trial_ends_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (service_provider_id) DO UPDATE SET
			processor_customer_id = EXCLUDED.processor_customer_id,
			processor_subscription_id = EXCLUDED.processor_subscription_id,
			status = EXCLUDED.status,
			subscription_plan_id = EXCLUDED.subscription_plan_id,
			current_period_end = EXCLUDED.current_period_end,
			trial_ends_at = EXCLUDED.trial_ends_at,
			updated_at = now()
		RETURNING `+subscriptionColumns,
		params.ServiceProviderID, params.ProcessorCustomerID, params.ProcessorSubscriptionID,
		params.Status, params.PlanID, params.CurrentPeriodEnd, params.TrialEndsAt)
	return scanSubscription(row)
}

func (r *Repository) GetSubscriptionByProvider(ctx context.Context, providerID uuid.UUID) (Subscription, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+subscriptionColumns+` FROM subscriptions WHERE service_provider_id = $1`,
		providerID)
	return scanSubscription(row)
}

func (r *Repository) GetSubscriptionByCustomer(ctx context.Context, customerID string) (Subscription, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+subscriptionColumns+` FROM subscriptions
		WHERE processor_customer_id = $1
		ORDER BY created_at DESC
		LIMIT 1`,
		customerID)
	return scanSubscription(row)
}

// ---- history ----

// HistoryParams describes one append-only billing audit record.
type HistoryParams struct {
	ServiceProviderID       uuid.UUID
	PlanID                  *uuid.UUID
	ProcessorSubscriptionID *string
	ProcessorCustomerID     *string
	EventType               string
	Status                  string
	Amount                  *float64
	Currency                string
	Description             *string
	Metadata                map[string]any
}

func (r *Repository) AppendHistory(ctx context.Context, params HistoryParams) error {
	var metadata []byte
	if params.Metadata != nil {
		var err error
		metadata, err = json.Marshal(params.Metadata)
		if err != nil {
			return err
		}
	}
	currency := params.Currency
	if currency == "" {
		currency = "usd"
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO subscription_history (service_provider_id, subscription_plan_id,
			processor_subscription_id, processor_customer_id, event_type, status,
			amount, currency, description, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		params.ServiceProviderID, params.PlanID, params.ProcessorSubscriptionID,
		params.ProcessorCustomerID, params.EventType, params.Status,
		params.Amount, currency, params.Description, metadata)
	return err
}

func (r *Repository) ListHistory(ctx context.Context, providerID uuid.UUID, limit int) ([]HistoryEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, service_provider_id, subscription_plan_id, processor_subscription_id,
			processor_customer_id, event_type, status, amount, currency, description,
			metadata, event_date
		FROM subscription_history
		WHERE service_provider_id = $1
		ORDER BY event_date DESC
		LIMIT $2`,
		providerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]HistoryEntry, 0)
	for rows.Next() {
		var e HistoryEntry
		var metadata []byte
		if err := rows.Scan(&e.ID, &e.ServiceProviderID, &e.PlanID, &e.ProcessorSubscriptionID,
			&e.ProcessorCustomerID, &e.EventType, &e.Status, &e.Amount, &e.Currency,
			&e.Description, &metadata, &e.EventDate); err != nil {
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
