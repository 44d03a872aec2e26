package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/servostack/paydesk/internal/platform/plan"
)

// PlanRepository implements the plan repository using PostgreSQL
type PlanRepository struct {
	pool *pgxpool.Pool
}

// NewPlanRepository creates a new PostgreSQL plan repository
func NewPlanRepository(pool *pgxpool.Pool) *PlanRepository {
	return &PlanRepository{pool: pool}
}

// GetByID retrieves a plan by ID
func (r *PlanRepository) GetByID(ctx context.Context, id uuid.UUID) (*plan.Plan, error) {
	query := `
		SELECT id, user_id, name, renewal_cost, expires_at, created_at, updated_at
		FROM plans
		WHERE id = $1
	`

	p := &plan.Plan{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.UserID,
		&p.Name,
		&p.RenewalCost,
		&p.ExpiresAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, plan.ErrPlanNotFound
		}
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}

	return p, nil
}

// ListByUserID retrieves all plans for a user, soonest expiry first
func (r *PlanRepository) ListByUserID(ctx context.Context, userID uuid.UUID) ([]*plan.Plan, error) {
	query := `
		SELECT id, user_id, name, renewal_cost, expires_at, created_at, updated_at
		FROM plans
		WHERE user_id = $1
		ORDER BY expires_at ASC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query plans: %w", err)
	}
	defer rows.Close()

	var plans []*plan.Plan
	for rows.Next() {
		p := &plan.Plan{}
		err := rows.Scan(
			&p.ID,
			&p.UserID,
			&p.Name,
			&p.RenewalCost,
			&p.ExpiresAt,
			&p.CreatedAt,
			&p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan plan: %w", err)
		}
		plans = append(plans, p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating plans: %w", err)
	}

	return plans, nil
}

// ExtendExpiry sets a new expiry on the plan
func (r *PlanRepository) ExtendExpiry(ctx context.Context, id uuid.UUID, newExpiry time.Time) error {
	query := `
		UPDATE plans
		SET expires_at = $2, updated_at = now()
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id, newExpiry)
	if err != nil {
		return fmt.Errorf("failed to extend plan expiry: %w", err)
	}
	if result.RowsAffected() == 0 {
		return plan.ErrPlanNotFound
	}

	return nil
}
