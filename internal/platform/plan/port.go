package plan

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for plan persistence
type Repository interface {
	// GetByID retrieves a plan by ID, ErrPlanNotFound if absent
	GetByID(ctx context.Context, id uuid.UUID) (*Plan, error)

	// ListByUserID retrieves all plans for a user
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]*Plan, error)

	// ExtendExpiry sets a new expiry on the plan
	ExtendExpiry(ctx context.Context, id uuid.UUID, newExpiry time.Time) error
}
