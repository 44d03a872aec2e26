package wallet

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for wallet balance reads. Mutations
// ride the transaction-resolution statements in the storage layer.
type Repository interface {
	// Get retrieves the account for a user, ErrAccountNotFound if absent
	Get(ctx context.Context, userID uuid.UUID) (*Account, error)
}
