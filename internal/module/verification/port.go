package verification

import (
	"context"

	"github.com/google/uuid"

	"github.com/servostack/paydesk/internal/platform/transaction"
	"github.com/servostack/paydesk/pkg/money"
)

// Repository defines the transaction persistence the verification queue needs
type Repository interface {
	// GetByTransactionID retrieves a transaction by its business id
	GetByTransactionID(ctx context.Context, transactionID string) (*transaction.Transaction, error)

	// ListPending retrieves all pending transactions, oldest first
	ListPending(ctx context.Context) ([]*transaction.Transaction, error)

	// ListAll retrieves the full history, newest first
	ListAll(ctx context.Context) ([]*transaction.Transaction, error)

	// MarkCompleted resolves a pending transaction as approved. A positive
	// credit is added to the owner's wallet in the same database transaction,
	// so a failed resolution never leaves a credit behind and a retry never
	// credits twice. Must fail with transaction.ErrNotPending if the
	// transaction is no longer pending.
	MarkCompleted(ctx context.Context, id uuid.UUID, verifiedBy uuid.UUID, credit money.Paise) error

	// MarkFailed resolves a pending transaction as rejected with a reason
	MarkFailed(ctx context.Context, id uuid.UUID, verifiedBy uuid.UUID, reason string) error

	// Delete removes a transaction record
	Delete(ctx context.Context, id uuid.UUID) error
}
