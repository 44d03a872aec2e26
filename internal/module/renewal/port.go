package renewal

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/servostack/paydesk/internal/platform/plan"
	"github.com/servostack/paydesk/internal/platform/transaction"
	"github.com/servostack/paydesk/pkg/money"
)

// Repository defines the transaction persistence renewals need
type Repository interface {
	// CreateBatch persists all legs of a renewal order atomically
	CreateBatch(ctx context.Context, txs []*transaction.Transaction) error

	// GetByTransactionID retrieves a transaction by its business id
	GetByTransactionID(ctx context.Context, transactionID string) (*transaction.Transaction, error)

	// ListByGroup retrieves all legs of a renewal group in creation order
	ListByGroup(ctx context.Context, groupID uuid.UUID) ([]*transaction.Transaction, error)

	// ListPendingRenewals retrieves all pending renewal transactions in creation order
	ListPendingRenewals(ctx context.Context) ([]*transaction.Transaction, error)

	// ResolveGroup marks every pending leg of a group completed or failed
	ResolveGroup(ctx context.Context, groupID uuid.UUID, status transaction.Status, verifiedBy uuid.UUID, reason *string) error

	// ApproveGroup applies an approval as one database transaction: the
	// wallet debit, the completion of every pending leg, and the plan
	// extension either all land or none do, so a retried approval never
	// debits twice.
	ApproveGroup(ctx context.Context, req ApproveGroupRequest) error
}

// ApproveGroupRequest carries everything an approval changes
type ApproveGroupRequest struct {
	GroupID     uuid.UUID
	VerifiedBy  uuid.UUID
	UserID      uuid.UUID
	WalletDebit money.Paise
	PlanID      uuid.UUID
	NewExpiry   time.Time
}

// WalletService is the slice of the wallet platform renewals use
type WalletService interface {
	Balance(ctx context.Context, userID uuid.UUID) (money.Paise, error)
}

// PlanRepository is the slice of the plan platform renewals use
type PlanRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*plan.Plan, error)
}
