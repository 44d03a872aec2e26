package watch

import (
	"context"

	"github.com/servostack/paydesk/internal/platform/transaction"
)

// PendingLister provides the authoritative set of transactions awaiting
// verification.
type PendingLister interface {
	ListPending(ctx context.Context) ([]*transaction.Transaction, error)
}

// SnapshotStore persists the latest pending snapshot. Replace overwrites
// whatever snapshot was stored before; readers only ever see the most
// recent poll result.
type SnapshotStore interface {
	Replace(ctx context.Context, snap *Snapshot) error
}
