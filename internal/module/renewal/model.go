package renewal

import (
	"time"

	"github.com/google/uuid"

	"github.com/servostack/paydesk/internal/platform/plan"
	"github.com/servostack/paydesk/internal/platform/transaction"
	"github.com/servostack/paydesk/pkg/money"
)

// CreateOrderRequest carries a validated checkout submission. Amounts are
// the split the client committed to; the service re-verifies them against
// the plan's renewal cost before anything is persisted.
type CreateOrderRequest struct {
	PlanID           uuid.UUID
	Method           transaction.Method
	WalletAmount     money.Paise
	UPIAmount        money.Paise
	UPITransactionID string

	// Reference is the client-generated display token, kept for traceability
	Reference string
}

// Order is a created renewal order awaiting admin approval. Combined orders
// span two pending transactions; the first (wallet) leg's business id is the
// handle admins act on.
type Order struct {
	GroupID      uuid.UUID                  `json:"groupId"`
	PlanID       uuid.UUID                  `json:"planId"`
	Method       transaction.Method         `json:"paymentMethod"`
	Legs         []*transaction.Transaction `json:"transactions"`
	WalletAmount money.Paise                `json:"walletAmount"`
	UPIAmount    money.Paise                `json:"upiAmount"`
	Total        money.Paise                `json:"totalAmount"`
}

// HandleID is the business transaction id admins approve or reject by
func (o *Order) HandleID() string {
	if len(o.Legs) == 0 {
		return ""
	}
	return o.Legs[0].TransactionID
}

// PendingRenewal is the admin view of one logical renewal awaiting a
// decision. Combined renewals surface a breakdown but a single handle; the
// legs are never independently actionable.
type PendingRenewal struct {
	TransactionID    string             `json:"transactionId"`
	PlanID           uuid.UUID          `json:"planId"`
	PlanName         string             `json:"planName,omitempty"`
	UserID           transaction.Ref    `json:"userId"`
	Method           transaction.Method `json:"paymentMethod"`
	WalletAmount     money.Paise        `json:"walletAmount"`
	UPIAmount        money.Paise        `json:"upiAmount"`
	Total            money.Paise        `json:"totalAmount"`
	UPITransactionID string             `json:"upiTransactionId,omitempty"`
	ExpectedWindow   *plan.Window       `json:"expectedWindow,omitempty"`
	Date             time.Time          `json:"date"`
}

// Resolution reports the effect of an approved renewal
type Resolution struct {
	TransactionID string      `json:"transactionId"`
	PlanID        uuid.UUID   `json:"planId"`
	NewExpiry     time.Time   `json:"newExpiry"`
	Window        plan.Window `json:"window"`
}
