package transaction

import (
	"time"

	"github.com/google/uuid"

	"github.com/servostack/paydesk/pkg/money"
)

// Type distinguishes money entering the platform from money paying for something
type Type string

const (
	TypeDeposit Type = "deposit"
	TypePayment Type = "payment"
)

// Method is the funding channel a transaction was paid through
type Method string

const (
	MethodWallet   Method = "wallet"
	MethodUPI      Method = "upi"
	MethodCombined Method = "combined"
)

// Status represents the transaction lifecycle state.
// Pending transactions await an admin decision; completed and failed are terminal.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// IsTerminal reports whether the status permits no further mutation
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Transaction is a single ledger record awaiting or past admin verification
type Transaction struct {
	ID               uuid.UUID   `json:"id"`
	TransactionID    string      `json:"transactionId"`
	UPITransactionID string      `json:"upiTransactionId,omitempty"`
	UserID           Ref         `json:"userId"`
	OrderID          Ref         `json:"orderId,omitempty"`
	PlanID           *uuid.UUID  `json:"planId,omitempty"`
	RenewalGroupID   *uuid.UUID  `json:"renewalGroupId,omitempty"`
	Amount           money.Paise `json:"amount"`
	Type             Type        `json:"type"`
	PaymentMethod    Method      `json:"paymentMethod"`

	IsInstallmentPayment        bool `json:"isInstallmentPayment"`
	IsPartialInstallmentPayment bool `json:"isPartialInstallmentPayment"`
	InstallmentNumber           *int `json:"installmentNumber,omitempty"`

	Status          Status     `json:"status"`
	RejectionReason *string    `json:"rejectionReason,omitempty"`
	VerifiedBy      *uuid.UUID `json:"verifiedBy,omitempty"`

	Date      time.Time `json:"date"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsRenewal reports whether the transaction belongs to a renewal order
func (t *Transaction) IsRenewal() bool {
	return t.RenewalGroupID != nil
}

// Validate checks the fields every stored transaction must carry
func (t *Transaction) Validate() error {
	if t.TransactionID == "" {
		return ErrMissingTransactionID
	}
	if t.UserID.IsZero() {
		return ErrMissingUser
	}
	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}

	switch t.Type {
	case TypeDeposit, TypePayment:
	default:
		return ErrInvalidType
	}

	switch t.PaymentMethod {
	case MethodWallet, MethodUPI, MethodCombined:
	default:
		return ErrInvalidMethod
	}

	switch t.Status {
	case StatusPending, StatusCompleted, StatusFailed:
	default:
		return ErrInvalidStatus
	}

	return nil
}
