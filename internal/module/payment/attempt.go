package payment

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// State is the lifecycle state of a checkout attempt
type State string

const (
	StateIdle                  State = "idle"
	StateQRDisplayed           State = "qr_displayed"
	StateVerificationSubmitted State = "verification_submitted"
	StateSubmittedPending      State = "submitted_pending"
)

// Attempt tracks one renewal checkout from channel choice to pending
// approval. submitted_pending is terminal: once reached the attempt refuses
// every further transition, so a retry needs a fresh attempt.
//
// Wallet channel:  idle -> submitted_pending
// QR channel:      idle -> qr_displayed -> verification_submitted -> submitted_pending
type Attempt struct {
	Token            DisplayToken
	UserID           uuid.UUID
	PlanID           uuid.UUID
	Channel          Channel
	Plan             FundingPlan
	State            State
	UPITransactionID string
	CreatedAt        time.Time
}

// NewAttempt starts a checkout attempt for an already-resolved funding plan
func NewAttempt(userID, planID uuid.UUID, channel Channel, plan FundingPlan, now time.Time) *Attempt {
	return &Attempt{
		Token:     NewDisplayToken(now),
		UserID:    userID,
		PlanID:    planID,
		Channel:   channel,
		Plan:      plan,
		State:     StateIdle,
		CreatedAt: now,
	}
}

// ShowQR marks the QR code as presented to the user
func (a *Attempt) ShowQR() error {
	if a.State == StateSubmittedPending {
		return ErrAlreadySubmitted
	}
	if a.Channel != ChannelQR || a.State != StateIdle {
		return ErrInvalidTransition
	}
	a.State = StateQRDisplayed
	return nil
}

// SubmitUPIRef records the user-supplied UPI reference after an external payment
func (a *Attempt) SubmitUPIRef(upiRef string) error {
	if a.State == StateSubmittedPending {
		return ErrAlreadySubmitted
	}
	if a.Channel != ChannelQR || a.State != StateQRDisplayed {
		return ErrInvalidTransition
	}
	if strings.TrimSpace(upiRef) == "" {
		return ErrMissingUPIRef
	}
	a.UPITransactionID = strings.TrimSpace(upiRef)
	a.State = StateVerificationSubmitted
	return nil
}

// MarkPending moves the attempt to its terminal state once the pending
// transaction records exist
func (a *Attempt) MarkPending() error {
	switch {
	case a.State == StateSubmittedPending:
		return ErrAlreadySubmitted
	case a.Channel == ChannelWallet && a.State == StateIdle:
	case a.Channel == ChannelQR && a.State == StateVerificationSubmitted:
	default:
		return ErrInvalidTransition
	}
	a.State = StateSubmittedPending
	return nil
}

// IsTerminal reports whether the attempt permits no further transitions
func (a *Attempt) IsTerminal() bool {
	return a.State == StateSubmittedPending
}
