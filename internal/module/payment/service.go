package payment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/servostack/paydesk/internal/module/renewal"
	"github.com/servostack/paydesk/internal/platform/plan"
	"github.com/servostack/paydesk/pkg/config"
	"github.com/servostack/paydesk/pkg/logger"
	"github.com/servostack/paydesk/pkg/money"
)

// PlanGetter is the slice of the plan platform checkout uses
type PlanGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*plan.Plan, error)
}

// BalanceGetter is the slice of the wallet platform checkout uses
type BalanceGetter interface {
	Balance(ctx context.Context, userID uuid.UUID) (money.Paise, error)
}

// RenewalCreator turns a confirmed checkout into pending transactions
type RenewalCreator interface {
	CreateOrder(ctx context.Context, userID uuid.UUID, req renewal.CreateOrderRequest) (*renewal.Order, error)
}

// Service drives a renewal checkout: resolve the funding split, hold the
// attempt while the user completes any external UPI payment, then submit
// the pending transactions for admin verification.
type Service struct {
	plans    PlanGetter
	wallets  BalanceGetter
	renewals RenewalCreator
	channels *config.ChannelsConfig
	store    *SessionStore
	log      *logger.Logger

	mu       sync.Mutex
	inflight map[DisplayToken]struct{}
}

// NewService creates a new payment checkout service
func NewService(
	plans PlanGetter,
	wallets BalanceGetter,
	renewals RenewalCreator,
	channels *config.ChannelsConfig,
	store *SessionStore,
	log *logger.Logger,
) *Service {
	return &Service{
		plans:    plans,
		wallets:  wallets,
		renewals: renewals,
		channels: channels,
		store:    store,
		log:      log.WithField("service", "payment"),
		inflight: make(map[DisplayToken]struct{}),
	}
}

// InitiateResult is what the client needs to complete the chosen channel
type InitiateResult struct {
	AttemptID DisplayToken `json:"attemptId"`
	Plan      FundingPlan  `json:"fundingPlan"`
	QRPayload string       `json:"qrPayload,omitempty"`
	State     State        `json:"state"`
}

// Initiate resolves the funding split for a plan renewal and opens a
// checkout attempt. QR checkouts get the upi:// payload encoding exactly
// the QR amount from the plan.
func (s *Service) Initiate(ctx context.Context, userID, planID uuid.UUID, channel Channel) (*InitiateResult, error) {
	if !channel.IsValid() {
		return nil, ErrInvalidChannel
	}

	p, err := s.plans.GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, plan.ErrUnauthorizedAccess
	}

	balance, err := s.wallets.Balance(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check wallet balance: %w", err)
	}

	fundingPlan, err := PlanFunding(p.RenewalCost, balance, channel)
	if err != nil {
		return nil, err
	}

	attempt := NewAttempt(userID, planID, channel, fundingPlan, time.Now())

	result := &InitiateResult{
		AttemptID: attempt.Token,
		Plan:      fundingPlan,
	}

	if channel == ChannelQR {
		payload, err := BuildQRPayload(s.channels.Default(), fundingPlan.QRAmount, attempt.Token)
		if err != nil {
			return nil, err
		}
		if err := attempt.ShowQR(); err != nil {
			return nil, err
		}
		result.QRPayload = payload
	}

	result.State = attempt.State
	s.store.Put(attempt)

	s.log.Info("checkout initiated",
		"plan_id", planID,
		"channel", channel,
		"method", fundingPlan.Method,
		"attempt", attempt.Token)

	return result, nil
}

// ConfirmResult reports the submitted order in its pending-approval state
type ConfirmResult struct {
	AttemptID DisplayToken   `json:"attemptId"`
	State     State          `json:"state"`
	Order     *renewal.Order `json:"order"`
}

// Confirm completes a checkout attempt. QR attempts must supply the UPI
// reference the user received after paying externally; wallet attempts
// submit directly. On success the attempt reaches its terminal pending
// state and refuses resubmission.
func (s *Service) Confirm(ctx context.Context, userID uuid.UUID, token DisplayToken, upiRef string) (*ConfirmResult, error) {
	// One Confirm per attempt at a time: the guard serializes access to
	// the attempt state, so two concurrent submissions cannot both pass
	// the terminal check and create the order twice.
	if err := s.begin(token); err != nil {
		return nil, err
	}
	defer s.end(token)

	attempt, ok := s.store.Get(token)
	if !ok {
		return nil, ErrAttemptNotFound
	}
	if attempt.UserID != userID {
		return nil, ErrAttemptOwner
	}
	if attempt.IsTerminal() {
		return nil, ErrAlreadySubmitted
	}

	if attempt.Channel == ChannelQR {
		if err := attempt.SubmitUPIRef(upiRef); err != nil {
			return nil, err
		}
	}

	order, err := s.renewals.CreateOrder(ctx, userID, renewal.CreateOrderRequest{
		PlanID:           attempt.PlanID,
		Method:           attempt.Plan.Method,
		WalletAmount:     attempt.Plan.WalletAmount,
		UPIAmount:        attempt.Plan.UPIAmount,
		UPITransactionID: attempt.UPITransactionID,
		Reference:        string(attempt.Token),
	})
	if err != nil {
		// Leave the attempt resumable so a transient failure does not
		// lock the user out
		if attempt.Channel == ChannelQR {
			attempt.State = StateQRDisplayed
		}
		return nil, err
	}

	if err := attempt.MarkPending(); err != nil {
		return nil, err
	}

	s.log.Info("checkout submitted for approval",
		"attempt", attempt.Token,
		"group_id", order.GroupID)

	return &ConfirmResult{
		AttemptID: attempt.Token,
		State:     attempt.State,
		Order:     order,
	}, nil
}

// begin acquires the per-attempt in-flight guard
func (s *Service) begin(token DisplayToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, busy := s.inflight[token]; busy {
		return ErrAttemptBusy
	}
	s.inflight[token] = struct{}{}
	return nil
}

func (s *Service) end(token DisplayToken) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, token)
}
