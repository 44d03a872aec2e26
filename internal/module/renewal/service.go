package renewal

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/servostack/paydesk/internal/platform/plan"
	"github.com/servostack/paydesk/internal/platform/transaction"
	"github.com/servostack/paydesk/internal/platform/wallet"
	"github.com/servostack/paydesk/pkg/logger"
	"github.com/servostack/paydesk/pkg/money"
)

// Service owns the renewal order lifecycle: creation of pending legs,
// the admin pending view, and approval/rejection of a logical renewal as
// a single unit.
type Service struct {
	repo    Repository
	wallets WalletService
	plans   PlanRepository
	log     *logger.Logger

	mu         sync.Mutex
	processing map[string]struct{}
}

// NewService creates a new renewal service
func NewService(repo Repository, wallets WalletService, plans PlanRepository, log *logger.Logger) *Service {
	return &Service{
		repo:       repo,
		wallets:    wallets,
		plans:      plans,
		log:        log.WithField("service", "renewal"),
		processing: make(map[string]struct{}),
	}
}

// CreateOrder validates a renewal submission and persists its pending legs.
// A combined order becomes two transactions sharing a group id, wallet leg
// first; single-source orders become one transaction.
func (s *Service) CreateOrder(ctx context.Context, userID uuid.UUID, req CreateOrderRequest) (*Order, error) {
	p, err := s.plans.GetByID(ctx, req.PlanID)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, plan.ErrUnauthorizedAccess
	}

	cost := p.RenewalCost
	if err := s.validateAmounts(ctx, userID, cost, req); err != nil {
		return nil, err
	}

	reference := req.Reference
	if reference == "" {
		reference = uuid.NewString()
	}

	groupID := uuid.New()
	now := time.Now()
	base := transaction.Transaction{
		UserID:         transaction.RefID(userID.String()),
		PlanID:         &req.PlanID,
		RenewalGroupID: &groupID,
		Type:           transaction.TypePayment,
		PaymentMethod:  req.Method,
		Status:         transaction.StatusPending,
		Date:           now,
	}

	var legs []*transaction.Transaction
	switch req.Method {
	case transaction.MethodCombined:
		walletLeg := base
		walletLeg.ID = uuid.New()
		walletLeg.TransactionID = reference
		walletLeg.Amount = req.WalletAmount

		upiLeg := base
		upiLeg.ID = uuid.New()
		upiLeg.TransactionID = reference + "-U"
		upiLeg.Amount = req.UPIAmount
		upiLeg.UPITransactionID = req.UPITransactionID

		legs = []*transaction.Transaction{&walletLeg, &upiLeg}

	default:
		leg := base
		leg.ID = uuid.New()
		leg.TransactionID = reference
		leg.Amount = cost
		leg.UPITransactionID = req.UPITransactionID
		legs = []*transaction.Transaction{&leg}
	}

	for _, leg := range legs {
		if err := leg.Validate(); err != nil {
			return nil, err
		}
	}

	if err := s.repo.CreateBatch(ctx, legs); err != nil {
		return nil, fmt.Errorf("failed to create renewal order: %w", err)
	}

	s.log.Info("renewal order created",
		"plan_id", req.PlanID,
		"method", req.Method,
		"group_id", groupID,
		"legs", len(legs))

	return &Order{
		GroupID:      groupID,
		PlanID:       req.PlanID,
		Method:       req.Method,
		Legs:         legs,
		WalletAmount: req.WalletAmount,
		UPIAmount:    req.UPIAmount,
		Total:        cost,
	}, nil
}

// validateAmounts enforces the funding split invariants at paise precision
func (s *Service) validateAmounts(ctx context.Context, userID uuid.UUID, cost money.Paise, req CreateOrderRequest) error {
	switch req.Method {
	case transaction.MethodWallet:
		if req.WalletAmount != cost || req.UPIAmount != 0 {
			return ErrAmountMismatch
		}

	case transaction.MethodUPI:
		if req.UPIAmount != cost || req.WalletAmount != 0 {
			return ErrAmountMismatch
		}
		if strings.TrimSpace(req.UPITransactionID) == "" {
			return ErrMissingUPIRef
		}
		return nil

	case transaction.MethodCombined:
		if req.WalletAmount+req.UPIAmount != cost {
			return ErrAmountMismatch
		}
		if !req.WalletAmount.IsPositive() || !req.UPIAmount.IsPositive() {
			return ErrAmountMismatch
		}
		if strings.TrimSpace(req.UPITransactionID) == "" {
			return ErrMissingUPIRef
		}

	default:
		return ErrInvalidMethod
	}

	// Wallet leg must be covered by the balance known at initiation
	if req.WalletAmount.IsPositive() {
		balance, err := s.wallets.Balance(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to check wallet balance: %w", err)
		}
		if balance < req.WalletAmount {
			return &wallet.InsufficientBalanceError{Required: req.WalletAmount, Balance: balance}
		}
	}

	return nil
}

// PendingRenewals returns the admin view of renewals awaiting a decision,
// combined legs folded into one entry each.
func (s *Service) PendingRenewals(ctx context.Context) ([]*PendingRenewal, error) {
	txs, err := s.repo.ListPendingRenewals(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending renewals: %w", err)
	}

	grouped := make(map[uuid.UUID]*PendingRenewal)
	var ordered []*PendingRenewal

	for _, tx := range txs {
		groupID := *tx.RenewalGroupID
		entry, seen := grouped[groupID]
		if !seen {
			entry = &PendingRenewal{
				TransactionID: tx.TransactionID,
				Method:        tx.PaymentMethod,
				UserID:        tx.UserID,
				Date:          tx.Date,
			}
			if tx.PlanID != nil {
				entry.PlanID = *tx.PlanID
				if p, err := s.plans.GetByID(ctx, *tx.PlanID); err == nil {
					entry.PlanName = p.Name
					w := p.RenewalWindow()
					entry.ExpectedWindow = &w
				} else {
					s.log.Warn("failed to load plan for pending renewal", "plan_id", *tx.PlanID, "error", err)
				}
			}
			grouped[groupID] = entry
			ordered = append(ordered, entry)
		}

		entry.Total += tx.Amount
		if tx.UPITransactionID != "" {
			entry.UPIAmount += tx.Amount
			entry.UPITransactionID = tx.UPITransactionID
		} else if tx.PaymentMethod == transaction.MethodUPI {
			entry.UPIAmount += tx.Amount
		} else {
			entry.WalletAmount += tx.Amount
		}
	}

	return ordered, nil
}

// Approve resolves the whole renewal group behind the given handle: debits
// the wallet leg, completes every leg, and extends the plan by exactly 30
// days from its current expiry.
func (s *Service) Approve(ctx context.Context, transactionID string, adminID uuid.UUID) (*Resolution, error) {
	if err := s.begin(transactionID); err != nil {
		return nil, err
	}
	defer s.end(transactionID)

	tx, legs, err := s.loadGroup(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	userID, err := uuid.Parse(tx.UserID.Key())
	if err != nil {
		return nil, fmt.Errorf("invalid user reference on renewal: %w", err)
	}

	var walletAmount money.Paise
	for _, leg := range legs {
		if leg.UPITransactionID == "" && leg.PaymentMethod != transaction.MethodUPI {
			walletAmount += leg.Amount
		}
	}

	p, err := s.plans.GetByID(ctx, *tx.PlanID)
	if err != nil {
		return nil, fmt.Errorf("failed to load plan for renewal: %w", err)
	}
	window := p.RenewalWindow()

	// Debit, leg completion, and plan extension land together or not at
	// all, so a transient failure leaves the group pending and retryable.
	err = s.repo.ApproveGroup(ctx, ApproveGroupRequest{
		GroupID:     *tx.RenewalGroupID,
		VerifiedBy:  adminID,
		UserID:      userID,
		WalletDebit: walletAmount,
		PlanID:      p.ID,
		NewExpiry:   window.End,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("renewal approved",
		"transaction_id", transactionID,
		"plan_id", p.ID,
		"wallet_debit", walletAmount.String(),
		"new_expiry", window.End)

	return &Resolution{
		TransactionID: transactionID,
		PlanID:        p.ID,
		NewExpiry:     window.End,
		Window:        window,
	}, nil
}

// Reject fails the whole renewal group behind the given handle. The reason
// is mandatory and stored verbatim.
func (s *Service) Reject(ctx context.Context, transactionID, reason string, adminID uuid.UUID) error {
	if strings.TrimSpace(reason) == "" {
		return ErrEmptyReason
	}

	if err := s.begin(transactionID); err != nil {
		return err
	}
	defer s.end(transactionID)

	tx, _, err := s.loadGroup(ctx, transactionID)
	if err != nil {
		return err
	}

	if err := s.repo.ResolveGroup(ctx, *tx.RenewalGroupID, transaction.StatusFailed, adminID, &reason); err != nil {
		return fmt.Errorf("failed to reject renewal group: %w", err)
	}

	s.log.Info("renewal rejected", "transaction_id", transactionID, "reason", reason)
	return nil
}

// loadGroup fetches the handle transaction and validates it heads a pending
// renewal group
func (s *Service) loadGroup(ctx context.Context, transactionID string) (*transaction.Transaction, []*transaction.Transaction, error) {
	tx, err := s.repo.GetByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, nil, err
	}
	if !tx.IsRenewal() || tx.PlanID == nil {
		return nil, nil, ErrNotRenewal
	}
	if tx.Status != transaction.StatusPending {
		return nil, nil, transaction.ErrNotPending
	}

	legs, err := s.repo.ListByGroup(ctx, *tx.RenewalGroupID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load renewal group: %w", err)
	}
	if len(legs) == 0 {
		return nil, nil, transaction.ErrNotFound
	}
	if legs[0].TransactionID != transactionID {
		return nil, nil, ErrNotHandle
	}

	return tx, legs, nil
}

// begin acquires the per-renewal processing guard
func (s *Service) begin(transactionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, busy := s.processing[transactionID]; busy {
		return ErrProcessing
	}
	s.processing[transactionID] = struct{}{}
	return nil
}

func (s *Service) end(transactionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.processing, transactionID)
}
