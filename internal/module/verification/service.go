package verification

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/servostack/paydesk/internal/platform/transaction"
	"github.com/servostack/paydesk/pkg/logger"
	"github.com/servostack/paydesk/pkg/money"
)

// Service owns the admin verification queue: pending transactions are
// approved or rejected exactly once, and only approvals of wallet-credit
// categories touch the user's balance.
type Service struct {
	repo Repository
	log  *logger.Logger

	mu         sync.Mutex
	processing map[string]struct{}
}

// NewService creates a new verification service
func NewService(repo Repository, log *logger.Logger) *Service {
	return &Service{
		repo:       repo,
		log:        log.WithField("service", "verification"),
		processing: make(map[string]struct{}),
	}
}

// ClassifiedTransaction pairs a transaction with its display classification
// so every admin view labels the same record identically
type ClassifiedTransaction struct {
	*transaction.Transaction
	Classification transaction.Classification `json:"classification"`
}

func classify(txs []*transaction.Transaction) []*ClassifiedTransaction {
	out := make([]*ClassifiedTransaction, 0, len(txs))
	for _, tx := range txs {
		out = append(out, &ClassifiedTransaction{
			Transaction:    tx,
			Classification: transaction.Classify(tx),
		})
	}
	return out
}

// ListPending returns the verification queue with classifications attached
func (s *Service) ListPending(ctx context.Context) ([]*ClassifiedTransaction, error) {
	txs, err := s.repo.ListPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending transactions: %w", err)
	}
	return classify(txs), nil
}

// History returns the full transaction history with classifications attached
func (s *Service) History(ctx context.Context) ([]*ClassifiedTransaction, error) {
	txs, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list transaction history: %w", err)
	}
	return classify(txs), nil
}

// ApproveRequest is an admin approval decision
type ApproveRequest struct {
	TransactionID    string
	UserID           string
	SkipWalletCredit bool
}

// Approve resolves a pending transaction as completed. The classifier is
// the authority on whether the wallet gets credited; a submitted
// skipWalletCredit flag that contradicts it is refused rather than obeyed.
func (s *Service) Approve(ctx context.Context, req ApproveRequest, adminID uuid.UUID) (*ClassifiedTransaction, error) {
	if err := s.begin(req.TransactionID); err != nil {
		return nil, err
	}
	defer s.end(req.TransactionID)

	tx, err := s.repo.GetByTransactionID(ctx, req.TransactionID)
	if err != nil {
		return nil, err
	}
	if tx.Status != transaction.StatusPending {
		return nil, transaction.ErrNotPending
	}
	if tx.UserID.Key() != req.UserID {
		return nil, ErrUserMismatch
	}

	class := transaction.Classify(tx)
	if req.SkipWalletCredit == class.IsWalletCredit {
		return nil, ErrCreditFlagMismatch
	}

	// The credit rides the status update: the repository applies both in
	// one database transaction, so a transient failure leaves the record
	// pending with the wallet untouched and the approval can be retried.
	var credit money.Paise
	if class.IsWalletCredit {
		credit = tx.Amount
	}
	if err := s.repo.MarkCompleted(ctx, tx.ID, adminID, credit); err != nil {
		return nil, err
	}
	tx.Status = transaction.StatusCompleted
	tx.VerifiedBy = &adminID

	s.log.Info("transaction approved",
		"transaction_id", req.TransactionID,
		"category", class.Category,
		"wallet_credit", class.IsWalletCredit)

	return &ClassifiedTransaction{Transaction: tx, Classification: class}, nil
}

// Reject resolves a pending transaction as failed. The reason is mandatory
// and stored verbatim.
func (s *Service) Reject(ctx context.Context, transactionID, reason string, adminID uuid.UUID) error {
	if strings.TrimSpace(reason) == "" {
		return ErrEmptyReason
	}

	if err := s.begin(transactionID); err != nil {
		return err
	}
	defer s.end(transactionID)

	tx, err := s.repo.GetByTransactionID(ctx, transactionID)
	if err != nil {
		return err
	}
	if tx.Status != transaction.StatusPending {
		return transaction.ErrNotPending
	}

	if err := s.repo.MarkFailed(ctx, tx.ID, adminID, reason); err != nil {
		return err
	}

	s.log.Info("transaction rejected", "transaction_id", transactionID, "reason", reason)
	return nil
}

// Delete removes a single transaction record
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("transaction deleted", "id", id)
	return nil
}

// BulkResult tallies a best-effort batch deletion
type BulkResult struct {
	Deleted int `json:"deleted"`
	Failed  int `json:"failed"`
}

// BulkDelete removes a set of transactions as independent concurrent
// requests. Failures are counted, not rolled back.
func (s *Service) BulkDelete(ctx context.Context, ids []uuid.UUID) BulkResult {
	var deleted, failed atomic.Int64
	var wg sync.WaitGroup

	for _, id := range ids {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			if err := s.repo.Delete(ctx, id); err != nil {
				s.log.Warn("bulk delete failed for transaction", "id", id, "error", err)
				failed.Add(1)
				return
			}
			deleted.Add(1)
		}(id)
	}
	wg.Wait()

	result := BulkResult{Deleted: int(deleted.Load()), Failed: int(failed.Load())}
	s.log.Info("bulk delete finished", "deleted", result.Deleted, "failed", result.Failed)
	return result
}

// begin acquires the per-transaction processing guard so an in-flight
// approve or reject blocks a second decision for the same id only
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
