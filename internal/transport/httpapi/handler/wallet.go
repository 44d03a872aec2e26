package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/servostack/paydesk/internal/module/verification"
	"github.com/servostack/paydesk/internal/platform/transaction"
	"github.com/servostack/paydesk/internal/platform/watch"
	"github.com/servostack/paydesk/internal/transport/httpapi/middleware"
	"github.com/servostack/paydesk/pkg/money"
)

// VerificationService defines the verification queue operations the
// wallet handler needs
type VerificationService interface {
	ListPending(ctx context.Context) ([]*verification.ClassifiedTransaction, error)
	History(ctx context.Context) ([]*verification.ClassifiedTransaction, error)
	Approve(ctx context.Context, req verification.ApproveRequest, adminID uuid.UUID) (*verification.ClassifiedTransaction, error)
	Reject(ctx context.Context, transactionID, reason string, adminID uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	BulkDelete(ctx context.Context, ids []uuid.UUID) verification.BulkResult
}

// BalanceService exposes wallet balances
type BalanceService interface {
	Balance(ctx context.Context, userID uuid.UUID) (money.Paise, error)
}

// SnapshotReader serves the latest pending queue snapshot
type SnapshotReader interface {
	Get(ctx context.Context) (*watch.Snapshot, bool, error)
}

// WalletHandler handles wallet balance and verification queue requests
type WalletHandler struct {
	verifications VerificationService
	balances      BalanceService
	snapshots     SnapshotReader
}

// NewWalletHandler creates a new wallet handler
func NewWalletHandler(verifications VerificationService, balances BalanceService, snapshots SnapshotReader) *WalletHandler {
	return &WalletHandler{
		verifications: verifications,
		balances:      balances,
		snapshots:     snapshots,
	}
}

// BalanceResponse is a wallet balance in paise plus its rupee display form
type BalanceResponse struct {
	Balance money.Paise `json:"balance"`
	Display string      `json:"display"`
}

// GetBalance handles GET /wallet/balance
func (h *WalletHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	balance, err := h.balances.Balance(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to get wallet balance")
		return
	}

	respondData(w, http.StatusOK, BalanceResponse{Balance: balance, Display: balance.String()})
}

// GetPendingTransactions handles GET /wallet/pending-transactions
func (h *WalletHandler) GetPendingTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := h.verifications.ListPending(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list pending transactions")
		return
	}

	respondData(w, http.StatusOK, txs)
}

// GetPendingSummary handles GET /wallet/pending-summary. It serves the
// watcher's latest snapshot without touching the database; an empty
// snapshot means no poll has completed yet.
func (h *WalletHandler) GetPendingSummary(w http.ResponseWriter, r *http.Request) {
	snap, ok, err := h.snapshots.Get(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to get pending summary")
		return
	}
	if !ok {
		snap = &watch.Snapshot{TransactionIDs: []string{}}
	}

	respondData(w, http.StatusOK, snap)
}

// ApproveTransactionRequest is the admin approval request body
type ApproveTransactionRequest struct {
	TransactionID    string `json:"transactionId"`
	UserID           string `json:"userId"`
	SkipWalletCredit bool   `json:"skipWalletCredit"`
}

// ApproveTransaction handles POST /wallet/approve-transaction
func (h *WalletHandler) ApproveTransaction(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req ApproveTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.TransactionID == "" {
		respondError(w, http.StatusBadRequest, "transactionId is required")
		return
	}

	tx, err := h.verifications.Approve(r.Context(), verification.ApproveRequest{
		TransactionID:    req.TransactionID,
		UserID:           req.UserID,
		SkipWalletCredit: req.SkipWalletCredit,
	}, adminID)
	if err != nil {
		respondVerificationError(w, err)
		return
	}

	respondData(w, http.StatusOK, tx)
}

// RejectTransactionRequest is the admin rejection request body
type RejectTransactionRequest struct {
	TransactionID   string `json:"transactionId"`
	RejectionReason string `json:"rejectionReason"`
}

// RejectTransaction handles POST /wallet/reject-transaction
func (h *WalletHandler) RejectTransaction(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req RejectTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.TransactionID == "" {
		respondError(w, http.StatusBadRequest, "transactionId is required")
		return
	}

	if err := h.verifications.Reject(r.Context(), req.TransactionID, req.RejectionReason, adminID); err != nil {
		respondVerificationError(w, err)
		return
	}

	respondMessage(w, http.StatusOK, "transaction rejected")
}

// GetTransactions handles GET /wallet/transactions
func (h *WalletHandler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := h.verifications.History(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list transactions")
		return
	}

	respondData(w, http.StatusOK, txs)
}

// DeleteTransaction handles DELETE /wallet/transactions/{id}
func (h *WalletHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}

	if err := h.verifications.Delete(r.Context(), id); err != nil {
		respondVerificationError(w, err)
		return
	}

	respondMessage(w, http.StatusOK, "transaction deleted")
}

// BulkDeleteRequest is the batch deletion request body
type BulkDeleteRequest struct {
	TransactionIDs []string `json:"transactionIds"`
}

// BulkDeleteTransactions handles POST /wallet/transactions/bulk-delete.
// Unparseable ids count into the failed tally instead of failing the batch.
func (h *WalletHandler) BulkDeleteTransactions(w http.ResponseWriter, r *http.Request) {
	var req BulkDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.TransactionIDs) == 0 {
		respondError(w, http.StatusBadRequest, "transactionIds is required")
		return
	}

	var invalid int
	ids := make([]uuid.UUID, 0, len(req.TransactionIDs))
	for _, raw := range req.TransactionIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			invalid++
			continue
		}
		ids = append(ids, id)
	}

	result := h.verifications.BulkDelete(r.Context(), ids)
	result.Failed += invalid

	respondData(w, http.StatusOK, result)
}

// respondVerificationError maps verification queue errors to status codes
func respondVerificationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, transaction.ErrNotFound):
		respondError(w, http.StatusNotFound, "transaction not found")
	case errors.Is(err, transaction.ErrNotPending):
		respondError(w, http.StatusConflict, "transaction is not pending")
	case errors.Is(err, verification.ErrProcessing):
		respondError(w, http.StatusConflict, "transaction is already being processed")
	case errors.Is(err, verification.ErrUserMismatch):
		respondError(w, http.StatusBadRequest, "transaction does not belong to the given user")
	case errors.Is(err, verification.ErrCreditFlagMismatch):
		respondError(w, http.StatusBadRequest, "skipWalletCredit contradicts the transaction classification")
	case errors.Is(err, verification.ErrEmptyReason):
		respondError(w, http.StatusBadRequest, "rejection reason is required")
	default:
		respondError(w, http.StatusInternalServerError, "verification operation failed")
	}
}
