package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/servostack/paydesk/internal/module/payment"
	"github.com/servostack/paydesk/internal/module/renewal"
	"github.com/servostack/paydesk/internal/platform/plan"
	"github.com/servostack/paydesk/internal/platform/transaction"
	"github.com/servostack/paydesk/internal/platform/wallet"
	"github.com/servostack/paydesk/internal/transport/httpapi/middleware"
)

// CheckoutService defines the checkout operations the renewal handler needs
type CheckoutService interface {
	Initiate(ctx context.Context, userID, planID uuid.UUID, channel payment.Channel) (*payment.InitiateResult, error)
	Confirm(ctx context.Context, userID uuid.UUID, token payment.DisplayToken, upiRef string) (*payment.ConfirmResult, error)
}

// RenewalService defines the admin renewal operations the handler needs
type RenewalService interface {
	PendingRenewals(ctx context.Context) ([]*renewal.PendingRenewal, error)
	Approve(ctx context.Context, transactionID string, adminID uuid.UUID) (*renewal.Resolution, error)
	Reject(ctx context.Context, transactionID, reason string, adminID uuid.UUID) error
}

// RenewalHandler handles plan renewal checkout and admin resolution
type RenewalHandler struct {
	checkout CheckoutService
	renewals RenewalService
}

// NewRenewalHandler creates a new renewal handler
func NewRenewalHandler(checkout CheckoutService, renewals RenewalService) *RenewalHandler {
	return &RenewalHandler{
		checkout: checkout,
		renewals: renewals,
	}
}

// InitiateRequest starts a renewal checkout for a plan
type InitiateRequest struct {
	PlanID  uuid.UUID `json:"planId"`
	Channel string    `json:"channel"`
}

// Initiate handles POST /renewals/initiate
func (h *RenewalHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req InitiateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PlanID == uuid.Nil {
		respondError(w, http.StatusBadRequest, "planId is required")
		return
	}

	result, err := h.checkout.Initiate(r.Context(), userID, req.PlanID, payment.Channel(req.Channel))
	if err != nil {
		respondRenewalError(w, err)
		return
	}

	respondData(w, http.StatusOK, result)
}

// ConfirmRequest completes a renewal checkout attempt
type ConfirmRequest struct {
	AttemptID        string `json:"attemptId"`
	UPITransactionID string `json:"upiTransactionId,omitempty"`
}

// Confirm handles POST /renewals/confirm
func (h *RenewalHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req ConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.AttemptID == "" {
		respondError(w, http.StatusBadRequest, "attemptId is required")
		return
	}

	result, err := h.checkout.Confirm(r.Context(), userID, payment.DisplayToken(req.AttemptID), req.UPITransactionID)
	if err != nil {
		respondRenewalError(w, err)
		return
	}

	respondData(w, http.StatusOK, result)
}

// GetPendingRenewals handles GET /renewals/pending
func (h *RenewalHandler) GetPendingRenewals(w http.ResponseWriter, r *http.Request) {
	pending, err := h.renewals.PendingRenewals(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list pending renewals")
		return
	}

	respondData(w, http.StatusOK, pending)
}

// ResolveRenewalRequest identifies a renewal by its handle transaction
type ResolveRenewalRequest struct {
	TransactionID   string `json:"transactionId"`
	RejectionReason string `json:"rejectionReason,omitempty"`
}

// Approve handles POST /renewals/approve
func (h *RenewalHandler) Approve(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req ResolveRenewalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.TransactionID == "" {
		respondError(w, http.StatusBadRequest, "transactionId is required")
		return
	}

	resolution, err := h.renewals.Approve(r.Context(), req.TransactionID, adminID)
	if err != nil {
		respondRenewalError(w, err)
		return
	}

	respondData(w, http.StatusOK, resolution)
}

// Reject handles POST /renewals/reject
func (h *RenewalHandler) Reject(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req ResolveRenewalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.TransactionID == "" {
		respondError(w, http.StatusBadRequest, "transactionId is required")
		return
	}

	if err := h.renewals.Reject(r.Context(), req.TransactionID, req.RejectionReason, adminID); err != nil {
		respondRenewalError(w, err)
		return
	}

	respondMessage(w, http.StatusOK, "renewal rejected")
}

// respondRenewalError maps checkout and renewal errors to status codes
func respondRenewalError(w http.ResponseWriter, err error) {
	var short *wallet.InsufficientBalanceError

	switch {
	case errors.As(err, &short):
		respondError(w, http.StatusUnprocessableEntity,
			"insufficient wallet balance, short by "+short.Short().String())
	case errors.Is(err, plan.ErrPlanNotFound):
		respondError(w, http.StatusNotFound, "plan not found")
	case errors.Is(err, plan.ErrUnauthorizedAccess):
		respondError(w, http.StatusForbidden, "plan does not belong to this user")
	case errors.Is(err, payment.ErrInvalidChannel):
		respondError(w, http.StatusBadRequest, "invalid payment channel")
	case errors.Is(err, payment.ErrAttemptNotFound):
		respondError(w, http.StatusNotFound, "checkout attempt not found or expired")
	case errors.Is(err, payment.ErrAttemptOwner):
		respondError(w, http.StatusForbidden, "checkout attempt belongs to another user")
	case errors.Is(err, payment.ErrAlreadySubmitted):
		respondError(w, http.StatusConflict, "checkout attempt already submitted")
	case errors.Is(err, payment.ErrAttemptBusy):
		respondError(w, http.StatusConflict, "checkout attempt is already being processed")
	case errors.Is(err, wallet.ErrInsufficientBalance):
		respondError(w, http.StatusUnprocessableEntity, "insufficient wallet balance")
	case errors.Is(err, payment.ErrMissingUPIRef), errors.Is(err, renewal.ErrMissingUPIRef):
		respondError(w, http.StatusBadRequest, "upiTransactionId is required")
	case errors.Is(err, payment.ErrInvalidTransition):
		respondError(w, http.StatusConflict, "checkout attempt is not in a submittable state")
	case errors.Is(err, renewal.ErrAmountMismatch):
		respondError(w, http.StatusBadRequest, "wallet and UPI amounts do not sum to the renewal cost")
	case errors.Is(err, renewal.ErrNotRenewal):
		respondError(w, http.StatusBadRequest, "transaction is not a renewal")
	case errors.Is(err, renewal.ErrNotHandle):
		respondError(w, http.StatusBadRequest, "renewals must be resolved through their first transaction")
	case errors.Is(err, renewal.ErrProcessing):
		respondError(w, http.StatusConflict, "renewal is already being processed")
	case errors.Is(err, renewal.ErrEmptyReason):
		respondError(w, http.StatusBadRequest, "rejection reason is required")
	case errors.Is(err, transaction.ErrNotFound):
		respondError(w, http.StatusNotFound, "transaction not found")
	case errors.Is(err, transaction.ErrNotPending):
		respondError(w, http.StatusConflict, "renewal is not pending")
	default:
		respondError(w, http.StatusInternalServerError, "renewal operation failed")
	}
}
