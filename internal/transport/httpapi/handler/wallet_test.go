package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/servostack/paydesk/internal/module/verification"
	"github.com/servostack/paydesk/internal/platform/transaction"
	"github.com/servostack/paydesk/internal/platform/watch"
	"github.com/servostack/paydesk/internal/transport/httpapi/handler"
	"github.com/servostack/paydesk/internal/transport/httpapi/middleware"
	"github.com/servostack/paydesk/pkg/money"
)

// mockVerificationService implements handler.VerificationService
type mockVerificationService struct {
	pending    []*verification.ClassifiedTransaction
	approved   *verification.ClassifiedTransaction
	approveErr error
	rejectErr  error
	rejected   struct {
		transactionID string
		reason        string
	}
	bulkResult verification.BulkResult
	bulkIDs    []uuid.UUID
}

func (m *mockVerificationService) ListPending(ctx context.Context) ([]*verification.ClassifiedTransaction, error) {
	return m.pending, nil
}

func (m *mockVerificationService) History(ctx context.Context) ([]*verification.ClassifiedTransaction, error) {
	return m.pending, nil
}

func (m *mockVerificationService) Approve(ctx context.Context, req verification.ApproveRequest, adminID uuid.UUID) (*verification.ClassifiedTransaction, error) {
	if m.approveErr != nil {
		return nil, m.approveErr
	}
	return m.approved, nil
}

func (m *mockVerificationService) Reject(ctx context.Context, transactionID, reason string, adminID uuid.UUID) error {
	m.rejected.transactionID = transactionID
	m.rejected.reason = reason
	return m.rejectErr
}

func (m *mockVerificationService) Delete(ctx context.Context, id uuid.UUID) error {
	return nil
}

func (m *mockVerificationService) BulkDelete(ctx context.Context, ids []uuid.UUID) verification.BulkResult {
	m.bulkIDs = ids
	return m.bulkResult
}

// mockBalanceService implements handler.BalanceService
type mockBalanceService struct {
	balance money.Paise
}

func (m *mockBalanceService) Balance(ctx context.Context, userID uuid.UUID) (money.Paise, error) {
	return m.balance, nil
}

// mockSnapshotReader implements handler.SnapshotReader
type mockSnapshotReader struct {
	snap *watch.Snapshot
}

func (m *mockSnapshotReader) Get(ctx context.Context) (*watch.Snapshot, bool, error) {
	if m.snap == nil {
		return nil, false, nil
	}
	return m.snap, true, nil
}

func authedRequest(method, target string, body []byte, userID uuid.UUID) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	ctx := context.WithValue(req.Context(), middleware.UserIDKey, userID)
	return req.WithContext(ctx)
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) (bool, json.RawMessage, string) {
	t.Helper()
	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Message string          `json:"message"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	return envelope.Success, envelope.Data, envelope.Message
}

func TestGetBalance(t *testing.T) {
	h := handler.NewWalletHandler(&mockVerificationService{}, &mockBalanceService{balance: money.FromRupees(8000) + 50}, &mockSnapshotReader{})

	rec := httptest.NewRecorder()
	h.GetBalance(rec, authedRequest(http.MethodGet, "/wallet/balance", nil, uuid.New()))

	require.Equal(t, http.StatusOK, rec.Code)
	success, data, _ := decodeEnvelope(t, rec)
	assert.True(t, success)

	var body handler.BalanceResponse
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, money.FromRupees(8000)+50, body.Balance)
	assert.Equal(t, "8000.50", body.Display)
}

func TestApproveTransaction(t *testing.T) {
	tx := &transaction.Transaction{
		ID:            uuid.New(),
		TransactionID: "TXN-1",
		UserID:        transaction.RefID(uuid.NewString()),
		Amount:        money.FromRupees(500),
		Type:          transaction.TypeDeposit,
		PaymentMethod: transaction.MethodUPI,
		Status:        transaction.StatusCompleted,
	}
	svc := &mockVerificationService{
		approved: &verification.ClassifiedTransaction{
			Transaction:    tx,
			Classification: transaction.Classify(tx),
		},
	}
	h := handler.NewWalletHandler(svc, &mockBalanceService{}, &mockSnapshotReader{})

	body, _ := json.Marshal(map[string]any{
		"transactionId":    "TXN-1",
		"userId":           tx.UserID.Key(),
		"skipWalletCredit": false,
	})
	rec := httptest.NewRecorder()
	h.ApproveTransaction(rec, authedRequest(http.MethodPost, "/wallet/approve-transaction", body, uuid.New()))

	require.Equal(t, http.StatusOK, rec.Code)
	success, data, _ := decodeEnvelope(t, rec)
	assert.True(t, success)
	assert.Contains(t, string(data), `"transactionId":"TXN-1"`)
	assert.Contains(t, string(data), `"classification"`)
}

func TestApproveTransaction_ErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"not found", transaction.ErrNotFound, http.StatusNotFound},
		{"not pending", transaction.ErrNotPending, http.StatusConflict},
		{"processing", verification.ErrProcessing, http.StatusConflict},
		{"flag mismatch", verification.ErrCreditFlagMismatch, http.StatusBadRequest},
		{"user mismatch", verification.ErrUserMismatch, http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := handler.NewWalletHandler(&mockVerificationService{approveErr: tc.err}, &mockBalanceService{}, &mockSnapshotReader{})

			body, _ := json.Marshal(map[string]any{"transactionId": "TXN-1"})
			rec := httptest.NewRecorder()
			h.ApproveTransaction(rec, authedRequest(http.MethodPost, "/wallet/approve-transaction", body, uuid.New()))

			assert.Equal(t, tc.wantStatus, rec.Code)
			success, _, message := decodeEnvelope(t, rec)
			assert.False(t, success)
			assert.NotEmpty(t, message)
		})
	}
}

func TestRejectTransaction_PassesReasonVerbatim(t *testing.T) {
	svc := &mockVerificationService{}
	h := handler.NewWalletHandler(svc, &mockBalanceService{}, &mockSnapshotReader{})

	body, _ := json.Marshal(map[string]string{
		"transactionId":   "TXN-9",
		"rejectionReason": "Duplicate UPI ref",
	})
	rec := httptest.NewRecorder()
	h.RejectTransaction(rec, authedRequest(http.MethodPost, "/wallet/reject-transaction", body, uuid.New()))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "TXN-9", svc.rejected.transactionID)
	assert.Equal(t, "Duplicate UPI ref", svc.rejected.reason)
}

func TestRejectTransaction_EmptyReasonRefused(t *testing.T) {
	h := handler.NewWalletHandler(&mockVerificationService{rejectErr: verification.ErrEmptyReason}, &mockBalanceService{}, &mockSnapshotReader{})

	body, _ := json.Marshal(map[string]string{"transactionId": "TXN-9"})
	rec := httptest.NewRecorder()
	h.RejectTransaction(rec, authedRequest(http.MethodPost, "/wallet/reject-transaction", body, uuid.New()))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	success, _, _ := decodeEnvelope(t, rec)
	assert.False(t, success)
}

func TestGetPendingSummary_NoSnapshotYet(t *testing.T) {
	h := handler.NewWalletHandler(&mockVerificationService{}, &mockBalanceService{}, &mockSnapshotReader{})

	rec := httptest.NewRecorder()
	h.GetPendingSummary(rec, authedRequest(http.MethodGet, "/wallet/pending-summary", nil, uuid.New()))

	require.Equal(t, http.StatusOK, rec.Code)
	success, data, _ := decodeEnvelope(t, rec)
	assert.True(t, success)

	var snap watch.Snapshot
	require.NoError(t, json.Unmarshal(data, &snap))
	assert.Equal(t, 0, snap.Count)
	assert.NotNil(t, snap.TransactionIDs)
}

func TestGetPendingSummary_ServesSnapshot(t *testing.T) {
	reader := &mockSnapshotReader{snap: &watch.Snapshot{
		Count:          2,
		TransactionIDs: []string{"TXN-1", "TXN-2"},
		Total:          money.FromRupees(8500),
	}}
	h := handler.NewWalletHandler(&mockVerificationService{}, &mockBalanceService{}, reader)

	rec := httptest.NewRecorder()
	h.GetPendingSummary(rec, authedRequest(http.MethodGet, "/wallet/pending-summary", nil, uuid.New()))

	require.Equal(t, http.StatusOK, rec.Code)
	_, data, _ := decodeEnvelope(t, rec)

	var snap watch.Snapshot
	require.NoError(t, json.Unmarshal(data, &snap))
	assert.Equal(t, 2, snap.Count)
	assert.Equal(t, money.FromRupees(8500), snap.Total)
}

func TestBulkDelete_InvalidIDsCountAsFailed(t *testing.T) {
	svc := &mockVerificationService{bulkResult: verification.BulkResult{Deleted: 2, Failed: 0}}
	h := handler.NewWalletHandler(svc, &mockBalanceService{}, &mockSnapshotReader{})

	body, _ := json.Marshal(map[string]any{
		"transactionIds": []string{uuid.NewString(), uuid.NewString(), "not-a-uuid"},
	})
	rec := httptest.NewRecorder()
	h.BulkDeleteTransactions(rec, authedRequest(http.MethodPost, "/wallet/transactions/bulk-delete", body, uuid.New()))

	require.Equal(t, http.StatusOK, rec.Code)
	_, data, _ := decodeEnvelope(t, rec)

	var result verification.BulkResult
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Equal(t, 2, result.Deleted)
	assert.Equal(t, 1, result.Failed)
	assert.Len(t, svc.bulkIDs, 2)
}

func TestDeleteTransaction_InvalidID(t *testing.T) {
	h := handler.NewWalletHandler(&mockVerificationService{}, &mockBalanceService{}, &mockSnapshotReader{})

	r := chi.NewRouter()
	r.Delete("/wallet/transactions/{id}", h.DeleteTransaction)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, authedRequest(http.MethodDelete, "/wallet/transactions/not-a-uuid", nil, uuid.New()))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
