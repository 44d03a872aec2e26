package renewal_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/servostack/paydesk/internal/module/renewal"
	"github.com/servostack/paydesk/internal/platform/plan"
	"github.com/servostack/paydesk/internal/platform/transaction"
	"github.com/servostack/paydesk/internal/platform/wallet"
	"github.com/servostack/paydesk/pkg/logger"
	"github.com/servostack/paydesk/pkg/money"
)

// fakeRepo is an in-memory renewal.Repository. ApproveGroup mirrors the
// real repository's all-or-nothing contract: it touches wallet and plan
// state only when the whole approval lands.
type fakeRepo struct {
	txs     []*transaction.Transaction
	wallets *fakeWallets
	plans   *fakePlans

	// approveErr fails the next ApproveGroup call once
	approveErr error
}

func (f *fakeRepo) CreateBatch(ctx context.Context, txs []*transaction.Transaction) error {
	f.txs = append(f.txs, txs...)
	return nil
}

func (f *fakeRepo) GetByTransactionID(ctx context.Context, transactionID string) (*transaction.Transaction, error) {
	for _, tx := range f.txs {
		if tx.TransactionID == transactionID {
			return tx, nil
		}
	}
	return nil, transaction.ErrNotFound
}

func (f *fakeRepo) ListByGroup(ctx context.Context, groupID uuid.UUID) ([]*transaction.Transaction, error) {
	var out []*transaction.Transaction
	for _, tx := range f.txs {
		if tx.RenewalGroupID != nil && *tx.RenewalGroupID == groupID {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListPendingRenewals(ctx context.Context) ([]*transaction.Transaction, error) {
	var out []*transaction.Transaction
	for _, tx := range f.txs {
		if tx.RenewalGroupID != nil && tx.Status == transaction.StatusPending {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (f *fakeRepo) ResolveGroup(ctx context.Context, groupID uuid.UUID, status transaction.Status, verifiedBy uuid.UUID, reason *string) error {
	for _, tx := range f.txs {
		if tx.RenewalGroupID != nil && *tx.RenewalGroupID == groupID && tx.Status == transaction.StatusPending {
			tx.Status = status
			tx.VerifiedBy = &verifiedBy
			tx.RejectionReason = reason
		}
	}
	return nil
}

func (f *fakeRepo) ApproveGroup(ctx context.Context, req renewal.ApproveGroupRequest) error {
	if f.approveErr != nil {
		err := f.approveErr
		f.approveErr = nil
		return err
	}
	if req.WalletDebit.IsPositive() && f.wallets.balances[req.UserID] < req.WalletDebit {
		return wallet.ErrInsufficientBalance
	}

	var pending []*transaction.Transaction
	for _, tx := range f.txs {
		if tx.RenewalGroupID != nil && *tx.RenewalGroupID == req.GroupID && tx.Status == transaction.StatusPending {
			pending = append(pending, tx)
		}
	}
	if len(pending) == 0 {
		return transaction.ErrNotPending
	}

	for _, tx := range pending {
		tx.Status = transaction.StatusCompleted
		verifiedBy := req.VerifiedBy
		tx.VerifiedBy = &verifiedBy
	}
	f.wallets.balances[req.UserID] -= req.WalletDebit
	f.plans.plans[req.PlanID].ExpiresAt = req.NewExpiry
	return nil
}

// fakeWallets is an in-memory renewal.WalletService
type fakeWallets struct {
	balances map[uuid.UUID]money.Paise
}

func (f *fakeWallets) Balance(ctx context.Context, userID uuid.UUID) (money.Paise, error) {
	return f.balances[userID], nil
}

// fakePlans is an in-memory renewal.PlanRepository
type fakePlans struct {
	plans map[uuid.UUID]*plan.Plan
}

func (f *fakePlans) GetByID(ctx context.Context, id uuid.UUID) (*plan.Plan, error) {
	p, ok := f.plans[id]
	if !ok {
		return nil, plan.ErrPlanNotFound
	}
	return p, nil
}

type fixture struct {
	svc     *renewal.Service
	repo    *fakeRepo
	wallets *fakeWallets
	plans   *fakePlans
	userID  uuid.UUID
	planID  uuid.UUID
	expiry  time.Time
}

func newFixture(t *testing.T, balance money.Paise) *fixture {
	t.Helper()

	userID := uuid.New()
	planID := uuid.New()
	expiry := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)

	wallets := &fakeWallets{balances: map[uuid.UUID]money.Paise{userID: balance}}
	plans := &fakePlans{plans: map[uuid.UUID]*plan.Plan{
		planID: {
			ID:          planID,
			UserID:      userID,
			Name:        "Pro Maintenance",
			RenewalCost: money.FromRupees(8000),
			ExpiresAt:   expiry,
		},
	}}
	repo := &fakeRepo{wallets: wallets, plans: plans}

	return &fixture{
		svc:     renewal.NewService(repo, wallets, plans, logger.NewDefault("test")),
		repo:    repo,
		wallets: wallets,
		plans:   plans,
		userID:  userID,
		planID:  planID,
		expiry:  expiry,
	}
}

func TestCreateOrder_CombinedCreatesTwoLegs(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, money.FromRupees(3000))

	order, err := f.svc.CreateOrder(ctx, f.userID, renewal.CreateOrderRequest{
		PlanID:           f.planID,
		Method:           transaction.MethodCombined,
		WalletAmount:     money.FromRupees(3000),
		UPIAmount:        money.FromRupees(5000),
		UPITransactionID: "UPI-REF-1",
		Reference:        "TXN-100",
	})
	require.NoError(t, err)

	require.Len(t, order.Legs, 2)
	// Wallet leg first: its id is the approval handle
	assert.Equal(t, "TXN-100", order.HandleID())
	assert.Equal(t, money.FromRupees(3000), order.Legs[0].Amount)
	assert.Empty(t, order.Legs[0].UPITransactionID)
	assert.Equal(t, money.FromRupees(5000), order.Legs[1].Amount)
	assert.Equal(t, "UPI-REF-1", order.Legs[1].UPITransactionID)
	assert.Equal(t, order.Total, order.WalletAmount+order.UPIAmount)

	for _, leg := range order.Legs {
		assert.Equal(t, transaction.StatusPending, leg.Status)
		assert.Equal(t, transaction.MethodCombined, leg.PaymentMethod)
	}
}

func TestCreateOrder_SumMismatchRefused(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, money.FromRupees(3000))

	_, err := f.svc.CreateOrder(ctx, f.userID, renewal.CreateOrderRequest{
		PlanID:           f.planID,
		Method:           transaction.MethodCombined,
		WalletAmount:     money.FromRupees(3000),
		UPIAmount:        money.FromRupees(4999),
		UPITransactionID: "UPI-REF-1",
	})
	assert.ErrorIs(t, err, renewal.ErrAmountMismatch)

	// One paisa off is still off
	_, err = f.svc.CreateOrder(ctx, f.userID, renewal.CreateOrderRequest{
		PlanID:           f.planID,
		Method:           transaction.MethodCombined,
		WalletAmount:     money.FromRupees(3000) + 1,
		UPIAmount:        money.FromRupees(5000),
		UPITransactionID: "UPI-REF-1",
	})
	assert.ErrorIs(t, err, renewal.ErrAmountMismatch)
}

func TestCreateOrder_WalletLegLimitedByBalance(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, money.FromRupees(500))

	_, err := f.svc.CreateOrder(ctx, f.userID, renewal.CreateOrderRequest{
		PlanID:       f.planID,
		Method:       transaction.MethodWallet,
		WalletAmount: money.FromRupees(8000),
	})
	require.Error(t, err)

	var short *wallet.InsufficientBalanceError
	require.ErrorAs(t, err, &short)
	assert.Equal(t, money.FromRupees(7500), short.Short())
}

func TestCreateOrder_UPIRequiresReference(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)

	_, err := f.svc.CreateOrder(ctx, f.userID, renewal.CreateOrderRequest{
		PlanID:    f.planID,
		Method:    transaction.MethodUPI,
		UPIAmount: money.FromRupees(8000),
	})
	assert.ErrorIs(t, err, renewal.ErrMissingUPIRef)
}

func TestCreateOrder_OwnershipEnforced(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, money.FromRupees(9000))

	_, err := f.svc.CreateOrder(ctx, uuid.New(), renewal.CreateOrderRequest{
		PlanID:       f.planID,
		Method:       transaction.MethodWallet,
		WalletAmount: money.FromRupees(8000),
	})
	assert.ErrorIs(t, err, plan.ErrUnauthorizedAccess)
}

func createCombined(t *testing.T, f *fixture) *renewal.Order {
	t.Helper()
	order, err := f.svc.CreateOrder(context.Background(), f.userID, renewal.CreateOrderRequest{
		PlanID:           f.planID,
		Method:           transaction.MethodCombined,
		WalletAmount:     money.FromRupees(3000),
		UPIAmount:        money.FromRupees(5000),
		UPITransactionID: "UPI-REF-1",
		Reference:        "TXN-100",
	})
	require.NoError(t, err)
	return order
}

func TestPendingRenewals_CombinedFoldedIntoOneEntry(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, money.FromRupees(3000))
	createCombined(t, f)

	pending, err := f.svc.PendingRenewals(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	entry := pending[0]
	assert.Equal(t, "TXN-100", entry.TransactionID)
	assert.Equal(t, money.FromRupees(3000), entry.WalletAmount)
	assert.Equal(t, money.FromRupees(5000), entry.UPIAmount)
	assert.Equal(t, money.FromRupees(8000), entry.Total)
	assert.Equal(t, entry.Total, entry.WalletAmount+entry.UPIAmount)
	assert.Equal(t, "UPI-REF-1", entry.UPITransactionID)

	require.NotNil(t, entry.ExpectedWindow)
	assert.Equal(t, f.expiry, entry.ExpectedWindow.Start)
	assert.Equal(t, f.expiry.Add(plan.RenewalPeriod), entry.ExpectedWindow.End)
}

func TestApprove_ResolvesGroupAndExtendsPlan(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, money.FromRupees(3000))
	order := createCombined(t, f)
	adminID := uuid.New()

	resolution, err := f.svc.Approve(ctx, order.HandleID(), adminID)
	require.NoError(t, err)

	// Plan extended by exactly 30 days from its previous expiry
	wantExpiry := f.expiry.Add(plan.RenewalPeriod)
	assert.Equal(t, wantExpiry, resolution.NewExpiry)
	assert.Equal(t, f.expiry, resolution.Window.Start)
	assert.Equal(t, wantExpiry, f.plans.plans[f.planID].ExpiresAt)

	// Wallet leg debited
	assert.Equal(t, money.Paise(0), f.wallets.balances[f.userID])

	// Both legs completed; pending view is empty on refetch
	for _, leg := range order.Legs {
		assert.Equal(t, transaction.StatusCompleted, leg.Status)
		assert.Equal(t, &adminID, leg.VerifiedBy)
	}
	pending, err := f.svc.PendingRenewals(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestApprove_TransientFailureLeavesGroupRetryable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, money.FromRupees(3000))
	order := createCombined(t, f)
	adminID := uuid.New()

	f.repo.approveErr = errors.New("connection reset")
	_, err := f.svc.Approve(ctx, order.HandleID(), adminID)
	require.Error(t, err)

	// Nothing moved: legs still pending, wallet untouched, expiry unchanged
	for _, leg := range order.Legs {
		assert.Equal(t, transaction.StatusPending, leg.Status)
	}
	assert.Equal(t, money.FromRupees(3000), f.wallets.balances[f.userID])
	assert.Equal(t, f.expiry, f.plans.plans[f.planID].ExpiresAt)

	// The retry debits exactly once
	resolution, err := f.svc.Approve(ctx, order.HandleID(), adminID)
	require.NoError(t, err)
	assert.Equal(t, money.Paise(0), f.wallets.balances[f.userID])
	assert.Equal(t, f.expiry.Add(plan.RenewalPeriod), resolution.NewExpiry)
}

func TestApprove_OnlyViaFirstLeg(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, money.FromRupees(3000))
	order := createCombined(t, f)

	_, err := f.svc.Approve(ctx, order.Legs[1].TransactionID, uuid.New())
	assert.ErrorIs(t, err, renewal.ErrNotHandle)
}

func TestApprove_TerminalStateRefused(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, money.FromRupees(3000))
	order := createCombined(t, f)

	_, err := f.svc.Approve(ctx, order.HandleID(), uuid.New())
	require.NoError(t, err)

	_, err = f.svc.Approve(ctx, order.HandleID(), uuid.New())
	assert.ErrorIs(t, err, transaction.ErrNotPending)
}

func TestReject_RequiresReasonAndFailsAllLegs(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, money.FromRupees(3000))
	order := createCombined(t, f)
	adminID := uuid.New()

	assert.ErrorIs(t, f.svc.Reject(ctx, order.HandleID(), "  ", adminID), renewal.ErrEmptyReason)

	// The reason is stored exactly as the admin typed it, whitespace included
	require.NoError(t, f.svc.Reject(ctx, order.HandleID(), " Duplicate UPI ref ", adminID))
	for _, leg := range order.Legs {
		assert.Equal(t, transaction.StatusFailed, leg.Status)
		require.NotNil(t, leg.RejectionReason)
		assert.Equal(t, " Duplicate UPI ref ", *leg.RejectionReason)
	}

	// No wallet debit on rejection
	assert.Equal(t, money.FromRupees(3000), f.wallets.balances[f.userID])
}

func TestCreateOrder_WalletOnlySingleLeg(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, money.FromRupees(9000))

	order, err := f.svc.CreateOrder(ctx, f.userID, renewal.CreateOrderRequest{
		PlanID:       f.planID,
		Method:       transaction.MethodWallet,
		WalletAmount: money.FromRupees(8000),
		Reference:    "TXN-200",
	})
	require.NoError(t, err)

	require.Len(t, order.Legs, 1)
	assert.Equal(t, money.FromRupees(8000), order.Legs[0].Amount)

	_, err = f.svc.Approve(ctx, "TXN-200", uuid.New())
	require.NoError(t, err)
	assert.Equal(t, money.FromRupees(1000), f.wallets.balances[f.userID])
}
