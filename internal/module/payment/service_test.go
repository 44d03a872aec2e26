package payment_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/servostack/paydesk/internal/module/payment"
	"github.com/servostack/paydesk/internal/module/renewal"
	"github.com/servostack/paydesk/internal/platform/plan"
	"github.com/servostack/paydesk/pkg/config"
	"github.com/servostack/paydesk/pkg/logger"
	"github.com/servostack/paydesk/pkg/money"
)

type stubPlans struct {
	plan *plan.Plan
}

func (s *stubPlans) GetByID(ctx context.Context, id uuid.UUID) (*plan.Plan, error) {
	if s.plan == nil || s.plan.ID != id {
		return nil, plan.ErrPlanNotFound
	}
	return s.plan, nil
}

type stubWallets struct {
	balance money.Paise
}

func (s *stubWallets) Balance(ctx context.Context, userID uuid.UUID) (money.Paise, error) {
	return s.balance, nil
}

// countingRenewals records CreateOrder calls and can hold them open so a
// second call arrives while the first is still in flight
type countingRenewals struct {
	calls   atomic.Int64
	entered chan struct{}
	release chan struct{}
}

func (c *countingRenewals) CreateOrder(ctx context.Context, userID uuid.UUID, req renewal.CreateOrderRequest) (*renewal.Order, error) {
	c.calls.Add(1)
	if c.entered != nil {
		close(c.entered)
		c.entered = nil
		<-c.release
	}
	return &renewal.Order{GroupID: uuid.New()}, nil
}

func newCheckout(t *testing.T, balance money.Paise, renewals *countingRenewals) (*payment.Service, uuid.UUID, uuid.UUID) {
	t.Helper()

	userID := uuid.New()
	planID := uuid.New()
	plans := &stubPlans{plan: &plan.Plan{
		ID:          planID,
		UserID:      userID,
		Name:        "Pro Maintenance",
		RenewalCost: money.FromRupees(8000),
	}}

	svc := payment.NewService(
		plans,
		&stubWallets{balance: balance},
		renewals,
		&config.ChannelsConfig{},
		payment.NewSessionStore(payment.DefaultSessionTTL),
		logger.NewDefault("test"),
	)
	return svc, userID, planID
}

func TestConfirm_SecondSubmissionRefused(t *testing.T) {
	ctx := context.Background()
	renewals := &countingRenewals{}
	svc, userID, planID := newCheckout(t, money.FromRupees(9000), renewals)

	initiated, err := svc.Initiate(ctx, userID, planID, payment.ChannelWallet)
	require.NoError(t, err)

	_, err = svc.Confirm(ctx, userID, initiated.AttemptID, "")
	require.NoError(t, err)

	_, err = svc.Confirm(ctx, userID, initiated.AttemptID, "")
	assert.ErrorIs(t, err, payment.ErrAlreadySubmitted)
	assert.Equal(t, int64(1), renewals.calls.Load())
}

func TestConfirm_ConcurrentSubmissionsCreateOneOrder(t *testing.T) {
	ctx := context.Background()
	renewals := &countingRenewals{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	svc, userID, planID := newCheckout(t, money.FromRupees(9000), renewals)

	initiated, err := svc.Initiate(ctx, userID, planID, payment.ChannelWallet)
	require.NoError(t, err)

	entered := renewals.entered

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := svc.Confirm(ctx, userID, initiated.AttemptID, "")
		assert.NoError(t, err)
	}()

	// The first Confirm is held inside CreateOrder; the second must be
	// turned away by the in-flight guard, not create a duplicate order.
	<-entered
	_, err = svc.Confirm(ctx, userID, initiated.AttemptID, "")
	assert.ErrorIs(t, err, payment.ErrAttemptBusy)

	close(renewals.release)
	wg.Wait()

	assert.Equal(t, int64(1), renewals.calls.Load())
}
