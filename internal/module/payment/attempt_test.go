package payment

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/servostack/paydesk/pkg/money"
)

func qrAttempt(t *testing.T) *Attempt {
	t.Helper()
	plan, err := PlanFunding(money.FromRupees(8000), money.FromRupees(3000), ChannelQR)
	require.NoError(t, err)
	return NewAttempt(uuid.New(), uuid.New(), ChannelQR, plan, time.Now())
}

func walletAttempt(t *testing.T) *Attempt {
	t.Helper()
	plan, err := PlanFunding(money.FromRupees(8000), money.FromRupees(9000), ChannelWallet)
	require.NoError(t, err)
	return NewAttempt(uuid.New(), uuid.New(), ChannelWallet, plan, time.Now())
}

func TestAttemptQRFlow(t *testing.T) {
	a := qrAttempt(t)
	assert.Equal(t, StateIdle, a.State)

	require.NoError(t, a.ShowQR())
	assert.Equal(t, StateQRDisplayed, a.State)

	require.NoError(t, a.SubmitUPIRef("UPI123456"))
	assert.Equal(t, StateVerificationSubmitted, a.State)
	assert.Equal(t, "UPI123456", a.UPITransactionID)

	require.NoError(t, a.MarkPending())
	assert.Equal(t, StateSubmittedPending, a.State)
	assert.True(t, a.IsTerminal())
}

func TestAttemptWalletFlow(t *testing.T) {
	a := walletAttempt(t)

	require.NoError(t, a.MarkPending())
	assert.True(t, a.IsTerminal())

	// Wallet attempts never show a QR
	b := walletAttempt(t)
	assert.ErrorIs(t, b.ShowQR(), ErrInvalidTransition)
}

func TestAttemptRejectsSkippedSteps(t *testing.T) {
	a := qrAttempt(t)

	// Cannot submit a UPI ref before the QR was shown
	assert.ErrorIs(t, a.SubmitUPIRef("UPI1"), ErrInvalidTransition)

	// Cannot reach pending without the verification submission
	require.NoError(t, a.ShowQR())
	assert.ErrorIs(t, a.MarkPending(), ErrInvalidTransition)
}

func TestAttemptUPIRefRequired(t *testing.T) {
	a := qrAttempt(t)
	require.NoError(t, a.ShowQR())

	assert.ErrorIs(t, a.SubmitUPIRef(""), ErrMissingUPIRef)
	assert.ErrorIs(t, a.SubmitUPIRef("   "), ErrMissingUPIRef)
	assert.Equal(t, StateQRDisplayed, a.State)
}

func TestAttemptTerminalRefusesEverything(t *testing.T) {
	a := qrAttempt(t)
	require.NoError(t, a.ShowQR())
	require.NoError(t, a.SubmitUPIRef("UPI1"))
	require.NoError(t, a.MarkPending())

	assert.ErrorIs(t, a.ShowQR(), ErrAlreadySubmitted)
	assert.ErrorIs(t, a.SubmitUPIRef("UPI2"), ErrAlreadySubmitted)
	assert.ErrorIs(t, a.MarkPending(), ErrAlreadySubmitted)
}

func TestDisplayToken(t *testing.T) {
	now := time.Now()
	tok := NewDisplayToken(now)

	assert.True(t, strings.HasPrefix(string(tok), "TXN-"))

	// Two tokens generated at the same instant still differ
	other := NewDisplayToken(now)
	assert.NotEqual(t, tok, other)
}
