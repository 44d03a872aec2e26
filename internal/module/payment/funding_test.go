package payment

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/servostack/paydesk/internal/platform/transaction"
	"github.com/servostack/paydesk/internal/platform/wallet"
	"github.com/servostack/paydesk/pkg/money"
)

func TestPlanFundingWallet(t *testing.T) {
	t.Run("full coverage", func(t *testing.T) {
		plan, err := PlanFunding(money.FromRupees(8000), money.FromRupees(10000), ChannelWallet)
		require.NoError(t, err)

		assert.Equal(t, transaction.MethodWallet, plan.Method)
		assert.Equal(t, money.FromRupees(8000), plan.WalletAmount)
		assert.Equal(t, money.Paise(0), plan.UPIAmount)
		assert.False(t, plan.HasUPILeg())
	})

	t.Run("exact coverage", func(t *testing.T) {
		plan, err := PlanFunding(money.FromRupees(8000), money.FromRupees(8000), ChannelWallet)
		require.NoError(t, err)
		assert.Equal(t, money.FromRupees(8000), plan.WalletAmount)
	})

	t.Run("insufficient balance reports the exact shortfall", func(t *testing.T) {
		_, err := PlanFunding(money.FromRupees(8000), money.FromRupees(500), ChannelWallet)
		require.Error(t, err)

		var short *wallet.InsufficientBalanceError
		require.ErrorAs(t, err, &short)
		assert.Equal(t, money.FromRupees(7500), short.Short())
		assert.True(t, errors.Is(err, wallet.ErrInsufficientBalance))
	})
}

func TestPlanFundingQR(t *testing.T) {
	t.Run("partial wallet coverage becomes combined", func(t *testing.T) {
		plan, err := PlanFunding(money.FromRupees(8000), money.FromRupees(3000), ChannelQR)
		require.NoError(t, err)

		assert.Equal(t, transaction.MethodCombined, plan.Method)
		assert.Equal(t, money.FromRupees(3000), plan.WalletAmount)
		assert.Equal(t, money.FromRupees(5000), plan.UPIAmount)
		// The QR must encode the remainder, not the full cost
		assert.Equal(t, money.FromRupees(5000), plan.QRAmount)
		assert.Equal(t, plan.Cost, plan.WalletAmount+plan.UPIAmount)
	})

	t.Run("zero balance pays everything over UPI", func(t *testing.T) {
		plan, err := PlanFunding(money.FromRupees(8000), 0, ChannelQR)
		require.NoError(t, err)

		assert.Equal(t, transaction.MethodUPI, plan.Method)
		assert.Equal(t, money.Paise(0), plan.WalletAmount)
		assert.Equal(t, money.FromRupees(8000), plan.UPIAmount)
		assert.Equal(t, money.FromRupees(8000), plan.QRAmount)
	})

	t.Run("balance covering the cost still pays over UPI", func(t *testing.T) {
		plan, err := PlanFunding(money.FromRupees(8000), money.FromRupees(9000), ChannelQR)
		require.NoError(t, err)

		assert.Equal(t, transaction.MethodUPI, plan.Method)
		assert.Equal(t, money.FromRupees(8000), plan.QRAmount)
	})

	t.Run("one paisa of coverage still splits", func(t *testing.T) {
		plan, err := PlanFunding(money.FromRupees(8000), 1, ChannelQR)
		require.NoError(t, err)

		assert.Equal(t, transaction.MethodCombined, plan.Method)
		assert.Equal(t, money.Paise(1), plan.WalletAmount)
		assert.Equal(t, plan.Cost-1, plan.QRAmount)
	})
}

func TestPlanFundingValidation(t *testing.T) {
	_, err := PlanFunding(0, money.FromRupees(100), ChannelWallet)
	assert.ErrorIs(t, err, ErrInvalidCost)

	_, err = PlanFunding(money.FromRupees(100), -1, ChannelQR)
	assert.ErrorIs(t, err, ErrInvalidBalance)

	_, err = PlanFunding(money.FromRupees(100), 0, Channel("card"))
	assert.ErrorIs(t, err, ErrInvalidChannel)
}
