package payment

import (
	"github.com/servostack/paydesk/internal/platform/transaction"
	"github.com/servostack/paydesk/internal/platform/wallet"
	"github.com/servostack/paydesk/pkg/money"
)

// Channel is the funding channel the user picked at checkout
type Channel string

const (
	ChannelWallet Channel = "wallet"
	ChannelQR     Channel = "qr"
)

// IsValid checks if the channel is supported
func (c Channel) IsValid() bool {
	return c == ChannelWallet || c == ChannelQR
}

// FundingPlan is the resolved split of an obligation across funding sources.
// QRAmount is the amount the UPI QR code must encode: the wallet shortfall
// when a wallet leg exists, the full cost otherwise.
type FundingPlan struct {
	Method       transaction.Method `json:"paymentMethod"`
	Cost         money.Paise        `json:"cost"`
	WalletAmount money.Paise        `json:"walletAmount"`
	UPIAmount    money.Paise        `json:"upiAmount"`
	QRAmount     money.Paise        `json:"qrAmount,omitempty"`
}

// PlanFunding decides how a cost is funded given the wallet balance known at
// initiation time and the user's chosen channel.
//
// Wallet channel requires full coverage. QR channel drains whatever partial
// wallet coverage exists and puts only the remainder on the QR code; with no
// wallet coverage the QR carries the full cost.
func PlanFunding(cost, balance money.Paise, channel Channel) (FundingPlan, error) {
	if !cost.IsPositive() {
		return FundingPlan{}, ErrInvalidCost
	}
	if balance < 0 {
		return FundingPlan{}, ErrInvalidBalance
	}

	switch channel {
	case ChannelWallet:
		if balance < cost {
			return FundingPlan{}, &wallet.InsufficientBalanceError{Required: cost, Balance: balance}
		}
		return FundingPlan{
			Method:       transaction.MethodWallet,
			Cost:         cost,
			WalletAmount: cost,
		}, nil

	case ChannelQR:
		if balance > 0 && balance < cost {
			remaining := cost - balance
			return FundingPlan{
				Method:       transaction.MethodCombined,
				Cost:         cost,
				WalletAmount: balance,
				UPIAmount:    remaining,
				QRAmount:     remaining,
			}, nil
		}
		return FundingPlan{
			Method:    transaction.MethodUPI,
			Cost:      cost,
			UPIAmount: cost,
			QRAmount:  cost,
		}, nil

	default:
		return FundingPlan{}, ErrInvalidChannel
	}
}

// HasUPILeg reports whether the plan needs a UPI reference to complete
func (p FundingPlan) HasUPILeg() bool {
	return p.UPIAmount.IsPositive()
}
