package payment

import (
	"fmt"
	"net/url"

	"github.com/servostack/paydesk/pkg/config"
	"github.com/servostack/paydesk/pkg/money"
)

// BuildQRPayload renders the upi:// deep link a QR code encodes for the
// given channel and amount. The amount is the plan's QRAmount: the wallet
// shortfall for combined payments, never the full cost.
func BuildQRPayload(ch *config.UPIChannel, amount money.Paise, token DisplayToken) (string, error) {
	if amount < ch.MinPaise {
		return "", ErrAmountBelowChannelMin
	}
	if amount > ch.MaxPaise {
		return "", ErrAmountAboveChannelMax
	}

	q := url.Values{}
	q.Set("pa", ch.PayeeVPA)
	q.Set("pn", ch.PayeeName)
	q.Set("am", amount.String())
	q.Set("cu", "INR")
	q.Set("tn", string(token))

	return fmt.Sprintf("upi://pay?%s", q.Encode()), nil
}
