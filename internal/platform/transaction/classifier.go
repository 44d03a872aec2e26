package transaction

import "fmt"

// Category is a stable machine-readable transaction category
type Category string

const (
	CategoryWalletOrderPayment Category = "wallet_order_payment"
	CategoryInstallmentPayment Category = "installment_payment"
	CategoryPartialInstallment Category = "partial_upi_installment"
	CategoryWalletRecharge     Category = "wallet_recharge"
	CategoryOther              Category = "payment"
)

// Classification is the display view of a transaction. IsWalletCredit
// decides whether approving the transaction credits the user's wallet.
type Classification struct {
	Category       Category `json:"category"`
	DisplayType    string   `json:"displayType"`
	Detail         string   `json:"detail,omitempty"`
	IsWalletCredit bool     `json:"isWalletCredit"`
}

// Classify maps a transaction to its display classification. It is a pure
// function of the record so every list view labels the same transaction
// identically.
//
// Rule order is significant: a record can look like a deposit while carrying
// installment flags, and the order-payment rules must win over the generic
// deposit rule or an order payment would credit the wallet on approval.
func Classify(t *Transaction) Classification {
	switch {
	case t.PaymentMethod == MethodWallet && t.Type == TypePayment:
		return Classification{
			Category:    CategoryWalletOrderPayment,
			DisplayType: "Wallet Payment for Order",
			Detail:      orderDetail(t),
		}

	case (t.IsInstallmentPayment || t.Type == TypePayment) && !t.OrderID.IsZero() && t.InstallmentNumber != nil:
		if t.IsPartialInstallmentPayment {
			return Classification{
				Category:    CategoryPartialInstallment,
				DisplayType: "Partial UPI Payment",
				Detail:      fmt.Sprintf("UPI portion of installment #%d", *t.InstallmentNumber),
			}
		}
		return Classification{
			Category:    CategoryInstallmentPayment,
			DisplayType: "Installment Payment",
			Detail:      fmt.Sprintf("Installment #%d", *t.InstallmentNumber),
		}

	case t.Type == TypeDeposit:
		return Classification{
			Category:       CategoryWalletRecharge,
			DisplayType:    "Wallet Recharge",
			IsWalletCredit: true,
		}

	default:
		return Classification{
			Category:    CategoryOther,
			DisplayType: "Payment",
		}
	}
}

func orderDetail(t *Transaction) string {
	if t.OrderID.IsZero() {
		return ""
	}
	return fmt.Sprintf("Order %s", t.OrderID.Key())
}
