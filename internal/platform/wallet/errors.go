package wallet

import (
	"errors"
	"fmt"

	"github.com/servostack/paydesk/pkg/money"
)

var (
	ErrInsufficientBalance = errors.New("insufficient wallet balance")
	ErrAccountNotFound     = errors.New("wallet account not found")
)

// InsufficientBalanceError reports exactly how far the balance falls short
// of a required amount, so callers can tell the user what to top up.
type InsufficientBalanceError struct {
	Required money.Paise
	Balance  money.Paise
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient wallet balance: short by %s", e.Short())
}

// Short is the exact amount the user would need to add
func (e *InsufficientBalanceError) Short() money.Paise {
	return e.Required - e.Balance
}

// Unwrap lets errors.Is match the sentinel
func (e *InsufficientBalanceError) Unwrap() error {
	return ErrInsufficientBalance
}
