package wallet

import (
	"time"

	"github.com/google/uuid"

	"github.com/servostack/paydesk/pkg/money"
)

// Account is a user's prepaid wallet balance. Balances only change through
// approved transactions, never directly from user input.
type Account struct {
	UserID    uuid.UUID   `json:"userId"`
	Balance   money.Paise `json:"balance"`
	UpdatedAt time.Time   `json:"updatedAt"`
}
