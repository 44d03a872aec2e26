package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/servostack/paydesk/pkg/money"
)

// Service reads wallet balances. Balance mutations happen inside the
// verification and renewal resolution transactions, not here.
type Service struct {
	repo Repository
}

// NewService creates a new wallet service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Balance returns the user's current balance. A user with no account yet
// has a zero balance.
func (s *Service) Balance(ctx context.Context, userID uuid.UUID) (money.Paise, error) {
	account, err := s.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get wallet account: %w", err)
	}
	return account.Balance, nil
}

