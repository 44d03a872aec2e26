package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/servostack/paydesk/internal/platform/wallet"
	"github.com/servostack/paydesk/pkg/money"
)

// WalletRepository implements the wallet account repository using PostgreSQL.
// It only reads; balance mutations are the creditWallet and debitWallet
// statements, which run inside the transaction-resolution transactions. The
// non-negative balance invariant is enforced both there and by a CHECK
// constraint.
type WalletRepository struct {
	pool *pgxpool.Pool
}

// NewWalletRepository creates a new PostgreSQL wallet repository
func NewWalletRepository(pool *pgxpool.Pool) *WalletRepository {
	return &WalletRepository{pool: pool}
}

// Get retrieves the wallet account for a user
func (r *WalletRepository) Get(ctx context.Context, userID uuid.UUID) (*wallet.Account, error) {
	query := `
		SELECT user_id, balance, updated_at
		FROM wallet_accounts
		WHERE user_id = $1
	`

	a := &wallet.Account{}
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&a.UserID,
		&a.Balance,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, wallet.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get wallet account: %w", err)
	}

	return a, nil
}

// execer lets balance mutations run on the pool or inside a surrounding
// database transaction
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// creditWallet adds amount to the user's balance, creating the account if needed
func creditWallet(ctx context.Context, db execer, userID uuid.UUID, amount money.Paise) error {
	query := `
		INSERT INTO wallet_accounts (user_id, balance, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (user_id)
		DO UPDATE SET balance = wallet_accounts.balance + EXCLUDED.balance, updated_at = now()
	`

	_, err := db.Exec(ctx, query, userID, int64(amount))
	if err != nil {
		return fmt.Errorf("failed to credit wallet: %w", err)
	}

	return nil
}

// debitWallet subtracts amount from the user's balance. The guarded update
// makes concurrent debits safe: whichever statement runs second sees the
// reduced balance. A missing account debits like a zero balance.
func debitWallet(ctx context.Context, db execer, userID uuid.UUID, amount money.Paise) error {
	query := `
		UPDATE wallet_accounts
		SET balance = balance - $2, updated_at = now()
		WHERE user_id = $1 AND balance >= $2
	`

	result, err := db.Exec(ctx, query, userID, int64(amount))
	if err != nil {
		return fmt.Errorf("failed to debit wallet: %w", err)
	}
	if result.RowsAffected() == 0 {
		return wallet.ErrInsufficientBalance
	}

	return nil
}
