package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/servostack/paydesk/internal/module/renewal"
	"github.com/servostack/paydesk/internal/platform/plan"
	"github.com/servostack/paydesk/internal/platform/transaction"
	"github.com/servostack/paydesk/pkg/money"
)

// TransactionRepository implements the transaction persistence ports of the
// verification, renewal, and watch services using PostgreSQL. User references
// come back expanded with name and email since every caller is an admin view.
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new PostgreSQL transaction repository
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

const transactionColumns = `
	t.id, t.transaction_id, t.upi_transaction_id, t.user_id,
	t.order_id, t.plan_id, t.renewal_group_id,
	t.amount, t.type, t.payment_method,
	t.is_installment_payment, t.is_partial_installment_payment, t.installment_number,
	t.status, t.rejection_reason, t.verified_by,
	t.date, t.created_at, t.updated_at,
	u.name, u.email
`

func scanTransaction(row pgx.Row) (*transaction.Transaction, error) {
	var (
		tx              transaction.Transaction
		userID          uuid.UUID
		upiRef          sql.NullString
		orderID         sql.NullString
		rejectionReason sql.NullString
		userName        sql.NullString
		userEmail       sql.NullString
	)

	err := row.Scan(
		&tx.ID,
		&tx.TransactionID,
		&upiRef,
		&userID,
		&orderID,
		&tx.PlanID,
		&tx.RenewalGroupID,
		&tx.Amount,
		&tx.Type,
		&tx.PaymentMethod,
		&tx.IsInstallmentPayment,
		&tx.IsPartialInstallmentPayment,
		&tx.InstallmentNumber,
		&tx.Status,
		&rejectionReason,
		&tx.VerifiedBy,
		&tx.Date,
		&tx.CreatedAt,
		&tx.UpdatedAt,
		&userName,
		&userEmail,
	)
	if err != nil {
		return nil, err
	}

	tx.UPITransactionID = upiRef.String
	if orderID.Valid {
		tx.OrderID = transaction.RefID(orderID.String)
	}
	if rejectionReason.Valid {
		tx.RejectionReason = &rejectionReason.String
	}
	if userName.Valid {
		tx.UserID = transaction.ExpandedRef(userID.String(), userName.String, userEmail.String)
	} else {
		tx.UserID = transaction.RefID(userID.String())
	}

	return &tx, nil
}

// CreateBatch persists all legs of a renewal order in one database transaction
func (r *TransactionRepository) CreateBatch(ctx context.Context, txs []*transaction.Transaction) error {
	dbtx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbtx.Rollback(ctx)

	query := `
		INSERT INTO transactions (
			id, transaction_id, upi_transaction_id, user_id,
			order_id, plan_id, renewal_group_id,
			amount, type, payment_method,
			is_installment_payment, is_partial_installment_payment, installment_number,
			status, date, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, now(), now())
	`

	for _, tx := range txs {
		userID, err := uuid.Parse(tx.UserID.Key())
		if err != nil {
			return fmt.Errorf("invalid user reference: %w", err)
		}

		var orderID *string
		if !tx.OrderID.IsZero() {
			key := tx.OrderID.Key()
			orderID = &key
		}

		_, err = dbtx.Exec(ctx, query,
			tx.ID,
			tx.TransactionID,
			nullIfEmpty(tx.UPITransactionID),
			userID,
			orderID,
			tx.PlanID,
			tx.RenewalGroupID,
			int64(tx.Amount),
			tx.Type,
			tx.PaymentMethod,
			tx.IsInstallmentPayment,
			tx.IsPartialInstallmentPayment,
			tx.InstallmentNumber,
			tx.Status,
			tx.Date,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return transaction.ErrDuplicateTransactionID
			}
			return fmt.Errorf("failed to insert transaction: %w", err)
		}
	}

	if err := dbtx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction batch: %w", err)
	}

	return nil
}

// GetByTransactionID retrieves a transaction by its business id
func (r *TransactionRepository) GetByTransactionID(ctx context.Context, transactionID string) (*transaction.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions t
		LEFT JOIN users u ON u.id = t.user_id
		WHERE t.transaction_id = $1
	`

	tx, err := scanTransaction(r.pool.QueryRow(ctx, query, transactionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, transaction.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return tx, nil
}

// ListPending retrieves all pending transactions, oldest first
func (r *TransactionRepository) ListPending(ctx context.Context) ([]*transaction.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions t
		LEFT JOIN users u ON u.id = t.user_id
		WHERE t.status = 'pending'
		ORDER BY t.created_at ASC, t.transaction_id ASC
	`
	return r.list(ctx, query)
}

// ListAll retrieves the full transaction history, newest first
func (r *TransactionRepository) ListAll(ctx context.Context) ([]*transaction.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions t
		LEFT JOIN users u ON u.id = t.user_id
		ORDER BY t.created_at DESC
	`
	return r.list(ctx, query)
}

// ListByGroup retrieves all legs of a renewal group in creation order.
// The wallet leg of a combined renewal sorts first; its id suffixes keep
// the order stable within a single created_at.
func (r *TransactionRepository) ListByGroup(ctx context.Context, groupID uuid.UUID) ([]*transaction.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions t
		LEFT JOIN users u ON u.id = t.user_id
		WHERE t.renewal_group_id = $1
		ORDER BY t.created_at ASC, t.transaction_id ASC
	`
	return r.list(ctx, query, groupID)
}

// ListPendingRenewals retrieves all pending renewal legs in creation order
func (r *TransactionRepository) ListPendingRenewals(ctx context.Context) ([]*transaction.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions t
		LEFT JOIN users u ON u.id = t.user_id
		WHERE t.status = 'pending' AND t.renewal_group_id IS NOT NULL
		ORDER BY t.created_at ASC, t.transaction_id ASC
	`
	return r.list(ctx, query)
}

func (r *TransactionRepository) list(ctx context.Context, query string, args ...any) ([]*transaction.Transaction, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txs []*transaction.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, tx)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return txs, nil
}

// MarkCompleted resolves a pending transaction as approved. A positive
// credit lands on the owner's wallet inside the same database transaction,
// so a failed completion never credits and a retry never credits twice.
func (r *TransactionRepository) MarkCompleted(ctx context.Context, id uuid.UUID, verifiedBy uuid.UUID, credit money.Paise) error {
	dbtx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbtx.Rollback(ctx)

	query := `
		UPDATE transactions
		SET status = 'completed', verified_by = $2, updated_at = now()
		WHERE id = $1 AND status = 'pending'
		RETURNING user_id
	`

	var userID uuid.UUID
	if err := dbtx.QueryRow(ctx, query, id, verifiedBy).Scan(&userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return r.resolveMiss(ctx, id)
		}
		return fmt.Errorf("failed to complete transaction: %w", err)
	}

	if credit.IsPositive() {
		if err := creditWallet(ctx, dbtx, userID, credit); err != nil {
			return err
		}
	}

	if err := dbtx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit approval: %w", err)
	}

	return nil
}

// MarkFailed resolves a pending transaction as rejected with a reason
func (r *TransactionRepository) MarkFailed(ctx context.Context, id uuid.UUID, verifiedBy uuid.UUID, reason string) error {
	query := `
		UPDATE transactions
		SET status = 'failed', verified_by = $2, rejection_reason = $3, updated_at = now()
		WHERE id = $1 AND status = 'pending'
	`

	result, err := r.pool.Exec(ctx, query, id, verifiedBy, reason)
	if err != nil {
		return fmt.Errorf("failed to reject transaction: %w", err)
	}
	if result.RowsAffected() == 0 {
		return r.resolveMiss(ctx, id)
	}

	return nil
}

// ResolveGroup marks every pending leg of a renewal group completed or failed
func (r *TransactionRepository) ResolveGroup(ctx context.Context, groupID uuid.UUID, status transaction.Status, verifiedBy uuid.UUID, reason *string) error {
	query := `
		UPDATE transactions
		SET status = $2, verified_by = $3, rejection_reason = $4, updated_at = now()
		WHERE renewal_group_id = $1 AND status = 'pending'
	`

	result, err := r.pool.Exec(ctx, query, groupID, status, verifiedBy, reason)
	if err != nil {
		return fmt.Errorf("failed to resolve renewal group: %w", err)
	}
	if result.RowsAffected() == 0 {
		return transaction.ErrNotPending
	}

	return nil
}

// ApproveGroup applies a renewal approval as one database transaction:
// wallet debit, leg completion, and plan extension all land or none do.
func (r *TransactionRepository) ApproveGroup(ctx context.Context, req renewal.ApproveGroupRequest) error {
	dbtx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbtx.Rollback(ctx)

	if req.WalletDebit.IsPositive() {
		if err := debitWallet(ctx, dbtx, req.UserID, req.WalletDebit); err != nil {
			return err
		}
	}

	resolve := `
		UPDATE transactions
		SET status = 'completed', verified_by = $2, updated_at = now()
		WHERE renewal_group_id = $1 AND status = 'pending'
	`
	result, err := dbtx.Exec(ctx, resolve, req.GroupID, req.VerifiedBy)
	if err != nil {
		return fmt.Errorf("failed to complete renewal group: %w", err)
	}
	if result.RowsAffected() == 0 {
		return transaction.ErrNotPending
	}

	extend := `
		UPDATE plans
		SET expires_at = $2, updated_at = now()
		WHERE id = $1
	`
	result, err = dbtx.Exec(ctx, extend, req.PlanID, req.NewExpiry)
	if err != nil {
		return fmt.Errorf("failed to extend plan: %w", err)
	}
	if result.RowsAffected() == 0 {
		return plan.ErrPlanNotFound
	}

	if err := dbtx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit renewal approval: %w", err)
	}

	return nil
}

// Delete removes a transaction record
func (r *TransactionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM transactions WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	if result.RowsAffected() == 0 {
		return transaction.ErrNotFound
	}

	return nil
}

// resolveMiss distinguishes a missing row from one already resolved
func (r *TransactionRepository) resolveMiss(ctx context.Context, id uuid.UUID) error {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM transactions WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check transaction existence: %w", err)
	}
	if !exists {
		return transaction.ErrNotFound
	}
	return transaction.ErrNotPending
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
