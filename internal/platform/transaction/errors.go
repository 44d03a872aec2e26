package transaction

import "errors"

var (
	// Validation errors
	ErrMissingTransactionID = errors.New("transaction reference is required")
	ErrMissingUser          = errors.New("transaction user is required")
	ErrInvalidAmount        = errors.New("transaction amount must be positive")
	ErrInvalidType          = errors.New("invalid transaction type")
	ErrInvalidMethod        = errors.New("invalid payment method")
	ErrInvalidStatus        = errors.New("invalid transaction status")

	// Repository errors
	ErrNotFound               = errors.New("transaction not found")
	ErrNotPending             = errors.New("transaction is not pending")
	ErrDuplicateTransactionID = errors.New("transaction reference already exists")
)
