package verification

import "errors"

var (
	ErrEmptyReason       = errors.New("rejection reason is required")
	ErrProcessing        = errors.New("transaction is already being processed")
	ErrUserMismatch      = errors.New("transaction does not belong to the given user")
	ErrCreditFlagMismatch = errors.New("skipWalletCredit flag contradicts the transaction classification")
)
