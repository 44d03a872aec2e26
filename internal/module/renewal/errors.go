package renewal

import "errors"

var (
	ErrAmountMismatch  = errors.New("wallet and UPI amounts must sum to the renewal cost")
	ErrMissingUPIRef   = errors.New("UPI transaction reference is required")
	ErrInvalidMethod   = errors.New("unsupported renewal payment method")
	ErrEmptyReason     = errors.New("rejection reason is required")
	ErrNotRenewal      = errors.New("transaction is not a renewal")
	ErrNotHandle       = errors.New("combined renewals are resolved via the first transaction only")
	ErrProcessing      = errors.New("renewal is already being processed")
)
