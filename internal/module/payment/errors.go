package payment

import "errors"

var (
	ErrInvalidCost    = errors.New("cost must be positive")
	ErrInvalidBalance = errors.New("balance must not be negative")
	ErrInvalidChannel = errors.New("unsupported funding channel")

	// Attempt state machine errors
	ErrInvalidTransition = errors.New("invalid payment attempt transition")
	ErrMissingUPIRef     = errors.New("UPI transaction reference is required")
	ErrAlreadySubmitted  = errors.New("payment attempt already submitted for approval")

	// Session store errors
	ErrAttemptNotFound = errors.New("payment attempt not found or expired")
	ErrAttemptOwner    = errors.New("payment attempt belongs to another user")
	ErrAttemptBusy     = errors.New("payment attempt is already being processed")

	// Channel amount bounds
	ErrAmountBelowChannelMin = errors.New("amount is below the channel minimum")
	ErrAmountAboveChannelMax = errors.New("amount exceeds the channel maximum")
)
