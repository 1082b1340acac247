package models

import "errors"

// Sentinel errors for the order/inventory core. Handlers map these to HTTP
// status codes with errors.Is; services wrap them with fmt.Errorf("...: %w").
var (
	// ErrValidation indicates a malformed or incomplete request payload.
	// Rejected before any mutation.
	ErrValidation = errors.New("validation failed")

	// ErrInsufficientInventory indicates a reserve-time stock shortfall.
	// No mutation occurs when this is returned.
	ErrInsufficientInventory = errors.New("insufficient inventory")

	// ErrInvalidTransition indicates an illegal state-machine move.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrProviderUnavailable indicates the payment gateway timed out or
	// returned a 5xx. Retry-safe: no order or inventory mutation happened.
	ErrProviderUnavailable = errors.New("payment provider unavailable")

	// ErrSignature indicates a webhook payload failed signature verification.
	ErrSignature = errors.New("webhook signature verification failed")

	// ErrNegativeBalance indicates a ledger invariant violation (reserved
	// quantity would go below zero). This is a bug signal, not a normal
	// error path, and should alert.
	ErrNegativeBalance = errors.New("inventory balance would go negative")

	// ErrNotFound indicates a missing record.
	ErrNotFound = errors.New("record not found")

	// ErrConflict indicates a uniqueness violation (duplicate account,
	// second review for the same product).
	ErrConflict = errors.New("resource already exists")

	// ErrForbidden indicates the caller is authenticated but does not own
	// the resource it is acting on.
	ErrForbidden = errors.New("access denied")
)
