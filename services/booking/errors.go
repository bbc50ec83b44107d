package booking

import "errors"

// Domain errors for the booking workflow. None of these are fatal to the
// process; each is scoped to a single booking.
var (
	// ErrInvalidTransition means the (current, target) status pair is not in
	// the transition table. Never retried automatically.
	ErrInvalidTransition = errors.New("invalid booking status transition")

	// ErrForbidden means the actor's role or identity does not match the
	// required actor for the attempted operation. Logged as security-relevant.
	ErrForbidden = errors.New("actor not allowed to perform this operation")

	// ErrConflict means a concurrent transition won the race. The caller
	// should re-read the booking and retry once or abort.
	ErrConflict = errors.New("booking was modified concurrently")

	// ErrNotFound means the booking id is unknown.
	ErrNotFound = errors.New("booking not found")

	// ErrNotInvoiceable means the booking has not reached a terminal state yet.
	ErrNotInvoiceable = errors.New("booking is not invoiceable yet")
)
