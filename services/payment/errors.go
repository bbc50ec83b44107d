package payment

import "errors"

var (
	// ErrSessionNotFound means no live payment session matches the lookup.
	ErrSessionNotFound = errors.New("payment session not found or expired")

	// ErrGatewayConfirmationFailed means the handshake protocol's confirm
	// POST did not complete or returned an unexpected status. The booking
	// stays unpaid and the caller should re-check the authoritative booking
	// read rather than trusting the redirect alone.
	ErrGatewayConfirmationFailed = errors.New("payment could not be confirmed")

	// ErrDuplicateConfirmation means the session already passed through its
	// confirm step; confirm is invoked exactly once per session.
	ErrDuplicateConfirmation = errors.New("payment session already confirmed")

	// ErrAlreadyPaid means the booking's payment has already settled.
	ErrAlreadyPaid = errors.New("booking is already paid")
)
