package models

import "time"

// GatewayKind identifies which payment gateway protocol a session follows.
type GatewayKind string

const (
	// GatewaySafepay is the direct-redirect protocol: one browser form POST
	// to the gateway, no return-trip confirmation call.
	GatewaySafepay GatewayKind = "safepay"
	// GatewayEasypay is the two-step handshake protocol: a browser redirect
	// back to the merchant with a token, followed by a second POST from the
	// merchant to the gateway confirm endpoint.
	GatewayEasypay GatewayKind = "easypay"
)

// SessionStatus is the payment session lifecycle state.
type SessionStatus string

const (
	SessionInitiated            SessionStatus = "initiated"
	SessionAwaitingConfirmation SessionStatus = "awaiting_confirmation"
	SessionSucceeded            SessionStatus = "succeeded"
	SessionFailed               SessionStatus = "failed"
)

// RedirectTarget tells the client where to auto-submit a hidden POST form.
type RedirectTarget struct {
	URL    string            `json:"url"`
	Fields map[string]string `json:"fields,omitempty"`
}

// PaymentSession holds the state of one payment attempt between initiation
// and the terminal outcome, after which it is folded into the booking's
// payment status.
type PaymentSession struct {
	ID        string        `json:"id"`
	BookingID string        `json:"bookingId"`
	Gateway   GatewayKind   `json:"gateway"`
	Token     string        `json:"token,omitempty"` // gateway-issued, opaque
	Status    SessionStatus `json:"status"`
	// Sandbox is fixed at initiation time and travels with the session so the
	// confirm endpoint host can never drift from the credentials used at init.
	Sandbox  bool            `json:"sandbox"`
	Redirect *RedirectTarget `json:"redirect,omitempty"`
	Amount   float64         `json:"amount"`
	// GatewayStatus is the outcome the gateway reported on redirect
	// (Success|Failed). It only becomes authoritative after the confirm
	// roundtrip completes.
	GatewayStatus string    `json:"gatewayStatus,omitempty"`
	Description   string    `json:"description,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// IsTerminal reports whether the session has reached a final outcome.
func (s *PaymentSession) IsTerminal() bool {
	return s.Status == SessionSucceeded || s.Status == SessionFailed
}
