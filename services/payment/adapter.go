// Package payment normalizes the two supported gateway protocols, direct
// redirect (Safepay) and two-step handshake (Easypay), into one payment
// session contract. A terminal session folds into the booking's payment
// status; it never advances the booking status itself.
package payment

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"carvia/models"
	"carvia/services/booking"

	"go.uber.org/zap"
)

// ExpiryScheduler enqueues a deferred job that fails a session still
// non-terminal after the session TTL.
type ExpiryScheduler interface {
	ScheduleExpiry(sessionID string, delay time.Duration) error
}

// SessionRepository stores live payment sessions; implemented by the Redis
// SessionStore.
type SessionRepository interface {
	Save(ctx context.Context, session *models.PaymentSession) error
	Get(ctx context.Context, id string) (*models.PaymentSession, error)
	GetByBooking(ctx context.Context, bookingID string) (*models.PaymentSession, error)
}

// Adapter is the payment gateway adapter. Gateways produce and advance
// sessions; the adapter owns session persistence and booking settlement.
type Adapter struct {
	Sessions SessionRepository
	Safepay  *SafepayGateway
	Easypay  *EasypayGateway
	Bookings booking.BookingService
	Expiry   ExpiryScheduler
	Logger   *zap.Logger
}

// Initiate opens a payment session for a booking on behalf of its customer.
func (a *Adapter) Initiate(ctx context.Context, bookingID, actorID string, kind models.GatewayKind) (*models.PaymentSession, error) {
	b, err := a.Bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if actorID != b.CustomerID {
		a.Logger.Warn("payment initiation denied",
			zap.String("bookingId", bookingID),
			zap.String("actorId", actorID))
		return nil, booking.ErrForbidden
	}
	if b.PaymentStatus == models.PaymentPaid {
		return nil, ErrAlreadyPaid
	}

	var session *models.PaymentSession
	switch kind {
	case models.GatewaySafepay:
		session, err = a.Safepay.Initiate(ctx, b)
	case models.GatewayEasypay:
		session, err = a.Easypay.Initiate(ctx, b)
	default:
		return nil, fmt.Errorf("unsupported payment gateway: %s", kind)
	}
	if err != nil {
		return nil, err
	}

	if err := a.Sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	if err := a.Bookings.MarkPaymentPending(ctx, bookingID); err != nil {
		a.Logger.Warn("failed to mark booking payment pending",
			zap.String("bookingId", bookingID), zap.Error(err))
	}
	if a.Expiry != nil {
		if err := a.Expiry.ScheduleExpiry(session.ID, SessionTTL); err != nil {
			a.Logger.Warn("failed to schedule payment session expiry",
				zap.String("sessionId", session.ID), zap.Error(err))
		}
	}

	a.Logger.Info("payment session initiated",
		zap.String("sessionId", session.ID),
		zap.String("bookingId", bookingID),
		zap.String("gateway", string(kind)))
	return session, nil
}

// HandleCallback processes the handshake gateway's redirect back to the
// merchant: it binds the auth token and the reported outcome to the
// booking's session and parks it awaiting confirmation. The outcome is not
// authoritative until Confirm completes.
func (a *Adapter) HandleCallback(ctx context.Context, params url.Values) (*models.PaymentSession, error) {
	token := params.Get("auth_token")
	reported := params.Get("status")
	bookingID := params.Get("orderRefNum")
	if token == "" {
		return nil, fmt.Errorf("gateway callback missing auth_token")
	}
	if bookingID == "" {
		return nil, fmt.Errorf("gateway callback missing orderRefNum")
	}

	session, err := a.Sessions.GetByBooking(ctx, bookingID)
	if errors.Is(err, ErrSessionNotFound) {
		// Payment began on the gateway's hosted page without an explicit
		// initiation call on our side.
		session = a.Easypay.newCallbackSession(bookingID)
		err = nil
	}
	if err != nil {
		return nil, err
	}
	if session.IsTerminal() {
		return nil, ErrDuplicateConfirmation
	}

	session.Token = token
	session.GatewayStatus = reported
	session.Description = params.Get("desc")
	session.Status = models.SessionAwaitingConfirmation
	session.UpdatedAt = time.Now()
	if err := a.Sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Confirm runs the handshake's second POST exactly once per session and
// settles the booking from the now-authoritative outcome.
func (a *Adapter) Confirm(ctx context.Context, sessionID string) (*models.PaymentSession, error) {
	session, err := a.Sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionAwaitingConfirmation {
		return nil, ErrDuplicateConfirmation
	}

	if err := a.Easypay.Confirm(ctx, session); err != nil {
		a.finalize(ctx, session, false)
		a.Logger.Warn("payment confirmation failed",
			zap.String("sessionId", session.ID),
			zap.String("bookingId", session.BookingID),
			zap.Error(err))
		return session, err
	}

	succeeded := session.GatewayStatus == easypayStatusSuccess
	a.finalize(ctx, session, succeeded)
	return session, nil
}

// HandleReturn settles a direct-redirect session when the gateway lands the
// browser on the merchant return or cancel URL.
func (a *Adapter) HandleReturn(ctx context.Context, bookingID string, succeeded bool) (*models.PaymentSession, error) {
	session, err := a.Sessions.GetByBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if session.IsTerminal() {
		return session, nil
	}
	a.finalize(ctx, session, succeeded)
	return session, nil
}

// ExpireSession fails a session that never reached a terminal state within
// its TTL. Invoked by the deferred expiry task.
func (a *Adapter) ExpireSession(ctx context.Context, sessionID string) error {
	session, err := a.Sessions.Get(ctx, sessionID)
	if errors.Is(err, ErrSessionNotFound) {
		return nil // already gone from the store, nothing to expire
	}
	if err != nil {
		return err
	}
	if session.IsTerminal() {
		return nil
	}
	a.Logger.Info("expiring stale payment session",
		zap.String("sessionId", session.ID),
		zap.String("bookingId", session.BookingID))
	a.finalize(ctx, session, false)
	return nil
}

// finalize moves the session to its terminal status and folds the outcome
// into the booking's payment status. Paid is only ever set here, from a
// terminal succeeded session.
func (a *Adapter) finalize(ctx context.Context, session *models.PaymentSession, succeeded bool) {
	if succeeded {
		session.Status = models.SessionSucceeded
	} else {
		session.Status = models.SessionFailed
	}
	session.UpdatedAt = time.Now()
	if err := a.Sessions.Save(ctx, session); err != nil {
		a.Logger.Warn("failed to persist terminal payment session",
			zap.String("sessionId", session.ID), zap.Error(err))
	}
	if err := a.Bookings.SettlePayment(ctx, session.BookingID, succeeded); err != nil {
		a.Logger.Warn("failed to settle booking payment",
			zap.String("bookingId", session.BookingID), zap.Error(err))
	}
}
