package booking

import (
	"context"

	"carvia/models"
)

// RoomCloser tears down a booking's telemetry room. Implemented by the
// tracking hub; the state machine calls it whenever a booking leaves the
// ongoing status so late publishes are rejected immediately.
type RoomCloser interface {
	CloseRoom(bookingID string)
}

// BookingService is the authority over booking records and their lifecycle.
type BookingService interface {
	CreateBooking(ctx context.Context, customerID string, input models.BookingInput) (*models.Booking, error)
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	ListCustomerBookings(ctx context.Context, customerID string) ([]models.Booking, error)
	ListOwnerBookings(ctx context.Context, ownerID string) ([]models.Booking, error)

	// ApplyTransition validates and applies a status transition on behalf of
	// an actor. Fails with ErrNotFound, ErrInvalidTransition, ErrForbidden or
	// ErrConflict; a success is atomic with respect to concurrent attempts.
	ApplyTransition(ctx context.Context, bookingID, actorID string, role models.Role, target models.BookingStatus, note string) (*models.Booking, error)

	// MarkPaymentPending flags the booking while a payment session is live.
	MarkPaymentPending(ctx context.Context, bookingID string) error

	// SettlePayment folds a terminal payment session outcome into the
	// booking's payment status. It never advances the booking status.
	SettlePayment(ctx context.Context, bookingID string, succeeded bool) error

	// Invoice derives an invoice view from a terminal booking record.
	Invoice(ctx context.Context, bookingID string) (*models.Invoice, error)
}
