package bookingRepo

import (
	"context"
	"errors"

	"carvia/models"
)

// Sentinel errors surfaced by every BookingRepository implementation.
var (
	// ErrNotFound means no booking with the given id exists.
	ErrNotFound = errors.New("booking not found")
	// ErrStatusChanged means a compare-and-swap status update lost a race:
	// the booking's current status no longer matches the expected one.
	ErrStatusChanged = errors.New("booking status changed concurrently")
)

// BookingRepository is the durable booking store. Status writes go through
// UpdateStatus, which is a compare-and-swap on the current status; bookings
// are never deleted.
type BookingRepository interface {
	Create(ctx context.Context, booking *models.Booking) error
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	ListByCustomer(ctx context.Context, customerID string) ([]models.Booking, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Booking, error)

	// UpdateStatus sets the booking's status to "to" only if it is currently
	// "from". Returns ErrStatusChanged when the swap loses a race and
	// ErrNotFound when the booking does not exist.
	UpdateStatus(ctx context.Context, id string, from, to models.BookingStatus, note string) error

	// UpdatePaymentStatus records the outcome of a terminal payment session.
	UpdatePaymentStatus(ctx context.Context, id string, status models.PaymentStatus) error

	// UpdateLastKnownLocation writes the most recent position sample. The
	// write only applies while the booking is ongoing.
	UpdateLastKnownLocation(ctx context.Context, id string, point models.GeoPoint) error
}
