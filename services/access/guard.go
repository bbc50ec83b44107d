// Package access holds the cross-cutting authorization check consulted by
// both the booking state machine callers and the telemetry relay: actor
// identity + role + current booking status.
package access

import (
	"context"
	"errors"

	bookingRepo "carvia/database/repository/booking"
	"carvia/models"
	"carvia/services/booking"

	"go.uber.org/zap"
)

// Guard answers "may this actor do this to this booking right now". The
// booking store read is the single source of truth for the current status.
type Guard struct {
	Repo   bookingRepo.BookingRepository
	Logger *zap.Logger
}

func NewGuard(repo bookingRepo.BookingRepository, logger *zap.Logger) *Guard {
	return &Guard{Repo: repo, Logger: logger}
}

func (g *Guard) getBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	b, err := g.Repo.GetByID(ctx, bookingID)
	if errors.Is(err, bookingRepo.ErrNotFound) {
		return nil, booking.ErrNotFound
	}
	return b, err
}

// CanPublish permits a telemetry publish only for the booking's customer
// while the booking is ongoing.
func (g *Guard) CanPublish(ctx context.Context, bookingID, actorID string) error {
	b, err := g.getBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	if actorID != b.CustomerID || b.Status != models.BookingOngoing {
		g.Logger.Warn("telemetry publish denied",
			zap.String("bookingId", bookingID),
			zap.String("actorId", actorID),
			zap.String("status", string(b.Status)))
		return booking.ErrForbidden
	}
	return nil
}

// CanObserve permits subscribing to a booking's telemetry room: the booking's
// customer, its owner, or an admin observer.
func (g *Guard) CanObserve(ctx context.Context, bookingID, actorID string, role models.Role) error {
	b, err := g.getBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	if role == models.RoleAdmin || actorID == b.CustomerID || actorID == b.OwnerID {
		return nil
	}
	g.Logger.Warn("telemetry subscribe denied",
		zap.String("bookingId", bookingID),
		zap.String("actorId", actorID),
		zap.String("role", string(role)))
	return booking.ErrForbidden
}

// CanView permits reading a booking or its invoice: same audience as
// CanObserve.
func (g *Guard) CanView(b *models.Booking, actorID string, role models.Role) bool {
	return role == models.RoleAdmin || actorID == b.CustomerID || actorID == b.OwnerID
}
