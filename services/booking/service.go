package booking

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	bookingRepo "carvia/database/repository/booking"
	"carvia/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultBookingService implements BookingService on top of the booking
// repository. Relay is optional; when set, leaving the ongoing status tears
// the booking's telemetry room down synchronously.
type DefaultBookingService struct {
	Repo   bookingRepo.BookingRepository
	Relay  RoomCloser
	Logger *zap.Logger
}

// CreateBooking records a new pending booking. Price is the car's daily rate
// times the number of started days, minimum one day.
func (s *DefaultBookingService) CreateBooking(ctx context.Context, customerID string, input models.BookingInput) (*models.Booking, error) {
	if !input.EndTime.After(input.StartTime) {
		return nil, fmt.Errorf("booking end time must be after start time")
	}

	days := math.Ceil(input.EndTime.Sub(input.StartTime).Hours() / 24)
	if days < 1 {
		days = 1
	}

	now := time.Now()
	b := &models.Booking{
		ID:            uuid.New().String(),
		CustomerID:    customerID,
		OwnerID:       input.OwnerID,
		CarID:         input.CarID,
		Status:        models.BookingPending,
		PaymentStatus: models.PaymentUnpaid,
		StartTime:     input.StartTime,
		EndTime:       input.EndTime,
		TotalPrice:    days * input.DailyRate,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.Repo.Create(ctx, b); err != nil {
		return nil, err
	}
	s.Logger.Info("booking created",
		zap.String("bookingId", b.ID),
		zap.String("customerId", customerID),
		zap.Float64("totalPrice", b.TotalPrice))
	return b, nil
}

func (s *DefaultBookingService) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	b, err := s.Repo.GetByID(ctx, id)
	if errors.Is(err, bookingRepo.ErrNotFound) {
		return nil, ErrNotFound
	}
	return b, err
}

func (s *DefaultBookingService) ListCustomerBookings(ctx context.Context, customerID string) ([]models.Booking, error) {
	return s.Repo.ListByCustomer(ctx, customerID)
}

func (s *DefaultBookingService) ListOwnerBookings(ctx context.Context, ownerID string) ([]models.Booking, error) {
	return s.Repo.ListByOwner(ctx, ownerID)
}

// ApplyTransition validates the edge against the transition table, checks the
// actor, then swaps the status with a compare-and-swap so concurrent attempts
// on the same booking are never silently merged.
func (s *DefaultBookingService) ApplyTransition(ctx context.Context, bookingID, actorID string, role models.Role, target models.BookingStatus, note string) (*models.Booking, error) {
	b, err := s.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	rule, ok := transitionAllowed(b.Status, target)
	if !ok {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, b.Status, target)
	}
	if !actorMayTransition(rule, b, actorID, role) {
		s.Logger.Warn("booking transition denied",
			zap.String("bookingId", bookingID),
			zap.String("actorId", actorID),
			zap.String("role", string(role)),
			zap.String("target", string(target)))
		return nil, ErrForbidden
	}

	if err := s.Repo.UpdateStatus(ctx, bookingID, b.Status, target, note); err != nil {
		switch {
		case errors.Is(err, bookingRepo.ErrStatusChanged):
			return nil, ErrConflict
		case errors.Is(err, bookingRepo.ErrNotFound):
			return nil, ErrNotFound
		default:
			return nil, err
		}
	}

	// Leaving ongoing revokes telemetry publishing immediately.
	if b.Status == models.BookingOngoing && s.Relay != nil {
		s.Relay.CloseRoom(bookingID)
	}

	s.Logger.Info("booking transitioned",
		zap.String("bookingId", bookingID),
		zap.String("from", string(b.Status)),
		zap.String("to", string(target)))

	b.Status = target
	b.StatusNote = note
	b.UpdatedAt = time.Now()
	return b, nil
}

// MarkPaymentPending flags the booking while a payment session is live.
func (s *DefaultBookingService) MarkPaymentPending(ctx context.Context, bookingID string) error {
	err := s.Repo.UpdatePaymentStatus(ctx, bookingID, models.PaymentPending)
	if errors.Is(err, bookingRepo.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// SettlePayment records a terminal payment outcome. A success marks the
// booking paid; a failure or cancellation leaves it unpaid. The booking
// status itself is untouched: a paid pending booking still needs explicit
// owner confirmation.
func (s *DefaultBookingService) SettlePayment(ctx context.Context, bookingID string, succeeded bool) error {
	status := models.PaymentUnpaid
	if succeeded {
		status = models.PaymentPaid
	}
	err := s.Repo.UpdatePaymentStatus(ctx, bookingID, status)
	if errors.Is(err, bookingRepo.ErrNotFound) {
		return ErrNotFound
	}
	if err == nil {
		s.Logger.Info("booking payment settled",
			zap.String("bookingId", bookingID),
			zap.String("paymentStatus", string(status)))
	}
	return err
}

// Invoice derives the invoice view from a terminal booking record.
func (s *DefaultBookingService) Invoice(ctx context.Context, bookingID string) (*models.Invoice, error) {
	b, err := s.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !b.IsTerminal() {
		return nil, ErrNotInvoiceable
	}
	return &models.Invoice{
		InvoiceID:     "INV-" + b.ID,
		BookingID:     b.ID,
		CustomerID:    b.CustomerID,
		OwnerID:       b.OwnerID,
		CarID:         b.CarID,
		Amount:        b.TotalPrice,
		PaymentStatus: b.PaymentStatus,
		Status:        b.Status,
		PeriodStart:   b.StartTime,
		PeriodEnd:     b.EndTime,
		IssuedAt:      time.Now(),
	}, nil
}
