package booking

import (
	"context"
	"sync"
	"testing"
	"time"

	bookingRepo "carvia/database/repository/booking"
	"carvia/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memRepo is an in-memory BookingRepository with the same compare-and-swap
// semantics as the Mongo implementation.
type memRepo struct {
	mu       sync.Mutex
	bookings map[string]*models.Booking
	// beforeUpdate runs inside UpdateStatus before the swap, to simulate a
	// concurrent transition winning the race.
	beforeUpdate func()
}

func newMemRepo() *memRepo {
	return &memRepo{bookings: make(map[string]*models.Booking)}
}

func (r *memRepo) Create(_ context.Context, b *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *b
	r.bookings[b.ID] = &clone
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, bookingRepo.ErrNotFound
	}
	clone := *b
	return &clone, nil
}

func (r *memRepo) ListByCustomer(_ context.Context, customerID string) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Booking
	for _, b := range r.bookings {
		if b.CustomerID == customerID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *memRepo) ListByOwner(_ context.Context, ownerID string) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Booking
	for _, b := range r.bookings {
		if b.OwnerID == ownerID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *memRepo) UpdateStatus(_ context.Context, id string, from, to models.BookingStatus, note string) error {
	if r.beforeUpdate != nil {
		r.beforeUpdate()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return bookingRepo.ErrNotFound
	}
	if b.Status != from {
		return bookingRepo.ErrStatusChanged
	}
	b.Status = to
	b.StatusNote = note
	b.UpdatedAt = time.Now()
	return nil
}

func (r *memRepo) UpdatePaymentStatus(_ context.Context, id string, status models.PaymentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return bookingRepo.ErrNotFound
	}
	b.PaymentStatus = status
	return nil
}

func (r *memRepo) UpdateLastKnownLocation(_ context.Context, id string, point models.GeoPoint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return bookingRepo.ErrNotFound
	}
	if b.Status == models.BookingOngoing {
		b.LastKnownLocation = &point
	}
	return nil
}

type recordingCloser struct {
	closed []string
}

func (rc *recordingCloser) CloseRoom(bookingID string) {
	rc.closed = append(rc.closed, bookingID)
}

const (
	customerID = "cust-1"
	ownerID    = "own-1"
	strangerID = "other-9"
)

func newTestService(t *testing.T, status models.BookingStatus) (*DefaultBookingService, *memRepo, *recordingCloser) {
	t.Helper()
	repo := newMemRepo()
	closer := &recordingCloser{}
	svc := &DefaultBookingService{Repo: repo, Relay: closer, Logger: zap.NewNop()}

	require.NoError(t, repo.Create(context.Background(), &models.Booking{
		ID:            "b1",
		CustomerID:    customerID,
		OwnerID:       ownerID,
		CarID:         "car-1",
		Status:        status,
		PaymentStatus: models.PaymentUnpaid,
	}))
	return svc, repo, closer
}

func TestApplyTransitionLegalEdges(t *testing.T) {
	cases := []struct {
		name    string
		from    models.BookingStatus
		to      models.BookingStatus
		actorID string
		role    models.Role
	}{
		{"owner confirms pending", models.BookingPending, models.BookingConfirmed, ownerID, models.RoleOwner},
		{"owner cancels pending", models.BookingPending, models.BookingCancelled, ownerID, models.RoleOwner},
		{"customer cancels pending", models.BookingPending, models.BookingCancelled, customerID, models.RoleCustomer},
		{"owner cancels confirmed", models.BookingConfirmed, models.BookingCancelled, ownerID, models.RoleOwner},
		{"customer cancels confirmed", models.BookingConfirmed, models.BookingCancelled, customerID, models.RoleCustomer},
		{"owner starts trip", models.BookingConfirmed, models.BookingOngoing, ownerID, models.RoleOwner},
		{"owner completes trip", models.BookingOngoing, models.BookingCompleted, ownerID, models.RoleOwner},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, repo, _ := newTestService(t, tc.from)

			b, err := svc.ApplyTransition(context.Background(), "b1", tc.actorID, tc.role, tc.to, "note")
			require.NoError(t, err)
			assert.Equal(t, tc.to, b.Status)

			stored, err := repo.GetByID(context.Background(), "b1")
			require.NoError(t, err)
			assert.Equal(t, tc.to, stored.Status)
		})
	}
}

// Every (from, to, actor) combination outside the transition table must fail
// with ErrInvalidTransition or ErrForbidden, never succeed.
func TestApplyTransitionExhaustiveGrid(t *testing.T) {
	statuses := []models.BookingStatus{
		models.BookingPending, models.BookingConfirmed, models.BookingOngoing,
		models.BookingCompleted, models.BookingCancelled,
	}
	actors := []struct {
		id   string
		role models.Role
	}{
		{customerID, models.RoleCustomer},
		{ownerID, models.RoleOwner},
		{strangerID, models.RoleCustomer},
		{strangerID, models.RoleOwner},
		{"admin-1", models.RoleAdmin},
	}

	for _, from := range statuses {
		for _, to := range statuses {
			for _, actor := range actors {
				svc, _, _ := newTestService(t, from)
				b, _ := svc.GetBooking(context.Background(), "b1")

				rule, legalEdge := transitionAllowed(from, to)
				legalActor := legalEdge && actorMayTransition(rule, b, actor.id, actor.role)

				_, err := svc.ApplyTransition(context.Background(), "b1", actor.id, actor.role, to, "")
				switch {
				case legalActor:
					assert.NoError(t, err, "%s -> %s by %s/%s", from, to, actor.id, actor.role)
				case legalEdge:
					assert.ErrorIs(t, err, ErrForbidden, "%s -> %s by %s/%s", from, to, actor.id, actor.role)
				default:
					assert.ErrorIs(t, err, ErrInvalidTransition, "%s -> %s by %s/%s", from, to, actor.id, actor.role)
				}
			}
		}
	}
}

func TestApplyTransitionUnknownBooking(t *testing.T) {
	svc, _, _ := newTestService(t, models.BookingPending)
	_, err := svc.ApplyTransition(context.Background(), "missing", ownerID, models.RoleOwner, models.BookingConfirmed, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestApplyTransitionLostRaceReturnsConflict(t *testing.T) {
	svc, repo, _ := newTestService(t, models.BookingPending)

	// A concurrent cancel wins between the read and the swap.
	repo.beforeUpdate = func() {
		repo.beforeUpdate = nil
		b := repo.bookings["b1"]
		b.Status = models.BookingCancelled
	}

	_, err := svc.ApplyTransition(context.Background(), "b1", ownerID, models.RoleOwner, models.BookingConfirmed, "")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestOngoingNotReenterableFromTerminal(t *testing.T) {
	for _, from := range []models.BookingStatus{models.BookingCompleted, models.BookingCancelled} {
		svc, _, _ := newTestService(t, from)
		_, err := svc.ApplyTransition(context.Background(), "b1", ownerID, models.RoleOwner, models.BookingOngoing, "")
		assert.ErrorIs(t, err, ErrInvalidTransition, "from %s", from)
	}
}

func TestLeavingOngoingClosesRoom(t *testing.T) {
	svc, _, closer := newTestService(t, models.BookingOngoing)

	_, err := svc.ApplyTransition(context.Background(), "b1", ownerID, models.RoleOwner, models.BookingCompleted, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"b1"}, closer.closed)
}

func TestEnteringOngoingDoesNotCloseRoom(t *testing.T) {
	svc, _, closer := newTestService(t, models.BookingConfirmed)

	_, err := svc.ApplyTransition(context.Background(), "b1", ownerID, models.RoleOwner, models.BookingOngoing, "")
	require.NoError(t, err)
	assert.Empty(t, closer.closed)
}

func TestCreateBookingPricing(t *testing.T) {
	svc := &DefaultBookingService{Repo: newMemRepo(), Logger: zap.NewNop()}
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	cases := []struct {
		name  string
		end   time.Time
		price float64
	}{
		{"whole day", start.Add(24 * time.Hour), 100},
		{"partial day rounds up", start.Add(30 * time.Hour), 200},
		{"short rental charges one day", start.Add(2 * time.Hour), 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b, err := svc.CreateBooking(context.Background(), customerID, models.BookingInput{
				CarID:     "car-1",
				OwnerID:   ownerID,
				StartTime: start,
				EndTime:   tc.end,
				DailyRate: 100,
			})
			require.NoError(t, err)
			assert.Equal(t, tc.price, b.TotalPrice)
			assert.Equal(t, models.BookingPending, b.Status)
			assert.Equal(t, models.PaymentUnpaid, b.PaymentStatus)
		})
	}

	_, err := svc.CreateBooking(context.Background(), customerID, models.BookingInput{
		CarID: "car-1", OwnerID: ownerID, StartTime: start, EndTime: start, DailyRate: 100,
	})
	assert.Error(t, err)
}

func TestSettlePayment(t *testing.T) {
	svc, repo, _ := newTestService(t, models.BookingPending)

	require.NoError(t, svc.SettlePayment(context.Background(), "b1", true))
	b, _ := repo.GetByID(context.Background(), "b1")
	assert.Equal(t, models.PaymentPaid, b.PaymentStatus)
	// Payment never advances the booking status.
	assert.Equal(t, models.BookingPending, b.Status)

	require.NoError(t, svc.SettlePayment(context.Background(), "b1", false))
	b, _ = repo.GetByID(context.Background(), "b1")
	assert.Equal(t, models.PaymentUnpaid, b.PaymentStatus)
}

func TestInvoiceOnlyForTerminalBookings(t *testing.T) {
	svc, _, _ := newTestService(t, models.BookingOngoing)
	_, err := svc.Invoice(context.Background(), "b1")
	assert.ErrorIs(t, err, ErrNotInvoiceable)

	svc2, _, _ := newTestService(t, models.BookingCompleted)
	inv, err := svc2.Invoice(context.Background(), "b1")
	require.NoError(t, err)
	assert.Equal(t, "b1", inv.BookingID)
	assert.Equal(t, "INV-b1", inv.InvoiceID)
}
