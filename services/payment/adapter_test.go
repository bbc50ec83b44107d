package payment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"carvia/models"
	"carvia/services/booking"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memSessions struct {
	byID      map[string]*models.PaymentSession
	byBooking map[string]string
}

func newMemSessions() *memSessions {
	return &memSessions{
		byID:      make(map[string]*models.PaymentSession),
		byBooking: make(map[string]string),
	}
}

func (m *memSessions) Save(_ context.Context, session *models.PaymentSession) error {
	clone := *session
	m.byID[session.ID] = &clone
	m.byBooking[session.BookingID] = session.ID
	return nil
}

func (m *memSessions) Get(_ context.Context, id string) (*models.PaymentSession, error) {
	s, ok := m.byID[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	clone := *s
	return &clone, nil
}

func (m *memSessions) GetByBooking(ctx context.Context, bookingID string) (*models.PaymentSession, error) {
	id, ok := m.byBooking[bookingID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return m.Get(ctx, id)
}

type settleCall struct {
	bookingID string
	succeeded bool
}

// fakeBookings implements booking.BookingService for the adapter's needs and
// records settlement and pending calls.
type fakeBookings struct {
	bookings map[string]*models.Booking
	pending  []string
	settled  []settleCall
}

func (f *fakeBookings) CreateBooking(context.Context, string, models.BookingInput) (*models.Booking, error) {
	return nil, nil
}

func (f *fakeBookings) GetBooking(_ context.Context, id string) (*models.Booking, error) {
	b, ok := f.bookings[id]
	if !ok {
		return nil, booking.ErrNotFound
	}
	return b, nil
}

func (f *fakeBookings) ListCustomerBookings(context.Context, string) ([]models.Booking, error) {
	return nil, nil
}

func (f *fakeBookings) ListOwnerBookings(context.Context, string) ([]models.Booking, error) {
	return nil, nil
}

func (f *fakeBookings) ApplyTransition(context.Context, string, string, models.Role, models.BookingStatus, string) (*models.Booking, error) {
	return nil, nil
}

func (f *fakeBookings) MarkPaymentPending(_ context.Context, bookingID string) error {
	f.pending = append(f.pending, bookingID)
	if b, ok := f.bookings[bookingID]; ok {
		b.PaymentStatus = models.PaymentPending
	}
	return nil
}

func (f *fakeBookings) SettlePayment(_ context.Context, bookingID string, succeeded bool) error {
	f.settled = append(f.settled, settleCall{bookingID, succeeded})
	if b, ok := f.bookings[bookingID]; ok {
		if succeeded {
			b.PaymentStatus = models.PaymentPaid
		} else {
			b.PaymentStatus = models.PaymentUnpaid
		}
	}
	return nil
}

func (f *fakeBookings) Invoice(context.Context, string) (*models.Invoice, error) {
	return nil, nil
}

type recordingScheduler struct {
	scheduled []string
	delay     time.Duration
}

func (r *recordingScheduler) ScheduleExpiry(sessionID string, delay time.Duration) error {
	r.scheduled = append(r.scheduled, sessionID)
	r.delay = delay
	return nil
}

func newTestAdapter(t *testing.T) (*Adapter, *memSessions, *fakeBookings, *recordingScheduler) {
	t.Helper()
	sessions := newMemSessions()
	bookings := &fakeBookings{bookings: map[string]*models.Booking{
		"b1": {
			ID: "b1", CustomerID: "cust-1", OwnerID: "own-1",
			Status: models.BookingPending, PaymentStatus: models.PaymentUnpaid,
			TotalPrice: 300,
		},
	}}
	scheduler := &recordingScheduler{}
	adapter := &Adapter{
		Sessions: sessions,
		Easypay:  NewEasypayGateway("store-42", "https://merchant.example/cb", true),
		Bookings: bookings,
		Expiry:   scheduler,
		Logger:   zap.NewNop(),
	}
	return adapter, sessions, bookings, scheduler
}

// easypayConfirmServer points the adapter's gateway at a local confirm
// endpoint answering with the given status code.
func easypayConfirmServer(t *testing.T, a *Adapter, code int) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(code)
	}))
	t.Cleanup(srv.Close)
	a.Easypay.confirmURL = srv.URL
}

func callbackParams(token, status string) url.Values {
	params := url.Values{}
	params.Set("auth_token", token)
	params.Set("status", status)
	params.Set("orderRefNum", "b1")
	params.Set("desc", "0000")
	return params
}

func TestInitiateEasypay(t *testing.T) {
	adapter, sessions, bookings, scheduler := newTestAdapter(t)

	session, err := adapter.Initiate(context.Background(), "b1", "cust-1", models.GatewayEasypay)
	require.NoError(t, err)
	assert.Equal(t, models.SessionInitiated, session.Status)

	stored, err := sessions.GetByBooking(context.Background(), "b1")
	require.NoError(t, err)
	assert.Equal(t, session.ID, stored.ID)

	assert.Equal(t, []string{"b1"}, bookings.pending)
	assert.Equal(t, []string{session.ID}, scheduler.scheduled)
	assert.Equal(t, SessionTTL, scheduler.delay)
}

func TestInitiateDeniedForNonCustomer(t *testing.T) {
	adapter, _, _, _ := newTestAdapter(t)

	for _, actor := range []string{"own-1", "other-9"} {
		_, err := adapter.Initiate(context.Background(), "b1", actor, models.GatewayEasypay)
		assert.ErrorIs(t, err, booking.ErrForbidden, "actor %s", actor)
	}
}

func TestInitiateRejectsPaidBooking(t *testing.T) {
	adapter, _, bookings, _ := newTestAdapter(t)
	bookings.bookings["b1"].PaymentStatus = models.PaymentPaid

	_, err := adapter.Initiate(context.Background(), "b1", "cust-1", models.GatewayEasypay)
	assert.ErrorIs(t, err, ErrAlreadyPaid)
}

func TestInitiateUnknownBooking(t *testing.T) {
	adapter, _, _, _ := newTestAdapter(t)
	_, err := adapter.Initiate(context.Background(), "missing", "cust-1", models.GatewayEasypay)
	assert.ErrorIs(t, err, booking.ErrNotFound)
}

func TestHandleCallbackBindsTokenToSession(t *testing.T) {
	adapter, sessions, _, _ := newTestAdapter(t)
	initiated, err := adapter.Initiate(context.Background(), "b1", "cust-1", models.GatewayEasypay)
	require.NoError(t, err)

	session, err := adapter.HandleCallback(context.Background(), callbackParams("tok-123", "Success"))
	require.NoError(t, err)

	assert.Equal(t, initiated.ID, session.ID)
	assert.Equal(t, "tok-123", session.Token)
	assert.Equal(t, "Success", session.GatewayStatus)
	assert.Equal(t, models.SessionAwaitingConfirmation, session.Status)

	stored, err := sessions.Get(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionAwaitingConfirmation, stored.Status)
}

func TestHandleCallbackWithoutPriorSession(t *testing.T) {
	adapter, _, _, _ := newTestAdapter(t)

	// Payment started on the gateway's hosted page; our first sight of it is
	// the callback itself.
	session, err := adapter.HandleCallback(context.Background(), callbackParams("tok-123", "Success"))
	require.NoError(t, err)
	assert.Equal(t, "b1", session.BookingID)
	assert.Equal(t, models.GatewayEasypay, session.Gateway)
	assert.Equal(t, models.SessionAwaitingConfirmation, session.Status)
}

func TestHandleCallbackMissingParams(t *testing.T) {
	adapter, _, _, _ := newTestAdapter(t)

	params := callbackParams("tok-123", "Success")
	params.Del("auth_token")
	_, err := adapter.HandleCallback(context.Background(), params)
	assert.Error(t, err)

	params = callbackParams("tok-123", "Success")
	params.Del("orderRefNum")
	_, err = adapter.HandleCallback(context.Background(), params)
	assert.Error(t, err)
}

func TestConfirmSuccessSettlesBookingPaid(t *testing.T) {
	adapter, _, bookings, _ := newTestAdapter(t)
	easypayConfirmServer(t, adapter, http.StatusOK)

	session, err := adapter.HandleCallback(context.Background(), callbackParams("tok-123", "Success"))
	require.NoError(t, err)

	// Not paid yet: the reported outcome is unconfirmed.
	assert.Empty(t, bookings.settled)

	confirmed, err := adapter.Confirm(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionSucceeded, confirmed.Status)
	assert.Equal(t, []settleCall{{"b1", true}}, bookings.settled)
	assert.Equal(t, models.PaymentPaid, bookings.bookings["b1"].PaymentStatus)
}

func TestConfirmReportedFailureSettlesUnpaid(t *testing.T) {
	adapter, _, bookings, _ := newTestAdapter(t)
	easypayConfirmServer(t, adapter, http.StatusOK)

	session, err := adapter.HandleCallback(context.Background(), callbackParams("tok-123", "Failed"))
	require.NoError(t, err)

	confirmed, err := adapter.Confirm(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionFailed, confirmed.Status)
	assert.Equal(t, []settleCall{{"b1", false}}, bookings.settled)
	assert.Equal(t, models.PaymentUnpaid, bookings.bookings["b1"].PaymentStatus)
}

func TestConfirmEndpointFailureNeverPays(t *testing.T) {
	adapter, sessions, bookings, _ := newTestAdapter(t)
	easypayConfirmServer(t, adapter, http.StatusBadGateway)

	session, err := adapter.HandleCallback(context.Background(), callbackParams("tok-123", "Success"))
	require.NoError(t, err)

	_, err = adapter.Confirm(context.Background(), session.ID)
	assert.ErrorIs(t, err, ErrGatewayConfirmationFailed)

	stored, err := sessions.Get(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionFailed, stored.Status)
	assert.Equal(t, []settleCall{{"b1", false}}, bookings.settled)
}

func TestConfirmIsSingleShot(t *testing.T) {
	adapter, _, bookings, _ := newTestAdapter(t)
	easypayConfirmServer(t, adapter, http.StatusOK)

	session, err := adapter.HandleCallback(context.Background(), callbackParams("tok-123", "Success"))
	require.NoError(t, err)

	_, err = adapter.Confirm(context.Background(), session.ID)
	require.NoError(t, err)

	_, err = adapter.Confirm(context.Background(), session.ID)
	assert.ErrorIs(t, err, ErrDuplicateConfirmation)
	assert.Len(t, bookings.settled, 1)
}

func TestConfirmRequiresAwaitingSession(t *testing.T) {
	adapter, _, bookings, _ := newTestAdapter(t)
	easypayConfirmServer(t, adapter, http.StatusOK)

	session, err := adapter.Initiate(context.Background(), "b1", "cust-1", models.GatewayEasypay)
	require.NoError(t, err)

	// No callback arrived, so there is no token to confirm with.
	_, err = adapter.Confirm(context.Background(), session.ID)
	assert.ErrorIs(t, err, ErrDuplicateConfirmation)
	assert.Empty(t, bookings.settled)
}

func TestRepeatedCallbackAfterTerminalIsRejected(t *testing.T) {
	adapter, _, _, _ := newTestAdapter(t)
	easypayConfirmServer(t, adapter, http.StatusOK)

	session, err := adapter.HandleCallback(context.Background(), callbackParams("tok-123", "Success"))
	require.NoError(t, err)
	_, err = adapter.Confirm(context.Background(), session.ID)
	require.NoError(t, err)

	_, err = adapter.HandleCallback(context.Background(), callbackParams("tok-456", "Success"))
	assert.ErrorIs(t, err, ErrDuplicateConfirmation)
}

func TestHandleReturn(t *testing.T) {
	t.Run("success settles paid", func(t *testing.T) {
		adapter, _, bookings, _ := newTestAdapter(t)
		require.NoError(t, adapter.Sessions.Save(context.Background(), &models.PaymentSession{
			ID: "s1", BookingID: "b1", Gateway: models.GatewaySafepay,
			Status: models.SessionInitiated,
		}))

		session, err := adapter.HandleReturn(context.Background(), "b1", true)
		require.NoError(t, err)
		assert.Equal(t, models.SessionSucceeded, session.Status)
		assert.Equal(t, []settleCall{{"b1", true}}, bookings.settled)
	})

	t.Run("cancel settles unpaid", func(t *testing.T) {
		adapter, _, bookings, _ := newTestAdapter(t)
		require.NoError(t, adapter.Sessions.Save(context.Background(), &models.PaymentSession{
			ID: "s1", BookingID: "b1", Gateway: models.GatewaySafepay,
			Status: models.SessionInitiated,
		}))

		session, err := adapter.HandleReturn(context.Background(), "b1", false)
		require.NoError(t, err)
		assert.Equal(t, models.SessionFailed, session.Status)
		assert.Equal(t, []settleCall{{"b1", false}}, bookings.settled)
	})

	t.Run("terminal session is left alone", func(t *testing.T) {
		adapter, _, bookings, _ := newTestAdapter(t)
		require.NoError(t, adapter.Sessions.Save(context.Background(), &models.PaymentSession{
			ID: "s1", BookingID: "b1", Gateway: models.GatewaySafepay,
			Status: models.SessionSucceeded,
		}))

		session, err := adapter.HandleReturn(context.Background(), "b1", false)
		require.NoError(t, err)
		assert.Equal(t, models.SessionSucceeded, session.Status)
		assert.Empty(t, bookings.settled)
	})
}

func TestExpireSession(t *testing.T) {
	t.Run("stale session fails and settles unpaid", func(t *testing.T) {
		adapter, sessions, bookings, _ := newTestAdapter(t)
		session, err := adapter.Initiate(context.Background(), "b1", "cust-1", models.GatewayEasypay)
		require.NoError(t, err)

		require.NoError(t, adapter.ExpireSession(context.Background(), session.ID))

		stored, err := sessions.Get(context.Background(), session.ID)
		require.NoError(t, err)
		assert.Equal(t, models.SessionFailed, stored.Status)
		assert.Equal(t, []settleCall{{"b1", false}}, bookings.settled)
	})

	t.Run("terminal session is a no-op", func(t *testing.T) {
		adapter, _, bookings, _ := newTestAdapter(t)
		require.NoError(t, adapter.Sessions.Save(context.Background(), &models.PaymentSession{
			ID: "s1", BookingID: "b1", Status: models.SessionSucceeded,
		}))

		require.NoError(t, adapter.ExpireSession(context.Background(), "s1"))
		assert.Empty(t, bookings.settled)
	})

	t.Run("missing session is a no-op", func(t *testing.T) {
		adapter, _, _, _ := newTestAdapter(t)
		assert.NoError(t, adapter.ExpireSession(context.Background(), "gone"))
	})
}
