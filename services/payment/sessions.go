package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"carvia/models"

	"github.com/go-redis/redis/v8"
)

const (
	sessionKeyPrefix = "paysession:"
	bookingKeyPrefix = "paybooking:"

	// SessionTTL bounds how long a session may stay non-terminal.
	SessionTTL = 30 * time.Minute
)

// SessionStore keeps payment sessions in Redis for the duration of a payment
// attempt, keyed by session id with a secondary booking-id index so gateway
// callbacks can find the session they belong to.
type SessionStore struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{Client: client, TTL: SessionTTL}
}

// Save writes the session and its booking index under the store TTL.
func (st *SessionStore) Save(ctx context.Context, session *models.PaymentSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal payment session: %w", err)
	}
	if err := st.Client.Set(ctx, sessionKeyPrefix+session.ID, data, st.TTL).Err(); err != nil {
		return fmt.Errorf("failed to cache payment session: %w", err)
	}
	if err := st.Client.Set(ctx, bookingKeyPrefix+session.BookingID, session.ID, st.TTL).Err(); err != nil {
		return fmt.Errorf("failed to index payment session: %w", err)
	}
	return nil
}

// Get retrieves a session by id.
func (st *SessionStore) Get(ctx context.Context, id string) (*models.PaymentSession, error) {
	data, err := st.Client.Get(ctx, sessionKeyPrefix+id).Result()
	if err == redis.Nil {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch payment session: %w", err)
	}
	var session models.PaymentSession
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("failed to parse payment session: %w", err)
	}
	return &session, nil
}

// GetByBooking retrieves the latest session initiated for a booking.
func (st *SessionStore) GetByBooking(ctx context.Context, bookingID string) (*models.PaymentSession, error) {
	id, err := st.Client.Get(ctx, bookingKeyPrefix+bookingID).Result()
	if err == redis.Nil {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve payment session for booking: %w", err)
	}
	return st.Get(ctx, id)
}
