// Package tracking implements the trip telemetry relay: one room per ongoing
// booking, a single authorized publisher (the trip's customer) and a small
// set of observers (owner dashboard, admin). The hub is transport-agnostic;
// the WebSocket handler owns connections and pumps.
package tracking

import (
	"context"
	"sync"

	"carvia/models"

	"go.uber.org/zap"
)

// PublishGuard authorizes a telemetry publish for a booking.
type PublishGuard interface {
	CanPublish(ctx context.Context, bookingID, actorID string) error
}

// BookingSource reads the current booking record; the status field is the
// single source of truth for whether a room may exist.
type BookingSource interface {
	GetByID(ctx context.Context, id string) (*models.Booking, error)
}

// LocationStore persists the most recent position, best-effort.
type LocationStore interface {
	UpdateLastKnownLocation(ctx context.Context, id string, point models.GeoPoint) error
}

// Hub is the telemetry relay. All room state is owned here; rooms are
// created on demand and destroyed when the booking leaves ongoing or the
// last participant leaves.
type Hub struct {
	mu       sync.RWMutex
	rooms    map[string]*room
	guard    PublishGuard
	bookings BookingSource
	store    LocationStore
	logger   *zap.Logger
}

func NewHub(guard PublishGuard, bookings BookingSource, store LocationStore, logger *zap.Logger) *Hub {
	return &Hub{
		rooms:    make(map[string]*room),
		guard:    guard,
		bookings: bookings,
		store:    store,
		logger:   logger,
	}
}

// Join registers the subscriber with the booking's room. Joining a booking
// that is not ongoing is a harmless no-op: no room is created and nothing
// will ever be delivered. Joining an ongoing booking delivers the room's
// last known sample first, before any newer publish, so a (re)connecting
// observer never starts from a blank map.
func (h *Hub) Join(ctx context.Context, bookingID string, sub *Subscriber) error {
	b, err := h.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if b.Status != models.BookingOngoing {
		return nil
	}

	r := h.getOrCreateRoom(bookingID)
	r.addSubscriber(sub)
	h.logger.Debug("subscriber joined tracking room",
		zap.String("bookingId", bookingID),
		zap.String("subscriberId", sub.ID))
	return nil
}

// Leave removes the subscriber from the booking's room; idempotent. An empty
// room with no publisher is destroyed.
func (h *Hub) Leave(bookingID string, sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, ok := h.rooms[bookingID]
	if !ok {
		return
	}
	if r.removeSubscriber(sub) {
		delete(h.rooms, bookingID)
	}
}

// Publish accepts a position sample from the booking's customer while the
// booking is ongoing, makes it the room's last known sample, updates the
// booking's last known location best-effort, and fans it out to every
// subscriber except the publisher.
func (h *Hub) Publish(ctx context.Context, actorID string, sample models.PositionSample) error {
	if err := h.guard.CanPublish(ctx, sample.BookingID, actorID); err != nil {
		return err
	}

	r := h.getOrCreateRoom(sample.BookingID)
	r.publish(actorID, sample)

	// The room's in-memory last sample is authoritative for live viewers;
	// the durable write may lag or fail without failing the publish.
	if h.store != nil {
		point := models.GeoPoint{Lat: sample.Lat, Lng: sample.Lng}
		if err := h.store.UpdateLastKnownLocation(ctx, sample.BookingID, point); err != nil {
			h.logger.Warn("failed to persist last known location",
				zap.String("bookingId", sample.BookingID),
				zap.Error(err))
		}
	}
	return nil
}

// ReleasePublisher frees the room's publisher slot (customer disconnect) so a
// reconnect can re-acquire it cleanly. An empty room is destroyed.
func (h *Hub) ReleasePublisher(bookingID, actorID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, ok := h.rooms[bookingID]
	if !ok {
		return
	}
	if r.releasePublisher(actorID) {
		delete(h.rooms, bookingID)
	}
}

// CloseRoom tears the booking's room down: state cleared, subscribers
// detached. Called by the booking state machine whenever a booking leaves
// ongoing; any subsequent publish fails authorization against the new status.
func (h *Hub) CloseRoom(bookingID string) {
	h.mu.Lock()
	r, ok := h.rooms[bookingID]
	if ok {
		delete(h.rooms, bookingID)
	}
	h.mu.Unlock()

	if ok {
		r.clear()
		h.logger.Info("tracking room closed", zap.String("bookingId", bookingID))
	}
}

// RoomCount reports the number of live rooms.
func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

func (h *Hub) getOrCreateRoom(bookingID string) *room {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, ok := h.rooms[bookingID]
	if !ok {
		r = newRoom(bookingID)
		h.rooms[bookingID] = r
	}
	return r
}
