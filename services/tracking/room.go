package tracking

import (
	"sync"

	"carvia/models"
)

// subscriberBuffer is the per-subscriber outbound queue depth. A full queue
// drops the oldest pending update rather than blocking the publisher.
const subscriberBuffer = 16

// Subscriber is one observer connection's view of a room: a buffered channel
// the room pushes into and the connection's write pump drains. The hub never
// closes the channel; the owning connection does its own teardown.
type Subscriber struct {
	ID   string
	Role models.Role
	out  chan models.LocationUpdate
}

func NewSubscriber(id string, role models.Role) *Subscriber {
	return &Subscriber{
		ID:   id,
		Role: role,
		out:  make(chan models.LocationUpdate, subscriberBuffer),
	}
}

// Updates is the channel the subscriber's write pump consumes.
func (s *Subscriber) Updates() <-chan models.LocationUpdate {
	return s.out
}

// room serializes all state for one booking's telemetry: the single
// publisher identity, the last sample, and the subscriber set are only ever
// mutated together under the room lock (single-writer-per-room).
type room struct {
	mu          sync.Mutex
	bookingID   string
	publisherID string
	last        *models.PositionSample
	subs        map[*Subscriber]struct{}
}

func newRoom(bookingID string) *room {
	return &room{
		bookingID: bookingID,
		subs:      make(map[*Subscriber]struct{}),
	}
}

// addSubscriber registers the subscriber and replays the last known sample,
// if any, ahead of any future publish.
func (r *room) addSubscriber(sub *Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.subs[sub] = struct{}{}
	if r.last != nil {
		offer(sub, models.LocationUpdate{Lat: r.last.Lat, Lng: r.last.Lng})
	}
}

// removeSubscriber detaches the subscriber; reports whether the room is now
// empty and should be destroyed.
func (r *room) removeSubscriber(sub *Subscriber) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.subs, sub)
	return len(r.subs) == 0 && r.publisherID == ""
}

// publish records the sample as last-known and fans it out to every
// subscriber except the publisher. Fan-out is non-blocking per subscriber: a
// slow or gone consumer never delays the others.
func (r *room) publish(actorID string, sample models.PositionSample) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.publisherID = actorID
	r.last = &sample

	update := models.LocationUpdate{Lat: sample.Lat, Lng: sample.Lng}
	for sub := range r.subs {
		if sub.ID == actorID {
			continue
		}
		offer(sub, update)
	}
}

// releasePublisher frees the publisher slot if held by the given actor;
// reports whether the room is now empty.
func (r *room) releasePublisher(actorID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.publisherID == actorID {
		r.publisherID = ""
	}
	return len(r.subs) == 0 && r.publisherID == ""
}

// clear empties all room state on teardown.
func (r *room) clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.publisherID = ""
	r.last = nil
	r.subs = make(map[*Subscriber]struct{})
}

// offer pushes without blocking; when the subscriber's queue is full the
// oldest pending update is dropped to make room for the newest.
func offer(sub *Subscriber, update models.LocationUpdate) {
	select {
	case sub.out <- update:
		return
	default:
	}
	select {
	case <-sub.out:
	default:
	}
	select {
	case sub.out <- update:
	default:
	}
}
