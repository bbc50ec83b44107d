package booking

import "carvia/models"

// actorRule says which booking party may drive a given transition edge.
type actorRule int

const (
	ownerOnly actorRule = iota
	ownerOrCustomer
)

type transitionKey struct {
	From models.BookingStatus
	To   models.BookingStatus
}

// transitions is the full table of legal status edges. Anything absent is an
// invalid transition: no skipping states, no moving backward, no re-entry
// into ongoing from a terminal state.
var transitions = map[transitionKey]actorRule{
	{models.BookingPending, models.BookingConfirmed}:   ownerOnly,
	{models.BookingPending, models.BookingCancelled}:   ownerOrCustomer,
	{models.BookingConfirmed, models.BookingCancelled}: ownerOrCustomer,
	{models.BookingConfirmed, models.BookingOngoing}:   ownerOnly, // trip start
	{models.BookingOngoing, models.BookingCompleted}:   ownerOnly,
}

// transitionAllowed reports whether the edge exists and, if so, its actor rule.
func transitionAllowed(from, to models.BookingStatus) (actorRule, bool) {
	rule, ok := transitions[transitionKey{From: from, To: to}]
	return rule, ok
}

// actorMayTransition checks the actor's identity and role against the rule
// for an edge. Admins observe; they never drive transitions.
func actorMayTransition(rule actorRule, b *models.Booking, actorID string, role models.Role) bool {
	switch rule {
	case ownerOnly:
		return role == models.RoleOwner && actorID == b.OwnerID
	case ownerOrCustomer:
		if role == models.RoleOwner && actorID == b.OwnerID {
			return true
		}
		return role == models.RoleCustomer && actorID == b.CustomerID
	}
	return false
}
