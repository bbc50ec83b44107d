package models

import "time"

// BookingStatus is the lifecycle state of a booking. Transitions between
// statuses are validated by the booking state machine; nothing else writes
// this field.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingOngoing   BookingStatus = "ongoing"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

// PaymentStatus tracks whether the booking has been paid for. It is folded in
// from a terminal payment session and never drives the booking status.
type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// GeoPoint is a latitude/longitude pair.
type GeoPoint struct {
	Lat float64 `bson:"lat" json:"lat"`
	Lng float64 `bson:"lng" json:"lng"`
}

// Booking represents a rental trip record. Terminal bookings are retained for
// invoicing and audit, never deleted.
type Booking struct {
	ID            string        `bson:"id" json:"id"`
	CustomerID    string        `bson:"customer_id" json:"customerId"`
	OwnerID       string        `bson:"owner_id" json:"ownerId"`
	CarID         string        `bson:"car_id" json:"carId"`
	Status        BookingStatus `bson:"status" json:"status"`
	PaymentStatus PaymentStatus `bson:"payment_status" json:"paymentStatus"`
	StartTime     time.Time     `bson:"start_time" json:"startTime"`
	EndTime       time.Time     `bson:"end_time" json:"endTime"`
	TotalPrice    float64       `bson:"total_price" json:"totalPrice"`
	// LastKnownLocation is only ever written while the booking is ongoing.
	LastKnownLocation *GeoPoint `bson:"last_known_location,omitempty" json:"lastKnownLocation,omitempty"`
	StatusNote        string    `bson:"status_note,omitempty" json:"statusNote,omitempty"`
	CreatedAt         time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt         time.Time `bson:"updated_at" json:"updatedAt"`
}

// IsTerminal reports whether the booking can no longer change status.
func (b *Booking) IsTerminal() bool {
	return b.Status == BookingCompleted || b.Status == BookingCancelled
}

// BookingInput is the payload for creating a booking request.
type BookingInput struct {
	CarID     string    `json:"carId" binding:"required"`
	OwnerID   string    `json:"ownerId" binding:"required"`
	StartTime time.Time `json:"startTime" binding:"required"`
	EndTime   time.Time `json:"endTime" binding:"required"`
	DailyRate float64   `json:"dailyRate" binding:"required,gt=0"`
}

// StatusUpdateInput is the payload for a booking status transition.
type StatusUpdateInput struct {
	Status BookingStatus `json:"status" binding:"required"`
	Note   string        `json:"note"`
}
