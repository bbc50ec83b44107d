package models

import "time"

// Invoice is derived from a retained booking record; it is never stored
// separately.
type Invoice struct {
	InvoiceID     string        `json:"invoiceId"`
	BookingID     string        `json:"bookingId"`
	CustomerID    string        `json:"customerId"`
	OwnerID       string        `json:"ownerId"`
	CarID         string        `json:"carId"`
	Amount        float64       `json:"amount"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	Status        BookingStatus `json:"status"`
	PeriodStart   time.Time     `json:"periodStart"`
	PeriodEnd     time.Time     `json:"periodEnd"`
	IssuedAt      time.Time     `json:"issuedAt"`
}
