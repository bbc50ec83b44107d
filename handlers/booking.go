package handlers

import (
	"net/http"

	"carvia/models"
	"carvia/services/access"
	"carvia/services/booking"
	"carvia/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"carvia/middleware"
)

// BookingHandler exposes the booking lifecycle over HTTP.
type BookingHandler struct {
	Service booking.BookingService
	Guard   *access.Guard
	Logger  *zap.Logger
}

func NewBookingHandler(service booking.BookingService, guard *access.Guard, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{Service: service, Guard: guard, Logger: logger}
}

// CreateBooking creates a pending booking for the authenticated customer.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var input models.BookingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}
	actorID, _ := middleware.Identity(c)

	b, err := h.Service.CreateBooking(c.Request.Context(), actorID, input)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	utils.JSONData(c, http.StatusCreated, b)
}

// GetMyBookings lists the authenticated customer's bookings.
func (h *BookingHandler) GetMyBookings(c *gin.Context) {
	actorID, _ := middleware.Identity(c)
	bookings, err := h.Service.ListCustomerBookings(c.Request.Context(), actorID)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	utils.JSONData(c, http.StatusOK, bookings)
}

// GetOwnerBookings lists bookings against the authenticated owner's cars.
func (h *BookingHandler) GetOwnerBookings(c *gin.Context) {
	actorID, _ := middleware.Identity(c)
	bookings, err := h.Service.ListOwnerBookings(c.Request.Context(), actorID)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	utils.JSONData(c, http.StatusOK, bookings)
}

// GetBooking returns one booking; visible to its parties and admins.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	actorID, role := middleware.Identity(c)
	b, err := h.Service.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	if !h.Guard.CanView(b, actorID, role) {
		writeDomainError(c, booking.ErrForbidden)
		return
	}
	utils.JSONData(c, http.StatusOK, b)
}

// GetInvoice returns the invoice view of a terminal booking.
func (h *BookingHandler) GetInvoice(c *gin.Context) {
	actorID, role := middleware.Identity(c)
	b, err := h.Service.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	if !h.Guard.CanView(b, actorID, role) {
		writeDomainError(c, booking.ErrForbidden)
		return
	}
	invoice, err := h.Service.Invoice(c.Request.Context(), b.ID)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	utils.JSONData(c, http.StatusOK, invoice)
}

// UpdateStatus applies a booking status transition on behalf of the actor.
func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	var input models.StatusUpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}
	actorID, role := middleware.Identity(c)

	b, err := h.Service.ApplyTransition(c.Request.Context(), c.Param("id"), actorID, role, input.Status, input.Note)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	utils.JSONData(c, http.StatusOK, b)
}
