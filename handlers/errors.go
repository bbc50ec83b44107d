package handlers

import (
	"errors"
	"net/http"

	"carvia/services/booking"
	"carvia/services/payment"
	"carvia/utils"

	"github.com/gin-gonic/gin"
)

// writeDomainError maps domain errors onto HTTP statuses through the
// standard envelope. Anything unrecognized is a 500.
func writeDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, booking.ErrInvalidTransition):
		utils.JSONError(c, http.StatusBadRequest, "Invalid status transition", err.Error())
	case errors.Is(err, booking.ErrForbidden):
		utils.JSONError(c, http.StatusForbidden, "Not allowed", err.Error())
	case errors.Is(err, booking.ErrNotFound):
		utils.JSONError(c, http.StatusNotFound, "Booking not found", err.Error())
	case errors.Is(err, booking.ErrConflict):
		utils.JSONError(c, http.StatusConflict, "Booking was modified concurrently, please retry", err.Error())
	case errors.Is(err, booking.ErrNotInvoiceable):
		utils.JSONError(c, http.StatusBadRequest, "Booking is not invoiceable yet", err.Error())
	case errors.Is(err, payment.ErrSessionNotFound):
		utils.JSONError(c, http.StatusNotFound, "Payment session not found", err.Error())
	case errors.Is(err, payment.ErrAlreadyPaid):
		utils.JSONError(c, http.StatusConflict, "Booking is already paid", err.Error())
	case errors.Is(err, payment.ErrDuplicateConfirmation):
		utils.JSONError(c, http.StatusConflict, "Payment already processed", err.Error())
	case errors.Is(err, payment.ErrGatewayConfirmationFailed):
		utils.JSONError(c, http.StatusBadGateway, "Payment could not be confirmed", "Please re-check your booking status")
	default:
		utils.JSONError(c, http.StatusInternalServerError, "Internal error", err.Error())
	}
}
