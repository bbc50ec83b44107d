package handlers

import (
	"net/http"

	"carvia/middleware"
	"carvia/models"
	"carvia/services/payment"
	"carvia/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PaymentHandler exposes payment initiation and the gateway return legs.
type PaymentHandler struct {
	Adapter *payment.Adapter
	Logger  *zap.Logger
}

func NewPaymentHandler(adapter *payment.Adapter, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{Adapter: adapter, Logger: logger}
}

// initResponse is what the client needs to reach the gateway: the redirect
// target for a hidden auto-submitted POST form.
type initResponse struct {
	SessionID string            `json:"sessionId"`
	URL       string            `json:"url"`
	Payload   map[string]string `json:"payload,omitempty"`
}

func (h *PaymentHandler) initiate(c *gin.Context, kind models.GatewayKind) {
	actorID, _ := middleware.Identity(c)
	session, err := h.Adapter.Initiate(c.Request.Context(), c.Param("id"), actorID, kind)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	utils.JSONData(c, http.StatusOK, initResponse{
		SessionID: session.ID,
		URL:       session.Redirect.URL,
		Payload:   session.Redirect.Fields,
	})
}

// InitSafepay starts a direct-redirect payment for a booking.
func (h *PaymentHandler) InitSafepay(c *gin.Context) {
	h.initiate(c, models.GatewaySafepay)
}

// InitEasypay starts a handshake payment for a booking.
func (h *PaymentHandler) InitEasypay(c *gin.Context) {
	h.initiate(c, models.GatewayEasypay)
}

// EasypayCallback handles the handshake gateway's redirect back to the
// merchant and immediately runs the confirm leg. The redirect status is
// authoritative only once the confirm POST has completed.
func (h *PaymentHandler) EasypayCallback(c *gin.Context) {
	session, err := h.Adapter.HandleCallback(c.Request.Context(), c.Request.URL.Query())
	if err != nil {
		writeDomainError(c, err)
		return
	}

	session, err = h.Adapter.Confirm(c.Request.Context(), session.ID)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	utils.JSONData(c, http.StatusOK, session)
}

// PaymentReturn is the merchant return/cancel leg of the direct-redirect
// protocol. The client should re-query the booking for the authoritative
// state afterwards.
func (h *PaymentHandler) PaymentReturn(c *gin.Context) {
	bookingID := c.Query("bookingId")
	if bookingID == "" {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", "missing bookingId")
		return
	}
	succeeded := c.Query("status") == "success"

	session, err := h.Adapter.HandleReturn(c.Request.Context(), bookingID, succeeded)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	utils.JSONData(c, http.StatusOK, session)
}

// GetSession returns a payment session by id.
func (h *PaymentHandler) GetSession(c *gin.Context) {
	session, err := h.Adapter.Sessions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	utils.JSONData(c, http.StatusOK, session)
}
