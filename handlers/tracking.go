package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"carvia/models"
	"carvia/services/access"
	"carvia/services/tracking"
	"carvia/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// TrackingHandler upgrades connections onto the telemetry channel and pumps
// frames between the socket and the hub.
type TrackingHandler struct {
	Hub      *tracking.Hub
	Guard    *access.Guard
	Logger   *zap.Logger
	upgrader websocket.Upgrader
}

func NewTrackingHandler(hub *tracking.Hub, guard *access.Guard, logger *zap.Logger) *TrackingHandler {
	return &TrackingHandler{
		Hub:    hub,
		Guard:  guard,
		Logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// wsConn serializes writes: the read loop (error frames) and the write pump
// (fan-out) both write to the same socket.
type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (w *wsConn) writeJSON(v interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteJSON(v)
}

// HandleWS serves one telemetry connection. The client authenticates with
// its JWT as a query parameter, then speaks join_tracking / send_location
// frames and receives receive_location frames.
func (h *TrackingHandler) HandleWS(c *gin.Context) {
	actorID, role, err := utils.ExtractIdentityFromToken(c.Query("token"))
	if err != nil || actorID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Insufficient authorization"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ws := &wsConn{conn: conn}
	sub := tracking.NewSubscriber(actorID, models.Role(role))

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	joined := make(map[string]bool)
	published := make(map[string]bool)
	defer func() {
		for bookingID := range joined {
			h.Hub.Leave(bookingID, sub)
		}
		for bookingID := range published {
			h.Hub.ReleasePublisher(bookingID, actorID)
		}
	}()

	go h.writePump(ctx, ws, sub)

	for {
		var msg models.TrackingMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}

		switch msg.Event {
		case models.MsgJoinTracking:
			if err := h.Guard.CanObserve(ctx, msg.BookingID, actorID, models.Role(role)); err != nil {
				h.sendError(ws, msg.BookingID, err)
				continue
			}
			if err := h.Hub.Join(ctx, msg.BookingID, sub); err != nil {
				h.sendError(ws, msg.BookingID, err)
				continue
			}
			joined[msg.BookingID] = true

		case models.MsgSendLocation:
			sample := models.PositionSample{
				BookingID:  msg.BookingID,
				Lat:        msg.Lat,
				Lng:        msg.Lng,
				Heading:    msg.Heading,
				Speed:      msg.Speed,
				CapturedAt: parseTimestamp(msg.Timestamp),
			}
			if err := h.Hub.Publish(ctx, actorID, sample); err != nil {
				h.sendError(ws, msg.BookingID, err)
				continue
			}
			published[msg.BookingID] = true

		default:
			h.Logger.Debug("ignoring unknown tracking event",
				zap.String("event", msg.Event),
				zap.String("actorId", actorID))
		}
	}
}

// writePump drains the subscriber's queue onto the socket until the
// connection context is torn down.
func (h *TrackingHandler) writePump(ctx context.Context, ws *wsConn, sub *tracking.Subscriber) {
	for {
		select {
		case <-ctx.Done():
			return
		case update := <-sub.Updates():
			frame := models.TrackingMessage{
				Event: models.MsgReceiveLocation,
				Lat:   update.Lat,
				Lng:   update.Lng,
			}
			if err := ws.writeJSON(frame); err != nil {
				return
			}
		}
	}
}

func (h *TrackingHandler) sendError(ws *wsConn, bookingID string, err error) {
	frame := models.TrackingMessage{
		Event:     "error",
		BookingID: bookingID,
		Error:     err.Error(),
	}
	_ = ws.writeJSON(frame)
}

func parseTimestamp(raw string) time.Time {
	if raw == "" {
		return time.Now()
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Now()
	}
	return ts
}
