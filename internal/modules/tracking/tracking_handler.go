package tracking

import (
	"net/http"

	"grocery-dispatch/internal/models"
	"grocery-dispatch/pkg/utils"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// Inbound frames are a tagged variant validated at the channel boundary;
// anything that is not a well-formed location event is dropped.
const eventTypeLocation = "location"

type inboundEvent struct {
	Type      string  `json:"type"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type outboundEvent struct {
	Type string `json:"type"`
	models.TrackingUpdate
}

// upgrader is used to upgrade HTTP connections to WebSocket connections.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler serves the live tracking channel.
type Handler struct {
	svc ServiceInterface
}

// NewHandler creates a new tracking handler.
func NewHandler(svc ServiceInterface) *Handler {
	return &Handler{svc: svc}
}

// HandleTracking upgrades the connection and joins the order's room. Every
// client receives {location, status} updates in emission order; a client
// authenticated as a delivery partner may additionally publish location
// events, which are persisted before being re-broadcast. There is no
// ack/retry on this channel: after a reconnect, clients refetch the order
// by id for the authoritative state.
func (h *Handler) HandleTracking(c echo.Context) error {
	userID, role, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}
	orderID := c.Param("orderId")

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	sub := h.svc.Subscribe(orderID)

	writeDone := make(chan struct{})
	go func() {
		defer close(writeDone)
		for update := range sub.Updates {
			if err := conn.WriteJSON(outboundEvent{Type: "tracking", TrackingUpdate: update}); err != nil {
				return
			}
		}
	}()

	for {
		var ev inboundEvent
		if err := conn.ReadJSON(&ev); err != nil {
			break
		}
		if role != models.RolePartner || ev.Type != eventTypeLocation {
			continue
		}

		sample := models.LocationSample{
			OrderID:   orderID,
			PartnerID: userID,
			Latitude:  ev.Latitude,
			Longitude: ev.Longitude,
		}
		if _, err := h.svc.Publish(c.Request().Context(), sample); err != nil {
			// Best-effort overlay: a rejected or failed sample is logged,
			// not surfaced, and never broadcast.
			c.Logger().Warnf("tracking publish order=%s: %v", orderID, err)
		}
	}

	h.svc.Unsubscribe(sub)
	<-writeDone
	return nil
}
