package ws

import (
	"context"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/HerbHall/droidspec/internal/catalog"
	"github.com/HerbHall/droidspec/internal/event"
	"github.com/HerbHall/droidspec/internal/state"
)

// Handler streams catalog and state change notifications so every open tab
// stays in sync.
type Handler struct {
	hub            *Hub
	originPatterns []string
	logger         *zap.Logger
}

// NewHandler creates a WebSocket handler and subscribes it to bus.
// originPatterns lists extra allowed Origin hosts beyond same-origin.
func NewHandler(bus event.Subscriber, originPatterns []string, logger *zap.Logger) *Handler {
	h := &Handler{
		hub:            NewHub(logger),
		originPatterns: originPatterns,
		logger:         logger,
	}
	if bus != nil {
		h.subscribe(bus)
	}
	return h
}

// RegisterRoutes registers WebSocket routes on the server mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/ws/events", h.handleEvents)
}

// Hub exposes the connection hub.
func (h *Handler) Hub() *Hub {
	return h.hub
}

// handleEvents upgrades the connection and streams change notifications.
//
//	@Summary		Change notifications
//	@Description	WebSocket stream of catalog.replaced and state.changed messages.
//	@Tags			events
//	@Success		101
//	@Router			/ws/events [get]
func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		h.logger.Warn("websocket accept failed", zap.Error(err))
		return
	}

	client := newClient(conn, uuid.NewString(), h.logger)
	h.hub.Register(client)

	ctx := r.Context()
	done := make(chan struct{})
	go func() {
		client.writePump(ctx)
		close(done)
	}()

	client.readPump(ctx)

	h.hub.Unregister(client)
	conn.Close(websocket.StatusNormalClosure, "")
	<-done
}

func (h *Handler) subscribe(bus event.Subscriber) {
	bus.SubscribeAll(func(_ context.Context, ev event.Event) {
		if msg, ok := toMessage(ev); ok {
			h.hub.Broadcast(msg)
		}
	})
}

// toMessage maps a bus event to the notification sent to tabs. Events
// without a browser-facing message are skipped.
func toMessage(ev event.Event) (Message, bool) {
	switch p := ev.Payload.(type) {
	case catalog.ReplacedEvent:
		return Message{
			Type:      MessageCatalogReplaced,
			Timestamp: ev.Timestamp,
			Data:      CatalogReplacedData{Catalog: p.Info},
		}, true
	case state.ChangedEvent:
		return Message{
			Type:      MessageStateChanged,
			Timestamp: ev.Timestamp,
			Data:      StateChangedData{Key: p.Key, Deleted: p.Deleted},
		}, true
	default:
		return Message{}, false
	}
}
