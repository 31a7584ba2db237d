package ws

import (
	"time"

	"github.com/HerbHall/droidspec/internal/catalog"
)

// MessageType discriminates WebSocket messages.
type MessageType string

const (
	MessageCatalogReplaced MessageType = "catalog.replaced"
	MessageStateChanged    MessageType = "state.changed"
)

// Message is the envelope for all WebSocket messages.
type Message struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      any         `json:"data"`
}

// CatalogReplacedData is the payload for catalog.replaced messages. Clients
// refetch the device list; the collection itself is not pushed.
type CatalogReplacedData struct {
	Catalog catalog.Info `json:"catalog"`
}

// StateChangedData is the payload for state.changed messages.
type StateChangedData struct {
	Key     string `json:"key"`
	Deleted bool   `json:"deleted,omitempty"`
}
