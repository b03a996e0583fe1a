package realtime

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/shelf_api/internal/metrics"
)

// EventType names a realtime stock event.
type EventType string

const (
	// EventChanged means the shop's stock changed in the store; clients refetch.
	EventChanged EventType = "stock.changed"
	// EventRefresh asks clients to refetch without a data change (day rollover, reconnect).
	EventRefresh EventType = "stock.refresh"
	// EventRemoved announces a deletion before the store confirms it.
	EventRemoved EventType = "stock.removed"
)

// Event is delivered to every client watching a shop.
type Event struct {
	Type      EventType `json:"event"`
	ShopID    string    `json:"shopId"`
	ItemID    string    `json:"itemId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Client is one connected stream watching a shop.
type Client struct {
	ID     string
	ShopID string
	Events chan Event
}

// Hub fans stock events out to the clients of each shop.
type Hub struct {
	mu      sync.RWMutex
	shops   map[string]map[string]*Client
	metrics *metrics.Metrics
}

// NewHub creates a new Hub. m may be nil.
func NewHub(m *metrics.Metrics) *Hub {
	return &Hub{
		shops:   make(map[string]map[string]*Client),
		metrics: m,
	}
}

// Register adds a client watching shopID.
func (h *Hub) Register(shopID, clientID string) *Client {
	h.mu.Lock()
	defer h.mu.Unlock()

	c := &Client{ID: clientID, ShopID: shopID, Events: make(chan Event, 16)}
	if h.shops[shopID] == nil {
		h.shops[shopID] = make(map[string]*Client)
	}
	h.shops[shopID][clientID] = c
	h.metrics.SubscriberDelta(1)
	log.Info().Str("client_id", clientID).Str("shop_id", shopID).Int("shop_clients", len(h.shops[shopID])).Msg("realtime client connected")
	return c
}

// Unregister removes a client and closes its channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.shops[c.ShopID]
	if !ok {
		return
	}
	if _, ok := clients[c.ID]; !ok {
		return
	}
	close(c.Events)
	delete(clients, c.ID)
	if len(clients) == 0 {
		delete(h.shops, c.ShopID)
	}
	h.metrics.SubscriberDelta(-1)
	log.Info().Str("client_id", c.ID).Str("shop_id", c.ShopID).Msg("realtime client disconnected")
}

// Publish sends ev to every client of ev.ShopID.
// Non-blocking: a client with a full buffer misses the event; the refetch
// triggered by any earlier queued event already covers it.
func (h *Hub) Publish(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.shops[ev.ShopID] {
		select {
		case c.Events <- ev:
		default:
			h.metrics.EventDropped()
			log.Warn().Str("client_id", c.ID).Str("shop_id", ev.ShopID).Msg("realtime client buffer full, dropping event")
		}
	}
}

// PublishAll sends an event of type t to every shop with connected clients.
func (h *Hub) PublishAll(t EventType) {
	for _, shopID := range h.ShopIDs() {
		h.Publish(Event{Type: t, ShopID: shopID})
	}
}

// ShopIDs returns the shops that currently have clients.
func (h *Hub) ShopIDs() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]string, 0, len(h.shops))
	for id := range h.shops {
		ids = append(ids, id)
	}
	return ids
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, clients := range h.shops {
		n += len(clients)
	}
	return n
}
