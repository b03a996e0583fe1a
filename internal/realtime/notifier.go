package realtime

// StockNotifier is the interface handlers and workers use to emit stock events
// that do not originate from a store change.
type StockNotifier interface {
	NotifyRemoving(shopID, itemID string)
	NotifyRefresh(shopID string)
}

// HubNotifier implements StockNotifier using the Hub.
type HubNotifier struct {
	hub *Hub
}

// NewHubNotifier creates a notifier backed by the given Hub.
func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

func (n *HubNotifier) NotifyRemoving(shopID, itemID string) {
	n.hub.Publish(Event{Type: EventRemoved, ShopID: shopID, ItemID: itemID})
}

func (n *HubNotifier) NotifyRefresh(shopID string) {
	n.hub.Publish(Event{Type: EventRefresh, ShopID: shopID})
}

// NopNotifier is a no-op implementation for when realtime is not needed.
type NopNotifier struct{}

func (n *NopNotifier) NotifyRemoving(shopID, itemID string) {}
func (n *NopNotifier) NotifyRefresh(shopID string)          {}
