package realtime

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

// StockChannel is the NOTIFY channel fired by the stock_items trigger; the payload is the shop id.
const StockChannel = "stock_changes"

type notificationSource interface {
	NotificationChannel() <-chan *pq.Notification
	Ping() error
	Close() error
}

// Listener relays PostgreSQL stock notifications into the Hub.
type Listener struct {
	src          notificationSource
	hub          *Hub
	pingInterval time.Duration
}

// NewListener opens a dedicated LISTEN connection on dsn.
func NewListener(dsn string, hub *Hub) (*Listener, error) {
	l := pq.NewListener(dsn, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		switch ev {
		case pq.ListenerEventConnected:
			log.Info().Msg("stock listener connected")
		case pq.ListenerEventDisconnected:
			log.Warn().Err(err).Msg("stock listener disconnected")
		case pq.ListenerEventReconnected:
			log.Info().Msg("stock listener reconnected")
		case pq.ListenerEventConnectionAttemptFailed:
			log.Warn().Err(err).Msg("stock listener connection attempt failed")
		}
	})
	if err := l.Listen(StockChannel); err != nil {
		_ = l.Close()
		return nil, fmt.Errorf("listen %s: %w", StockChannel, err)
	}
	return newListener(l, hub), nil
}

func newListener(src notificationSource, hub *Hub) *Listener {
	return &Listener{src: src, hub: hub, pingInterval: 90 * time.Second}
}

// Start relays notifications until ctx is cancelled, then closes the connection.
func (l *Listener) Start(ctx context.Context) {
	log.Info().Str("channel", StockChannel).Msg("stock listener started")
	defer func() {
		if err := l.src.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close stock listener")
		}
	}()

	ticker := time.NewTicker(l.pingInterval)
	defer ticker.Stop()

	notifications := l.src.NotificationChannel()
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("stock listener stopped")
			return
		case n, ok := <-notifications:
			if !ok {
				return
			}
			l.handle(n)
		case <-ticker.C:
			go func() {
				if err := l.src.Ping(); err != nil {
					log.Warn().Err(err).Msg("stock listener ping failed")
				}
			}()
		}
	}
}

func (l *Listener) handle(n *pq.Notification) {
	// A nil notification follows a reconnect: anything may have been missed.
	if n == nil {
		l.hub.PublishAll(EventRefresh)
		return
	}
	if n.Extra == "" {
		return
	}
	log.Debug().Str("shop_id", n.Extra).Msg("stock change notification")
	l.hub.Publish(Event{Type: EventChanged, ShopID: n.Extra})
}
