package handler

import (
	"fmt"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/shelf_api/internal/middleware"
	"github.com/GTDGit/shelf_api/internal/realtime"
	"github.com/GTDGit/shelf_api/internal/service"
	"github.com/GTDGit/shelf_api/internal/utils"
)

// StreamHandler pushes the shop's live stock view over Server-Sent Events.
type StreamHandler struct {
	hub          *realtime.Hub
	stock        *service.StockService
	suppliers    *service.SupplierService
	pingInterval time.Duration
}

// NewStreamHandler creates a new StreamHandler.
func NewStreamHandler(hub *realtime.Hub, stock *service.StockService, suppliers *service.SupplierService) *StreamHandler {
	return &StreamHandler{hub: hub, stock: stock, suppliers: suppliers, pingInterval: 30 * time.Second}
}

// Stream handles GET /v1/stock/stream?token=<jwt>
// Every change notification refetches the whole view and sends it as a "snapshot" event.
func (h *StreamHandler) Stream(c *gin.Context) {
	shop := middleware.GetShop(c)
	ctx := c.Request.Context()

	view := service.NewShopView(*shop, h.stock, h.suppliers)
	if err := view.Refresh(ctx); err != nil {
		utils.ErrorFrom(c, err, "Failed to load stock")
		return
	}

	clientID := fmt.Sprintf("%s-%d", middleware.GetUserID(c), time.Now().UnixNano())

	// SSE headers
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // Disable nginx buffering

	client := h.hub.Register(shop.ID, clientID)
	defer h.hub.Unregister(client)

	c.SSEvent("snapshot", view.Snapshot())
	c.Writer.Flush()

	log.Info().Str("client_id", clientID).Str("shop_id", shop.ID).Msg("stock stream started")

	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-client.Events:
			if !ok {
				return false
			}
			if ev.Type == realtime.EventRemoved {
				if view.Remove(ev.ItemID) {
					c.SSEvent("snapshot", view.Snapshot())
				}
				return true
			}
			if err := view.Refresh(ctx); err != nil {
				log.Warn().Err(err).Str("client_id", clientID).Msg("stock stream refresh failed, keeping previous view")
				return ctx.Err() == nil
			}
			c.SSEvent("snapshot", view.Snapshot())
			return true
		case <-time.After(h.pingInterval):
			c.SSEvent("ping", gin.H{"timestamp": time.Now().Format(time.RFC3339)})
			return true
		case <-ctx.Done():
			return false
		}
	})
}
