package handler

import (
	"encoding/json"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/shelf_api/internal/middleware"
	"github.com/GTDGit/shelf_api/internal/service"
	"github.com/GTDGit/shelf_api/internal/utils"
)

// PushSubscriptionHandler stores browser push endpoints.
type PushSubscriptionHandler struct {
	pushService *service.PushSubscriptionService
}

// NewPushSubscriptionHandler creates a new PushSubscriptionHandler.
func NewPushSubscriptionHandler(pushService *service.PushSubscriptionService) *PushSubscriptionHandler {
	return &PushSubscriptionHandler{pushService: pushService}
}

// Create handles POST /v1/push-subscriptions. The body is the browser's PushSubscription JSON.
func (h *PushSubscriptionHandler) Create(c *gin.Context) {
	var raw json.RawMessage
	if err := c.ShouldBindJSON(&raw); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	sub, err := h.pushService.Create(c.Request.Context(), middleware.GetUserID(c), raw)
	if err != nil {
		utils.ErrorFrom(c, err, "Failed to save push subscription")
		return
	}
	utils.Success(c, 201, "Push subscription saved", sub)
}

// List handles GET /v1/push-subscriptions.
func (h *PushSubscriptionHandler) List(c *gin.Context) {
	subs, err := h.pushService.List(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		utils.ErrorFrom(c, err, "Failed to list push subscriptions")
		return
	}
	utils.Success(c, 200, "Push subscriptions retrieved", subs)
}

// Delete handles DELETE /v1/push-subscriptions/:id.
func (h *PushSubscriptionHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "push subscription")
	if !ok {
		return
	}
	if err := h.pushService.Delete(c.Request.Context(), middleware.GetUserID(c), id); err != nil {
		utils.ErrorFrom(c, err, "Failed to delete push subscription")
		return
	}
	utils.Success(c, 200, "Push subscription deleted", gin.H{"id": id})
}
