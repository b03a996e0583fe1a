package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/GTDGit/shelf_api/internal/middleware"
	"github.com/GTDGit/shelf_api/internal/service"
	"github.com/GTDGit/shelf_api/internal/utils"
)

// ShopHandler handles shop onboarding.
type ShopHandler struct {
	shopService *service.ShopService
}

// NewShopHandler creates a new ShopHandler.
func NewShopHandler(shopService *service.ShopService) *ShopHandler {
	return &ShopHandler{shopService: shopService}
}

// Create handles POST /v1/shops.
func (h *ShopHandler) Create(c *gin.Context) {
	var req struct {
		Name     string  `json:"name" binding:"required"`
		Location *string `json:"location"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	shop, err := h.shopService.Create(c.Request.Context(), middleware.GetUserID(c), req.Name, req.Location)
	if err != nil {
		utils.ErrorFrom(c, err, "Failed to create shop")
		return
	}
	utils.Success(c, 201, "Shop created", shop)
}

// Mine handles GET /v1/shops/me.
func (h *ShopHandler) Mine(c *gin.Context) {
	shop, err := h.shopService.ForOwner(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		utils.ErrorFrom(c, err, "Failed to load shop")
		return
	}
	utils.Success(c, 200, "Shop retrieved", shop)
}
