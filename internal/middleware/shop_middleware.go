package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/GTDGit/shelf_api/internal/models"
	"github.com/GTDGit/shelf_api/internal/service"
	"github.com/GTDGit/shelf_api/internal/utils"
)

// ShopMiddleware loads the authenticated owner's shop. Requests from users
// who have not onboarded yet are rejected with SHOP_REQUIRED.
type ShopMiddleware struct {
	shops *service.ShopService
}

// NewShopMiddleware creates a ShopMiddleware.
func NewShopMiddleware(shops *service.ShopService) *ShopMiddleware {
	return &ShopMiddleware{shops: shops}
}

// Handle must run after JWTMiddleware.
func (m *ShopMiddleware) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		shop, err := m.shops.ForOwner(c.Request.Context(), GetUserID(c))
		if err != nil {
			utils.ErrorFrom(c, err, "Failed to load shop")
			c.Abort()
			return
		}
		c.Set(ContextShop, shop)
		c.Next()
	}
}

// GetShop returns the shop loaded by ShopMiddleware.
func GetShop(c *gin.Context) *models.Shop {
	shop, _ := c.Get(ContextShop)
	if shop == nil {
		return nil
	}
	return shop.(*models.Shop)
}
