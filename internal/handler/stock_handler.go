package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/shelf_api/internal/middleware"
	"github.com/GTDGit/shelf_api/internal/models"
	"github.com/GTDGit/shelf_api/internal/realtime"
	"github.com/GTDGit/shelf_api/internal/service"
	"github.com/GTDGit/shelf_api/internal/utils"
)

// StockHandler serves the stock ledger of the caller's shop.
type StockHandler struct {
	stockService *service.StockService
	resolver     *service.ResolverService
	notifier     realtime.StockNotifier
}

// NewStockHandler creates a new StockHandler.
func NewStockHandler(stockService *service.StockService, resolver *service.ResolverService, notifier realtime.StockNotifier) *StockHandler {
	if notifier == nil {
		notifier = &realtime.NopNotifier{}
	}
	return &StockHandler{stockService: stockService, resolver: resolver, notifier: notifier}
}

type saveStockRequest struct {
	Barcode     string      `json:"barcode"`
	Name        string      `json:"name" binding:"required"`
	Brand       *string     `json:"brand"`
	Category    *string     `json:"category"`
	Quantity    int         `json:"quantity" binding:"required"`
	ExpiryDate  models.Date `json:"expiryDate"`
	BatchNo     *string     `json:"batchNo"`
	SupplierID  *string     `json:"supplierId"`
	ScanSession string      `json:"scanSession"`
}

// List handles GET /v1/stock?status=&search=
func (h *StockHandler) List(c *gin.Context) {
	shop := middleware.GetShop(c)
	listing, err := h.stockService.ListByStatus(c.Request.Context(), shop.ID, service.ListFilter{
		Status: c.Query("status"),
		Search: c.Query("search"),
	})
	if err != nil {
		utils.ErrorFrom(c, err, "Failed to list stock")
		return
	}
	utils.Success(c, 200, "Stock retrieved", listing)
}

// Create handles POST /v1/stock, the save flow after a scan or manual entry.
func (h *StockHandler) Create(c *gin.Context) {
	var req saveStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}
	if req.SupplierID != nil && !isUUID(*req.SupplierID) {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid supplier id")
		return
	}

	shop := middleware.GetShop(c)
	item, err := h.stockService.SaveScanned(c.Request.Context(), service.SaveStockInput{
		ShopID:     shop.ID,
		UserID:     middleware.GetUserID(c),
		Barcode:    req.Barcode,
		Name:       req.Name,
		Brand:      req.Brand,
		Category:   req.Category,
		Quantity:   req.Quantity,
		ExpiryDate: req.ExpiryDate,
		BatchNo:    req.BatchNo,
		SupplierID: req.SupplierID,
	})
	if err != nil {
		utils.ErrorFrom(c, err, "Failed to save stock item")
		return
	}

	if req.ScanSession != "" && h.resolver != nil {
		h.resolver.Forget(c.Request.Context(), req.ScanSession)
	}
	utils.Success(c, 201, "Stock item saved", item)
}

// Resolve handles POST /v1/stock/:id/resolve.
func (h *StockHandler) Resolve(c *gin.Context) {
	id, ok := pathID(c, "stock item")
	if !ok {
		return
	}
	var req struct {
		Status models.StockStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	shop := middleware.GetShop(c)
	item, err := h.stockService.Resolve(c.Request.Context(), shop.ID, id, req.Status)
	if err != nil {
		utils.ErrorFrom(c, err, "Failed to resolve stock item")
		return
	}
	utils.Success(c, 200, "Stock item resolved", item)
}

// Delete handles DELETE /v1/stock/:id. Connected clients drop the row
// before the store confirms; a failed delete makes them refetch.
func (h *StockHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "stock item")
	if !ok {
		return
	}
	shop := middleware.GetShop(c)

	h.notifier.NotifyRemoving(shop.ID, id)
	if err := h.stockService.Remove(c.Request.Context(), shop.ID, id); err != nil {
		h.notifier.NotifyRefresh(shop.ID)
		log.Warn().Err(err).Str("shop_id", shop.ID).Str("stock_id", id).Msg("stock delete failed, clients asked to refetch")
		utils.ErrorFrom(c, err, "Failed to delete stock item")
		return
	}
	utils.Success(c, 200, "Stock item deleted", gin.H{"id": id})
}

// Alerts handles GET /v1/alerts.
func (h *StockHandler) Alerts(c *gin.Context) {
	shop := middleware.GetShop(c)
	alerts, err := h.stockService.Alerts(c.Request.Context(), shop.ID)
	if err != nil {
		utils.ErrorFrom(c, err, "Failed to load alerts")
		return
	}
	utils.Success(c, 200, "Alerts retrieved", gin.H{
		"total":    alerts.Total(),
		"critical": alerts.Critical,
		"warning":  alerts.Warning,
		"watch":    alerts.Watch,
	})
}
