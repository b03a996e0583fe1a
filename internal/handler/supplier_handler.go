package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/GTDGit/shelf_api/internal/middleware"
	"github.com/GTDGit/shelf_api/internal/service"
	"github.com/GTDGit/shelf_api/internal/utils"
)

// SupplierHandler manages the shop's return contacts.
type SupplierHandler struct {
	supplierService *service.SupplierService
}

// NewSupplierHandler creates a new SupplierHandler.
func NewSupplierHandler(supplierService *service.SupplierService) *SupplierHandler {
	return &SupplierHandler{supplierService: supplierService}
}

// List handles GET /v1/suppliers.
func (h *SupplierHandler) List(c *gin.Context) {
	suppliers, err := h.supplierService.List(c.Request.Context(), middleware.GetShop(c).ID)
	if err != nil {
		utils.ErrorFrom(c, err, "Failed to list suppliers")
		return
	}
	utils.Success(c, 200, "Suppliers retrieved", suppliers)
}

// Create handles POST /v1/suppliers.
func (h *SupplierHandler) Create(c *gin.Context) {
	var req struct {
		Name  string  `json:"name" binding:"required"`
		Phone *string `json:"phone"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	supplier, err := h.supplierService.Create(c.Request.Context(), middleware.GetShop(c).ID, req.Name, req.Phone)
	if err != nil {
		utils.ErrorFrom(c, err, "Failed to create supplier")
		return
	}
	utils.Success(c, 201, "Supplier created", supplier)
}

// Delete handles DELETE /v1/suppliers/:id.
func (h *SupplierHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "supplier")
	if !ok {
		return
	}
	if err := h.supplierService.Delete(c.Request.Context(), middleware.GetShop(c).ID, id); err != nil {
		utils.ErrorFrom(c, err, "Failed to delete supplier")
		return
	}
	utils.Success(c, 200, "Supplier deleted", gin.H{"id": id})
}
