package service

import (
	"context"
	"sync"
	"time"

	"github.com/GTDGit/shelf_api/internal/expiry"
	"github.com/GTDGit/shelf_api/internal/models"
)

// ShopSnapshot is the state a connected client renders.
type ShopSnapshot struct {
	Shop          models.Shop        `json:"shop"`
	Items         []expiry.AlertItem `json:"items"`
	Suppliers     []SupplierView     `json:"suppliers"`
	CriticalCount int                `json:"criticalCount"`
	CriticalNames []string           `json:"criticalNames"`
	RefreshedAt   time.Time          `json:"refreshedAt"`
}

// ShopView holds one client's view of a shop: its active stock and suppliers.
// Every change notification triggers a full Refresh rather than a merge.
type ShopView struct {
	shop      models.Shop
	stock     *StockService
	suppliers *SupplierService

	mu   sync.RWMutex
	snap ShopSnapshot
}

// NewShopView creates an empty view; call Refresh to load it.
func NewShopView(shop models.Shop, stock *StockService, suppliers *SupplierService) *ShopView {
	return &ShopView{
		shop:      shop,
		stock:     stock,
		suppliers: suppliers,
		snap: ShopSnapshot{
			Shop:          shop,
			Items:         []expiry.AlertItem{},
			Suppliers:     []SupplierView{},
			CriticalNames: []string{},
		},
	}
}

// Refresh refetches the whole view. On error the previous state is kept.
func (v *ShopView) Refresh(ctx context.Context) error {
	listing, err := v.stock.ListByStatus(ctx, v.shop.ID, ListFilter{Status: string(models.StockActive)})
	if err != nil {
		return err
	}
	suppliers, err := v.suppliers.List(ctx, v.shop.ID)
	if err != nil {
		return err
	}

	v.mu.Lock()
	v.snap = ShopSnapshot{
		Shop:          v.shop,
		Items:         listing.Items,
		Suppliers:     suppliers,
		CriticalCount: listing.CriticalCount,
		CriticalNames: listing.CriticalNames,
		RefreshedAt:   time.Now(),
	}
	v.mu.Unlock()
	return nil
}

// Remove drops an item locally ahead of the store confirming its deletion.
// The next Refresh reconciles the view either way.
func (v *ShopView) Remove(id string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	for i, it := range v.snap.Items {
		if it.ID != id {
			continue
		}
		items := make([]expiry.AlertItem, 0, len(v.snap.Items)-1)
		items = append(items, v.snap.Items[:i]...)
		items = append(items, v.snap.Items[i+1:]...)
		v.snap.Items = items

		names := []string{}
		for _, it := range items {
			if it.DaysLeft <= 1 {
				names = append(names, it.ProductName)
			}
		}
		v.snap.CriticalNames = names
		v.snap.CriticalCount = len(names)
		return true
	}
	return false
}

// Snapshot returns the current state. Slices are shared and must not be mutated.
func (v *ShopView) Snapshot() ShopSnapshot {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.snap
}
