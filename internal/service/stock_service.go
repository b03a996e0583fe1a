package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/shelf_api/internal/expiry"
	"github.com/GTDGit/shelf_api/internal/models"
	"github.com/GTDGit/shelf_api/internal/repository"
	"github.com/GTDGit/shelf_api/internal/utils"
)

// StockStore persists stock items.
type StockStore interface {
	List(ctx context.Context, shopID string, filter repository.StockFilter) ([]models.StockItem, error)
	GetByID(ctx context.Context, shopID, id string) (*models.StockItem, error)
	Create(ctx context.Context, item *models.StockItem) error
	Resolve(ctx context.Context, shopID, id string, status models.StockStatus) (time.Time, error)
	Delete(ctx context.Context, shopID, id string) error
	CriticalCounts(ctx context.Context, cutoff models.Date) (map[string]int, error)
}

// SupplierReader looks up a shop's suppliers.
type SupplierReader interface {
	GetByID(ctx context.Context, shopID, id string) (*models.Supplier, error)
}

// StockListing is an inventory page with the data behind the critical banner.
type StockListing struct {
	Items         []expiry.AlertItem `json:"items"`
	CriticalCount int                `json:"criticalCount"`
	CriticalNames []string           `json:"criticalNames"`
}

// ListFilter selects inventory rows. Status is "active" (default), "all" or a specific status.
type ListFilter struct {
	Status string
	Search string
}

// SaveStockInput is the save flow payload: an optional scanned barcode plus the stock row.
type SaveStockInput struct {
	ShopID     string
	UserID     string
	Barcode    string
	Name       string
	Brand      *string
	Category   *string
	Quantity   int
	ExpiryDate models.Date
	BatchNo    *string
	SupplierID *string
}

// StockService is the shop's stock ledger.
type StockService struct {
	stock         StockStore
	suppliers     SupplierReader
	catalog       *CatalogService
	waCountryCode string
	now           func() time.Time
}

// NewStockService creates a StockService.
func NewStockService(stock StockStore, suppliers SupplierReader, catalog *CatalogService, waCountryCode string) *StockService {
	return &StockService{
		stock:         stock,
		suppliers:     suppliers,
		catalog:       catalog,
		waCountryCode: waCountryCode,
		now:           time.Now,
	}
}

// List returns the shop's active items, soonest expiry first, with supplier contact joined.
func (s *StockService) List(ctx context.Context, shopID string) ([]models.StockItem, error) {
	if shopID == "" {
		return nil, utils.ErrShopRequired
	}
	return s.stock.List(ctx, shopID, repository.StockFilter{Status: models.StockActive})
}

// ListByStatus returns annotated inventory rows matching filter. The critical
// banner only ever counts active items.
func (s *StockService) ListByStatus(ctx context.Context, shopID string, filter ListFilter) (*StockListing, error) {
	if shopID == "" {
		return nil, utils.ErrShopRequired
	}

	rf := repository.StockFilter{Search: strings.TrimSpace(filter.Search)}
	switch filter.Status {
	case "", string(models.StockActive):
		rf.Status = models.StockActive
	case "all":
	default:
		st := models.StockStatus(filter.Status)
		if !st.Valid() {
			return nil, fmt.Errorf("%w: unknown status filter %q", utils.ErrInvalidStatus, filter.Status)
		}
		rf.Status = st
	}

	items, err := s.stock.List(ctx, shopID, rf)
	if err != nil {
		return nil, err
	}

	today := s.now()
	out := &StockListing{Items: make([]expiry.AlertItem, 0, len(items)), CriticalNames: []string{}}
	var active []models.StockItem
	for _, it := range items {
		out.Items = append(out.Items, s.annotate(it, today))
		if it.Status == models.StockActive {
			active = append(active, it)
		}
	}
	out.CriticalNames = expiry.CriticalNames(active, today)
	out.CriticalCount = len(out.CriticalNames)
	return out, nil
}

// Alerts groups the shop's active items expiring within the alert window by tier.
func (s *StockService) Alerts(ctx context.Context, shopID string) (expiry.Alerts, error) {
	items, err := s.List(ctx, shopID)
	if err != nil {
		return expiry.Alerts{}, err
	}
	alerts := expiry.GroupAlerts(items, s.now())
	for _, tier := range [][]expiry.AlertItem{alerts.Critical, alerts.Warning, alerts.Watch} {
		for i := range tier {
			tier[i].WhatsAppURL = utils.WhatsAppURL(s.waCountryCode, tier[i].SupplierPhone)
		}
	}
	return alerts, nil
}

// Append validates item and inserts it as active.
func (s *StockService) Append(ctx context.Context, item *models.StockItem) error {
	if err := s.validate(ctx, item); err != nil {
		return err
	}
	item.Status = models.StockActive
	item.ResolvedAt = nil
	if err := s.stock.Create(ctx, item); err != nil {
		return err
	}
	log.Info().Str("shop_id", item.ShopID).Str("stock_id", item.ID).Str("product", item.ProductName).
		Int("quantity", item.Quantity).Str("expiry", item.ExpiryDate.String()).Msg("stock item added")
	return nil
}

// SaveScanned registers the scanned barcode in the product dictionary when it
// is new, then appends the stock row. Validation runs before any write.
func (s *StockService) SaveScanned(ctx context.Context, in SaveStockInput) (*expiry.AlertItem, error) {
	item := &models.StockItem{
		ShopID:      in.ShopID,
		ProductName: strings.TrimSpace(in.Name),
		Quantity:    in.Quantity,
		ExpiryDate:  in.ExpiryDate,
		BatchNo:     trimmed(in.BatchNo),
		SupplierID:  trimmed(in.SupplierID),
	}
	if in.UserID != "" {
		item.LoggedBy = &in.UserID
	}
	if err := s.validate(ctx, item); err != nil {
		return nil, err
	}

	if s.catalog != nil {
		item.ProductID = s.catalog.EnsureProduct(ctx, in.Barcode, item.ProductName, in.Brand, in.Category)
	}
	if err := s.Append(ctx, item); err != nil {
		return nil, err
	}

	if fresh, err := s.stock.GetByID(ctx, item.ShopID, item.ID); err == nil {
		item = fresh
	} else {
		log.Warn().Err(err).Str("stock_id", item.ID).Msg("failed to reload saved stock item")
	}
	annotated := s.annotate(*item, s.now())
	return &annotated, nil
}

// Resolve closes an active item as returned or discarded and returns the updated row.
func (s *StockService) Resolve(ctx context.Context, shopID, id string, status models.StockStatus) (*models.StockItem, error) {
	if shopID == "" {
		return nil, utils.ErrShopRequired
	}
	if !status.IsResolution() {
		return nil, fmt.Errorf("%w: %q cannot resolve stock", utils.ErrInvalidStatus, status)
	}
	resolvedAt, err := s.stock.Resolve(ctx, shopID, id, status)
	if err != nil {
		return nil, err
	}
	log.Info().Str("shop_id", shopID).Str("stock_id", id).Str("status", string(status)).Msg("stock item resolved")

	item, err := s.stock.GetByID(ctx, shopID, id)
	if err != nil {
		// The update is committed; report what is known about it.
		log.Warn().Err(err).Str("stock_id", id).Msg("failed to reload resolved stock item")
		return &models.StockItem{ID: id, ShopID: shopID, Status: status, ResolvedAt: &resolvedAt}, nil
	}
	return item, nil
}

// Remove hard-deletes an item.
func (s *StockService) Remove(ctx context.Context, shopID, id string) error {
	if shopID == "" {
		return utils.ErrShopRequired
	}
	if err := s.stock.Delete(ctx, shopID, id); err != nil {
		return err
	}
	log.Info().Str("shop_id", shopID).Str("stock_id", id).Msg("stock item removed")
	return nil
}

// CriticalCounts returns, per shop, how many active items expire tomorrow or earlier.
func (s *StockService) CriticalCounts(ctx context.Context) (map[string]int, error) {
	cutoff := models.DateOf(s.now()).AddDate(0, 0, 1)
	return s.stock.CriticalCounts(ctx, models.DateOf(cutoff))
}

func (s *StockService) annotate(it models.StockItem, today time.Time) expiry.AlertItem {
	ai := expiry.Annotate(it, today)
	ai.WhatsAppURL = utils.WhatsAppURL(s.waCountryCode, it.SupplierPhone)
	return ai
}

func (s *StockService) validate(ctx context.Context, item *models.StockItem) error {
	if item.ShopID == "" {
		return utils.ErrShopRequired
	}
	item.ProductName = strings.TrimSpace(item.ProductName)
	if item.ProductName == "" {
		return fmt.Errorf("%w: product name is required", utils.ErrInvalidInput)
	}
	if item.Quantity < 1 {
		return fmt.Errorf("%w: quantity must be at least 1", utils.ErrInvalidInput)
	}
	if item.ExpiryDate.IsZero() {
		return fmt.Errorf("%w: expiry date is required", utils.ErrInvalidInput)
	}
	if item.SupplierID != nil && s.suppliers != nil {
		_, err := s.suppliers.GetByID(ctx, item.ShopID, *item.SupplierID)
		if errors.Is(err, utils.ErrNotFound) {
			return fmt.Errorf("%w: unknown supplier", utils.ErrInvalidInput)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
