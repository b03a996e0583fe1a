package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/shelf_api/internal/expiry"
	"github.com/GTDGit/shelf_api/internal/models"
	"github.com/GTDGit/shelf_api/internal/utils"
)

const shopS = "shop-s"

func fixedNow(y int, m time.Month, d, hour int) func() time.Time {
	return func() time.Time { return time.Date(y, m, d, hour, 30, 0, 0, time.UTC) }
}

type ledgerFixture struct {
	products  *fakeProducts
	stock     *fakeStock
	suppliers *fakeSuppliers
	svc       *StockService
}

func newLedger(t *testing.T) *ledgerFixture {
	t.Helper()
	f := &ledgerFixture{products: newFakeProducts(), suppliers: &fakeSuppliers{}}
	f.stock = newFakeStock(f.suppliers)
	f.svc = NewStockService(f.stock, f.suppliers, NewCatalogService(f.products), "91")
	f.svc.now = fixedNow(2025, time.January, 2, 9)
	return f
}

func (f *ledgerFixture) add(t *testing.T, name, expiryDate string) *models.StockItem {
	t.Helper()
	item := &models.StockItem{ShopID: shopS, ProductName: name, Quantity: 1, ExpiryDate: mustDate(t, expiryDate)}
	require.NoError(t, f.svc.Append(context.Background(), item))
	return item
}

func TestScanSaveListScenario(t *testing.T) {
	f := newLedger(t)
	remote := &fakeLookup{name: "off"}
	resolver := NewResolverService(f.products, []ProductLookup{remote}, newMemo(t), nil, time.Second)
	ctx := context.Background()

	res := resolver.Resolve(ctx, "scan-1", "8901030875021")
	require.Equal(t, models.LookupNotFound, res.Source)
	assert.Equal(t, int32(1), remote.calls.Load())

	saved, err := f.svc.SaveScanned(ctx, SaveStockInput{
		ShopID:     shopS,
		UserID:     "owner-1",
		Barcode:    "8901030875021",
		Name:       "Parle-G 100g",
		Quantity:   1,
		ExpiryDate: mustDate(t, "2025-01-01"),
	})
	require.NoError(t, err)
	resolver.Forget(ctx, "scan-1")

	p, err := f.products.GetByBarcode(ctx, "8901030875021")
	require.NoError(t, err)
	assert.Equal(t, "Parle-G 100g", p.Name)
	require.NotNil(t, saved.ProductID)
	assert.Equal(t, p.ID, *saved.ProductID)
	assert.Equal(t, models.StockActive, saved.StockItem.Status)
	assert.Nil(t, saved.ResolvedAt)

	items, err := f.svc.List(ctx, shopS)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, saved.ID, items[0].ID)

	listing, err := f.svc.ListByStatus(ctx, shopS, ListFilter{})
	require.NoError(t, err)
	require.Len(t, listing.Items, 1)
	assert.Less(t, listing.Items[0].DaysLeft, 0)
	assert.Equal(t, expiry.TierCritical, listing.Items[0].Tier)
	assert.Equal(t, 1, listing.CriticalCount)
	assert.Equal(t, []string{"Parle-G 100g"}, listing.CriticalNames)

	// Scanning the same barcode again is answered locally.
	again := resolver.Resolve(ctx, "scan-1", "8901030875021")
	assert.Equal(t, models.LookupFoundLocal, again.Source)
	assert.Equal(t, "Parle-G 100g", again.Product.Name)
	assert.Equal(t, int32(1), remote.calls.Load())

	fresh := resolver.Resolve(ctx, "scan-2", "8901030875021")
	assert.Equal(t, models.LookupFoundLocal, fresh.Source)
	assert.Equal(t, int32(1), remote.calls.Load())
}

func TestAppendValidatesBeforeWriting(t *testing.T) {
	f := newLedger(t)
	ctx := context.Background()
	valid := func() *models.StockItem {
		return &models.StockItem{ShopID: shopS, ProductName: "Milk", Quantity: 2, ExpiryDate: mustDate(t, "2025-02-01")}
	}

	cases := map[string]func(*models.StockItem){
		"missing name":     func(it *models.StockItem) { it.ProductName = "  " },
		"zero quantity":    func(it *models.StockItem) { it.Quantity = 0 },
		"missing expiry":   func(it *models.StockItem) { it.ExpiryDate = models.Date{} },
		"unknown supplier": func(it *models.StockItem) { it.SupplierID = strPtr("nope") },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			it := valid()
			mutate(it)
			assert.ErrorIs(t, f.svc.Append(ctx, it), utils.ErrInvalidInput)
		})
	}

	it := valid()
	it.ShopID = ""
	assert.ErrorIs(t, f.svc.Append(ctx, it), utils.ErrShopRequired)
	assert.Equal(t, 0, f.stock.count())
}

func TestSaveScannedRejectsInvalidInputWithoutCaching(t *testing.T) {
	f := newLedger(t)

	_, err := f.svc.SaveScanned(context.Background(), SaveStockInput{
		ShopID: shopS, Barcode: "123", Name: "Bread", Quantity: 0, ExpiryDate: mustDate(t, "2025-02-01"),
	})
	assert.ErrorIs(t, err, utils.ErrInvalidInput)
	assert.Equal(t, int32(0), f.products.inserts.Load())
	assert.Equal(t, 0, f.stock.count())
}

func TestSaveScannedWithoutBarcodeKeepsNameSnapshot(t *testing.T) {
	f := newLedger(t)

	saved, err := f.svc.SaveScanned(context.Background(), SaveStockInput{
		ShopID: shopS, Name: "Loose paneer", Quantity: 1, ExpiryDate: mustDate(t, "2025-01-03"),
	})
	require.NoError(t, err)
	assert.Nil(t, saved.ProductID)
	assert.Equal(t, "Loose paneer", saved.ProductName)
	assert.Equal(t, expiry.TierCritical, saved.Tier)
	assert.Equal(t, "Expires tomorrow", saved.Label)
}

func TestResolveHidesItemFromList(t *testing.T) {
	f := newLedger(t)
	ctx := context.Background()
	keep := f.add(t, "Curd", "2025-01-05")
	gone := f.add(t, "Bread", "2025-01-03")

	updated, err := f.svc.Resolve(ctx, shopS, gone.ID, models.StockDiscarded)
	require.NoError(t, err)
	assert.Equal(t, models.StockDiscarded, updated.Status)
	require.NotNil(t, updated.ResolvedAt)

	items, err := f.svc.List(ctx, shopS)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, keep.ID, items[0].ID)

	_, err = f.svc.Resolve(ctx, shopS, gone.ID, models.StockReturned)
	assert.ErrorIs(t, err, utils.ErrAlreadyResolved)

	all, err := f.svc.ListByStatus(ctx, shopS, ListFilter{Status: "all"})
	require.NoError(t, err)
	assert.Len(t, all.Items, 2)
	assert.Equal(t, 0, all.CriticalCount, "resolved items never reach the banner")
}

func TestResolveSurvivesFailedReload(t *testing.T) {
	f := newLedger(t)
	ctx := context.Background()
	item := f.add(t, "Paneer", "2025-01-03")

	f.stock.getErr = errors.New("connection reset")
	updated, err := f.svc.Resolve(ctx, shopS, item.ID, models.StockReturned)
	require.NoError(t, err)
	assert.Equal(t, item.ID, updated.ID)
	assert.Equal(t, models.StockReturned, updated.Status)
	require.NotNil(t, updated.ResolvedAt)

	f.stock.getErr = nil
	_, err = f.svc.Resolve(ctx, shopS, item.ID, models.StockDiscarded)
	assert.ErrorIs(t, err, utils.ErrAlreadyResolved)
}

func TestResolveRejectsNonResolutionStatuses(t *testing.T) {
	f := newLedger(t)
	item := f.add(t, "Curd", "2025-01-05")

	for _, st := range []models.StockStatus{models.StockActive, models.StockSold, "expired"} {
		_, err := f.svc.Resolve(context.Background(), shopS, item.ID, st)
		assert.ErrorIs(t, err, utils.ErrInvalidStatus, string(st))
	}
}

func TestListOrderSearchAndFilter(t *testing.T) {
	f := newLedger(t)
	ctx := context.Background()
	f.add(t, "Amul Butter", "2025-01-20")
	f.add(t, "Amul Milk", "2025-01-02")
	f.add(t, "Bread", "2025-01-04")

	listing, err := f.svc.ListByStatus(ctx, shopS, ListFilter{})
	require.NoError(t, err)
	names := []string{}
	for _, it := range listing.Items {
		names = append(names, it.ProductName)
	}
	assert.Equal(t, []string{"Amul Milk", "Bread", "Amul Butter"}, names)
	assert.Equal(t, "Expires today", listing.Items[0].Label)
	assert.Equal(t, expiry.TierWarning, listing.Items[1].Tier)
	assert.Equal(t, expiry.TierNone, listing.Items[2].Tier)

	found, err := f.svc.ListByStatus(ctx, shopS, ListFilter{Search: "amul"})
	require.NoError(t, err)
	assert.Len(t, found.Items, 2)

	_, err = f.svc.ListByStatus(ctx, shopS, ListFilter{Status: "expired"})
	assert.ErrorIs(t, err, utils.ErrInvalidStatus)
}

func TestAlertsGroupsAndLinksSuppliers(t *testing.T) {
	f := newLedger(t)
	ctx := context.Background()
	require.NoError(t, f.suppliers.Create(ctx, &models.Supplier{ShopID: shopS, Name: "Amul Dist", Phone: strPtr("98765 43210")}))

	item := &models.StockItem{ShopID: shopS, ProductName: "Milk", Quantity: 1, ExpiryDate: mustDate(t, "2025-01-02"), SupplierID: strPtr("sup1")}
	require.NoError(t, f.svc.Append(ctx, item))
	f.add(t, "Cheese", "2025-01-08")
	f.add(t, "Ghee", "2025-03-01")

	alerts, err := f.svc.Alerts(ctx, shopS)
	require.NoError(t, err)
	require.Len(t, alerts.Critical, 1)
	assert.Empty(t, alerts.Warning)
	require.Len(t, alerts.Watch, 1)
	assert.Equal(t, 2, alerts.Total())
	require.NotNil(t, alerts.Critical[0].WhatsAppURL)
	assert.Equal(t, "https://wa.me/919876543210", *alerts.Critical[0].WhatsAppURL)
}

func TestRemoveAndCriticalCounts(t *testing.T) {
	f := newLedger(t)
	ctx := context.Background()
	a := f.add(t, "Milk", "2025-01-03")
	f.add(t, "Curd", "2025-01-01")
	f.add(t, "Ghee", "2025-01-10")

	counts, err := f.svc.CriticalCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{shopS: 2}, counts)

	require.NoError(t, f.svc.Remove(ctx, shopS, a.ID))
	assert.ErrorIs(t, f.svc.Remove(ctx, shopS, a.ID), utils.ErrNotFound)

	counts, err = f.svc.CriticalCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[shopS])
}
