package handler

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/GTDGit/shelf_api/internal/models"
	"github.com/GTDGit/shelf_api/internal/repository"
	"github.com/GTDGit/shelf_api/internal/utils"
)

type memProducts struct {
	mu        sync.Mutex
	byBarcode map[string]models.Product
}

func newMemProducts() *memProducts {
	return &memProducts{byBarcode: map[string]models.Product{}}
}

func (m *memProducts) GetByBarcode(_ context.Context, barcode string) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byBarcode[barcode]
	if !ok {
		return nil, utils.ErrNotFound
	}
	return &p, nil
}

func (m *memProducts) InsertIfAbsent(_ context.Context, p *models.Product) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byBarcode[*p.Barcode]; ok {
		return "", nil
	}
	p.ID = fmt.Sprintf("prod-%d", len(m.byBarcode)+1)
	m.byBarcode[*p.Barcode] = *p
	return p.ID, nil
}

type memSuppliers struct {
	mu    sync.Mutex
	items map[string]models.Supplier
	seq   int
}

func newMemSuppliers() *memSuppliers {
	return &memSuppliers{items: map[string]models.Supplier{}}
}

func (m *memSuppliers) GetByID(_ context.Context, shopID, id string) (*models.Supplier, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.items[id]
	if !ok || s.ShopID != shopID {
		return nil, utils.ErrNotFound
	}
	return &s, nil
}

func (m *memSuppliers) List(_ context.Context, shopID string) ([]models.Supplier, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Supplier{}
	for _, s := range m.items {
		if s.ShopID == shopID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memSuppliers) Create(_ context.Context, s *models.Supplier) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	s.ID = uuid.NewString()
	s.CreatedAt = time.Now()
	m.items[s.ID] = *s
	return nil
}

func (m *memSuppliers) Delete(_ context.Context, shopID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.items[id]
	if !ok || s.ShopID != shopID {
		return utils.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

type memStock struct {
	mu        sync.Mutex
	items     map[string]*models.StockItem
	suppliers *memSuppliers
	seq       int
	deleteErr error
}

func newMemStock(suppliers *memSuppliers) *memStock {
	return &memStock{items: map[string]*models.StockItem{}, suppliers: suppliers}
}

func (m *memStock) List(_ context.Context, shopID string, filter repository.StockFilter) ([]models.StockItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.StockItem{}
	for _, it := range m.items {
		if it.ShopID != shopID {
			continue
		}
		if filter.Status != "" && it.Status != filter.Status {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(it.ProductName), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, m.joined(*it))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiryDate.Before(out[j].ExpiryDate.Time) })
	return out, nil
}

func (m *memStock) joined(it models.StockItem) models.StockItem {
	if it.SupplierID != nil && m.suppliers != nil {
		if s, err := m.suppliers.GetByID(context.Background(), it.ShopID, *it.SupplierID); err == nil {
			it.SupplierName = &s.Name
			it.SupplierPhone = s.Phone
		}
	}
	return it
}

func (m *memStock) GetByID(_ context.Context, shopID, id string) (*models.StockItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[id]
	if !ok || it.ShopID != shopID {
		return nil, utils.ErrNotFound
	}
	out := m.joined(*it)
	return &out, nil
}

func (m *memStock) Create(_ context.Context, item *models.StockItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	item.ID = uuid.NewString()
	item.Status = models.StockActive
	item.CreatedAt = time.Now()
	cp := *item
	m.items[item.ID] = &cp
	return nil
}

func (m *memStock) Resolve(_ context.Context, shopID, id string, status models.StockStatus) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[id]
	if !ok || it.ShopID != shopID {
		return time.Time{}, utils.ErrNotFound
	}
	if it.Status != models.StockActive {
		return time.Time{}, utils.ErrAlreadyResolved
	}
	now := time.Now()
	it.Status = status
	it.ResolvedAt = &now
	return now, nil
}

func (m *memStock) Delete(_ context.Context, shopID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	it, ok := m.items[id]
	if !ok || it.ShopID != shopID {
		return utils.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *memStock) CriticalCounts(_ context.Context, cutoff models.Date) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]int{}
	for _, it := range m.items {
		if it.Status == models.StockActive && !it.ExpiryDate.After(cutoff.Time) {
			out[it.ShopID]++
		}
	}
	return out, nil
}

type memUsers struct {
	mu      sync.Mutex
	byEmail map[string]models.User
}

func newMemUsers() *memUsers {
	return &memUsers{byEmail: map[string]models.User{}}
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, utils.ErrNotFound
	}
	return &u, nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byEmail {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, utils.ErrNotFound
}

func (m *memUsers) Create(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.Email = strings.ToLower(u.Email)
	if _, ok := m.byEmail[u.Email]; ok {
		return utils.ErrEmailTaken
	}
	u.ID = fmt.Sprintf("user-%d", len(m.byEmail)+1)
	u.CreatedAt = time.Now()
	m.byEmail[u.Email] = *u
	return nil
}

// recordingNotifier captures realtime notifications sent by handlers.
type recordingNotifier struct {
	mu       sync.Mutex
	removing []string
	refresh  []string
}

func (n *recordingNotifier) NotifyRemoving(shopID, itemID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.removing = append(n.removing, shopID+"/"+itemID)
}

func (n *recordingNotifier) NotifyRefresh(shopID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.refresh = append(n.refresh, shopID)
}
