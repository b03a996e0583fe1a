package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/shelf_api/internal/cache"
	"github.com/GTDGit/shelf_api/internal/models"
	"github.com/GTDGit/shelf_api/internal/repository"
	"github.com/GTDGit/shelf_api/internal/utils"
)

// fakeProducts is an in-memory product dictionary with a unique barcode constraint.
type fakeProducts struct {
	mu         sync.Mutex
	byBarcode  map[string]models.Product
	seq        int
	getCalls   atomic.Int32
	inserts    atomic.Int32
	getErr     error
	insertErr  error
	raceWinner *models.Product // inserted by "another writer" right before our insert
}

func newFakeProducts() *fakeProducts {
	return &fakeProducts{byBarcode: map[string]models.Product{}}
}

func (f *fakeProducts) put(barcode, name string) models.Product {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	p := models.Product{ID: fmt.Sprintf("p%d", f.seq), Barcode: &barcode, Name: name, CreatedAt: time.Now()}
	f.byBarcode[barcode] = p
	return p
}

func (f *fakeProducts) GetByBarcode(_ context.Context, barcode string) (*models.Product, error) {
	f.getCalls.Add(1)
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byBarcode[barcode]
	if !ok {
		return nil, utils.ErrNotFound
	}
	return &p, nil
}

func (f *fakeProducts) InsertIfAbsent(_ context.Context, p *models.Product) (string, error) {
	f.inserts.Add(1)
	if f.insertErr != nil {
		return "", f.insertErr
	}
	if w := f.raceWinner; w != nil {
		f.raceWinner = nil
		f.put(*w.Barcode, w.Name)
	}
	f.mu.Lock()
	_, taken := f.byBarcode[*p.Barcode]
	f.mu.Unlock()
	if taken {
		return "", nil
	}
	return f.put(*p.Barcode, p.Name).ID, nil
}

// fakeLookup is a remote source answering from a fixed table.
type fakeLookup struct {
	name     string
	names    map[string]string
	err      error
	delay    time.Duration
	hang     bool
	started  chan string
	calls    atomic.Int32
	canceled atomic.Int32
}

func (f *fakeLookup) Name() string { return f.name }

func (f *fakeLookup) Lookup(ctx context.Context, barcode string) (*models.ProductDescriptor, error) {
	f.calls.Add(1)
	if f.started != nil {
		f.started <- barcode
	}
	if f.hang {
		<-ctx.Done()
		f.canceled.Add(1)
		return nil, ctx.Err()
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			f.canceled.Add(1)
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	if n, ok := f.names[barcode]; ok {
		return &models.ProductDescriptor{Barcode: barcode, Name: n}, nil
	}
	return nil, ErrLookupMiss
}

func newMemo(t *testing.T) *cache.ResolutionCache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return cache.NewResolutionCache(cache.NewRedisClientFrom(client), time.Minute)
}

// fakeStock is an in-memory stock ledger honouring the store's constraints.
type fakeStock struct {
	mu        sync.Mutex
	items     map[string]*models.StockItem
	suppliers *fakeSuppliers
	seq       int
	createErr error
	getErr    error
}

func newFakeStock(suppliers *fakeSuppliers) *fakeStock {
	return &fakeStock{items: map[string]*models.StockItem{}, suppliers: suppliers}
}

func (f *fakeStock) join(it models.StockItem) models.StockItem {
	if it.SupplierID != nil && f.suppliers != nil {
		if sp, err := f.suppliers.GetByID(context.Background(), it.ShopID, *it.SupplierID); err == nil {
			it.SupplierName = &sp.Name
			it.SupplierPhone = sp.Phone
		}
	}
	return it
}

func (f *fakeStock) List(_ context.Context, shopID string, filter repository.StockFilter) ([]models.StockItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.StockItem{}
	for _, it := range f.items {
		if it.ShopID != shopID {
			continue
		}
		if filter.Status != "" && it.Status != filter.Status {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(it.ProductName), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, f.join(*it))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].ExpiryDate.Equal(out[j].ExpiryDate.Time) {
			return out[i].ExpiryDate.Before(out[j].ExpiryDate.Time)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (f *fakeStock) GetByID(_ context.Context, shopID, id string) (*models.StockItem, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	it, ok := f.items[id]
	if !ok || it.ShopID != shopID {
		return nil, utils.ErrNotFound
	}
	cp := f.join(*it)
	return &cp, nil
}

func (f *fakeStock) Create(_ context.Context, item *models.StockItem) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	item.ID = fmt.Sprintf("s%02d", f.seq)
	item.Status = models.StockActive
	item.CreatedAt = time.Now()
	cp := *item
	f.items[item.ID] = &cp
	return nil
}

func (f *fakeStock) Resolve(_ context.Context, shopID, id string, status models.StockStatus) (time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	it, ok := f.items[id]
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

func (f *fakeStock) Delete(_ context.Context, shopID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	it, ok := f.items[id]
	if !ok || it.ShopID != shopID {
		return utils.ErrNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *fakeStock) CriticalCounts(_ context.Context, cutoff models.Date) (map[string]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]int{}
	for _, it := range f.items {
		if it.Status == models.StockActive && !it.ExpiryDate.After(cutoff.Time) {
			out[it.ShopID]++
		}
	}
	return out, nil
}

func (f *fakeStock) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}

type fakeSuppliers struct {
	mu    sync.Mutex
	items []models.Supplier
}

func (f *fakeSuppliers) GetByID(_ context.Context, shopID, id string) (*models.Supplier, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.items {
		if s.ID == id && s.ShopID == shopID {
			cp := s
			return &cp, nil
		}
	}
	return nil, utils.ErrNotFound
}

func (f *fakeSuppliers) List(_ context.Context, shopID string) ([]models.Supplier, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Supplier{}
	for _, s := range f.items {
		if s.ShopID == shopID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeSuppliers) Create(_ context.Context, s *models.Supplier) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s.ID = fmt.Sprintf("sup%d", len(f.items)+1)
	s.CreatedAt = time.Now()
	f.items = append(f.items, *s)
	return nil
}

func (f *fakeSuppliers) Delete(_ context.Context, shopID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, s := range f.items {
		if s.ID == id && s.ShopID == shopID {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return utils.ErrNotFound
}

type fakeUsers struct {
	mu    sync.Mutex
	users map[string]models.User
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := u
			return &cp, nil
		}
	}
	return nil, utils.ErrNotFound
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	return &u, nil
}

func (f *fakeUsers) Create(_ context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.users == nil {
		f.users = map[string]models.User{}
	}
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return utils.ErrEmailTaken
		}
	}
	u.ID = fmt.Sprintf("u%d", len(f.users)+1)
	f.users[u.ID] = *u
	return nil
}

var errBoom = errors.New("boom")

func strPtr(s string) *string { return &s }

func mustDate(t *testing.T, s string) models.Date {
	t.Helper()
	d, err := models.ParseDate(s)
	require.NoError(t, err)
	return d
}
