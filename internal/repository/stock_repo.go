package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/shelf_api/internal/models"
	"github.com/GTDGit/shelf_api/internal/utils"
)

// StockRepository handles data access for stock_items.
type StockRepository struct {
	db *sqlx.DB
}

// NewStockRepository creates a new StockRepository.
func NewStockRepository(db *sqlx.DB) *StockRepository {
	return &StockRepository{db: db}
}

// StockFilter narrows a stock listing. Empty fields are ignored.
type StockFilter struct {
	Status models.StockStatus
	Search string
}

const stockSelect = `
        SELECT s.id, s.shop_id, s.product_id, s.product_name, s.quantity, s.expiry_date,
               s.batch_no, s.status, s.supplier_id, s.logged_by, s.created_at, s.resolved_at,
               sp.name AS supplier_name, sp.phone AS supplier_phone
        FROM stock_items s
        LEFT JOIN suppliers sp ON sp.id = s.supplier_id`

// List returns the shop's stock matching filter, soonest expiry first.
func (r *StockRepository) List(ctx context.Context, shopID string, filter StockFilter) ([]models.StockItem, error) {
	q := stockSelect + `
        WHERE s.shop_id = $1
        AND ($2 = '' OR s.status = $2)
        AND ($3 = '' OR s.product_name ILIKE '%' || $3 || '%')
        ORDER BY s.expiry_date ASC, s.created_at ASC`

	search := ""
	if filter.Search != "" {
		search = likePattern(filter.Search)
	}

	items := []models.StockItem{}
	if err := r.db.SelectContext(ctx, &items, q, shopID, string(filter.Status), search); err != nil {
		return nil, fmt.Errorf("list stock: %w", err)
	}
	return items, nil
}

// GetByID returns one stock item of the shop.
func (r *StockRepository) GetByID(ctx context.Context, shopID, id string) (*models.StockItem, error) {
	q := stockSelect + ` WHERE s.shop_id = $1 AND s.id = $2`

	var item models.StockItem
	if err := r.db.GetContext(ctx, &item, q, shopID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrNotFound
		}
		return nil, fmt.Errorf("get stock item: %w", invalidID(err))
	}
	return &item, nil
}

// Create inserts a new active stock item and fills its generated columns.
func (r *StockRepository) Create(ctx context.Context, item *models.StockItem) error {
	const q = `
        INSERT INTO stock_items (
            shop_id, product_id, product_name, quantity, expiry_date,
            batch_no, status, supplier_id, logged_by
        ) VALUES ($1, $2, $3, $4, $5, $6, 'active', $7, $8)
        RETURNING id, status, created_at`

	err := r.db.QueryRowxContext(ctx, q,
		item.ShopID, item.ProductID, item.ProductName, item.Quantity, item.ExpiryDate,
		item.BatchNo, item.SupplierID, item.LoggedBy,
	).Scan(&item.ID, &item.Status, &item.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert stock item: %w", invalidID(err))
	}
	item.ResolvedAt = nil
	return nil
}

// Resolve moves an active item to status and stamps resolved_at.
// It returns utils.ErrAlreadyResolved when the item is no longer active.
func (r *StockRepository) Resolve(ctx context.Context, shopID, id string, status models.StockStatus) (time.Time, error) {
	const q = `
        UPDATE stock_items SET status = $3, resolved_at = NOW()
        WHERE shop_id = $1 AND id = $2 AND status = 'active'
        RETURNING resolved_at`

	var resolvedAt time.Time
	err := r.db.QueryRowxContext(ctx, q, shopID, id, string(status)).Scan(&resolvedAt)
	if err == nil {
		return resolvedAt, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, fmt.Errorf("resolve stock item: %w", invalidID(err))
	}

	var current string
	err = r.db.GetContext(ctx, &current, `SELECT status FROM stock_items WHERE shop_id = $1 AND id = $2`, shopID, id)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, utils.ErrNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("check stock status: %w", err)
	}
	return time.Time{}, utils.ErrAlreadyResolved
}

// Delete hard-deletes a stock item of the shop.
func (r *StockRepository) Delete(ctx context.Context, shopID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM stock_items WHERE shop_id = $1 AND id = $2`, shopID, id)
	if err != nil {
		return fmt.Errorf("delete stock item: %w", invalidID(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return utils.ErrNotFound
	}
	return nil
}

// CriticalCounts returns, per shop, the number of active items expiring on or before cutoff.
func (r *StockRepository) CriticalCounts(ctx context.Context, cutoff models.Date) (map[string]int, error) {
	const q = `
        SELECT shop_id, COUNT(1) AS n FROM stock_items
        WHERE status = 'active' AND expiry_date <= $1
        GROUP BY shop_id`

	rows, err := r.db.QueryxContext(ctx, q, cutoff)
	if err != nil {
		return nil, fmt.Errorf("count critical stock: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var shopID string
		var n int
		if err := rows.Scan(&shopID, &n); err != nil {
			return nil, err
		}
		counts[shopID] = n
	}
	return counts, rows.Err()
}
