package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/shelf_api/internal/models"
	"github.com/GTDGit/shelf_api/internal/utils"
)

// SupplierRepository handles data access for suppliers.
type SupplierRepository struct {
	db *sqlx.DB
}

// NewSupplierRepository creates a new SupplierRepository.
func NewSupplierRepository(db *sqlx.DB) *SupplierRepository {
	return &SupplierRepository{db: db}
}

// List returns the shop's suppliers ordered by name.
func (r *SupplierRepository) List(ctx context.Context, shopID string) ([]models.Supplier, error) {
	const q = `SELECT id, shop_id, name, phone, created_at FROM suppliers WHERE shop_id = $1 ORDER BY name`

	suppliers := []models.Supplier{}
	if err := r.db.SelectContext(ctx, &suppliers, q, shopID); err != nil {
		return nil, fmt.Errorf("list suppliers: %w", err)
	}
	return suppliers, nil
}

// GetByID returns one supplier of the shop.
func (r *SupplierRepository) GetByID(ctx context.Context, shopID, id string) (*models.Supplier, error) {
	const q = `SELECT id, shop_id, name, phone, created_at FROM suppliers WHERE shop_id = $1 AND id = $2`

	var s models.Supplier
	if err := r.db.GetContext(ctx, &s, q, shopID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrNotFound
		}
		return nil, fmt.Errorf("get supplier: %w", invalidID(err))
	}
	return &s, nil
}

// Create inserts a supplier and fills its generated columns.
func (r *SupplierRepository) Create(ctx context.Context, s *models.Supplier) error {
	const q = `
        INSERT INTO suppliers (shop_id, name, phone)
        VALUES ($1, $2, $3)
        RETURNING id, created_at`

	if err := r.db.QueryRowxContext(ctx, q, s.ShopID, s.Name, s.Phone).Scan(&s.ID, &s.CreatedAt); err != nil {
		return fmt.Errorf("insert supplier: %w", err)
	}
	return nil
}

// Delete removes a supplier of the shop. Stock rows keep their history with supplier_id cleared.
func (r *SupplierRepository) Delete(ctx context.Context, shopID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM suppliers WHERE shop_id = $1 AND id = $2`, shopID, id)
	if err != nil {
		return fmt.Errorf("delete supplier: %w", invalidID(err))
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
