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

// ProductRepository handles data access for the global product dictionary.
type ProductRepository struct {
	db *sqlx.DB
}

// NewProductRepository creates a new ProductRepository.
func NewProductRepository(db *sqlx.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// GetByBarcode returns the product registered for barcode.
// A missing row yields utils.ErrNotFound.
func (r *ProductRepository) GetByBarcode(ctx context.Context, barcode string) (*models.Product, error) {
	const q = `SELECT id, barcode, name, brand, category, created_at FROM products WHERE barcode = $1`

	var p models.Product
	if err := r.db.GetContext(ctx, &p, q, barcode); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrNotFound
		}
		return nil, fmt.Errorf("get product by barcode: %w", err)
	}
	return &p, nil
}

// InsertIfAbsent inserts p unless a product with the same barcode already exists.
// It returns the new id, or "" when the barcode was taken by another writer.
func (r *ProductRepository) InsertIfAbsent(ctx context.Context, p *models.Product) (string, error) {
	const q = `
        INSERT INTO products (barcode, name, brand, category)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (barcode) DO NOTHING
        RETURNING id`

	var id string
	err := r.db.QueryRowxContext(ctx, q, p.Barcode, p.Name, p.Brand, p.Category).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("insert product: %w", err)
	}
	return id, nil
}
