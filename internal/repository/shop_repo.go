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

// ShopRepository handles data access for shops.
type ShopRepository struct {
	db *sqlx.DB
}

// NewShopRepository creates a new ShopRepository.
func NewShopRepository(db *sqlx.DB) *ShopRepository {
	return &ShopRepository{db: db}
}

// GetByOwner returns the shop owned by ownerID.
func (r *ShopRepository) GetByOwner(ctx context.Context, ownerID string) (*models.Shop, error) {
	const q = `SELECT id, owner_id, name, location, created_at FROM shops WHERE owner_id = $1`

	var s models.Shop
	if err := r.db.GetContext(ctx, &s, q, ownerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrNotFound
		}
		return nil, fmt.Errorf("get shop by owner: %w", err)
	}
	return &s, nil
}

// Create inserts a shop. A second shop for the same owner yields utils.ErrShopExists.
func (r *ShopRepository) Create(ctx context.Context, s *models.Shop) error {
	const q = `
        INSERT INTO shops (owner_id, name, location)
        VALUES ($1, $2, $3)
        RETURNING id, created_at`

	err := r.db.QueryRowxContext(ctx, q, s.OwnerID, s.Name, s.Location).Scan(&s.ID, &s.CreatedAt)
	if isUniqueViolation(err) {
		return utils.ErrShopExists
	}
	if err != nil {
		return fmt.Errorf("insert shop: %w", err)
	}
	return nil
}
