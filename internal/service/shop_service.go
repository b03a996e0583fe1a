package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/shelf_api/internal/models"
	"github.com/GTDGit/shelf_api/internal/utils"
)

// ShopStore persists shops.
type ShopStore interface {
	GetByOwner(ctx context.Context, ownerID string) (*models.Shop, error)
	Create(ctx context.Context, s *models.Shop) error
}

// ShopService handles shop onboarding.
type ShopService struct {
	repo ShopStore
}

// NewShopService creates a ShopService.
func NewShopService(repo ShopStore) *ShopService {
	return &ShopService{repo: repo}
}

// Create registers the owner's shop. Each owner may have one shop.
func (s *ShopService) Create(ctx context.Context, ownerID, name string, location *string) (*models.Shop, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: shop name is required", utils.ErrInvalidInput)
	}
	shop := &models.Shop{OwnerID: ownerID, Name: name, Location: trimmed(location)}
	if err := s.repo.Create(ctx, shop); err != nil {
		return nil, err
	}
	log.Info().Str("owner_id", ownerID).Str("shop_id", shop.ID).Msg("shop created")
	return shop, nil
}

// ForOwner returns the owner's shop, or utils.ErrShopRequired before onboarding.
func (s *ShopService) ForOwner(ctx context.Context, ownerID string) (*models.Shop, error) {
	shop, err := s.repo.GetByOwner(ctx, ownerID)
	if errors.Is(err, utils.ErrNotFound) {
		return nil, utils.ErrShopRequired
	}
	return shop, err
}
