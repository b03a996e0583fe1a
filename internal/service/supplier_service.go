package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/shelf_api/internal/models"
	"github.com/GTDGit/shelf_api/internal/utils"
)

// SupplierStore persists suppliers.
type SupplierStore interface {
	SupplierReader
	List(ctx context.Context, shopID string) ([]models.Supplier, error)
	Create(ctx context.Context, s *models.Supplier) error
	Delete(ctx context.Context, shopID, id string) error
}

// SupplierView is a supplier with its messaging deep link.
type SupplierView struct {
	models.Supplier
	WhatsAppURL *string `json:"whatsappUrl,omitempty"`
}

// SupplierService manages a shop's return contacts.
type SupplierService struct {
	repo          SupplierStore
	waCountryCode string
}

// NewSupplierService creates a SupplierService.
func NewSupplierService(repo SupplierStore, waCountryCode string) *SupplierService {
	return &SupplierService{repo: repo, waCountryCode: waCountryCode}
}

// List returns the shop's suppliers ordered by name.
func (s *SupplierService) List(ctx context.Context, shopID string) ([]SupplierView, error) {
	if shopID == "" {
		return nil, utils.ErrShopRequired
	}
	suppliers, err := s.repo.List(ctx, shopID)
	if err != nil {
		return nil, err
	}
	out := make([]SupplierView, 0, len(suppliers))
	for _, sp := range suppliers {
		out = append(out, s.view(sp))
	}
	return out, nil
}

// Create adds a supplier. Name is required, phone optional.
func (s *SupplierService) Create(ctx context.Context, shopID, name string, phone *string) (*SupplierView, error) {
	if shopID == "" {
		return nil, utils.ErrShopRequired
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: supplier name is required", utils.ErrInvalidInput)
	}
	sp := &models.Supplier{ShopID: shopID, Name: name, Phone: trimmed(phone)}
	if err := s.repo.Create(ctx, sp); err != nil {
		return nil, err
	}
	log.Info().Str("shop_id", shopID).Str("supplier_id", sp.ID).Msg("supplier added")
	v := s.view(*sp)
	return &v, nil
}

// Delete removes a supplier of the shop.
func (s *SupplierService) Delete(ctx context.Context, shopID, id string) error {
	if shopID == "" {
		return utils.ErrShopRequired
	}
	return s.repo.Delete(ctx, shopID, id)
}

func (s *SupplierService) view(sp models.Supplier) SupplierView {
	return SupplierView{Supplier: sp, WhatsAppURL: utils.WhatsAppURL(s.waCountryCode, sp.Phone)}
}
