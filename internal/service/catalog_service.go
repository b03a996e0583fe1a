package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/shelf_api/internal/models"
	"github.com/GTDGit/shelf_api/internal/utils"
)

// ProductWriter reads and inserts entries of the product dictionary.
type ProductWriter interface {
	ProductReader
	InsertIfAbsent(ctx context.Context, p *models.Product) (string, error)
}

// CatalogService writes newly named barcodes through to the shared dictionary.
type CatalogService struct {
	products ProductWriter
}

// NewCatalogService creates a CatalogService.
func NewCatalogService(products ProductWriter) *CatalogService {
	return &CatalogService{products: products}
}

// EnsureProduct returns the id of the product registered for barcode, creating
// it with the given name, brand and category when absent. It returns nil when
// barcode or name is blank or the write fails; callers then keep only the
// name snapshot on their stock row.
func (s *CatalogService) EnsureProduct(ctx context.Context, barcode, name string, brand, category *string) *string {
	barcode = strings.TrimSpace(barcode)
	name = strings.TrimSpace(name)
	if barcode == "" || name == "" {
		return nil
	}

	if id := s.existingID(ctx, barcode); id != nil {
		return id
	}

	p := &models.Product{Barcode: &barcode, Name: name, Brand: trimmed(brand), Category: trimmed(category)}
	id, err := s.products.InsertIfAbsent(ctx, p)
	if err != nil {
		log.Error().Err(err).Str("barcode", barcode).Msg("failed to cache product")
		return nil
	}
	if id == "" {
		// Another writer registered the barcode between our read and insert.
		return s.existingID(ctx, barcode)
	}

	log.Info().Str("barcode", barcode).Str("product_id", id).Str("name", name).Msg("product cached")
	return &id
}

func (s *CatalogService) existingID(ctx context.Context, barcode string) *string {
	p, err := s.products.GetByBarcode(ctx, barcode)
	if err != nil {
		if !errors.Is(err, utils.ErrNotFound) {
			log.Warn().Err(err).Str("barcode", barcode).Msg("product lookup failed")
		}
		return nil
	}
	return &p.ID
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	return optional(*s)
}
