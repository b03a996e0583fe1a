package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/GTDGit/shelf_api/internal/models"
	"github.com/GTDGit/shelf_api/pkg/openfoodfacts"
)

// ErrLookupMiss is returned by a ProductLookup that does not know a barcode.
var ErrLookupMiss = errors.New("lookup miss")

// ProductLookup is one remote product metadata source.
type ProductLookup interface {
	Name() string
	Lookup(ctx context.Context, barcode string) (*models.ProductDescriptor, error)
}

// OpenFoodFactsLookup adapts an Open Food Facts family client.
type OpenFoodFactsLookup struct {
	client *openfoodfacts.Client
}

// NewOpenFoodFactsLookup wraps client as a ProductLookup.
func NewOpenFoodFactsLookup(client *openfoodfacts.Client) *OpenFoodFactsLookup {
	return &OpenFoodFactsLookup{client: client}
}

// Name implements ProductLookup.
func (l *OpenFoodFactsLookup) Name() string { return l.client.Name() }

// Lookup implements ProductLookup. Entries without any usable name count as a miss.
func (l *OpenFoodFactsLookup) Lookup(ctx context.Context, barcode string) (*models.ProductDescriptor, error) {
	p, err := l.client.GetProduct(ctx, barcode)
	if errors.Is(err, openfoodfacts.ErrNotFound) {
		return nil, ErrLookupMiss
	}
	if err != nil {
		return nil, err
	}
	name := p.DisplayName()
	if name == "" {
		return nil, ErrLookupMiss
	}
	return &models.ProductDescriptor{
		Barcode:  barcode,
		Name:     name,
		Brand:    optional(p.PrimaryBrand()),
		Category: optional(p.PrimaryCategory()),
	}, nil
}

// NewOpenFoodFactsLookups builds one lookup per configured base URL.
func NewOpenFoodFactsLookups(baseURLs []string, userAgent string, timeout time.Duration) []ProductLookup {
	lookups := make([]ProductLookup, 0, len(baseURLs))
	for _, u := range baseURLs {
		lookups = append(lookups, NewOpenFoodFactsLookup(openfoodfacts.NewClient(u, userAgent, timeout)))
	}
	return lookups
}

// optional returns nil for blank strings.
func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
