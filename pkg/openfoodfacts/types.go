package openfoodfacts

import "strings"

// ProductResponse is the v0 product endpoint payload.
// Status is 1 when the barcode is known to the database.
type ProductResponse struct {
	Code          string   `json:"code"`
	Status        int      `json:"status"`
	StatusVerbose string   `json:"status_verbose"`
	Product       *Product `json:"product"`
}

// Product holds the subset of product fields used for naming stock.
type Product struct {
	ProductNameEN string `json:"product_name_en"`
	ProductName   string `json:"product_name"`
	GenericNameEN string `json:"generic_name_en"`
	GenericName   string `json:"generic_name"`
	Brands        string `json:"brands"`
	Categories    string `json:"categories"`
}

// DisplayName returns the first non-blank of the English product name, the
// product name, the English generic name and the generic name.
func (p *Product) DisplayName() string {
	for _, n := range []string{p.ProductNameEN, p.ProductName, p.GenericNameEN, p.GenericName} {
		if s := strings.TrimSpace(n); s != "" {
			return s
		}
	}
	return ""
}

// PrimaryBrand returns the first listed brand, or "".
func (p *Product) PrimaryBrand() string {
	return firstToken(p.Brands)
}

// PrimaryCategory returns the first listed category, or "".
func (p *Product) PrimaryCategory() string {
	return firstToken(p.Categories)
}

func firstToken(list string) string {
	head, _, _ := strings.Cut(list, ",")
	return strings.TrimSpace(head)
}
