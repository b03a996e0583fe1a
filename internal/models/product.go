package models

import "time"

// Product is an entry of the global barcode dictionary shared by every shop.
// Rows are created lazily the first time a scanned item is saved with a name.
type Product struct {
	ID        string    `db:"id" json:"id"`
	Barcode   *string   `db:"barcode" json:"barcode,omitempty"`
	Name      string    `db:"name" json:"name"`
	Brand     *string   `db:"brand" json:"brand,omitempty"`
	Category  *string   `db:"category" json:"category,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// LookupSource tags where a resolved product descriptor came from.
type LookupSource string

const (
	LookupFoundLocal LookupSource = "found-local"
	LookupFoundAPI   LookupSource = "found-api"
	LookupNotFound   LookupSource = "notfound"
)

// ProductDescriptor is the best-known name/brand/category for a barcode.
type ProductDescriptor struct {
	Barcode  string  `json:"barcode"`
	Name     string  `json:"name"`
	Brand    *string `json:"brand,omitempty"`
	Category *string `json:"category,omitempty"`
}
