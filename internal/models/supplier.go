package models

import "time"

// Supplier is a shop's return contact.
type Supplier struct {
	ID        string    `db:"id" json:"id"`
	ShopID    string    `db:"shop_id" json:"shopId"`
	Name      string    `db:"name" json:"name"`
	Phone     *string   `db:"phone" json:"phone,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
