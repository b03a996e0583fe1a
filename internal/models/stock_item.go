package models

import "time"

// StockStatus is the lifecycle state of a stock batch.
type StockStatus string

const (
	StockActive    StockStatus = "active"
	StockReturned  StockStatus = "returned"
	StockDiscarded StockStatus = "discarded"
	StockSold      StockStatus = "sold"
)

// Valid reports whether s is one of the known statuses.
func (s StockStatus) Valid() bool {
	switch s {
	case StockActive, StockReturned, StockDiscarded, StockSold:
		return true
	}
	return false
}

// IsResolution reports whether s may be applied by a user resolving an active item.
// Sold is reserved for a future checkout integration.
func (s StockStatus) IsResolution() bool {
	switch s {
	case StockReturned, StockDiscarded:
		return true
	case StockActive, StockSold:
		return false
	}
	return false
}

// StockItem is one physical batch of a product held by a shop.
// ResolvedAt is nil exactly when Status is active.
type StockItem struct {
	ID          string      `db:"id" json:"id"`
	ShopID      string      `db:"shop_id" json:"shopId"`
	ProductID   *string     `db:"product_id" json:"productId,omitempty"`
	ProductName string      `db:"product_name" json:"productName"`
	Quantity    int         `db:"quantity" json:"quantity"`
	ExpiryDate  Date        `db:"expiry_date" json:"expiryDate"`
	BatchNo     *string     `db:"batch_no" json:"batchNo,omitempty"`
	Status      StockStatus `db:"status" json:"status"`
	SupplierID  *string     `db:"supplier_id" json:"supplierId,omitempty"`
	LoggedBy    *string     `db:"logged_by" json:"loggedBy,omitempty"`
	CreatedAt   time.Time   `db:"created_at" json:"createdAt"`
	ResolvedAt  *time.Time  `db:"resolved_at" json:"resolvedAt,omitempty"`

	// Joined from suppliers when supplier_id is set.
	SupplierName  *string `db:"supplier_name" json:"supplierName,omitempty"`
	SupplierPhone *string `db:"supplier_phone" json:"supplierPhone,omitempty"`
}
