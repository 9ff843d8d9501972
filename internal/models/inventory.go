package models

import "time"

// InventoryStatus is the stock health of one product at one location.
type InventoryStatus string

const (
	InStock    InventoryStatus = "in_stock"
	LowStock   InventoryStatus = "low_stock"
	OutOfStock InventoryStatus = "out_of_stock"
)

// IsValidInventoryStatus checks if a status is one of the known stock states.
func IsValidInventoryStatus(s InventoryStatus) bool {
	switch s {
	case InStock, LowStock, OutOfStock:
		return true
	default:
		return false
	}
}

// Inventory is the quantity of one product held at one location.
// The pair (product_id, location_id) is unique.
type Inventory struct {
	ID           string          `bson:"_id,omitempty" json:"id"`
	ProductID    string          `bson:"product_id" json:"product_id" validate:"required"`
	LocationID   string          `bson:"location_id" json:"location_id" validate:"required"`
	Quantity     int             `bson:"quantity" json:"quantity" validate:"gte=0"`
	MinStock     int             `bson:"min_stock" json:"min_stock" validate:"gte=0"`
	ReorderPoint int             `bson:"reorder_point" json:"reorder_point" validate:"gte=0"`
	Status       InventoryStatus `bson:"status" json:"status"`
	LastUpdated  time.Time       `bson:"last_updated" json:"last_updated"`
	CreatedAt    time.Time       `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `bson:"updated_at" json:"updated_at"`
}

// DeriveInventoryStatus returns the status implied by a quantity and reorder point:
// out_of_stock at zero, low_stock up to and including the reorder point, in_stock above it.
func DeriveInventoryStatus(quantity, reorderPoint int) InventoryStatus {
	switch {
	case quantity <= 0:
		return OutOfStock
	case quantity <= reorderPoint:
		return LowStock
	default:
		return InStock
	}
}

// IsLowStock reports whether a quantity has reached its reorder point.
// Out of stock rows satisfy it as well.
func IsLowStock(quantity, reorderPoint int) bool {
	return quantity <= reorderPoint
}

// Refresh recomputes the derived status from the current quantity.
func (i *Inventory) Refresh() {
	i.Status = DeriveInventoryStatus(i.Quantity, i.ReorderPoint)
}

// InventoryRecord is an inventory row with its product and location expanded.
type InventoryRecord struct {
	Inventory `bson:",inline"`
	Product   *Product  `bson:"product,omitempty" json:"product,omitempty"`
	Location  *Location `bson:"location,omitempty" json:"location,omitempty"`
}

// UnitPrice returns the expanded product price, or zero when the product is missing.
func (r InventoryRecord) UnitPrice() float64 {
	if r.Product == nil {
		return 0
	}
	return r.Product.UnitPrice
}
