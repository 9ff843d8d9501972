package models

import "time"

// Product is a stocked and delivered item. SKU is unique across products.
type Product struct {
	ID          string    `bson:"_id,omitempty" json:"id"`
	Name        string    `bson:"name" json:"name" validate:"required"`
	Category    string    `bson:"category" json:"category"`
	SKU         string    `bson:"sku" json:"sku" validate:"required"`
	Description *string   `bson:"description,omitempty" json:"description,omitempty"`
	UnitPrice   float64   `bson:"unit_price" json:"unit_price" validate:"gte=0"` // in USD
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updated_at"`
}
