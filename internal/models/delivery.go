package models

import "time"

// DeliveryStatus is the state of a single fulfillment event.
type DeliveryStatus string

const (
	DeliveryCompleted  DeliveryStatus = "completed"
	DeliveryInProgress DeliveryStatus = "in_progress"
	DeliveryDelayed    DeliveryStatus = "delayed"
	DeliveryFailed     DeliveryStatus = "failed"
)

// Delivery is one fulfillment of a product along a route.
type Delivery struct {
	ID                 string         `bson:"_id,omitempty" json:"id"`
	RouteID            string         `bson:"route_id" json:"route_id" validate:"required"`
	ProductID          string         `bson:"product_id" json:"product_id" validate:"required"`
	Quantity           int            `bson:"quantity" json:"quantity" validate:"gte=0"`
	Status             DeliveryStatus `bson:"status" json:"status" validate:"oneof=completed in_progress delayed failed"`
	ActualDeliveryTime *time.Time     `bson:"actual_delivery_time,omitempty" json:"actual_delivery_time,omitempty"`
	Notes              *string        `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt          time.Time      `bson:"created_at" json:"created_at"`
	UpdatedAt          time.Time      `bson:"updated_at" json:"updated_at"`
}

// DeliveryRecord is a delivery with its route and product expanded.
type DeliveryRecord struct {
	Delivery `bson:",inline"`
	Route    *Route   `bson:"route,omitempty" json:"route,omitempty"`
	Product  *Product `bson:"product,omitempty" json:"product,omitempty"`
}
