package models

import "time"

// Analytics is the daily rollup of delivery activity. One row per calendar date.
type Analytics struct {
	ID                   string    `bson:"_id,omitempty" json:"id"`
	Date                 string    `bson:"date" json:"date" validate:"required,datetime=2006-01-02"`
	TotalDeliveries      int       `bson:"total_deliveries" json:"total_deliveries"`
	SuccessfulDeliveries int       `bson:"successful_deliveries" json:"successful_deliveries"`
	AverageDeliveryTime  *float64  `bson:"average_delivery_time,omitempty" json:"average_delivery_time,omitempty"` // in minutes
	TotalDistance        *float64  `bson:"total_distance,omitempty" json:"total_distance,omitempty"`
	TotalCost            *float64  `bson:"total_cost,omitempty" json:"total_cost,omitempty"`
	CreatedAt            time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt            time.Time `bson:"updated_at" json:"updated_at"`
}
