package models

import "time"

// Location is a depot, warehouse, customer site or any other addressable point.
// Coordinates are stored as a [lat, lon] pair.
type Location struct {
	ID          string     `bson:"_id,omitempty" json:"id"`
	Name        string     `bson:"name" json:"name" validate:"required"`
	Type        string     `bson:"type" json:"type"` // "warehouse", "depot", "customer", "hub"
	Address     string     `bson:"address" json:"address"`
	Coordinates [2]float64 `bson:"coordinates" json:"coordinates"`
	CreatedAt   time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at" json:"updated_at"`
}

// Lat returns the latitude of the location.
func (l Location) Lat() float64 { return l.Coordinates[0] }

// Lon returns the longitude of the location.
func (l Location) Lon() float64 { return l.Coordinates[1] }
