package models

import "time"

// VehicleStatus is the lifecycle state of a fleet vehicle.
type VehicleStatus string

const (
	VehicleAvailable   VehicleStatus = "available"
	VehicleInUse       VehicleStatus = "in_use"
	VehicleMaintenance VehicleStatus = "maintenance"
	VehicleRetired     VehicleStatus = "retired"
)

// Vehicle represents a fleet vehicle.
type Vehicle struct {
	ID                  string        `bson:"_id,omitempty" json:"id"`
	Name                string        `bson:"name" json:"name" validate:"required"`
	Type                string        `bson:"type" json:"type"` // "van", "truck", "EV"
	Capacity            int           `bson:"capacity" json:"capacity" validate:"gte=0"`
	CurrentLocationID   string        `bson:"current_location_id,omitempty" json:"current_location_id,omitempty"`
	Status              VehicleStatus `bson:"status" json:"status" validate:"oneof=available in_use maintenance retired"`
	LastMaintenanceDate *time.Time    `bson:"last_maintenance_date,omitempty" json:"last_maintenance_date,omitempty"`
	NextMaintenanceDate *time.Time    `bson:"next_maintenance_date,omitempty" json:"next_maintenance_date,omitempty"`
	FuelEfficiency      *float64      `bson:"fuel_efficiency,omitempty" json:"fuel_efficiency,omitempty"` // km per liter
	CreatedAt           time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt           time.Time     `bson:"updated_at" json:"updated_at"`
}

// VehicleWithRoutes is a vehicle with the routes it served, each with deliveries.
type VehicleWithRoutes struct {
	Vehicle `bson:",inline"`
	Routes  []RouteWithDeliveries `bson:"routes" json:"routes"`
}
