package models

import "time"

// Driver is a person who can be assigned to routes.
type Driver struct {
	ID               string    `bson:"_id,omitempty" json:"id"`
	UserID           string    `bson:"user_id,omitempty" json:"user_id,omitempty"`
	FullName         string    `bson:"full_name" json:"full_name" validate:"required"`
	Phone            string    `bson:"phone" json:"phone"`
	LicenseNumber    string    `bson:"license_number" json:"license_number" validate:"required"`
	CurrentVehicleID *string   `bson:"current_vehicle_id,omitempty" json:"current_vehicle_id,omitempty"`
	Status           string    `bson:"status" json:"status"` // "on_duty", "off_duty", "on_leave"
	CreatedAt        time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time `bson:"updated_at" json:"updated_at"`
}

// DriverWithRoutes is a driver with the routes assigned to them, each with deliveries.
type DriverWithRoutes struct {
	Driver `bson:",inline"`
	Routes []RouteWithDeliveries `bson:"routes" json:"routes"`
}
