package models

import (
	"sort"
	"time"
)

// RouteStatus is the planning state of a route.
type RouteStatus string

const (
	RouteActive    RouteStatus = "active"
	RouteScheduled RouteStatus = "scheduled"
	RouteCompleted RouteStatus = "completed"
	RouteCancelled RouteStatus = "cancelled"
)

// IsValidRouteStatus checks if a status is a known route state.
func IsValidRouteStatus(s RouteStatus) bool {
	switch s {
	case RouteActive, RouteScheduled, RouteCompleted, RouteCancelled:
		return true
	default:
		return false
	}
}

// Route is a planned path from a start location to an end location.
type Route struct {
	ID              string      `bson:"_id,omitempty" json:"id"`
	Name            string      `bson:"name" json:"name" validate:"required"`
	StartLocationID string      `bson:"start_location_id" json:"start_location_id" validate:"required"`
	EndLocationID   string      `bson:"end_location_id" json:"end_location_id" validate:"required"`
	VehicleID       *string     `bson:"vehicle_id,omitempty" json:"vehicle_id,omitempty"`
	DriverID        *string     `bson:"driver_id,omitempty" json:"driver_id,omitempty"`
	Status          RouteStatus `bson:"status" json:"status" validate:"oneof=active scheduled completed cancelled"`
	Distance        *float64    `bson:"distance,omitempty" json:"distance,omitempty"` // in kilometers
	Duration        *float64    `bson:"duration,omitempty" json:"duration,omitempty"` // in hours
	Schedule        *time.Time  `bson:"schedule,omitempty" json:"schedule,omitempty"`
	ETA             *time.Time  `bson:"eta,omitempty" json:"eta,omitempty"`
	CreatedAt       time.Time   `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time   `bson:"updated_at" json:"updated_at"`
}

// DistanceKm returns the route distance, treating a missing value as zero.
func (r Route) DistanceKm() float64 {
	if r.Distance == nil {
		return 0
	}
	return *r.Distance
}

// DurationHours returns the route duration, treating a missing value as zero.
func (r Route) DurationHours() float64 {
	if r.Duration == nil {
		return 0
	}
	return *r.Duration
}

// RouteWaypoint is an intermediate stop on a route. Sequence defines the traversal
// order; uniqueness per route is left to the caller.
type RouteWaypoint struct {
	ID         string    `bson:"_id,omitempty" json:"id"`
	RouteID    string    `bson:"route_id" json:"route_id" validate:"required"`
	LocationID string    `bson:"location_id" json:"location_id" validate:"required"`
	Sequence   int       `bson:"sequence" json:"sequence"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time `bson:"updated_at" json:"updated_at"`
}

// WaypointDetail is a waypoint with its location expanded.
type WaypointDetail struct {
	RouteWaypoint `bson:",inline"`
	Location      *Location `bson:"location,omitempty" json:"location,omitempty"`
}

// RouteDetail is a route with its locations, assignments and waypoints expanded.
type RouteDetail struct {
	Route         `bson:",inline"`
	StartLocation *Location        `bson:"start_location,omitempty" json:"start_location,omitempty"`
	EndLocation   *Location        `bson:"end_location,omitempty" json:"end_location,omitempty"`
	Vehicle       *Vehicle         `bson:"vehicle,omitempty" json:"vehicle,omitempty"`
	Driver        *Driver          `bson:"driver,omitempty" json:"driver,omitempty"`
	Waypoints     []WaypointDetail `bson:"waypoints" json:"waypoints"`
}

// SortWaypoints orders waypoints by sequence. Equal sequences keep their stored order.
func (r *RouteDetail) SortWaypoints() {
	sort.SliceStable(r.Waypoints, func(i, j int) bool {
		return r.Waypoints[i].Sequence < r.Waypoints[j].Sequence
	})
}

// RouteWithDeliveries is a route with the deliveries made along it.
type RouteWithDeliveries struct {
	Route      `bson:",inline"`
	Deliveries []Delivery `bson:"deliveries" json:"deliveries"`
}

// CompletedDeliveries counts deliveries in the completed state.
func (r RouteWithDeliveries) CompletedDeliveries() int {
	n := 0
	for _, d := range r.Deliveries {
		if d.Status == DeliveryCompleted {
			n++
		}
	}
	return n
}
