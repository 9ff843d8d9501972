package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRouteDetail_SortWaypoints(t *testing.T) {
	r := RouteDetail{Waypoints: []WaypointDetail{
		{RouteWaypoint: RouteWaypoint{ID: "c", Sequence: 3}},
		{RouteWaypoint: RouteWaypoint{ID: "a", Sequence: 1}},
		{RouteWaypoint: RouteWaypoint{ID: "b1", Sequence: 2}},
		{RouteWaypoint: RouteWaypoint{ID: "b2", Sequence: 2}},
	}}
	r.SortWaypoints()

	ids := make([]string, 0, len(r.Waypoints))
	for _, w := range r.Waypoints {
		ids = append(ids, w.ID)
	}
	assert.Equal(t, []string{"a", "b1", "b2", "c"}, ids)
}

func TestRoute_MissingDistanceAndDuration(t *testing.T) {
	var r Route
	assert.Zero(t, r.DistanceKm())
	assert.Zero(t, r.DurationHours())

	d, h := 12.5, 1.5
	r.Distance, r.Duration = &d, &h
	assert.Equal(t, 12.5, r.DistanceKm())
	assert.Equal(t, 1.5, r.DurationHours())
}

func TestRouteWithDeliveries_CompletedDeliveries(t *testing.T) {
	r := RouteWithDeliveries{Deliveries: []Delivery{
		{Status: DeliveryCompleted},
		{Status: DeliveryFailed},
		{Status: DeliveryCompleted},
		{Status: DeliveryDelayed},
	}}
	assert.Equal(t, 2, r.CompletedDeliveries())
}
