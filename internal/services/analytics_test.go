package services

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/logistics-dashboard/internal/apperr"
	"github.com/ukydev/logistics-dashboard/internal/db"
	"github.com/ukydev/logistics-dashboard/internal/models"
)

func TestGetDeliveryMetrics_EmptyWindowHasZeroSuccessRate(t *testing.T) {
	f := newFixture(t)
	svc := NewAnalyticsService(f.store, f.log)

	m, err := svc.GetDeliveryMetrics(f.ctx, january(t))
	require.NoError(t, err)
	assert.Equal(t, 0, m.TotalDeliveries)
	assert.Equal(t, 0.0, m.SuccessRate)
	assert.True(t, m.TotalCost.IsZero())
	assert.Empty(t, m.Deliveries)
}

func TestGetDeliveryMetrics(t *testing.T) {
	f := newFixture(t)
	svc := NewAnalyticsService(f.store, f.log)

	long := f.route("long", day(2, 8), db.Row{"distance": 12.5})
	short := f.route("no distance", day(2, 8), nil)
	p := f.product(2.50)
	q := f.product(10)

	f.delivery(long, p, 4, models.DeliveryCompleted, day(3, 9))
	f.delivery(long, q, 1, models.DeliveryCompleted, day(4, 9))
	f.delivery(short, p, 2, models.DeliveryDelayed, day(5, 9))
	f.delivery(short, q, 3, models.DeliveryFailed, day(31, 23))
	// outside the window
	f.delivery(long, q, 100, models.DeliveryCompleted, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))

	m, err := svc.GetDeliveryMetrics(f.ctx, january(t))
	require.NoError(t, err)
	assert.Equal(t, 4, m.TotalDeliveries)
	assert.Equal(t, 2, m.SuccessfulDeliveries)
	assert.Equal(t, 1, m.DelayedDeliveries)
	assert.Equal(t, 1, m.FailedDeliveries)
	assert.Equal(t, 50.0, m.SuccessRate)
	assert.Equal(t, 25.0, m.TotalDistance)
	// 4*2.50 + 1*10 + 2*2.50 + 3*10
	assert.Equal(t, "55.00", m.TotalCost.StringFixed(2))
	require.Len(t, m.Deliveries, 4)
	require.NotNil(t, m.Deliveries[0].Route)
	require.NotNil(t, m.Deliveries[0].Product)
	assert.Equal(t, "long", m.Deliveries[0].Route.Name)
}

func TestGetRouteEfficiency(t *testing.T) {
	f := newFixture(t)
	svc := NewAnalyticsService(f.store, f.log)
	p := f.product(1)

	busy := f.route("busy", day(1, 0), db.Row{"distance": 100.0})
	f.route("idle", day(2, 0), db.Row{"distance": 40.0})
	f.route("last year", time.Date(2023, 12, 31, 23, 0, 0, 0, time.UTC), nil)
	for i, status := range []models.DeliveryStatus{models.DeliveryCompleted, models.DeliveryCompleted, models.DeliveryCompleted, models.DeliveryFailed} {
		f.delivery(busy, p, 1, status, day(3, i))
	}

	out, err := svc.GetRouteEfficiency(f.ctx, january(t))
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, RouteEfficiency{
		RouteID:                    busy,
		RouteName:                  "busy",
		TotalDeliveries:            4,
		CompletedDeliveries:        3,
		SuccessRate:                75,
		TotalDistance:              100,
		AverageDistancePerDelivery: 25,
	}, out[0])

	idle := out[1]
	assert.Equal(t, "idle", idle.RouteName)
	assert.Equal(t, 0, idle.TotalDeliveries)
	assert.Equal(t, 0.0, idle.SuccessRate)
	assert.Equal(t, 0.0, idle.AverageDistancePerDelivery)
}

func TestGetDriverPerformance(t *testing.T) {
	f := newFixture(t)
	svc := NewAnalyticsService(f.store, f.log)
	p := f.product(1)

	ada := f.driver("Ada")
	f.driver("Bob")
	r1 := f.route("r1", day(5, 0), db.Row{"driver_id": ada, "distance": 30.0})
	r2 := f.route("r2", day(6, 0), db.Row{"driver_id": ada, "distance": 10.0})
	old := f.route("old", time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC), db.Row{"driver_id": ada, "distance": 500.0})
	f.delivery(r1, p, 1, models.DeliveryCompleted, day(5, 1))
	f.delivery(r1, p, 1, models.DeliveryFailed, day(5, 2))
	f.delivery(r2, p, 1, models.DeliveryCompleted, day(6, 1))
	f.delivery(r2, p, 1, models.DeliveryCompleted, day(6, 2))
	f.delivery(old, p, 1, models.DeliveryFailed, day(6, 3))

	out, err := svc.GetDriverPerformance(f.ctx, january(t))
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, DriverPerformance{
		DriverID:                   ada,
		DriverName:                 "Ada",
		TotalRoutes:                2,
		TotalDeliveries:            4,
		CompletedDeliveries:        3,
		SuccessRate:                75,
		TotalDistance:              40,
		AverageDistancePerDelivery: 10,
	}, out[0])

	bob := out[1]
	assert.Equal(t, "Bob", bob.DriverName)
	assert.Zero(t, bob.TotalRoutes)
	assert.Zero(t, bob.SuccessRate)
	assert.Zero(t, bob.AverageDistancePerDelivery)
}

func TestGetVehicleUtilization(t *testing.T) {
	f := newFixture(t)
	svc := NewAnalyticsService(f.store, f.log)
	p := f.product(1)

	van := f.vehicle("Van 1", 11.5)
	r1 := f.route("r1", day(10, 0), db.Row{"vehicle_id": van, "distance": 60.0, "duration": 1.5})
	f.route("r2", day(11, 0), db.Row{"vehicle_id": van, "distance": 20.0, "duration": 0.5})
	f.route("no duration", day(12, 0), db.Row{"vehicle_id": van})
	for i := 0; i < 4; i++ {
		f.delivery(r1, p, 1, models.DeliveryCompleted, day(10, i+1))
	}

	out, err := svc.GetVehicleUtilization(f.ctx, january(t))
	require.NoError(t, err)
	require.Len(t, out, 1)
	v := out[0]
	assert.Equal(t, van, v.VehicleID)
	assert.Equal(t, "Van 1", v.VehicleName)
	assert.Equal(t, 3, v.TotalRoutes)
	assert.Equal(t, 4, v.TotalDeliveries)
	assert.Equal(t, 80.0, v.TotalDistance)
	assert.Equal(t, 2.0, v.TotalTimeInUse)
	assert.Equal(t, 20.0, v.AverageDistancePerDelivery)
	require.NotNil(t, v.FuelEfficiency)
	assert.Equal(t, 11.5, *v.FuelEfficiency)
}

func TestGetInventoryAnalytics_Fixture(t *testing.T) {
	f := newFixture(t)
	svc := NewAnalyticsService(f.store, f.log)
	other := f.location("Other")

	f.inventory(f.product(2.00), f.depot, 10, 5)
	f.inventory(f.product(10.00), f.depot, 5, 5)
	f.inventory(f.product(100.00), f.depot, 0, 3)
	f.inventory(f.product(1000.00), other, 1, 0)

	a, err := svc.GetInventoryAnalytics(f.ctx, f.depot)
	require.NoError(t, err)
	assert.Equal(t, 3, a.TotalItems)
	assert.Equal(t, 2, a.LowStockItems)
	assert.Equal(t, 1, a.OutOfStockItems)
	assert.True(t, a.TotalValue.Equal(decimal.NewFromInt(70)), "total value %s", a.TotalValue)
	assert.Equal(t, "70.00", a.TotalValue.StringFixed(2))
	require.Len(t, a.Items, 3)
	assert.NotNil(t, a.Items[0].Product)
}

func TestGetInventoryAnalytics_RequiresLocation(t *testing.T) {
	f := newFixture(t)
	_, err := NewAnalyticsService(f.store, f.log).GetInventoryAnalytics(f.ctx, " ")
	ae := requireKind(t, err, apperr.KindValidation)
	assert.Equal(t, "required", ae.Details["location_id"])
}

func TestDailyAnalytics(t *testing.T) {
	f := newFixture(t)
	svc := NewAnalyticsService(f.store, f.log)
	r := f.route("r", day(10, 0), db.Row{"distance": 20.0})
	p := f.product(5)

	first := f.delivery(r, p, 2, models.DeliveryCompleted, day(10, 10))
	second := f.delivery(r, p, 3, models.DeliveryCompleted, day(10, 10))
	f.delivery(r, p, 1, models.DeliveryFailed, day(10, 12))
	f.delivery(r, p, 9, models.DeliveryCompleted, day(11, 1))
	_, err := f.store.Update(f.ctx, db.TableDeliveries, first, db.Row{"actual_delivery_time": day(10, 10).Add(30 * time.Minute)})
	require.NoError(t, err)
	_, err = f.store.Update(f.ctx, db.TableDeliveries, second, db.Row{"actual_delivery_time": day(10, 11)})
	require.NoError(t, err)

	_, err = svc.GetDailyAnalytics(f.ctx, "2024-01-10")
	requireKind(t, err, apperr.KindNotFound)

	rollup, err := svc.ComputeDailyAnalytics(f.ctx, "2024-01-10")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-10", rollup.Date)
	assert.Equal(t, 3, rollup.TotalDeliveries)
	assert.Equal(t, 2, rollup.SuccessfulDeliveries)
	require.NotNil(t, rollup.AverageDeliveryTime)
	assert.InDelta(t, 45.0, *rollup.AverageDeliveryTime, 1e-9)
	require.NotNil(t, rollup.TotalDistance)
	assert.Equal(t, 60.0, *rollup.TotalDistance)
	require.NotNil(t, rollup.TotalCost)
	assert.Equal(t, 30.0, *rollup.TotalCost)

	stored, err := svc.GetDailyAnalytics(f.ctx, "2024-01-10")
	require.NoError(t, err)
	assert.Equal(t, rollup.ID, stored.ID)

	padded, err := svc.GetDailyAnalytics(f.ctx, " 2024-01-10 ")
	require.NoError(t, err)
	assert.Equal(t, rollup.ID, padded.ID)

	// recomputing replaces the row for the date
	f.delivery(r, p, 1, models.DeliveryDelayed, day(10, 20))
	again, err := svc.ComputeDailyAnalytics(f.ctx, "2024-01-10")
	require.NoError(t, err)
	assert.Equal(t, rollup.ID, again.ID)
	assert.Equal(t, 4, again.TotalDeliveries)

	_, err = svc.ComputeDailyAnalytics(f.ctx, "2024-01-11")
	require.NoError(t, err)
	_, err = svc.ComputeDailyAnalytics(f.ctx, "2024-01-12")
	require.NoError(t, err)

	days, err := svc.GetAnalyticsRange(f.ctx, "2024-01-10", "2024-01-11")
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.Equal(t, "2024-01-10", days[0].Date)
	assert.Equal(t, "2024-01-11", days[1].Date)
	assert.Nil(t, days[1].AverageDeliveryTime)

	empty, err := svc.ComputeDailyAnalytics(f.ctx, "2024-01-12")
	require.NoError(t, err)
	assert.Zero(t, empty.TotalDeliveries)
	assert.Nil(t, empty.AverageDeliveryTime)
}

func TestDailyAnalytics_InvalidDates(t *testing.T) {
	f := newFixture(t)
	svc := NewAnalyticsService(f.store, f.log)

	_, err := svc.GetDailyAnalytics(f.ctx, "10/01/2024")
	requireKind(t, err, apperr.KindValidation)
	_, err = svc.GetAnalyticsRange(f.ctx, "2024-02-01", "2024-01-01")
	requireKind(t, err, apperr.KindValidation)
	_, err = svc.ComputeDailyAnalytics(f.ctx, "")
	requireKind(t, err, apperr.KindValidation)
}

func TestMetricsJSON(t *testing.T) {
	data, err := json.Marshal(InventoryAnalytics{TotalValue: decimal.RequireFromString("70.00")})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"total_value":"70"`)
}

func TestPercentAndRatioGuardZero(t *testing.T) {
	assert.Equal(t, 0.0, percent(0, 0))
	assert.Equal(t, 0.0, percent(5, 0))
	assert.Equal(t, 50.0, percent(1, 2))
	assert.Equal(t, 0.0, ratio(10, 0))
	assert.Equal(t, 2.5, ratio(10, 4))
}
