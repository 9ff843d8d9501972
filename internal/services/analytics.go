package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/ukydev/logistics-dashboard/internal/apperr"
	"github.com/ukydev/logistics-dashboard/internal/db"
	"github.com/ukydev/logistics-dashboard/internal/models"
	"github.com/ukydev/logistics-dashboard/internal/obs"
)

// DeliveryMetrics summarizes the deliveries created in a window.
type DeliveryMetrics struct {
	TotalDeliveries      int                     `json:"total_deliveries"`
	SuccessfulDeliveries int                     `json:"successful_deliveries"`
	DelayedDeliveries    int                     `json:"delayed_deliveries"`
	FailedDeliveries     int                     `json:"failed_deliveries"`
	SuccessRate          float64                 `json:"success_rate"`
	TotalDistance        float64                 `json:"total_distance"`
	TotalCost            decimal.Decimal         `json:"total_cost"`
	Deliveries           []models.DeliveryRecord `json:"deliveries"`
}

type RouteEfficiency struct {
	RouteID                    string  `json:"route_id"`
	RouteName                  string  `json:"route_name"`
	TotalDeliveries            int     `json:"total_deliveries"`
	CompletedDeliveries        int     `json:"completed_deliveries"`
	SuccessRate                float64 `json:"success_rate"`
	TotalDistance              float64 `json:"total_distance"`
	AverageDistancePerDelivery float64 `json:"average_distance_per_delivery"`
}

type DriverPerformance struct {
	DriverID                   string  `json:"driver_id"`
	DriverName                 string  `json:"driver_name"`
	TotalRoutes                int     `json:"total_routes"`
	TotalDeliveries            int     `json:"total_deliveries"`
	CompletedDeliveries        int     `json:"completed_deliveries"`
	SuccessRate                float64 `json:"success_rate"`
	TotalDistance              float64 `json:"total_distance"`
	AverageDistancePerDelivery float64 `json:"average_distance_per_delivery"`
}

// VehicleUtilization reports how much a vehicle was used. TotalTimeInUse is in hours.
type VehicleUtilization struct {
	VehicleID                  string   `json:"vehicle_id"`
	VehicleName                string   `json:"vehicle_name"`
	TotalRoutes                int      `json:"total_routes"`
	TotalDeliveries            int      `json:"total_deliveries"`
	TotalDistance              float64  `json:"total_distance"`
	TotalTimeInUse             float64  `json:"total_time_in_use"`
	AverageDistancePerDelivery float64  `json:"average_distance_per_delivery"`
	FuelEfficiency             *float64 `json:"fuel_efficiency,omitempty"`
}

type InventoryAnalytics struct {
	TotalItems      int                      `json:"total_items"`
	LowStockItems   int                      `json:"low_stock_items"`
	OutOfStockItems int                      `json:"out_of_stock_items"`
	TotalValue      decimal.Decimal          `json:"total_value"`
	Items           []models.InventoryRecord `json:"items"`
}

// AnalyticsService computes dashboard metrics. Nothing is cached; every call
// reads the current rows.
type AnalyticsService struct {
	store db.Store
	daily *Records[models.Analytics]
	log   logrus.FieldLogger
}

func NewAnalyticsService(store db.Store, logger logrus.FieldLogger) *AnalyticsService {
	return &AnalyticsService{
		store: store,
		daily: NewRecords[models.Analytics](store, db.TableAnalytics),
		log:   componentLogger(logger, "analytics_service"),
	}
}

func windowFilters(field string, w Window) []db.Filter {
	return []db.Filter{db.Gte(field, w.Start), db.Lte(field, w.End)}
}

// GetDeliveryMetrics summarizes deliveries created in w, each with its route and product.
func (s *AnalyticsService) GetDeliveryMetrics(ctx context.Context, w Window) (m *DeliveryMetrics, err error) {
	defer obs.Time(ctx, s.log, "GetDeliveryMetrics")(&err)

	rows, err := s.store.Query(ctx, db.Query{
		Table:   db.TableDeliveries,
		Filters: windowFilters("created_at", w),
		Order:   &db.Order{Field: "created_at", Ascending: true},
		Joins: []db.Join{
			db.One("route", db.TableRoutes, "route_id"),
			db.One("product", db.TableProducts, "product_id"),
		},
	})
	if err != nil {
		return nil, apperr.FromBackend(err)
	}
	deliveries, err := db.DecodeAll[models.DeliveryRecord](rows)
	if err != nil {
		return nil, err
	}
	return summarizeDeliveries(deliveries), nil
}

func summarizeDeliveries(deliveries []models.DeliveryRecord) *DeliveryMetrics {
	m := &DeliveryMetrics{TotalDeliveries: len(deliveries), TotalCost: decimal.Zero, Deliveries: deliveries}
	for _, d := range deliveries {
		switch d.Status {
		case models.DeliveryCompleted:
			m.SuccessfulDeliveries++
		case models.DeliveryDelayed:
			m.DelayedDeliveries++
		case models.DeliveryFailed:
			m.FailedDeliveries++
		}
		if d.Route != nil {
			m.TotalDistance += d.Route.DistanceKm()
		}
		if d.Product != nil {
			price := decimal.NewFromFloat(d.Product.UnitPrice)
			m.TotalCost = m.TotalCost.Add(price.Mul(decimal.NewFromInt(int64(d.Quantity))))
		}
	}
	m.SuccessRate = percent(m.SuccessfulDeliveries, m.TotalDeliveries)
	return m
}

// GetRouteEfficiency reports per-route delivery success for routes created in w.
func (s *AnalyticsService) GetRouteEfficiency(ctx context.Context, w Window) (out []RouteEfficiency, err error) {
	defer obs.Time(ctx, s.log, "GetRouteEfficiency")(&err)

	rows, err := s.store.Query(ctx, db.Query{
		Table:   db.TableRoutes,
		Filters: windowFilters("created_at", w),
		Order:   &db.Order{Field: "created_at", Ascending: true},
		Joins:   []db.Join{db.Many("deliveries", db.TableDeliveries, "route_id")},
	})
	if err != nil {
		return nil, apperr.FromBackend(err)
	}
	routes, err := db.DecodeAll[models.RouteWithDeliveries](rows)
	if err != nil {
		return nil, err
	}

	out = make([]RouteEfficiency, 0, len(routes))
	for _, r := range routes {
		total := len(r.Deliveries)
		completed := r.CompletedDeliveries()
		distance := r.DistanceKm()
		out = append(out, RouteEfficiency{
			RouteID:                    r.ID,
			RouteName:                  r.Name,
			TotalDeliveries:            total,
			CompletedDeliveries:        completed,
			SuccessRate:                percent(completed, total),
			TotalDistance:              distance,
			AverageDistancePerDelivery: ratio(distance, total),
		})
	}
	return out, nil
}

// routeTotals accumulates the routes of one driver or vehicle.
type routeTotals struct {
	routes     int
	deliveries int
	completed  int
	distance   float64
	hours      float64
}

func sumRoutes(routes []models.RouteWithDeliveries) routeTotals {
	var t routeTotals
	for _, r := range routes {
		t.routes++
		t.deliveries += len(r.Deliveries)
		t.completed += r.CompletedDeliveries()
		t.distance += r.DistanceKm()
		t.hours += r.DurationHours()
	}
	return t
}

// assignedRoutes joins the routes referencing the parent through field, restricted
// to routes created in w, each with its deliveries.
func assignedRoutes(field string, w Window) db.Join {
	return db.Join{
		As:           "routes",
		Table:        db.TableRoutes,
		LocalField:   db.FieldID,
		ForeignField: field,
		Filters:      windowFilters("created_at", w),
		Order:        &db.Order{Field: "created_at", Ascending: true},
		Joins:        []db.Join{db.Many("deliveries", db.TableDeliveries, "route_id")},
	}
}

// GetDriverPerformance aggregates, per driver, the routes assigned to them that
// were created in w. Drivers without such routes report zeros.
func (s *AnalyticsService) GetDriverPerformance(ctx context.Context, w Window) (out []DriverPerformance, err error) {
	defer obs.Time(ctx, s.log, "GetDriverPerformance")(&err)

	rows, err := s.store.Query(ctx, db.Query{
		Table: db.TableDrivers,
		Order: &db.Order{Field: "full_name", Ascending: true},
		Joins: []db.Join{assignedRoutes("driver_id", w)},
	})
	if err != nil {
		return nil, apperr.FromBackend(err)
	}
	drivers, err := db.DecodeAll[models.DriverWithRoutes](rows)
	if err != nil {
		return nil, err
	}

	out = make([]DriverPerformance, 0, len(drivers))
	for _, d := range drivers {
		t := sumRoutes(d.Routes)
		out = append(out, DriverPerformance{
			DriverID:                   d.ID,
			DriverName:                 d.FullName,
			TotalRoutes:                t.routes,
			TotalDeliveries:            t.deliveries,
			CompletedDeliveries:        t.completed,
			SuccessRate:                percent(t.completed, t.deliveries),
			TotalDistance:              t.distance,
			AverageDistancePerDelivery: ratio(t.distance, t.deliveries),
		})
	}
	return out, nil
}

// GetVehicleUtilization aggregates, per vehicle, the routes it served that were
// created in w.
func (s *AnalyticsService) GetVehicleUtilization(ctx context.Context, w Window) (out []VehicleUtilization, err error) {
	defer obs.Time(ctx, s.log, "GetVehicleUtilization")(&err)

	rows, err := s.store.Query(ctx, db.Query{
		Table: db.TableVehicles,
		Order: &db.Order{Field: "name", Ascending: true},
		Joins: []db.Join{assignedRoutes("vehicle_id", w)},
	})
	if err != nil {
		return nil, apperr.FromBackend(err)
	}
	vehicles, err := db.DecodeAll[models.VehicleWithRoutes](rows)
	if err != nil {
		return nil, err
	}

	out = make([]VehicleUtilization, 0, len(vehicles))
	for _, v := range vehicles {
		t := sumRoutes(v.Routes)
		out = append(out, VehicleUtilization{
			VehicleID:                  v.ID,
			VehicleName:                v.Name,
			TotalRoutes:                t.routes,
			TotalDeliveries:            t.deliveries,
			TotalDistance:              t.distance,
			TotalTimeInUse:             t.hours,
			AverageDistancePerDelivery: ratio(t.distance, t.deliveries),
			FuelEfficiency:             v.FuelEfficiency,
		})
	}
	return out, nil
}

// GetInventoryAnalytics summarizes the stock held at one location.
func (s *AnalyticsService) GetInventoryAnalytics(ctx context.Context, locationID string) (a *InventoryAnalytics, err error) {
	defer obs.Time(ctx, s.log, "GetInventoryAnalytics")(&err)

	if err := required(map[string]string{"location_id": locationID}); err != nil {
		return nil, err
	}
	rows, err := s.store.Query(ctx, db.Query{
		Table:   db.TableInventory,
		Filters: []db.Filter{db.Eq("location_id", locationID)},
		Joins:   []db.Join{db.One("product", db.TableProducts, "product_id")},
	})
	if err != nil {
		return nil, apperr.FromBackend(err)
	}
	items, err := db.DecodeAll[models.InventoryRecord](rows)
	if err != nil {
		return nil, err
	}

	a = &InventoryAnalytics{TotalItems: len(items), TotalValue: decimal.Zero, Items: items}
	for _, item := range items {
		if models.IsLowStock(item.Quantity, item.ReorderPoint) {
			a.LowStockItems++
		}
		if item.Quantity == 0 {
			a.OutOfStockItems++
		}
		value := decimal.NewFromFloat(item.UnitPrice()).Mul(decimal.NewFromInt(int64(item.Quantity)))
		a.TotalValue = a.TotalValue.Add(value)
	}
	return a, nil
}

// GetDailyAnalytics returns the stored rollup for one date.
func (s *AnalyticsService) GetDailyAnalytics(ctx context.Context, date string) (day *models.Analytics, err error) {
	defer obs.Time(ctx, s.log, "GetDailyAnalytics")(&err)

	d, err := parseDate(date)
	if err != nil {
		return nil, err
	}
	date = d.Format(dateLayout)
	rows, err := s.store.Query(ctx, db.Query{
		Table:   db.TableAnalytics,
		Filters: []db.Filter{db.Eq("date", date)},
		Page:    &db.Page{Limit: 1},
	})
	if err != nil {
		return nil, apperr.FromBackend(err)
	}
	if len(rows) == 0 {
		return nil, apperr.NotFound("No analytics for date", apperr.Details{"date": date})
	}
	return decodeOne[models.Analytics](rows[0])
}

// GetAnalyticsRange returns the stored rollups between two dates, inclusive, by date.
func (s *AnalyticsService) GetAnalyticsRange(ctx context.Context, start, end string) (days []models.Analytics, err error) {
	defer obs.Time(ctx, s.log, "GetAnalyticsRange")(&err)

	from, err := parseDate(start)
	if err != nil {
		return nil, err
	}
	to, err := parseDate(end)
	if err != nil {
		return nil, err
	}
	if from.After(to) {
		return nil, apperr.Validation("Start date is after end date", apperr.Details{"start": start, "end": end})
	}
	rows, err := s.store.Query(ctx, db.Query{
		Table:   db.TableAnalytics,
		Filters: []db.Filter{db.Gte("date", from.Format(dateLayout)), db.Lte("date", to.Format(dateLayout))},
		Order:   &db.Order{Field: "date", Ascending: true},
	})
	if err != nil {
		return nil, apperr.FromBackend(err)
	}
	return db.DecodeAll[models.Analytics](rows)
}

// ComputeDailyAnalytics derives the rollup for date from that day's deliveries
// and stores it, replacing any earlier rollup for the date.
func (s *AnalyticsService) ComputeDailyAnalytics(ctx context.Context, date string) (day *models.Analytics, err error) {
	defer obs.Time(ctx, s.log, "ComputeDailyAnalytics")(&err)

	w, err := DayWindow(date)
	if err != nil {
		return nil, err
	}
	m, err := s.GetDeliveryMetrics(ctx, w)
	if err != nil {
		return nil, err
	}

	distance := m.TotalDistance
	cost := m.TotalCost.InexactFloat64()
	rollup := models.Analytics{
		Date:                 w.Start.Format(dateLayout),
		TotalDeliveries:      m.TotalDeliveries,
		SuccessfulDeliveries: m.SuccessfulDeliveries,
		AverageDeliveryTime:  averageDeliveryMinutes(m.Deliveries),
		TotalDistance:        &distance,
		TotalCost:            &cost,
	}

	existing, err := s.GetDailyAnalytics(ctx, rollup.Date)
	switch {
	case err == nil:
		patch := db.Row{
			"total_deliveries":      rollup.TotalDeliveries,
			"successful_deliveries": rollup.SuccessfulDeliveries,
			"total_distance":        distance,
			"total_cost":            cost,
			"average_delivery_time": nil,
		}
		if rollup.AverageDeliveryTime != nil {
			patch["average_delivery_time"] = *rollup.AverageDeliveryTime
		}
		return s.daily.Update(ctx, existing.ID, patch)
	case apperr.Is(err, apperr.KindNotFound):
		return s.daily.Create(ctx, &rollup)
	default:
		return nil, err
	}
}

// averageDeliveryMinutes is the mean time from creation to actual delivery over
// completed deliveries that recorded one. It is nil when there are none.
func averageDeliveryMinutes(deliveries []models.DeliveryRecord) *float64 {
	var total time.Duration
	n := 0
	for _, d := range deliveries {
		if d.Status != models.DeliveryCompleted || d.ActualDeliveryTime == nil {
			continue
		}
		total += d.ActualDeliveryTime.Sub(d.CreatedAt)
		n++
	}
	if n == 0 {
		return nil
	}
	avg := total.Minutes() / float64(n)
	return &avg
}
