package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/logistics-dashboard/internal/apperr"
	"github.com/ukydev/logistics-dashboard/internal/db"
	"github.com/ukydev/logistics-dashboard/internal/models"
	"github.com/ukydev/logistics-dashboard/internal/obs"
)

// RouteFilter narrows GetRoutes. Zero values are ignored.
type RouteFilter struct {
	Status models.RouteStatus
	Order  *db.Order
	Page   *db.Page
}

// RouteUpdate is a partial route change. Nil fields are left untouched.
type RouteUpdate struct {
	Name      *string             `json:"name,omitempty" validate:"omitempty,min=1"`
	Status    *models.RouteStatus `json:"status,omitempty" validate:"omitempty,oneof=active scheduled completed cancelled"`
	VehicleID *string             `json:"vehicle_id,omitempty"`
	DriverID  *string             `json:"driver_id,omitempty"`
	Distance  *float64            `json:"distance,omitempty" validate:"omitempty,gte=0"`
	Duration  *float64            `json:"duration,omitempty" validate:"omitempty,gte=0"`
	Schedule  *time.Time          `json:"schedule,omitempty"`
	ETA       *time.Time          `json:"eta,omitempty"`
}

func (u RouteUpdate) patch() db.Row {
	p := db.Row{}
	if u.Name != nil {
		p["name"] = *u.Name
	}
	if u.Status != nil {
		p["status"] = string(*u.Status)
	}
	if u.VehicleID != nil {
		p["vehicle_id"] = *u.VehicleID
	}
	if u.DriverID != nil {
		p["driver_id"] = *u.DriverID
	}
	if u.Distance != nil {
		p["distance"] = *u.Distance
	}
	if u.Duration != nil {
		p["duration"] = *u.Duration
	}
	if u.Schedule != nil {
		p["schedule"] = db.Timestamp(*u.Schedule)
	}
	if u.ETA != nil {
		p["eta"] = db.Timestamp(*u.ETA)
	}
	return p
}

// RouteService serves route planning queries and waypoint edits.
type RouteService struct {
	store     db.Store
	routes    *Records[models.Route]
	waypoints *Records[models.RouteWaypoint]
	log       logrus.FieldLogger
}

func NewRouteService(store db.Store, logger logrus.FieldLogger) *RouteService {
	return &RouteService{
		store:     store,
		routes:    NewRecords[models.Route](store, db.TableRoutes),
		waypoints: NewRecords[models.RouteWaypoint](store, db.TableRouteWaypoints),
		log:       componentLogger(logger, "route_service"),
	}
}

func routeDetailJoins() []db.Join {
	return []db.Join{
		db.One("start_location", db.TableLocations, "start_location_id"),
		db.One("end_location", db.TableLocations, "end_location_id"),
		db.One("vehicle", db.TableVehicles, "vehicle_id"),
		db.One("driver", db.TableDrivers, "driver_id"),
		{
			As:           "waypoints",
			Table:        db.TableRouteWaypoints,
			LocalField:   db.FieldID,
			ForeignField: "route_id",
			Order:        &db.Order{Field: "sequence", Ascending: true},
			Joins:        []db.Join{db.One("location", db.TableLocations, "location_id")},
		},
	}
}

func decodeRouteDetails(rows []db.Row) ([]models.RouteDetail, error) {
	routes, err := db.DecodeAll[models.RouteDetail](rows)
	if err != nil {
		return nil, err
	}
	for i := range routes {
		if routes[i].Waypoints == nil {
			routes[i].Waypoints = []models.WaypointDetail{}
		}
		routes[i].SortWaypoints()
	}
	return routes, nil
}

// GetRoutes returns routes with locations, vehicle, driver and ordered waypoints
// expanded. An empty result is not an error.
func (s *RouteService) GetRoutes(ctx context.Context, f RouteFilter) (routes []models.RouteDetail, err error) {
	defer obs.Time(ctx, s.log, "GetRoutes")(&err)

	q := db.Query{Table: db.TableRoutes, Order: f.Order, Page: f.Page, Joins: routeDetailJoins()}
	if f.Status != "" {
		if !models.IsValidRouteStatus(f.Status) {
			return nil, apperr.Validation("Invalid route status", apperr.Details{"status": string(f.Status)})
		}
		q.Filters = append(q.Filters, db.Eq("status", string(f.Status)))
	}
	rows, err := s.store.Query(ctx, q)
	if err != nil {
		return nil, apperr.FromBackend(err)
	}
	return decodeRouteDetails(rows)
}

// GetRoute returns one route with the same expansion as GetRoutes.
func (s *RouteService) GetRoute(ctx context.Context, id string) (route *models.RouteDetail, err error) {
	defer obs.Time(ctx, s.log, "GetRoute")(&err)

	rows, err := s.store.Query(ctx, db.Query{
		Table:   db.TableRoutes,
		Filters: []db.Filter{db.Eq(db.FieldID, id)},
		Joins:   routeDetailJoins(),
	})
	if err != nil {
		return nil, apperr.FromBackend(err)
	}
	routes, err := decodeRouteDetails(rows)
	if err != nil {
		return nil, err
	}
	if len(routes) == 0 {
		return nil, apperr.NotFound("Route not found", apperr.Details{"id": id})
	}
	return &routes[0], nil
}

// CreateRoute inserts a route. A missing status defaults to scheduled.
func (s *RouteService) CreateRoute(ctx context.Context, r models.Route) (*models.Route, error) {
	if r.Status == "" {
		r.Status = models.RouteScheduled
	}
	created, err := s.routes.Create(ctx, &r)
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"route_id": created.ID, "name": created.Name}).Info("Created route")
	return created, nil
}

func (s *RouteService) UpdateRoute(ctx context.Context, id string, u RouteUpdate) (*models.Route, error) {
	if err := validateStruct(u); err != nil {
		return nil, err
	}
	return s.routes.Update(ctx, id, u.patch())
}

// DeleteRoute removes a route and its waypoints. Routes with deliveries cannot be removed.
func (s *RouteService) DeleteRoute(ctx context.Context, id string) error {
	return s.routes.Delete(ctx, id)
}

// OptimizeRoute marks a route active. Route optimization itself is done elsewhere.
func (s *RouteService) OptimizeRoute(ctx context.Context, id string) (*models.Route, error) {
	return s.routes.Update(ctx, id, db.Row{"status": string(models.RouteActive)})
}

// GetRouteAnalytics returns the deliveries made on a route with their products.
func (s *RouteService) GetRouteAnalytics(ctx context.Context, routeID string) (deliveries []models.DeliveryRecord, err error) {
	defer obs.Time(ctx, s.log, "GetRouteAnalytics")(&err)

	if err := required(map[string]string{"route_id": routeID}); err != nil {
		return nil, err
	}
	rows, err := s.store.Query(ctx, db.Query{
		Table:   db.TableDeliveries,
		Filters: []db.Filter{db.Eq("route_id", routeID)},
		Order:   &db.Order{Field: "created_at", Ascending: true},
		Joins:   []db.Join{db.One("product", db.TableProducts, "product_id")},
	})
	if err != nil {
		return nil, apperr.FromBackend(err)
	}
	return db.DecodeAll[models.DeliveryRecord](rows)
}

// AddWaypoint appends a stop to a route. Sequences are not renumbered and
// duplicates are accepted; keeping them unique is up to the caller.
func (s *RouteService) AddWaypoint(ctx context.Context, routeID, locationID string, sequence int) (*models.RouteWaypoint, error) {
	if err := required(map[string]string{"route_id": routeID, "location_id": locationID}); err != nil {
		return nil, err
	}
	return s.waypoints.Create(ctx, &models.RouteWaypoint{
		RouteID:    routeID,
		LocationID: locationID,
		Sequence:   sequence,
	})
}

// UpdateWaypointSequence moves a waypoint of the route to a new sequence.
func (s *RouteService) UpdateWaypointSequence(ctx context.Context, routeID, waypointID string, sequence int) (*models.RouteWaypoint, error) {
	if _, err := s.routeWaypoint(ctx, routeID, waypointID); err != nil {
		return nil, err
	}
	return s.waypoints.Update(ctx, waypointID, db.Row{"sequence": sequence})
}

// RemoveWaypoint deletes a waypoint of the route. Remaining sequences keep their values.
func (s *RouteService) RemoveWaypoint(ctx context.Context, routeID, waypointID string) error {
	if _, err := s.routeWaypoint(ctx, routeID, waypointID); err != nil {
		return err
	}
	return s.waypoints.Delete(ctx, waypointID)
}

// routeWaypoint loads a waypoint only if it belongs to routeID.
func (s *RouteService) routeWaypoint(ctx context.Context, routeID, waypointID string) (*models.RouteWaypoint, error) {
	if err := required(map[string]string{"route_id": routeID, "waypoint_id": waypointID}); err != nil {
		return nil, err
	}
	rows, err := s.store.Query(ctx, db.Query{
		Table:   db.TableRouteWaypoints,
		Filters: []db.Filter{db.Eq(db.FieldID, waypointID), db.Eq("route_id", routeID)},
		Page:    &db.Page{Limit: 1},
	})
	if err != nil {
		return nil, apperr.FromBackend(err)
	}
	if len(rows) == 0 {
		return nil, apperr.NotFound("Waypoint not found", apperr.Details{"route_id": routeID, "waypoint_id": waypointID})
	}
	return decodeOne[models.RouteWaypoint](rows[0])
}
