package handlers

import (
	"net/http"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/logistics-dashboard/internal/auth"
	"github.com/ukydev/logistics-dashboard/internal/db"
	"github.com/ukydev/logistics-dashboard/internal/middleware"
	"github.com/ukydev/logistics-dashboard/internal/models"
	"github.com/ukydev/logistics-dashboard/internal/services"
)

// Deps are the collaborators of the API router.
type Deps struct {
	Auth        *auth.Service
	Users       db.UserCollection
	Routes      *services.RouteService
	Inventory   *services.InventoryService
	Analytics   *services.AnalyticsService
	RateLimiter *middleware.RateLimiter
	Logger      log.FieldLogger
}

// NewRouter builds the dashboard API with its middleware chain.
func NewRouter(d Deps) http.Handler {
	authMW := middleware.NewAuthMiddleware(d.Auth)
	can := func(action string, h http.HandlerFunc) http.Handler {
		return authMW.RequirePermission(action)(h)
	}

	authH := NewAuthHandler(d.Auth, d.Users, d.Logger)
	routeH := NewRouteHandler(d.Routes)
	invH := NewInventoryHandler(d.Inventory)
	anH := NewAnalyticsHandler(d.Analytics)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("POST /api/auth/login", authH.Login)
	mux.HandleFunc("GET /api/auth/me", authH.Me)

	mux.Handle("GET /api/routes", can(models.ActionViewRoutes, routeH.List))
	mux.Handle("POST /api/routes", can(models.ActionManageRoutes, routeH.Create))
	mux.Handle("GET /api/routes/{id}", can(models.ActionViewRoutes, routeH.Get))
	mux.Handle("PATCH /api/routes/{id}", can(models.ActionManageRoutes, routeH.Update))
	mux.Handle("DELETE /api/routes/{id}", can(models.ActionManageRoutes, routeH.Delete))
	mux.Handle("POST /api/routes/{id}/optimize", can(models.ActionManageRoutes, routeH.Optimize))
	mux.Handle("GET /api/routes/{id}/deliveries", can(models.ActionViewAnalytics, routeH.Deliveries))
	mux.Handle("POST /api/routes/{id}/waypoints", can(models.ActionManageRoutes, routeH.AddWaypoint))
	mux.Handle("PATCH /api/routes/{id}/waypoints/{waypointID}", can(models.ActionManageRoutes, routeH.UpdateWaypoint))
	mux.Handle("DELETE /api/routes/{id}/waypoints/{waypointID}", can(models.ActionManageRoutes, routeH.RemoveWaypoint))

	mux.Handle("GET /api/inventory", can(models.ActionViewInventory, invH.List))
	mux.Handle("POST /api/inventory", can(models.ActionManageInventory, invH.Create))
	mux.Handle("GET /api/inventory/low-stock", can(models.ActionViewInventory, invH.LowStock))
	mux.Handle("PUT /api/inventory/stock", can(models.ActionManageInventory, invH.UpdateStock))
	mux.Handle("GET /api/inventory/{id}", can(models.ActionViewInventory, invH.Get))
	mux.Handle("PATCH /api/inventory/{id}", can(models.ActionManageInventory, invH.Update))
	mux.Handle("DELETE /api/inventory/{id}", can(models.ActionManageInventory, invH.Delete))

	mux.Handle("GET /api/analytics/deliveries", can(models.ActionViewAnalytics, anH.Deliveries()))
	mux.Handle("GET /api/analytics/routes", can(models.ActionViewAnalytics, anH.Routes()))
	mux.Handle("GET /api/analytics/drivers", can(models.ActionViewAnalytics, anH.Drivers()))
	mux.Handle("GET /api/analytics/vehicles", can(models.ActionViewAnalytics, anH.Vehicles()))
	mux.Handle("GET /api/analytics/inventory", can(models.ActionViewAnalytics, anH.Inventory))
	mux.Handle("GET /api/analytics/daily", can(models.ActionViewAnalytics, anH.Daily))
	mux.Handle("POST /api/analytics/daily", can(models.ActionViewAnalytics, anH.ComputeDaily))
	mux.Handle("GET /api/analytics/range", can(models.ActionViewAnalytics, anH.Range))

	var h http.Handler = authMW.Authenticate(mux)
	if d.RateLimiter != nil {
		h = d.RateLimiter.Middleware(h)
	}
	h = middleware.Recover(d.Logger)(h)
	h = middleware.Logging(d.Logger)(h)
	return middleware.RequestID(h)
}
