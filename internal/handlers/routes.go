package handlers

import (
	"net/http"

	"github.com/ukydev/logistics-dashboard/internal/apperr"
	"github.com/ukydev/logistics-dashboard/internal/models"
	"github.com/ukydev/logistics-dashboard/internal/services"
)

type RouteHandler struct {
	routes *services.RouteService
}

func NewRouteHandler(routes *services.RouteService) *RouteHandler {
	return &RouteHandler{routes: routes}
}

type waypointRequest struct {
	LocationID string `json:"location_id"`
	Sequence   *int   `json:"sequence"`
}

type sequenceRequest struct {
	Sequence *int `json:"sequence"`
}

func (h *RouteHandler) List(w http.ResponseWriter, r *http.Request) {
	order, page, err := listParams(r)
	if err != nil {
		writeError(w, err)
		return
	}
	routes, err := h.routes.GetRoutes(r.Context(), services.RouteFilter{
		Status: models.RouteStatus(r.URL.Query().Get("status")),
		Order:  order,
		Page:   page,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, routes)
}

func (h *RouteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var route models.Route
	if err := decodeJSON(r, &route); err != nil {
		writeError(w, err)
		return
	}
	created, err := h.routes.CreateRoute(r.Context(), route)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *RouteHandler) Get(w http.ResponseWriter, r *http.Request) {
	route, err := h.routes.GetRoute(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, route)
}

func (h *RouteHandler) Update(w http.ResponseWriter, r *http.Request) {
	var u services.RouteUpdate
	if err := decodeJSON(r, &u); err != nil {
		writeError(w, err)
		return
	}
	route, err := h.routes.UpdateRoute(r.Context(), r.PathValue("id"), u)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, route)
}

func (h *RouteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.routes.DeleteRoute(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RouteHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	route, err := h.routes.OptimizeRoute(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, route)
}

// Deliveries handles GET /api/routes/{id}/deliveries
func (h *RouteHandler) Deliveries(w http.ResponseWriter, r *http.Request) {
	deliveries, err := h.routes.GetRouteAnalytics(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deliveries)
}

func (h *RouteHandler) AddWaypoint(w http.ResponseWriter, r *http.Request) {
	var req waypointRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Sequence == nil {
		writeError(w, apperr.Validation("Missing required parameter", apperr.Details{"sequence": "required"}))
		return
	}
	wp, err := h.routes.AddWaypoint(r.Context(), r.PathValue("id"), req.LocationID, *req.Sequence)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, wp)
}

func (h *RouteHandler) UpdateWaypoint(w http.ResponseWriter, r *http.Request) {
	var req sequenceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Sequence == nil {
		writeError(w, apperr.Validation("Missing required parameter", apperr.Details{"sequence": "required"}))
		return
	}
	wp, err := h.routes.UpdateWaypointSequence(r.Context(), r.PathValue("id"), r.PathValue("waypointID"), *req.Sequence)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wp)
}

func (h *RouteHandler) RemoveWaypoint(w http.ResponseWriter, r *http.Request) {
	if err := h.routes.RemoveWaypoint(r.Context(), r.PathValue("id"), r.PathValue("waypointID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
