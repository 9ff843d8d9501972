package handlers

import (
	"net/http"

	"github.com/ukydev/logistics-dashboard/internal/services"
)

type AnalyticsHandler struct {
	analytics *services.AnalyticsService
}

func NewAnalyticsHandler(analytics *services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

func window(r *http.Request) (services.Window, error) {
	q := r.URL.Query()
	return services.ParseWindow(q.Get("start"), q.Get("end"))
}

// windowed adapts an aggregation over a start/end window to a handler.
func windowed[T any](fn func(*http.Request, services.Window) (T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		win, err := window(r)
		if err != nil {
			writeError(w, err)
			return
		}
		out, err := fn(r, win)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func (h *AnalyticsHandler) Deliveries() http.HandlerFunc {
	return windowed(func(r *http.Request, w services.Window) (*services.DeliveryMetrics, error) {
		return h.analytics.GetDeliveryMetrics(r.Context(), w)
	})
}

func (h *AnalyticsHandler) Routes() http.HandlerFunc {
	return windowed(func(r *http.Request, w services.Window) ([]services.RouteEfficiency, error) {
		return h.analytics.GetRouteEfficiency(r.Context(), w)
	})
}

func (h *AnalyticsHandler) Drivers() http.HandlerFunc {
	return windowed(func(r *http.Request, w services.Window) ([]services.DriverPerformance, error) {
		return h.analytics.GetDriverPerformance(r.Context(), w)
	})
}

func (h *AnalyticsHandler) Vehicles() http.HandlerFunc {
	return windowed(func(r *http.Request, w services.Window) ([]services.VehicleUtilization, error) {
		return h.analytics.GetVehicleUtilization(r.Context(), w)
	})
}

func (h *AnalyticsHandler) Inventory(w http.ResponseWriter, r *http.Request) {
	a, err := h.analytics.GetInventoryAnalytics(r.Context(), r.URL.Query().Get("location_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// Daily returns the stored rollup for a date.
func (h *AnalyticsHandler) Daily(w http.ResponseWriter, r *http.Request) {
	day, err := h.analytics.GetDailyAnalytics(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, day)
}

type computeRequest struct {
	Date string `json:"date"`
}

// ComputeDaily derives the rollup for a date from the raw tables and stores it.
func (h *AnalyticsHandler) ComputeDaily(w http.ResponseWriter, r *http.Request) {
	var req computeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	day, err := h.analytics.ComputeDailyAnalytics(r.Context(), req.Date)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, day)
}

func (h *AnalyticsHandler) Range(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	days, err := h.analytics.GetAnalyticsRange(r.Context(), q.Get("start"), q.Get("end"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, days)
}
