package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/logistics-dashboard/internal/apperr"
	"github.com/ukydev/logistics-dashboard/internal/auth"
	"github.com/ukydev/logistics-dashboard/internal/db"
	"github.com/ukydev/logistics-dashboard/internal/middleware"
	"github.com/ukydev/logistics-dashboard/internal/models"
	"github.com/ukydev/logistics-dashboard/internal/services"
)

type testAPI struct {
	t       *testing.T
	handler http.Handler
	store   *db.MemoryStore
	auth    *auth.Service
	users   *db.StoreUserCollection
	depot   string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	logger, _ := test.NewNullLogger()
	store := db.NewMemoryStore(db.DefaultSchema)
	authSvc, err := auth.NewService("handler-secret", time.Hour)
	require.NoError(t, err)
	users := &db.StoreUserCollection{Store: store}

	api := &testAPI{
		t:     t,
		store: store,
		auth:  authSvc,
		users: users,
		handler: NewRouter(Deps{
			Auth:        authSvc,
			Users:       users,
			Routes:      services.NewRouteService(store, logger),
			Inventory:   services.NewInventoryService(store, nil, logger),
			Analytics:   services.NewAnalyticsService(store, logger),
			RateLimiter: middleware.NewRateLimiter(1000, time.Minute),
			Logger:      logger,
		}),
	}
	row, err := store.Insert(context.Background(), db.TableLocations, db.Row{"name": "Depot", "type": "depot"})
	require.NoError(t, err)
	api.depot = row[db.FieldID].(string)
	return api
}

func (a *testAPI) token(role models.Role) string {
	a.t.Helper()
	token, err := a.auth.GenerateToken(&models.User{ID: "u-" + string(role), Username: string(role), Role: role})
	require.NoError(a.t, err)
	return token
}

func (a *testAPI) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

type errorBody struct {
	Error struct {
		Code    string                 `json:"code"`
		Message string                 `json:"message"`
		Details map[string]interface{} `json:"details"`
	} `json:"error"`
}

func requireError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) errorBody {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())
	body := decode[errorBody](t, w)
	assert.Equal(t, code, body.Error.Code)
	return body
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)
	w := api.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

func TestLoginAndMe(t *testing.T) {
	api := newTestAPI(t)
	hash, err := api.auth.HashPassword("dispatch-pass")
	require.NoError(t, err)
	_, err = api.users.InsertUser(context.Background(), models.User{
		Username: "dispatcher", Email: "d@example.com", PasswordHash: hash, Role: models.RoleOperator,
	})
	require.NoError(t, err)

	w := api.do(http.MethodPost, "/api/auth/login", "", models.LoginRequest{Username: "dispatcher", Password: "dispatch-pass"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	login := decode[models.LoginResponse](t, w)
	assert.NotEmpty(t, login.Token)
	assert.NotContains(t, w.Body.String(), "password_hash")

	w = api.do(http.MethodGet, "/api/auth/me", login.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "dispatcher", decode[models.User](t, w).Username)

	w = api.do(http.MethodPost, "/api/auth/login", "", models.LoginRequest{Username: "dispatcher", Password: "nope-nope"})
	requireError(t, w, http.StatusUnauthorized, apperr.CodeAuthentication)

	w = api.do(http.MethodPost, "/api/auth/login", "", models.LoginRequest{Username: "dispatcher"})
	requireError(t, w, http.StatusBadRequest, apperr.CodeValidation)

	w = api.do(http.MethodPost, "/api/auth/login", "", "{bad json")
	requireError(t, w, http.StatusBadRequest, apperr.CodeValidation)
}

func TestAuthorization(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodGet, "/api/routes", "", nil)
	requireError(t, w, http.StatusUnauthorized, apperr.CodeAuthentication)

	w = api.do(http.MethodPost, "/api/routes", api.token(models.RoleViewer), map[string]string{"name": "x"})
	requireError(t, w, http.StatusForbidden, apperr.CodeAuthorization)

	w = api.do(http.MethodGet, "/api/analytics/inventory?location_id="+api.depot, api.token(models.RoleOperator), nil)
	requireError(t, w, http.StatusForbidden, apperr.CodeAuthorization)

	w = api.do(http.MethodGet, "/api/routes", api.token(models.RoleViewer), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRoutesAPI(t *testing.T) {
	api := newTestAPI(t)
	manager := api.token(models.RoleManager)

	w := api.do(http.MethodPost, "/api/routes", manager, map[string]string{
		"name": "North loop", "start_location_id": api.depot, "end_location_id": api.depot,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	route := decode[models.Route](t, w)
	assert.Equal(t, models.RouteScheduled, route.Status)

	w = api.do(http.MethodPost, "/api/routes/"+route.ID+"/waypoints", manager, map[string]interface{}{
		"location_id": api.depot, "sequence": 1,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	wp := decode[models.RouteWaypoint](t, w)

	w = api.do(http.MethodPatch, "/api/routes/"+route.ID+"/waypoints/"+wp.ID, manager, map[string]int{"sequence": 4})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 4, decode[models.RouteWaypoint](t, w).Sequence)

	w = api.do(http.MethodGet, "/api/routes/"+route.ID, manager, nil)
	require.Equal(t, http.StatusOK, w.Code)
	detail := decode[models.RouteDetail](t, w)
	require.Len(t, detail.Waypoints, 1)
	require.NotNil(t, detail.StartLocation)
	assert.Equal(t, "Depot", detail.StartLocation.Name)

	w = api.do(http.MethodPatch, "/api/routes/"+route.ID, manager, map[string]string{"status": "active"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = api.do(http.MethodGet, "/api/routes?status=active&order_by=name&ascending=true&limit=5", manager, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.RouteDetail](t, w), 1)

	w = api.do(http.MethodGet, "/api/routes/"+route.ID+"/deliveries", manager, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())

	w = api.do(http.MethodDelete, "/api/routes/"+route.ID+"/waypoints/"+wp.ID, manager, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = api.do(http.MethodDelete, "/api/routes/"+route.ID+"/waypoints/"+wp.ID, manager, nil)
	requireError(t, w, http.StatusNotFound, apperr.CodeNotFound)

	w = api.do(http.MethodPost, "/api/routes/"+route.ID+"/optimize", manager, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = api.do(http.MethodDelete, "/api/routes/"+route.ID, manager, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = api.do(http.MethodGet, "/api/routes/"+route.ID, manager, nil)
	requireError(t, w, http.StatusNotFound, apperr.CodeNotFound)
}

func TestRoutesAPI_BadInput(t *testing.T) {
	api := newTestAPI(t)
	manager := api.token(models.RoleManager)

	w := api.do(http.MethodGet, "/api/routes?limit=ten", manager, nil)
	body := requireError(t, w, http.StatusBadRequest, apperr.CodeValidation)
	assert.Equal(t, "ten", body.Error.Details["limit"])

	w = api.do(http.MethodGet, "/api/routes?offset=-1", manager, nil)
	requireError(t, w, http.StatusBadRequest, apperr.CodeValidation)

	for _, field := range []string{"$x", "name..id", "meta.$where", "."} {
		w = api.do(http.MethodGet, "/api/routes?order_by="+url.QueryEscape(field), manager, nil)
		body = requireError(t, w, http.StatusBadRequest, apperr.CodeValidation)
		assert.Equal(t, field, body.Error.Details["order_by"])
	}

	w = api.do(http.MethodPost, "/api/routes", manager, map[string]string{"name": "x", "colour": "red"})
	requireError(t, w, http.StatusBadRequest, apperr.CodeValidation)

	w = api.do(http.MethodPost, "/api/routes", manager, map[string]string{
		"name": "x", "start_location_id": "nowhere", "end_location_id": api.depot,
	})
	requireError(t, w, http.StatusBadRequest, apperr.CodeValidation)

	w = api.do(http.MethodPost, "/api/routes/r1/waypoints", manager, map[string]string{"location_id": api.depot})
	body = requireError(t, w, http.StatusBadRequest, apperr.CodeValidation)
	assert.Equal(t, "required", body.Error.Details["sequence"])
}

func TestInventoryAPI(t *testing.T) {
	api := newTestAPI(t)
	operator := api.token(models.RoleOperator)
	ctx := context.Background()
	product, err := api.store.Insert(ctx, db.TableProducts, db.Row{"name": "Crate", "sku": "CR-1", "unit_price": 4.5})
	require.NoError(t, err)
	productID := product[db.FieldID].(string)

	w := api.do(http.MethodPost, "/api/inventory", operator, map[string]interface{}{
		"product_id": productID, "location_id": api.depot, "quantity": 30, "reorder_point": 10,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	item := decode[models.Inventory](t, w)
	assert.Equal(t, models.InStock, item.Status)

	w = api.do(http.MethodPost, "/api/inventory", operator, map[string]interface{}{
		"product_id": productID, "location_id": api.depot, "quantity": 1,
	})
	requireError(t, w, http.StatusBadRequest, apperr.CodeValidation)

	w = api.do(http.MethodPut, "/api/inventory/stock", operator, map[string]interface{}{
		"product_id": productID, "location_id": api.depot, "quantity": 5,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.LowStock, decode[models.Inventory](t, w).Status)

	w = api.do(http.MethodGet, "/api/inventory/low-stock?location_id="+api.depot, operator, nil)
	require.Equal(t, http.StatusOK, w.Code)
	low := decode[[]models.InventoryRecord](t, w)
	require.Len(t, low, 1)
	require.NotNil(t, low[0].Product)
	assert.Equal(t, "Crate", low[0].Product.Name)

	w = api.do(http.MethodGet, "/api/inventory?status=low_stock", operator, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.InventoryRecord](t, w), 1)

	w = api.do(http.MethodPatch, "/api/inventory/"+item.ID, operator, map[string]int{"quantity": 0})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.OutOfStock, decode[models.Inventory](t, w).Status)

	w = api.do(http.MethodPut, "/api/inventory/stock", operator, map[string]interface{}{
		"product_id": productID, "location_id": api.depot,
	})
	requireError(t, w, http.StatusBadRequest, apperr.CodeValidation)

	w = api.do(http.MethodDelete, "/api/inventory/"+item.ID, operator, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = api.do(http.MethodGet, "/api/inventory/"+item.ID, operator, nil)
	requireError(t, w, http.StatusNotFound, apperr.CodeNotFound)
}

func TestAnalyticsAPI(t *testing.T) {
	api := newTestAPI(t)
	viewer := api.token(models.RoleViewer)

	w := api.do(http.MethodGet, "/api/analytics/deliveries?start=2024-01-01&end=2024-01-31", viewer, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	metrics := decode[map[string]interface{}](t, w)
	assert.EqualValues(t, 0, metrics["total_deliveries"])
	assert.EqualValues(t, 0, metrics["success_rate"])
	assert.Equal(t, "0", metrics["total_cost"])

	w = api.do(http.MethodGet, "/api/analytics/deliveries?start=2024-01-01", viewer, nil)
	body := requireError(t, w, http.StatusBadRequest, apperr.CodeValidation)
	assert.Equal(t, "required", body.Error.Details["end"])

	for _, path := range []string{"routes", "drivers", "vehicles"} {
		w = api.do(http.MethodGet, "/api/analytics/"+path+"?start=2024-01-01&end=2024-01-31", viewer, nil)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}

	w = api.do(http.MethodGet, "/api/analytics/inventory", viewer, nil)
	requireError(t, w, http.StatusBadRequest, apperr.CodeValidation)
	w = api.do(http.MethodGet, "/api/analytics/inventory?location_id="+api.depot, viewer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0", decode[map[string]interface{}](t, w)["total_value"])

	w = api.do(http.MethodGet, "/api/analytics/daily?date=2024-01-15", viewer, nil)
	requireError(t, w, http.StatusNotFound, apperr.CodeNotFound)
	w = api.do(http.MethodGet, "/api/analytics/daily?date=2024-01-15&compute=true", viewer, nil)
	requireError(t, w, http.StatusNotFound, apperr.CodeNotFound)
	w = api.do(http.MethodPost, "/api/analytics/daily", viewer, map[string]string{"date": "2024-01-15"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "2024-01-15", decode[models.Analytics](t, w).Date)
	w = api.do(http.MethodGet, "/api/analytics/daily?date=2024-01-15", viewer, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = api.do(http.MethodPost, "/api/analytics/daily", viewer, map[string]string{"date": "15/01/2024"})
	requireError(t, w, http.StatusBadRequest, apperr.CodeValidation)
	w = api.do(http.MethodPost, "/api/analytics/daily", viewer, nil)
	requireError(t, w, http.StatusBadRequest, apperr.CodeValidation)

	w = api.do(http.MethodGet, "/api/analytics/range?start=2024-01-01&end=2024-01-31", viewer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Analytics](t, w), 1)
}
