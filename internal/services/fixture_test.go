package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/logistics-dashboard/internal/apperr"
	"github.com/ukydev/logistics-dashboard/internal/db"
	"github.com/ukydev/logistics-dashboard/internal/models"
)

// fixture seeds a MemoryStore for service tests.
type fixture struct {
	t     *testing.T
	ctx   context.Context
	store *db.MemoryStore
	log   logrus.FieldLogger
	depot string
	seq   int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger, _ := test.NewNullLogger()
	f := &fixture{t: t, ctx: context.Background(), store: db.NewMemoryStore(db.DefaultSchema), log: logger}
	f.depot = f.location("Depot")
	return f
}

func (f *fixture) insert(table string, row db.Row) string {
	f.t.Helper()
	created, err := f.store.Insert(f.ctx, table, row)
	require.NoError(f.t, err)
	return created[db.FieldID].(string)
}

func (f *fixture) location(name string) string {
	return f.insert(db.TableLocations, db.Row{"name": name, "type": "warehouse"})
}

func (f *fixture) product(price float64) string {
	f.seq++
	return f.insert(db.TableProducts, db.Row{
		"name":       fmt.Sprintf("product-%d", f.seq),
		"sku":        fmt.Sprintf("SKU-%03d", f.seq),
		"unit_price": price,
	})
}

func (f *fixture) vehicle(name string, fuelEfficiency float64) string {
	return f.insert(db.TableVehicles, db.Row{"name": name, "status": "available", "fuel_efficiency": fuelEfficiency})
}

func (f *fixture) driver(name string) string {
	return f.insert(db.TableDrivers, db.Row{"full_name": name, "license_number": "L-" + name})
}

// route inserts a route created at created; extra sets optional columns.
func (f *fixture) route(name string, created time.Time, extra db.Row) string {
	row := db.Row{
		"name":              name,
		"status":            "active",
		"start_location_id": f.depot,
		"end_location_id":   f.depot,
		"created_at":        created,
	}
	for k, v := range extra {
		row[k] = v
	}
	return f.insert(db.TableRoutes, row)
}

func (f *fixture) delivery(routeID, productID string, quantity int, status models.DeliveryStatus, created time.Time) string {
	return f.insert(db.TableDeliveries, db.Row{
		"route_id":   routeID,
		"product_id": productID,
		"quantity":   quantity,
		"status":     string(status),
		"created_at": created,
	})
}

func (f *fixture) inventory(productID, locationID string, quantity, reorderPoint int) string {
	return f.insert(db.TableInventory, db.Row{
		"product_id":    productID,
		"location_id":   locationID,
		"quantity":      quantity,
		"reorder_point": reorderPoint,
		"status":        string(models.DeriveInventoryStatus(quantity, reorderPoint)),
	})
}

func day(d int, hour int) time.Time {
	return time.Date(2024, 1, d, hour, 0, 0, 0, time.UTC)
}

func january(t *testing.T) Window {
	t.Helper()
	w, err := ParseWindow("2024-01-01", "2024-01-31")
	require.NoError(t, err)
	return w
}

func requireKind(t *testing.T, err error, kind apperr.Kind) *apperr.Error {
	t.Helper()
	var ae *apperr.Error
	require.True(t, errors.As(err, &ae), "expected *apperr.Error, got %v", err)
	require.Equal(t, kind, ae.Kind, "unexpected kind for %v", err)
	return ae
}

func ptr[T any](v T) *T { return &v }
