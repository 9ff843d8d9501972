package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/logistics-dashboard/internal/apperr"
	"github.com/ukydev/logistics-dashboard/internal/db"
	"github.com/ukydev/logistics-dashboard/internal/models"
	"github.com/ukydev/logistics-dashboard/internal/notify"
	"github.com/ukydev/logistics-dashboard/internal/obs"
)

// InventoryFilter narrows GetInventory. All set fields must match.
type InventoryFilter struct {
	LocationID string
	ProductID  string
	Status     models.InventoryStatus
	Order      *db.Order
	Page       *db.Page
}

// InventoryUpdate is a partial change to the thresholds or quantity of an item.
type InventoryUpdate struct {
	Quantity     *int `json:"quantity,omitempty" validate:"omitempty,gte=0"`
	MinStock     *int `json:"min_stock,omitempty" validate:"omitempty,gte=0"`
	ReorderPoint *int `json:"reorder_point,omitempty" validate:"omitempty,gte=0"`
}

// InventoryService serves stock queries and keeps the derived stock status current.
type InventoryService struct {
	store     db.Store
	items     *Records[models.Inventory]
	publisher notify.Publisher
	log       logrus.FieldLogger
	now       func() time.Time
}

func NewInventoryService(store db.Store, publisher notify.Publisher, logger logrus.FieldLogger) *InventoryService {
	if publisher == nil {
		publisher = notify.NopPublisher{}
	}
	return &InventoryService{
		store:     store,
		items:     NewRecords[models.Inventory](store, db.TableInventory),
		publisher: publisher,
		log:       componentLogger(logger, "inventory_service"),
		now:       time.Now,
	}
}

func inventoryJoins() []db.Join {
	return []db.Join{
		db.One("product", db.TableProducts, "product_id"),
		db.One("location", db.TableLocations, "location_id"),
	}
}

// GetInventory returns inventory rows with product and location expanded.
func (s *InventoryService) GetInventory(ctx context.Context, f InventoryFilter) (items []models.InventoryRecord, err error) {
	defer obs.Time(ctx, s.log, "GetInventory")(&err)

	q := db.Query{Table: db.TableInventory, Order: f.Order, Page: f.Page, Joins: inventoryJoins()}
	if f.LocationID != "" {
		q.Filters = append(q.Filters, db.Eq("location_id", f.LocationID))
	}
	if f.ProductID != "" {
		q.Filters = append(q.Filters, db.Eq("product_id", f.ProductID))
	}
	if f.Status != "" {
		if !models.IsValidInventoryStatus(f.Status) {
			return nil, apperr.Validation("Invalid inventory status", apperr.Details{"status": string(f.Status)})
		}
		q.Filters = append(q.Filters, db.Eq("status", string(f.Status)))
	}
	rows, err := s.store.Query(ctx, q)
	if err != nil {
		return nil, apperr.FromBackend(err)
	}
	return refreshed(rows)
}

// GetLowStockItems returns rows whose live quantity is at or below the reorder
// point, optionally for one location. The stored status is not consulted.
func (s *InventoryService) GetLowStockItems(ctx context.Context, locationID string) (items []models.InventoryRecord, err error) {
	defer obs.Time(ctx, s.log, "GetLowStockItems")(&err)

	q := db.Query{
		Table:   db.TableInventory,
		Filters: []db.Filter{db.LteField("quantity", "reorder_point")},
		Joins:   inventoryJoins(),
	}
	if locationID != "" {
		q.Filters = append(q.Filters, db.Eq("location_id", locationID))
	}
	rows, err := s.store.Query(ctx, q)
	if err != nil {
		return nil, apperr.FromBackend(err)
	}
	return refreshed(rows)
}

// refreshed decodes inventory rows and derives each status from the live
// quantity, so rows written by other clients never report a stale status.
func refreshed(rows []db.Row) ([]models.InventoryRecord, error) {
	items, err := db.DecodeAll[models.InventoryRecord](rows)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].Refresh()
	}
	return items, nil
}

// CreateInventoryItem inserts an item with its status derived from the quantity.
func (s *InventoryService) CreateInventoryItem(ctx context.Context, item models.Inventory) (*models.Inventory, error) {
	item.Refresh()
	item.LastUpdated = s.now()
	return s.items.Create(ctx, &item)
}

// UpdateInventoryItem applies u and recomputes the status from the resulting
// quantity and reorder point.
func (s *InventoryService) UpdateInventoryItem(ctx context.Context, id string, u InventoryUpdate) (*models.Inventory, error) {
	if err := validateStruct(u); err != nil {
		return nil, err
	}
	current, err := s.items.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	patch := db.Row{}
	if u.Quantity != nil {
		current.Quantity = *u.Quantity
		patch["quantity"] = *u.Quantity
	}
	if u.MinStock != nil {
		current.MinStock = *u.MinStock
		patch["min_stock"] = *u.MinStock
	}
	if u.ReorderPoint != nil {
		current.ReorderPoint = *u.ReorderPoint
		patch["reorder_point"] = *u.ReorderPoint
	}
	if len(patch) == 0 {
		return nil, apperr.Validation("No fields to update", nil)
	}
	current.Refresh()
	patch["status"] = string(current.Status)
	patch["last_updated"] = db.Timestamp(s.now())
	return s.items.Update(ctx, id, patch)
}

func (s *InventoryService) DeleteInventoryItem(ctx context.Context, id string) error {
	return s.items.Delete(ctx, id)
}

func (s *InventoryService) GetInventoryItem(ctx context.Context, id string) (*models.Inventory, error) {
	item, err := s.items.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	item.Refresh()
	return item, nil
}

// UpdateStockLevel sets the quantity of a product at a location, recomputes the
// status and publishes a stock alert when the item enters low or out of stock.
func (s *InventoryService) UpdateStockLevel(ctx context.Context, productID, locationID string, quantity int) (item *models.Inventory, err error) {
	defer obs.Time(ctx, s.log, "UpdateStockLevel")(&err)

	if err := required(map[string]string{"product_id": productID, "location_id": locationID}); err != nil {
		return nil, err
	}
	if quantity < 0 {
		return nil, apperr.Validation("Quantity cannot be negative", apperr.Details{"quantity": quantity})
	}

	rows, err := s.store.Query(ctx, db.Query{
		Table:   db.TableInventory,
		Filters: []db.Filter{db.Eq("product_id", productID), db.Eq("location_id", locationID)},
		Page:    &db.Page{Limit: 1},
	})
	if err != nil {
		return nil, apperr.FromBackend(err)
	}
	if len(rows) == 0 {
		return nil, apperr.NotFound("Inventory item not found", apperr.Details{"product_id": productID, "location_id": locationID})
	}
	current, err := decodeOne[models.Inventory](rows[0])
	if err != nil {
		return nil, err
	}

	previous := current.Status
	current.Quantity = quantity
	current.Refresh()
	now := s.now()

	row, err := s.store.Update(ctx, db.TableInventory, current.ID, db.Row{
		"quantity":     quantity,
		"status":       string(current.Status),
		"last_updated": db.Timestamp(now),
	})
	if err != nil {
		return nil, apperr.FromBackend(err)
	}
	updated, err := decodeOne[models.Inventory](row)
	if err != nil {
		return nil, err
	}

	if updated.Status != previous && updated.Status != models.InStock {
		s.alert(ctx, notify.StockAlert{
			ProductID:      productID,
			LocationID:     locationID,
			Quantity:       quantity,
			ReorderPoint:   updated.ReorderPoint,
			PreviousStatus: previous,
			Status:         updated.Status,
			At:             now.UTC(),
		})
	}
	return updated, nil
}

// alert publishes a stock alert. A broker failure does not fail the stock update.
func (s *InventoryService) alert(ctx context.Context, a notify.StockAlert) {
	entry := s.log.WithFields(logrus.Fields{
		"product_id":  a.ProductID,
		"location_id": a.LocationID,
		"status":      a.Status,
	})
	if err := s.publisher.PublishStockAlert(ctx, a); err != nil {
		entry.WithError(err).Warn("Failed to publish stock alert")
		return
	}
	entry.Info("Published stock alert")
}
