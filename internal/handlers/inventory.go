package handlers

import (
	"net/http"

	"github.com/ukydev/logistics-dashboard/internal/apperr"
	"github.com/ukydev/logistics-dashboard/internal/models"
	"github.com/ukydev/logistics-dashboard/internal/services"
)

type InventoryHandler struct {
	inventory *services.InventoryService
}

func NewInventoryHandler(inventory *services.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventory: inventory}
}

type stockRequest struct {
	ProductID  string `json:"product_id"`
	LocationID string `json:"location_id"`
	Quantity   *int   `json:"quantity"`
}

func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	order, page, err := listParams(r)
	if err != nil {
		writeError(w, err)
		return
	}
	q := r.URL.Query()
	items, err := h.inventory.GetInventory(r.Context(), services.InventoryFilter{
		LocationID: q.Get("location_id"),
		ProductID:  q.Get("product_id"),
		Status:     models.InventoryStatus(q.Get("status")),
		Order:      order,
		Page:       page,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *InventoryHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	items, err := h.inventory.GetLowStockItems(r.Context(), r.URL.Query().Get("location_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// UpdateStock handles PUT /api/inventory/stock
func (h *InventoryHandler) UpdateStock(w http.ResponseWriter, r *http.Request) {
	var req stockRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Quantity == nil {
		writeError(w, apperr.Validation("Missing required parameter", apperr.Details{"quantity": "required"}))
		return
	}
	item, err := h.inventory.UpdateStockLevel(r.Context(), req.ProductID, req.LocationID, *req.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *InventoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var item models.Inventory
	if err := decodeJSON(r, &item); err != nil {
		writeError(w, err)
		return
	}
	created, err := h.inventory.CreateInventoryItem(r.Context(), item)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *InventoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.inventory.GetInventoryItem(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *InventoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	var u services.InventoryUpdate
	if err := decodeJSON(r, &u); err != nil {
		writeError(w, err)
		return
	}
	item, err := h.inventory.UpdateInventoryItem(r.Context(), r.PathValue("id"), u)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *InventoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.inventory.DeleteInventoryItem(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
