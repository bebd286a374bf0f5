// Item HTTP handlers.
//
// This file exposes REST endpoints for the shared ledger:
//   - GET    /rooms/{code}/items   (public list, oldest first)
//   - POST   /rooms/{code}/items   (append an item; requires a credential)
//   - GET    /rooms/{code}/bill    (per-group aggregated totals)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/NamanSingh02/Restaurant-Bill-Split/internal/domain"
	"github.com/NamanSingh02/Restaurant-Bill-Split/internal/http/middleware"
	"github.com/NamanSingh02/Restaurant-Bill-Split/internal/services"
)

// itemsCreated counts accepted ledger writes across all rooms.
var itemsCreated = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "billsplit_items_created_total",
		Help: "Total number of food items accepted into room ledgers.",
	},
)

func init() {
	prometheus.MustRegister(itemsCreated)
}

//
// DTOs
//

// AddItemRequest is the JSON payload for submitting an item. The submitter's
// name is absent on purpose; it is taken from the verified credential.
type AddItemRequest struct {
	Name         string    `json:"name"`
	Price        float64   `json:"price"`
	GroupNumbers []int     `json:"group_numbers"`
	Percentages  []float64 `json:"percentages"`
}

// ListItemsResponse wraps a room's ledger.
type ListItemsResponse struct {
	Items []domain.FoodItem `json:"items"`
}

// BillResponse wraps the per-group totals in roster order.
type BillResponse struct {
	Bills []services.GroupBill `json:"bills"`
}

//
// Handlers
//

// ListItems handles GET /rooms/{code}/items.
//
// Public: the ledger is shared state for everyone at the table, so listing
// needs no credential. Items come back oldest first.
func (h *Handlers) ListItems(c *gin.Context) {
	items, err := h.itemSvc.List(c.Request.Context(), c.Param("code"))
	if err != nil {
		failService(c, err)
		return
	}
	if items == nil {
		items = []domain.FoodItem{}
	}
	ok(c, http.StatusOK, ListItemsResponse{Items: items})
}

// AddItem handles POST /rooms/{code}/items.
//
// Requires a bearer credential whose room code matches the path; a valid
// token for a different room is rejected with 401 rather than 404 so a
// client bug cannot be mistaken for an expired room.
func (h *Handlers) AddItem(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	if claims == nil {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "credential required")
		return
	}
	code := c.Param("code")
	if claims.RoomCode != code {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "credential is for a different room")
		return
	}

	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	item, err := h.itemSvc.Add(c.Request.Context(), code, claims, services.AddItemInput{
		Name:         req.Name,
		Price:        req.Price,
		GroupNumbers: req.GroupNumbers,
		Percentages:  req.Percentages,
	})
	if err != nil {
		failService(c, err)
		return
	}

	itemsCreated.Inc()
	ok(c, http.StatusCreated, item)
}

// GetBill handles GET /rooms/{code}/bill.
//
// Public, like the list endpoint: the aggregate is derived from data every
// participant can already see.
func (h *Handlers) GetBill(c *gin.Context) {
	bills, err := h.itemSvc.Calculate(c.Request.Context(), c.Param("code"))
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, BillResponse{Bills: bills})
}
