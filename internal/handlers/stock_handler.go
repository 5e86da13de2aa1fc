package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"trade-backend/internal/middleware"
	"trade-backend/internal/models"
	"trade-backend/internal/services"
	"trade-backend/pkg/utils"

	"github.com/gorilla/mux"
)

type StockHandler struct {
	Service *services.StockService
}

func NewStockHandler(s *services.StockService) *StockHandler {
	return &StockHandler{Service: s}
}

// List returns all product stock balances.
func (h *StockHandler) List(w http.ResponseWriter, r *http.Request) {
	stocks, err := h.Service.ListStock(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if stocks == nil {
		stocks = []models.ProductStock{}
	}

	utils.JSON(w, http.StatusOK, stocks)
}

// Get returns the stock balance for one product.
func (h *StockHandler) Get(w http.ResponseWriter, r *http.Request) {
	productName := mux.Vars(r)["product"]

	st, err := h.Service.GetStock(r.Context(), productName)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, st)
}

// Receive books inward stock from a goods-receipt note.
func (h *StockHandler) Receive(w http.ResponseWriter, r *http.Request) {
	var req models.ReceiveStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var userID *int
	if id, ok := middleware.GetUserIDFromContext(r.Context()); ok {
		userID = &id
	}

	st, err := h.Service.Receive(r.Context(), &req, userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Stock received successfully",
		"data":    st,
	})
}

// Movements returns the recent movement ledger for a product, newest first.
func (h *StockHandler) Movements(w http.ResponseWriter, r *http.Request) {
	productName := mux.Vars(r)["product"]

	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil {
			limit = n
		}
	}

	movements, err := h.Service.Movements(r.Context(), productName, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if movements == nil {
		movements = []models.StockMovement{}
	}

	utils.JSON(w, http.StatusOK, movements)
}
