package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"trade-backend/internal/middleware"
	"trade-backend/internal/models"
	"trade-backend/internal/repositories"
	"trade-backend/internal/services"
	"trade-backend/internal/stock"
	"trade-backend/internal/timeutil"
	"trade-backend/pkg/utils"

	"github.com/gorilla/mux"
)

type DeliveryChallanHandler struct {
	Service *services.ChallanService
}

func NewDeliveryChallanHandler(s *services.ChallanService) *DeliveryChallanHandler {
	return &DeliveryChallanHandler{Service: s}
}

// Create issues a new finished-goods delivery challan. The challan is created
// directly as Dispatched with stock deducted in the same transaction.
func (h *DeliveryChallanHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateChallanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var userID *int
	if id, ok := middleware.GetUserIDFromContext(r.Context()); ok {
		userID = &id
	}

	_, summary, err := h.Service.CreateChallan(r.Context(), &req, userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Delivery challan created successfully",
		"data":    summary,
	})
}

// List returns challans matching the query filters, newest first.
func (h *DeliveryChallanHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := &models.ChallanFilter{
		DispatchType: q.Get("dispatch_type"),
		ProductName:  q.Get("product"),
		ReceiverName: q.Get("receiver"),
		Status:       q.Get("status"),
	}

	if from := q.Get("from"); from != "" {
		t, err := timeutil.ParseInIST(timeutil.DateLayout, from)
		if err != nil {
			utils.Error(w, http.StatusBadRequest, "Invalid from date, expected YYYY-MM-DD")
			return
		}
		start := timeutil.StartOfDay(t)
		filter.FromDate = &start
	}
	if to := q.Get("to"); to != "" {
		t, err := timeutil.ParseInIST(timeutil.DateLayout, to)
		if err != nil {
			utils.Error(w, http.StatusBadRequest, "Invalid to date, expected YYYY-MM-DD")
			return
		}
		end := timeutil.EndOfDay(t)
		filter.ToDate = &end
	}
	if limit := q.Get("limit"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil && n > 0 {
			filter.Limit = n
		}
	}
	if offset := q.Get("offset"); offset != "" {
		if n, err := strconv.Atoi(offset); err == nil && n > 0 {
			filter.Offset = n
		}
	}

	challans, err := h.Service.ListChallans(r.Context(), filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if challans == nil {
		challans = []models.FinishedGoodsChallan{}
	}

	utils.JSON(w, http.StatusOK, challans)
}

// Get returns a single challan by ID.
func (h *DeliveryChallanHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid challan ID")
		return
	}

	dc, err := h.Service.GetChallan(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, dc)
}

// UpdateStatus transitions a pending challan to Dispatched or Cancelled.
func (h *DeliveryChallanHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid challan ID")
		return
	}

	var req models.UpdateChallanStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	dc, err := h.Service.UpdateStatus(r.Context(), id, &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, map[string]interface{}{
		"message": "Delivery challan updated successfully",
		"data":    dc,
	})
}

// writeServiceError maps service and stock errors onto HTTP status codes.
// Validation, configuration and stock-availability failures are the caller's
// problem (400); missing records are 404; everything else is logged and 500.
func writeServiceError(w http.ResponseWriter, err error) {
	var ve *services.ValidationError
	if errors.As(err, &ve) {
		utils.Error(w, http.StatusBadRequest, ve.Message)
		return
	}

	var ce *services.ConfigurationError
	if errors.As(err, &ce) {
		utils.Error(w, http.StatusBadRequest, ce.Message)
		return
	}

	if stock.IsInsufficient(err) {
		utils.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	var nfe *services.NotFoundError
	if errors.As(err, &nfe) {
		utils.Error(w, http.StatusNotFound, nfe.Message)
		return
	}
	if errors.Is(err, repositories.ErrNotFound) {
		utils.Error(w, http.StatusNotFound, "Record not found")
		return
	}

	if errors.Is(err, repositories.ErrStockConflict) || errors.Is(err, repositories.ErrDuplicate) {
		utils.Error(w, http.StatusBadRequest, "Stock was modified concurrently, please retry")
		return
	}

	log.Printf("[Handler] Unexpected error: %v", err)
	utils.Error(w, http.StatusInternalServerError, "Internal server error")
}
