package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"trade-backend/internal/models"
	"trade-backend/internal/services"
	"trade-backend/pkg/utils"

	"github.com/gorilla/mux"
)

type ProductMappingHandler struct {
	Service *services.MappingService
}

func NewProductMappingHandler(s *services.MappingService) *ProductMappingHandler {
	return &ProductMappingHandler{Service: s}
}

func (h *ProductMappingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateProductMappingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	m, err := h.Service.Create(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusCreated, m)
}

func (h *ProductMappingHandler) List(w http.ResponseWriter, r *http.Request) {
	mappings, err := h.Service.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if mappings == nil {
		mappings = []models.ProductMaterialMapping{}
	}

	utils.JSON(w, http.StatusOK, mappings)
}

func (h *ProductMappingHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid mapping ID")
		return
	}

	var req models.UpdateProductMappingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.Service.Update(r.Context(), id, &req); err != nil {
		writeServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, map[string]string{"message": "Product mapping updated successfully"})
}

func (h *ProductMappingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid mapping ID")
		return
	}

	if err := h.Service.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, map[string]string{"message": "Product mapping deleted successfully"})
}
