package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"aeroserv.in/fuelops/config"
	"aeroserv.in/fuelops/models"
)

type tankReq struct {
	Name           string          `json:"name" validate:"required"`
	LocationID     uuid.UUID       `json:"locationId" validate:"required"`
	FuelType       string          `json:"fuelType" validate:"required"`
	CapacityLiters decimal.Decimal `json:"capacityLiters"`
	Remarks        *string         `json:"remarks"`
}

// CreateTank registers a fixed tank. The physical quantity starts at zero;
// only intake/outgoing/correction operations ever change it.
func CreateTank(w http.ResponseWriter, r *http.Request) {
	var req tankReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !req.CapacityLiters.IsPositive() {
		http.Error(w, "capacityLiters must be positive", http.StatusBadRequest)
		return
	}

	tank := models.FuelTank{
		Name:            req.Name,
		LocationID:      req.LocationID,
		FuelType:        req.FuelType,
		CapacityLiters:  req.CapacityLiters,
		CurrentQuantity: decimal.Zero,
		Remarks:         req.Remarks,
	}
	if err := config.DB.Create(&tank).Error; err != nil {
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, tank)
}

func GetAllTanks(w http.ResponseWriter, r *http.Request) {
	var tanks []models.FuelTank
	query := config.DB.Preload("Location")
	if loc := r.URL.Query().Get("location_id"); loc != "" {
		query = query.Where("location_id = ?", loc)
	}
	if err := query.Order("name ASC").Find(&tanks).Error; err != nil {
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, tanks)
}

func GetTank(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var tank models.FuelTank
	if err := config.DB.Preload("Location").Where("id = ?", id).First(&tank).Error; err != nil {
		http.Error(w, "record not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, tank)
}

// UpdateTank edits descriptive fields only. CurrentQuantity is deliberately
// not assignable here.
func UpdateTank(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var tank models.FuelTank
	if err := config.DB.Where("id = ?", id).First(&tank).Error; err != nil {
		http.Error(w, "record not found", http.StatusNotFound)
		return
	}

	var req tankReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	updates := map[string]interface{}{
		"name":        req.Name,
		"location_id": req.LocationID,
		"fuel_type":   req.FuelType,
		"remarks":     req.Remarks,
	}
	if req.CapacityLiters.IsPositive() {
		updates["capacity_liters"] = req.CapacityLiters
	}
	if err := config.DB.Model(&tank).Updates(updates).Error; err != nil {
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, tank)
}
