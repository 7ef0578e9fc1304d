package masters

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"aeroserv.in/fuelops/config"
	"aeroserv.in/fuelops/models"
)

func CreateVehicle(w http.ResponseWriter, r *http.Request) {
	var item models.Vehicle
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if item.Registration == "" || item.Kind == "" {
		http.Error(w, "registration and kind are required", http.StatusBadRequest)
		return
	}
	if err := config.DB.Create(&item).Error; err != nil {
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func GetAllVehicles(w http.ResponseWriter, r *http.Request) {
	var items []models.Vehicle
	query := config.DB.Preload("HomeLocation").Order("registration ASC")
	if loc := r.URL.Query().Get("location_id"); loc != "" {
		query = query.Where("home_location_id = ?", loc)
	}
	if err := query.Find(&items).Error; err != nil {
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func GetVehicle(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var item models.Vehicle
	if err := config.DB.Preload("HomeLocation").Where("id = ?", id).First(&item).Error; err != nil {
		http.Error(w, "record not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func UpdateVehicle(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var item models.Vehicle
	if err := config.DB.Where("id = ?", id).First(&item).Error; err != nil {
		http.Error(w, "record not found", http.StatusNotFound)
		return
	}
	var patch models.Vehicle
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	patch.ID = item.ID
	if err := config.DB.Model(&item).Updates(patch).Error; err != nil {
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func DeleteVehicle(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := config.DB.Where("id = ?", id).Delete(&models.Vehicle{}).Error; err != nil {
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
