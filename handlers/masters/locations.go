package masters

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"aeroserv.in/fuelops/config"
	"aeroserv.in/fuelops/models"
	"aeroserv.in/fuelops/utils"
)

func CreateLocation(w http.ResponseWriter, r *http.Request) {
	var item models.Location
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if item.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}
	if item.Geofence != nil {
		if err := utils.ValidateGeofence(*item.Geofence); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	if err := config.DB.Create(&item).Error; err != nil {
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func GetAllLocations(w http.ResponseWriter, r *http.Request) {
	var items []models.Location
	if err := config.DB.Order("name ASC").Find(&items).Error; err != nil {
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func GetLocation(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var item models.Location
	if err := config.DB.Where("id = ?", id).First(&item).Error; err != nil {
		http.Error(w, "record not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func UpdateLocation(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var item models.Location
	if err := config.DB.Where("id = ?", id).First(&item).Error; err != nil {
		http.Error(w, "record not found", http.StatusNotFound)
		return
	}
	var patch models.Location
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if patch.Geofence != nil {
		if err := utils.ValidateGeofence(*patch.Geofence); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	patch.ID = item.ID
	if err := config.DB.Model(&item).Updates(patch).Error; err != nil {
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func DeleteLocation(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	// Locations with tanks stay: the fuel ledger references them.
	var tankCount int64
	if err := config.DB.Model(&models.FuelTank{}).Where("location_id = ?", id).Count(&tankCount).Error; err != nil {
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if tankCount > 0 {
		http.Error(w, "location has tanks and cannot be deleted", http.StatusConflict)
		return
	}
	if err := config.DB.Where("id = ?", id).Delete(&models.Location{}).Error; err != nil {
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
