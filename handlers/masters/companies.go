// Package masters holds the CRUD handlers for master data: companies,
// locations and vehicles. Thin JSON glue over GORM; the fuel engine never
// depends on anything here.
package masters

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"aeroserv.in/fuelops/config"
	"aeroserv.in/fuelops/models"
)

func CreateCompany(w http.ResponseWriter, r *http.Request) {
	var item models.Company
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if item.Name == "" || item.Kind == "" {
		http.Error(w, "name and kind are required", http.StatusBadRequest)
		return
	}
	if err := config.DB.Create(&item).Error; err != nil {
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func GetAllCompanies(w http.ResponseWriter, r *http.Request) {
	var items []models.Company
	query := config.DB.Order("name ASC")
	if kind := r.URL.Query().Get("kind"); kind != "" {
		query = query.Where("kind = ?", kind)
	}
	if err := query.Find(&items).Error; err != nil {
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func GetCompany(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var item models.Company
	if err := config.DB.Where("id = ?", id).First(&item).Error; err != nil {
		http.Error(w, "record not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func UpdateCompany(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var item models.Company
	if err := config.DB.Where("id = ?", id).First(&item).Error; err != nil {
		http.Error(w, "record not found", http.StatusNotFound)
		return
	}
	var patch models.Company
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

func DeleteCompany(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := config.DB.Where("id = ?", id).Delete(&models.Company{}).Error; err != nil {
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
