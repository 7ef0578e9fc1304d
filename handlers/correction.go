package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"aeroserv.in/fuelops/config"
	"aeroserv.in/fuelops/models"
	"aeroserv.in/fuelops/pkg/ledger"
)

type correctionReq struct {
	TankID uuid.UUID               `json:"tankId" validate:"required"`
	Action models.CorrectionAction `json:"action" validate:"required"`
	Token  string                  `json:"token"`
	Notes  string                  `json:"notes" validate:"required"`
}

// CreateCorrection executes one supervised corrective action. Requires a
// valid override token for the tank and action class.
func CreateCorrection(w http.ResponseWriter, r *http.Request) {
	operator, ok := requestOperator(r)
	if !ok {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	var req correctionReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	record, err := engine().Correct(r.Context(), ledger.CorrectionInput{
		TankID:   req.TankID,
		Action:   req.Action,
		Token:    req.Token,
		Operator: operator,
		Notes:    req.Notes,
	})
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

type overrideReq struct {
	TankID    uuid.UUID                `json:"tankId" validate:"required"`
	Operation models.OverrideOperation `json:"operation" validate:"required"`
	Notes     string                   `json:"notes" validate:"required"`
}

// CreateOverride issues a short-lived, single-use override token.
func CreateOverride(w http.ResponseWriter, r *http.Request) {
	operator, ok := requestOperator(r)
	if !ok {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	var req overrideReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	token, err := engine().IssueOverride(r.Context(), req.TankID, req.Operation, operator, req.Notes)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, token)
}

// GetCorrections lists a tank's correction audit trail, newest first.
func GetCorrections(w http.ResponseWriter, r *http.Request) {
	var records []models.CorrectionRecord
	query := config.DB.Order("created_at DESC")
	if tankID := r.URL.Query().Get("tank_id"); tankID != "" {
		query = query.Where("tank_id = ?", tankID)
	}
	if err := query.Limit(200).Find(&records).Error; err != nil {
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, records)
}
