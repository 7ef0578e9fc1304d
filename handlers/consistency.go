package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// GetTankConsistency compares one tank's physical reading against its ledger
// sum.
func GetTankConsistency(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid tank id", http.StatusBadRequest)
		return
	}
	result, err := engine().Check(r.Context(), id)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GetAllConsistency runs the check for every tank.
func GetAllConsistency(w http.ResponseWriter, r *http.Request) {
	results, err := engine().CheckAll(r.Context())
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}
