package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"aeroserv.in/fuelops/config"
	"aeroserv.in/fuelops/middleware"
	"aeroserv.in/fuelops/pkg/ledger"
	"aeroserv.in/fuelops/utils"
)

var validate = validator.New()

// engine builds the ledger service over the shared DB handle. The service
// struct is stateless glue, so constructing one per request costs nothing.
func engine() *ledger.Service {
	opts := []ledger.Option{}
	if cache := config.GetRedis(); cache != nil {
		opts = append(opts, ledger.WithCache(cache))
	}
	return ledger.New(config.DB, utils.Log, opts...)
}

// requestOperator lifts operator identity out of the JWT claims.
func requestOperator(r *http.Request) (ledger.Operator, bool) {
	claims := middleware.GetClaims(r)
	if claims == nil {
		return ledger.Operator{}, false
	}
	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return ledger.Operator{}, false
	}
	return ledger.Operator{ID: id, Name: claims.Name}, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason"`
}

// writeLedgerError maps engine error kinds to HTTP statuses. Every rejection
// carries a machine-readable kind and a human-readable reason.
func writeLedgerError(w http.ResponseWriter, err error) {
	var (
		invalidMrn   *ledger.InvalidMrnError
		coverage     *ledger.InsufficientCoverageError
		unresolvable *ledger.UnresolvableAdjustmentError
		negBalancing *ledger.NegativeBalancingError
	)
	switch {
	case errors.As(err, &invalidMrn):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{"InvalidMrnFormat", err.Error()})
	case errors.Is(err, ledger.ErrNonPositiveQuantity):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{"NonPositiveQuantity", err.Error()})
	case errors.As(err, &coverage):
		writeJSON(w, http.StatusConflict, errorResponse{"InsufficientLotCoverage", err.Error()})
	case errors.As(err, &unresolvable):
		writeJSON(w, http.StatusConflict, errorResponse{"UnresolvableAdjustment", err.Error()})
	case errors.As(err, &negBalancing):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{"NegativeBalancingQuantity", err.Error()})
	case errors.Is(err, ledger.ErrOverrideRequired):
		writeJSON(w, http.StatusForbidden, errorResponse{"OverrideRequired", err.Error()})
	case errors.Is(err, ledger.ErrTokenExpired):
		writeJSON(w, http.StatusForbidden, errorResponse{"TokenExpired", err.Error()})
	case errors.Is(err, ledger.ErrTokenAlreadyConsumed):
		writeJSON(w, http.StatusForbidden, errorResponse{"TokenAlreadyConsumed", err.Error()})
	case errors.Is(err, ledger.ErrTokenTankMismatch):
		writeJSON(w, http.StatusForbidden, errorResponse{"TokenTankMismatch", err.Error()})
	case errors.Is(err, ledger.ErrTankNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{"TankNotFound", err.Error()})
	case errors.Is(err, ledger.ErrUnknownAction):
		writeJSON(w, http.StatusBadRequest, errorResponse{"UnknownAction", err.Error()})
	case errors.Is(err, ledger.ErrUnsupportedKind):
		writeJSON(w, http.StatusBadRequest, errorResponse{"UnsupportedKind", err.Error()})
	default:
		utils.Log.WithError(err).Error("unhandled ledger error")
		writeJSON(w, http.StatusInternalServerError, errorResponse{"Internal", "internal error"})
	}
}
