package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"aeroserv.in/fuelops/config"
	"aeroserv.in/fuelops/models"
	"aeroserv.in/fuelops/pkg/ledger"
	"aeroserv.in/fuelops/utils"
)

type intakeReq struct {
	TankID      uuid.UUID        `json:"tankId" validate:"required"`
	Mrn         string           `json:"mrn"`
	Quantity    decimal.Decimal  `json:"quantity" validate:"required"`
	OccurredAt  *models.JSONTime `json:"occurredAt"`
	VehicleID   *uuid.UUID       `json:"vehicleId"`
	CompanyID   *uuid.UUID       `json:"companyId"`
	MeterPhotos []string         `json:"meterPhotos"`
	BillPhotos  []string         `json:"billPhotos"`
	Remarks     *string          `json:"remarks"`
	Latitude    *float64         `json:"latitude"`
	Longitude   *float64         `json:"longitude"`
}

// CreateIntake records an MRN delivery into a tank and appends the lot.
func CreateIntake(w http.ResponseWriter, r *http.Request) {
	operator, ok := requestOperator(r)
	if !ok {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	var req intakeReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	checkGeofence(req.TankID, req.Latitude, req.Longitude)

	lot, err := engine().AddLot(r.Context(), ledger.IntakeInput{
		TankID:      req.TankID,
		Mrn:         req.Mrn,
		Quantity:    req.Quantity,
		OccurredAt:  occurredAt(req.OccurredAt),
		Operator:    operator,
		VehicleID:   req.VehicleID,
		CompanyID:   req.CompanyID,
		MeterPhotos: req.MeterPhotos,
		BillPhotos:  req.BillPhotos,
		Remarks:     req.Remarks,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
	})
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, lot)
}

type fuelingOutReq struct {
	TankID      uuid.UUID        `json:"tankId" validate:"required"`
	Quantity    decimal.Decimal  `json:"quantity" validate:"required"`
	OccurredAt  *models.JSONTime `json:"occurredAt"`
	VehicleID   *uuid.UUID       `json:"vehicleId"`
	CompanyID   *uuid.UUID       `json:"companyId"`
	AircraftReg *string          `json:"aircraftReg"`
	MeterPhotos []string         `json:"meterPhotos"`
	BillPhotos  []string         `json:"billPhotos"`
	Remarks     *string          `json:"remarks"`
	Latitude    *float64         `json:"latitude"`
	Longitude   *float64         `json:"longitude"`
}

// CreateFuelingOut attributes an aircraft fueling to the tank's MRN lots and
// returns the movement with its allocation breakdown.
func CreateFuelingOut(w http.ResponseWriter, r *http.Request) {
	operator, ok := requestOperator(r)
	if !ok {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	var req fuelingOutReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	checkGeofence(req.TankID, req.Latitude, req.Longitude)

	movement, err := engine().Allocate(r.Context(), ledger.AllocateInput{
		TankID:      req.TankID,
		Quantity:    req.Quantity,
		Kind:        models.MovementFuelingOut,
		OccurredAt:  occurredAt(req.OccurredAt),
		Operator:    operator,
		VehicleID:   req.VehicleID,
		CompanyID:   req.CompanyID,
		AircraftReg: req.AircraftReg,
		MeterPhotos: req.MeterPhotos,
		BillPhotos:  req.BillPhotos,
		Remarks:     req.Remarks,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
	})
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, movement)
}

type transferReq struct {
	SourceTankID uuid.UUID        `json:"sourceTankId" validate:"required"`
	DestTankID   uuid.UUID        `json:"destTankId" validate:"required"`
	Quantity     decimal.Decimal  `json:"quantity" validate:"required"`
	OccurredAt   *models.JSONTime `json:"occurredAt"`
	VehicleID    *uuid.UUID       `json:"vehicleId"`
	Remarks      *string          `json:"remarks"`
}

// CreateTransfer moves fuel between two tanks, carrying the MRN attribution
// to the destination.
func CreateTransfer(w http.ResponseWriter, r *http.Request) {
	operator, ok := requestOperator(r)
	if !ok {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	var req transferReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	outLeg, inLeg, err := engine().Transfer(r.Context(), ledger.TransferInput{
		SourceTankID: req.SourceTankID,
		DestTankID:   req.DestTankID,
		Quantity:     req.Quantity,
		OccurredAt:   occurredAt(req.OccurredAt),
		Operator:     operator,
		VehicleID:    req.VehicleID,
		Remarks:      req.Remarks,
	})
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"out": outLeg,
		"in":  inLeg,
	})
}

// GetTankLots lists a tank's MRN lots in allocation order.
func GetTankLots(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid tank id", http.StatusBadRequest)
		return
	}
	onlyWithRemaining := r.URL.Query().Get("only_with_remaining") == "true"

	lots, err := engine().ListLots(r.Context(), id, onlyWithRemaining)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lots)
}

// GetMovements lists fuel movements with filters and pagination.
func GetMovements(w http.ResponseWriter, r *http.Request) {
	params, err := models.ParseMovementParams(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	page, err := models.ListMovements(config.DB, params)
	if err != nil {
		http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func occurredAt(t *models.JSONTime) time.Time {
	if t == nil {
		return time.Time{}
	}
	return time.Time(*t)
}

// checkGeofence warns when a submission's coordinates fall outside the
// tank's location boundary. Advisory only: field GPS is too noisy to make
// this a hard rejection.
func checkGeofence(tankID uuid.UUID, lat, lng *float64) {
	if lat == nil || lng == nil {
		return
	}
	var tank models.FuelTank
	if err := config.DB.Preload("Location").Where("id = ?", tankID).First(&tank).Error; err != nil {
		return
	}
	if tank.Location.Geofence == nil {
		return
	}
	fence, err := utils.ParseGeofence(*tank.Location.Geofence)
	if err != nil || fence == nil {
		return
	}
	point := utils.Coordinate{Lat: *lat, Lng: *lng}
	if !utils.IsPointInPolygon(point, fence.Coordinates) {
		utils.Log.WithFields(logrus.Fields{
			"tank_id": tankID,
			"lat":     *lat,
			"lng":     *lng,
		}).Warn("fuel operation submitted outside location geofence")
	}
}
