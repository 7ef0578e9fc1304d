package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"aeroserv.in/fuelops/config"
	"aeroserv.in/fuelops/models"
	"aeroserv.in/fuelops/utils"
)

type legacyMovementReq struct {
	TankID     uuid.UUID           `json:"tankId" validate:"required"`
	Kind       models.MovementKind `json:"kind" validate:"required"`
	Quantity   decimal.Decimal     `json:"quantity" validate:"required"`
	OccurredAt models.JSONTime     `json:"occurredAt" validate:"required"`
	Mrn        *string             `json:"mrn"`
	// Breakdown is the old system's serialized allocation blob, attached to
	// the operation row instead of normalized rows.
	Breakdown json.RawMessage `json:"breakdown"`
	Remarks   *string         `json:"remarks"`
}

// ImportLegacyMovement ingests one historical movement exported from the old
// system. The serialized breakdown blob is parsed into first-class allocation
// rows; quantities on the tank and lots are NOT touched — these rows are
// history, not new operations.
func ImportLegacyMovement(w http.ResponseWriter, r *http.Request) {
	operator, ok := requestOperator(r)
	if !ok {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	var req legacyMovementReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	allocs, err := models.ParseLegacyBreakdown(req.Breakdown)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	if len(allocs) > 0 {
		total := models.BreakdownTotal(allocs)
		if !total.Equal(req.Quantity) {
			http.Error(w,
				fmt.Sprintf("breakdown sums to %s but movement quantity is %s", total, req.Quantity),
				http.StatusUnprocessableEntity)
			return
		}
	}

	var movement models.FuelMovement
	err = config.DB.Transaction(func(tx *gorm.DB) error {
		var tank models.FuelTank
		if err := tx.Where("id = ?", req.TankID).First(&tank).Error; err != nil {
			return err
		}

		movement = models.FuelMovement{
			TankID:          tank.ID,
			Kind:            req.Kind,
			Quantity:        req.Quantity,
			Mrn:             req.Mrn,
			OperatorID:      operator.ID,
			OperatorName:    operator.Name,
			Remarks:         req.Remarks,
			LegacyBreakdown: []byte(req.Breakdown),
			OccurredAt:      req.OccurredAt,
		}
		if err := tx.Create(&movement).Error; err != nil {
			return err
		}

		for i := range allocs {
			lot, err := legacyLot(tx, tank.ID, allocs[i].Mrn, allocs[i].Quantity, req.OccurredAt)
			if err != nil {
				return err
			}
			allocs[i].MovementID = movement.ID
			allocs[i].LotID = lot.ID
			if err := tx.Create(&allocs[i]).Error; err != nil {
				return err
			}
		}
		movement.Allocations = allocs
		return nil
	})
	if err != nil {
		http.Error(w, "import failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	utils.Log.WithField("tank_id", req.TankID).
		WithField("allocations", len(allocs)).
		Info("legacy movement imported")
	writeJSON(w, http.StatusCreated, movement)
}

// legacyLot finds the referenced lot or materializes an exhausted historical
// one, so imported allocation rows always have a real lot to point at. A
// materialized lot (no origin movement) has its Original grown by every
// further import that draws from it, so Original tracks the total drawn.
func legacyLot(tx *gorm.DB, tankID uuid.UUID, mrn string, drawn decimal.Decimal, at models.JSONTime) (*models.MrnLot, error) {
	var lot models.MrnLot
	err := tx.Where("tank_id = ? AND mrn = ?", tankID, mrn).First(&lot).Error
	if err == nil {
		if lot.OriginMovementID == nil {
			lot.Original = lot.Original.Add(drawn)
			if err := tx.Model(&lot).Update("original", lot.Original).Error; err != nil {
				return nil, err
			}
		}
		return &lot, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	lot = models.MrnLot{
		TankID:    tankID,
		Mrn:       mrn,
		Original:  drawn,
		Remaining: decimal.Zero,
		IntakeAt:  time.Time(at),
	}
	if err := tx.Create(&lot).Error; err != nil {
		return nil, err
	}
	return &lot, nil
}
