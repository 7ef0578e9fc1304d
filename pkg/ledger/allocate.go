package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"aeroserv.in/fuelops/models"
)

// lotDraw is one planned deduction from a lot.
type lotDraw struct {
	LotID    uuid.UUID
	Mrn      string
	Quantity decimal.Decimal
}

// planDraws walks the lots in ledger order (oldest intake first, insertion
// sequence on ties) and draws min(remaining, still needed) from each until
// the request is covered. It mutates nothing; the returned uncovered amount
// is positive when the lots cannot cover the request.
func planDraws(lots []models.MrnLot, requested decimal.Decimal) (draws []lotDraw, uncovered decimal.Decimal) {
	needed := requested
	for _, lot := range lots {
		if !needed.IsPositive() {
			break
		}
		if lot.Exhausted() {
			continue
		}
		draw := decimal.Min(lot.Remaining, needed)
		draws = append(draws, lotDraw{LotID: lot.ID, Mrn: lot.Mrn, Quantity: draw})
		needed = needed.Sub(draw)
	}
	return draws, needed
}

// AllocateInput describes one outgoing movement to be drawn down from a
// tank's lots.
type AllocateInput struct {
	TankID      uuid.UUID
	Quantity    decimal.Decimal
	Kind        models.MovementKind // MovementFuelingOut or MovementTransferOut
	OccurredAt  time.Time
	Operator    Operator
	VehicleID   *uuid.UUID
	CompanyID   *uuid.UUID
	AircraftReg *string
	MeterPhotos []string
	BillPhotos  []string
	Remarks     *string
	Latitude    *float64
	Longitude   *float64
}

// Allocate attributes an outgoing quantity to the tank's MRN lots in FIFO
// order and records the movement with its breakdown. Lot decrements, the
// tank-reading decrement and the movement write are one atomic unit; on
// InsufficientCoverageError nothing is mutated.
func (s *Service) Allocate(ctx context.Context, in AllocateInput) (*models.FuelMovement, error) {
	if !in.Quantity.IsPositive() {
		return nil, ErrNonPositiveQuantity
	}
	// Only outgoing kinds draw down lots; anything else is a caller bug and
	// must not end up recorded as a fueling.
	if in.Kind != models.MovementFuelingOut && in.Kind != models.MovementTransferOut {
		return nil, ErrUnsupportedKind
	}
	if in.OccurredAt.IsZero() {
		in.OccurredAt = s.now()
	}

	var movement models.FuelMovement
	err := s.inTx(ctx, func(tx *gorm.DB) error {
		tank, err := lockTank(tx, in.TankID)
		if err != nil {
			return err
		}
		var err2 error
		movement, err2 = s.allocateLocked(tx, tank, in)
		return err2
	})
	if err != nil {
		return nil, err
	}

	s.invalidateConsistency(ctx, in.TankID)
	s.log.WithFields(logrus.Fields{
		"tank_id":  in.TankID,
		"kind":     in.Kind,
		"quantity": in.Quantity.String(),
		"lots":     len(movement.Allocations),
	}).Info("ledger: outgoing movement allocated")
	return &movement, nil
}

// allocateLocked performs the draw-down against an already-locked tank. The
// transfer path reuses it so both legs share one transaction.
func (s *Service) allocateLocked(tx *gorm.DB, tank *models.FuelTank, in AllocateInput) (models.FuelMovement, error) {
	lots, err := lotsForUpdate(tx, tank.ID, true)
	if err != nil {
		return models.FuelMovement{}, err
	}

	draws, uncovered := planDraws(lots, in.Quantity)
	if uncovered.IsPositive() {
		return models.FuelMovement{}, &InsufficientCoverageError{
			TankID:    tank.ID,
			Requested: in.Quantity,
			Covered:   in.Quantity.Sub(uncovered),
			Uncovered: uncovered,
		}
	}

	movement := models.FuelMovement{
		TankID:       tank.ID,
		Kind:         in.Kind,
		Quantity:     in.Quantity,
		VehicleID:    in.VehicleID,
		CompanyID:    in.CompanyID,
		AircraftReg:  in.AircraftReg,
		OperatorID:   in.Operator.ID,
		OperatorName: in.Operator.Name,
		MeterPhotos:  pq.StringArray(in.MeterPhotos),
		BillPhotos:   pq.StringArray(in.BillPhotos),
		Remarks:      in.Remarks,
		Latitude:     in.Latitude,
		Longitude:    in.Longitude,
		OccurredAt:   models.JSONTime(in.OccurredAt),
	}
	if err := tx.Create(&movement).Error; err != nil {
		return models.FuelMovement{}, err
	}

	for i, draw := range draws {
		alloc := models.MovementAllocation{
			MovementID: movement.ID,
			LotID:      draw.LotID,
			Mrn:        draw.Mrn,
			Quantity:   draw.Quantity,
			Position:   i,
		}
		if err := tx.Create(&alloc).Error; err != nil {
			return models.FuelMovement{}, err
		}
		movement.Allocations = append(movement.Allocations, alloc)

		err := tx.Model(&models.MrnLot{}).
			Where("id = ?", draw.LotID).
			Update("remaining", gorm.Expr("remaining - ?", draw.Quantity)).Error
		if err != nil {
			return models.FuelMovement{}, err
		}
	}

	newQty := tank.CurrentQuantity.Sub(in.Quantity)
	if err := tx.Model(tank).Update("current_quantity", newQty).Error; err != nil {
		return models.FuelMovement{}, err
	}
	return movement, nil
}

// TransferInput moves fuel between two fixed tanks. The source side is a
// FIFO draw-down exactly like a fueling; the destination side inherits the
// drawn MRN lots so customs attribution survives the transfer.
type TransferInput struct {
	SourceTankID uuid.UUID
	DestTankID   uuid.UUID
	Quantity     decimal.Decimal
	OccurredAt   time.Time
	Operator     Operator
	VehicleID    *uuid.UUID
	Remarks      *string
}

// Transfer executes both legs of a tank-to-tank transfer in one transaction.
// Tanks are locked in a fixed order (by id) so two opposing transfers cannot
// deadlock.
func (s *Service) Transfer(ctx context.Context, in TransferInput) (*models.FuelMovement, *models.FuelMovement, error) {
	if !in.Quantity.IsPositive() {
		return nil, nil, ErrNonPositiveQuantity
	}
	if in.SourceTankID == in.DestTankID {
		return nil, nil, ErrTankNotFound
	}
	if in.OccurredAt.IsZero() {
		in.OccurredAt = s.now()
	}

	var outLeg, inLeg models.FuelMovement
	err := s.inTx(ctx, func(tx *gorm.DB) error {
		first, second := in.SourceTankID, in.DestTankID
		if second.String() < first.String() {
			first, second = second, first
		}
		firstTank, err := lockTank(tx, first)
		if err != nil {
			return err
		}
		secondTank, err := lockTank(tx, second)
		if err != nil {
			return err
		}
		source, dest := firstTank, secondTank
		if source.ID != in.SourceTankID {
			source, dest = secondTank, firstTank
		}

		outLeg, err = s.allocateLocked(tx, source, AllocateInput{
			TankID:     source.ID,
			Quantity:   in.Quantity,
			Kind:       models.MovementTransferOut,
			OccurredAt: in.OccurredAt,
			Operator:   in.Operator,
			VehicleID:  in.VehicleID,
			Remarks:    in.Remarks,
		})
		if err != nil {
			return err
		}
		outLeg.CounterpartTankID = &dest.ID
		if err := tx.Model(&models.FuelMovement{}).
			Where("id = ?", outLeg.ID).
			Update("counterpart_tank_id", dest.ID).Error; err != nil {
			return err
		}

		inLeg = models.FuelMovement{
			TankID:            dest.ID,
			Kind:              models.MovementTransferIn,
			Quantity:          in.Quantity,
			CounterpartTankID: &source.ID,
			VehicleID:         in.VehicleID,
			OperatorID:        in.Operator.ID,
			OperatorName:      in.Operator.Name,
			Remarks:           in.Remarks,
			OccurredAt:        models.JSONTime(in.OccurredAt),
		}
		if err := tx.Create(&inLeg).Error; err != nil {
			return err
		}

		// Mirror the breakdown into the destination ledger: each drawn MRN
		// lands in (or tops up) a lot of the same MRN on the receiving tank.
		for _, alloc := range outLeg.Allocations {
			if err := s.receiveLot(tx, dest, alloc.Mrn, alloc.Quantity, in.OccurredAt, inLeg.ID); err != nil {
				return err
			}
		}

		newQty := dest.CurrentQuantity.Add(in.Quantity)
		return tx.Model(dest).Update("current_quantity", newQty).Error
	})
	if err != nil {
		return nil, nil, err
	}

	s.invalidateConsistency(ctx, in.SourceTankID)
	s.invalidateConsistency(ctx, in.DestTankID)
	s.log.WithFields(logrus.Fields{
		"source_tank": in.SourceTankID,
		"dest_tank":   in.DestTankID,
		"quantity":    in.Quantity.String(),
	}).Info("ledger: transfer completed")
	return &outLeg, &inLeg, nil
}

// receiveLot tops up an existing lot of the same MRN on the destination tank
// or appends a new one. MRNs stay unique per tank either way.
func (s *Service) receiveLot(tx *gorm.DB, dest *models.FuelTank, mrn string, qty decimal.Decimal, at time.Time, movementID uuid.UUID) error {
	var existing models.MrnLot
	err := tx.Where("tank_id = ? AND mrn = ?", dest.ID, mrn).First(&existing).Error
	if err == nil {
		return tx.Model(&existing).Updates(map[string]interface{}{
			"original":  gorm.Expr("original + ?", qty),
			"remaining": gorm.Expr("remaining + ?", qty),
		}).Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	lot := models.MrnLot{
		TankID:           dest.ID,
		Mrn:              mrn,
		Original:         qty,
		Remaining:        qty,
		IntakeAt:         at,
		OriginMovementID: &movementID,
		SystemGenerated:  IsSyntheticMrn(mrn),
	}
	return tx.Create(&lot).Error
}
