package ledger

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"aeroserv.in/fuelops/models"
)

// IntakeInput describes one MRN delivery into a tank. An empty Mrn means the
// delivery arrived without customs paperwork and gets a synthetic untracked
// sentinel.
type IntakeInput struct {
	TankID      uuid.UUID
	Mrn         string
	Quantity    decimal.Decimal
	OccurredAt  time.Time
	Operator    Operator
	VehicleID   *uuid.UUID
	CompanyID   *uuid.UUID
	MeterPhotos []string
	BillPhotos  []string
	Remarks     *string
	Latitude    *float64
	Longitude   *float64
}

// AddLot records an intake: it appends an MRN lot with remaining = original =
// quantity, raises the tank's physical reading by the same amount, and writes
// the intake movement that becomes the lot's origin reference. The three
// writes are one atomic unit.
func (s *Service) AddLot(ctx context.Context, in IntakeInput) (*models.MrnLot, error) {
	mrn := strings.ToUpper(strings.TrimSpace(in.Mrn))
	if mrn == "" {
		mrn = NewUntrackedMrn()
	}
	if !ValidMrn(mrn) {
		return nil, &InvalidMrnError{Mrn: mrn}
	}
	if !in.Quantity.IsPositive() {
		return nil, ErrNonPositiveQuantity
	}
	if in.OccurredAt.IsZero() {
		in.OccurredAt = s.now()
	}

	var lot models.MrnLot
	err := s.inTx(ctx, func(tx *gorm.DB) error {
		tank, err := lockTank(tx, in.TankID)
		if err != nil {
			return err
		}

		movement := models.FuelMovement{
			TankID:       tank.ID,
			Kind:         models.MovementIntake,
			Quantity:     in.Quantity,
			Mrn:          &mrn,
			VehicleID:    in.VehicleID,
			CompanyID:    in.CompanyID,
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
			return err
		}

		lot = models.MrnLot{
			TankID:           tank.ID,
			Mrn:              mrn,
			Original:         in.Quantity,
			Remaining:        in.Quantity,
			IntakeAt:         in.OccurredAt,
			OriginMovementID: &movement.ID,
			SystemGenerated:  IsSyntheticMrn(mrn),
		}
		if err := tx.Create(&lot).Error; err != nil {
			return err
		}

		newQty := tank.CurrentQuantity.Add(in.Quantity)
		if err := tx.Model(tank).Update("current_quantity", newQty).Error; err != nil {
			return err
		}
		if newQty.GreaterThan(tank.CapacityLiters) {
			s.log.WithFields(logrus.Fields{
				"tank_id":  tank.ID,
				"quantity": newQty.String(),
				"capacity": tank.CapacityLiters.String(),
			}).Warn("ledger: intake pushed tank over rated capacity")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateConsistency(ctx, in.TankID)
	s.log.WithFields(logrus.Fields{
		"tank_id":  in.TankID,
		"mrn":      mrn,
		"quantity": in.Quantity.String(),
	}).Info("ledger: lot added")
	return &lot, nil
}

// ListLots returns the tank's lots in allocation order: intake timestamp
// ascending, ties broken by insertion sequence. The result is a snapshot at
// call time.
func (s *Service) ListLots(ctx context.Context, tankID uuid.UUID, onlyWithRemaining bool) ([]models.MrnLot, error) {
	query := s.db.WithContext(ctx).Where("tank_id = ?", tankID)
	if onlyWithRemaining {
		query = query.Where("remaining > 0")
	}
	var lots []models.MrnLot
	if err := query.Order("intake_at ASC, seq ASC").Find(&lots).Error; err != nil {
		return nil, err
	}
	return lots, nil
}

// SumRemaining returns the ledger-side total for a tank: the sum of remaining
// quantities over all its lots.
func (s *Service) SumRemaining(ctx context.Context, tankID uuid.UUID) (decimal.Decimal, error) {
	return sumRemainingTx(s.db.WithContext(ctx), tankID)
}

func sumRemainingTx(tx *gorm.DB, tankID uuid.UUID) (decimal.Decimal, error) {
	var row struct {
		Total decimal.Decimal
	}
	err := tx.Model(&models.MrnLot{}).
		Select("COALESCE(SUM(remaining), 0) AS total").
		Where("tank_id = ?", tankID).
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, err
	}
	return row.Total, nil
}

// lotsForUpdate loads a tank's lots in allocation order inside a transaction.
// The tank row lock already serializes writers; loading the lots after taking
// it guarantees a consistent view.
func lotsForUpdate(tx *gorm.DB, tankID uuid.UUID, onlyWithRemaining bool) ([]models.MrnLot, error) {
	query := tx.Where("tank_id = ?", tankID)
	if onlyWithRemaining {
		query = query.Where("remaining > 0")
	}
	var lots []models.MrnLot
	err := query.Order("intake_at ASC, seq ASC").Find(&lots).Error
	return lots, err
}

func sumLotRemaining(lots []models.MrnLot) decimal.Decimal {
	total := decimal.Zero
	for _, lot := range lots {
		total = total.Add(lot.Remaining)
	}
	return total
}
