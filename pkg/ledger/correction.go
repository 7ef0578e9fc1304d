package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"aeroserv.in/fuelops/models"
)

// CorrectionInput is one supervised corrective action against a tank. Token
// must reference an active, unexpired override token issued for this tank and
// action class.
type CorrectionInput struct {
	TankID   uuid.UUID
	Action   models.CorrectionAction
	Token    string
	Operator Operator
	Notes    string
}

// Correct executes one correction action. The quantity mutation, the token
// consumption and the audit write are one atomic unit; any failure rolls the
// whole action back.
func (s *Service) Correct(ctx context.Context, in CorrectionInput) (*models.CorrectionRecord, error) {
	if !in.Action.Valid() {
		return nil, ErrUnknownAction
	}

	var record models.CorrectionRecord
	err := s.inTx(ctx, func(tx *gorm.DB) error {
		tank, err := lockTank(tx, in.TankID)
		if err != nil {
			return err
		}

		token, err := s.consumeToken(tx, in.Token, tank.ID, in.Action.RequiredOverride())
		if err != nil {
			return err
		}

		lots, err := lotsForUpdate(tx, tank.ID, false)
		if err != nil {
			return err
		}
		before, err := snapshotJSON(tank, lots)
		if err != nil {
			return err
		}

		ledgerSum := sumLotRemaining(lots)
		diff := tank.CurrentQuantity.Sub(ledgerSum)

		switch in.Action {
		case models.ActionAdjustTank:
			// The ledger is trusted; the physical reading is believed wrong.
			if err := tx.Model(tank).Update("current_quantity", ledgerSum).Error; err != nil {
				return err
			}
			tank.CurrentQuantity = ledgerSum

		case models.ActionAdjustMrn:
			// The physical reading is trusted; fold the delta into the lots,
			// most recent first.
			changed, leftover := redistributeDelta(lots, diff)
			if !leftover.IsZero() {
				return &UnresolvableAdjustmentError{
					TankID:     tank.ID,
					Delta:      diff,
					Unabsorbed: leftover,
				}
			}
			for _, lot := range changed {
				err := tx.Model(&models.MrnLot{}).
					Where("id = ?", lot.ID).
					Update("remaining", lot.Remaining).Error
				if err != nil {
					return err
				}
			}

		case models.ActionCreateBalancingMrn:
			// Physical surplus with no traceable MRN origin: append a
			// synthetic lot covering the difference.
			if !diff.IsPositive() {
				return &NegativeBalancingError{TankID: tank.ID, Difference: diff}
			}
			lot := models.MrnLot{
				TankID:          tank.ID,
				Mrn:             NewBalancingMrn(),
				Original:        diff,
				Remaining:       diff,
				IntakeAt:        s.now(),
				SystemGenerated: true,
			}
			if err := tx.Create(&lot).Error; err != nil {
				return err
			}
			lots = append(lots, lot)
		}

		after, err := snapshotJSON(tank, refreshedLots(tx, tank.ID, lots))
		if err != nil {
			return err
		}

		record = models.CorrectionRecord{
			TankID:       tank.ID,
			Action:       in.Action,
			OperatorID:   in.Operator.ID,
			OperatorName: in.Operator.Name,
			Notes:        in.Notes,
			Before:       before,
			After:        after,
			TokenID:      token.ID,
		}
		return tx.Create(&record).Error
	})
	if err != nil {
		return nil, err
	}

	s.invalidateConsistency(ctx, in.TankID)
	s.log.WithFields(logrus.Fields{
		"tank_id":  in.TankID,
		"action":   in.Action,
		"operator": in.Operator.Name,
	}).Info("ledger: correction applied")
	return &record, nil
}

// consumeToken validates and atomically consumes the override token guarding
// a correction. The row is locked so the same token can never authorize two
// operations.
func (s *Service) consumeToken(tx *gorm.DB, tokenStr string, tankID uuid.UUID, op models.OverrideOperation) (*models.OverrideToken, error) {
	if tokenStr == "" {
		return nil, ErrOverrideRequired
	}
	var token models.OverrideToken
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("token = ?", tokenStr).
		First(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOverrideRequired
	}
	if err != nil {
		return nil, err
	}
	if token.Consumed {
		return nil, ErrTokenAlreadyConsumed
	}
	if token.Expired(s.now()) {
		return nil, ErrTokenExpired
	}
	if token.TankID != tankID || token.Operation != op {
		return nil, ErrTokenTankMismatch
	}

	now := s.now()
	err = tx.Model(&token).Updates(map[string]interface{}{
		"consumed":    true,
		"consumed_at": now,
	}).Error
	if err != nil {
		return nil, err
	}
	return &token, nil
}

// redistributeDelta folds a signed physical-minus-ledger delta into the lots,
// most recently intaken first, clamping every lot's remaining to
// [0, original]. Leftover is whatever no lot could absorb. The input slice is
// in ledger order (oldest first) and is not mutated; changed copies are
// returned.
func redistributeDelta(lots []models.MrnLot, delta decimal.Decimal) (changed []models.MrnLot, leftover decimal.Decimal) {
	leftover = delta
	for i := len(lots) - 1; i >= 0 && !leftover.IsZero(); i-- {
		lot := lots[i]
		var absorb decimal.Decimal
		if leftover.IsNegative() {
			// Deficit: draw down, never below zero.
			absorb = decimal.Max(leftover, lot.Remaining.Neg())
		} else {
			// Surplus: top up, never above original.
			absorb = decimal.Min(leftover, lot.Original.Sub(lot.Remaining))
		}
		if absorb.IsZero() {
			continue
		}
		lot.Remaining = lot.Remaining.Add(absorb)
		leftover = leftover.Sub(absorb)
		changed = append(changed, lot)
	}
	return changed, leftover
}

// refreshedLots re-reads lots after an adjust-MRN so the audit "after"
// snapshot shows committed values; falls back to the in-memory view if the
// re-read fails inside an already-doomed transaction.
func refreshedLots(tx *gorm.DB, tankID uuid.UUID, fallback []models.MrnLot) []models.MrnLot {
	lots, err := lotsForUpdate(tx, tankID, false)
	if err != nil {
		return fallback
	}
	return lots
}

// IssueOverride creates a short-lived, single-use override token for one
// correction class on one tank. Supervisors request it explicitly; the
// reason lands in the audit trail via Notes.
func (s *Service) IssueOverride(ctx context.Context, tankID uuid.UUID, op models.OverrideOperation, operator Operator, notes string) (*models.OverrideToken, error) {
	switch op {
	case models.OverrideAdjustTank, models.OverrideAdjustMrn, models.OverrideCreateBalancingMrn:
	default:
		return nil, ErrUnknownAction
	}

	var tank models.FuelTank
	err := s.db.WithContext(ctx).Where("id = ?", tankID).First(&tank).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTankNotFound
	}
	if err != nil {
		return nil, err
	}

	now := s.now()
	token := models.OverrideToken{
		Token:      uuid.NewString(),
		TankID:     tankID,
		Operation:  op,
		IssuedByID: operator.ID,
		IssuedBy:   operator.Name,
		Notes:      notes,
		IssuedAt:   now,
		ExpiresAt:  now.Add(OverrideTTL),
	}
	if err := s.db.WithContext(ctx).Create(&token).Error; err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"tank_id":   tankID,
		"operation": op,
		"issued_by": operator.Name,
		"expires":   token.ExpiresAt.Format(time.RFC3339),
	}).Info("ledger: override token issued")
	return &token, nil
}
