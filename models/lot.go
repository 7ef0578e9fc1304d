package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MrnLot is the tracked remaining quantity of fuel for one customs MRN inside
// one tank. Lots are never deleted, even at zero remaining, so that every
// historical allocation stays attributable. Synthetic lots (untracked intake,
// balancing corrections) carry a system-generated MRN and SystemGenerated=true.
type MrnLot struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TankID    uuid.UUID       `gorm:"type:uuid;index:idx_lots_tank_intake,priority:1;not null;uniqueIndex:idx_lots_tank_mrn" json:"tankId"`
	Tank      FuelTank        `gorm:"foreignKey:TankID" json:"-"`
	Mrn       string          `gorm:"size:32;not null;uniqueIndex:idx_lots_tank_mrn" json:"mrn"`
	Original  decimal.Decimal `gorm:"type:numeric(14,3);not null" json:"original"`
	Remaining decimal.Decimal `gorm:"type:numeric(14,3);not null" json:"remaining"`
	IntakeAt  time.Time       `gorm:"index:idx_lots_tank_intake,priority:2;not null" json:"intakeAt"`
	// Seq breaks ordering ties between lots sharing the same intake
	// timestamp. Allocation order must be reproducible for audits.
	Seq              int64      `gorm:"autoIncrement;index:idx_lots_tank_intake,priority:3" json:"seq"`
	OriginMovementID *uuid.UUID `gorm:"type:uuid;index" json:"originMovementId,omitempty"`
	SystemGenerated  bool       `gorm:"not null;default:false" json:"systemGenerated"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (MrnLot) TableName() string {
	return "mrn_lots"
}

// Exhausted reports whether the lot has no fuel left to allocate.
func (l *MrnLot) Exhausted() bool {
	return !l.Remaining.IsPositive()
}
