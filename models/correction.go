package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// CorrectionAction is the closed set of supervised corrective actions. New
// kinds are a compile-time decision: the engine switches exhaustively over
// this type and rejects anything else.
type CorrectionAction string

const (
	ActionAdjustTank         CorrectionAction = "adjustTank"
	ActionAdjustMrn          CorrectionAction = "adjustMrn"
	ActionCreateBalancingMrn CorrectionAction = "createBalancingMrn"
)

// Valid reports whether the action is one of the known correction kinds.
func (a CorrectionAction) Valid() bool {
	switch a {
	case ActionAdjustTank, ActionAdjustMrn, ActionCreateBalancingMrn:
		return true
	}
	return false
}

// RequiredOverride maps the action to the override-token operation class
// that must be presented for it.
func (a CorrectionAction) RequiredOverride() OverrideOperation {
	switch a {
	case ActionAdjustTank:
		return OverrideAdjustTank
	case ActionAdjustMrn:
		return OverrideAdjustMrn
	case ActionCreateBalancingMrn:
		return OverrideCreateBalancingMrn
	}
	return ""
}

// CorrectionRecord is the append-only audit row written atomically with every
// successful correction. Before/After hold JSON snapshots of the tank reading
// and the affected lots' quantities. Records are never updated or deleted.
type CorrectionRecord struct {
	ID           uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TankID       uuid.UUID        `gorm:"type:uuid;index;not null" json:"tankId"`
	Action       CorrectionAction `gorm:"size:30;not null" json:"action"`
	OperatorID   uuid.UUID        `gorm:"type:uuid;index;not null" json:"operatorId"`
	OperatorName string           `gorm:"not null" json:"operatorName"`
	Notes        string           `json:"notes"`
	Before       datatypes.JSON   `gorm:"not null" json:"before"`
	After        datatypes.JSON   `gorm:"not null" json:"after"`
	TokenID      uuid.UUID        `gorm:"type:uuid;not null" json:"tokenId"`
	CreatedAt    time.Time        `gorm:"autoCreateTime" json:"createdAt"`
}
