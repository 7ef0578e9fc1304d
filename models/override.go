package models

import (
	"time"

	"github.com/google/uuid"
)

// OverrideOperation scopes an override token to one class of guarded action.
type OverrideOperation string

const (
	OverrideAdjustTank         OverrideOperation = "adjust_tank"
	OverrideAdjustMrn          OverrideOperation = "adjust_mrn"
	OverrideCreateBalancingMrn OverrideOperation = "create_balancing_mrn"
)

// OverrideToken is a short-lived, single-use authorization allowing one
// correction action on one tank to proceed despite an unresolved consistency
// check. Consumption happens inside the same transaction as the guarded
// action, so a token can never authorize two operations.
type OverrideToken struct {
	ID         uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Token      string            `gorm:"size:64;not null;uniqueIndex" json:"token"`
	TankID     uuid.UUID         `gorm:"type:uuid;index;not null" json:"tankId"`
	Operation  OverrideOperation `gorm:"size:30;not null" json:"operation"`
	IssuedByID uuid.UUID         `gorm:"type:uuid;not null" json:"issuedById"`
	IssuedBy   string            `gorm:"not null" json:"issuedBy"`
	Notes      string            `json:"notes"`
	IssuedAt   time.Time         `gorm:"not null" json:"issuedAt"`
	ExpiresAt  time.Time         `gorm:"index;not null" json:"expiresAt"`
	Consumed   bool              `gorm:"not null;default:false" json:"consumed"`
	ConsumedAt *time.Time        `json:"consumedAt,omitempty"`
	CreatedAt  time.Time         `gorm:"autoCreateTime" json:"createdAt"`
}

// Expired reports whether the token's validity window has passed.
func (t *OverrideToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
