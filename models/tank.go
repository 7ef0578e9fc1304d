package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// FuelTank is a fixed storage tank at a location. CurrentQuantity is the
// physical meter reading in liters; it is only ever mutated by intake,
// outgoing, transfer and correction operations, never by plain CRUD updates.
type FuelTank struct {
	ID              uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name            string          `gorm:"not null;uniqueIndex" json:"name"`
	LocationID      uuid.UUID       `gorm:"type:uuid;index;not null" json:"locationId"`
	Location        Location        `gorm:"foreignKey:LocationID" json:"location,omitempty"`
	FuelType        string          `gorm:"not null" json:"fuelType"`
	CapacityLiters  decimal.Decimal `gorm:"type:numeric(14,3);not null" json:"capacityLiters"`
	CurrentQuantity decimal.Decimal `gorm:"type:numeric(14,3);not null;default:0" json:"currentQuantity"`
	Remarks         *string         `json:"remarks,omitempty"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updatedAt"`
	DeletedAt       gorm.DeletedAt  `gorm:"index" json:"-"`
}

// OverCapacity reports whether the physical reading exceeds the rated
// capacity. Capacity is advisory: the engine reports violations but never
// clamps quantities.
func (t *FuelTank) OverCapacity() bool {
	return t.CurrentQuantity.GreaterThan(t.CapacityLiters)
}
