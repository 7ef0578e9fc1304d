package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// VehicleKind: a refueller carries fuel to the aircraft; a hydrant dispenser
// pumps from the apron hydrant network; a bowser shuttles between tanks.
type VehicleKind string

const (
	VehicleRefueller VehicleKind = "refueller"
	VehicleDispenser VehicleKind = "dispenser"
	VehicleBowser    VehicleKind = "bowser"
)

// Vehicle is a fuel-servicing truck assigned to a location.
type Vehicle struct {
	ID             uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Registration   string          `gorm:"size:20;not null;uniqueIndex" json:"registration"`
	Kind           VehicleKind     `gorm:"size:20;not null" json:"kind"`
	HomeLocationID uuid.UUID       `gorm:"type:uuid;index;not null" json:"homeLocationId"`
	HomeLocation   Location        `gorm:"foreignKey:HomeLocationID" json:"homeLocation,omitempty"`
	CapacityLiters decimal.Decimal `gorm:"type:numeric(14,3)" json:"capacityLiters"`
	FuelType       string          `gorm:"not null" json:"fuelType"`
	IsActive       bool            `gorm:"default:true" json:"isActive"`
	Remarks        *string         `json:"remarks,omitempty"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updatedAt"`
	DeletedAt      gorm.DeletedAt  `gorm:"index" json:"-"`
}
