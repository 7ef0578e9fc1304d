package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CompanyKind distinguishes who we fuel for from who delivers fuel to us.
type CompanyKind string

const (
	CompanyAirline  CompanyKind = "airline"
	CompanySupplier CompanyKind = "supplier"
	CompanyHandler  CompanyKind = "handler"
)

// Company is an airline customer, fuel supplier or ground handler.
type Company struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name         string         `gorm:"size:120;not null;uniqueIndex" json:"name"`
	Kind         CompanyKind    `gorm:"size:20;not null" json:"kind"`
	IcaoCode     *string        `gorm:"size:3" json:"icaoCode,omitempty"` // airlines only
	VatNumber    *string        `gorm:"size:30" json:"vatNumber,omitempty"`
	ContactName  string         `json:"contactName"`
	ContactPhone string         `json:"contactPhone"`
	ContactEmail string         `json:"contactEmail"`
	IsActive     bool           `gorm:"default:true" json:"isActive"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}
