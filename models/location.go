package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Location is an airport or fuel depot where tanks and vehicles are based.
// Geofence, when set, is a JSON polygon of the apron/depot boundary
// (validated by utils.ValidateGeofence on create/update).
type Location struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string         `gorm:"size:120;not null" json:"name"`
	IcaoCode  *string        `gorm:"size:4;uniqueIndex" json:"icaoCode,omitempty"`
	Address   string         `json:"address"`
	Latitude  float64        `json:"latitude"`
	Longitude float64        `json:"longitude"`
	Geofence  *string        `gorm:"type:text" json:"geofence,omitempty"`
	IsActive  bool           `gorm:"default:true" json:"isActive"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
