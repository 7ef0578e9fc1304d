// models/user.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Roles form a simple hierarchy: admin > supervisor > operator. Supervisors
// can issue override tokens and execute corrections; operators can only file
// intake and fueling movements.
const (
	RoleOperator   = "operator"
	RoleSupervisor = "supervisor"
	RoleAdmin      = "admin"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string    `gorm:"size:100;not null" json:"name"`
	Email        string    `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Phone        string    `gorm:"size:15;uniqueIndex;not null" json:"phone"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Role         string    `gorm:"size:20;not null;default:operator" json:"role"`
	// HomeLocationID pins field staff to the airport/depot they work at.
	HomeLocationID *uuid.UUID     `gorm:"type:uuid" json:"homeLocationId,omitempty"`
	HomeLocation   *Location      `gorm:"foreignKey:HomeLocationID" json:"homeLocation,omitempty"`
	IsActive       bool           `gorm:"default:true" json:"isActive"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return
}

func roleLevel(role string) int {
	switch role {
	case RoleAdmin:
		return 2
	case RoleSupervisor:
		return 1
	default:
		return 0
	}
}

// RoleAtLeast reports whether role grants the privileges of min (roles are
// strictly ordered, no permission matrix needed here). Unknown roles rank
// below operator.
func RoleAtLeast(role, min string) bool {
	return roleLevel(role) >= roleLevel(min)
}
