package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MovementKind tags the direction/nature of a fuel movement.
type MovementKind string

const (
	MovementIntake      MovementKind = "intake"
	MovementFuelingOut  MovementKind = "fueling_out"
	MovementTransferOut MovementKind = "transfer_out"
	MovementTransferIn  MovementKind = "transfer_in"
)

// FuelMovement is one fuel operation against a tank: an MRN intake, an
// aircraft fueling, or one leg of a tank-to-tank transfer. Outgoing movements
// carry their allocation breakdown as first-class rows (Allocations); the
// LegacyBreakdown JSON column only exists so historical rows exported from
// the old system can be imported and re-normalized.
type FuelMovement struct {
	ID       uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TankID   uuid.UUID       `gorm:"type:uuid;index;not null" json:"tankId"`
	Tank     FuelTank        `gorm:"foreignKey:TankID" json:"-"`
	Kind     MovementKind    `gorm:"size:20;index;not null" json:"kind"`
	Quantity decimal.Decimal `gorm:"type:numeric(14,3);not null" json:"quantity"`
	// Mrn is set on intake movements only.
	Mrn       *string    `gorm:"size:32" json:"mrn,omitempty"`
	VehicleID *uuid.UUID `gorm:"type:uuid;index" json:"vehicleId,omitempty"`
	CompanyID *uuid.UUID `gorm:"type:uuid;index" json:"companyId,omitempty"`
	// CounterpartTankID links the two legs of a tank-to-tank transfer.
	CounterpartTankID *uuid.UUID     `gorm:"type:uuid;index" json:"counterpartTankId,omitempty"`
	AircraftReg       *string        `json:"aircraftReg,omitempty"`
	OperatorID        uuid.UUID      `gorm:"type:uuid;index;not null" json:"operatorId"`
	OperatorName      string         `gorm:"not null" json:"operatorName"`
	MeterPhotos       pq.StringArray `gorm:"type:text[]" json:"meterPhotos,omitempty"`
	BillPhotos        pq.StringArray `gorm:"type:text[]" json:"billPhotos,omitempty"`
	Remarks           *string        `json:"remarks,omitempty"`
	Latitude          *float64       `json:"latitude,omitempty"`
	Longitude         *float64       `json:"longitude,omitempty"`
	LegacyBreakdown   datatypes.JSON `gorm:"column:legacy_breakdown" json:"-"`
	OccurredAt        JSONTime       `gorm:"not null" json:"occurredAt"`
	CreatedAt         time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt         time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`

	Allocations []MovementAllocation `gorm:"foreignKey:MovementID" json:"allocations,omitempty"`
}

// MovementAllocation is one (mrn, quantityDrawn) line of an allocation
// breakdown. Rows are immutable once the owning movement is finalized.
type MovementAllocation struct {
	ID         uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	MovementID uuid.UUID       `gorm:"type:uuid;index;not null" json:"movementId"`
	LotID      uuid.UUID       `gorm:"type:uuid;index;not null" json:"lotId"`
	Mrn        string          `gorm:"size:32;not null" json:"mrn"`
	Quantity   decimal.Decimal `gorm:"type:numeric(14,3);not null" json:"quantity"`
	// Position preserves the FIFO draw order inside the breakdown.
	Position  int       `gorm:"not null" json:"position"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// legacyBreakdownLine mirrors one entry of the old system's serialized
// breakdown blob: {"mrn": "...", "qty": "123.5"} with qty sometimes a JSON
// number and sometimes a string.
type legacyBreakdownLine struct {
	Mrn string          `json:"mrn"`
	Qty json.RawMessage `json:"qty"`
}

// ParseLegacyBreakdown decodes a serialized breakdown blob from the old
// system into ordered (mrn, quantity) pairs. It tolerates qty encoded either
// as a JSON number or as a quoted decimal string, which both occur in
// historical exports.
func ParseLegacyBreakdown(blob []byte) ([]MovementAllocation, error) {
	if len(blob) == 0 {
		return nil, nil
	}
	var lines []legacyBreakdownLine
	if err := json.Unmarshal(blob, &lines); err != nil {
		return nil, fmt.Errorf("legacy breakdown: %w", err)
	}
	out := make([]MovementAllocation, 0, len(lines))
	for i, line := range lines {
		if line.Mrn == "" {
			return nil, fmt.Errorf("legacy breakdown: line %d has no mrn", i)
		}
		raw := string(line.Qty)
		if len(raw) >= 2 && raw[0] == '"' && raw[len(raw)-1] == '"' {
			raw = raw[1 : len(raw)-1]
		}
		qty, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("legacy breakdown: line %d qty %q: %w", i, raw, err)
		}
		if !qty.IsPositive() {
			return nil, fmt.Errorf("legacy breakdown: line %d qty %s is not positive", i, qty)
		}
		out = append(out, MovementAllocation{
			Mrn:      line.Mrn,
			Quantity: qty,
			Position: i,
		})
	}
	return out, nil
}

// BreakdownTotal sums the allocation quantities of a movement. For a
// finalized outgoing movement this must equal Quantity exactly.
func BreakdownTotal(allocs []MovementAllocation) decimal.Decimal {
	total := decimal.Zero
	for _, a := range allocs {
		total = total.Add(a.Quantity)
	}
	return total
}
