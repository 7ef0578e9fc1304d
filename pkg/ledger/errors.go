package ledger

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Validation and authorization failures that carry no amounts.
var (
	ErrNonPositiveQuantity  = errors.New("quantity must be positive")
	ErrOverrideRequired     = errors.New("correction requires an active override token")
	ErrTokenExpired         = errors.New("override token has expired")
	ErrTokenAlreadyConsumed = errors.New("override token has already been consumed")
	ErrTokenTankMismatch    = errors.New("override token does not match this tank and operation")
	ErrTankNotFound         = errors.New("fuel tank not found")
	ErrUnknownAction        = errors.New("unknown correction action")
	ErrUnsupportedKind      = errors.New("movement kind cannot be allocated")
)

// InvalidMrnError is returned when an MRN matches neither the customs format
// nor the synthetic sentinel pattern.
type InvalidMrnError struct {
	Mrn string
}

func (e *InvalidMrnError) Error() string {
	return fmt.Sprintf("invalid MRN format: %q", e.Mrn)
}

// InsufficientCoverageError signals ledger/physical drift: the tank's lots
// cannot cover the requested outgoing quantity. Uncovered is the remainder no
// lot could supply. The engine never silently allocates from a phantom lot;
// a human must choose a correction path.
type InsufficientCoverageError struct {
	TankID    uuid.UUID
	Requested decimal.Decimal
	Covered   decimal.Decimal
	Uncovered decimal.Decimal
}

func (e *InsufficientCoverageError) Error() string {
	return fmt.Sprintf("insufficient lot coverage for tank %s: requested %s, lots cover %s, uncovered %s",
		e.TankID, e.Requested, e.Covered, e.Uncovered)
}

// UnresolvableAdjustmentError is returned by the adjust-MRN correction when
// the lots cannot absorb the full delta without leaving some lot below zero
// or above its original quantity. Unabsorbed carries the leftover delta.
type UnresolvableAdjustmentError struct {
	TankID     uuid.UUID
	Delta      decimal.Decimal
	Unabsorbed decimal.Decimal
}

func (e *UnresolvableAdjustmentError) Error() string {
	return fmt.Sprintf("adjustment of %s liters on tank %s cannot be absorbed by the lots (%s left over)",
		e.Delta, e.TankID, e.Unabsorbed)
}

// NegativeBalancingError is returned when createBalancingMrn is requested
// while the physical-minus-ledger difference is not positive. A deficit
// cannot be balanced by adding a lot.
type NegativeBalancingError struct {
	TankID     uuid.UUID
	Difference decimal.Decimal
}

func (e *NegativeBalancingError) Error() string {
	return fmt.Sprintf("tank %s difference %s is not positive; a balancing lot cannot be created",
		e.TankID, e.Difference)
}
