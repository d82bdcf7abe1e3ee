// Package service implements the capacity reconciliation, occupancy
// assignment and dependency guard logic on top of the repository layer.
// Business-rule rejections are reported as the typed errors below and
// are never retried; anything else bubbling out of a service method is
// a storage fault and leaves the described invariants intact because
// every multi-step flow runs inside a single transaction.
package service

import (
	"errors"
	"fmt"

	"github.com/geosense/yard-service/internal/validation"
)

// ErrInvalidCapacity rejects a negative requested capacity.
var ErrInvalidCapacity = errors.New("capacity must be zero or greater")

// ErrSlotNotFree rejects assigning a vehicle to a slot that already
// holds a different vehicle.
var ErrSlotNotFree = errors.New("slot is occupied by another vehicle")

// ErrVehicleAlreadyAssigned rejects assigning a vehicle that still
// references a different slot; callers must release it first.
var ErrVehicleAlreadyAssigned = errors.New("vehicle is already assigned to a slot")

// CapacityBelowOccupancyError rejects shrinking a yard below the number
// of slots physically in use.  It carries both figures so the caller
// can phrase the conflict precisely.
type CapacityBelowOccupancyError struct {
	Requested int
	Occupied  int
}

func (e *CapacityBelowOccupancyError) Error() string {
	return fmt.Sprintf("cannot reduce capacity to %d: %d slots are occupied", e.Requested, e.Occupied)
}

// YardOccupiedError blocks deleting a yard whose slots still hold
// vehicles.  The forced deletion path releases them first.
type YardOccupiedError struct {
	Occupied int
}

func (e *YardOccupiedError) Error() string {
	return fmt.Sprintf("yard still has %d occupied slots", e.Occupied)
}

// UserDependenciesError blocks deleting a user referenced by allocation
// history.  The two counts are kept separate because the roles carry
// different meanings for the caller's message.
type UserDependenciesError struct {
	MechanicCount  int64
	FinalizerCount int64
}

func (e *UserDependenciesError) Error() string {
	return fmt.Sprintf("user has %d allocations as mechanic and %d as finalizer", e.MechanicCount, e.FinalizerCount)
}

// ValidationError carries the structured field errors returned by the
// external credential validator when it rejects a register or update.
// The oracle returns these already structured; nothing in this package
// inspects message text.
type ValidationError struct {
	Errors []validation.FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "validation rejected"
	}
	return fmt.Sprintf("validation rejected: %s: %s", e.Errors[0].Field, e.Errors[0].Message)
}
