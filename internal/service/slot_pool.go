package service

import (
	"context"
	"database/sql"

	"github.com/geosense/yard-service/internal/model"
)

// SlotPool owns the slot rows of a yard: dense numbering from 1, batch
// creation, and removal that never touches an occupied slot.  All
// mutations run in the caller's transaction, under the yard row lock,
// so the yard never observes a partially resized pool.
type SlotPool struct {
	slots SlotStore
}

// NewSlotPool constructs a SlotPool over the given slot store.
func NewSlotPool(slots SlotStore) *SlotPool {
	return &SlotPool{slots: slots}
}

// resizePlan describes the slot mutations needed to reach a requested
// capacity.  Exactly one of the two lists is non-empty (or both are
// empty for a no-op).
type resizePlan struct {
	addNumbers []int    // new slot numbers, contiguous after the current max
	removeIDs  []uint64 // highest-numbered FREE slots, surplus many
}

// planResize computes the mutation needed to take the given slot set to
// the requested capacity.  Growing appends after the current maximum
// number so existing slots and their occupancy are untouched.  Shrinking
// removes the highest-numbered free slots first; it fails when the
// requested capacity is below the occupied count, in which case no plan
// is produced.  Slots must be ordered by number ascending.
func planResize(slots []model.Slot, requested int) (resizePlan, error) {
	if requested < 0 {
		return resizePlan{}, ErrInvalidCapacity
	}
	current := len(slots)
	switch {
	case requested == current:
		return resizePlan{}, nil
	case requested > current:
		maxNumber := 0
		if current > 0 {
			maxNumber = slots[current-1].Number
		}
		add := make([]int, 0, requested-current)
		for n := maxNumber + 1; len(add) < requested-current; n++ {
			add = append(add, n)
		}
		return resizePlan{addNumbers: add}, nil
	default:
		occupied := 0
		for _, s := range slots {
			if s.Status == model.SlotOccupied {
				occupied++
			}
		}
		if requested < occupied {
			return resizePlan{}, &CapacityBelowOccupancyError{Requested: requested, Occupied: occupied}
		}
		surplus := current - requested
		remove := make([]uint64, 0, surplus)
		for i := current - 1; i >= 0 && len(remove) < surplus; i-- {
			if slots[i].Status == model.SlotFree {
				remove = append(remove, slots[i].ID)
			}
		}
		return resizePlan{removeIDs: remove}, nil
	}
}

// Load returns the yard's slots ordered by number, read inside the
// caller's transaction.
func (p *SlotPool) Load(ctx context.Context, tx *sql.Tx, yardID uint64) ([]model.Slot, error) {
	return p.slots.ListByYardTx(ctx, tx, yardID)
}

// Apply executes a resize plan as a single logical batch.
func (p *SlotPool) Apply(ctx context.Context, tx *sql.Tx, yardID uint64, plan resizePlan) error {
	if len(plan.addNumbers) > 0 {
		return p.slots.CreateBulkTx(ctx, tx, yardID, plan.addNumbers)
	}
	if len(plan.removeIDs) > 0 {
		return p.slots.DeleteByIDsTx(ctx, tx, plan.removeIDs)
	}
	return nil
}

// countOccupied reports how many of the given slots hold a vehicle.
func countOccupied(slots []model.Slot) int {
	n := 0
	for _, s := range slots {
		if s.Status == model.SlotOccupied {
			n++
		}
	}
	return n
}
