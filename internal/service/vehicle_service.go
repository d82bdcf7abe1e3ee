package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/geosense/yard-service/internal/model"
	"github.com/geosense/yard-service/internal/repository"
)

// VehicleService binds and unbinds vehicles to slots.  The slot and
// vehicle sides of the relation always move together inside one
// transaction, under the slot's yard row lock, so an assignment can
// never race a capacity shrink on the same yard.
type VehicleService struct {
	db          *sql.DB
	yards       YardStore
	slots       SlotStore
	vehicles    VehicleStore
	allocations AllocationStore
}

// NewVehicleService wires the assigner over its stores.
func NewVehicleService(db *sql.DB, yards YardStore, slots SlotStore, vehicles VehicleStore, allocations AllocationStore) *VehicleService {
	return &VehicleService{db: db, yards: yards, slots: slots, vehicles: vehicles, allocations: allocations}
}

// CreateVehicleInput carries the fields of a new vehicle.  SlotID is
// optional; when present, the vehicle is assigned in the same
// transaction as the insert, so a rejected assignment leaves no
// vehicle row behind.
type CreateVehicleInput struct {
	Model      string
	Plate      *string
	Chassis    *string
	DefectNote *string
	SlotID     *uint64
}

// CreateVehicle inserts an (initially unparked) vehicle and optionally
// assigns it to a slot, committing both effects or neither.
func (s *VehicleService) CreateVehicle(ctx context.Context, in CreateVehicleInput) (*model.Vehicle, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	v := &model.Vehicle{
		Model:      in.Model,
		Plate:      in.Plate,
		Chassis:    in.Chassis,
		DefectNote: in.DefectNote,
	}
	if err := s.vehicles.CreateTx(ctx, tx, v); err != nil {
		return nil, err
	}
	if in.SlotID != nil {
		if _, err := s.assignTx(ctx, tx, v.ID, *in.SlotID); err != nil {
			return nil, err
		}
		v.SlotID = in.SlotID
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return v, nil
}

// GetVehicle returns one vehicle.
func (s *VehicleService) GetVehicle(ctx context.Context, id uint64) (*model.Vehicle, error) {
	return s.vehicles.GetByID(ctx, id)
}

// ListVehicles returns all vehicles.
func (s *VehicleService) ListVehicles(ctx context.Context) ([]model.Vehicle, error) {
	return s.vehicles.List(ctx)
}

// UpdateVehicleInput carries the editable vehicle fields.  The slot
// reference is deliberately absent: assignment goes through Assign and
// Release only.
type UpdateVehicleInput struct {
	Model      string
	Plate      *string
	Chassis    *string
	DefectNote *string
}

// UpdateVehicle persists the editable fields.
func (s *VehicleService) UpdateVehicle(ctx context.Context, id uint64, in UpdateVehicleInput) (*model.Vehicle, error) {
	v, err := s.vehicles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	v.Model = in.Model
	v.Plate = in.Plate
	v.Chassis = in.Chassis
	v.DefectNote = in.DefectNote
	if err := s.vehicles.Update(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// Placement describes where a vehicle ended up after an assign.
type Placement struct {
	Slot     model.Slot
	YardUnit string
}

// Assign parks a vehicle in a slot.  It fails with ErrSlotNotFree when
// the slot holds a different vehicle and with ErrVehicleAlreadyAssigned
// when the vehicle references a different slot; there is no implicit
// transfer.  Assigning a vehicle to the slot it already occupies is a
// no-op.
func (s *VehicleService) Assign(ctx context.Context, vehicleID, slotID uint64) (*Placement, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	p, err := s.assignTx(ctx, tx, vehicleID, slotID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return p, nil
}

// assignTx performs the guarded assignment inside the caller's
// transaction.  The slot is read once to learn its yard, then re-read
// after the yard lock is held.
func (s *VehicleService) assignTx(ctx context.Context, tx *sql.Tx, vehicleID, slotID uint64) (*Placement, error) {
	peek, err := s.slots.GetByIDTx(ctx, tx, slotID)
	if err != nil {
		return nil, err
	}

	// Yard lock first, matching the reconciler's lock order.
	yard, err := s.yards.LockTx(ctx, tx, peek.YardID)
	if err != nil {
		return nil, err
	}
	slot, err := s.slots.GetByIDTx(ctx, tx, slotID)
	if err != nil {
		return nil, err
	}
	vehicle, err := s.vehicles.GetByIDTx(ctx, tx, vehicleID)
	if err != nil {
		return nil, err
	}

	if slot.VehicleID != nil {
		if *slot.VehicleID == vehicleID {
			// already parked here
			return &Placement{Slot: *slot, YardUnit: yard.UnitName}, nil
		}
		return nil, ErrSlotNotFree
	}
	if vehicle.SlotID != nil && *vehicle.SlotID != slotID {
		return nil, ErrVehicleAlreadyAssigned
	}

	if err := s.slots.OccupyTx(ctx, tx, slotID, vehicleID); err != nil {
		return nil, err
	}
	if err := s.vehicles.SetSlotTx(ctx, tx, vehicleID, slotID); err != nil {
		return nil, err
	}
	slot.Status = model.SlotOccupied
	slot.VehicleID = &vehicleID
	return &Placement{Slot: *slot, YardUnit: yard.UnitName}, nil
}

// Release unparks a vehicle.  A vehicle without a slot is a no-op.
func (s *VehicleService) Release(ctx context.Context, vehicleID uint64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := s.releaseTx(ctx, tx, vehicleID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// releaseTx clears both sides of the slot↔vehicle relation inside the
// caller's transaction, taking the yard lock when a slot is held.  A
// slot reference pointing at a slot that no longer exists is treated
// as already released; only the vehicle side is cleared.
func (s *VehicleService) releaseTx(ctx context.Context, tx *sql.Tx, vehicleID uint64) error {
	vehicle, err := s.vehicles.GetByIDTx(ctx, tx, vehicleID)
	if err != nil {
		return err
	}
	if vehicle.SlotID == nil {
		return nil
	}
	slot, err := s.slots.GetByIDTx(ctx, tx, *vehicle.SlotID)
	if err != nil {
		if errors.Is(err, repository.ErrSlotNotFound) {
			return s.vehicles.ClearSlotTx(ctx, tx, vehicleID)
		}
		return err
	}
	if _, err := s.yards.LockTx(ctx, tx, slot.YardID); err != nil {
		return err
	}
	if err := s.slots.FreeTx(ctx, tx, slot.ID); err != nil {
		return err
	}
	return s.vehicles.ClearSlotTx(ctx, tx, vehicleID)
}

// DeleteVehicle releases the vehicle's slot, drops its allocation
// history and removes the vehicle row, all in one transaction.  Unlike
// users, vehicles are not dependency-guarded: their history goes with
// them.
func (s *VehicleService) DeleteVehicle(ctx context.Context, id uint64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := s.releaseTx(ctx, tx, id); err != nil {
		return err
	}
	if err := s.allocations.DeleteByVehicleTx(ctx, tx, id); err != nil {
		return err
	}
	if err := s.vehicles.DeleteTx(ctx, tx, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
