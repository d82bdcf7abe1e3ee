package service

import (
	"context"
	"time"

	"github.com/geosense/yard-service/internal/model"
)

// AllocationService appends to and closes the allocation history.  It
// never deletes; removal happens only through the dependency paths on
// UserService and VehicleService.
type AllocationService struct {
	allocations AllocationStore
	vehicles    VehicleStore
	users       UserStore
}

// NewAllocationService wires the history store over its stores.
func NewAllocationService(allocations AllocationStore, vehicles VehicleStore, users UserStore) *AllocationService {
	return &AllocationService{allocations: allocations, vehicles: vehicles, users: users}
}

// OpenedAllocation is a freshly opened allocation together with the
// display fields of the two sides, for event payloads and responses.
type OpenedAllocation struct {
	model.Allocation
	VehicleModel string
	MechanicName string
}

// Open records that a vehicle was handed to a mechanic.  Both sides
// must exist; the record starts open (no finalizer).
func (s *AllocationService) Open(ctx context.Context, vehicleID, mechanicID uint64) (*OpenedAllocation, error) {
	v, err := s.vehicles.GetByID(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	m, err := s.users.GetByID(ctx, mechanicID)
	if err != nil {
		return nil, err
	}
	a := &model.Allocation{
		VehicleID:  vehicleID,
		MechanicID: mechanicID,
		StartedAt:  time.Now().UTC(),
	}
	if err := s.allocations.Create(ctx, a); err != nil {
		return nil, err
	}
	return &OpenedAllocation{Allocation: *a, VehicleModel: v.Model, MechanicName: m.Name}, nil
}

// Finalize closes an open allocation with the finalizing user and
// timestamp.  Closing an already-closed or missing allocation fails
// with ErrAllocationNotFound.
func (s *AllocationService) Finalize(ctx context.Context, id, finalizerID uint64) (*model.Allocation, error) {
	if _, err := s.users.GetByID(ctx, finalizerID); err != nil {
		return nil, err
	}
	if err := s.allocations.Finalize(ctx, id, finalizerID, time.Now().UTC()); err != nil {
		return nil, err
	}
	return s.allocations.GetByID(ctx, id)
}

// Get returns one allocation.
func (s *AllocationService) Get(ctx context.Context, id uint64) (*model.Allocation, error) {
	return s.allocations.GetByID(ctx, id)
}

// List returns allocations newest first, optionally scoped to a vehicle.
func (s *AllocationService) List(ctx context.Context, vehicleID *uint64) ([]model.Allocation, error) {
	if vehicleID != nil {
		if _, err := s.vehicles.GetByID(ctx, *vehicleID); err != nil {
			return nil, err
		}
	}
	return s.allocations.List(ctx, vehicleID)
}
