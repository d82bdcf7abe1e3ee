package model

import "time"

// Allocation is an append-only historical record linking a vehicle to
// the mechanic responsible for its repair and, once the work is closed,
// to the user who finalized it.  Rows are never updated except to set
// the finalizer, and never deleted except by the explicit dependency
// removal operations.
//
// Fields:
//  ID          – primary key identifier.
//  VehicleID   – vehicle under repair.
//  MechanicID  – responsible mechanic.
//  FinalizerID – user who closed the allocation (nil while open).
//  StartedAt   – when the vehicle was allocated.
//  FinishedAt  – when the allocation was finalized (nil while open).
type Allocation struct {
	ID          uint64     // allocations.id
	VehicleID   uint64     // allocations.vehicle_id
	MechanicID  uint64     // allocations.mechanic_id
	FinalizerID *uint64    // allocations.finalizer_id (nullable)
	StartedAt   time.Time  // allocations.started_at
	FinishedAt  *time.Time // allocations.finished_at (nullable)
}
