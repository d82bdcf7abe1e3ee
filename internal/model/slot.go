package model

import "time"

// Slot status values.  A slot is either free or holds exactly one vehicle.
const (
	SlotFree     = "FREE"
	SlotOccupied = "OCCUPIED"
)

// Slot is one numbered parking position inside a yard.  Numbers are
// assigned densely starting at 1 when the yard is created or grown.
// Slots are created and destroyed only by the capacity reconciler;
// their status changes only through vehicle assignment.
//
// Fields:
//  ID        – primary key identifier.
//  YardID    – yard to which this slot belongs.
//  Number    – position within the yard (1-based, unique per yard).
//  Status    – FREE or OCCUPIED.
//  VehicleID – occupying vehicle; set iff Status == OCCUPIED.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Slot struct {
	ID        uint64    // slots.id
	YardID    uint64    // slots.yard_id
	Number    int       // slots.number
	Status    string    // slots.status
	VehicleID *uint64   // slots.vehicle_id (nullable)
	CreatedAt time.Time // slots.created_at
	UpdatedAt time.Time // slots.updated_at
}
