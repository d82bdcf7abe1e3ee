package model

import "time"

// Yard represents a physical parking yard ("pátio") with a declared
// capacity.  The capacity is kept in lockstep with the number of slot
// rows belonging to the yard: every successful create or update leaves
// count(slots) == Capacity.
//
// Fields:
//  ID        – primary key identifier.
//  Location  – city/region of the yard.
//  Address   – detailed street address.
//  UnitName  – human readable unit label (unique per deployment).
//  Capacity  – declared number of slots (>= 0).
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Yard struct {
	ID        uint64    // yards.id
	Location  string    // yards.location
	Address   string    // yards.address
	UnitName  string    // yards.unit_name
	Capacity  int       // yards.capacity
	CreatedAt time.Time // yards.created_at
	UpdatedAt time.Time // yards.updated_at
}
