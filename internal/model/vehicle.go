package model

import "time"

// Vehicle is a motorcycle tracked by the system.  A vehicle may sit in
// at most one slot; the slot side of the relation mirrors this via
// Slot.VehicleID and the two must always agree.  Plate and chassis are
// optional because vehicles arrive without papers more often than not.
//
// Fields:
//  ID         – primary key identifier.
//  Model      – vehicle model name.
//  Plate      – license plate (nullable).
//  Chassis    – chassis number (nullable).
//  DefectNote – noted defect description (nullable).
//  SlotID     – current slot, nil when unparked.
//  CreatedAt  – creation timestamp.
//  UpdatedAt  – last update timestamp.
type Vehicle struct {
	ID         uint64    // vehicles.id
	Model      string    // vehicles.model
	Plate      *string   // vehicles.plate (nullable)
	Chassis    *string   // vehicles.chassis (nullable)
	DefectNote *string   // vehicles.defect_note (nullable)
	SlotID     *uint64   // vehicles.slot_id (nullable)
	CreatedAt  time.Time // vehicles.created_at
	UpdatedAt  time.Time // vehicles.updated_at
}
