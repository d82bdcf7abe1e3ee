// Package queue defines message payloads exchanged over the message broker.
package queue

// AllocationRecordedEvent is published when a vehicle is handed to a
// mechanic.  It carries enough context for downstream consumers to log
// or notify without querying the primary database.
type AllocationRecordedEvent struct {
	AllocationID uint64 `json:"allocation_id"`
	VehicleID    uint64 `json:"vehicle_id"`
	VehicleModel string `json:"vehicle_model"`
	MechanicID   uint64 `json:"mechanic_id"`
	MechanicName string `json:"mechanic_name"`
	StartedAt    string `json:"started_at"`
}

// VehicleAssignedEvent is published when a vehicle is parked in a slot.
type VehicleAssignedEvent struct {
	VehicleID  uint64 `json:"vehicle_id"`
	SlotID     uint64 `json:"slot_id"`
	SlotNumber int    `json:"slot_number"`
	YardID     uint64 `json:"yard_id"`
	YardUnit   string `json:"yard_unit"`
	AssignedAt string `json:"assigned_at"`
}
