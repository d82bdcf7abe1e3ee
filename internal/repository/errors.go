// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// services and handlers to distinguish between different failure
// scenarios without inspecting SQL driver errors directly.
package repository

import "errors"

// ErrYardNotFound is returned when a yard lookup yields no rows.
var ErrYardNotFound = errors.New("yard not found")

// ErrSlotNotFound is returned when a slot lookup yields no rows.
var ErrSlotNotFound = errors.New("slot not found")

// ErrVehicleNotFound is returned when a vehicle lookup yields no rows.
var ErrVehicleNotFound = errors.New("vehicle not found")

// ErrUserNotFound is returned when a user lookup yields no rows.
var ErrUserNotFound = errors.New("user not found")

// ErrAllocationNotFound is returned when an allocation lookup yields no rows.
var ErrAllocationNotFound = errors.New("allocation not found")

// ErrEmailExists signals a duplicate-email insert on the users table.
var ErrEmailExists = errors.New("email already exists")
