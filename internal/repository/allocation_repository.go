package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/geosense/yard-service/internal/model"
)

// AllocationRepo persists the append-only allocation history.  Rows are
// created when a vehicle is handed to a mechanic, updated exactly once
// on finalization, and removed only by the explicit dependency removal
// paths (per-user force delete, vehicle deletion).
type AllocationRepo struct {
	db *sql.DB
}

// NewAllocationRepo returns an AllocationRepo bound to the given database.
func NewAllocationRepo(db *sql.DB) *AllocationRepo { return &AllocationRepo{db: db} }

// Create inserts an open allocation for a vehicle and mechanic.
func (r *AllocationRepo) Create(ctx context.Context, a *model.Allocation) error {
	const q = `INSERT INTO allocations (vehicle_id, mechanic_id, started_at) VALUES (?, ?, ?)`
	if a.StartedAt.IsZero() {
		a.StartedAt = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx, q, a.VehicleID, a.MechanicID, a.StartedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	return nil
}

// GetByID retrieves one allocation.
func (r *AllocationRepo) GetByID(ctx context.Context, id uint64) (*model.Allocation, error) {
	const q = `SELECT id, vehicle_id, mechanic_id, finalizer_id, started_at, finished_at
	           FROM allocations WHERE id = ?`
	var a model.Allocation
	err := r.db.QueryRowContext(ctx, q, id).
		Scan(&a.ID, &a.VehicleID, &a.MechanicID, &a.FinalizerID, &a.StartedAt, &a.FinishedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAllocationNotFound
		}
		return nil, err
	}
	return &a, nil
}

// Finalize stamps the closing user and time on an open allocation.
// Returns ErrAllocationNotFound when the row is absent or already closed.
func (r *AllocationRepo) Finalize(ctx context.Context, id, finalizerID uint64, finishedAt time.Time) error {
	const q = `UPDATE allocations SET finalizer_id = ?, finished_at = ?
	           WHERE id = ? AND finished_at IS NULL`
	res, err := r.db.ExecContext(ctx, q, finalizerID, finishedAt, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAllocationNotFound
	}
	return nil
}

// List returns allocations newest first, optionally filtered by vehicle.
func (r *AllocationRepo) List(ctx context.Context, vehicleID *uint64) ([]model.Allocation, error) {
	q := `SELECT id, vehicle_id, mechanic_id, finalizer_id, started_at, finished_at
	      FROM allocations`
	var args []interface{}
	if vehicleID != nil {
		q += ` WHERE vehicle_id = ?`
		args = append(args, *vehicleID)
	}
	q += ` ORDER BY started_at DESC`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Allocation
	for rows.Next() {
		var a model.Allocation
		if err := rows.Scan(&a.ID, &a.VehicleID, &a.MechanicID, &a.FinalizerID, &a.StartedAt, &a.FinishedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// CountByMechanicTx counts allocations where the user is the
// responsible mechanic.  Runs in the caller's transaction so the count
// and the subsequent delete decision cannot be interleaved.
func (r *AllocationRepo) CountByMechanicTx(ctx context.Context, tx *sql.Tx, userID uint64) (int64, error) {
	const q = `SELECT COUNT(*) FROM allocations WHERE mechanic_id = ?`
	var n int64
	err := tx.QueryRowContext(ctx, q, userID).Scan(&n)
	return n, err
}

// CountByFinalizerTx counts allocations where the user is the finalizer.
func (r *AllocationRepo) CountByFinalizerTx(ctx context.Context, tx *sql.Tx, userID uint64) (int64, error) {
	const q = `SELECT COUNT(*) FROM allocations WHERE finalizer_id = ?`
	var n int64
	err := tx.QueryRowContext(ctx, q, userID).Scan(&n)
	return n, err
}

// DeleteByUserTx removes every allocation referencing the user in
// either role and reports how many rows went away.
func (r *AllocationRepo) DeleteByUserTx(ctx context.Context, tx *sql.Tx, userID uint64) (int64, error) {
	const q = `DELETE FROM allocations WHERE mechanic_id = ? OR finalizer_id = ?`
	res, err := tx.ExecContext(ctx, q, userID, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteByVehicleTx removes the history of a vehicle.  Vehicle deletion
// is unconditional once the slot is released, so this has no guard.
func (r *AllocationRepo) DeleteByVehicleTx(ctx context.Context, tx *sql.Tx, vehicleID uint64) error {
	const q = `DELETE FROM allocations WHERE vehicle_id = ?`
	_, err := tx.ExecContext(ctx, q, vehicleID)
	return err
}
