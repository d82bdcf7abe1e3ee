package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/geosense/yard-service/internal/model"
)

// VehicleRepo provides CRUD operations for vehicles.  The slot side of
// the slot↔vehicle relation lives in SlotRepo; methods here only touch
// vehicles.slot_id, and the service layer keeps the two in agreement
// inside one transaction.
type VehicleRepo struct {
	db *sql.DB
}

// NewVehicleRepo constructs a VehicleRepo with the given DB handle.
func NewVehicleRepo(db *sql.DB) *VehicleRepo {
	return &VehicleRepo{db: db}
}

const vehicleColumns = `id, model, plate, chassis, defect_note, slot_id, created_at, updated_at`

func scanVehicle(row interface{ Scan(...any) error }, v *model.Vehicle) error {
	return row.Scan(&v.ID, &v.Model, &v.Plate, &v.Chassis, &v.DefectNote, &v.SlotID, &v.CreatedAt, &v.UpdatedAt)
}

// CreateTx inserts a vehicle record inside the caller's transaction.
// On success the vehicle's ID and timestamps are populated.  The slot
// reference is never set here; assignment is a separate guarded step
// sharing the same transaction when requested at creation.
func (r *VehicleRepo) CreateTx(ctx context.Context, tx *sql.Tx, v *model.Vehicle) error {
	const q = `INSERT INTO vehicles (model, plate, chassis, defect_note) VALUES (?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, v.Model, v.Plate, v.Chassis, v.DefectNote)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	v.ID = uint64(id)
	const sel = `SELECT created_at, updated_at FROM vehicles WHERE id = ?`
	return tx.QueryRowContext(ctx, sel, v.ID).Scan(&v.CreatedAt, &v.UpdatedAt)
}

// GetByID retrieves a vehicle by its id.
func (r *VehicleRepo) GetByID(ctx context.Context, id uint64) (*model.Vehicle, error) {
	const q = `SELECT ` + vehicleColumns + ` FROM vehicles WHERE id = ?`
	var v model.Vehicle
	if err := scanVehicle(r.db.QueryRowContext(ctx, q, id), &v); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrVehicleNotFound
		}
		return nil, err
	}
	return &v, nil
}

// GetByIDTx re-reads a vehicle inside a transaction.
func (r *VehicleRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Vehicle, error) {
	const q = `SELECT ` + vehicleColumns + ` FROM vehicles WHERE id = ?`
	var v model.Vehicle
	if err := scanVehicle(tx.QueryRowContext(ctx, q, id), &v); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrVehicleNotFound
		}
		return nil, err
	}
	return &v, nil
}

// List returns all vehicles ordered by id.
func (r *VehicleRepo) List(ctx context.Context) ([]model.Vehicle, error) {
	const q = `SELECT ` + vehicleColumns + ` FROM vehicles ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Vehicle
	for rows.Next() {
		var v model.Vehicle
		if err := scanVehicle(rows, &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update persists the editable fields of a vehicle.  The slot reference
// is excluded on purpose; only SetSlotTx/ClearSlotTx touch it.
func (r *VehicleRepo) Update(ctx context.Context, v *model.Vehicle) error {
	const q = `UPDATE vehicles
	           SET model = ?, plate = ?, chassis = ?, defect_note = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?`
	_, err := r.db.ExecContext(ctx, q, v.Model, v.Plate, v.Chassis, v.DefectNote, v.ID)
	return err
}

// SetSlotTx points the vehicle at a slot.
func (r *VehicleRepo) SetSlotTx(ctx context.Context, tx *sql.Tx, vehicleID, slotID uint64) error {
	const q = `UPDATE vehicles SET slot_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	res, err := tx.ExecContext(ctx, q, slotID, vehicleID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrVehicleNotFound
	}
	return nil
}

// ClearSlotTx detaches the vehicle from its slot.
func (r *VehicleRepo) ClearSlotTx(ctx context.Context, tx *sql.Tx, vehicleID uint64) error {
	const q = `UPDATE vehicles SET slot_id = NULL, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	res, err := tx.ExecContext(ctx, q, vehicleID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrVehicleNotFound
	}
	return nil
}

// ClearSlotByYardTx detaches every vehicle parked in the given yard.
// Used by the forced yard deletion path before the slots are dropped.
func (r *VehicleRepo) ClearSlotByYardTx(ctx context.Context, tx *sql.Tx, yardID uint64) error {
	const q = `UPDATE vehicles v
	           JOIN slots s ON s.id = v.slot_id
	           SET v.slot_id = NULL, v.updated_at = CURRENT_TIMESTAMP
	           WHERE s.yard_id = ?`
	_, err := tx.ExecContext(ctx, q, yardID)
	return err
}

// DeleteTx removes a vehicle row.
func (r *VehicleRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	const q = `DELETE FROM vehicles WHERE id = ?`
	res, err := tx.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrVehicleNotFound
	}
	return nil
}
