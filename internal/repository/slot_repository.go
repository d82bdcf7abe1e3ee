package repository // repository defines data access for slots

import (
	"context"      // context allows query cancellation and timeouts
	"database/sql" // sql provides DB primitives
	"errors"       // errors for sentinel comparisons
	"strings"      // strings builds IN (...) placeholder lists

	"github.com/geosense/yard-service/internal/model"
)

// SlotRepo provides methods to work with slots in the database.  Slot
// rows are created and removed in batches by the capacity reconciler
// and have their status flipped by the occupancy assigner; both kinds
// of mutation run under the owning yard's row lock, which is why the
// write methods all take an explicit transaction.
type SlotRepo struct {
	db *sql.DB
}

// NewSlotRepo constructs a SlotRepo with the given DB handle.
func NewSlotRepo(db *sql.DB) *SlotRepo {
	return &SlotRepo{db: db}
}

const slotColumns = `id, yard_id, number, status, vehicle_id, created_at, updated_at`

func scanSlot(row interface{ Scan(...any) error }, s *model.Slot) error {
	return row.Scan(&s.ID, &s.YardID, &s.Number, &s.Status, &s.VehicleID, &s.CreatedAt, &s.UpdatedAt)
}

// ListByYard retrieves all slots of a yard ordered by number.
func (r *SlotRepo) ListByYard(ctx context.Context, yardID uint64) ([]model.Slot, error) {
	const q = `SELECT ` + slotColumns + ` FROM slots WHERE yard_id = ? ORDER BY number`
	return r.queryByYard(ctx, r.db.QueryContext, q, yardID)
}

// ListByYardTx is ListByYard inside a transaction, used after the yard
// row lock has been taken.
func (r *SlotRepo) ListByYardTx(ctx context.Context, tx *sql.Tx, yardID uint64) ([]model.Slot, error) {
	const q = `SELECT ` + slotColumns + ` FROM slots WHERE yard_id = ? ORDER BY number`
	return r.queryByYard(ctx, tx.QueryContext, q, yardID)
}

type queryFunc func(ctx context.Context, query string, args ...any) (*sql.Rows, error)

func (r *SlotRepo) queryByYard(ctx context.Context, query queryFunc, q string, yardID uint64) ([]model.Slot, error) {
	rows, err := query(ctx, q, yardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Slot
	for rows.Next() {
		var s model.Slot
		if err := scanSlot(rows, &s); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// GetByIDTx reads a slot inside a transaction.  Callers lock the owning
// yard before acting on the state seen here.
func (r *SlotRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Slot, error) {
	const q = `SELECT ` + slotColumns + ` FROM slots WHERE id = ?`
	var s model.Slot
	if err := scanSlot(tx.QueryRowContext(ctx, q, id), &s); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}
	return &s, nil
}

// CreateBulkTx inserts multiple FREE slots in a single statement.
func (r *SlotRepo) CreateBulkTx(ctx context.Context, tx *sql.Tx, yardID uint64, numbers []int) error {
	if len(numbers) == 0 {
		return nil
	}
	query := `INSERT INTO slots (yard_id, number, status) VALUES `
	args := make([]interface{}, 0, len(numbers)*3)
	for i, n := range numbers {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?)"
		args = append(args, yardID, n, model.SlotFree)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// DeleteByIDsTx removes the given slot rows in one statement.
func (r *SlotRepo) DeleteByIDsTx(ctx context.Context, tx *sql.Tx, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	query := `DELETE FROM slots WHERE id IN (` + strings.Join(placeholders, ",") + `)`
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// DeleteByYardTx removes all slots belonging to a yard.  Used on yard
// deletion after the occupancy guard has passed (or been forced).
func (r *SlotRepo) DeleteByYardTx(ctx context.Context, tx *sql.Tx, yardID uint64) error {
	const q = `DELETE FROM slots WHERE yard_id = ?`
	_, err := tx.ExecContext(ctx, q, yardID)
	return err
}

// CountByStatus returns the number of slots in a yard with the given status.
func (r *SlotRepo) CountByStatus(ctx context.Context, yardID uint64, status string) (int, error) {
	const q = `SELECT COUNT(*) FROM slots WHERE yard_id = ? AND status = ?`
	var n int
	if err := r.db.QueryRowContext(ctx, q, yardID, status).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// OccupyTx marks a slot as occupied by a vehicle.
func (r *SlotRepo) OccupyTx(ctx context.Context, tx *sql.Tx, slotID, vehicleID uint64) error {
	const q = `UPDATE slots SET status = ?, vehicle_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	res, err := tx.ExecContext(ctx, q, model.SlotOccupied, vehicleID, slotID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSlotNotFound
	}
	return nil
}

// FreeTx clears a slot's vehicle reference and marks it FREE.
func (r *SlotRepo) FreeTx(ctx context.Context, tx *sql.Tx, slotID uint64) error {
	const q = `UPDATE slots SET status = ?, vehicle_id = NULL, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	res, err := tx.ExecContext(ctx, q, model.SlotFree, slotID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSlotNotFound
	}
	return nil
}

// FreeByYardTx releases every slot in a yard in one statement.  Only the
// forced yard deletion path uses this.
func (r *SlotRepo) FreeByYardTx(ctx context.Context, tx *sql.Tx, yardID uint64) error {
	const q = `UPDATE slots SET status = ?, vehicle_id = NULL, updated_at = CURRENT_TIMESTAMP WHERE yard_id = ?`
	_, err := tx.ExecContext(ctx, q, model.SlotFree, yardID)
	return err
}
