package repository // repository holds data access logic for domain entities

import (
	"context"      // context is used to manage deadlines and cancellation
	"database/sql" // sql provides DB primitives
	"errors"       // errors package allows sentinel comparisons

	"github.com/geosense/yard-service/internal/model"
)

// YardRepo provides methods to create, read, update and delete yards.
// All capacity-sensitive flows go through the Tx variants so that the
// yard row lock serializes concurrent work on the same yard.
type YardRepo struct {
	db *sql.DB
}

// NewYardRepo constructs a YardRepo with the given DB handle.
func NewYardRepo(db *sql.DB) *YardRepo {
	return &YardRepo{db: db}
}

// DB exposes the underlying handle so services can begin transactions.
func (r *YardRepo) DB() *sql.DB { return r.db }

// CreateTx inserts a new yard within a transaction and populates its ID
// and timestamps.  Slot creation for the initial capacity happens in the
// same transaction via the slot repository.
func (r *YardRepo) CreateTx(ctx context.Context, tx *sql.Tx, y *model.Yard) error {
	const qInsert = `INSERT INTO yards (location, address, unit_name, capacity)
	                 VALUES (?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, qInsert, y.Location, y.Address, y.UnitName, y.Capacity)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	y.ID = uint64(id)

	const qSelect = `SELECT created_at, updated_at FROM yards WHERE id = ?`
	return tx.QueryRowContext(ctx, qSelect, y.ID).Scan(&y.CreatedAt, &y.UpdatedAt)
}

// GetByID retrieves a yard by its ID.  It returns ErrYardNotFound when
// no row is found.
func (r *YardRepo) GetByID(ctx context.Context, id uint64) (*model.Yard, error) {
	const q = `SELECT id, location, address, unit_name, capacity, created_at, updated_at
	           FROM yards WHERE id = ?`
	var y model.Yard
	err := r.db.QueryRowContext(ctx, q, id).
		Scan(&y.ID, &y.Location, &y.Address, &y.UnitName, &y.Capacity, &y.CreatedAt, &y.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrYardNotFound
		}
		return nil, err
	}
	return &y, nil
}

// LockTx loads a yard row with SELECT ... FOR UPDATE.  Every operation
// that checks-then-mutates a yard's slot pool (capacity reconcile,
// assignment, yard deletion) must take this lock first so the flows
// cannot interleave on the same yard.
func (r *YardRepo) LockTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Yard, error) {
	const q = `SELECT id, location, address, unit_name, capacity, created_at, updated_at
	           FROM yards WHERE id = ? FOR UPDATE`
	var y model.Yard
	err := tx.QueryRowContext(ctx, q, id).
		Scan(&y.ID, &y.Location, &y.Address, &y.UnitName, &y.Capacity, &y.CreatedAt, &y.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrYardNotFound
		}
		return nil, err
	}
	return &y, nil
}

// List returns all yards ordered by id.
func (r *YardRepo) List(ctx context.Context) ([]model.Yard, error) {
	const q = `SELECT id, location, address, unit_name, capacity, created_at, updated_at
	           FROM yards ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Yard
	for rows.Next() {
		var y model.Yard
		if err := rows.Scan(&y.ID, &y.Location, &y.Address, &y.UnitName, &y.Capacity, &y.CreatedAt, &y.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, y)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateTx persists location fields and the declared capacity.  The
// capacity column and the slot set must change in the same transaction;
// callers reconcile slots before committing.  Existence is the caller's
// concern; the row is already held via LockTx, and MySQL reports zero
// affected rows for a no-op update.
func (r *YardRepo) UpdateTx(ctx context.Context, tx *sql.Tx, y *model.Yard) error {
	const q = `UPDATE yards
	           SET location = ?, address = ?, unit_name = ?, capacity = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, y.Location, y.Address, y.UnitName, y.Capacity, y.ID)
	return err
}

// DeleteTx removes the yard row.  Slots must already be gone; the
// schema keeps a FK from slots to yards.
func (r *YardRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	const q = `DELETE FROM yards WHERE id = ?`
	res, err := tx.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrYardNotFound
	}
	return nil
}
