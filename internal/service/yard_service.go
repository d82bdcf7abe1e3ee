package service

import (
	"context"
	"database/sql"

	"github.com/geosense/yard-service/internal/model"
)

// YardService reconciles a yard's declared capacity with its physical
// slot count.  Creation, capacity update and deletion all funnel
// through the same transaction shape: lock the yard row, inspect the
// pool, mutate pool and capacity together, commit.
type YardService struct {
	db       *sql.DB
	yards    YardStore
	pool     *SlotPool
	slots    SlotStore
	vehicles VehicleStore
}

// NewYardService wires the reconciler over its stores.
func NewYardService(db *sql.DB, yards YardStore, slots SlotStore, vehicles VehicleStore) *YardService {
	return &YardService{
		db:       db,
		yards:    yards,
		pool:     NewSlotPool(slots),
		slots:    slots,
		vehicles: vehicles,
	}
}

// YardDetail is a yard together with its live slot counts, as returned
// to callers of Get/List.
type YardDetail struct {
	model.Yard
	OccupiedSlots int `json:"occupied_slots"`
	FreeSlots     int `json:"free_slots"`
}

// CreateYardInput carries the fields needed to open a new yard.
type CreateYardInput struct {
	Location string
	Address  string
	UnitName string
	Capacity int
}

// CreateYard inserts the yard row and reconciles its slot pool from
// zero to the initial capacity, in one transaction.  Creation is
// capacity reconciliation over an empty pool, so both paths share one
// code path and one invariant.
func (s *YardService) CreateYard(ctx context.Context, in CreateYardInput) (*model.Yard, error) {
	if in.Capacity < 0 {
		return nil, ErrInvalidCapacity
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	y := &model.Yard{
		Location: in.Location,
		Address:  in.Address,
		UnitName: in.UnitName,
		Capacity: in.Capacity,
	}
	if err := s.yards.CreateTx(ctx, tx, y); err != nil {
		return nil, err
	}
	plan, err := planResize(nil, in.Capacity)
	if err != nil {
		return nil, err
	}
	if err := s.pool.Apply(ctx, tx, y.ID, plan); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return y, nil
}

// UpdateYardInput carries the editable yard fields.  Capacity is the
// requested slot count; the reconciler decides what that means for the
// pool.
type UpdateYardInput struct {
	Location string
	Address  string
	UnitName string
	Capacity int
}

// UpdateYard updates the yard's fields and reconciles its slot pool to
// the requested capacity.  Growing always succeeds; shrinking below the
// occupied count fails with CapacityBelowOccupancyError and leaves the
// pool untouched; equal capacity changes only the location fields.
func (s *YardService) UpdateYard(ctx context.Context, id uint64, in UpdateYardInput) (*model.Yard, error) {
	if in.Capacity < 0 {
		return nil, ErrInvalidCapacity
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	y, err := s.yards.LockTx(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	slots, err := s.pool.Load(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	plan, err := planResize(slots, in.Capacity)
	if err != nil {
		return nil, err
	}
	if err := s.pool.Apply(ctx, tx, id, plan); err != nil {
		return nil, err
	}

	y.Location = in.Location
	y.Address = in.Address
	y.UnitName = in.UnitName
	y.Capacity = in.Capacity
	if err := s.yards.UpdateTx(ctx, tx, y); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return y, nil
}

// DeleteYard removes a yard and its slots.  It refuses while any slot
// is occupied; callers that really mean it use ForceDeleteYard.
func (s *YardService) DeleteYard(ctx context.Context, id uint64) error {
	return s.deleteYard(ctx, id, false)
}

// ForceDeleteYard releases every vehicle parked in the yard, then
// removes the slots and the yard row, as one logical unit.
func (s *YardService) ForceDeleteYard(ctx context.Context, id uint64) error {
	return s.deleteYard(ctx, id, true)
}

func (s *YardService) deleteYard(ctx context.Context, id uint64, force bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := s.yards.LockTx(ctx, tx, id); err != nil {
		return err
	}
	slots, err := s.pool.Load(ctx, tx, id)
	if err != nil {
		return err
	}
	if occupied := countOccupied(slots); occupied > 0 {
		if !force {
			return &YardOccupiedError{Occupied: occupied}
		}
		if err := s.vehicles.ClearSlotByYardTx(ctx, tx, id); err != nil {
			return err
		}
		if err := s.slots.FreeByYardTx(ctx, tx, id); err != nil {
			return err
		}
	}
	if err := s.slots.DeleteByYardTx(ctx, tx, id); err != nil {
		return err
	}
	if err := s.yards.DeleteTx(ctx, tx, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// GetYard returns one yard with its slot counts.
func (s *YardService) GetYard(ctx context.Context, id uint64) (*YardDetail, error) {
	y, err := s.yards.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	occupied, err := s.slots.CountByStatus(ctx, id, model.SlotOccupied)
	if err != nil {
		return nil, err
	}
	free, err := s.slots.CountByStatus(ctx, id, model.SlotFree)
	if err != nil {
		return nil, err
	}
	return &YardDetail{Yard: *y, OccupiedSlots: occupied, FreeSlots: free}, nil
}

// ListYards returns all yards with their slot counts.
func (s *YardService) ListYards(ctx context.Context) ([]YardDetail, error) {
	yards, err := s.yards.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]YardDetail, 0, len(yards))
	for _, y := range yards {
		occupied, err := s.slots.CountByStatus(ctx, y.ID, model.SlotOccupied)
		if err != nil {
			return nil, err
		}
		free, err := s.slots.CountByStatus(ctx, y.ID, model.SlotFree)
		if err != nil {
			return nil, err
		}
		out = append(out, YardDetail{Yard: y, OccupiedSlots: occupied, FreeSlots: free})
	}
	return out, nil
}

// ListSlots returns the ordered slot sequence of a yard.
func (s *YardService) ListSlots(ctx context.Context, yardID uint64) ([]model.Slot, error) {
	if _, err := s.yards.GetByID(ctx, yardID); err != nil {
		return nil, err
	}
	return s.slots.ListByYard(ctx, yardID)
}
