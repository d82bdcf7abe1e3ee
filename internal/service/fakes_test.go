package service

import (
	"context"
	"database/sql"
	"sort"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/geosense/yard-service/internal/model"
	"github.com/geosense/yard-service/internal/repository"
	"github.com/geosense/yard-service/internal/validation"
)

// newMockDB returns a database handle whose begin/commit/rollback calls
// are scripted by the returned mock.  Row access in these tests goes
// through the in-memory stores below, so the mock only ever sees the
// transaction lifecycle.
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

type fakeYardStore struct {
	yards   map[uint64]*model.Yard
	nextID  uint64
	locks   int
	updates int
	deletes int
}

func newFakeYardStore(yards ...model.Yard) *fakeYardStore {
	f := &fakeYardStore{yards: make(map[uint64]*model.Yard)}
	for _, y := range yards {
		y := y
		f.yards[y.ID] = &y
		if y.ID > f.nextID {
			f.nextID = y.ID
		}
	}
	return f
}

func (f *fakeYardStore) CreateTx(_ context.Context, _ *sql.Tx, y *model.Yard) error {
	f.nextID++
	y.ID = f.nextID
	c := *y
	f.yards[y.ID] = &c
	return nil
}

func (f *fakeYardStore) GetByID(_ context.Context, id uint64) (*model.Yard, error) {
	y, ok := f.yards[id]
	if !ok {
		return nil, repository.ErrYardNotFound
	}
	c := *y
	return &c, nil
}

func (f *fakeYardStore) LockTx(ctx context.Context, _ *sql.Tx, id uint64) (*model.Yard, error) {
	f.locks++
	return f.GetByID(ctx, id)
}

func (f *fakeYardStore) List(context.Context) ([]model.Yard, error) {
	out := make([]model.Yard, 0, len(f.yards))
	for _, y := range f.yards {
		out = append(out, *y)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeYardStore) UpdateTx(_ context.Context, _ *sql.Tx, y *model.Yard) error {
	f.updates++
	c := *y
	f.yards[y.ID] = &c
	return nil
}

func (f *fakeYardStore) DeleteTx(_ context.Context, _ *sql.Tx, id uint64) error {
	f.deletes++
	delete(f.yards, id)
	return nil
}

type fakeSlotStore struct {
	slots    map[uint64]*model.Slot
	nextID   uint64
	occupies int
	frees    int
	bulks    [][]int
	removed  [][]uint64
}

func newFakeSlotStore(slots ...model.Slot) *fakeSlotStore {
	f := &fakeSlotStore{slots: make(map[uint64]*model.Slot)}
	for _, s := range slots {
		s := s
		if s.Status == "" {
			s.Status = model.SlotFree
		}
		f.slots[s.ID] = &s
		if s.ID > f.nextID {
			f.nextID = s.ID
		}
	}
	return f
}

func (f *fakeSlotStore) byYard(yardID uint64) []model.Slot {
	var out []model.Slot
	for _, s := range f.slots {
		if s.YardID == yardID {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

func (f *fakeSlotStore) ListByYard(_ context.Context, yardID uint64) ([]model.Slot, error) {
	return f.byYard(yardID), nil
}

func (f *fakeSlotStore) ListByYardTx(_ context.Context, _ *sql.Tx, yardID uint64) ([]model.Slot, error) {
	return f.byYard(yardID), nil
}

func (f *fakeSlotStore) GetByIDTx(_ context.Context, _ *sql.Tx, id uint64) (*model.Slot, error) {
	s, ok := f.slots[id]
	if !ok {
		return nil, repository.ErrSlotNotFound
	}
	c := *s
	return &c, nil
}

func (f *fakeSlotStore) CreateBulkTx(_ context.Context, _ *sql.Tx, yardID uint64, numbers []int) error {
	f.bulks = append(f.bulks, numbers)
	for _, n := range numbers {
		f.nextID++
		f.slots[f.nextID] = &model.Slot{ID: f.nextID, YardID: yardID, Number: n, Status: model.SlotFree}
	}
	return nil
}

func (f *fakeSlotStore) DeleteByIDsTx(_ context.Context, _ *sql.Tx, ids []uint64) error {
	f.removed = append(f.removed, ids)
	for _, id := range ids {
		delete(f.slots, id)
	}
	return nil
}

func (f *fakeSlotStore) DeleteByYardTx(_ context.Context, _ *sql.Tx, yardID uint64) error {
	for id, s := range f.slots {
		if s.YardID == yardID {
			delete(f.slots, id)
		}
	}
	return nil
}

func (f *fakeSlotStore) CountByStatus(_ context.Context, yardID uint64, status string) (int, error) {
	n := 0
	for _, s := range f.slots {
		if s.YardID == yardID && s.Status == status {
			n++
		}
	}
	return n, nil
}

func (f *fakeSlotStore) OccupyTx(_ context.Context, _ *sql.Tx, slotID, vehicleID uint64) error {
	f.occupies++
	s := f.slots[slotID]
	s.Status = model.SlotOccupied
	s.VehicleID = &vehicleID
	return nil
}

func (f *fakeSlotStore) FreeTx(_ context.Context, _ *sql.Tx, slotID uint64) error {
	f.frees++
	s := f.slots[slotID]
	s.Status = model.SlotFree
	s.VehicleID = nil
	return nil
}

func (f *fakeSlotStore) FreeByYardTx(_ context.Context, _ *sql.Tx, yardID uint64) error {
	for _, s := range f.slots {
		if s.YardID == yardID {
			s.Status = model.SlotFree
			s.VehicleID = nil
		}
	}
	return nil
}

type fakeVehicleStore struct {
	vehicles map[uint64]*model.Vehicle
	slots    *fakeSlotStore
	nextID   uint64
	inserts  int
	deletes  int
}

func newFakeVehicleStore(vehicles ...model.Vehicle) *fakeVehicleStore {
	f := &fakeVehicleStore{vehicles: make(map[uint64]*model.Vehicle)}
	for _, v := range vehicles {
		v := v
		f.vehicles[v.ID] = &v
		if v.ID > f.nextID {
			f.nextID = v.ID
		}
	}
	return f
}

func (f *fakeVehicleStore) CreateTx(_ context.Context, _ *sql.Tx, v *model.Vehicle) error {
	f.inserts++
	f.nextID++
	v.ID = f.nextID
	v.CreatedAt = time.Now()
	v.UpdatedAt = v.CreatedAt
	c := *v
	f.vehicles[v.ID] = &c
	return nil
}

func (f *fakeVehicleStore) GetByID(_ context.Context, id uint64) (*model.Vehicle, error) {
	v, ok := f.vehicles[id]
	if !ok {
		return nil, repository.ErrVehicleNotFound
	}
	c := *v
	return &c, nil
}

func (f *fakeVehicleStore) GetByIDTx(ctx context.Context, _ *sql.Tx, id uint64) (*model.Vehicle, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeVehicleStore) List(context.Context) ([]model.Vehicle, error) {
	out := make([]model.Vehicle, 0, len(f.vehicles))
	for _, v := range f.vehicles {
		out = append(out, *v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeVehicleStore) Update(_ context.Context, v *model.Vehicle) error {
	c := *v
	f.vehicles[v.ID] = &c
	return nil
}

func (f *fakeVehicleStore) SetSlotTx(_ context.Context, _ *sql.Tx, vehicleID, slotID uint64) error {
	f.vehicles[vehicleID].SlotID = &slotID
	return nil
}

func (f *fakeVehicleStore) ClearSlotTx(_ context.Context, _ *sql.Tx, vehicleID uint64) error {
	f.vehicles[vehicleID].SlotID = nil
	return nil
}

func (f *fakeVehicleStore) ClearSlotByYardTx(_ context.Context, _ *sql.Tx, yardID uint64) error {
	if f.slots == nil {
		return nil
	}
	for _, v := range f.vehicles {
		if v.SlotID == nil {
			continue
		}
		if s, ok := f.slots.slots[*v.SlotID]; ok && s.YardID == yardID {
			v.SlotID = nil
		}
	}
	return nil
}

func (f *fakeVehicleStore) DeleteTx(_ context.Context, _ *sql.Tx, id uint64) error {
	f.deletes++
	delete(f.vehicles, id)
	return nil
}

type fakeUserStore struct {
	users   map[uint64]*model.User
	nextID  uint64
	creates int
	deletes int
}

func newFakeUserStore(users ...model.User) *fakeUserStore {
	f := &fakeUserStore{users: make(map[uint64]*model.User)}
	for _, u := range users {
		u := u
		f.users[u.ID] = &u
		if u.ID > f.nextID {
			f.nextID = u.ID
		}
	}
	return f
}

func (f *fakeUserStore) Create(_ context.Context, name, email, _ string, role string, _ int) (uint64, error) {
	f.creates++
	f.nextID++
	f.users[f.nextID] = &model.User{ID: f.nextID, Name: name, Email: email, Role: role}
	return f.nextID, nil
}

func (f *fakeUserStore) GetByID(_ context.Context, id uint64) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

func (f *fakeUserStore) FirstByRole(_ context.Context, role string) (*model.User, error) {
	ids := make([]uint64, 0, len(f.users))
	for id := range f.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		if f.users[id].Role == role {
			c := *f.users[id]
			return &c, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (f *fakeUserStore) List(context.Context) ([]model.User, error) {
	out := make([]model.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeUserStore) Update(_ context.Context, id uint64, name, email string, _ *string) error {
	u := f.users[id]
	u.Name = name
	u.Email = email
	return nil
}

func (f *fakeUserStore) LockTx(ctx context.Context, _ *sql.Tx, id uint64) (*model.User, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeUserStore) DeleteTx(_ context.Context, _ *sql.Tx, id uint64) error {
	f.deletes++
	delete(f.users, id)
	return nil
}

type fakeTokenStore struct {
	purged []uint64
}

func (f *fakeTokenStore) DeleteAllForUserTx(_ context.Context, _ *sql.Tx, userID uint64) error {
	f.purged = append(f.purged, userID)
	return nil
}

type fakeAllocationStore struct {
	allocations map[uint64]*model.Allocation
	mechCounts  map[uint64]int64
	finCounts   map[uint64]int64
	nextID      uint64
}

func newFakeAllocationStore() *fakeAllocationStore {
	return &fakeAllocationStore{
		allocations: make(map[uint64]*model.Allocation),
		mechCounts:  make(map[uint64]int64),
		finCounts:   make(map[uint64]int64),
	}
}

func (f *fakeAllocationStore) Create(_ context.Context, a *model.Allocation) error {
	f.nextID++
	a.ID = f.nextID
	c := *a
	f.allocations[a.ID] = &c
	f.mechCounts[a.MechanicID]++
	return nil
}

func (f *fakeAllocationStore) GetByID(_ context.Context, id uint64) (*model.Allocation, error) {
	a, ok := f.allocations[id]
	if !ok {
		return nil, repository.ErrAllocationNotFound
	}
	c := *a
	return &c, nil
}

func (f *fakeAllocationStore) Finalize(_ context.Context, id, finalizerID uint64, finishedAt time.Time) error {
	a, ok := f.allocations[id]
	if !ok || a.FinalizerID != nil {
		return repository.ErrAllocationNotFound
	}
	a.FinalizerID = &finalizerID
	a.FinishedAt = &finishedAt
	f.finCounts[finalizerID]++
	return nil
}

func (f *fakeAllocationStore) List(_ context.Context, vehicleID *uint64) ([]model.Allocation, error) {
	var out []model.Allocation
	for _, a := range f.allocations {
		if vehicleID == nil || a.VehicleID == *vehicleID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeAllocationStore) CountByMechanicTx(_ context.Context, _ *sql.Tx, userID uint64) (int64, error) {
	return f.mechCounts[userID], nil
}

func (f *fakeAllocationStore) CountByFinalizerTx(_ context.Context, _ *sql.Tx, userID uint64) (int64, error) {
	return f.finCounts[userID], nil
}

func (f *fakeAllocationStore) DeleteByUserTx(_ context.Context, _ *sql.Tx, userID uint64) (int64, error) {
	removed := f.mechCounts[userID] + f.finCounts[userID]
	f.mechCounts[userID] = 0
	f.finCounts[userID] = 0
	for id, a := range f.allocations {
		if a.MechanicID == userID || (a.FinalizerID != nil && *a.FinalizerID == userID) {
			delete(f.allocations, id)
		}
	}
	return removed, nil
}

func (f *fakeAllocationStore) DeleteByVehicleTx(_ context.Context, _ *sql.Tx, vehicleID uint64) error {
	for id, a := range f.allocations {
		if a.VehicleID == vehicleID {
			delete(f.allocations, id)
		}
	}
	return nil
}

type staticValidator struct {
	res validation.Result
}

func (v staticValidator) Validate(context.Context, string, string, string, validation.Operation) (validation.Result, error) {
	return v.res, nil
}
