package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geosense/yard-service/internal/model"
)

func occupiedSlot(id, yardID uint64, number int, vehicleID uint64) model.Slot {
	v := vehicleID
	return model.Slot{ID: id, YardID: yardID, Number: number, Status: model.SlotOccupied, VehicleID: &v}
}

func TestCreateYardSeedsSlotPool(t *testing.T) {
	db, mock := newMockDB(t)
	yards := newFakeYardStore()
	slots := newFakeSlotStore()
	svc := NewYardService(db, yards, slots, newFakeVehicleStore())
	mock.ExpectBegin()
	mock.ExpectCommit()

	y, err := svc.CreateYard(context.Background(), CreateYardInput{Location: "Sorocaba", UnitName: "centro-01", Capacity: 3})
	require.NoError(t, err)
	assert.NotZero(t, y.ID)
	require.Len(t, slots.bulks, 1)
	assert.Equal(t, []int{1, 2, 3}, slots.bulks[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateYardShrinkBelowOccupancyAborts(t *testing.T) {
	db, mock := newMockDB(t)
	yards := newFakeYardStore(model.Yard{ID: 1, UnitName: "centro-01", Capacity: 5})
	slots := newFakeSlotStore(
		model.Slot{ID: 10, YardID: 1, Number: 1},
		model.Slot{ID: 11, YardID: 1, Number: 2},
		occupiedSlot(12, 1, 3, 31),
		occupiedSlot(13, 1, 4, 41),
		occupiedSlot(14, 1, 5, 51),
	)
	svc := NewYardService(db, yards, slots, newFakeVehicleStore())
	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.UpdateYard(context.Background(), 1, UpdateYardInput{Location: "Sorocaba", UnitName: "centro-01", Capacity: 2})
	var capErr *CapacityBelowOccupancyError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, 2, capErr.Requested)
	assert.Equal(t, 3, capErr.Occupied)

	// Nothing moved: same five slots, no removals, yard row untouched.
	assert.Len(t, slots.slots, 5)
	assert.Empty(t, slots.removed)
	assert.Zero(t, yards.updates)
	assert.Equal(t, 5, yards.yards[1].Capacity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateYardShrinkRemovesHighestFreeSlots(t *testing.T) {
	db, mock := newMockDB(t)
	yards := newFakeYardStore(model.Yard{ID: 1, UnitName: "centro-01", Capacity: 4})
	slots := newFakeSlotStore(
		model.Slot{ID: 10, YardID: 1, Number: 1},
		occupiedSlot(11, 1, 2, 21),
		model.Slot{ID: 12, YardID: 1, Number: 3},
		model.Slot{ID: 13, YardID: 1, Number: 4},
	)
	svc := NewYardService(db, yards, slots, newFakeVehicleStore())
	mock.ExpectBegin()
	mock.ExpectCommit()

	y, err := svc.UpdateYard(context.Background(), 1, UpdateYardInput{Location: "Sorocaba", UnitName: "centro-01", Capacity: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, y.Capacity)
	require.Len(t, slots.removed, 1)
	assert.ElementsMatch(t, []uint64{13, 12}, slots.removed[0])
	assert.Contains(t, slots.slots, uint64(11))
	assert.Equal(t, 1, yards.updates)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteYardRefusesWhileOccupied(t *testing.T) {
	db, mock := newMockDB(t)
	yards := newFakeYardStore(model.Yard{ID: 1, UnitName: "centro-01", Capacity: 2})
	slots := newFakeSlotStore(
		occupiedSlot(10, 1, 1, 5),
		model.Slot{ID: 11, YardID: 1, Number: 2},
	)
	svc := NewYardService(db, yards, slots, newFakeVehicleStore())
	mock.ExpectBegin()
	mock.ExpectRollback()

	err := svc.DeleteYard(context.Background(), 1)
	var occErr *YardOccupiedError
	require.ErrorAs(t, err, &occErr)
	assert.Equal(t, 1, occErr.Occupied)
	assert.Contains(t, yards.yards, uint64(1))
	assert.Len(t, slots.slots, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestForceDeleteYardReleasesParkedVehicles(t *testing.T) {
	db, mock := newMockDB(t)
	yards := newFakeYardStore(model.Yard{ID: 1, UnitName: "centro-01", Capacity: 2})
	slots := newFakeSlotStore(
		occupiedSlot(10, 1, 1, 5),
		model.Slot{ID: 11, YardID: 1, Number: 2},
	)
	slotRef := uint64(10)
	vehicles := newFakeVehicleStore(model.Vehicle{ID: 5, Model: "CG 160", SlotID: &slotRef})
	vehicles.slots = slots
	svc := NewYardService(db, yards, slots, vehicles)
	mock.ExpectBegin()
	mock.ExpectCommit()

	require.NoError(t, svc.ForceDeleteYard(context.Background(), 1))
	assert.NotContains(t, yards.yards, uint64(1))
	assert.Empty(t, slots.slots)
	assert.Nil(t, vehicles.vehicles[5].SlotID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
