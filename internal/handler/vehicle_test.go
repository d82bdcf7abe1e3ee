package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geosense/yard-service/internal/model"
	"github.com/geosense/yard-service/internal/repository"
	"github.com/geosense/yard-service/internal/service"
)

type fakeVehicles struct {
	create  func(service.CreateVehicleInput) (*model.Vehicle, error)
	get     func(uint64) (*model.Vehicle, error)
	list    func() ([]model.Vehicle, error)
	update  func(uint64, service.UpdateVehicleInput) (*model.Vehicle, error)
	assign  func(uint64, uint64) (*service.Placement, error)
	release func(uint64) error
	delete  func(uint64) error
}

func (f *fakeVehicles) CreateVehicle(_ context.Context, in service.CreateVehicleInput) (*model.Vehicle, error) {
	return f.create(in)
}
func (f *fakeVehicles) GetVehicle(_ context.Context, id uint64) (*model.Vehicle, error) {
	return f.get(id)
}
func (f *fakeVehicles) ListVehicles(_ context.Context) ([]model.Vehicle, error) { return f.list() }
func (f *fakeVehicles) UpdateVehicle(_ context.Context, id uint64, in service.UpdateVehicleInput) (*model.Vehicle, error) {
	return f.update(id, in)
}
func (f *fakeVehicles) Assign(_ context.Context, vehicleID, slotID uint64) (*service.Placement, error) {
	return f.assign(vehicleID, slotID)
}
func (f *fakeVehicles) Release(_ context.Context, id uint64) error       { return f.release(id) }
func (f *fakeVehicles) DeleteVehicle(_ context.Context, id uint64) error { return f.delete(id) }

func TestCreateVehicleWithoutSlot(t *testing.T) {
	h := NewVehicleHandler(&fakeVehicles{
		create: func(in service.CreateVehicleInput) (*model.Vehicle, error) {
			require.Nil(t, in.SlotID)
			return &model.Vehicle{ID: 1, Model: in.Model, Plate: in.Plate}, nil
		},
	})
	rec := doJSON(t, h.CreateVehicle, http.MethodPost, "/v1/vehicles",
		`{"model":"CG 160","plate":"ABC1D23"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var got vehicleResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "CG 160", got.Model)
	require.NotNil(t, got.Plate)
	assert.Equal(t, "ABC1D23", *got.Plate)
	assert.Nil(t, got.SlotID)
}

func TestCreateVehicleRequiresModel(t *testing.T) {
	h := NewVehicleHandler(&fakeVehicles{})
	rec := doJSON(t, h.CreateVehicle, http.MethodPost, "/v1/vehicles", `{"plate":"ABC1D23"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAssignSlotOccupied(t *testing.T) {
	h := NewVehicleHandler(&fakeVehicles{
		assign: func(uint64, uint64) (*service.Placement, error) { return nil, service.ErrSlotNotFree },
	})
	rec := doJSON(t, h.Assign, http.MethodPost, "/v1/vehicles/1/assign",
		`{"slot_id":7}`, map[string]string{"id": "1"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAssignVehicleAlreadyAssigned(t *testing.T) {
	h := NewVehicleHandler(&fakeVehicles{
		assign: func(uint64, uint64) (*service.Placement, error) {
			return nil, service.ErrVehicleAlreadyAssigned
		},
	})
	rec := doJSON(t, h.Assign, http.MethodPost, "/v1/vehicles/1/assign",
		`{"slot_id":7}`, map[string]string{"id": "1"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAssignSlotNotFound(t *testing.T) {
	h := NewVehicleHandler(&fakeVehicles{
		assign: func(uint64, uint64) (*service.Placement, error) { return nil, repository.ErrSlotNotFound },
	})
	rec := doJSON(t, h.Assign, http.MethodPost, "/v1/vehicles/1/assign",
		`{"slot_id":999}`, map[string]string{"id": "1"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAssignRequiresSlotID(t *testing.T) {
	h := NewVehicleHandler(&fakeVehicles{})
	rec := doJSON(t, h.Assign, http.MethodPost, "/v1/vehicles/1/assign", `{}`, map[string]string{"id": "1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReleaseUnparkedIsNoop(t *testing.T) {
	h := NewVehicleHandler(&fakeVehicles{
		release: func(uint64) error { return nil },
	})
	rec := doJSON(t, h.Release, http.MethodPost, "/v1/vehicles/1/release", "", map[string]string{"id": "1"})
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestDeleteVehicleNotFound(t *testing.T) {
	h := NewVehicleHandler(&fakeVehicles{
		delete: func(uint64) error { return repository.ErrVehicleNotFound },
	})
	rec := doJSON(t, h.DeleteVehicle, http.MethodDelete, "/v1/vehicles/9", "", map[string]string{"id": "9"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListVehicles(t *testing.T) {
	slot := uint64(3)
	h := NewVehicleHandler(&fakeVehicles{
		list: func() ([]model.Vehicle, error) {
			return []model.Vehicle{
				{ID: 1, Model: "CG 160", SlotID: &slot},
				{ID: 2, Model: "Biz 125"},
			}, nil
		},
	})
	rec := doJSON(t, h.ListVehicles, http.MethodGet, "/v1/vehicles", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Items []vehicleResp `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Items, 2)
	require.NotNil(t, body.Items[0].SlotID)
	assert.Equal(t, uint64(3), *body.Items[0].SlotID)
	assert.Nil(t, body.Items[1].SlotID)
}
