package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geosense/yard-service/internal/model"
	"github.com/geosense/yard-service/internal/repository"
	"github.com/geosense/yard-service/internal/service"
)

// fakeYards implements YardManager with canned results per call.
type fakeYards struct {
	createYard func(service.CreateYardInput) (*model.Yard, error)
	updateYard func(uint64, service.UpdateYardInput) (*model.Yard, error)
	deleteYard func(uint64) error
	forceYard  func(uint64) error
	getYard    func(uint64) (*service.YardDetail, error)
	listYards  func() ([]service.YardDetail, error)
	listSlots  func(uint64) ([]model.Slot, error)
}

func (f *fakeYards) CreateYard(_ context.Context, in service.CreateYardInput) (*model.Yard, error) {
	return f.createYard(in)
}
func (f *fakeYards) UpdateYard(_ context.Context, id uint64, in service.UpdateYardInput) (*model.Yard, error) {
	return f.updateYard(id, in)
}
func (f *fakeYards) DeleteYard(_ context.Context, id uint64) error      { return f.deleteYard(id) }
func (f *fakeYards) ForceDeleteYard(_ context.Context, id uint64) error { return f.forceYard(id) }
func (f *fakeYards) GetYard(_ context.Context, id uint64) (*service.YardDetail, error) {
	return f.getYard(id)
}
func (f *fakeYards) ListYards(_ context.Context) ([]service.YardDetail, error) {
	return f.listYards()
}
func (f *fakeYards) ListSlots(_ context.Context, id uint64) ([]model.Slot, error) {
	return f.listSlots(id)
}

func doJSON(t *testing.T, h echo.HandlerFunc, method, target, body string, pathParams map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	for k, v := range pathParams {
		c.SetParamNames(k)
		c.SetParamValues(v)
	}
	require.NoError(t, h(c))
	return rec
}

func TestCreateYardCreated(t *testing.T) {
	h := NewYardHandler(&fakeYards{
		createYard: func(in service.CreateYardInput) (*model.Yard, error) {
			return &model.Yard{ID: 1, Location: in.Location, Address: in.Address, UnitName: in.UnitName, Capacity: in.Capacity}, nil
		},
	})
	rec := doJSON(t, h.CreateYard, http.MethodPost, "/v1/yards",
		`{"location":"Recife","address":"Av. Norte 100","unit_name":"recife-01","capacity":10}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var got yardResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, uint64(1), got.ID)
	assert.Equal(t, "recife-01", got.UnitName)
	assert.Equal(t, 10, got.Capacity)
}

func TestCreateYardMissingFields(t *testing.T) {
	h := NewYardHandler(&fakeYards{})
	rec := doJSON(t, h.CreateYard, http.MethodPost, "/v1/yards", `{"capacity":5}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateYardCapacityBelowOccupancy(t *testing.T) {
	h := NewYardHandler(&fakeYards{
		updateYard: func(uint64, service.UpdateYardInput) (*model.Yard, error) {
			return nil, &service.CapacityBelowOccupancyError{Requested: 4, Occupied: 6}
		},
	})
	rec := doJSON(t, h.UpdateYard, http.MethodPut, "/v1/yards/3",
		`{"location":"Recife","unit_name":"recife-01","capacity":4}`, map[string]string{"id": "3"})
	require.Equal(t, http.StatusConflict, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(4), body["requested"])
	assert.Equal(t, float64(6), body["occupied"])
}

func TestUpdateYardInvalidCapacity(t *testing.T) {
	h := NewYardHandler(&fakeYards{
		updateYard: func(uint64, service.UpdateYardInput) (*model.Yard, error) {
			return nil, service.ErrInvalidCapacity
		},
	})
	rec := doJSON(t, h.UpdateYard, http.MethodPut, "/v1/yards/3",
		`{"location":"Recife","unit_name":"recife-01","capacity":-2}`, map[string]string{"id": "3"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetYardNotFound(t *testing.T) {
	h := NewYardHandler(&fakeYards{
		getYard: func(uint64) (*service.YardDetail, error) { return nil, repository.ErrYardNotFound },
	})
	rec := doJSON(t, h.GetYard, http.MethodGet, "/v1/yards/9", "", map[string]string{"id": "9"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetYardCounts(t *testing.T) {
	h := NewYardHandler(&fakeYards{
		getYard: func(id uint64) (*service.YardDetail, error) {
			return &service.YardDetail{
				Yard:          model.Yard{ID: id, UnitName: "recife-01", Capacity: 10},
				OccupiedSlots: 4,
				FreeSlots:     6,
			}, nil
		},
	})
	rec := doJSON(t, h.GetYard, http.MethodGet, "/v1/yards/2", "", map[string]string{"id": "2"})
	require.Equal(t, http.StatusOK, rec.Code)

	var got yardDetailResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 4, got.OccupiedSlots)
	assert.Equal(t, 6, got.FreeSlots)
}

func TestDeleteYardOccupiedConflict(t *testing.T) {
	h := NewYardHandler(&fakeYards{
		deleteYard: func(uint64) error { return &service.YardOccupiedError{Occupied: 3} },
	})
	rec := doJSON(t, h.DeleteYard, http.MethodDelete, "/v1/yards/2", "", map[string]string{"id": "2"})
	require.Equal(t, http.StatusConflict, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(3), body["occupied"])
}

func TestForceDeleteYardSucceedsWhereDeleteRefused(t *testing.T) {
	h := NewYardHandler(&fakeYards{
		forceYard: func(uint64) error { return nil },
	})
	rec := doJSON(t, h.ForceDeleteYard, http.MethodDelete, "/v1/yards/2/force", "", map[string]string{"id": "2"})
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestListSlotsOrdered(t *testing.T) {
	v := uint64(55)
	h := NewYardHandler(&fakeYards{
		listSlots: func(id uint64) ([]model.Slot, error) {
			return []model.Slot{
				{ID: 1, YardID: id, Number: 1, Status: model.SlotOccupied, VehicleID: &v},
				{ID: 2, YardID: id, Number: 2, Status: model.SlotFree},
			}, nil
		},
	})
	rec := doJSON(t, h.ListSlots, http.MethodGet, "/v1/yards/1/slots", "", map[string]string{"id": "1"})
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Items []slotResp `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Items, 2)
	assert.Equal(t, model.SlotOccupied, body.Items[0].Status)
	require.NotNil(t, body.Items[0].VehicleID)
	assert.Equal(t, uint64(55), *body.Items[0].VehicleID)
	assert.Nil(t, body.Items[1].VehicleID)
}

func TestYardHandlerInvalidID(t *testing.T) {
	h := NewYardHandler(&fakeYards{})
	rec := doJSON(t, h.GetYard, http.MethodGet, "/v1/yards/abc", "", map[string]string{"id": "abc"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
