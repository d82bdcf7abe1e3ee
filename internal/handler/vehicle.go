package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/geosense/yard-service/internal/model"
	"github.com/geosense/yard-service/internal/queue"
	"github.com/geosense/yard-service/internal/repository"
	"github.com/geosense/yard-service/internal/service"
)

// VehicleManager is the slice of the vehicle service these handlers need.
type VehicleManager interface {
	CreateVehicle(ctx context.Context, in service.CreateVehicleInput) (*model.Vehicle, error)
	GetVehicle(ctx context.Context, id uint64) (*model.Vehicle, error)
	ListVehicles(ctx context.Context) ([]model.Vehicle, error)
	UpdateVehicle(ctx context.Context, id uint64, in service.UpdateVehicleInput) (*model.Vehicle, error)
	Assign(ctx context.Context, vehicleID, slotID uint64) (*service.Placement, error)
	Release(ctx context.Context, vehicleID uint64) error
	DeleteVehicle(ctx context.Context, id uint64) error
}

// VehicleHandler serves the vehicle endpoints.
type VehicleHandler struct {
	Vehicles VehicleManager
}

func NewVehicleHandler(v VehicleManager) *VehicleHandler {
	return &VehicleHandler{Vehicles: v}
}

// ----- DTOs -----

type vehicleReq struct {
	Model      string  `json:"model"`
	Plate      *string `json:"plate"`
	Chassis    *string `json:"chassis"`
	DefectNote *string `json:"defect_note"`
	SlotID     *uint64 `json:"slot_id"` // create only
}

type vehicleResp struct {
	ID         uint64    `json:"id"`
	Model      string    `json:"model"`
	Plate      *string   `json:"plate,omitempty"`
	Chassis    *string   `json:"chassis,omitempty"`
	DefectNote *string   `json:"defect_note,omitempty"`
	SlotID     *uint64   `json:"slot_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func toVehicleResp(v *model.Vehicle) vehicleResp {
	return vehicleResp{
		ID:         v.ID,
		Model:      v.Model,
		Plate:      v.Plate,
		Chassis:    v.Chassis,
		DefectNote: v.DefectNote,
		SlotID:     v.SlotID,
		CreatedAt:  v.CreatedAt,
		UpdatedAt:  v.UpdatedAt,
	}
}

// CreateVehicle handles POST /v1/vehicles.  Passing slot_id parks the
// vehicle immediately through the same guarded path as /assign.
func (h *VehicleHandler) CreateVehicle(c echo.Context) error {
	var req vehicleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	req.Model = strings.TrimSpace(req.Model)
	if req.Model == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "model is required"})
	}
	v, err := h.Vehicles.CreateVehicle(c.Request().Context(), service.CreateVehicleInput{
		Model:      req.Model,
		Plate:      req.Plate,
		Chassis:    req.Chassis,
		DefectNote: req.DefectNote,
		SlotID:     req.SlotID,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrSlotNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "slot not found"})
		case errors.Is(err, service.ErrSlotNotFree):
			return c.JSON(http.StatusConflict, echo.Map{"error": "slot is occupied"})
		}
		if strings.Contains(err.Error(), "1062") {
			return c.JSON(http.StatusConflict, echo.Map{"error": "plate or chassis already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create vehicle"})
	}
	return c.JSON(http.StatusCreated, toVehicleResp(v))
}

// GetVehicle handles GET /v1/vehicles/:id.
func (h *VehicleHandler) GetVehicle(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	v, err := h.Vehicles.GetVehicle(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrVehicleNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "vehicle not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, toVehicleResp(v))
}

// ListVehicles handles GET /v1/vehicles.
func (h *VehicleHandler) ListVehicles(c echo.Context) error {
	items, err := h.Vehicles.ListVehicles(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	out := make([]vehicleResp, 0, len(items))
	for i := range items {
		out = append(out, toVehicleResp(&items[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// UpdateVehicle handles PUT /v1/vehicles/:id.  The slot reference is
// not editable here; use /assign and /release.
func (h *VehicleHandler) UpdateVehicle(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req vehicleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	req.Model = strings.TrimSpace(req.Model)
	if req.Model == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "model is required"})
	}
	v, err := h.Vehicles.UpdateVehicle(c.Request().Context(), id, service.UpdateVehicleInput{
		Model:      req.Model,
		Plate:      req.Plate,
		Chassis:    req.Chassis,
		DefectNote: req.DefectNote,
	})
	if err != nil {
		if errors.Is(err, repository.ErrVehicleNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "vehicle not found"})
		}
		if strings.Contains(err.Error(), "1062") {
			return c.JSON(http.StatusConflict, echo.Map{"error": "plate or chassis already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, toVehicleResp(v))
}

// Assign handles POST /v1/vehicles/:id/assign with body {"slot_id": n}.
func (h *VehicleHandler) Assign(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req struct {
		SlotID uint64 `json:"slot_id"`
	}
	if err := c.Bind(&req); err != nil || req.SlotID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "slot_id required"})
	}
	placement, err := h.Vehicles.Assign(c.Request().Context(), id, req.SlotID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrVehicleNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "vehicle not found"})
		case errors.Is(err, repository.ErrSlotNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "slot not found"})
		case errors.Is(err, service.ErrSlotNotFree):
			return c.JSON(http.StatusConflict, echo.Map{"error": "slot is occupied"})
		case errors.Is(err, service.ErrVehicleAlreadyAssigned):
			return c.JSON(http.StatusConflict, echo.Map{"error": "vehicle already assigned; release first"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "assign failed"})
	}

	// Best effort: a broker outage must not fail a committed assign.
	ev := queue.VehicleAssignedEvent{
		VehicleID:  id,
		SlotID:     placement.Slot.ID,
		SlotNumber: placement.Slot.Number,
		YardID:     placement.Slot.YardID,
		YardUnit:   placement.YardUnit,
		AssignedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := queue.PublishVehicleAssigned(c.Request().Context(), ev); err != nil {
		log.Printf("vehicle handler: publish assigned event: %v", err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"vehicle_id":  id,
		"slot_id":     placement.Slot.ID,
		"slot_number": placement.Slot.Number,
		"yard_id":     placement.Slot.YardID,
	})
}

// Release handles POST /v1/vehicles/:id/release.  Releasing an
// unparked vehicle succeeds and changes nothing.
func (h *VehicleHandler) Release(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Vehicles.Release(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrVehicleNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "vehicle not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "release failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteVehicle handles DELETE /v1/vehicles/:id.  The slot is freed and
// the vehicle's allocation history goes with it.
func (h *VehicleHandler) DeleteVehicle(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Vehicles.DeleteVehicle(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrVehicleNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "vehicle not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
