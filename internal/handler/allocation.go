package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/geosense/yard-service/internal/model"
	"github.com/geosense/yard-service/internal/queue"
	"github.com/geosense/yard-service/internal/repository"
	"github.com/geosense/yard-service/internal/service"
)

// AllocationManager is the slice of the allocation service these
// handlers need.
type AllocationManager interface {
	Open(ctx context.Context, vehicleID, mechanicID uint64) (*service.OpenedAllocation, error)
	Finalize(ctx context.Context, id, finalizerID uint64) (*model.Allocation, error)
	Get(ctx context.Context, id uint64) (*model.Allocation, error)
	List(ctx context.Context, vehicleID *uint64) ([]model.Allocation, error)
}

// AllocationHandler serves the allocation history endpoints.
type AllocationHandler struct {
	Allocations AllocationManager
}

func NewAllocationHandler(a AllocationManager) *AllocationHandler {
	return &AllocationHandler{Allocations: a}
}

// ----- DTOs -----

type allocationResp struct {
	ID          uint64     `json:"id"`
	VehicleID   uint64     `json:"vehicle_id"`
	MechanicID  uint64     `json:"mechanic_id"`
	FinalizerID *uint64    `json:"finalizer_id,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
}

func toAllocationResp(a *model.Allocation) allocationResp {
	return allocationResp{
		ID:          a.ID,
		VehicleID:   a.VehicleID,
		MechanicID:  a.MechanicID,
		FinalizerID: a.FinalizerID,
		StartedAt:   a.StartedAt,
		FinishedAt:  a.FinishedAt,
	}
}

// CreateAllocation handles POST /v1/allocations, opening a repair
// record for a vehicle and mechanic.
func (h *AllocationHandler) CreateAllocation(c echo.Context) error {
	var req struct {
		VehicleID  uint64 `json:"vehicle_id"`
		MechanicID uint64 `json:"mechanic_id"`
	}
	if err := c.Bind(&req); err != nil || req.VehicleID == 0 || req.MechanicID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "vehicle_id and mechanic_id required"})
	}
	opened, err := h.Allocations.Open(c.Request().Context(), req.VehicleID, req.MechanicID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrVehicleNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "vehicle not found"})
		case errors.Is(err, repository.ErrUserNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "mechanic not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not open allocation"})
	}

	// Best effort: a broker outage must not fail a committed record.
	ev := queue.AllocationRecordedEvent{
		AllocationID: opened.ID,
		VehicleID:    opened.VehicleID,
		VehicleModel: opened.VehicleModel,
		MechanicID:   opened.MechanicID,
		MechanicName: opened.MechanicName,
		StartedAt:    opened.StartedAt.Format(time.RFC3339),
	}
	if err := queue.PublishAllocationRecorded(c.Request().Context(), ev); err != nil {
		log.Printf("allocation handler: publish recorded event: %v", err)
	}

	return c.JSON(http.StatusCreated, toAllocationResp(&opened.Allocation))
}

// FinalizeAllocation handles POST /v1/allocations/:id/finalize.  The
// finalizing user comes from the JWT, not the body.
func (h *AllocationHandler) FinalizeAllocation(c echo.Context) error {
	finalizerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	a, err := h.Allocations.Finalize(c.Request().Context(), id, finalizerID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAllocationNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "allocation not found or already finalized"})
		case errors.Is(err, repository.ErrUserNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "finalizer not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "finalize failed"})
	}
	return c.JSON(http.StatusOK, toAllocationResp(a))
}

// GetAllocation handles GET /v1/allocations/:id.
func (h *AllocationHandler) GetAllocation(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	a, err := h.Allocations.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrAllocationNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "allocation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, toAllocationResp(a))
}

// ListAllocations handles GET /v1/allocations with an optional
// ?vehicle_id= filter.
func (h *AllocationHandler) ListAllocations(c echo.Context) error {
	var vehicleID *uint64
	if raw := c.QueryParam("vehicle_id"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid vehicle_id"})
		}
		vehicleID = &n
	}
	items, err := h.Allocations.List(c.Request().Context(), vehicleID)
	if err != nil {
		if errors.Is(err, repository.ErrVehicleNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "vehicle not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	out := make([]allocationResp, 0, len(items))
	for i := range items {
		out = append(out, toAllocationResp(&items[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}
