package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/geosense/yard-service/internal/model"
	"github.com/geosense/yard-service/internal/repository"
	"github.com/geosense/yard-service/internal/service"
)

// YardManager is the slice of the yard service these handlers need.
// Kept as an interface so tests can substitute a fake.
type YardManager interface {
	CreateYard(ctx context.Context, in service.CreateYardInput) (*model.Yard, error)
	UpdateYard(ctx context.Context, id uint64, in service.UpdateYardInput) (*model.Yard, error)
	DeleteYard(ctx context.Context, id uint64) error
	ForceDeleteYard(ctx context.Context, id uint64) error
	GetYard(ctx context.Context, id uint64) (*service.YardDetail, error)
	ListYards(ctx context.Context) ([]service.YardDetail, error)
	ListSlots(ctx context.Context, yardID uint64) ([]model.Slot, error)
}

// YardHandler serves the yard and slot endpoints.
type YardHandler struct {
	Yards YardManager
}

func NewYardHandler(y YardManager) *YardHandler {
	return &YardHandler{Yards: y}
}

// ----- DTOs -----

type yardReq struct {
	Location string `json:"location"`
	Address  string `json:"address"`
	UnitName string `json:"unit_name"`
	Capacity int    `json:"capacity"`
}

type yardResp struct {
	ID        uint64    `json:"id"`
	Location  string    `json:"location"`
	Address   string    `json:"address"`
	UnitName  string    `json:"unit_name"`
	Capacity  int       `json:"capacity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type yardDetailResp struct {
	yardResp
	OccupiedSlots int `json:"occupied_slots"`
	FreeSlots     int `json:"free_slots"`
}

type slotResp struct {
	ID        uint64  `json:"id"`
	YardID    uint64  `json:"yard_id"`
	Number    int     `json:"number"`
	Status    string  `json:"status"`
	VehicleID *uint64 `json:"vehicle_id,omitempty"`
}

func toYardResp(y *model.Yard) yardResp {
	return yardResp{
		ID:        y.ID,
		Location:  y.Location,
		Address:   y.Address,
		UnitName:  y.UnitName,
		Capacity:  y.Capacity,
		CreatedAt: y.CreatedAt,
		UpdatedAt: y.UpdatedAt,
	}
}

func toYardDetailResp(d *service.YardDetail) yardDetailResp {
	return yardDetailResp{
		yardResp:      toYardResp(&d.Yard),
		OccupiedSlots: d.OccupiedSlots,
		FreeSlots:     d.FreeSlots,
	}
}

func toSlotResp(s model.Slot) slotResp {
	return slotResp{ID: s.ID, YardID: s.YardID, Number: s.Number, Status: s.Status, VehicleID: s.VehicleID}
}

func (r *yardReq) normalize() error {
	r.Location = strings.TrimSpace(r.Location)
	r.Address = strings.TrimSpace(r.Address)
	r.UnitName = strings.TrimSpace(r.UnitName)
	if r.Location == "" || r.UnitName == "" {
		return errors.New("location and unit_name are required")
	}
	return nil
}

// CreateYard handles POST /v1/yards.  The yard is created together with
// its initial slot pool; a capacity of zero opens an empty yard.
func (h *YardHandler) CreateYard(c echo.Context) error {
	var req yardReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := req.normalize(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	y, err := h.Yards.CreateYard(c.Request().Context(), service.CreateYardInput{
		Location: req.Location,
		Address:  req.Address,
		UnitName: req.UnitName,
		Capacity: req.Capacity,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidCapacity) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		if strings.Contains(err.Error(), "1062") {
			return c.JSON(http.StatusConflict, echo.Map{"error": "unit name already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create yard"})
	}
	return c.JSON(http.StatusCreated, toYardResp(y))
}

// UpdateYard handles PUT /v1/yards/:id.  Changing the capacity grows or
// shrinks the slot pool; shrinking below the occupied count is refused
// with 409 and the current occupancy.
func (h *YardHandler) UpdateYard(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req yardReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := req.normalize(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	y, err := h.Yards.UpdateYard(c.Request().Context(), id, service.UpdateYardInput{
		Location: req.Location,
		Address:  req.Address,
		UnitName: req.UnitName,
		Capacity: req.Capacity,
	})
	if err != nil {
		var below *service.CapacityBelowOccupancyError
		switch {
		case errors.Is(err, repository.ErrYardNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "yard not found"})
		case errors.Is(err, service.ErrInvalidCapacity):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		case errors.As(err, &below):
			return c.JSON(http.StatusConflict, echo.Map{
				"error":     "capacity below occupancy",
				"requested": below.Requested,
				"occupied":  below.Occupied,
			})
		}
		if strings.Contains(err.Error(), "1062") {
			return c.JSON(http.StatusConflict, echo.Map{"error": "unit name already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, toYardResp(y))
}

// GetYard handles GET /v1/yards/:id and includes live slot counts.
func (h *YardHandler) GetYard(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	d, err := h.Yards.GetYard(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrYardNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "yard not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, toYardDetailResp(d))
}

// ListYards handles GET /v1/yards.
func (h *YardHandler) ListYards(c echo.Context) error {
	items, err := h.Yards.ListYards(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	out := make([]yardDetailResp, 0, len(items))
	for i := range items {
		out = append(out, toYardDetailResp(&items[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// ListSlots handles GET /v1/yards/:id/slots, ordered by slot number.
func (h *YardHandler) ListSlots(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	slots, err := h.Yards.ListSlots(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrYardNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "yard not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	out := make([]slotResp, 0, len(slots))
	for _, s := range slots {
		out = append(out, toSlotResp(s))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// DeleteYard handles DELETE /v1/yards/:id.  A yard with occupied slots
// is not deleted; the response carries the occupied count so the
// caller can decide whether to force.
func (h *YardHandler) DeleteYard(c echo.Context) error {
	return h.deleteYard(c, false)
}

// ForceDeleteYard handles DELETE /v1/yards/:id/force.  Vehicles parked
// in the yard are released before the yard and its slots are removed.
func (h *YardHandler) ForceDeleteYard(c echo.Context) error {
	return h.deleteYard(c, true)
}

func (h *YardHandler) deleteYard(c echo.Context, force bool) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if force {
		err = h.Yards.ForceDeleteYard(c.Request().Context(), id)
	} else {
		err = h.Yards.DeleteYard(c.Request().Context(), id)
	}
	if err != nil {
		var occupied *service.YardOccupiedError
		switch {
		case errors.Is(err, repository.ErrYardNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "yard not found"})
		case errors.As(err, &occupied):
			return c.JSON(http.StatusConflict, echo.Map{
				"error":    "yard has occupied slots",
				"occupied": occupied.Occupied,
			})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
