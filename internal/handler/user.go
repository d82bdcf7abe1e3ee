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

// UserManager is the slice of the user service these handlers need.
type UserManager interface {
	GetUser(ctx context.Context, id uint64) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	Update(ctx context.Context, id uint64, name, email, password string) (*model.User, error)
	CheckUserDeletable(ctx context.Context, id uint64) (service.UserDependencies, error)
	DeleteUser(ctx context.Context, id uint64) error
	ForceDeleteUserDependencies(ctx context.Context, id uint64) (int64, error)
}

// UserHandler serves the user management endpoints (admin only).
type UserHandler struct {
	Users UserManager
}

func NewUserHandler(u UserManager) *UserHandler {
	return &UserHandler{Users: u}
}

// ----- DTOs -----

type userResp struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toUserResp(u *model.User) userResp {
	return userResp{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt}
}

// ListUsers handles GET /v1/users.
func (h *UserHandler) ListUsers(c echo.Context) error {
	items, err := h.Users.ListUsers(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	out := make([]userResp, 0, len(items))
	for i := range items {
		out = append(out, toUserResp(&items[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// GetUser handles GET /v1/users/:id.  The response carries the user's
// allocation dependency counts so a client can tell up front whether a
// delete will be refused.
func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	u, err := h.Users.GetUser(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	deps, err := h.Users.CheckUserDeletable(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"user":         toUserResp(u),
		"dependencies": deps,
	})
}

// UpdateUser handles PUT /v1/users/:id.  An empty password keeps the
// current one; a non-empty password is re-validated and re-hashed.
func (h *UserHandler) UpdateUser(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || req.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and email are required"})
	}
	u, err := h.Users.Update(c.Request().Context(), id, req.Name, req.Email, req.Password)
	if err != nil {
		var verr *service.ValidationError
		switch {
		case errors.Is(err, repository.ErrUserNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		case errors.As(err, &verr):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation rejected", "errors": verr.Errors})
		case errors.Is(err, repository.ErrEmailExists):
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		if strings.Contains(err.Error(), "1062") {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, toUserResp(u))
}

// DeleteUser handles DELETE /v1/users/:id.  Users referenced by
// allocation history are not deleted; the 409 body carries both counts.
func (h *UserHandler) DeleteUser(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Users.DeleteUser(c.Request().Context(), id); err != nil {
		var deps *service.UserDependenciesError
		switch {
		case errors.Is(err, repository.ErrUserNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		case errors.As(err, &deps):
			return c.JSON(http.StatusConflict, echo.Map{
				"error":           "user has allocation dependencies",
				"mechanic_count":  deps.MechanicCount,
				"finalizer_count": deps.FinalizerCount,
			})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteUserDependencies handles DELETE /v1/users/:id/dependencies.  It
// removes the user's allocation rows in both roles and reports how many
// went; the user row itself survives.
func (h *UserHandler) DeleteUserDependencies(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	removed, err := h.Users.ForceDeleteUserDependencies(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"removed": removed})
}
