package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/geosense/yard-service/internal/model"
)

// The services depend on these narrow views of the repository layer
// rather than on the concrete repos, so the transaction flows can be
// exercised against fakes.  The repository types satisfy them as-is.

// YardStore persists yards.
type YardStore interface {
	CreateTx(ctx context.Context, tx *sql.Tx, y *model.Yard) error
	GetByID(ctx context.Context, id uint64) (*model.Yard, error)
	LockTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Yard, error)
	List(ctx context.Context) ([]model.Yard, error)
	UpdateTx(ctx context.Context, tx *sql.Tx, y *model.Yard) error
	DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error
}

// SlotStore persists the slot pools.
type SlotStore interface {
	ListByYard(ctx context.Context, yardID uint64) ([]model.Slot, error)
	ListByYardTx(ctx context.Context, tx *sql.Tx, yardID uint64) ([]model.Slot, error)
	GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Slot, error)
	CreateBulkTx(ctx context.Context, tx *sql.Tx, yardID uint64, numbers []int) error
	DeleteByIDsTx(ctx context.Context, tx *sql.Tx, ids []uint64) error
	DeleteByYardTx(ctx context.Context, tx *sql.Tx, yardID uint64) error
	CountByStatus(ctx context.Context, yardID uint64, status string) (int, error)
	OccupyTx(ctx context.Context, tx *sql.Tx, slotID, vehicleID uint64) error
	FreeTx(ctx context.Context, tx *sql.Tx, slotID uint64) error
	FreeByYardTx(ctx context.Context, tx *sql.Tx, yardID uint64) error
}

// VehicleStore persists vehicles.
type VehicleStore interface {
	CreateTx(ctx context.Context, tx *sql.Tx, v *model.Vehicle) error
	GetByID(ctx context.Context, id uint64) (*model.Vehicle, error)
	GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Vehicle, error)
	List(ctx context.Context) ([]model.Vehicle, error)
	Update(ctx context.Context, v *model.Vehicle) error
	SetSlotTx(ctx context.Context, tx *sql.Tx, vehicleID, slotID uint64) error
	ClearSlotTx(ctx context.Context, tx *sql.Tx, vehicleID uint64) error
	ClearSlotByYardTx(ctx context.Context, tx *sql.Tx, yardID uint64) error
	DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error
}

// UserStore persists user accounts.
type UserStore interface {
	Create(ctx context.Context, name, email, password, role string, cost int) (uint64, error)
	GetByID(ctx context.Context, id uint64) (*model.User, error)
	FirstByRole(ctx context.Context, role string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Update(ctx context.Context, id uint64, name, email string, passwordHash *string) error
	LockTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.User, error)
	DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error
}

// TokenStore persists refresh tokens.
type TokenStore interface {
	DeleteAllForUserTx(ctx context.Context, tx *sql.Tx, userID uint64) error
}

// AllocationStore persists the allocation history.
type AllocationStore interface {
	Create(ctx context.Context, a *model.Allocation) error
	GetByID(ctx context.Context, id uint64) (*model.Allocation, error)
	Finalize(ctx context.Context, id, finalizerID uint64, finishedAt time.Time) error
	List(ctx context.Context, vehicleID *uint64) ([]model.Allocation, error)
	CountByMechanicTx(ctx context.Context, tx *sql.Tx, userID uint64) (int64, error)
	CountByFinalizerTx(ctx context.Context, tx *sql.Tx, userID uint64) (int64, error)
	DeleteByUserTx(ctx context.Context, tx *sql.Tx, userID uint64) (int64, error)
	DeleteByVehicleTx(ctx context.Context, tx *sql.Tx, vehicleID uint64) error
}
