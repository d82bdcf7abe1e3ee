package service

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"strings"

	"github.com/geosense/yard-service/internal/model"
	"github.com/geosense/yard-service/internal/repository"
	"github.com/geosense/yard-service/internal/utils"
	"github.com/geosense/yard-service/internal/validation"
)

// UserService registers and edits users through the external validation
// oracle, and guards user deletion against allocation history
// references.  The guard's check and the delete always run in one
// transaction under the user row lock.
type UserService struct {
	db          *sql.DB
	users       UserStore
	tokens      TokenStore
	allocations AllocationStore
	validator   validation.CredentialValidator
	bcryptCost  int
}

// NewUserService wires the service.  The validator is injected; there
// is no ambient lookup.
func NewUserService(db *sql.DB, users UserStore, tokens TokenStore, allocations AllocationStore, validator validation.CredentialValidator, bcryptCost int) *UserService {
	return &UserService{
		db:          db,
		users:       users,
		tokens:      tokens,
		allocations: allocations,
		validator:   validator,
		bcryptCost:  bcryptCost,
	}
}

// UserDependencies reports how many allocation rows reference a user in
// each role.
type UserDependencies struct {
	MechanicCount  int64 `json:"mechanic_count"`
	FinalizerCount int64 `json:"finalizer_count"`
}

// Register creates a MECHANIC account after the oracle accepts the
// credentials.
func (s *UserService) Register(ctx context.Context, name, email, password string) (*model.User, error) {
	res, err := s.validator.Validate(ctx, password, email, model.RoleMechanic, validation.OpInsert)
	if err != nil {
		return nil, err
	}
	if !res.Accepted {
		return nil, &ValidationError{Errors: res.Errors}
	}
	id, err := s.users.Create(ctx, name, email, password, model.RoleMechanic, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, id)
}

// Update edits a user's name, email and (when non-empty) password,
// re-running the oracle with the user's current role.
func (s *UserService) Update(ctx context.Context, id uint64, name, email, password string) (*model.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	res, err := s.validator.Validate(ctx, password, email, u.Role, validation.OpUpdate)
	if err != nil {
		return nil, err
	}
	if !res.Accepted {
		return nil, &ValidationError{Errors: res.Errors}
	}
	var hash *string
	if strings.TrimSpace(password) != "" {
		h, err := utils.HashPassword(password, s.bcryptCost)
		if err != nil {
			return nil, err
		}
		hash = &h
	}
	if err := s.users.Update(ctx, id, name, email, hash); err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, id)
}

// GetUser returns one user.
func (s *UserService) GetUser(ctx context.Context, id uint64) (*model.User, error) {
	return s.users.GetByID(ctx, id)
}

// ListUsers returns all users.
func (s *UserService) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.users.List(ctx)
}

// CheckUserDeletable reports the allocation references held against a
// user without mutating anything.
func (s *UserService) CheckUserDeletable(ctx context.Context, id uint64) (UserDependencies, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return UserDependencies{}, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := s.users.LockTx(ctx, tx, id); err != nil {
		return UserDependencies{}, err
	}
	deps, err := s.countDependenciesTx(ctx, tx, id)
	if err != nil {
		return UserDependencies{}, err
	}
	return deps, tx.Commit()
}

// DeleteUser removes a user only when no allocation row references it
// in either role; otherwise it fails with UserDependenciesError
// carrying both counts and mutates nothing.
func (s *UserService) DeleteUser(ctx context.Context, id uint64) error {
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

	if _, err := s.users.LockTx(ctx, tx, id); err != nil {
		return err
	}
	deps, err := s.countDependenciesTx(ctx, tx, id)
	if err != nil {
		return err
	}
	if deps.MechanicCount > 0 || deps.FinalizerCount > 0 {
		return &UserDependenciesError{MechanicCount: deps.MechanicCount, FinalizerCount: deps.FinalizerCount}
	}
	if err := s.tokens.DeleteAllForUserTx(ctx, tx, id); err != nil {
		return err
	}
	if err := s.users.DeleteTx(ctx, tx, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// ForceDeleteUserDependencies removes every allocation row referencing
// the user in either role and reports the total removed.  The user row
// itself is untouched; a subsequent DeleteUser will then succeed.
func (s *UserService) ForceDeleteUserDependencies(ctx context.Context, id uint64) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := s.users.LockTx(ctx, tx, id); err != nil {
		return 0, err
	}
	removed, err := s.allocations.DeleteByUserTx(ctx, tx, id)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return removed, nil
}

func (s *UserService) countDependenciesTx(ctx context.Context, tx *sql.Tx, id uint64) (UserDependencies, error) {
	mech, err := s.allocations.CountByMechanicTx(ctx, tx, id)
	if err != nil {
		return UserDependencies{}, err
	}
	fin, err := s.allocations.CountByFinalizerTx(ctx, tx, id)
	if err != nil {
		return UserDependencies{}, err
	}
	return UserDependencies{MechanicCount: mech, FinalizerCount: fin}, nil
}

// SeedAdmin makes sure an ADMIN account exists, creating it from the
// configured credentials when missing.  Idempotent across restarts.
func (s *UserService) SeedAdmin(ctx context.Context, name, email, password string) error {
	_, err := s.users.FirstByRole(ctx, model.RoleAdmin)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return err
	}
	if _, err := s.users.Create(ctx, name, email, password, model.RoleAdmin, s.bcryptCost); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil // seeded concurrently
		}
		return err
	}
	log.Printf("user-service: seeded admin account %s", email)
	return nil
}
