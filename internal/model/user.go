package model

import "time"

// User roles.  Admins manage yards and users; mechanics work on vehicles
// and appear on allocation records.
const (
	RoleAdmin    = "ADMIN"
	RoleMechanic = "MECHANIC"
)

// User represents an application user as stored in the `users` table.
// A user is referenced by allocation records in two distinct roles:
// as the responsible mechanic and as the finalizing user.  Deleting a
// user is refused while either kind of reference exists.
type User struct {
	ID           uint64    // users.id
	Name         string    // users.name
	Email        string    // users.email (unique)
	PasswordHash string    // users.password_hash (bcrypt)
	Role         string    // users.role (ADMIN | MECHANIC)
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  Only the
// SHA-256 hash of the raw token is stored.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
