package model

import "time"

// Role names stored in users.role and carried in the JWT "role" claim.
const (
	RoleAdmin    = "ADMIN"
	RoleCustomer = "CUSTOMER"
)

// User represents an application user record as stored in the `users`
// table.  Orders are always owned by a user; ADMIN users may additionally
// manage reference data (airports, routes, airplanes, crews, flights).
//
// Fields:
//  ID             – primary key identifier of the user.
//  Email          – unique, lower-cased email address.
//  PasswordHash   – bcrypt hashed password.
//  Role           – ADMIN or CUSTOMER.
//  PassportNumber – optional travel document number printed on e-tickets.
//  DateOfBirth    – optional date of birth (nil when not provided).
//  IsActive       – whether the account may log in.
type User struct {
	ID             uint64     // users.id
	Email          string     // users.email
	PasswordHash   string     // users.password_hash
	Role           string     // users.role
	PassportNumber string     // users.passport_number
	DateOfBirth    *time.Time // users.date_of_birth (nullable)
	IsActive       bool       // users.is_active
	CreatedAt      time.Time  // users.created_at
	UpdatedAt      time.Time  // users.updated_at
}

// IsAdmin reports whether the user may manage reference data.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// RefreshToken models an entry in the `refresh_tokens` table.  The plain
// token is never stored; only its SHA‑256 hash.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
