package users

import "strings"

// Identity is the signed-in user as the client keeps it.
// It is persisted under storage.KeyUser in this normalised shape.
type Identity struct {
	ID      int64  `json:"id"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
}

// Record is a user as the backend serialises it (login result, admin listing)
type Record struct {
	ID         int64   `json:"id"`
	Email      string  `json:"email"`
	FirstName  *string `json:"nombre,omitempty"`
	LastName   *string `json:"apellido,omitempty"`
	IsAdmin    bool    `json:"is_admin"`
	IsActive   bool    `json:"is_active"`
	IsVerified bool    `json:"is_verified,omitempty"`
	CreatedAt  string  `json:"created_at,omitempty"`
}

// Normalize maps the backend's is_admin flag onto the client identity
func Normalize(r Record) Identity {
	return Identity{
		ID:      r.ID,
		Email:   strings.TrimSpace(r.Email),
		IsAdmin: r.IsAdmin,
	}
}

// Valid reports whether the identity carries enough to act as a session owner
func (i Identity) Valid() bool {
	return i.ID != 0 || i.Email != ""
}
