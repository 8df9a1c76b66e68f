package identity

import (
	"slices"
	"time"
)

// User is a stored credential record.
type User struct {
	Username     string
	PasswordHash []byte
	Roles        []string
	CreatedAt    time.Time
}

// Principal is the verified caller identity handed to the rest of the app.
// It is built once per request by the authenticator and passed explicitly.
type Principal struct {
	Name  string
	Roles []string
}

// HasRole reports whether the principal was granted role.
func (p Principal) HasRole(role string) bool {
	return slices.Contains(p.Roles, role)
}

// Principal returns the public identity of the user.
func (u User) Principal() Principal {
	return Principal{Name: u.Username, Roles: slices.Clone(u.Roles)}
}

// Credentials request structure.
type Credentials struct {
	Username string
	Password string
}
