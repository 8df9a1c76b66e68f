// Package access decides whether a verified caller may act on cash cards.
//
// There are two tiers. The route gate requires the owner role and answers
// "forbidden" when it is missing, before any record is touched. Past the gate,
// a record owned by somebody else is reported exactly like a missing one so
// that valid ids of other owners cannot be enumerated.
package access

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/cashcards/cashcards/internal/identity"
)

// ErrForbidden is returned when an authenticated principal lacks the owner role.
var ErrForbidden = errors.New("forbidden")

// PrincipalKey is the fiber Locals key holding the verified identity.Principal.
const PrincipalKey = "principal"

// Policy holds the role required to reach cash-card endpoints.
type Policy struct {
	OwnerRole string
}

// NewPolicy builds a policy requiring ownerRole.
func NewPolicy(ownerRole string) Policy {
	return Policy{OwnerRole: ownerRole}
}

// Authorize is the route-level gate. It ignores which record is requested.
func (p Policy) Authorize(principal identity.Principal) error {
	if principal.Name == "" || !principal.HasRole(p.OwnerRole) {
		return ErrForbidden
	}
	return nil
}

// Visible reports whether principal may see a record owned by owner. A false
// result must be surfaced as "not found".
func (p Policy) Visible(owner string, principal identity.Principal) bool {
	return owner != "" && owner == principal.Name
}

// RequireRole rejects requests whose principal lacks the owner role. It must
// run after an authenticator has stored the principal under PrincipalKey.
func RequireRole(p Policy) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFrom(c)
		if !ok {
			return fiber.NewError(http.StatusUnauthorized, "authentication required")
		}
		if err := p.Authorize(principal); err != nil {
			return fiber.NewError(http.StatusForbidden, "owner role required")
		}
		return c.Next()
	}
}

// PrincipalFrom returns the principal attached to the request, if any.
func PrincipalFrom(c *fiber.Ctx) (identity.Principal, bool) {
	principal, ok := c.Locals(PrincipalKey).(identity.Principal)
	if !ok || principal.Name == "" {
		return identity.Principal{}, false
	}
	return principal, true
}
