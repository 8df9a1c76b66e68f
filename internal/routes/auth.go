package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/cashcards/cashcards/internal/auth"
)

const loginFailureWindow = 15 * time.Minute

// RegisterAuthRoutes wires token issuance. Callers present Basic credentials
// and receive a short-lived bearer token.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler, authenticate fiber.Handler) {
	group := r.Group("/auth")
	group.Post("/token", authenticate, h.Token)
}
