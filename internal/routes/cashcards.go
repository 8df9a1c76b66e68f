package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/cashcards/cashcards/internal/cashcard"
)

// CashCardRoutes bundles the handler and guards of the /cashcards group.
type CashCardRoutes struct {
	Handler      *cashcard.Handler
	Authenticate fiber.Handler
	RequireOwner fiber.Handler
	Idempotency  fiber.Handler
}

// RegisterCashCardRoutes wires the owner-scoped cash card endpoints. Every
// route authenticates first and then requires the owner role.
func RegisterCashCardRoutes(r fiber.Router, cr CashCardRoutes) {
	group := r.Group("/cashcards", cr.Authenticate, cr.RequireOwner)

	// Head goes first; Get would otherwise claim HEAD for the same path.
	group.Head("/:id", cr.Handler.Exists)
	group.Get("/:id", cr.Handler.Get)
	group.Get("/", cr.Handler.List)
	group.Post("/", cr.Idempotency, cr.Handler.Create)
	group.Put("/:id", cr.Handler.Update)
	group.Delete("/:id", cr.Handler.Delete)
}
