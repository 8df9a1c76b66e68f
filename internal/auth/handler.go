package auth

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/cashcards/cashcards/internal/access"
)

// Handler exposes token issuance.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Token issues an access token to a caller already verified by Basic auth.
func (h *Handler) Token(c *fiber.Ctx) error {
	p, ok := access.PrincipalFrom(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}
	pair, err := h.svc.Issue(p)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.Status(http.StatusOK).JSON(pair)
}
