package cashcard

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/cashcards/cashcards/internal/access"
	"github.com/cashcards/cashcards/internal/identity"
	"github.com/cashcards/cashcards/internal/middleware"
)

// Handler exposes cash card HTTP endpoints.
type Handler struct {
	service         *Service
	defaultPageSize int
}

// NewHandler builds a cash card HTTP handler.
func NewHandler(service *Service, defaultPageSize int) *Handler {
	return &Handler{service: service, defaultPageSize: defaultPageSize}
}

// cardRequest is the body of create and update. Any owner or id the client
// sends is not part of it and is dropped by the decoder.
type cardRequest struct {
	Amount *decimal.Decimal `json:"amount" validate:"required"`
}

type cardResponse struct {
	ID     int64       `json:"id"`
	Amount json.Number `json:"amount"`
	Owner  string      `json:"owner"`
}

func toResponse(card CashCard) cardResponse {
	return cardResponse{ID: card.ID, Amount: json.Number(card.Amount.String()), Owner: card.Owner}
}

// Get returns one card.
func (h *Handler) Get(c *fiber.Ctx) error {
	p, id, err := h.target(c)
	if err != nil {
		return err
	}
	card, err := h.service.Get(c.UserContext(), p, id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(http.StatusOK).JSON(toResponse(card))
}

// Exists answers HEAD with 200 or 404 and no body.
func (h *Handler) Exists(c *fiber.Ctx) error {
	p, id, err := h.target(c)
	if err != nil {
		return err
	}
	exists, err := h.service.Exists(c.UserContext(), p, id)
	if err != nil {
		return h.fail(c, err)
	}
	if !exists {
		return h.fail(c, ErrNotFound)
	}
	c.Status(http.StatusOK)
	return nil
}

// List returns one page of the caller's cards as a bare array.
func (h *Handler) List(c *fiber.Ctx) error {
	p, ok := access.PrincipalFrom(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}

	args := c.Context().QueryArgs()
	var sorts []string
	for _, v := range args.PeekMulti("sort") {
		sorts = append(sorts, string(v))
	}
	req, err := ParsePageRequest(c.Query("page"), c.Query("size"), sorts, h.defaultPageSize)
	if err != nil {
		return h.fail(c, err)
	}

	cards, err := h.service.List(c.UserContext(), p, req)
	if err != nil {
		return h.fail(c, err)
	}
	out := make([]cardResponse, 0, len(cards))
	for _, card := range cards {
		out = append(out, toResponse(card))
	}
	return c.Status(http.StatusOK).JSON(out)
}

// Create stores a new card for the caller and points Location at it.
func (h *Handler) Create(c *fiber.Ctx) error {
	p, ok := access.PrincipalFrom(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}
	amount, err := parseBody(c)
	if err != nil {
		return err
	}
	card, err := h.service.Create(c.UserContext(), p, CreateInput{Amount: amount})
	if err != nil {
		return h.fail(c, err)
	}
	c.Location(fmt.Sprintf("/cashcards/%d", card.ID))
	return c.SendStatus(http.StatusCreated)
}

// Update replaces the amount of an existing card.
func (h *Handler) Update(c *fiber.Ctx) error {
	p, id, err := h.target(c)
	if err != nil {
		return err
	}
	amount, err := parseBody(c)
	if err != nil {
		return err
	}
	if err := h.service.Update(c.UserContext(), p, id, UpdateInput{Amount: amount}); err != nil {
		return h.fail(c, err)
	}
	return c.SendStatus(http.StatusNoContent)
}

// Delete removes a card.
func (h *Handler) Delete(c *fiber.Ctx) error {
	p, id, err := h.target(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), p, id); err != nil {
		return h.fail(c, err)
	}
	return c.SendStatus(http.StatusNoContent)
}

func (h *Handler) target(c *fiber.Ctx) (identity.Principal, int64, error) {
	p, ok := access.PrincipalFrom(c)
	if !ok {
		return identity.Principal{}, 0, fiber.NewError(http.StatusUnauthorized, "authentication required")
	}
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return identity.Principal{}, 0, fiber.NewError(http.StatusBadRequest, "id must be a positive integer")
	}
	return p, id, nil
}

func parseBody(c *fiber.Ctx) (decimal.Decimal, error) {
	var req cardRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return decimal.Decimal{}, fiber.NewError(http.StatusBadRequest, "malformed body: "+err.Error())
	}
	if errs := middleware.ValidateRequest(req); len(errs) > 0 {
		return decimal.Decimal{}, errs
	}
	return *req.Amount, nil
}

// fail maps service errors to responses. Not-found answers carry no body so a
// foreign record looks exactly like a missing one.
func (h *Handler) fail(c *fiber.Ctx, err error) error {
	var ve *ValidationError
	switch {
	case errors.Is(err, ErrNotFound):
		c.Status(http.StatusNotFound)
		return nil
	case errors.Is(err, access.ErrForbidden):
		return fiber.NewError(http.StatusForbidden, "owner role required")
	case errors.As(err, &ve):
		return fiber.NewError(http.StatusBadRequest, ve.Error())
	default:
		return err
	}
}
