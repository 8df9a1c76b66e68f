package cashcard

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cashcards/cashcards/internal/access"
	"github.com/cashcards/cashcards/internal/identity"
)

// Limits are optional write and paging bounds. Zero values disable them.
type Limits struct {
	MaxPageSize  int
	MaxAbsAmount decimal.Decimal
}

// Service exposes owner-scoped cash card operations.
type Service struct {
	store   Store
	policy  access.Policy
	planner Planner
	maxAbs  decimal.Decimal
}

// NewService builds a cash card service.
func NewService(store Store, policy access.Policy, limits Limits) *Service {
	return &Service{
		store:   store,
		policy:  policy,
		planner: Planner{MaxPageSize: limits.MaxPageSize},
		maxAbs:  limits.MaxAbsAmount,
	}
}

// CreateInput carries the client-controlled fields of a new card.
type CreateInput struct {
	Amount decimal.Decimal
}

// UpdateInput carries the replacement amount of a card.
type UpdateInput struct {
	Amount decimal.Decimal
}

// Get returns the caller's card with the given id.
func (s *Service) Get(ctx context.Context, p identity.Principal, id int64) (CashCard, error) {
	if err := s.policy.Authorize(p); err != nil {
		return CashCard{}, err
	}
	card, found, err := s.store.FindByIDAndOwner(ctx, id, p.Name)
	if err != nil {
		return CashCard{}, fmt.Errorf("find cash card %d: %w", id, err)
	}
	if !found || !s.policy.Visible(card.Owner, p) {
		return CashCard{}, ErrNotFound
	}
	return card, nil
}

// Exists reports whether the caller owns a card with the given id.
func (s *Service) Exists(ctx context.Context, p identity.Principal, id int64) (bool, error) {
	if err := s.policy.Authorize(p); err != nil {
		return false, err
	}
	exists, err := s.store.ExistsByIDAndOwner(ctx, id, p.Name)
	if err != nil {
		return false, fmt.Errorf("check cash card %d: %w", id, err)
	}
	return exists, nil
}

// List returns one page of the caller's cards.
func (s *Service) List(ctx context.Context, p identity.Principal, req PageRequest) ([]CashCard, error) {
	if err := s.policy.Authorize(p); err != nil {
		return nil, err
	}
	q, err := s.planner.Plan(req, p.Name)
	if err != nil {
		return nil, err
	}
	cards, err := s.store.FindByOwner(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list cash cards: %w", err)
	}
	return cards, nil
}

// Create stores a new card owned by the caller.
func (s *Service) Create(ctx context.Context, p identity.Principal, input CreateInput) (CashCard, error) {
	if err := s.policy.Authorize(p); err != nil {
		return CashCard{}, err
	}
	if err := s.checkAmount(input.Amount); err != nil {
		return CashCard{}, err
	}
	card, err := s.store.Insert(ctx, CashCard{Amount: input.Amount, Owner: p.Name})
	if err != nil {
		return CashCard{}, fmt.Errorf("insert cash card: %w", err)
	}
	return card, nil
}

// Update replaces the amount of the caller's card. Id and owner are kept.
func (s *Service) Update(ctx context.Context, p identity.Principal, id int64, input UpdateInput) error {
	if err := s.policy.Authorize(p); err != nil {
		return err
	}
	if err := s.checkAmount(input.Amount); err != nil {
		return err
	}
	updated, err := s.store.UpdateAmount(ctx, id, p.Name, input.Amount)
	if err != nil {
		return fmt.Errorf("update cash card %d: %w", id, err)
	}
	if !updated {
		return ErrNotFound
	}
	return nil
}

// Delete removes the caller's card.
func (s *Service) Delete(ctx context.Context, p identity.Principal, id int64) error {
	if err := s.policy.Authorize(p); err != nil {
		return err
	}
	deleted, err := s.store.DeleteByIDAndOwner(ctx, id, p.Name)
	if err != nil {
		return fmt.Errorf("delete cash card %d: %w", id, err)
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}

func (s *Service) checkAmount(amount decimal.Decimal) error {
	if s.maxAbs.IsPositive() && amount.Abs().GreaterThan(s.maxAbs) {
		return invalid("amount", "absolute value exceeds %s", s.maxAbs.String())
	}
	return nil
}
