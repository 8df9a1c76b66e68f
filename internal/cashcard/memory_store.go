package cashcard

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
)

// MemoryStore is a concurrency-safe in-memory Store for dev and tests.
type MemoryStore struct {
	mu     sync.RWMutex
	cards  map[int64]CashCard
	lastID int64
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{cards: make(map[int64]CashCard)}
}

// Seed stores cards with their given ids. Later inserts get ids above the
// highest seeded one.
func (s *MemoryStore) Seed(cards ...CashCard) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, card := range cards {
		s.cards[card.ID] = card
		if card.ID > s.lastID {
			s.lastID = card.ID
		}
	}
}

func (s *MemoryStore) FindByIDAndOwner(_ context.Context, id int64, owner string) (CashCard, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	card, ok := s.cards[id]
	if !ok || card.Owner != owner {
		return CashCard{}, false, nil
	}
	return card, true, nil
}

func (s *MemoryStore) ExistsByIDAndOwner(ctx context.Context, id int64, owner string) (bool, error) {
	_, found, err := s.FindByIDAndOwner(ctx, id, owner)
	return found, err
}

func (s *MemoryStore) FindByOwner(_ context.Context, q Query) ([]CashCard, error) {
	s.mu.RLock()
	owned := make([]CashCard, 0, len(s.cards))
	for _, card := range s.cards {
		if card.Owner == q.Owner {
			owned = append(owned, card)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(owned, func(i, j int) bool {
		return compareCards(owned[i], owned[j], q.Orders) < 0
	})

	if q.Offset >= len(owned) {
		return []CashCard{}, nil
	}
	end := len(owned)
	if q.Limit > 0 && q.Offset+q.Limit < end {
		end = q.Offset + q.Limit
	}
	return owned[q.Offset:end], nil
}

func (s *MemoryStore) Insert(_ context.Context, card CashCard) (CashCard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastID++
	card.ID = s.lastID
	s.cards[card.ID] = card
	return card, nil
}

func (s *MemoryStore) UpdateAmount(_ context.Context, id int64, owner string, amount decimal.Decimal) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	card, ok := s.cards[id]
	if !ok || card.Owner != owner {
		return false, nil
	}
	card.Amount = amount
	s.cards[id] = card
	return true, nil
}

func (s *MemoryStore) DeleteByIDAndOwner(_ context.Context, id int64, owner string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	card, ok := s.cards[id]
	if !ok || card.Owner != owner {
		return false, nil
	}
	delete(s.cards, id)
	return true, nil
}

func compareCards(a, b CashCard, orders []Order) int {
	for _, o := range orders {
		var c int
		switch o.Field {
		case FieldAmount:
			c = a.Amount.Cmp(b.Amount)
		case FieldID:
			switch {
			case a.ID < b.ID:
				c = -1
			case a.ID > b.ID:
				c = 1
			}
		}
		if o.Direction == Desc {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	return 0
}
