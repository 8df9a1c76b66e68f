package cashcard

import (
	"context"

	"github.com/shopspring/decimal"
)

// Store persists cash cards. Every method that addresses a single record takes
// the owner alongside the id and matches on both in one operation.
type Store interface {
	FindByIDAndOwner(ctx context.Context, id int64, owner string) (CashCard, bool, error)
	ExistsByIDAndOwner(ctx context.Context, id int64, owner string) (bool, error)
	FindByOwner(ctx context.Context, q Query) ([]CashCard, error)
	// Insert assigns a fresh id and returns the stored card. card.ID is ignored.
	Insert(ctx context.Context, card CashCard) (CashCard, error)
	// UpdateAmount replaces the amount of the (id, owner) record and reports
	// whether such a record existed. It never creates a record.
	UpdateAmount(ctx context.Context, id int64, owner string, amount decimal.Decimal) (bool, error)
	// DeleteByIDAndOwner reports whether an (id, owner) record was removed.
	DeleteByIDAndOwner(ctx context.Context, id int64, owner string) (bool, error)
}
