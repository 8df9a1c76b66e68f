package cashcard

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PostgresStore stores cash cards in the cash_cards table.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore builds a store backed by PostgreSQL.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

const maxPrealloc = 64

var sortColumns = map[string]string{
	FieldID:     "id",
	FieldAmount: "amount",
}

// FindByIDAndOwner fetches one card matching both id and owner.
func (s *PostgresStore) FindByIDAndOwner(ctx context.Context, id int64, owner string) (CashCard, bool, error) {
	row := s.db.QueryRow(ctx, `SELECT id, amount::text, owner FROM cash_cards WHERE id = $1 AND owner = $2`, id, owner)
	card, err := scanCard(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CashCard{}, false, nil
		}
		return CashCard{}, false, err
	}
	return card, true, nil
}

// ExistsByIDAndOwner reports whether an (id, owner) row exists.
func (s *PostgresStore) ExistsByIDAndOwner(ctx context.Context, id int64, owner string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM cash_cards WHERE id = $1 AND owner = $2)`, id, owner).Scan(&exists)
	return exists, err
}

// FindByOwner runs a planned query.
func (s *PostgresStore) FindByOwner(ctx context.Context, q Query) ([]CashCard, error) {
	orderBy, err := orderClause(q.Orders)
	if err != nil {
		return nil, err
	}
	sql := `SELECT id, amount::text, owner FROM cash_cards WHERE owner = $1 ORDER BY ` + orderBy + ` LIMIT $2 OFFSET $3`

	rows, err := s.db.Query(ctx, sql, q.Owner, q.Limit, q.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	// Limit is caller-controlled and unbounded unless a cap is configured.
	cards := make([]CashCard, 0, min(q.Limit, maxPrealloc))
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	return cards, rows.Err()
}

// Insert stores a new card and returns it with its generated id.
func (s *PostgresStore) Insert(ctx context.Context, card CashCard) (CashCard, error) {
	err := s.db.QueryRow(ctx, `INSERT INTO cash_cards (amount, owner) VALUES ($1::numeric, $2) RETURNING id`,
		card.Amount.String(), card.Owner).Scan(&card.ID)
	if err != nil {
		return CashCard{}, err
	}
	return card, nil
}

// UpdateAmount replaces the amount where both id and owner match.
func (s *PostgresStore) UpdateAmount(ctx context.Context, id int64, owner string, amount decimal.Decimal) (bool, error) {
	cmd, err := s.db.Exec(ctx, `UPDATE cash_cards SET amount = $1::numeric WHERE id = $2 AND owner = $3`, amount.String(), id, owner)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

// DeleteByIDAndOwner removes the row where both id and owner match.
func (s *PostgresStore) DeleteByIDAndOwner(ctx context.Context, id int64, owner string) (bool, error) {
	cmd, err := s.db.Exec(ctx, `DELETE FROM cash_cards WHERE id = $1 AND owner = $2`, id, owner)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func orderClause(orders []Order) (string, error) {
	if len(orders) == 0 {
		return "", errors.New("query has no sort order")
	}
	parts := make([]string, 0, len(orders))
	for _, o := range orders {
		col, ok := sortColumns[o.Field]
		if !ok {
			return "", fmt.Errorf("unsupported sort field %q", o.Field)
		}
		dir := "ASC"
		if o.Direction == Desc {
			dir = "DESC"
		}
		parts = append(parts, col+" "+dir)
	}
	return strings.Join(parts, ", "), nil
}

func scanCard(row pgx.Row) (CashCard, error) {
	var (
		card   CashCard
		amount string
	)
	if err := row.Scan(&card.ID, &amount, &card.Owner); err != nil {
		return CashCard{}, err
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return CashCard{}, fmt.Errorf("decode amount %q: %w", amount, err)
	}
	card.Amount = d
	return card, nil
}
