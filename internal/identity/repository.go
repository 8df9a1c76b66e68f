package identity

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists users.
type Repository interface {
	Create(ctx context.Context, user User) error
	// FindByUsername reports found=false for unknown users instead of an error.
	FindByUsername(ctx context.Context, username string) (User, bool, error)
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed identity repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new user.
func (r *PostgresRepository) Create(ctx context.Context, user User) error {
	_, err := r.db.Exec(ctx, `INSERT INTO users (username, password_hash, roles, created_at)
        VALUES ($1, $2, $3, $4)`, user.Username, user.PasswordHash, user.Roles, user.CreatedAt.UTC())
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrUserExists
	}
	return err
}

// FindByUsername fetches a user by login name.
func (r *PostgresRepository) FindByUsername(ctx context.Context, username string) (User, bool, error) {
	row := r.db.QueryRow(ctx, `SELECT username, password_hash, roles, created_at FROM users WHERE username = $1`, username)
	var (
		user      User
		createdAt time.Time
	)
	if err := row.Scan(&user.Username, &user.PasswordHash, &user.Roles, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, false, nil
		}
		return User{}, false, err
	}
	user.CreatedAt = createdAt.UTC()
	return user, true, nil
}
