package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials covers both unknown users and wrong passwords.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserExists is returned when registering a taken username.
	ErrUserExists = errors.New("user exists")
)

// Service manages credentials and verifies callers.
type Service struct {
	repo Repository
	cost int

	dummyOnce sync.Once
	dummy     []byte
}

// NewService creates a new identity service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, cost: bcrypt.DefaultCost}
}

// WithCost overrides the bcrypt cost; tests use bcrypt.MinCost.
func (s *Service) WithCost(cost int) *Service {
	s.cost = cost
	return s
}

// Register stores a user with a hashed password.
func (s *Service) Register(ctx context.Context, creds Credentials, roles []string) (User, error) {
	username := strings.TrimSpace(creds.Username)
	if username == "" {
		return User{}, errors.New("username is required")
	}
	if creds.Password == "" {
		return User{}, errors.New("password is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), s.cost)
	if err != nil {
		return User{}, err
	}

	user := User{
		Username:     username,
		PasswordHash: hash,
		Roles:        roles,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return User{}, err
	}

	return user, nil
}

// Seed registers each user, skipping usernames that already exist.
func (s *Service) Seed(ctx context.Context, users []SeedUser) error {
	for _, u := range users {
		_, err := s.Register(ctx, Credentials{Username: u.Username, Password: u.Password}, u.Roles)
		if err != nil && !errors.Is(err, ErrUserExists) {
			return fmt.Errorf("seed user %s: %w", u.Username, err)
		}
	}
	return nil
}

// SeedUser is a user provisioned at startup.
type SeedUser struct {
	Username string
	Password string
	Roles    []string
}

// Authenticate verifies a username/password pair and returns the caller's principal.
func (s *Service) Authenticate(ctx context.Context, creds Credentials) (Principal, error) {
	user, found, err := s.repo.FindByUsername(ctx, creds.Username)
	if err != nil {
		return Principal{}, err
	}
	if !found {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash(), []byte(creds.Password))
		return Principal{}, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(creds.Password)); err != nil {
		return Principal{}, ErrInvalidCredentials
	}

	return user.Principal(), nil
}

// Lookup returns the current principal for a username, used to re-check roles
// for bearer tokens.
func (s *Service) Lookup(ctx context.Context, username string) (Principal, bool, error) {
	user, found, err := s.repo.FindByUsername(ctx, username)
	if err != nil || !found {
		return Principal{}, false, err
	}
	return user.Principal(), true, nil
}

// dummyHash is compared against for unknown usernames so they take as long to
// reject as a wrong password. It uses the same cost as stored hashes.
func (s *Service) dummyHash() []byte {
	s.dummyOnce.Do(func() {
		hash, err := bcrypt.GenerateFromPassword([]byte("cashcards-dummy"), s.cost)
		if err != nil {
			hash, _ = bcrypt.GenerateFromPassword([]byte("cashcards-dummy"), bcrypt.DefaultCost)
		}
		s.dummy = hash
	})
	return s.dummy
}
