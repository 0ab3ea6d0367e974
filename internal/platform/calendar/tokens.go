package calendar

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrTokenNotFound is returned when a user has not linked a calendar.
var ErrTokenNotFound = errors.New("calendar token not found")

// Token holds a user's OAuth credentials for the calendar API.
type Token struct {
	UserID       string    `json:"user_id"`
	AccessToken  string    `json:"-"`
	RefreshToken string    `json:"-"`
	ExpiresAt    time.Time `json:"expires_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TokenStore persists calendar tokens per staff user.
type TokenStore interface {
	Save(ctx context.Context, token *Token) error
	Get(ctx context.Context, userID string) (*Token, error)
	Delete(ctx context.Context, userID string) error
}

// =========== Postgres Store ===========

type tokenStorePG struct{ pool *pgxpool.Pool }

// NewTokenStorePG creates a Postgres-backed TokenStore.
func NewTokenStorePG(pool *pgxpool.Pool) TokenStore { return &tokenStorePG{pool: pool} }

func (s *tokenStorePG) Save(ctx context.Context, token *Token) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO calendar_tokens (user_id, access_token, refresh_token, expires_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			expires_at = EXCLUDED.expires_at,
			updated_at = NOW()`,
		token.UserID, token.AccessToken, token.RefreshToken, token.ExpiresAt)
	return err
}

func (s *tokenStorePG) Get(ctx context.Context, userID string) (*Token, error) {
	var t Token
	err := s.pool.QueryRow(ctx, `
		SELECT user_id, access_token, refresh_token, expires_at, updated_at
		FROM calendar_tokens WHERE user_id = $1`, userID).
		Scan(&t.UserID, &t.AccessToken, &t.RefreshToken, &t.ExpiresAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *tokenStorePG) Delete(ctx context.Context, userID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM calendar_tokens WHERE user_id = $1`, userID)
	return err
}

// =========== In-Memory Store (dev and tests) ===========

type tokenStoreMemory struct {
	mu     sync.RWMutex
	tokens map[string]*Token
}

// NewTokenStoreMemory creates an in-memory TokenStore.
func NewTokenStoreMemory() TokenStore {
	return &tokenStoreMemory{tokens: make(map[string]*Token)}
}

func (s *tokenStoreMemory) Save(_ context.Context, token *Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *token
	cp.UpdatedAt = time.Now().UTC()
	s.tokens[token.UserID] = &cp
	return nil
}

func (s *tokenStoreMemory) Get(_ context.Context, userID string) (*Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tokens[userID]
	if !ok {
		return nil, ErrTokenNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *tokenStoreMemory) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, userID)
	return nil
}
