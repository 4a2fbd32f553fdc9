package identity

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Tomlord1122/todolist/internal/domain"
	"github.com/Tomlord1122/todolist/internal/repository"
)

const tokenBytes = 32

// SessionStore maps token digests to user ids. Lookup returns ErrNoSession
// for missing and expired entries.
type SessionStore interface {
	Save(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error
	Lookup(ctx context.Context, tokenHash string, now time.Time) (string, error)
	Delete(ctx context.Context, tokenHash string) error
}

func newToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("rand: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

type postgresSessionStore struct {
	repo   repository.SessionRepository
	logger zerolog.Logger
}

// NewPostgresSessionStore keeps sessions in the sessions table. Expired rows
// are swept whenever a new session is saved.
func NewPostgresSessionStore(repo repository.SessionRepository, logger zerolog.Logger) SessionStore {
	return &postgresSessionStore{
		repo:   repo,
		logger: logger.With().Str("component", "session_store").Logger(),
	}
}

func (s *postgresSessionStore) Save(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error {
	now := time.Now().UTC()
	if n, err := s.repo.DeleteExpired(ctx, now); err != nil {
		s.logger.Warn().Err(err).Msg("failed to sweep expired sessions")
	} else if n > 0 {
		s.logger.Debug().Int64("affected", n).Msg("swept expired sessions")
	}

	return s.repo.Create(ctx, &domain.Session{
		TokenHash: tokenHash,
		UserID:    userID,
		ExpiresAt: expiresAt.UTC(),
		CreatedAt: now,
	})
}

func (s *postgresSessionStore) Lookup(ctx context.Context, tokenHash string, now time.Time) (string, error) {
	session, err := s.repo.FindActive(ctx, tokenHash, now)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrNoSession
		}
		return "", err
	}
	return session.UserID, nil
}

func (s *postgresSessionStore) Delete(ctx context.Context, tokenHash string) error {
	return s.repo.Delete(ctx, tokenHash)
}
