package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/safar/lanchonete-orders/internal/database"
)

// CreateSession stores a fresh opaque token for username valid for ttl.
func (s *Store) CreateSession(ctx context.Context, username string, ttl time.Duration) (uuid.UUID, error) {
	token := uuid.New()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessoes (token, username, created_at, expires_at)
		 VALUES ($1, $2, NOW(), NOW() + make_interval(secs => $3))`,
		token, username, ttl.Seconds())
	if err != nil {
		return uuid.Nil, fmt.Errorf("create session: %w", err)
	}
	return token, nil
}

// SessionUser returns the username owning an unexpired token.
func (s *Store) SessionUser(ctx context.Context, token uuid.UUID) (string, error) {
	var username string
	err := s.db.QueryRowContext(ctx,
		`SELECT username FROM sessoes WHERE token = $1 AND expires_at > NOW()`,
		token).Scan(&username)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", database.ErrSessionNotFound
		}
		return "", fmt.Errorf("get session: %w", err)
	}
	return username, nil
}

func (s *Store) DeleteSession(ctx context.Context, token uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessoes WHERE token = $1`, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// PurgeExpiredSessions removes expired tokens and reports how many went.
func (s *Store) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM sessoes WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	return result.RowsAffected()
}
