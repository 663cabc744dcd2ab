package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/safar/lanchonete-orders/internal/database"
)

func (s *Store) CreateUser(ctx context.Context, username, passwordHash string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO usuarios (username, senha_hash) VALUES ($1, $2) RETURNING id`,
		username, passwordHash).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create user: %w", err)
	}
	return id, nil
}

// PasswordHash returns the stored hash for username, or ErrUserNotFound.
func (s *Store) PasswordHash(ctx context.Context, username string) (string, error) {
	var hash string
	err := s.db.QueryRowContext(ctx,
		`SELECT senha_hash FROM usuarios WHERE username = $1`,
		username).Scan(&hash)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", database.ErrUserNotFound
		}
		return "", fmt.Errorf("get user: %w", err)
	}
	return hash, nil
}

func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM usuarios`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}
