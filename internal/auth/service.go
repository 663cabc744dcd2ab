// Package auth authenticates staff members and manages their sessions.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/safar/lanchonete-orders/internal/database"
)

// CookieName is the cookie carrying the signed session token.
const CookieName = "session"

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUnauthenticated    = errors.New("no valid session")
)

// Store is the persistence the authenticator needs. *store.Store satisfies it.
type Store interface {
	CreateUser(ctx context.Context, username, passwordHash string) (int64, error)
	PasswordHash(ctx context.Context, username string) (string, error)
	CountUsers(ctx context.Context) (int64, error)
	CreateSession(ctx context.Context, username string, ttl time.Duration) (uuid.UUID, error)
	SessionUser(ctx context.Context, token uuid.UUID) (string, error)
	DeleteSession(ctx context.Context, token uuid.UUID) error
	PurgeExpiredSessions(ctx context.Context) (int64, error)
}

type Authenticator struct {
	store  Store
	signer *Signer
	ttl    time.Duration
	logger *slog.Logger
}

func NewAuthenticator(store Store, signer *Signer, ttl time.Duration, logger *slog.Logger) *Authenticator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Authenticator{store: store, signer: signer, ttl: ttl, logger: logger}
}

func (a *Authenticator) TTL() time.Duration {
	return a.ttl
}

// Login checks the credentials and returns the signed cookie value for a new
// session.
func (a *Authenticator) Login(ctx context.Context, username, password string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", ErrInvalidCredentials
	}

	hash, err := a.store.PasswordHash(ctx, username)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	if !CheckPassword(hash, password) {
		return "", ErrInvalidCredentials
	}

	if purged, err := a.store.PurgeExpiredSessions(ctx); err != nil {
		a.logger.WarnContext(ctx, "purge expired sessions", slog.String("error", err.Error()))
	} else if purged > 0 {
		a.logger.InfoContext(ctx, "purged expired sessions", slog.Int64("count", purged))
	}

	token, err := a.store.CreateSession(ctx, username, a.ttl)
	if err != nil {
		return "", err
	}
	return a.signer.Sign(token), nil
}

// Authenticate resolves a cookie value to the username of its live session.
func (a *Authenticator) Authenticate(ctx context.Context, cookieValue string) (string, error) {
	token, err := a.signer.Verify(cookieValue)
	if err != nil {
		return "", ErrUnauthenticated
	}
	username, err := a.store.SessionUser(ctx, token)
	if err != nil {
		if errors.Is(err, database.ErrSessionNotFound) {
			return "", ErrUnauthenticated
		}
		return "", err
	}
	return username, nil
}

func (a *Authenticator) Logout(ctx context.Context, cookieValue string) error {
	token, err := a.signer.Verify(cookieValue)
	if err != nil {
		return nil
	}
	return a.store.DeleteSession(ctx, token)
}

// EnsureAdmin creates the first staff account when none exists. It does
// nothing when username or password is empty.
func (a *Authenticator) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return false, nil
	}
	count, err := a.store.CountUsers(ctx)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	hash, err := HashPassword(password)
	if err != nil {
		return false, err
	}
	if _, err := a.store.CreateUser(ctx, strings.TrimSpace(username), hash); err != nil {
		return false, err
	}
	return true, nil
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

type userKey struct{}

// WithUser stores the authenticated username in ctx.
func WithUser(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, userKey{}, username)
}

func UserFromContext(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(userKey{}).(string)
	return username, ok && username != ""
}
