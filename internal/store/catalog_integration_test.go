//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/safar/lanchonete-orders/internal/database"
)

func TestSeedProductsIsIdempotent(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	inserted, err := s.SeedProducts(ctx, DefaultMenu)
	if err != nil {
		t.Fatalf("Seed products again: %v", err)
	}
	if inserted != 0 {
		t.Errorf("Second seed should insert nothing, inserted %d", inserted)
	}

	products, err := s.ListProducts(ctx)
	if err != nil {
		t.Fatalf("List products: %v", err)
	}
	if len(products) != len(DefaultMenu) {
		t.Fatalf("Expected %d products, got %d", len(DefaultMenu), len(products))
	}
	if products[0].ID != 1 || products[0].Name != "X-Salada" {
		t.Errorf("Expected X-Salada with id 1, got %+v", products[0])
	}
	if products[5].ID != 6 || products[5].Name != "Coca-Cola 2L" {
		t.Errorf("Expected Coca-Cola 2L with id 6, got %+v", products[5])
	}
}

func TestGetProductNotFound(t *testing.T) {
	s := setupStore(t)

	_, err := s.GetProduct(context.Background(), 42)
	if err != database.ErrProductNotFound {
		t.Errorf("Expected product not found, got: %v", err)
	}
}

func TestSessionLifecycle(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	if _, err := s.CreateUser(ctx, "staff", "hash"); err != nil {
		t.Fatalf("Create user: %v", err)
	}

	token, err := s.CreateSession(ctx, "staff", time.Hour)
	if err != nil {
		t.Fatalf("Create session: %v", err)
	}

	username, err := s.SessionUser(ctx, token)
	if err != nil {
		t.Fatalf("Session user: %v", err)
	}
	if username != "staff" {
		t.Errorf("Expected staff, got %s", username)
	}

	if err := s.DeleteSession(ctx, token); err != nil {
		t.Fatalf("Delete session: %v", err)
	}
	if _, err := s.SessionUser(ctx, token); err != database.ErrSessionNotFound {
		t.Errorf("Expected session not found after delete, got: %v", err)
	}
}

func TestExpiredSessionsArePurged(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	if _, err := s.CreateUser(ctx, "staff", "hash"); err != nil {
		t.Fatalf("Create user: %v", err)
	}
	token, err := s.CreateSession(ctx, "staff", -time.Minute)
	if err != nil {
		t.Fatalf("Create session: %v", err)
	}

	if _, err := s.SessionUser(ctx, token); err != database.ErrSessionNotFound {
		t.Errorf("Expired session should not resolve, got: %v", err)
	}

	purged, err := s.PurgeExpiredSessions(ctx)
	if err != nil {
		t.Fatalf("Purge sessions: %v", err)
	}
	if purged != 1 {
		t.Errorf("Expected 1 purged session, got %d", purged)
	}
}

func TestPasswordHashUnknownUser(t *testing.T) {
	s := setupStore(t)

	_, err := s.PasswordHash(context.Background(), "ghost")
	if err != database.ErrUserNotFound {
		t.Errorf("Expected user not found, got: %v", err)
	}
}
