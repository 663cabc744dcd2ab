//go:build integration

package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/safar/lanchonete-orders/internal/database"
)

var testDB *sql.DB

var saoPaulo = mustLocation("America/Sao_Paulo")

func mustLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

func TestMain(m *testing.M) {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("lanchonete_test"),
		tcpostgres.WithUsername("testuser"),
		tcpostgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "start postgres container: %v\n", err)
		os.Exit(1)
	}

	code := run(ctx, container, m)

	if err := container.Terminate(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "terminate container: %v\n", err)
	}
	os.Exit(code)
}

func run(ctx context.Context, container *tcpostgres.PostgresContainer, m *testing.M) int {
	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		fmt.Fprintf(os.Stderr, "connection string: %v\n", err)
		return 1
	}

	testDB, err = sql.Open("postgres", dsn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open database: %v\n", err)
		return 1
	}
	defer testDB.Close()

	if _, err := database.Migrate(ctx, testDB, database.Up); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		return 1
	}

	return m.Run()
}

// setupStore empties every table, reseeds the default menu and returns a
// store recording timestamps in the Sao Paulo zone.
func setupStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	ctx := context.Background()

	_, err := testDB.ExecContext(ctx,
		`TRUNCATE sessoes, usuarios, itens_pedido, pedidos, clientes, produtos RESTART IDENTITY CASCADE`)
	if err != nil {
		t.Fatalf("Truncate tables: %v", err)
	}

	s := New(testDB, saoPaulo, opts...)
	if _, err := s.SeedProducts(ctx, DefaultMenu); err != nil {
		t.Fatalf("Seed products: %v", err)
	}
	return s
}

func countRows(t *testing.T, table string) int {
	t.Helper()
	var n int
	if err := testDB.QueryRow(`SELECT COUNT(*) FROM ` + table).Scan(&n); err != nil {
		t.Fatalf("Count %s: %v", table, err)
	}
	return n
}
