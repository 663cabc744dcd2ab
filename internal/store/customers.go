package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/safar/lanchonete-orders/internal/database"
	"github.com/safar/lanchonete-orders/internal/models"
)

// createCustomer appends a customer row inside tx. Repeat customers get a new
// row every time; nothing is matched or deduplicated.
func createCustomer(ctx context.Context, tx *sql.Tx, customer models.Customer) (int64, error) {
	name := strings.TrimSpace(customer.Name)
	if name == "" {
		return 0, database.ErrCustomerNameRequired
	}

	var id int64
	err := tx.QueryRowContext(ctx,
		`INSERT INTO clientes (nome, telefone, email, endereco)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		name, nullString(customer.Phone), nullString(customer.Email), nullString(customer.Address)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create customer: %w", err)
	}

	return id, nil
}

func nullString(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{String: s, Valid: s != ""}
}
