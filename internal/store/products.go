package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/safar/lanchonete-orders/internal/database"
	"github.com/safar/lanchonete-orders/internal/models"
	"github.com/shopspring/decimal"
)

// DefaultMenu is inserted by SeedProducts on an empty catalog. On a fresh
// database the products get ids 1..7 in this order.
var DefaultMenu = []models.Product{
	{Name: "X-Salada", Price: decimal.RequireFromString("16.00")},
	{Name: "X-Dog", Price: decimal.RequireFromString("15.00")},
	{Name: "X-Bacon", Price: decimal.RequireFromString("18.00")},
	{Name: "Pastel Carne", Price: decimal.RequireFromString("14.00")},
	{Name: "Pastel Queijo", Price: decimal.RequireFromString("14.00")},
	{Name: "Coca-Cola 2L", Price: decimal.RequireFromString("12.00")},
	{Name: "Porção Batata Frita", Price: decimal.RequireFromString("35.00")},
}

// SeedProducts fills an empty catalog with menu and reports how many rows it
// inserted. A non-empty catalog is left untouched.
func (s *Store) SeedProducts(ctx context.Context, menu []models.Product) (int, error) {
	inserted := 0

	err := database.WithTransaction(ctx, s.db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `LOCK TABLE produtos IN SHARE ROW EXCLUSIVE MODE`); err != nil {
			return fmt.Errorf("lock products: %w", err)
		}

		var count int64
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM produtos`).Scan(&count); err != nil {
			return fmt.Errorf("count products: %w", err)
		}
		if count > 0 {
			return nil
		}

		for _, product := range menu {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO produtos (nome, preco) VALUES ($1, $2)`,
				product.Name, product.Price)
			if err != nil {
				return fmt.Errorf("insert product %q: %w", product.Name, err)
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return inserted, nil
}

func (s *Store) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	product := &models.Product{}

	err := s.db.QueryRowContext(ctx,
		`SELECT id, nome, preco FROM produtos WHERE id = $1`,
		id).Scan(&product.ID, &product.Name, &product.Price)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrProductNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	return product, nil
}

func (s *Store) ListProducts(ctx context.Context) ([]models.Product, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, nome, preco FROM produtos ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		var product models.Product
		if err := rows.Scan(&product.ID, &product.Name, &product.Price); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return products, nil
}

// catalogPrice reads the current price of a product inside tx.
func catalogPrice(ctx context.Context, tx *sql.Tx, productID int64) (decimal.Decimal, error) {
	var price decimal.Decimal
	err := tx.QueryRowContext(ctx,
		`SELECT preco FROM produtos WHERE id = $1`,
		productID).Scan(&price)
	if err != nil {
		if err == sql.ErrNoRows {
			return decimal.Zero, fmt.Errorf("product %d: %w", productID, database.ErrProductNotFound)
		}
		return decimal.Zero, fmt.Errorf("read price of product %d: %w", productID, err)
	}
	return price, nil
}
