package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/safar/lanchonete-orders/internal/database"
	"github.com/safar/lanchonete-orders/internal/models"
	"github.com/shopspring/decimal"
)

type CreateOrderRequest struct {
	Customer      models.Customer
	Items         []OrderItemRequest
	PaymentMethod string
	DeliveryMode  models.DeliveryMode
	// UseCatalogPrices snapshots the catalog price instead of UnitPrice.
	UseCatalogPrices bool
}

type OrderItemRequest struct {
	ProductID int64
	Quantity  int
	UnitPrice decimal.Decimal
}

// CreateOrder writes the customer, the order header and one line item per
// requested item in a single transaction. The order starts as received and
// its total is fixed here.
func (s *Store) CreateOrder(ctx context.Context, req CreateOrderRequest) (*models.Order, error) {
	if len(req.Items) == 0 {
		return nil, database.ErrEmptyOrder
	}

	var order *models.Order

	err := database.WithTransaction(ctx, s.db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		customerID, err := createCustomer(ctx, tx, req.Customer)
		if err != nil {
			return err
		}

		items := make([]models.OrderItem, 0, len(req.Items))
		for _, item := range req.Items {
			unitPrice := item.UnitPrice
			if req.UseCatalogPrices {
				unitPrice, err = catalogPrice(ctx, tx, item.ProductID)
				if err != nil {
					return err
				}
			}
			items = append(items, models.OrderItem{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				// preco_unitario keeps two places; the total must be summed
				// from the stored value.
				UnitPrice: unitPrice.Round(2),
			})
		}

		order = &models.Order{
			CustomerID:    customerID,
			Total:         models.OrderTotal(items),
			PaymentMethod: req.PaymentMethod,
			DeliveryMode:  req.DeliveryMode,
			Status:        models.StatusReceived,
			CreatedAt:     s.localNow(),
		}

		err = tx.QueryRowContext(ctx,
			`INSERT INTO pedidos (cliente_id, total, forma_pagamento, tipo_entrega, status, data_pedido)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 RETURNING id`,
			order.CustomerID, order.Total, order.PaymentMethod, order.DeliveryMode, order.Status,
			wallClock(order.CreatedAt)).Scan(&order.ID)
		if err != nil {
			if database.IsConstraintViolation(err) {
				return fmt.Errorf("create order: %w", database.ErrInvalidOrderData)
			}
			return fmt.Errorf("create order: %w", err)
		}

		for _, item := range items {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO itens_pedido (pedido_id, produto_id, quantidade, preco_unitario)
				 VALUES ($1, $2, $3, $4)`,
				order.ID, item.ProductID, item.Quantity, item.UnitPrice)
			if err != nil {
				if database.ClassifyError(err) == database.ErrorClassForeignKey {
					return fmt.Errorf("product %d: %w", item.ProductID, database.ErrProductNotFound)
				}
				if database.IsConstraintViolation(err) {
					return fmt.Errorf("product %d: %w", item.ProductID, database.ErrInvalidOrderData)
				}
				return fmt.Errorf("create order item: %w", err)
			}
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return order, nil
}

const orderSummaryColumns = `
	p.id, p.cliente_id, p.total, p.forma_pagamento, p.tipo_entrega, p.status, p.data_pedido,
	c.nome, COALESCE(c.telefone, ''), COALESCE(c.endereco, '')`

// ListOrders returns every order with its customer's contact fields, newest
// first. Orders sharing a timestamp come newest insert first.
func (s *Store) ListOrders(ctx context.Context) ([]models.OrderSummary, error) {
	query := `
		SELECT` + orderSummaryColumns + `
		FROM pedidos p
		JOIN clientes c ON p.cliente_id = c.id
		ORDER BY p.data_pedido DESC, p.id DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := []models.OrderSummary{}
	for rows.Next() {
		summary, err := s.scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, summary)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return orders, nil
}

func (s *Store) GetOrder(ctx context.Context, id int64) (*models.OrderDetail, error) {
	query := `
		SELECT` + orderSummaryColumns + `
		FROM pedidos p
		JOIN clientes c ON p.cliente_id = c.id
		WHERE p.id = $1`

	summary, err := s.scanSummary(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	itemsQuery := `
		SELECT i.id, i.pedido_id, i.produto_id, i.quantidade, i.preco_unitario, pr.nome
		FROM itens_pedido i
		JOIN produtos pr ON i.produto_id = pr.id
		WHERE i.pedido_id = $1
		ORDER BY i.id`

	rows, err := s.db.QueryContext(ctx, itemsQuery, id)
	if err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()

	items := []models.OrderItemDetail{}
	for rows.Next() {
		var item models.OrderItemDetail
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.Quantity,
			&item.UnitPrice,
			&item.ProductName,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return &models.OrderDetail{OrderSummary: summary, Items: items}, nil
}

// UpdateStatus moves an order to next. The row is locked for the check so two
// staff members cannot race past the transition table.
func (s *Store) UpdateStatus(ctx context.Context, id int64, next models.Status) error {
	return database.WithTransaction(ctx, s.db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		var current models.Status
		var mode models.DeliveryMode
		err := tx.QueryRowContext(ctx,
			`SELECT status, tipo_entrega FROM pedidos WHERE id = $1 FOR UPDATE`,
			id).Scan(&current, &mode)
		if err != nil {
			if err == sql.ErrNoRows {
				return database.ErrOrderNotFound
			}
			return fmt.Errorf("lock order: %w", err)
		}

		if !current.CanTransitionTo(next, mode) {
			return fmt.Errorf("%w: %s -> %s", models.ErrInvalidTransition, current, next)
		}

		result, err := tx.ExecContext(ctx,
			`UPDATE pedidos SET status = $1 WHERE id = $2`,
			next, id)
		if err != nil {
			return fmt.Errorf("update status: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("get rows affected: %w", err)
		}

		if rowsAffected == 0 {
			return database.ErrOrderNotFound
		}

		return nil
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanSummary(row rowScanner) (models.OrderSummary, error) {
	var order models.Order
	var customer models.Customer
	err := row.Scan(
		&order.ID,
		&order.CustomerID,
		&order.Total,
		&order.PaymentMethod,
		&order.DeliveryMode,
		&order.Status,
		&order.CreatedAt,
		&customer.Name,
		&customer.Phone,
		&customer.Address,
	)
	if err != nil {
		return models.OrderSummary{}, err
	}
	order.CreatedAt = s.inZone(order.CreatedAt)
	customer.ID = order.CustomerID
	return models.NewSummary(order, customer), nil
}

// wallClock drops the zone so a TIMESTAMP column stores the local reading
// as-is.
func wallClock(t time.Time) string {
	return t.Format("2006-01-02 15:04:05.999999")
}
